package service

import (
	"context"
	"fmt"
	"strings"

	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
	"kidsvideohub/internal/validation"
)

// FolderService handles an owner's folders
type FolderService struct {
	store *repository.Store
	now   Clock
}

// NewFolderService creates a new folder service
func NewFolderService(store *repository.Store, clock Clock) *FolderService {
	return &FolderService{store: store, now: clockOrDefault(clock)}
}

// ListFolders retrieves the owner's folders. Synced playlist folders are
// included and flagged with IsShadow.
func (s *FolderService) ListFolders(ctx context.Context, owner string) ([]models.Folder, error) {
	folders, err := s.store.Folders.GetOwnerFolders(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	return folders, nil
}

// CreateFolder creates a folder. Names may repeat.
func (s *FolderService) CreateFolder(ctx context.Context, owner, name string) (*models.Folder, error) {
	if err := validation.ValidateFolderName(name); err != nil {
		return nil, err
	}

	folder := &models.Folder{
		UserID:    owner,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Folders.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// RenameFolder renames one of the owner's folders
func (s *FolderService) RenameFolder(ctx context.Context, owner, folderID, name string) (*models.Folder, error) {
	if err := validation.ValidateFolderName(name); err != nil {
		return nil, err
	}

	folder, err := s.ownFolder(ctx, s.store, owner, folderID)
	if err != nil {
		return nil, err
	}

	folder.Name = strings.TrimSpace(name)
	if err := s.store.Folders.RenameFolder(ctx, folderID, folder.Name); err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder detaches the folder's videos and deletes the folder
func (s *FolderService) DeleteFolder(ctx context.Context, owner, folderID string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := s.ownFolder(ctx, tx, owner, folderID); err != nil {
			return err
		}
		if _, err := tx.Videos.ClearFolder(ctx, owner, folderID); err != nil {
			return err
		}
		return tx.Folders.DeleteFolder(ctx, folderID)
	})
}

// ownFolder loads a folder the owner may edit
func (s *FolderService) ownFolder(ctx context.Context, store *repository.Store, owner, folderID string) (*models.Folder, error) {
	folder, err := store.Folders.GetOwnerFolder(ctx, owner, folderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, ErrFolderNotFound
	}
	if folder.IsShadow {
		return nil, ErrShadowFolder
	}
	return folder, nil
}
