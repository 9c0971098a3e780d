package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

const folderColumns = "id, user_id, name, created_at"

// FolderRepository handles database operations for folders
type FolderRepository struct {
	db database.DBTX
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db database.DBTX) *FolderRepository {
	return &FolderRepository{db: db}
}

// CreateFolder inserts a folder, generating an id when none is set
func (r *FolderRepository) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	query := "INSERT INTO folders (" + folderColumns + ") VALUES (?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, folder.ID, folder.UserID, folder.Name, folder.CreatedAt); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	folder.Derive()
	return nil
}

// GetOwnerFolder retrieves a folder only when it belongs to owner
func (r *FolderRepository) GetOwnerFolder(ctx context.Context, owner, folderID string) (*models.Folder, error) {
	query := "SELECT " + folderColumns + " FROM folders WHERE id = ? AND user_id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, folderID, owner))
}

// GetFolderByName retrieves the oldest folder of owner with the exact name
func (r *FolderRepository) GetFolderByName(ctx context.Context, owner, name string) (*models.Folder, error) {
	query := "SELECT " + folderColumns + " FROM folders WHERE user_id = ? AND name = ? ORDER BY created_at ASC, id ASC LIMIT 1"
	return r.scanOne(r.db.QueryRowContext(ctx, query, owner, name))
}

// GetOwnerFolders retrieves all folders of an owner, shadow folders included
func (r *FolderRepository) GetOwnerFolders(ctx context.Context, owner string) ([]models.Folder, error) {
	query := "SELECT " + folderColumns + " FROM folders WHERE user_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		f.Derive()
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// GetAllFolders retrieves every folder
func (r *FolderRepository) GetAllFolders(ctx context.Context) ([]models.Folder, error) {
	query := "SELECT " + folderColumns + " FROM folders ORDER BY user_id, created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		f.Derive()
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// CountVideosByFolder returns the number of an owner's videos in each folder
func (r *FolderRepository) CountVideosByFolder(ctx context.Context, owner string) (map[string]int, error) {
	query := `
		SELECT folder_id, COUNT(*)
		FROM videos
		WHERE user_id = ? AND folder_id IS NOT NULL
		GROUP BY folder_id
	`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to count folder videos: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var folderID string
		var count int
		if err := rows.Scan(&folderID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan folder count: %w", err)
		}
		counts[folderID] = count
	}
	return counts, rows.Err()
}

// RenameFolder changes a folder's name
func (r *FolderRepository) RenameFolder(ctx context.Context, folderID, name string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE folders SET name = ? WHERE id = ?", name, folderID); err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}
	return nil
}

// DeleteFolder deletes a folder record
func (r *FolderRepository) DeleteFolder(ctx context.Context, folderID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", folderID); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

func (r *FolderRepository) scanOne(row *sql.Row) (*models.Folder, error) {
	f := &models.Folder{}
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	f.Derive()
	return f, nil
}
