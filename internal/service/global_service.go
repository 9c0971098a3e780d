package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/metrics"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
)

const cleanupFlagPrefix = "global_cleanup_done:"

// GlobalService publishes the master account's folders as global playlists
// and keeps subscriber copies in sync
type GlobalService struct {
	store    *repository.Store
	masterID string
	now      Clock
	group    singleflight.Group
}

// NewGlobalService creates a new global playlist service. An empty masterID
// disables the feature.
func NewGlobalService(store *repository.Store, masterID string, clock Clock) *GlobalService {
	return &GlobalService{store: store, masterID: masterID, now: clockOrDefault(clock)}
}

// Enabled reports whether a master account is configured
func (s *GlobalService) Enabled() bool {
	return s.masterID != ""
}

// ListGlobalFolders returns the master's playlists with their video counts
func (s *GlobalService) ListGlobalFolders(ctx context.Context) ([]models.FolderWithCount, error) {
	if !s.Enabled() {
		return nil, ErrGlobalDisabled
	}

	folders, err := s.store.Folders.GetOwnerFolders(ctx, s.masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list global folders: %w", err)
	}
	counts, err := s.store.Folders.CountVideosByFolder(ctx, s.masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to count global videos: %w", err)
	}

	out := make([]models.FolderWithCount, 0, len(folders))
	for _, f := range folders {
		if f.IsShadow {
			continue
		}
		out = append(out, models.FolderWithCount{Folder: f, VideoCount: counts[f.ID]})
	}
	return out, nil
}

// ListGlobalFolderVideos returns the videos of one master playlist without
// the master's own kid state
func (s *GlobalService) ListGlobalFolderVideos(ctx context.Context, masterFolderID string) ([]models.Video, error) {
	if _, err := s.masterFolder(ctx, s.store, masterFolderID); err != nil {
		return nil, err
	}

	videos, err := s.store.Videos.GetFolderVideoRows(ctx, s.masterID, masterFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list global videos: %w", err)
	}
	for i := range videos {
		videos[i].Assigned = map[string]bool{}
		videos[i].Progress = map[string]*models.Progress{}
	}
	return nonNilVideos(videos), nil
}

// ListSubscriptions returns the subscriber's global playlist subscriptions
func (s *GlobalService) ListSubscriptions(ctx context.Context, subscriber string) ([]models.GlobalSubscription, error) {
	if !s.Enabled() {
		return nil, ErrGlobalDisabled
	}
	subs, err := s.store.Subscriptions.GetUserSubscriptions(ctx, subscriber)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []models.GlobalSubscription{}
	}
	return subs, nil
}

// Subscribe records the subscription and runs a first sync
func (s *GlobalService) Subscribe(ctx context.Context, subscriber, masterFolderID string, kidIDs []string) (*models.GlobalSubscription, *models.SyncResult, error) {
	if !s.Enabled() {
		return nil, nil, ErrGlobalDisabled
	}
	if subscriber == s.masterID {
		return nil, nil, ErrSelfSubscribe
	}
	if _, err := s.masterFolder(ctx, s.store, masterFolderID); err != nil {
		return nil, nil, err
	}

	if kidIDs == nil {
		kidIDs = []string{}
	}
	sub := &models.GlobalSubscription{
		UserID:         subscriber,
		MasterFolderID: masterFolderID,
		KidIDs:         kidIDs,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.Subscriptions.UpsertSubscription(ctx, sub); err != nil {
		return nil, nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	result, err := s.SyncSubscription(ctx, subscriber, masterFolderID)
	if err != nil {
		return sub, nil, err
	}

	logging.Logger.Info().
		Str("subscriber", subscriber).
		Str("folder", masterFolderID).
		Int("created", result.Created).
		Msg("Subscribed to global playlist")
	return sub, result, nil
}

// Unsubscribe removes the subscription together with its synced folder and videos
func (s *GlobalService) Unsubscribe(ctx context.Context, subscriber, masterFolderID string) error {
	if !s.Enabled() {
		return ErrGlobalDisabled
	}

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		sub, err := tx.Subscriptions.GetSubscription(ctx, subscriber, masterFolderID)
		if err != nil {
			return err
		}
		if sub == nil {
			return ErrSubscriptionNotFound
		}

		shadow, err := tx.Folders.GetFolderByName(ctx, subscriber, models.ShadowFolderName(masterFolderID))
		if err != nil {
			return err
		}
		if shadow != nil {
			if _, err := tx.Videos.DeleteFolderVideos(ctx, subscriber, shadow.ID); err != nil {
				return err
			}
			if err := tx.Folders.DeleteFolder(ctx, shadow.ID); err != nil {
				return err
			}
		}
		return tx.Subscriptions.DeleteSubscription(ctx, subscriber, masterFolderID)
	})
}

// SyncSubscription copies master videos the subscriber does not have yet into
// the synced folder and assigns target kids missing from already synced videos.
// Concurrent syncs of the same subscription share one run.
func (s *GlobalService) SyncSubscription(ctx context.Context, subscriber, masterFolderID string) (*models.SyncResult, error) {
	if !s.Enabled() {
		return nil, ErrGlobalDisabled
	}

	v, err, _ := s.group.Do(subscriber+"/"+masterFolderID, func() (interface{}, error) {
		return s.syncSubscription(ctx, subscriber, masterFolderID)
	})
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	result := v.(*models.SyncResult)
	metrics.SyncRuns.WithLabelValues("ok").Inc()
	metrics.SyncVideosCreated.Add(float64(result.Created))
	return result, nil
}

func (s *GlobalService) syncSubscription(ctx context.Context, subscriber, masterFolderID string) (*models.SyncResult, error) {
	result := &models.SyncResult{}
	createdAt := s.now().UTC()

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		sub, err := tx.Subscriptions.GetSubscription(ctx, subscriber, masterFolderID)
		if err != nil {
			return err
		}
		if sub == nil {
			return ErrSubscriptionNotFound
		}
		if _, err := s.masterFolder(ctx, tx, masterFolderID); err != nil {
			return err
		}

		kidIDs, err := resolveTargetKids(ctx, tx, subscriber, sub.KidIDs)
		if err != nil {
			return err
		}

		shadowName := models.ShadowFolderName(masterFolderID)
		shadow, err := tx.Folders.GetFolderByName(ctx, subscriber, shadowName)
		if err != nil {
			return err
		}
		if shadow == nil {
			shadow = &models.Folder{UserID: subscriber, Name: shadowName, CreatedAt: createdAt}
			if err := tx.Folders.CreateFolder(ctx, shadow); err != nil {
				return err
			}
		}

		masterVideos, err := tx.Videos.GetFolderVideoRows(ctx, s.masterID, masterFolderID)
		if err != nil {
			return err
		}
		synced, err := tx.Videos.GetFolderVideos(ctx, subscriber, shadow.ID)
		if err != nil {
			return err
		}

		have := make(map[string]bool, len(synced))
		for _, v := range synced {
			have[v.Platform+":"+v.PlatformVideoID] = true
		}

		for _, mv := range masterVideos {
			key := mv.Platform + ":" + mv.PlatformVideoID
			if have[key] {
				continue
			}
			owned, err := tx.Videos.GetVideoByPlatformID(ctx, subscriber, mv.Platform, mv.PlatformVideoID)
			if err != nil {
				return err
			}
			if owned != nil {
				result.Skipped++
				continue
			}

			folderID := shadow.ID
			video := &models.Video{
				UserID:          subscriber,
				URL:             mv.URL,
				Platform:        mv.Platform,
				PlatformVideoID: mv.PlatformVideoID,
				FolderID:        &folderID,
				Priority:        mv.Priority,
				Assigned:        make(map[string]bool, len(kidIDs)),
				CreatedAt:       createdAt,
			}
			for _, id := range kidIDs {
				video.Assigned[id] = true
			}
			if err := tx.Videos.CreateVideo(ctx, video); err != nil {
				return err
			}
			have[key] = true
			result.Created++
		}

		for _, v := range synced {
			for _, kidID := range kidIDs {
				if _, ok := v.Assigned[kidID]; ok {
					continue
				}
				if err := tx.Progress.AssignKid(ctx, v.ID, kidID); err != nil {
					return err
				}
				result.Assigned++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncAllSubscriptions syncs every subscription of the subscriber. Failures
// do not stop the remaining syncs and are returned joined.
func (s *GlobalService) SyncAllSubscriptions(ctx context.Context, subscriber string) error {
	if !s.Enabled() || subscriber == s.masterID {
		return nil
	}

	subs, err := s.store.Subscriptions.GetUserSubscriptions(ctx, subscriber)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	var errs []error
	for _, sub := range subs {
		if _, err := s.SyncSubscription(ctx, subscriber, sub.MasterFolderID); err != nil {
			logging.Logger.Warn().
				Err(err).
				Str("subscriber", subscriber).
				Str("folder", sub.MasterFolderID).
				Msg("Failed to sync global playlist")
			errs = append(errs, fmt.Errorf("sync %s: %w", sub.MasterFolderID, err))
		}
	}
	return errors.Join(errs...)
}

// CleanupGlobalData removes every synced folder, its videos and every
// subscription of the owner
func (s *GlobalService) CleanupGlobalData(ctx context.Context, owner string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		return cleanupGlobalData(ctx, tx, owner)
	})
}

func cleanupGlobalData(ctx context.Context, tx *repository.Store, owner string) error {
	folders, err := tx.Folders.GetOwnerFolders(ctx, owner)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if !f.IsShadow {
			continue
		}
		if _, err := tx.Videos.DeleteFolderVideos(ctx, owner, f.ID); err != nil {
			return err
		}
		if err := tx.Folders.DeleteFolder(ctx, f.ID); err != nil {
			return err
		}
	}
	_, err = tx.Subscriptions.DeleteUserSubscriptions(ctx, owner)
	return err
}

// EnsureMasterClean removes subscriber data from the master account once.
// The master must never hold synced copies of its own playlists.
func (s *GlobalService) EnsureMasterClean(ctx context.Context, owner string) error {
	if !s.Enabled() || owner != s.masterID {
		return nil
	}
	key := cleanupFlagPrefix + owner

	done, err := s.store.Settings.IsFlagSet(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read cleanup flag: %w", err)
	}
	if done {
		return nil
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := cleanupGlobalData(ctx, tx, owner); err != nil {
			return err
		}
		return tx.Settings.SetFlag(ctx, key, true)
	})
	if err != nil {
		return fmt.Errorf("failed to clean master account: %w", err)
	}

	logging.Logger.Info().Str("owner", owner).Msg("Cleaned global data from master account")
	return nil
}

// masterFolder loads a non-shadow folder of the master account
func (s *GlobalService) masterFolder(ctx context.Context, store *repository.Store, folderID string) (*models.Folder, error) {
	if !s.Enabled() {
		return nil, ErrGlobalDisabled
	}
	folder, err := store.Folders.GetOwnerFolder(ctx, s.masterID, folderID)
	if err != nil {
		return nil, err
	}
	if folder == nil || folder.IsShadow {
		return nil, ErrMasterFolderNotFound
	}
	return folder, nil
}
