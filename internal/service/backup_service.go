package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	DatabaseType  string               `json:"database_type"`
	Accounts      []AccountBackup      `json:"accounts"`
	Kids          []KidBackup          `json:"kids"`
	Folders       []FolderBackup       `json:"folders"`
	Videos        []VideoBackup        `json:"videos"`
	Subscriptions []SubscriptionBackup `json:"subscriptions"`
	Feedback      []FeedbackBackup     `json:"feedback"`
}

// AccountBackup represents an account record for backup
type AccountBackup struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KidBackup represents a kid record for backup
type KidBackup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderBackup represents a folder record for backup
type FolderBackup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoBackup represents a video with its per-kid state
type VideoBackup struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	URL             string              `json:"url"`
	Platform        string              `json:"platform"`
	PlatformVideoID string              `json:"platform_video_id"`
	FolderID        *string             `json:"folder_id"`
	Priority        int                 `json:"priority"`
	TotalViews      int                 `json:"total_views"`
	CreatedAt       time.Time           `json:"created_at"`
	Kids            []KidProgressBackup `json:"kids"`
}

// KidProgressBackup represents one kid's state on a video. VoiceRecording
// is the single recording written by older exports.
type KidProgressBackup struct {
	KidID           string                  `json:"kid_id"`
	Assigned        bool                    `json:"assigned"`
	Watched         bool                    `json:"watched"`
	WatchedAt       *time.Time              `json:"watched_at,omitempty"`
	ParentReviewed  *bool                   `json:"parent_reviewed,omitempty"`
	LastPosition    *float64                `json:"last_position,omitempty"`
	VideoDuration   *float64                `json:"video_duration,omitempty"`
	VoiceRecordings []models.VoiceRecording `json:"voice_recordings"`
	DailyWatchTime  map[string]float64      `json:"daily_watch_time,omitempty"`
	VoiceRecording  *models.VoiceRecording  `json:"voiceRecording,omitempty"`
}

// SubscriptionBackup represents a global playlist subscription for backup
type SubscriptionBackup struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	MasterFolderID string    `json:"master_folder_id"`
	KidIDs         []string  `json:"kid_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// FeedbackBackup represents a feedback entry for backup
type FeedbackBackup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	store *repository.Store
	now   Clock
}

// NewBackupService creates a new backup service
func NewBackupService(store *repository.Store, clock Clock) *BackupService {
	return &BackupService{store: store, now: clockOrDefault(clock)}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	logging.Logger.Info().Str("path", outputPath).Msg("Database exported")
	return nil
}

// ExportToWriter writes the backup as indented JSON to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	logging.Logger.Info().
		Int("accounts", len(backup.Accounts)).
		Int("kids", len(backup.Kids)).
		Int("folders", len(backup.Folders)).
		Int("videos", len(backup.Videos)).
		Int("subscriptions", len(backup.Subscriptions)).
		Int("feedback", len(backup.Feedback)).
		Msg("Exported backup")
	return nil
}

// Snapshot reads every table into a BackupData
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: "universal",
	}

	accounts, err := s.store.Accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export accounts: %w", err)
	}
	for _, a := range accounts {
		backup.Accounts = append(backup.Accounts, AccountBackup{
			ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
		})
	}

	kids, err := s.store.Kids.GetAllKids(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export kids: %w", err)
	}
	for _, k := range kids {
		backup.Kids = append(backup.Kids, KidBackup{
			ID: k.ID, UserID: k.UserID, Name: k.Name, Avatar: k.Avatar, CreatedAt: k.CreatedAt,
		})
	}

	folders, err := s.store.Folders.GetAllFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export folders: %w", err)
	}
	for _, f := range folders {
		backup.Folders = append(backup.Folders, FolderBackup{
			ID: f.ID, UserID: f.UserID, Name: f.Name, CreatedAt: f.CreatedAt,
		})
	}

	videos, err := s.store.Videos.GetAllVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export videos: %w", err)
	}
	for _, v := range videos {
		backup.Videos = append(backup.Videos, exportVideo(v))
	}

	subs, err := s.store.Subscriptions.GetUserSubscriptions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to export subscriptions: %w", err)
	}
	for _, sub := range subs {
		backup.Subscriptions = append(backup.Subscriptions, SubscriptionBackup{
			ID: sub.ID, UserID: sub.UserID, MasterFolderID: sub.MasterFolderID, KidIDs: sub.KidIDs, CreatedAt: sub.CreatedAt,
		})
	}

	feedback, err := s.store.Feedback.GetUserFeedback(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to export feedback: %w", err)
	}
	for _, f := range feedback {
		backup.Feedback = append(backup.Feedback, FeedbackBackup{
			ID: f.ID, UserID: f.UserID, Type: f.Type, Content: f.Content, CreatedAt: f.CreatedAt,
		})
	}

	return backup, nil
}

func exportVideo(v models.Video) VideoBackup {
	out := VideoBackup{
		ID:              v.ID,
		UserID:          v.UserID,
		URL:             v.URL,
		Platform:        v.Platform,
		PlatformVideoID: v.PlatformVideoID,
		FolderID:        v.FolderID,
		Priority:        v.Priority,
		TotalViews:      v.TotalViews,
		CreatedAt:       v.CreatedAt,
	}

	kidIDs := make([]string, 0, len(v.Assigned))
	for id := range v.Assigned {
		kidIDs = append(kidIDs, id)
	}
	sort.Strings(kidIDs)

	for _, id := range kidIDs {
		kp := KidProgressBackup{KidID: id, Assigned: v.Assigned[id], VoiceRecordings: []models.VoiceRecording{}}
		if p := v.Progress[id]; p != nil {
			kp.Watched = p.Watched
			kp.WatchedAt = p.WatchedAt
			kp.ParentReviewed = p.ParentReviewed
			kp.LastPosition = p.LastPosition
			kp.VideoDuration = p.VideoDuration
			kp.DailyWatchTime = p.DailyWatchTime
			kp.VoiceRecording = p.LegacyRecording
			if p.VoiceRecordings != nil {
				kp.VoiceRecordings = p.VoiceRecordings
			}
		}
		out.Kids = append(out.Kids, kp)
	}
	return out
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup in one transaction
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	logging.Logger.Info().
		Str("version", backup.Version).
		Time("exported_at", backup.ExportedAt).
		Msg("Importing backup")

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := importAccounts(ctx, tx, backup.Accounts); err != nil {
			return fmt.Errorf("failed to import accounts: %w", err)
		}
		if err := importKids(ctx, tx, backup.Kids); err != nil {
			return fmt.Errorf("failed to import kids: %w", err)
		}
		if err := importFolders(ctx, tx, backup.Folders); err != nil {
			return fmt.Errorf("failed to import folders: %w", err)
		}
		if err := importVideos(ctx, tx, backup.Videos); err != nil {
			return fmt.Errorf("failed to import videos: %w", err)
		}
		if err := importSubscriptions(ctx, tx, backup.Subscriptions); err != nil {
			return fmt.Errorf("failed to import subscriptions: %w", err)
		}
		if err := importFeedback(ctx, tx, backup.Feedback); err != nil {
			return fmt.Errorf("failed to import feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Info().Msg("Database import completed successfully")
	return nil
}

func importAccounts(ctx context.Context, tx *repository.Store, accounts []AccountBackup) error {
	for _, a := range accounts {
		account := &models.Account{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
		if err := tx.Accounts.Insert(ctx, account); err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}
	return nil
}

func importKids(ctx context.Context, tx *repository.Store, kids []KidBackup) error {
	for _, k := range kids {
		kid := &models.Kid{ID: k.ID, UserID: k.UserID, Name: k.Name, Avatar: k.Avatar, CreatedAt: k.CreatedAt}
		if err := tx.Kids.CreateKid(ctx, kid); err != nil {
			return fmt.Errorf("kid %s: %w", k.ID, err)
		}
	}
	return nil
}

func importFolders(ctx context.Context, tx *repository.Store, folders []FolderBackup) error {
	for _, f := range folders {
		folder := &models.Folder{ID: f.ID, UserID: f.UserID, Name: f.Name, CreatedAt: f.CreatedAt}
		if err := tx.Folders.CreateFolder(ctx, folder); err != nil {
			return fmt.Errorf("folder %s: %w", f.ID, err)
		}
	}
	return nil
}

func importVideos(ctx context.Context, tx *repository.Store, videos []VideoBackup) error {
	for _, v := range videos {
		video := &models.Video{
			ID:              v.ID,
			UserID:          v.UserID,
			URL:             v.URL,
			Platform:        v.Platform,
			PlatformVideoID: v.PlatformVideoID,
			FolderID:        v.FolderID,
			Priority:        models.ClampPriority(v.Priority),
			TotalViews:      v.TotalViews,
			CreatedAt:       v.CreatedAt,
		}
		if err := tx.Videos.InsertVideo(ctx, video); err != nil {
			return fmt.Errorf("video %s: %w", v.ID, err)
		}

		for _, kp := range v.Kids {
			row := &repository.ProgressRow{
				VideoID:  video.ID,
				KidID:    kp.KidID,
				Assigned: kp.Assigned,
				Progress: models.Progress{
					Watched:         kp.Watched,
					WatchedAt:       kp.WatchedAt,
					ParentReviewed:  kp.ParentReviewed,
					LastPosition:    kp.LastPosition,
					VideoDuration:   kp.VideoDuration,
					LegacyRecording: kp.VoiceRecording,
				},
			}
			if err := tx.Progress.InsertProgress(ctx, row); err != nil {
				return fmt.Errorf("video %s kid %s: %w", v.ID, kp.KidID, err)
			}
			for i := range kp.VoiceRecordings {
				if err := tx.Progress.AddRecording(ctx, video.ID, kp.KidID, &kp.VoiceRecordings[i]); err != nil {
					return fmt.Errorf("video %s kid %s: %w", v.ID, kp.KidID, err)
				}
			}
			for day, seconds := range kp.DailyWatchTime {
				if err := tx.Progress.AddDailyWatchTime(ctx, video.ID, kp.KidID, day, seconds); err != nil {
					return fmt.Errorf("video %s kid %s: %w", v.ID, kp.KidID, err)
				}
			}
		}
	}
	return nil
}

func importSubscriptions(ctx context.Context, tx *repository.Store, subs []SubscriptionBackup) error {
	for _, s := range subs {
		sub := &models.GlobalSubscription{
			ID: s.ID, UserID: s.UserID, MasterFolderID: s.MasterFolderID, KidIDs: s.KidIDs, CreatedAt: s.CreatedAt,
		}
		if err := tx.Subscriptions.UpsertSubscription(ctx, sub); err != nil {
			return fmt.Errorf("subscription %s: %w", s.ID, err)
		}
	}
	return nil
}

func importFeedback(ctx context.Context, tx *repository.Store, feedback []FeedbackBackup) error {
	for _, f := range feedback {
		entry := &models.Feedback{ID: f.ID, UserID: f.UserID, Type: f.Type, Content: f.Content, CreatedAt: f.CreatedAt}
		if err := tx.Feedback.CreateFeedback(ctx, entry); err != nil {
			return fmt.Errorf("feedback %s: %w", f.ID, err)
		}
	}
	return nil
}
