package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

const videoColumns = "v.id, v.user_id, v.url, v.platform, v.platform_video_id, v.folder_id, v.priority, v.total_views, v.created_at"

// VideoRepository handles database operations for videos. Per-kid
// assignment and progress live in their own tables and are reassembled into
// the Assigned and Progress maps on read.
type VideoRepository struct {
	db database.DBTX
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db database.DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// InsertVideo stores the video row only
func (r *VideoRepository) InsertVideo(ctx context.Context, v *models.Video) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	query := `
		INSERT INTO videos (id, user_id, url, platform, platform_video_id, folder_id, priority, total_views, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.UserID, v.URL, v.Platform, v.PlatformVideoID, nullString(v.FolderID), v.Priority, v.TotalViews, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// CreateVideo stores a new video and a fresh progress row for every kid in
// v.Assigned
func (r *VideoRepository) CreateVideo(ctx context.Context, v *models.Video) error {
	if err := r.InsertVideo(ctx, v); err != nil {
		return err
	}

	if v.Progress == nil {
		v.Progress = make(map[string]*models.Progress)
	}
	progress := &ProgressRepository{db: r.db}
	for kidID, assigned := range v.Assigned {
		if err := progress.insertFresh(ctx, v.ID, kidID, assigned); err != nil {
			return err
		}
		v.Progress[kidID] = &models.Progress{VoiceRecordings: []models.VoiceRecording{}}
	}
	return nil
}

// GetOwnerVideo retrieves a video with its per-kid state when it belongs to owner
func (r *VideoRepository) GetOwnerVideo(ctx context.Context, owner, videoID string) (*models.Video, error) {
	videos, err := r.load(ctx, "v.id = ? AND v.user_id = ?", videoID, owner)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, nil
	}
	return &videos[0], nil
}

// GetVideoByPlatformID finds an owner's video by platform id without per-kid state
func (r *VideoRepository) GetVideoByPlatformID(ctx context.Context, owner, platform, platformVideoID string) (*models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos v WHERE v.user_id = ? AND v.platform = ? AND v.platform_video_id = ?"
	v, err := scanVideo(r.db.QueryRowContext(ctx, query, owner, platform, platformVideoID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// GetOwnerVideos retrieves every video of an owner ordered by folder,
// priority and creation time
func (r *VideoRepository) GetOwnerVideos(ctx context.Context, owner string) ([]models.Video, error) {
	return r.load(ctx, "v.user_id = ?", owner)
}

// GetFolderVideos retrieves an owner's videos in one folder
func (r *VideoRepository) GetFolderVideos(ctx context.Context, owner, folderID string) ([]models.Video, error) {
	return r.load(ctx, "v.user_id = ? AND v.folder_id = ?", owner, folderID)
}

// GetFolderVideoRows retrieves an owner's videos in one folder without
// per-kid state
func (r *VideoRepository) GetFolderVideoRows(ctx context.Context, owner, folderID string) ([]models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos v WHERE v.user_id = ? AND v.folder_id = ?"
	rows, err := r.db.QueryContext(ctx, query, owner, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read videos: %w", err)
	}
	sortVideos(videos)
	return videos, nil
}

// GetOwnerVideoRow retrieves an owner's video without per-kid state
func (r *VideoRepository) GetOwnerVideoRow(ctx context.Context, owner, videoID string) (*models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos v WHERE v.id = ? AND v.user_id = ?"
	v, err := scanVideo(r.db.QueryRowContext(ctx, query, videoID, owner))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// GetAllVideos retrieves every video with per-kid state
func (r *VideoRepository) GetAllVideos(ctx context.Context) ([]models.Video, error) {
	return r.load(ctx, "1 = 1")
}

// GetKidVideos retrieves the videos assigned to a kid
func (r *VideoRepository) GetKidVideos(ctx context.Context, kidID string) ([]models.Video, error) {
	return r.load(ctx, "v.id IN (SELECT video_id FROM video_kids WHERE kid_id = ? AND assigned = ?)", kidID, true)
}

// GetOwnerVideoIDs returns the ids of all videos of an owner
func (r *VideoRepository) GetOwnerVideoIDs(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM videos WHERE user_id = ? ORDER BY created_at ASC, id ASC", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query video ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateVideo sets priority and folder of a video
func (r *VideoRepository) UpdateVideo(ctx context.Context, videoID string, priority int, folderID *string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE videos SET priority = ?, folder_id = ? WHERE id = ?",
		priority, nullString(folderID), videoID)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	return nil
}

// ClearFolder detaches an owner's videos from a folder
func (r *VideoRepository) ClearFolder(ctx context.Context, owner, folderID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE videos SET folder_id = NULL WHERE user_id = ? AND folder_id = ?", owner, folderID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear folder: %w", err)
	}
	return result.RowsAffected()
}

// IncrementViews adds one view unless the video already reached limit. It
// reports whether the counter changed.
func (r *VideoRepository) IncrementViews(ctx context.Context, videoID string, limit int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE videos SET total_views = total_views + 1 WHERE id = ? AND total_views < ?", videoID, limit)
	if err != nil {
		return false, fmt.Errorf("failed to increment views: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// DeleteVideo removes a video with its per-kid state
func (r *VideoRepository) DeleteVideo(ctx context.Context, videoID string) error {
	for _, table := range []string{"daily_watch_time", "voice_recordings", "video_kids"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE video_id = ?", videoID); err != nil {
			return fmt.Errorf("failed to delete video %s: %w", table, err)
		}
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", videoID); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}

// DeleteFolderVideos removes every video of owner in a folder with its
// per-kid state and returns how many videos were deleted
func (r *VideoRepository) DeleteFolderVideos(ctx context.Context, owner, folderID string) (int64, error) {
	sub := "SELECT id FROM videos WHERE user_id = ? AND folder_id = ?"
	for _, table := range []string{"daily_watch_time", "voice_recordings", "video_kids"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE video_id IN ("+sub+")", owner, folderID); err != nil {
			return 0, fmt.Errorf("failed to delete folder %s: %w", table, err)
		}
	}
	result, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE user_id = ? AND folder_id = ?", owner, folderID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete folder videos: %w", err)
	}
	return result.RowsAffected()
}

// load reads videos matching where, then attaches their per-kid state using
// the same filter
func (r *VideoRepository) load(ctx context.Context, where string, args ...interface{}) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+videoColumns+" FROM videos v WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read videos: %w", err)
	}
	rows.Close()

	if len(videos) == 0 {
		return videos, nil
	}

	byID := make(map[string]*models.Video, len(videos))
	for i := range videos {
		byID[videos[i].ID] = &videos[i]
	}
	if err := r.attachProgress(ctx, byID, where, args); err != nil {
		return nil, err
	}

	sortVideos(videos)
	return videos, nil
}

func (r *VideoRepository) attachProgress(ctx context.Context, byID map[string]*models.Video, where string, args []interface{}) error {
	progress := &ProgressRepository{db: r.db}

	pairs, err := progress.queryRows(ctx,
		"JOIN videos v ON v.id = vk.video_id WHERE "+where, args...)
	if err != nil {
		return err
	}
	for _, row := range pairs {
		v, ok := byID[row.VideoID]
		if !ok {
			continue
		}
		p := row.Progress
		v.Assigned[row.KidID] = row.Assigned
		v.Progress[row.KidID] = &p
	}

	recordings, err := r.db.QueryContext(ctx, `
		SELECT vr.id, vr.video_id, vr.kid_id, vr.recorded_at, vr.duration, vr.audio_payload
		FROM voice_recordings vr
		JOIN videos v ON v.id = vr.video_id
		WHERE `+where+`
		ORDER BY vr.recorded_at ASC, vr.id ASC`, args...)
	if err != nil {
		return fmt.Errorf("failed to query recordings: %w", err)
	}
	defer recordings.Close()
	for recordings.Next() {
		var rec models.VoiceRecording
		var videoID, kidID string
		var payload sql.NullString
		if err := recordings.Scan(&rec.ID, &videoID, &kidID, &rec.RecordedAt, &rec.Duration, &payload); err != nil {
			return fmt.Errorf("failed to scan recording: %w", err)
		}
		rec.AudioPayload = payload.String
		if p := progressOf(byID, videoID, kidID); p != nil {
			p.VoiceRecordings = append(p.VoiceRecordings, rec)
		}
	}
	if err := recordings.Err(); err != nil {
		return fmt.Errorf("failed to read recordings: %w", err)
	}
	recordings.Close()

	days, err := r.db.QueryContext(ctx, `
		SELECT d.video_id, d.kid_id, d.day, d.seconds
		FROM daily_watch_time d
		JOIN videos v ON v.id = d.video_id
		WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("failed to query watch time: %w", err)
	}
	defer days.Close()
	for days.Next() {
		var videoID, kidID, day string
		var seconds float64
		if err := days.Scan(&videoID, &kidID, &day, &seconds); err != nil {
			return fmt.Errorf("failed to scan watch time: %w", err)
		}
		if p := progressOf(byID, videoID, kidID); p != nil {
			if p.DailyWatchTime == nil {
				p.DailyWatchTime = make(map[string]float64)
			}
			p.DailyWatchTime[day] = seconds
		}
	}
	return days.Err()
}

func progressOf(byID map[string]*models.Video, videoID, kidID string) *models.Progress {
	v, ok := byID[videoID]
	if !ok {
		return nil
	}
	return v.Progress[kidID]
}

func scanVideo(row rowScanner) (*models.Video, error) {
	v := &models.Video{
		Assigned: make(map[string]bool),
		Progress: make(map[string]*models.Progress),
	}
	var folderID sql.NullString
	if err := row.Scan(&v.ID, &v.UserID, &v.URL, &v.Platform, &v.PlatformVideoID,
		&folderID, &v.Priority, &v.TotalViews, &v.CreatedAt); err != nil {
		return nil, err
	}
	if folderID.Valid {
		v.FolderID = &folderID.String
	}
	return v, nil
}

// sortVideos orders by folder, then priority, then creation time. Videos
// without a folder come first.
func sortVideos(videos []models.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		af, bf := derefString(a.FolderID), derefString(b.FolderID)
		if af != bf {
			return af < bf
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
