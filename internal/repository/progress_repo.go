package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

const progressColumns = "vk.video_id, vk.kid_id, vk.assigned, vk.watched, vk.watched_at, vk.parent_reviewed, " +
	"vk.last_position, vk.video_duration, vk.legacy_recording"

// ProgressRow is one (video, kid) row. Recordings and daily buckets are not
// loaded by the single-row accessors.
type ProgressRow struct {
	VideoID  string
	KidID    string
	Assigned bool
	Progress models.Progress
}

// ProgressRepository handles per-kid assignment and watch state
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetProgress retrieves the row for a (video, kid) pair
func (r *ProgressRepository) GetProgress(ctx context.Context, videoID, kidID string) (*ProgressRow, error) {
	rows, err := r.queryRows(ctx, "WHERE vk.video_id = ? AND vk.kid_id = ?", videoID, kidID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// AssignKid adds a fresh assigned row for a kid
func (r *ProgressRepository) AssignKid(ctx context.Context, videoID, kidID string) error {
	return r.insertFresh(ctx, videoID, kidID, true)
}

// InsertProgress stores a complete row, used when importing backups
func (r *ProgressRepository) InsertProgress(ctx context.Context, row *ProgressRow) error {
	legacy, err := encodeLegacy(row.Progress.LegacyRecording)
	if err != nil {
		return err
	}
	p := row.Progress
	query := `
		INSERT INTO video_kids (video_id, kid_id, assigned, watched, watched_at, parent_reviewed,
			last_position, video_duration, legacy_recording)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, row.VideoID, row.KidID, row.Assigned, p.Watched,
		nullTime(p.WatchedAt), nullBool(p.ParentReviewed), nullFloat(p.LastPosition), nullFloat(p.VideoDuration), legacy)
	if err != nil {
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

// SetAssigned changes the assignment flag of an existing row
func (r *ProgressRepository) SetAssigned(ctx context.Context, videoID, kidID string, assigned bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE video_kids SET assigned = ? WHERE video_id = ? AND kid_id = ?", assigned, videoID, kidID)
	if err != nil {
		return fmt.Errorf("failed to set assignment: %w", err)
	}
	return nil
}

// MarkWatched sets watched and reopens parent review. The watched_at
// timestamp is only written on the transition from not watched, which is
// reported as first.
func (r *ProgressRepository) MarkWatched(ctx context.Context, videoID, kidID string, at time.Time) (first bool, err error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE video_kids SET watched = ?, watched_at = ?, parent_reviewed = ?
		WHERE video_id = ? AND kid_id = ? AND watched = ?`,
		true, at, false, videoID, kidID, false)
	if err != nil {
		return false, fmt.Errorf("failed to mark watched: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, "UPDATE video_kids SET parent_reviewed = ? WHERE video_id = ? AND kid_id = ?",
		false, videoID, kidID)
	if err != nil {
		return false, fmt.Errorf("failed to reopen review: %w", err)
	}
	return false, nil
}

// AddRecording appends a voice recording to a pair
func (r *ProgressRepository) AddRecording(ctx context.Context, videoID, kidID string, rec *models.VoiceRecording) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var payload sql.NullString
	if rec.AudioPayload != "" {
		payload = sql.NullString{String: rec.AudioPayload, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voice_recordings (id, video_id, kid_id, recorded_at, duration, audio_payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, videoID, kidID, rec.RecordedAt, rec.Duration, payload)
	if err != nil {
		return fmt.Errorf("failed to add recording: %w", err)
	}
	return nil
}

// ClearLegacyRecording drops the single-recording column of a pair
func (r *ProgressRepository) ClearLegacyRecording(ctx context.Context, videoID, kidID string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE video_kids SET legacy_recording = NULL WHERE video_id = ? AND kid_id = ?", videoID, kidID)
	if err != nil {
		return fmt.Errorf("failed to clear legacy recording: %w", err)
	}
	return nil
}

// UpdatePosition stores the playback position, and the duration when positive
func (r *ProgressRepository) UpdatePosition(ctx context.Context, videoID, kidID string, position, duration float64) error {
	query := "UPDATE video_kids SET last_position = ? WHERE video_id = ? AND kid_id = ?"
	args := []interface{}{position, videoID, kidID}
	if duration > 0 {
		query = "UPDATE video_kids SET last_position = ?, video_duration = ? WHERE video_id = ? AND kid_id = ?"
		args = []interface{}{position, duration, videoID, kidID}
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// AddDailyWatchTime adds seconds to the bucket of one day
func (r *ProgressRepository) AddDailyWatchTime(ctx context.Context, videoID, kidID, day string, seconds float64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE daily_watch_time SET seconds = seconds + ? WHERE video_id = ? AND kid_id = ? AND day = ?",
		seconds, videoID, kidID, day)
	if err != nil {
		return fmt.Errorf("failed to update watch time: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO daily_watch_time (video_id, kid_id, day, seconds) VALUES (?, ?, ?, ?)",
		videoID, kidID, day, seconds)
	if err != nil {
		return fmt.Errorf("failed to insert watch time: %w", err)
	}
	return nil
}

// CountUnwatched counts a kid's assigned videos that are not yet watched
func (r *ProgressRepository) CountUnwatched(ctx context.Context, kidID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM video_kids WHERE kid_id = ? AND assigned = ? AND watched = ?",
		kidID, true, false).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unwatched videos: %w", err)
	}
	return count, nil
}

// CountUnreviewed counts an owner's completed pairs awaiting parent review
func (r *ProgressRepository) CountUnreviewed(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM video_kids vk
		JOIN videos v ON v.id = vk.video_id
		WHERE v.user_id = ? AND vk.watched = ? AND vk.parent_reviewed = ?`,
		owner, true, false).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unreviewed videos: %w", err)
	}
	return count, nil
}

// MarkReviewed sets parent_reviewed on every unreviewed completed pair of an
// owner and returns how many rows changed
func (r *ProgressRepository) MarkReviewed(ctx context.Context, owner string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE video_kids SET parent_reviewed = ?
		WHERE watched = ? AND parent_reviewed = ?
		AND video_id IN (SELECT id FROM videos WHERE user_id = ?)`,
		true, true, false, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to mark reviewed: %w", err)
	}
	return result.RowsAffected()
}

// DeletePair removes a pair with its recordings and daily buckets
func (r *ProgressRepository) DeletePair(ctx context.Context, videoID, kidID string) error {
	for _, table := range []string{"daily_watch_time", "voice_recordings", "video_kids"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE video_id = ? AND kid_id = ?", videoID, kidID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	return nil
}

// MovePair hands a pair with its recordings and daily buckets from one kid
// to another. The target kid must not have a row for the video.
func (r *ProgressRepository) MovePair(ctx context.Context, videoID, fromKid, toKid string) error {
	for _, table := range []string{"video_kids", "voice_recordings", "daily_watch_time"} {
		_, err := r.db.ExecContext(ctx, "UPDATE "+table+" SET kid_id = ? WHERE video_id = ? AND kid_id = ?", toKid, videoID, fromKid)
		if err != nil {
			return fmt.Errorf("failed to move %s: %w", table, err)
		}
	}
	return nil
}

// DeleteKidProgress removes every row of a kid on an owner's videos
func (r *ProgressRepository) DeleteKidProgress(ctx context.Context, owner, kidID string) error {
	sub := "SELECT id FROM videos WHERE user_id = ?"
	for _, table := range []string{"daily_watch_time", "voice_recordings", "video_kids"} {
		_, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE kid_id = ? AND video_id IN ("+sub+")", kidID, owner)
		if err != nil {
			return fmt.Errorf("failed to delete kid %s: %w", table, err)
		}
	}
	return nil
}

func (r *ProgressRepository) insertFresh(ctx context.Context, videoID, kidID string, assigned bool) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO video_kids (video_id, kid_id, assigned, watched) VALUES (?, ?, ?, ?)",
		videoID, kidID, assigned, false)
	if err != nil {
		return fmt.Errorf("failed to assign video: %w", err)
	}
	return nil
}

// queryRows reads video_kids rows aliased vk, filtered by the given clause
func (r *ProgressRepository) queryRows(ctx context.Context, clause string, args ...interface{}) ([]ProgressRow, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+progressColumns+" FROM video_kids vk "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRow
	for rows.Next() {
		var row ProgressRow
		var watchedAt sql.NullTime
		var reviewed sql.NullBool
		var position, duration sql.NullFloat64
		var legacy sql.NullString
		if err := rows.Scan(&row.VideoID, &row.KidID, &row.Assigned, &row.Progress.Watched, &watchedAt,
			&reviewed, &position, &duration, &legacy); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}

		p := &row.Progress
		p.VoiceRecordings = []models.VoiceRecording{}
		if watchedAt.Valid {
			t := watchedAt.Time
			p.WatchedAt = &t
		}
		if reviewed.Valid {
			b := reviewed.Bool
			p.ParentReviewed = &b
		}
		if position.Valid {
			f := position.Float64
			p.LastPosition = &f
		}
		if duration.Valid {
			f := duration.Float64
			p.VideoDuration = &f
		}
		if legacy.Valid && legacy.String != "" {
			var rec models.VoiceRecording
			if err := json.Unmarshal([]byte(legacy.String), &rec); err != nil {
				return nil, fmt.Errorf("failed to decode legacy recording: %w", err)
			}
			p.LegacyRecording = &rec
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func encodeLegacy(rec *models.VoiceRecording) (sql.NullString, error) {
	if rec == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode legacy recording: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
