package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

// FeedbackRepository stores append-only feedback entries
type FeedbackRepository struct {
	db database.DBTX
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db database.DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// CreateFeedback inserts a feedback entry
func (r *FeedbackRepository) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	query := "INSERT INTO feedback (id, user_id, type, content, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, f.ID, f.UserID, f.Type, f.Content, f.CreatedAt); err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// GetUserFeedback retrieves an account's feedback, newest first. An empty
// owner returns every entry.
func (r *FeedbackRepository) GetUserFeedback(ctx context.Context, owner string) ([]models.Feedback, error) {
	query := "SELECT id, user_id, type, content, created_at FROM feedback WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	args := []interface{}{owner}
	if owner == "" {
		query = "SELECT id, user_id, type, content, created_at FROM feedback ORDER BY created_at DESC, id DESC"
		args = nil
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var entries []models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.Content, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}
