package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

const subscriptionColumns = "id, user_id, master_folder_id, kid_ids, created_at"

// SubscriptionRepository handles database operations for global subscriptions
type SubscriptionRepository struct {
	db database.DBTX
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db database.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// UpsertSubscription stores the kid list for (user, master folder). An
// existing row keeps its id and creation time.
func (r *SubscriptionRepository) UpsertSubscription(ctx context.Context, sub *models.GlobalSubscription) error {
	kidIDs, err := encodeKidIDs(sub.KidIDs)
	if err != nil {
		return err
	}

	existing, err := r.GetSubscription(ctx, sub.UserID, sub.MasterFolderID)
	if err != nil {
		return err
	}
	if existing != nil {
		_, err := r.db.ExecContext(ctx, "UPDATE global_subscriptions SET kid_ids = ? WHERE id = ?", kidIDs, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		return nil
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	query := "INSERT INTO global_subscriptions (" + subscriptionColumns + ") VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, sub.ID, sub.UserID, sub.MasterFolderID, kidIDs, sub.CreatedAt); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves the subscription of user to a master folder
func (r *SubscriptionRepository) GetSubscription(ctx context.Context, user, masterFolderID string) (*models.GlobalSubscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM global_subscriptions WHERE user_id = ? AND master_folder_id = ?"
	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, user, masterFolderID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// GetUserSubscriptions retrieves every subscription a user holds. An empty
// user returns all subscriptions.
func (r *SubscriptionRepository) GetUserSubscriptions(ctx context.Context, user string) ([]models.GlobalSubscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM global_subscriptions WHERE user_id = ? ORDER BY created_at ASC, id ASC"
	args := []interface{}{user}
	if user == "" {
		query = "SELECT " + subscriptionColumns + " FROM global_subscriptions ORDER BY user_id, created_at ASC, id ASC"
		args = nil
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.GlobalSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// DeleteSubscription removes one subscription row
func (r *SubscriptionRepository) DeleteSubscription(ctx context.Context, user, masterFolderID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM global_subscriptions WHERE user_id = ? AND master_folder_id = ?", user, masterFolderID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// DeleteUserSubscriptions removes every subscription of a user
func (r *SubscriptionRepository) DeleteUserSubscriptions(ctx context.Context, user string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM global_subscriptions WHERE user_id = ?", user)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*models.GlobalSubscription, error) {
	sub := &models.GlobalSubscription{}
	var kidIDs string
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.MasterFolderID, &kidIDs, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.KidIDs = []string{}
	if kidIDs != "" {
		if err := json.Unmarshal([]byte(kidIDs), &sub.KidIDs); err != nil {
			return nil, fmt.Errorf("failed to decode kid ids: %w", err)
		}
	}
	return sub, nil
}

func encodeKidIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode kid ids: %w", err)
	}
	return string(data), nil
}
