package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

const kidColumns = "id, user_id, name, avatar, created_at"

// KidRepository handles database operations for kids
type KidRepository struct {
	db database.DBTX
}

// NewKidRepository creates a new kid repository
func NewKidRepository(db database.DBTX) *KidRepository {
	return &KidRepository{db: db}
}

// CreateKid inserts a kid profile, generating an id when none is set
func (r *KidRepository) CreateKid(ctx context.Context, kid *models.Kid) error {
	if kid.ID == "" {
		kid.ID = uuid.NewString()
	}
	query := "INSERT INTO kids (" + kidColumns + ") VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, kid.ID, kid.UserID, kid.Name, kid.Avatar, kid.CreatedAt); err != nil {
		return fmt.Errorf("failed to create kid: %w", err)
	}
	return nil
}

// GetKidByID retrieves a kid by ID regardless of owner
func (r *KidRepository) GetKidByID(ctx context.Context, kidID string) (*models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, kidID))
}

// GetOwnerKid retrieves a kid only when it belongs to owner
func (r *KidRepository) GetOwnerKid(ctx context.Context, owner, kidID string) (*models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids WHERE id = ? AND user_id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, kidID, owner))
}

// GetOwnerKids retrieves all kids of an owner
func (r *KidRepository) GetOwnerKids(ctx context.Context, owner string) ([]models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids WHERE user_id = ? ORDER BY created_at ASC, id ASC"
	return r.scanMany(r.db.QueryContext(ctx, query, owner))
}

// GetAllKids retrieves every kid
func (r *KidRepository) GetAllKids(ctx context.Context) ([]models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids ORDER BY user_id, created_at ASC, id ASC"
	return r.scanMany(r.db.QueryContext(ctx, query))
}

// CountOwnerKids returns how many kids an owner has
func (r *KidRepository) CountOwnerKids(ctx context.Context, owner string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kids WHERE user_id = ?", owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count kids: %w", err)
	}
	return count, nil
}

// UpdateKid updates a kid's name and avatar
func (r *KidRepository) UpdateKid(ctx context.Context, kidID, name, avatar string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE kids SET name = ?, avatar = ? WHERE id = ?", name, avatar, kidID)
	if err != nil {
		return fmt.Errorf("failed to update kid: %w", err)
	}
	return nil
}

// DeleteKid deletes a kid record
func (r *KidRepository) DeleteKid(ctx context.Context, kidID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM kids WHERE id = ?", kidID); err != nil {
		return fmt.Errorf("failed to delete kid: %w", err)
	}
	return nil
}

func (r *KidRepository) scanOne(row *sql.Row) (*models.Kid, error) {
	kid := &models.Kid{}
	err := row.Scan(&kid.ID, &kid.UserID, &kid.Name, &kid.Avatar, &kid.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	return kid, nil
}

func (r *KidRepository) scanMany(rows *sql.Rows, err error) ([]models.Kid, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query kids: %w", err)
	}
	defer rows.Close()

	var kids []models.Kid
	for rows.Next() {
		var kid models.Kid
		if err := rows.Scan(&kid.ID, &kid.UserID, &kid.Name, &kid.Avatar, &kid.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan kid: %w", err)
		}
		kids = append(kids, kid)
	}
	return kids, rows.Err()
}
