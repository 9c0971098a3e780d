package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
)

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert records an account seen in a verified token. A non-empty email
// replaces the stored one.
func (r *AccountRepository) Upsert(ctx context.Context, id, email string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO accounts (id, email, created_at, updated_at) VALUES (?, ?, ?, ?)",
			id, email, now, now)
		if err != nil {
			// Another request may have created the row first
			if again, getErr := r.GetByID(ctx, id); getErr == nil && again != nil {
				return nil
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	}

	if email == "" || email == existing.Email {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE accounts SET email = ?, updated_at = ? WHERE id = ?", email, now, id); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, created_at, updated_at FROM accounts WHERE id = ?", id,
	).Scan(&account.ID, &account.Email, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// List retrieves every account
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, email, created_at, updated_at FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Insert stores a complete account row
func (r *AccountRepository) Insert(ctx context.Context, a *models.Account) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (id, email, created_at, updated_at) VALUES (?, ?, ?, ?)",
		a.ID, a.Email, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}
