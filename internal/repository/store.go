package repository

import (
	"context"

	"kidsvideohub/internal/database"
)

// Store bundles the repositories so services can run several of them in one
// transaction
type Store struct {
	db *database.DB

	Accounts      *AccountRepository
	Kids          *KidRepository
	Folders       *FolderRepository
	Videos        *VideoRepository
	Progress      *ProgressRepository
	Subscriptions *SubscriptionRepository
	Feedback      *FeedbackRepository
	Settings      *SettingsRepository
}

// NewStore creates repositories bound to db
func NewStore(db *database.DB) *Store {
	return newStore(db, db)
}

func newStore(db *database.DB, conn database.DBTX) *Store {
	return &Store{
		db:            db,
		Accounts:      NewAccountRepository(conn),
		Kids:          NewKidRepository(conn),
		Folders:       NewFolderRepository(conn),
		Videos:        NewVideoRepository(conn),
		Progress:      NewProgressRepository(conn),
		Subscriptions: NewSubscriptionRepository(conn),
		Feedback:      NewFeedbackRepository(conn),
		Settings:      NewSettingsRepository(conn),
	}
}

// DB returns the underlying database
func (s *Store) DB() *database.DB {
	return s.db
}

// InTx runs fn with repositories bound to one transaction. The store passed
// to fn must not start another transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		return fn(newStore(s.db, tx))
	})
}
