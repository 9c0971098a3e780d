package models

import "time"

// GlobalSubscription links a subscriber account to one master folder.
// An empty KidIDs list means every kid the subscriber has at sync time.
type GlobalSubscription struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	MasterFolderID string    `json:"masterFolderId"`
	KidIDs         []string  `json:"kidIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SyncResult reports what one sync pass changed
type SyncResult struct {
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Assigned int `json:"assigned"`
}
