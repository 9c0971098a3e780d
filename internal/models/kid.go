package models

import (
	"strings"
	"time"
)

// MaxKidsPerOwner is the largest number of kid profiles one account may hold
const MaxKidsPerOwner = 6

// Kid represents a child profile in the system
type Kid struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"-"`
}

// NormalizeKidName returns the form used to compare kid names
func NormalizeKidName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CleanupReport summarizes a duplicate-kid merge
type CleanupReport struct {
	KeptKids      []string `json:"keptKids"`
	RemovedKids   []string `json:"removedKids"`
	VideosUpdated int      `json:"videosUpdated"`
}
