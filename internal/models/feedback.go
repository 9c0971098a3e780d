package models

import "time"

const (
	FeedbackText       = "text"
	FeedbackVoice      = "voice"
	FeedbackVideo      = "video"
	FeedbackScreenshot = "screenshot"
)

// Feedback is an append-only message from an account
type Feedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsValidFeedbackType reports whether t is one of the accepted feedback types
func IsValidFeedbackType(t string) bool {
	switch t {
	case FeedbackText, FeedbackVoice, FeedbackVideo, FeedbackScreenshot:
		return true
	}
	return false
}
