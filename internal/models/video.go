package models

import "time"

const (
	MinPriority     = 1
	MaxPriority     = 9
	DefaultPriority = 5

	// MaxViews caps the distinct first-time completions of one video
	MaxViews = 4

	// MaxCountedIncrement bounds the position delta counted as playback
	MaxCountedIncrement = 30.0
)

// Video is a curated link owned by one account
type Video struct {
	ID              string               `json:"id"`
	UserID          string               `json:"-"`
	URL             string               `json:"url"`
	Platform        string               `json:"platform"`
	PlatformVideoID string               `json:"platformVideoId"`
	FolderID        *string              `json:"folderId"`
	Priority        int                  `json:"priority"`
	Assigned        map[string]bool      `json:"assigned"`
	Progress        map[string]*Progress `json:"progress"`
	TotalViews      int                  `json:"totalViews"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// Progress is one kid's watch state on one video
type Progress struct {
	Watched         bool               `json:"watched"`
	WatchedAt       *time.Time         `json:"watchedAt,omitempty"`
	VoiceRecordings []VoiceRecording   `json:"voiceRecordings"`
	ParentReviewed  *bool              `json:"parentReviewed,omitempty"`
	LastPosition    *float64           `json:"lastPosition,omitempty"`
	VideoDuration   *float64           `json:"videoDuration,omitempty"`
	DailyWatchTime  map[string]float64 `json:"dailyWatchTime,omitempty"`

	// Single recording kept by old exports, moved into VoiceRecordings on
	// the next completion
	LegacyRecording *VoiceRecording `json:"-"`
}

// VoiceRecording is attached to every completion
type VoiceRecording struct {
	ID           string    `json:"id,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
	Duration     float64   `json:"duration"`
	AudioPayload string    `json:"audioPayload,omitempty"`
}

// ClampPriority forces p into the valid priority range
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// ForKid returns a copy of the video carrying only one kid's entries
func (v *Video) ForKid(kidID string) Video {
	out := *v
	out.Assigned = map[string]bool{}
	out.Progress = map[string]*Progress{}
	if assigned, ok := v.Assigned[kidID]; ok {
		out.Assigned[kidID] = assigned
	}
	if p, ok := v.Progress[kidID]; ok {
		out.Progress[kidID] = p
	}
	return out
}
