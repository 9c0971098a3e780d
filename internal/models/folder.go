package models

import (
	"strings"
	"time"
)

// ShadowFolderPrefix marks folders that hold videos copied from a global playlist
const ShadowFolderPrefix = "__global_"

// Folder groups an owner's videos
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`

	// Derived from Name
	IsShadow       bool   `json:"isShadow,omitempty"`
	MasterFolderID string `json:"masterFolderId,omitempty"`
}

// FolderWithCount is a master folder annotated with its video count
type FolderWithCount struct {
	Folder
	VideoCount int `json:"videoCount"`
}

// ShadowFolderName returns the reserved folder name for a master folder
func ShadowFolderName(masterFolderID string) string {
	return ShadowFolderPrefix + masterFolderID
}

// ParseShadowFolderName extracts the master folder id from a reserved name
func ParseShadowFolderName(name string) (string, bool) {
	if !strings.HasPrefix(name, ShadowFolderPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(name, ShadowFolderPrefix)
	return id, id != ""
}

// Derive fills the fields computed from the folder name
func (f *Folder) Derive() {
	f.MasterFolderID, f.IsShadow = ParseShadowFolderName(f.Name)
}
