package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/service"
	"kidsvideohub/internal/validation"
)

// VideoHandler handles the guardian's library and progress requests
type VideoHandler struct {
	videoService    *service.VideoService
	progressService *service.ProgressService
	globalService   *service.GlobalService
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(videoService *service.VideoService, progressService *service.ProgressService, globalService *service.GlobalService) *VideoHandler {
	return &VideoHandler{
		videoService:    videoService,
		progressService: progressService,
		globalService:   globalService,
	}
}

type createVideoRequest struct {
	URL      string   `json:"url"`
	KidIDs   []string `json:"kidIds"`
	FolderID *string  `json:"folderId"`
	Priority *int     `json:"priority"`
}

// updateVideoRequest keeps folderId raw so that an explicit null can be told
// apart from an absent field
type updateVideoRequest struct {
	Priority *int            `json:"priority"`
	FolderID json.RawMessage `json:"folderId"`
}

type recordingRequest struct {
	Duration     float64 `json:"duration"`
	AudioPayload string  `json:"audioPayload"`
}

type watchedRequest struct {
	KidID     string           `json:"kidId"`
	Recording recordingRequest `json:"recording"`
}

type positionRequest struct {
	KidID    string  `json:"kidId"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

// ListVideos returns the caller's library after refreshing global playlists
func (h *VideoHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if h.globalService != nil {
		if err := h.globalService.EnsureMasterClean(r.Context(), owner); err != nil {
			logging.Logger.Error().Err(err).Str("owner", owner).Msg("Failed to clean master account")
		}
		if err := h.globalService.SyncAllSubscriptions(r.Context(), owner); err != nil {
			logging.Logger.Warn().Err(err).Str("owner", owner).Msg("Global playlist sync incomplete")
		}
	}

	videos, err := h.videoService.ListVideos(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to list videos", err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *VideoHandler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req createVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	video, err := h.videoService.CreateVideo(r.Context(), owner, service.VideoInput{
		URL:      req.URL,
		KidIDs:   req.KidIDs,
		FolderID: req.FolderID,
		Priority: req.Priority,
	})
	if err != nil {
		respondWithServiceError(w, r, "Failed to create video", err)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (h *VideoHandler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req updateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upd := service.VideoUpdate{Priority: req.Priority}
	if len(req.FolderID) > 0 {
		var folderID *string
		if !bytes.Equal(bytes.TrimSpace(req.FolderID), []byte("null")) {
			var id string
			if err := json.Unmarshal(req.FolderID, &id); err != nil {
				respondWithServiceError(w, r, "Invalid folder id",
					validation.ValidationError{Field: "folderId", Message: "folderId must be a string or null"})
				return
			}
			folderID = &id
		}
		upd.FolderID = &folderID
	}

	video, err := h.videoService.UpdateVideo(r.Context(), owner, r.PathValue("id"), upd)
	if err != nil {
		respondWithServiceError(w, r, "Failed to update video", err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := h.videoService.DeleteVideo(r.Context(), owner, r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, "Failed to delete video", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkWatched records a completion with its voice recording
func (h *VideoHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req watchedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	video, err := h.progressService.MarkWatched(r.Context(), owner, r.PathValue("id"), req.KidID, recordingInput(req.Recording))
	if err != nil {
		respondWithServiceError(w, r, "Failed to mark video watched", err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// SavePosition stores the playback position of a kid
func (h *VideoHandler) SavePosition(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.progressService.SavePosition(r.Context(), owner, r.PathValue("id"), req.KidID, req.Position, req.Duration)
	if err != nil {
		respondWithServiceError(w, r, "Failed to save position", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ParentBadge returns the number of completions awaiting review
func (h *VideoHandler) ParentBadge(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	count, err := h.progressService.ParentBadge(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to count unreviewed videos", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// ClearParentBadge marks every completion as reviewed
func (h *VideoHandler) ClearParentBadge(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	cleared, err := h.progressService.ClearParentBadge(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to clear badge", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func recordingInput(req recordingRequest) service.RecordingInput {
	return service.RecordingInput{Duration: req.Duration, AudioPayload: req.AudioPayload}
}
