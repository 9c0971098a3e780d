package handlers

import (
	"net/http"

	"kidsvideohub/internal/service"
)

// PublicHandler serves the kid-facing routes. The kid id in the path is the
// only credential, and the owner is taken from the kid record.
type PublicHandler struct {
	kidService      *service.KidService
	videoService    *service.VideoService
	progressService *service.ProgressService
}

// NewPublicHandler creates a new kid-facing handler
func NewPublicHandler(kidService *service.KidService, videoService *service.VideoService, progressService *service.ProgressService) *PublicHandler {
	return &PublicHandler{
		kidService:      kidService,
		videoService:    videoService,
		progressService: progressService,
	}
}

type kidPositionRequest struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

type kidWatchedRequest struct {
	Recording recordingRequest `json:"recording"`
}

func (h *PublicHandler) GetKid(w http.ResponseWriter, r *http.Request) {
	kid, err := h.kidService.ResolveKid(r.Context(), r.PathValue("kidId"))
	if err != nil {
		respondWithServiceError(w, r, "Failed to get kid", err)
		return
	}
	writeJSON(w, http.StatusOK, kid)
}

// ListVideos returns the kid's assigned videos in unlock order
func (h *PublicHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videoService.ListKidVideos(r.Context(), r.PathValue("kidId"))
	if err != nil {
		respondWithServiceError(w, r, "Failed to list kid videos", err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *PublicHandler) Badge(w http.ResponseWriter, r *http.Request) {
	count, err := h.progressService.KidBadge(r.Context(), r.PathValue("kidId"))
	if err != nil {
		respondWithServiceError(w, r, "Failed to count unwatched videos", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *PublicHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	var req kidWatchedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	video, err := h.progressService.MarkWatchedAsKid(r.Context(), r.PathValue("kidId"), r.PathValue("id"), recordingInput(req.Recording))
	if err != nil {
		respondWithServiceError(w, r, "Failed to mark video watched", err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *PublicHandler) SavePosition(w http.ResponseWriter, r *http.Request) {
	var req kidPositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.progressService.SavePositionAsKid(r.Context(), r.PathValue("kidId"), r.PathValue("id"), req.Position, req.Duration)
	if err != nil {
		respondWithServiceError(w, r, "Failed to save position", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
