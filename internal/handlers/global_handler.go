package handlers

import (
	"net/http"

	"kidsvideohub/internal/models"
	"kidsvideohub/internal/service"
)

// GlobalHandler handles global playlist requests
type GlobalHandler struct {
	globalService *service.GlobalService
}

// NewGlobalHandler creates a new global playlist handler
func NewGlobalHandler(globalService *service.GlobalService) *GlobalHandler {
	return &GlobalHandler{globalService: globalService}
}

type subscribeRequest struct {
	MasterFolderID string   `json:"masterFolderId"`
	KidIDs         []string `json:"kidIds"`
}

type subscribeResponse struct {
	Subscription *models.GlobalSubscription `json:"subscription"`
	Sync         *models.SyncResult         `json:"sync"`
}

func (h *GlobalHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.globalService.ListGlobalFolders(r.Context())
	if err != nil {
		respondWithServiceError(w, r, "Failed to list global folders", err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *GlobalHandler) ListFolderVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.globalService.ListGlobalFolderVideos(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, "Failed to list global folder videos", err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *GlobalHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	subs, err := h.globalService.ListSubscriptions(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to list subscriptions", err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Subscribe subscribes the caller to a master folder and runs the first sync
func (h *GlobalHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, result, err := h.globalService.Subscribe(r.Context(), owner, req.MasterFolderID, req.KidIDs)
	if err != nil {
		respondWithServiceError(w, r, "Failed to subscribe", err)
		return
	}
	writeJSON(w, http.StatusCreated, subscribeResponse{Subscription: sub, Sync: result})
}

func (h *GlobalHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := h.globalService.Unsubscribe(r.Context(), owner, r.PathValue("folderId")); err != nil {
		respondWithServiceError(w, r, "Failed to unsubscribe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GlobalHandler) Sync(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	result, err := h.globalService.SyncSubscription(r.Context(), owner, r.PathValue("folderId"))
	if err != nil {
		respondWithServiceError(w, r, "Failed to sync subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
