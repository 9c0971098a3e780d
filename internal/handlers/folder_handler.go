package handlers

import (
	"net/http"

	"kidsvideohub/internal/service"
)

// FolderHandler handles folder requests
type FolderHandler struct {
	folderService *service.FolderService
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService *service.FolderService) *FolderHandler {
	return &FolderHandler{folderService: folderService}
}

type folderRequest struct {
	Name string `json:"name"`
}

func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	folders, err := h.folderService.ListFolders(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to list folders", err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req folderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	folder, err := h.folderService.CreateFolder(r.Context(), owner, req.Name)
	if err != nil {
		respondWithServiceError(w, r, "Failed to create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req folderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	folder, err := h.folderService.RenameFolder(r.Context(), owner, r.PathValue("id"), req.Name)
	if err != nil {
		respondWithServiceError(w, r, "Failed to rename folder", err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder, moving its videos out of it
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := h.folderService.DeleteFolder(r.Context(), owner, r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, "Failed to delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
