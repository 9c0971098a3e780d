package handlers

import (
	"net/http"

	"kidsvideohub/internal/service"
)

// KidHandler handles the guardian's kid profile requests
type KidHandler struct {
	kidService *service.KidService
}

// NewKidHandler creates a new kid handler
func NewKidHandler(kidService *service.KidService) *KidHandler {
	return &KidHandler{kidService: kidService}
}

type kidRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ListKids returns the caller's kids
func (h *KidHandler) ListKids(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	kids, err := h.kidService.ListKids(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to list kids", err)
		return
	}
	writeJSON(w, http.StatusOK, kids)
}

// CreateKid adds a kid profile
func (h *KidHandler) CreateKid(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req kidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kid, err := h.kidService.CreateKid(r.Context(), owner, req.Name, req.Avatar)
	if err != nil {
		respondWithServiceError(w, r, "Failed to create kid", err)
		return
	}
	writeJSON(w, http.StatusCreated, kid)
}

// UpdateKid renames a kid or changes its avatar
func (h *KidHandler) UpdateKid(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req kidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kid, err := h.kidService.UpdateKid(r.Context(), owner, r.PathValue("id"), req.Name, req.Avatar)
	if err != nil {
		respondWithServiceError(w, r, "Failed to update kid", err)
		return
	}
	writeJSON(w, http.StatusOK, kid)
}

// DeleteKid removes a kid and everything recorded for it
func (h *KidHandler) DeleteKid(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := h.kidService.DeleteKid(r.Context(), owner, r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, "Failed to delete kid", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CleanupDuplicates merges kids that share a name
func (h *KidHandler) CleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	report, err := h.kidService.CleanupDuplicateKids(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to clean up duplicate kids", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
