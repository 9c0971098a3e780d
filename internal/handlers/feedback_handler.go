package handlers

import (
	"net/http"

	"kidsvideohub/internal/service"
)

// FeedbackHandler handles feedback requests
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

type feedbackRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.feedbackService.Create(r.Context(), owner, req.Type, req.Content)
	if err != nil {
		respondWithServiceError(w, r, "Failed to save feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	entries, err := h.feedbackService.List(r.Context(), owner)
	if err != nil {
		respondWithServiceError(w, r, "Failed to list feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
