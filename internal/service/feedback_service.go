package service

import (
	"context"
	"fmt"

	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
	"kidsvideohub/internal/validation"
)

// FeedbackService records feedback from accounts
type FeedbackService struct {
	store *repository.Store
	now   Clock
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(store *repository.Store, clock Clock) *FeedbackService {
	return &FeedbackService{store: store, now: clockOrDefault(clock)}
}

// Create appends a feedback entry
func (s *FeedbackService) Create(ctx context.Context, owner, feedbackType, content string) (*models.Feedback, error) {
	if err := validation.ValidateFeedback(feedbackType, content); err != nil {
		return nil, err
	}

	entry := &models.Feedback{
		UserID:    owner,
		Type:      feedbackType,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Feedback.CreateFeedback(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return entry, nil
}

// List retrieves the owner's own feedback, newest first
func (s *FeedbackService) List(ctx context.Context, owner string) ([]models.Feedback, error) {
	entries, err := s.store.Feedback.GetUserFeedback(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	if entries == nil {
		entries = []models.Feedback{}
	}
	return entries, nil
}
