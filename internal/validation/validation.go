package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"kidsvideohub/internal/apperr"
	"kidsvideohub/internal/models"
)

const (
	maxNameLength    = 50
	maxContentLength = 10000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation failure with apperr.ErrValidation
func (e ValidationError) Unwrap() error {
	return apperr.ErrValidation
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateKidName checks if a kid name is valid
func ValidateKidName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return nil
}

// ValidateFolderName checks a user supplied folder name. Names reserved for
// synced playlists are rejected.
func ValidateFolderName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.HasPrefix(name, models.ShadowFolderPrefix) {
		return ValidationError{Field: "name", Message: "name uses a reserved prefix"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return nil
}

// ValidateFeedback checks the type and content of a feedback entry
func ValidateFeedback(feedbackType, content string) error {
	if !models.IsValidFeedbackType(feedbackType) {
		return ValidationError{Field: "type", Message: "type must be one of text, voice, video, screenshot"}
	}
	if strings.TrimSpace(content) == "" {
		return ValidationError{Field: "content", Message: "content is required"}
	}
	if feedbackType == models.FeedbackText && utf8.RuneCountInString(content) > maxContentLength {
		return ValidationError{Field: "content", Message: "content is too long"}
	}
	return nil
}

// ValidatePositive checks that value is greater than zero
func ValidatePositive(field string, value float64) error {
	if value <= 0 {
		return ValidationError{Field: field, Message: field + " must be greater than zero"}
	}
	return nil
}

// ValidateNonNegative checks that value is not below zero
func ValidateNonNegative(field string, value float64) error {
	if value < 0 {
		return ValidationError{Field: field, Message: field + " must not be negative"}
	}
	return nil
}
