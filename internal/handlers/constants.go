package handlers

const (
	// Voice recordings arrive inline as data URLs
	maxBodyBytes = 16 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
)
