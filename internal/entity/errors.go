package entity

import "errors"

// Domain errors
var (
	// Provider errors
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrGenerationFailed    = errors.New("generation failed")

	// Chat errors
	ErrMessageNotFound = errors.New("chat message not found")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
