package response

import (
	"errors"
	"net/http"

	"github.com/fieldforce/punchkit-go/internal/pkg/validator"
	"github.com/fieldforce/punchkit-go/internal/stub"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Session errors
	case errors.Is(err, stub.ErrActiveSessionExists):
		Conflict(w, "An attendance session is already active")
	case errors.Is(err, stub.ErrSessionAlreadyEnded):
		Conflict(w, "Attendance session is already ended")
	case errors.Is(err, stub.ErrSessionNotFound):
		NotFound(w, "Attendance session not found")

	// Directory errors
	case errors.Is(err, stub.ErrFirmNotFound):
		NotFound(w, "Firm not found")
	case errors.Is(err, stub.ErrUserNotFound):
		NotFound(w, "User not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
