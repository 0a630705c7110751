package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/validator"
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
	// Attendance domain errors
	case errors.Is(err, attendance.ErrNotAuthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrBatchTooLarge):
		PayloadTooLarge(w, err.Error())
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrStoreUnavailable):
		ServiceUnavailable(w, "Attendance store is unavailable")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User account is deactivated")
	case errors.Is(err, user.ErrInvalidRole):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrImporterAccessRequired):
		Forbidden(w, err.Error())

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
