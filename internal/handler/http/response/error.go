package response

import (
	"errors"
	"net/http"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/validator"
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
	// Auth / user
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User account is inactive")

	// Attendance
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrDuplicateOpenSession):
		Conflict(w, "An open attendance session already exists")

	// Schedule
	case errors.Is(err, schedule.ErrShiftTemplateNotFound):
		NotFound(w, "Shift template not found")
	case errors.Is(err, schedule.ErrAssignmentNotFound):
		NotFound(w, "Schedule assignment not found")

	// Tolerance / work location
	case errors.Is(err, tolerance.ErrSettingNotFound):
		NotFound(w, "Tolerance setting not found")
	case errors.Is(err, tolerance.ErrInvalidScope):
		BadRequest(w, "Invalid tolerance scope", nil)
	case errors.Is(err, worklocation.ErrWorkLocationNotFound):
		NotFound(w, "Work location not found")
	case errors.Is(err, worklocation.ErrWorkLocationInactive):
		Forbidden(w, "Work location is inactive")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
