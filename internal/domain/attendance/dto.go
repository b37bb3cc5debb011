package attendance

import (
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/pkg/validator"
)

type CheckInRequest struct {
	UserID    string   `json:"user_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"` // GPS accuracy in meters

	// Timestamp of the punch. The HTTP layer fills this with the server
	// clock; tests pass it explicitly.
	Timestamp time.Time `json:"-"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.Accuracy != nil && *r.Accuracy < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy",
			Message: "accuracy must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	UserID    string   `json:"user_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`

	Timestamp time.Time `json:"-"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.Accuracy != nil && *r.Accuracy < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy",
			Message: "accuracy must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AttendanceResponse struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	Date               string         `json:"date"`
	TimeIn             *string        `json:"time_in,omitempty"`
	TimeOut            *string        `json:"time_out,omitempty"`
	LogicalTimeIn      *string        `json:"logical_time_in,omitempty"`
	LogicalTimeOut     *string        `json:"logical_time_out,omitempty"`
	LogicalWorkMinutes *int           `json:"logical_work_minutes,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// NewAttendanceResponse converts a record into its API representation.
func NewAttendanceResponse(r *AttendanceRecord) *AttendanceResponse {
	if r == nil {
		return nil
	}
	return &AttendanceResponse{
		ID:                 r.ID,
		UserID:             r.UserID,
		Date:               r.Date.Format("2006-01-02"),
		TimeIn:             formatTime(r.TimeIn),
		TimeOut:            formatTime(r.TimeOut),
		LogicalTimeIn:      formatTime(r.LogicalTimeIn),
		LogicalTimeOut:     formatTime(r.LogicalTimeOut),
		LogicalWorkMinutes: r.LogicalWorkMinutes,
		Metadata:           r.Metadata,
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
