package attendance

import "time"

// AttendanceRecord is one user's presence for one shift. Created on
// check-in, mutated on check-out. A record with TimeIn set and TimeOut
// nil is an open session; the engine guarantees at most one open session
// per user, backed by a partial unique index at the database.
type AttendanceRecord struct {
	ID                   string
	UserID               string
	Date                 time.Time
	ScheduleAssignmentID *string

	TimeIn  *time.Time
	TimeOut *time.Time

	// Logical times are the shift-clamped punch times used for payroll:
	// arriving early or leaving late never counts as worked time.
	LogicalTimeIn      *time.Time
	LogicalTimeOut     *time.Time
	LogicalWorkMinutes *int

	Latitude  *float64
	Longitude *float64

	// Metadata carries the validation trace: tolerance source, window
	// bounds, penalty flags. Stored as JSONB.
	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether this record is an open session.
func (r *AttendanceRecord) IsOpen() bool {
	return r.TimeIn != nil && r.TimeOut == nil
}

type ViolationType string

const (
	ViolationLateCheckin      ViolationType = "late_checkin"
	ViolationVeryLateCheckout ViolationType = "very_late_checkout"
	ViolationMissingCheckout  ViolationType = "missing_checkout_penalty"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AttendanceViolation is an append-only audit row. Never updated.
type AttendanceViolation struct {
	ID                  string
	UserID              string
	AttendanceRecordID  *string
	ViolationType       ViolationType
	ViolationMinutes    int
	Severity            Severity
	IsEmergencyOverride bool
	CreatedAt           time.Time
}
