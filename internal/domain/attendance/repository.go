package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// Create inserts a new record. Returns ErrDuplicateOpenSession when
	// the user already has an open session (enforced transactionally by
	// a partial unique index, not just checked-then-written).
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	GetByID(ctx context.Context, id string) (AttendanceRecord, error)

	// GetOpenSession returns the user's open record (time_in set,
	// time_out null), or ErrAttendanceNotFound.
	GetOpenSession(ctx context.Context, userID string) (AttendanceRecord, error)

	// GetByUserAndDate returns all of the user's records for a calendar
	// date ordered by time_in, for multi-shift sequencing and gap rules.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) ([]AttendanceRecord, error)

	Update(ctx context.Context, record AttendanceRecord) error

	// GetStaleOpenSessions returns open records whose time_in is older
	// than the cutoff. Used by the penalty sweep.
	GetStaleOpenSessions(ctx context.Context, before time.Time) ([]AttendanceRecord, error)

	// AutoClose sets time_out and penalty metadata only if the record is
	// still open (optimistic: WHERE time_out IS NULL). Returns false when
	// a live checkout won the race.
	AutoClose(ctx context.Context, id string, timeOut time.Time, logicalWorkMinutes int, metadata map[string]any) (bool, error)
}

type ViolationRepository interface {
	// Create appends a violation row. Violations are never mutated.
	Create(ctx context.Context, v AttendanceViolation) (AttendanceViolation, error)
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]AttendanceViolation, error)
}
