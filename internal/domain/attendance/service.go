package attendance

import (
	"context"
	"time"
)

// ValidationEngine is the attendance decision pipeline. All policy
// outcomes come back as ValidationResult; the error return is reserved
// for infrastructure failures (database down, etc.).
type ValidationEngine interface {
	ValidateCheckIn(ctx context.Context, req CheckInRequest) (ValidationResult, *AttendanceRecord, error)
	ValidateCheckOut(ctx context.Context, req CheckOutRequest) (ValidationResult, *AttendanceRecord, error)
}

// PenaltySweeper closes no-show checkouts. Runs from cron, one record at
// a time, using the repository's optimistic AutoClose.
type PenaltySweeper interface {
	SweepStaleSessions(ctx context.Context, now time.Time) (closed int, err error)
}
