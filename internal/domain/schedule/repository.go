package schedule

import (
	"context"
	"time"
)

type ShiftTemplateRepository interface {
	GetByID(ctx context.Context, id string) (ShiftTemplate, error)
}

type ScheduleAssignmentRepository interface {
	// GetByUserAndDate returns the user's assignments on a calendar date,
	// ordered by sequence_number ascending, with templates joined.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) ([]ScheduleAssignment, error)
	GetByID(ctx context.Context, id string) (ScheduleAssignment, error)
	MarkCompleted(ctx context.Context, id string) error
}
