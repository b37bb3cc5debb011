package schedule

import (
	"context"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/timeparse"
)

// ResolvedShift is the applicable shift for a check-in attempt: the
// assignment, its (possibly auto-repaired) time window, and the work
// location the shift is tied to.
type ResolvedShift struct {
	Assignment   ScheduleAssignment
	Template     ShiftTemplate
	Start        timeparse.TimeOfDay
	End          timeparse.TimeOfDay
	WorkLocation *worklocation.WorkLocation
	// TemplateRepaired is set when the assignment had no usable template
	// and the resolver fell back to the configured default window.
	TemplateRepaired bool
}

// Rejection is a structured refusal with a stable machine code. It is a
// result, not an error: policy refusals are expected outcomes.
type Rejection struct {
	Code    string
	Message string
	Data    map[string]any
}

// ShiftResolver finds the shift a check-in at `now` should count
// against. Exactly one of the first two return values is non-nil unless
// err is set.
type ShiftResolver interface {
	FindApplicableShift(ctx context.Context, userID string, date time.Time, now time.Time) (*ResolvedShift, *Rejection, error)
}
