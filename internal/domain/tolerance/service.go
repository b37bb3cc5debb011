package tolerance

import (
	"context"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
)

// Resolver resolves the tolerance window for an attendance action.
//
// Resolve and ResolveSchedule walk the same chain (override -> user ->
// role -> global -> work location) but bottom out on different hard
// defaults. The legacy path defaults to checkin 30/60; the schedule
// validation path defaults to the stricter 15/15. The split mirrors the
// two historical call sites and is intentionally not unified.
type Resolver interface {
	Resolve(ctx context.Context, u user.User, action Action, date time.Time) (Result, error)
	ResolveSchedule(ctx context.Context, u user.User, action Action, date time.Time) (Result, error)

	// Invalidate drops cached resolutions for a user after a settings edit.
	Invalidate(ctx context.Context, userID string) error

	// IssueOverride stores a day-scoped override that expires at end of day.
	IssueOverride(ctx context.Context, o Override) error
	// ActiveOverride returns the user's override for the date, if any.
	ActiveOverride(ctx context.Context, userID string, date time.Time) (*Override, error)

	IssueGeofenceOverride(ctx context.Context, o GeofenceOverride) error
	ActiveGeofenceOverride(ctx context.Context, userID string, date time.Time) (*GeofenceOverride, error)
}
