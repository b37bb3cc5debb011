package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/timeparse"
)

// Sweeper auto-closes no-show checkouts. Kebijakan "pakai atau hangus":
// sesi yang dibiarkan terbuka lewat batas checkout ditutup dengan
// time_out = time_in + 1 menit dan logical_work_minutes = 1.
type Sweeper struct {
	attendanceRepo attendance.AttendanceRepository
	violationRepo  attendance.ViolationRepository
	userRepo       user.UserRepository
	tolerances     tolerance.Resolver
}

func NewSweeper(
	attendanceRepo attendance.AttendanceRepository,
	violationRepo attendance.ViolationRepository,
	userRepo user.UserRepository,
	tolerances tolerance.Resolver,
) *Sweeper {
	return &Sweeper{
		attendanceRepo: attendanceRepo,
		violationRepo:  violationRepo,
		userRepo:       userRepo,
		tolerances:     tolerances,
	}
}

// SweepStaleSessions implements attendance.PenaltySweeper. One record at
// a time; the optimistic AutoClose keeps it from racing a live checkout.
func (s *Sweeper) SweepStaleSessions(ctx context.Context, now time.Time) (int, error) {
	records, err := s.attendanceRepo.GetStaleOpenSessions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("load stale open sessions: %w", err)
	}

	closed := 0
	for i := range records {
		record := &records[i]
		deadline, err := s.checkoutDeadline(ctx, record, now.Location())
		if err != nil {
			slog.Error("penalty sweep: cannot determine deadline",
				"attendance_id", record.ID, "error", err)
			continue
		}
		if !now.After(deadline) {
			continue
		}

		timeOut := record.TimeIn.Add(time.Minute)
		if timeOut.After(now) {
			timeOut = now
		}
		exceededBy := int(now.Sub(deadline).Minutes())
		metadata := map[string]any{
			"auto_closed":         true,
			"penalty_applied":     true,
			"exceeded_by_minutes": exceededBy,
		}

		ok, err := s.attendanceRepo.AutoClose(ctx, record.ID, timeOut, 1, metadata)
		if err != nil {
			slog.Error("penalty sweep: auto-close failed",
				"attendance_id", record.ID, "error", err)
			continue
		}
		if !ok {
			// Checkout sungguhan menang balapan.
			continue
		}

		closed++
		slog.Info("penalty sweep closed stale session",
			"attendance_id", record.ID, "user_id", record.UserID,
			"exceeded_by_minutes", exceededBy)

		if _, err := s.violationRepo.Create(ctx, attendance.AttendanceViolation{
			ID:                 uuid.NewString(),
			UserID:             record.UserID,
			AttendanceRecordID: &record.ID,
			ViolationType:      attendance.ViolationMissingCheckout,
			ViolationMinutes:   exceededBy,
			Severity:           attendance.SeverityHigh,
		}); err != nil {
			slog.Error("penalty sweep: failed to record violation",
				"attendance_id", record.ID, "error", err)
		}
	}

	return closed, nil
}

// checkoutDeadline = shiftEnd + checkout late tolerance, read from the
// record's check-in trace.
func (s *Sweeper) checkoutDeadline(ctx context.Context, record *attendance.AttendanceRecord, loc *time.Location) (time.Time, error) {
	endStr, _ := record.Metadata["shift_end"].(string)
	if endStr == "" {
		// Tanpa jejak shift, anggap 8 jam setelah check-in.
		return record.TimeIn.Add(8 * time.Hour), nil
	}
	end, err := timeparse.ParseTimeOfDay(endStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse shift end %q: %w", endStr, err)
	}

	shiftEnd := end.At(record.Date, loc)
	if shiftEnd.Before(*record.TimeIn) {
		shiftEnd = shiftEnd.Add(24 * time.Hour) // shift malam
	}

	u, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		return time.Time{}, fmt.Errorf("load user: %w", err)
	}
	tol, err := s.tolerances.Resolve(ctx, u, tolerance.ActionCheckOut, record.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve checkout tolerance: %w", err)
	}

	return shiftEnd.Add(time.Duration(tol.LateMinutes) * time.Minute), nil
}
