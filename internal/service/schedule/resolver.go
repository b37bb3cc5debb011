package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/timeparse"
)

// Config holds the multi-shift policy knobs, loaded from env.
type Config struct {
	MaxShiftsPerDay        int
	MinGapMinutes          int
	MaxGapMinutes          int
	DefaultShiftTemplateID string
	// Production gates the "not before early-tolerance window" rule so
	// local development can check in at any hour.
	Production bool
}

// Fallback window used when an assignment has no template and the
// configured default template is itself missing.
var fallbackWindow = struct{ start, end timeparse.TimeOfDay }{
	start: timeparse.TimeOfDay{Hour: 8},
	end:   timeparse.TimeOfDay{Hour: 16},
}

type ResolverImpl struct {
	assignmentRepo schedule.ScheduleAssignmentRepository
	templateRepo   schedule.ShiftTemplateRepository
	attendanceRepo attendance.AttendanceRepository
	locationRepo   worklocation.WorkLocationRepository
	tolerances     tolerance.Resolver
	userRepo       user.UserRepository
	cfg            Config
}

func NewResolver(
	assignmentRepo schedule.ScheduleAssignmentRepository,
	templateRepo schedule.ShiftTemplateRepository,
	attendanceRepo attendance.AttendanceRepository,
	locationRepo worklocation.WorkLocationRepository,
	tolerances tolerance.Resolver,
	userRepo user.UserRepository,
	cfg Config,
) schedule.ShiftResolver {
	if cfg.MaxShiftsPerDay <= 0 {
		cfg.MaxShiftsPerDay = 3
	}
	if cfg.MinGapMinutes <= 0 {
		cfg.MinGapMinutes = 60
	}
	if cfg.MaxGapMinutes <= 0 {
		cfg.MaxGapMinutes = 720
	}
	return &ResolverImpl{
		assignmentRepo: assignmentRepo,
		templateRepo:   templateRepo,
		attendanceRepo: attendanceRepo,
		locationRepo:   locationRepo,
		tolerances:     tolerances,
		userRepo:       userRepo,
		cfg:            cfg,
	}
}

// FindApplicableShift implements schedule.ShiftResolver.
func (r *ResolverImpl) FindApplicableShift(ctx context.Context, userID string, date time.Time, now time.Time) (*schedule.ResolvedShift, *schedule.Rejection, error) {
	assignments, err := r.assignmentRepo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("load schedule assignments: %w", err)
	}

	// Leave/completed assignments are not candidates for check-in.
	candidates := assignments[:0:0]
	for _, a := range assignments {
		if a.Status == schedule.StatusActive || a.Status == schedule.StatusOnCall {
			candidates = append(candidates, a)
		}
	}

	if len(candidates) == 0 {
		return nil, &schedule.Rejection{
			Code:    attendance.CodeNoSchedule,
			Message: "Tidak ada jadwal jaga untuk hari ini",
			Data:    map[string]any{"date": date.Format("2006-01-02")},
		}, nil
	}

	if len(candidates) > r.cfg.MaxShiftsPerDay {
		candidates = candidates[:r.cfg.MaxShiftsPerDay]
	}

	records, err := r.attendanceRepo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("load attendance records: %w", err)
	}

	consumed := make(map[string]bool, len(records))
	var lastCheckout *time.Time
	for _, rec := range records {
		if rec.ScheduleAssignmentID != nil {
			consumed[*rec.ScheduleAssignmentID] = true
		}
		if rec.TimeOut != nil && (lastCheckout == nil || rec.TimeOut.After(*lastCheckout)) {
			lastCheckout = rec.TimeOut
		}
	}

	var next *schedule.ScheduleAssignment
	for i := range candidates {
		if !consumed[candidates[i].ID] {
			next = &candidates[i]
			break
		}
	}

	if next == nil {
		return nil, &schedule.Rejection{
			Code:    attendance.CodeAllShiftsCompleted,
			Message: fmt.Sprintf("Semua %d shift hari ini sudah selesai", len(candidates)),
			Data:    map[string]any{"shift_count": len(candidates)},
		}, nil
	}

	// Aturan jarak antar shift: setelah checkout shift sebelumnya harus
	// menunggu min_gap, dan tidak boleh lewat dari max_gap.
	if lastCheckout != nil && next.SequenceNumber > 1 {
		gap := int(now.Sub(*lastCheckout).Minutes())
		if gap < r.cfg.MinGapMinutes {
			remaining := r.cfg.MinGapMinutes - gap
			return nil, &schedule.Rejection{
				Code: attendance.CodeNoAvailableShift,
				Message: fmt.Sprintf("Jarak minimal antar shift %d menit, tunggu %d menit lagi",
					r.cfg.MinGapMinutes, remaining),
				Data: map[string]any{
					"min_gap_minutes":   r.cfg.MinGapMinutes,
					"gap_minutes":       gap,
					"remaining_minutes": remaining,
				},
			}, nil
		}
		if gap > r.cfg.MaxGapMinutes {
			return nil, &schedule.Rejection{
				Code: attendance.CodeNoAvailableShift,
				Message: fmt.Sprintf("Jarak dari shift sebelumnya %d menit melebihi batas %d menit",
					gap, r.cfg.MaxGapMinutes),
				Data: map[string]any{
					"max_gap_minutes": r.cfg.MaxGapMinutes,
					"gap_minutes":     gap,
				},
			}, nil
		}
	}

	resolved, err := r.materialize(ctx, next)
	if err != nil {
		return nil, nil, err
	}

	// In production a shift only becomes available once the check-in
	// window has opened.
	if r.cfg.Production {
		u, err := r.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("load user: %w", err)
		}
		tol, err := r.tolerances.ResolveSchedule(ctx, u, tolerance.ActionCheckIn, date)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve check-in tolerance: %w", err)
		}

		windowOpen := resolved.Start.At(date, now.Location()).Add(-time.Duration(tol.EarlyMinutes) * time.Minute)
		if now.Before(windowOpen) {
			remaining := int(windowOpen.Sub(now).Minutes())
			return nil, &schedule.Rejection{
				Code: attendance.CodeNoAvailableShift,
				Message: fmt.Sprintf("Shift %s belum tersedia, check-in dibuka %d menit lagi",
					resolved.Template.Name, remaining),
				Data: map[string]any{
					"window_open":       windowOpen.Format("15:04"),
					"remaining_minutes": remaining,
				},
			}, nil
		}
	}

	return resolved, nil, nil
}

// materialize parses the assignment's time window and loads its work
// location, applying the auto-repair fallback for missing templates.
func (r *ResolverImpl) materialize(ctx context.Context, a *schedule.ScheduleAssignment) (*schedule.ResolvedShift, error) {
	resolved := &schedule.ResolvedShift{Assignment: *a}

	template, repaired, err := r.templateFor(ctx, a)
	if err != nil {
		return nil, err
	}
	resolved.Template = template
	resolved.TemplateRepaired = repaired
	a.Template = &resolved.Template

	startStr := a.EffectiveStart()
	endStr := a.EffectiveEnd()

	if startStr == "" || endStr == "" {
		resolved.Start, resolved.End = fallbackWindow.start, fallbackWindow.end
		resolved.TemplateRepaired = true
	} else {
		start, err := timeparse.ParseTimeOfDay(startStr)
		if err != nil {
			slog.Warn("unparsable shift start, using fallback window",
				"assignment_id", a.ID, "value", startStr, "error", err)
			resolved.Start, resolved.End = fallbackWindow.start, fallbackWindow.end
			resolved.TemplateRepaired = true
			return r.attachLocation(ctx, resolved, a)
		}
		end, err := timeparse.ParseTimeOfDay(endStr)
		if err != nil {
			slog.Warn("unparsable shift end, using fallback window",
				"assignment_id", a.ID, "value", endStr, "error", err)
			resolved.Start, resolved.End = fallbackWindow.start, fallbackWindow.end
			resolved.TemplateRepaired = true
			return r.attachLocation(ctx, resolved, a)
		}
		resolved.Start, resolved.End = start, end
	}

	return r.attachLocation(ctx, resolved, a)
}

func (r *ResolverImpl) templateFor(ctx context.Context, a *schedule.ScheduleAssignment) (schedule.ShiftTemplate, bool, error) {
	if a.Template != nil {
		return *a.Template, false, nil
	}
	if a.ShiftTemplateID != nil {
		t, err := r.templateRepo.GetByID(ctx, *a.ShiftTemplateID)
		if err == nil {
			return t, false, nil
		}
		if !errors.Is(err, schedule.ErrShiftTemplateNotFound) {
			return schedule.ShiftTemplate{}, false, fmt.Errorf("load shift template: %w", err)
		}
	}

	// Auto-repair: jadwal tanpa template dipasangkan ke template default.
	if r.cfg.DefaultShiftTemplateID != "" {
		t, err := r.templateRepo.GetByID(ctx, r.cfg.DefaultShiftTemplateID)
		if err == nil {
			slog.Warn("assignment missing template, repaired with default",
				"assignment_id", a.ID, "template_id", t.ID)
			return t, true, nil
		}
		if !errors.Is(err, schedule.ErrShiftTemplateNotFound) {
			return schedule.ShiftTemplate{}, false, fmt.Errorf("load default shift template: %w", err)
		}
	}

	slog.Warn("assignment missing template and no default configured, using 08:00-16:00",
		"assignment_id", a.ID)
	return schedule.ShiftTemplate{
		Name:      "Shift Default",
		StartTime: "08:00",
		EndTime:   "16:00",
	}, true, nil
}

func (r *ResolverImpl) attachLocation(ctx context.Context, resolved *schedule.ResolvedShift, a *schedule.ScheduleAssignment) (*schedule.ResolvedShift, error) {
	if a.WorkLocationID == nil {
		return resolved, nil
	}
	loc, err := r.locationRepo.GetByID(ctx, *a.WorkLocationID)
	if err != nil {
		if errors.Is(err, worklocation.ErrWorkLocationNotFound) {
			return resolved, nil
		}
		return nil, fmt.Errorf("load work location: %w", err)
	}
	resolved.WorkLocation = &loc
	return resolved, nil
}
