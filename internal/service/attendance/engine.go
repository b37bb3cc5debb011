package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/timeparse"
	"github.com/klinika-hris/attendance-backend-go/internal/service/duration"
	"github.com/klinika-hris/attendance-backend-go/internal/service/geofence"
)

// Settings are the engine's policy knobs.
type Settings struct {
	// OvertimeAfterShifts marks check-ins beyond this many shifts in one
	// day as overtime shifts in the metadata trace.
	OvertimeAfterShifts int
}

// TxRunner executes fn atomically. Nil runs fn directly, which is what
// the tests use; the wiring layer passes a database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Engine implements attendance.ValidationEngine. Setiap langkah pipeline
// berhenti di kegagalan pertama dan mengembalikan ValidationResult,
// bukan error.
type Engine struct {
	attendanceRepo attendance.AttendanceRepository
	violationRepo  attendance.ViolationRepository
	userRepo       user.UserRepository
	assignmentRepo schedule.ScheduleAssignmentRepository
	shifts         schedule.ShiftResolver
	tolerances     tolerance.Resolver
	geofence       *geofence.Validator
	durations      *duration.Calculator
	settings       Settings
	tx             TxRunner
}

func NewEngine(
	attendanceRepo attendance.AttendanceRepository,
	violationRepo attendance.ViolationRepository,
	userRepo user.UserRepository,
	assignmentRepo schedule.ScheduleAssignmentRepository,
	shifts schedule.ShiftResolver,
	tolerances tolerance.Resolver,
	geofenceValidator *geofence.Validator,
	settings Settings,
	tx TxRunner,
) *Engine {
	if settings.OvertimeAfterShifts <= 0 {
		settings.OvertimeAfterShifts = 2
	}
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Engine{
		attendanceRepo: attendanceRepo,
		violationRepo:  violationRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		shifts:         shifts,
		tolerances:     tolerances,
		geofence:       geofenceValidator,
		durations:      duration.NewCalculator(),
		settings:       settings,
		tx:             tx,
	}
}

// ValidateCheckIn runs the check-in pipeline: open-session guard, user
// permission, shift resolution, time window, geofence, then persist.
func (e *Engine) ValidateCheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.ValidationResult, *attendance.AttendanceRecord, error) {
	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	date := dateOf(now)

	open, err := e.attendanceRepo.GetOpenSession(ctx, req.UserID)
	if err == nil {
		return attendance.Reject(
			attendance.CodeAlreadyCheckedIn,
			"Anda masih memiliki sesi absensi yang belum di-checkout",
			map[string]any{"attendance_id": open.ID, "time_in": open.TimeIn.Format(time.RFC3339)},
		), &open, nil
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.ValidationResult{}, nil, fmt.Errorf("check open session: %w", err)
	}

	u, err := e.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return attendance.ValidationResult{}, nil, fmt.Errorf("load user: %w", err)
	}
	if !u.CanAttend() {
		return attendance.Reject(
			attendance.CodeUserNotAllowed,
			"Akun Anda tidak diizinkan melakukan absensi",
			map[string]any{"role": string(u.Role), "is_active": u.IsActive},
		), nil, nil
	}

	resolved, rejection, err := e.shifts.FindApplicableShift(ctx, req.UserID, date, now)
	if err != nil {
		return attendance.ValidationResult{}, nil, err
	}
	if rejection != nil {
		return attendance.Reject(rejection.Code, rejection.Message, rejection.Data), nil, nil
	}

	tol, err := e.tolerances.Resolve(ctx, u, tolerance.ActionCheckIn, date)
	if err != nil {
		return attendance.ValidationResult{}, nil, fmt.Errorf("resolve check-in tolerance: %w", err)
	}

	shiftStart := resolved.Start.At(date, now.Location())
	windowOpen := shiftStart.Add(-time.Duration(tol.EarlyMinutes) * time.Minute)
	windowClose := shiftStart.Add(time.Duration(tol.LateMinutes) * time.Minute)

	if now.Before(windowOpen) {
		remaining := int(windowOpen.Sub(now).Minutes())
		return attendance.Reject(
			attendance.CodeTooEarly,
			fmt.Sprintf("Check-in dibuka pukul %s, %d menit lagi", windowOpen.Format("15:04"), remaining),
			map[string]any{
				"window_open":       windowOpen.Format("15:04"),
				"shift_start":       shiftStart.Format("15:04"),
				"remaining_minutes": remaining,
			},
		), nil, nil
	}
	if now.After(windowClose) {
		over := int(now.Sub(windowClose).Minutes())
		return attendance.Reject(
			attendance.CodeTooLate,
			fmt.Sprintf("Batas check-in pukul %s sudah lewat %d menit", windowClose.Format("15:04"), over),
			map[string]any{
				"window_close": windowClose.Format("15:04"),
				"shift_start":  shiftStart.Format("15:04"),
				"over_minutes": over,
			},
		), nil, nil
	}

	geo, err := e.geofence.Validate(ctx, u, req.Latitude, req.Longitude, req.Accuracy, now, geofence.ModeCheckIn)
	if err != nil {
		return attendance.ValidationResult{}, nil, fmt.Errorf("validate geofence: %w", err)
	}
	if !geo.Valid {
		return attendance.Reject(geo.Code, geo.Message, geo.Data), nil, nil
	}

	isLate := now.After(shiftStart)
	lateBy := 0
	if isLate {
		lateBy = int(now.Sub(shiftStart).Minutes())
	}

	// Datang lebih awal tidak dihitung sebagai jam kerja.
	logicalIn := now
	if logicalIn.Before(shiftStart) {
		logicalIn = shiftStart
	}

	record := attendance.AttendanceRecord{
		ID:                   uuid.NewString(),
		UserID:               req.UserID,
		Date:                 date,
		ScheduleAssignmentID: &resolved.Assignment.ID,
		TimeIn:               &now,
		LogicalTimeIn:        &logicalIn,
		Latitude:             &req.Latitude,
		Longitude:            &req.Longitude,
		Metadata:             checkInTrace(resolved, tol, geo, windowOpen, windowClose, isLate, lateBy),
	}
	if resolved.Assignment.SequenceNumber > e.settings.OvertimeAfterShifts {
		record.Metadata["overtime_shift"] = true
	}

	created, err := e.attendanceRepo.Create(ctx, record)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateOpenSession) {
			// Dua request check-in bersamaan: yang kalah index unik.
			return attendance.Reject(
				attendance.CodeAlreadyCheckedIn,
				"Anda masih memiliki sesi absensi yang belum di-checkout",
				nil,
			), nil, nil
		}
		return attendance.ValidationResult{}, nil, fmt.Errorf("create attendance record: %w", err)
	}

	if isLate {
		e.recordViolation(ctx, attendance.AttendanceViolation{
			ID:                 uuid.NewString(),
			UserID:             req.UserID,
			AttendanceRecordID: &created.ID,
			ViolationType:      attendance.ViolationLateCheckin,
			ViolationMinutes:   lateBy,
			Severity:           lateSeverity(lateBy),
		})
		return attendance.Accept(
			attendance.CodeValidButLate,
			fmt.Sprintf("Check-in berhasil, terlambat %d menit dari jadwal %s", lateBy, shiftStart.Format("15:04")),
			map[string]any{"late_by_minutes": lateBy, "shift_start": shiftStart.Format("15:04")},
		), &created, nil
	}

	return attendance.Accept(
		attendance.CodeValid,
		fmt.Sprintf("Check-in berhasil untuk shift %s", resolved.Template.Name),
		map[string]any{"shift_start": shiftStart.Format("15:04"), "logical_time_in": logicalIn.Format("15:04")},
	), &created, nil
}

// ValidateCheckOut closes the user's open session, or overwrites the
// latest closed record of the day (koreksi checkout diperbolehkan).
func (e *Engine) ValidateCheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.ValidationResult, *attendance.AttendanceRecord, error) {
	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	record, err := e.checkoutTarget(ctx, req.UserID, dateOf(now))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Reject(
				attendance.CodeNotCheckedIn,
				"Anda belum melakukan check-in hari ini",
				nil,
			), nil, nil
		}
		return attendance.ValidationResult{}, nil, err
	}

	u, err := e.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return attendance.ValidationResult{}, nil, fmt.Errorf("load user: %w", err)
	}

	// Lokasi tidak pernah memblokir checkout; hasilnya hanya dicatat.
	geo, err := e.geofence.Validate(ctx, u, req.Latitude, req.Longitude, req.Accuracy, now, geofence.ModeCheckOut)
	if err != nil {
		return attendance.ValidationResult{}, nil, fmt.Errorf("validate geofence: %w", err)
	}

	window, err := e.shiftWindowFor(ctx, record, now.Location())
	if err != nil {
		return attendance.ValidationResult{}, nil, err
	}

	tol, err := e.tolerances.Resolve(ctx, u, tolerance.ActionCheckOut, record.Date)
	if err != nil {
		return attendance.ValidationResult{}, nil, fmt.Errorf("resolve check-out tolerance: %w", err)
	}

	shiftEnd := window.end.At(record.Date, now.Location())
	if window.end.MinutesSinceMidnight() < window.start.MinutesSinceMidnight() {
		shiftEnd = shiftEnd.Add(24 * time.Hour) // shift malam
	}
	windowOpen := shiftEnd.Add(-time.Duration(tol.EarlyMinutes) * time.Minute)
	windowClose := shiftEnd.Add(time.Duration(tol.LateMinutes) * time.Minute)

	if now.Before(windowOpen) {
		remaining := int(windowOpen.Sub(now).Minutes())
		return attendance.Reject(
			attendance.CodeCheckoutTooEarly,
			fmt.Sprintf("Checkout dibuka pukul %s, %d menit lagi", windowOpen.Format("15:04"), remaining),
			map[string]any{
				"window_open":       windowOpen.Format("15:04"),
				"shift_end":         shiftEnd.Format("15:04"),
				"remaining_minutes": remaining,
			},
		), record, nil
	}

	veryLate := now.After(windowClose)
	overBy := 0
	if veryLate {
		overBy = int(now.Sub(windowClose).Minutes())
	}

	calc := e.durations.Calculate(duration.Input{
		CheckIn:                timeOfDayPtr(record.TimeIn),
		CheckOut:               timeOfDayPtr(&now),
		ShiftStart:             &window.start,
		ShiftEnd:               &window.end,
		Breaks:                 window.breaks,
		ConfiguredBreakMinutes: window.breakMinutes,
	})
	if calc.Error {
		return attendance.ValidationResult{}, nil, fmt.Errorf("calculate worked duration: %s", calc.ErrorMessage)
	}

	logicalOut := now
	if logicalOut.After(shiftEnd) {
		logicalOut = shiftEnd
	}

	record.TimeOut = &now
	record.LogicalTimeOut = &logicalOut
	record.LogicalWorkMinutes = &calc.FinalMinutes
	mergeTrace(record, map[string]any{
		"checkout_window_open":  windowOpen.Format("15:04"),
		"checkout_window_close": windowClose.Format("15:04"),
		"checkout_geofence":     geo.Code,
		"overtime":              veryLate,
		"final_minutes":         calc.FinalMinutes,
		"shortage_minutes":      calc.ShortageMinutes,
		"attendance_percentage": calc.AttendancePercentage,
	})

	// Update record + penanda assignment selesai dalam satu transaksi.
	err = e.tx(ctx, func(ctx context.Context) error {
		if err := e.attendanceRepo.Update(ctx, *record); err != nil {
			return fmt.Errorf("update attendance record: %w", err)
		}
		if record.ScheduleAssignmentID != nil {
			if err := e.assignmentRepo.MarkCompleted(ctx, *record.ScheduleAssignmentID); err != nil {
				slog.Warn("failed to mark assignment completed",
					"assignment_id", *record.ScheduleAssignmentID, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return attendance.ValidationResult{}, nil, err
	}

	data := map[string]any{
		"logical_work_minutes":  calc.FinalMinutes,
		"shortage_minutes":      calc.ShortageMinutes,
		"attendance_percentage": calc.AttendancePercentage,
	}
	for k, v := range geo.Data {
		data[k] = v
	}

	if veryLate {
		e.recordViolation(ctx, attendance.AttendanceViolation{
			ID:                 uuid.NewString(),
			UserID:             req.UserID,
			AttendanceRecordID: &record.ID,
			ViolationType:      attendance.ViolationVeryLateCheckout,
			ViolationMinutes:   overBy,
			Severity:           lateSeverity(overBy),
		})
		return attendance.Accept(
			attendance.CodeCheckoutVeryLate,
			fmt.Sprintf("Checkout dicatat, %d menit melewati batas %s", overBy, windowClose.Format("15:04")),
			data,
		), record, nil
	}

	return attendance.Accept(
		attendance.CodeValidCheckout,
		fmt.Sprintf("Checkout berhasil, %d menit kerja tercatat", calc.FinalMinutes),
		data,
	), record, nil
}

// checkoutTarget prefers the open session; without one, the latest
// record of the day is re-opened for an overwriting checkout.
func (e *Engine) checkoutTarget(ctx context.Context, userID string, date time.Time) (*attendance.AttendanceRecord, error) {
	open, err := e.attendanceRepo.GetOpenSession(ctx, userID)
	if err == nil {
		return &open, nil
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return nil, fmt.Errorf("check open session: %w", err)
	}

	records, err := e.attendanceRepo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load attendance records: %w", err)
	}
	var latest *attendance.AttendanceRecord
	for i := range records {
		r := &records[i]
		if r.TimeIn == nil {
			continue
		}
		if latest == nil || r.TimeIn.After(*latest.TimeIn) {
			latest = r
		}
	}
	if latest == nil {
		return nil, attendance.ErrAttendanceNotFound
	}
	return latest, nil
}

// shiftWindow is the parsed shift context a checkout needs.
type shiftWindow struct {
	start        timeparse.TimeOfDay
	end          timeparse.TimeOfDay
	breaks       []duration.Interval
	breakMinutes int
}

// shiftWindowFor reads the shift window from the record's check-in
// trace, falling back to the assignment's template when the trace is
// missing (data lama).
func (e *Engine) shiftWindowFor(ctx context.Context, record *attendance.AttendanceRecord, loc *time.Location) (shiftWindow, error) {
	if w, ok := windowFromTrace(record.Metadata); ok {
		return w, nil
	}

	if record.ScheduleAssignmentID != nil {
		a, err := e.assignmentRepo.GetByID(ctx, *record.ScheduleAssignmentID)
		if err == nil {
			if w, ok := windowFromAssignment(&a); ok {
				return w, nil
			}
		} else if !errors.Is(err, schedule.ErrAssignmentNotFound) {
			return shiftWindow{}, fmt.Errorf("load schedule assignment: %w", err)
		}
	}

	slog.Warn("attendance record without recoverable shift window, using 08:00-16:00",
		"attendance_id", record.ID)
	return shiftWindow{
		start: timeparse.TimeOfDay{Hour: 8},
		end:   timeparse.TimeOfDay{Hour: 16},
	}, nil
}

func windowFromTrace(meta map[string]any) (shiftWindow, bool) {
	startStr, ok1 := meta["shift_start"].(string)
	endStr, ok2 := meta["shift_end"].(string)
	if !ok1 || !ok2 {
		return shiftWindow{}, false
	}
	start, err := timeparse.ParseTimeOfDay(startStr)
	if err != nil {
		return shiftWindow{}, false
	}
	end, err := timeparse.ParseTimeOfDay(endStr)
	if err != nil {
		return shiftWindow{}, false
	}

	w := shiftWindow{start: start, end: end}
	// JSONB mengembalikan angka sebagai float64.
	if m, ok := meta["break_minutes"].(float64); ok {
		w.breakMinutes = int(m)
	} else if m, ok := meta["break_minutes"].(int); ok {
		w.breakMinutes = m
	}
	bs, hasStart := meta["break_start"].(string)
	be, hasEnd := meta["break_end"].(string)
	if hasStart && hasEnd {
		if iv, err := parseBreak(bs, be); err == nil {
			w.breaks = []duration.Interval{iv}
		}
	} else if w.breakMinutes > 0 {
		w.breaks = []duration.Interval{midpointBreak(start, end, w.breakMinutes)}
	}
	return w, true
}

func windowFromAssignment(a *schedule.ScheduleAssignment) (shiftWindow, bool) {
	start, err := timeparse.ParseTimeOfDay(a.EffectiveStart())
	if err != nil {
		return shiftWindow{}, false
	}
	end, err := timeparse.ParseTimeOfDay(a.EffectiveEnd())
	if err != nil {
		return shiftWindow{}, false
	}
	w := shiftWindow{start: start, end: end}
	if a.Template != nil {
		w.breakMinutes = a.Template.BreakDurationMinutes
		w.breaks = templateBreaks(a.Template, start, end)
	}
	return w, true
}

// templateBreaks returns the template's explicit break window, or a
// window of the configured length centered on the shift's midpoint.
func templateBreaks(t *schedule.ShiftTemplate, start, end timeparse.TimeOfDay) []duration.Interval {
	if t.BreakStart != nil && t.BreakEnd != nil {
		if iv, err := parseBreak(*t.BreakStart, *t.BreakEnd); err == nil {
			return []duration.Interval{iv}
		}
	}
	if t.BreakDurationMinutes > 0 {
		return []duration.Interval{midpointBreak(start, end, t.BreakDurationMinutes)}
	}
	return nil
}

func parseBreak(startStr, endStr string) (duration.Interval, error) {
	start, err := timeparse.ParseTimeOfDay(startStr)
	if err != nil {
		return duration.Interval{}, err
	}
	end, err := timeparse.ParseTimeOfDay(endStr)
	if err != nil {
		return duration.Interval{}, err
	}
	return duration.Interval{Start: start, End: end}, nil
}

func midpointBreak(start, end timeparse.TimeOfDay, minutes int) duration.Interval {
	startMin := start.MinutesSinceMidnight()
	endMin := end.MinutesSinceMidnight()
	if endMin < startMin {
		endMin += 24 * 60
	}
	mid := (startMin + endMin) / 2
	breakStart := mid - minutes/2
	return duration.Interval{
		Start: minutesToTimeOfDay(breakStart),
		End:   minutesToTimeOfDay(breakStart + minutes),
	}
}

func minutesToTimeOfDay(minutes int) timeparse.TimeOfDay {
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return timeparse.TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

func checkInTrace(resolved *schedule.ResolvedShift, tol tolerance.Result, geo geofence.Result, windowOpen, windowClose time.Time, isLate bool, lateBy int) map[string]any {
	trace := map[string]any{
		"shift_start":       resolved.Start.String(),
		"shift_end":         resolved.End.String(),
		"sequence_number":   resolved.Assignment.SequenceNumber,
		"tolerance_source":  tol.Source,
		"tolerance_early":   tol.EarlyMinutes,
		"tolerance_late":    tol.LateMinutes,
		"window_open":       windowOpen.Format("15:04"),
		"window_close":      windowClose.Format("15:04"),
		"is_late":           isLate,
		"geofence_code":     geo.Code,
		"geofence_distance": geo.DistanceMeters,
		"break_minutes":     resolved.Template.BreakDurationMinutes,
	}
	if isLate {
		trace["late_by_minutes"] = lateBy
	}
	if resolved.Template.BreakStart != nil {
		trace["break_start"] = *resolved.Template.BreakStart
	}
	if resolved.Template.BreakEnd != nil {
		trace["break_end"] = *resolved.Template.BreakEnd
	}
	if resolved.TemplateRepaired {
		trace["template_repaired"] = true
	}
	return trace
}

func mergeTrace(record *attendance.AttendanceRecord, extra map[string]any) {
	if record.Metadata == nil {
		record.Metadata = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		record.Metadata[k] = v
	}
}

func (e *Engine) recordViolation(ctx context.Context, v attendance.AttendanceViolation) {
	if _, err := e.violationRepo.Create(ctx, v); err != nil {
		// Baris audit gagal bukan alasan menggagalkan absensi.
		slog.Error("failed to record attendance violation",
			"user_id", v.UserID, "type", string(v.ViolationType), "error", err)
	}
}

func lateSeverity(minutes int) attendance.Severity {
	switch {
	case minutes <= 10:
		return attendance.SeverityLow
	case minutes <= 30:
		return attendance.SeverityMedium
	default:
		return attendance.SeverityHigh
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func timeOfDayPtr(t *time.Time) *timeparse.TimeOfDay {
	if t == nil {
		return nil
	}
	tod := timeparse.FromTime(*t)
	return &tod
}
