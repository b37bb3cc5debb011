package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssignmentRepo struct {
	assignments []schedule.ScheduleAssignment
}

func (f *fakeAssignmentRepo) GetByUserAndDate(_ context.Context, _ string, _ time.Time) ([]schedule.ScheduleAssignment, error) {
	return f.assignments, nil
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id string) (schedule.ScheduleAssignment, error) {
	for _, a := range f.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return schedule.ScheduleAssignment{}, schedule.ErrAssignmentNotFound
}

func (f *fakeAssignmentRepo) MarkCompleted(_ context.Context, _ string) error { return nil }

type fakeTemplateRepo struct {
	templates map[string]schedule.ShiftTemplate
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, id string) (schedule.ShiftTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return schedule.ShiftTemplate{}, schedule.ErrShiftTemplateNotFound
	}
	return t, nil
}

type fakeAttendanceRepo struct {
	records []attendance.AttendanceRecord
}

func (f *fakeAttendanceRepo) Create(_ context.Context, r attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	return r, nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, _ string) (attendance.AttendanceRecord, error) {
	return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) GetOpenSession(_ context.Context, _ string) (attendance.AttendanceRecord, error) {
	return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) GetByUserAndDate(_ context.Context, _ string, _ time.Time) ([]attendance.AttendanceRecord, error) {
	return f.records, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, _ attendance.AttendanceRecord) error {
	return nil
}

func (f *fakeAttendanceRepo) GetStaleOpenSessions(_ context.Context, _ time.Time) ([]attendance.AttendanceRecord, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) AutoClose(_ context.Context, _ string, _ time.Time, _ int, _ map[string]any) (bool, error) {
	return true, nil
}

type fakeLocationRepo struct{}

func (f *fakeLocationRepo) GetByID(_ context.Context, _ string) (worklocation.WorkLocation, error) {
	return worklocation.WorkLocation{}, worklocation.ErrWorkLocationNotFound
}

func (f *fakeLocationRepo) GetForUser(_ context.Context, _ string) (worklocation.WorkLocation, error) {
	return worklocation.WorkLocation{}, worklocation.ErrWorkLocationNotFound
}

type fakeUserRepo struct{}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	return user.User{ID: id, Role: user.RoleDokter, IsActive: true}, nil
}

func (f *fakeUserRepo) GetByRole(_ context.Context, _ user.Role) ([]user.User, error) {
	return nil, nil
}

type fakeTolerances struct{}

func (f *fakeTolerances) Resolve(_ context.Context, _ user.User, _ tolerance.Action, _ time.Time) (tolerance.Result, error) {
	return tolerance.Result{EarlyMinutes: 30, LateMinutes: 60, Source: tolerance.SourceDefault}, nil
}

func (f *fakeTolerances) ResolveSchedule(_ context.Context, _ user.User, _ tolerance.Action, _ time.Time) (tolerance.Result, error) {
	return tolerance.Result{EarlyMinutes: 15, LateMinutes: 15, Source: tolerance.SourceDefaultSchedule}, nil
}

func (f *fakeTolerances) Invalidate(_ context.Context, _ string) error                  { return nil }
func (f *fakeTolerances) IssueOverride(_ context.Context, _ tolerance.Override) error  { return nil }
func (f *fakeTolerances) ActiveOverride(_ context.Context, _ string, _ time.Time) (*tolerance.Override, error) {
	return nil, nil
}
func (f *fakeTolerances) IssueGeofenceOverride(_ context.Context, _ tolerance.GeofenceOverride) error {
	return nil
}
func (f *fakeTolerances) ActiveGeofenceOverride(_ context.Context, _ string, _ time.Time) (*tolerance.GeofenceOverride, error) {
	return nil, nil
}

var testDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newTestResolver(assignments []schedule.ScheduleAssignment, records []attendance.AttendanceRecord, cfg Config) schedule.ShiftResolver {
	return NewResolver(
		&fakeAssignmentRepo{assignments: assignments},
		&fakeTemplateRepo{templates: map[string]schedule.ShiftTemplate{
			"t-pagi":    {ID: "t-pagi", Name: "Shift Pagi", StartTime: "08:00", EndTime: "12:00"},
			"t-sore":    {ID: "t-sore", Name: "Shift Sore", StartTime: "13:00", EndTime: "17:00"},
			"t-default": {ID: "t-default", Name: "Shift Default", StartTime: "09:00", EndTime: "15:00"},
		}},
		&fakeAttendanceRepo{records: records},
		&fakeLocationRepo{},
		&fakeTolerances{},
		&fakeUserRepo{},
		cfg,
	)
}

func TestFindApplicableShift_NoSchedule(t *testing.T) {
	r := newTestResolver(nil, nil, Config{})

	resolved, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, testDate.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, resolved)
	require.NotNil(t, rejection)
	assert.Equal(t, attendance.CodeNoSchedule, rejection.Code)
}

func TestFindApplicableShift_Simple(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-pagi"),
		Status: schedule.StatusActive, SequenceNumber: 1,
	}}
	r := newTestResolver(assignments, nil, Config{})

	resolved, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, testDate.Add(8*time.Hour))
	require.NoError(t, err)
	require.Nil(t, rejection)
	require.NotNil(t, resolved)
	assert.Equal(t, "a1", resolved.Assignment.ID)
	assert.Equal(t, "Shift Pagi", resolved.Template.Name)
	assert.Equal(t, 8*60, resolved.Start.MinutesSinceMidnight())
	assert.False(t, resolved.TemplateRepaired)
}

func TestFindApplicableShift_AllShiftsCompleted(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-pagi"),
		Status: schedule.StatusActive, SequenceNumber: 1,
	}}
	out := testDate.Add(12 * time.Hour)
	records := []attendance.AttendanceRecord{{
		ID: "r1", UserID: "u1", ScheduleAssignmentID: strPtr("a1"), TimeOut: &out,
	}}
	r := newTestResolver(assignments, records, Config{})

	resolved, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, out.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, resolved)
	require.NotNil(t, rejection)
	assert.Equal(t, attendance.CodeAllShiftsCompleted, rejection.Code)
}

func TestFindApplicableShift_MinGapEnforced(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{
		{ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-pagi"),
			Status: schedule.StatusActive, SequenceNumber: 1},
		{ID: "a2", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-sore"),
			Status: schedule.StatusActive, SequenceNumber: 2},
	}
	// Checkout shift pertama jam 12:00.
	out := testDate.Add(12 * time.Hour)
	records := []attendance.AttendanceRecord{{
		ID: "r1", UserID: "u1", ScheduleAssignmentID: strPtr("a1"), TimeOut: &out,
	}}
	r := newTestResolver(assignments, records, Config{MinGapMinutes: 60, MaxGapMinutes: 720})
	ctx := context.Background()

	// 12:30 is inside the minimum gap: rejected with remaining minutes.
	resolved, rejection, err := r.FindApplicableShift(ctx, "u1", testDate, testDate.Add(12*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, resolved)
	require.NotNil(t, rejection)
	assert.Equal(t, attendance.CodeNoAvailableShift, rejection.Code)
	assert.Equal(t, 30, rejection.Data["remaining_minutes"])

	// 13:01 is past the gap: allowed.
	resolved, rejection, err = r.FindApplicableShift(ctx, "u1", testDate, testDate.Add(13*time.Hour+time.Minute))
	require.NoError(t, err)
	require.Nil(t, rejection)
	require.NotNil(t, resolved)
	assert.Equal(t, "a2", resolved.Assignment.ID)
}

func TestFindApplicableShift_MaxGapTooStale(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{
		{ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-pagi"),
			Status: schedule.StatusActive, SequenceNumber: 1},
		{ID: "a2", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-sore"),
			Status: schedule.StatusActive, SequenceNumber: 2},
	}
	out := testDate.Add(6 * time.Hour)
	records := []attendance.AttendanceRecord{{
		ID: "r1", UserID: "u1", ScheduleAssignmentID: strPtr("a1"), TimeOut: &out,
	}}
	r := newTestResolver(assignments, records, Config{MinGapMinutes: 60, MaxGapMinutes: 720})

	// 13 hours after checkout: too stale to count as a continuation.
	resolved, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, out.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, resolved)
	require.NotNil(t, rejection)
	assert.Equal(t, attendance.CodeNoAvailableShift, rejection.Code)
	assert.Contains(t, rejection.Message, "melebihi")
}

func TestFindApplicableShift_LeaveAssignmentsIgnored(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-pagi"),
		Status: schedule.StatusLeave, SequenceNumber: 1,
	}}
	r := newTestResolver(assignments, nil, Config{})

	_, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, testDate.Add(8*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Equal(t, attendance.CodeNoSchedule, rejection.Code)
}

func TestFindApplicableShift_TemplateAutoRepair(t *testing.T) {
	// Missing template falls back to the configured default.
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-missing"),
		Status: schedule.StatusActive, SequenceNumber: 1,
	}}
	r := newTestResolver(assignments, nil, Config{DefaultShiftTemplateID: "t-default"})

	resolved, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, testDate.Add(10*time.Hour))
	require.NoError(t, err)
	require.Nil(t, rejection)
	require.NotNil(t, resolved)
	assert.True(t, resolved.TemplateRepaired)
	assert.Equal(t, "t-default", resolved.Template.ID)
	assert.Equal(t, 9*60, resolved.Start.MinutesSinceMidnight())
}

func TestFindApplicableShift_HardcodedFallbackWindow(t *testing.T) {
	// No template and no default configured: 08:00-16:00.
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate,
		Status: schedule.StatusActive, SequenceNumber: 1,
	}}
	r := newTestResolver(assignments, nil, Config{})

	resolved, rejection, err := r.FindApplicableShift(context.Background(), "u1", testDate, testDate.Add(10*time.Hour))
	require.NoError(t, err)
	require.Nil(t, rejection)
	require.NotNil(t, resolved)
	assert.True(t, resolved.TemplateRepaired)
	assert.Equal(t, 8*60, resolved.Start.MinutesSinceMidnight())
	assert.Equal(t, 16*60, resolved.End.MinutesSinceMidnight())
}

func TestFindApplicableShift_CustomTimesOverrideTemplate(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-pagi"),
		Status: schedule.StatusActive, SequenceNumber: 1,
		CustomStart: strPtr("10:00"), CustomEnd: strPtr("14:30:00"),
	}}
	r := newTestResolver(assignments, nil, Config{})

	resolved, _, err := r.FindApplicableShift(context.Background(), "u1", testDate, testDate.Add(11*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 10*60, resolved.Start.MinutesSinceMidnight())
	assert.Equal(t, 14*60+30, resolved.End.MinutesSinceMidnight())
}

func TestFindApplicableShift_ProductionWindowGate(t *testing.T) {
	assignments := []schedule.ScheduleAssignment{{
		ID: "a1", UserID: "u1", Date: testDate, ShiftTemplateID: strPtr("t-sore"),
		Status: schedule.StatusActive, SequenceNumber: 1,
	}}
	r := newTestResolver(assignments, nil, Config{Production: true})
	ctx := context.Background()

	// 08:00 is far before the 13:00 shift's 15-minute early window.
	resolved, rejection, err := r.FindApplicableShift(ctx, "u1", testDate, testDate.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, resolved)
	require.NotNil(t, rejection)
	assert.Equal(t, attendance.CodeNoAvailableShift, rejection.Code)

	// 12:50 is inside the early window.
	resolved, rejection, err = r.FindApplicableShift(ctx, "u1", testDate, testDate.Add(12*time.Hour+50*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, rejection)
	assert.NotNil(t, resolved)
}
