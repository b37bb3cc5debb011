package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

type stubEngine struct {
	result attendance.ValidationResult
	record *attendance.AttendanceRecord
	err    error

	lastCheckIn  *attendance.CheckInRequest
	lastCheckOut *attendance.CheckOutRequest
}

func (s *stubEngine) ValidateCheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.ValidationResult, *attendance.AttendanceRecord, error) {
	s.lastCheckIn = &req
	return s.result, s.record, s.err
}

func (s *stubEngine) ValidateCheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.ValidationResult, *attendance.AttendanceRecord, error) {
	s.lastCheckOut = &req
	return s.result, s.record, s.err
}

type stubAttendanceRepo struct {
	records []attendance.AttendanceRecord
}

func (s *stubAttendanceRepo) Create(ctx context.Context, r attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	return r, nil
}

func (s *stubAttendanceRepo) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
}

func (s *stubAttendanceRepo) GetOpenSession(ctx context.Context, userID string) (attendance.AttendanceRecord, error) {
	return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
}

func (s *stubAttendanceRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.AttendanceRecord, error) {
	return s.records, nil
}

func (s *stubAttendanceRepo) Update(ctx context.Context, r attendance.AttendanceRecord) error {
	return nil
}

func (s *stubAttendanceRepo) GetStaleOpenSessions(ctx context.Context, before time.Time) ([]attendance.AttendanceRecord, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) AutoClose(ctx context.Context, id string, timeOut time.Time, logicalWorkMinutes int, metadata map[string]any) (bool, error) {
	return false, nil
}

type stubToleranceResolver struct {
	overrides []tolerance.Override
}

func (s *stubToleranceResolver) Resolve(ctx context.Context, u user.User, action tolerance.Action, date time.Time) (tolerance.Result, error) {
	return tolerance.Result{EarlyMinutes: 30, LateMinutes: 60, Source: tolerance.SourceDefault}, nil
}

func (s *stubToleranceResolver) ResolveSchedule(ctx context.Context, u user.User, action tolerance.Action, date time.Time) (tolerance.Result, error) {
	return tolerance.Result{EarlyMinutes: 15, LateMinutes: 15, Source: tolerance.SourceDefaultSchedule}, nil
}

func (s *stubToleranceResolver) Invalidate(ctx context.Context, userID string) error { return nil }

func (s *stubToleranceResolver) IssueOverride(ctx context.Context, o tolerance.Override) error {
	s.overrides = append(s.overrides, o)
	return nil
}

func (s *stubToleranceResolver) ActiveOverride(ctx context.Context, userID string, date time.Time) (*tolerance.Override, error) {
	return nil, nil
}

func (s *stubToleranceResolver) IssueGeofenceOverride(ctx context.Context, o tolerance.GeofenceOverride) error {
	return nil
}

func (s *stubToleranceResolver) ActiveGeofenceOverride(ctx context.Context, userID string, date time.Time) (*tolerance.GeofenceOverride, error) {
	return nil, nil
}

type stubSettingRepo struct {
	saved []tolerance.ToleranceSetting
}

func (s *stubSettingRepo) GetActiveByScope(ctx context.Context, scope tolerance.Scope, scopeValue string) ([]tolerance.ToleranceSetting, error) {
	return nil, nil
}

func (s *stubSettingRepo) Upsert(ctx context.Context, setting tolerance.ToleranceSetting) (tolerance.ToleranceSetting, error) {
	setting.ID = "ts-1"
	s.saved = append(s.saved, setting)
	return setting, nil
}

type stubUserRepo struct{}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{ID: id, Role: user.RoleDokter, IsActive: true}, nil
}

func (s *stubUserRepo) GetByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	return nil, nil
}

type stubShiftResolver struct {
	resolved  *schedule.ResolvedShift
	rejection *schedule.Rejection
}

func (s *stubShiftResolver) FindApplicableShift(ctx context.Context, userID string, date, now time.Time) (*schedule.ResolvedShift, *schedule.Rejection, error) {
	return s.resolved, s.rejection, nil
}

type routerFixture struct {
	router      http.Handler
	jwtService  jwt.Service
	engine      *stubEngine
	settingRepo *stubSettingRepo
	resolver    *stubToleranceResolver
	shifts      *stubShiftResolver
}

func newRouterFixture() *routerFixture {
	engine := &stubEngine{}
	attendanceRepo := &stubAttendanceRepo{}
	resolver := &stubToleranceResolver{}
	settingRepo := &stubSettingRepo{}
	shifts := &stubShiftResolver{
		rejection: &schedule.Rejection{Code: attendance.CodeNoSchedule, Message: "Tidak ada jadwal jaga untuk hari ini"},
	}
	jwtService := jwt.NewJWTService(testSecret, "1h")

	attendanceHandler := NewAttendanceHandler(engine, attendanceRepo)
	scheduleHandler := NewScheduleHandler(shifts)
	toleranceHandler := NewToleranceHandler(resolver, settingRepo, &stubUserRepo{})

	return &routerFixture{
		router:      NewRouter(jwtService, attendanceHandler, scheduleHandler, toleranceHandler, "test"),
		jwtService:  jwtService,
		engine:      engine,
		settingRepo: settingRepo,
		resolver:    resolver,
		shifts:      shifts,
	}
}

func (f *routerFixture) tokenFor(t *testing.T, userID string, role user.Role) string {
	t.Helper()
	token, _, err := f.jwtService.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	return payload
}

func TestCheckIn_RequiresToken(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/attendance/check-in", "", map[string]any{
		"latitude":  -6.2,
		"longitude": 106.8,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckIn_PolicyRejectionReturns200(t *testing.T) {
	f := newRouterFixture()
	f.engine.result = attendance.Reject(attendance.CodeTooEarly, "Check-in dibuka 30 menit lagi", map[string]any{"remaining_minutes": 30})

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodPost, "/api/v1/attendance/check-in", token, map[string]any{
		"latitude":  -6.2,
		"longitude": 106.8,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	data := payload["data"].(map[string]any)
	validation := data["validation"].(map[string]any)
	assert.Equal(t, attendance.CodeTooEarly, validation["code"])
	assert.Equal(t, false, validation["valid"])

	// UserID dan timestamp diisi dari server, bukan dari body.
	require.NotNil(t, f.engine.lastCheckIn)
	assert.Equal(t, "u1", f.engine.lastCheckIn.UserID)
	assert.False(t, f.engine.lastCheckIn.Timestamp.IsZero())
}

func TestCheckIn_BodyUserIDIgnored(t *testing.T) {
	f := newRouterFixture()
	f.engine.result = attendance.Accept(attendance.CodeValid, "Check-in berhasil", nil)

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodPost, "/api/v1/attendance/check-in", token, map[string]any{
		"user_id":   "someone-else",
		"latitude":  -6.2,
		"longitude": 106.8,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.engine.lastCheckIn)
	assert.Equal(t, "u1", f.engine.lastCheckIn.UserID)
}

func TestCheckIn_InvalidCoordinates(t *testing.T) {
	f := newRouterFixture()

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodPost, "/api/v1/attendance/check-in", token, map[string]any{
		"latitude":  999.0,
		"longitude": 106.8,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Nil(t, f.engine.lastCheckIn)
}

func TestCheckOut_Valid(t *testing.T) {
	f := newRouterFixture()
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	minutes := 480
	f.engine.result = attendance.Accept(attendance.CodeValidCheckout, "Checkout berhasil, 480 menit kerja tercatat", nil)
	f.engine.record = &attendance.AttendanceRecord{
		ID:                 "att-1",
		UserID:             "u1",
		Date:               time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		TimeIn:             &now,
		TimeOut:            &now,
		LogicalWorkMinutes: &minutes,
	}

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodPost, "/api/v1/attendance/check-out", token, map[string]any{
		"latitude":  -6.2,
		"longitude": 106.8,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	data := payload["data"].(map[string]any)
	att := data["attendance"].(map[string]any)
	assert.Equal(t, "att-1", att["id"])
	assert.Equal(t, "2024-06-10", att["date"])
	assert.Equal(t, float64(480), att["logical_work_minutes"])
}

func TestGetTodayShift_NoSchedule(t *testing.T) {
	f := newRouterFixture()

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodGet, "/api/v1/schedule/today", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	data := payload["data"].(map[string]any)
	assert.Equal(t, false, data["available"])
	rejection := data["rejection"].(map[string]any)
	assert.Equal(t, attendance.CodeNoSchedule, rejection["code"])
}

func TestGetMyTolerance(t *testing.T) {
	f := newRouterFixture()

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodGet, "/api/v1/tolerance/my", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	data := payload["data"].(map[string]any)
	checkin := data["checkin"].(map[string]any)
	assert.Equal(t, float64(30), checkin["early_minutes"])
	assert.Equal(t, float64(60), checkin["late_minutes"])
	assert.Equal(t, false, data["geofence_override_active"])
}

func TestUpsertSetting_AdminOnly(t *testing.T) {
	f := newRouterFixture()

	body := map[string]any{
		"scope":                  "global",
		"is_active":              true,
		"checkin_early_minutes":  30,
		"checkin_late_minutes":   60,
		"checkout_early_minutes": 30,
		"checkout_late_minutes":  60,
	}

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodPost, "/api/v1/admin/tolerance-settings", token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.settingRepo.saved)

	adminToken := f.tokenFor(t, "admin-1", user.RoleAdmin)
	rec = f.do(t, http.MethodPost, "/api/v1/admin/tolerance-settings", adminToken, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.settingRepo.saved, 1)
	assert.Equal(t, tolerance.ScopeGlobal, f.settingRepo.saved[0].Scope)
}

func TestIssueOverride_DefaultsToToday(t *testing.T) {
	f := newRouterFixture()

	adminToken := f.tokenFor(t, "admin-1", user.RoleAdmin)
	rec := f.do(t, http.MethodPost, "/api/v1/admin/tolerance-overrides", adminToken, map[string]any{
		"user_id":              "u1",
		"reason":               "Banjir di jalan utama",
		"checkin_late_minutes": 120,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.resolver.overrides, 1)
	o := f.resolver.overrides[0]
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "admin-1", o.IssuedBy)
	assert.Equal(t, time.Now().Format("2006-01-02"), o.Date)
}

func TestGetMyAttendance_BadDate(t *testing.T) {
	f := newRouterFixture()

	token := f.tokenFor(t, "u1", user.RoleDokter)
	rec := f.do(t, http.MethodGet, "/api/v1/attendance/my?date=not-a-date", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
