package geofence

import (
	"context"
	"testing"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Klinik coordinates used across the tests (central Jakarta).
const (
	clinicLat = -6.175392
	clinicLon = 106.827153
)

type fakeLocationRepo struct {
	location *worklocation.WorkLocation
}

func (f *fakeLocationRepo) GetByID(_ context.Context, _ string) (worklocation.WorkLocation, error) {
	return f.get()
}

func (f *fakeLocationRepo) GetForUser(_ context.Context, _ string) (worklocation.WorkLocation, error) {
	return f.get()
}

func (f *fakeLocationRepo) get() (worklocation.WorkLocation, error) {
	if f.location == nil {
		return worklocation.WorkLocation{}, worklocation.ErrWorkLocationNotFound
	}
	return *f.location, nil
}

type fakeOverrides struct {
	geofence *tolerance.GeofenceOverride
}

func (f *fakeOverrides) Resolve(_ context.Context, _ user.User, _ tolerance.Action, _ time.Time) (tolerance.Result, error) {
	return tolerance.Result{}, nil
}

func (f *fakeOverrides) ResolveSchedule(_ context.Context, _ user.User, _ tolerance.Action, _ time.Time) (tolerance.Result, error) {
	return tolerance.Result{}, nil
}

func (f *fakeOverrides) Invalidate(_ context.Context, _ string) error { return nil }

func (f *fakeOverrides) IssueOverride(_ context.Context, _ tolerance.Override) error { return nil }

func (f *fakeOverrides) ActiveOverride(_ context.Context, _ string, _ time.Time) (*tolerance.Override, error) {
	return nil, nil
}

func (f *fakeOverrides) IssueGeofenceOverride(_ context.Context, _ tolerance.GeofenceOverride) error {
	return nil
}

func (f *fakeOverrides) ActiveGeofenceOverride(_ context.Context, _ string, _ time.Time) (*tolerance.GeofenceOverride, error) {
	return f.geofence, nil
}

func clinicLocation(radius int) *worklocation.WorkLocation {
	return &worklocation.WorkLocation{
		ID:           "loc1",
		Name:         "Klinik Pusat",
		Latitude:     clinicLat,
		Longitude:    clinicLon,
		RadiusMeters: radius,
		IsActive:     true,
	}
}

var testUser = user.User{ID: "u1", Role: user.RoleDokter, IsActive: true}

func TestValidate_InsideRadius(t *testing.T) {
	v := NewValidator(&fakeLocationRepo{location: clinicLocation(100)}, &fakeOverrides{}, 50, 100)

	res, err := v.Validate(context.Background(), testUser, clinicLat, clinicLon, nil, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, attendance.CodeValid, res.Code)
}

func TestValidate_BoundaryInclusive(t *testing.T) {
	// A point whose distance equals the radius is accepted; one step
	// further is rejected.
	other := struct{ lat, lon float64 }{clinicLat + 0.0009, clinicLon}
	distance := utils.HaversineDistance(clinicLat, clinicLon, other.lat, other.lon)

	v := NewValidator(&fakeLocationRepo{location: clinicLocation(int(distance) + 1)}, &fakeOverrides{}, 50, 100)
	res, err := v.Validate(context.Background(), testUser, other.lat, other.lon, nil, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.True(t, res.Valid, "distance %.2f should be inside radius %d", distance, int(distance)+1)

	v = NewValidator(&fakeLocationRepo{location: clinicLocation(int(distance) - 5)}, &fakeOverrides{}, 50, 100)
	res, err = v.Validate(context.Background(), testUser, other.lat, other.lon, nil, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, attendance.CodeOutsideWorkArea, res.Code)
	assert.Contains(t, res.Message, "meter")
	assert.NotNil(t, res.Data["over_by_meters"])
}

func TestValidate_AccuracyGate(t *testing.T) {
	v := NewValidator(&fakeLocationRepo{location: clinicLocation(100)}, &fakeOverrides{}, 50, 100)

	badAccuracy := 80.0
	res, err := v.Validate(context.Background(), testUser, clinicLat, clinicLon, &badAccuracy, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, attendance.CodeGPSNotAccurate, res.Code)

	okAccuracy := 20.0
	res, err = v.Validate(context.Background(), testUser, clinicLat, clinicLon, &okAccuracy, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidate_InactiveLocation(t *testing.T) {
	loc := clinicLocation(100)
	loc.IsActive = false
	v := NewValidator(&fakeLocationRepo{location: loc}, &fakeOverrides{}, 50, 100)

	res, err := v.Validate(context.Background(), testUser, clinicLat, clinicLon, nil, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, attendance.CodeWorkLocationInactive, res.Code)
}

func TestValidate_CheckoutNeverBlocks(t *testing.T) {
	// Far away from the clinic, but checkout mode downgrades the failure.
	v := NewValidator(&fakeLocationRepo{location: clinicLocation(100)}, &fakeOverrides{}, 50, 100)

	res, err := v.Validate(context.Background(), testUser, clinicLat+1.0, clinicLon, nil, time.Now(), ModeCheckOut)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, attendance.CodeValidCheckout, res.Code)
	assert.Equal(t, true, res.Data["location_tolerance_applied"])
	assert.Equal(t, attendance.CodeOutsideWorkArea, res.Data["original_code"])
}

func TestValidate_AdminOverrideBypasses(t *testing.T) {
	overrides := &fakeOverrides{geofence: &tolerance.GeofenceOverride{
		UserID: "u1", Reason: "kunjungan rumah pasien", IssuedBy: "admin1",
	}}
	v := NewValidator(&fakeLocationRepo{location: clinicLocation(100)}, overrides, 50, 100)

	res, err := v.Validate(context.Background(), testUser, clinicLat+1.0, clinicLon, nil, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, attendance.CodeAdminOverrideActive, res.Code)
	assert.Contains(t, res.Message, "kunjungan rumah pasien")
}

func TestValidate_NoAssignedLocation(t *testing.T) {
	v := NewValidator(&fakeLocationRepo{}, &fakeOverrides{}, 50, 100)

	res, err := v.Validate(context.Background(), testUser, clinicLat, clinicLon, nil, time.Now(), ModeCheckIn)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// One degree of latitude is about 111 km.
	d := utils.HaversineDistance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 200)
}
