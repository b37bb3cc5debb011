package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/utils"
)

// Mode selects how strictly a location failure is treated.
type Mode string

const (
	// ModeCheckIn blocks on any geofence failure.
	ModeCheckIn Mode = "checkin"
	// ModeCheckOut downgrades failures to informational: once a user has
	// a legitimate open session, checkout must never be blocked by
	// location.
	ModeCheckOut Mode = "checkout"
)

// Result of a geofence check. Valid=true with a non-VALID code means the
// check passed by policy (override, or checkout leniency) rather than by
// position.
type Result struct {
	Valid          bool
	Code           string
	Message        string
	WorkLocation   *worklocation.WorkLocation
	DistanceMeters float64
	Data           map[string]any
}

type Validator struct {
	locationRepo        worklocation.WorkLocationRepository
	overrides           tolerance.Resolver
	maxAccuracyMeters   float64
	defaultRadiusMeters int
}

func NewValidator(
	locationRepo worklocation.WorkLocationRepository,
	overrides tolerance.Resolver,
	maxAccuracyMeters float64,
	defaultRadiusMeters int,
) *Validator {
	if maxAccuracyMeters <= 0 {
		maxAccuracyMeters = 50
	}
	if defaultRadiusMeters <= 0 {
		defaultRadiusMeters = 100
	}
	return &Validator{
		locationRepo:        locationRepo,
		overrides:           overrides,
		maxAccuracyMeters:   maxAccuracyMeters,
		defaultRadiusMeters: defaultRadiusMeters,
	}
}

// Validate checks the user's coordinates against their work location.
func (v *Validator) Validate(ctx context.Context, u user.User, lat, lon float64, accuracy *float64, now time.Time, mode Mode) (Result, error) {
	// Admin override melewati semua validasi lokasi untuk hari ini.
	if o, err := v.overrides.ActiveGeofenceOverride(ctx, u.ID, now); err == nil && o != nil {
		slog.Info("geofence override active", "user_id", u.ID, "issued_by", o.IssuedBy, "reason", o.Reason)
		return Result{
			Valid:   true,
			Code:    attendance.CodeAdminOverrideActive,
			Message: fmt.Sprintf("Validasi lokasi dilewati atas izin admin: %s", o.Reason),
			Data:    map[string]any{"override_reason": o.Reason, "issued_by": o.IssuedBy},
		}, nil
	}

	if accuracy != nil && *accuracy > v.maxAccuracyMeters {
		result := Result{
			Valid: false,
			Code:  attendance.CodeGPSNotAccurate,
			Message: fmt.Sprintf("Akurasi GPS %.0f meter melebihi batas %.0f meter. Coba di area terbuka.",
				*accuracy, v.maxAccuracyMeters),
			Data: map[string]any{
				"accuracy_meters":     *accuracy,
				"max_accuracy_meters": v.maxAccuracyMeters,
			},
		}
		return v.applyMode(result, mode), nil
	}

	loc, err := v.locationRepo.GetForUser(ctx, u.ID)
	if err != nil {
		if errors.Is(err, worklocation.ErrWorkLocationNotFound) {
			// No assigned location: nothing to validate against.
			return Result{
				Valid:   true,
				Code:    attendance.CodeValid,
				Message: "Tidak ada lokasi kerja yang ditetapkan, validasi lokasi dilewati",
			}, nil
		}
		return Result{}, fmt.Errorf("resolve work location for %s: %w", u.ID, err)
	}

	if !loc.IsActive {
		result := Result{
			Valid:        false,
			Code:         attendance.CodeWorkLocationInactive,
			Message:      fmt.Sprintf("Lokasi kerja %s sedang nonaktif", loc.Name),
			WorkLocation: &loc,
		}
		return v.applyMode(result, mode), nil
	}

	distance := utils.HaversineDistance(lat, lon, loc.Latitude, loc.Longitude)
	radius := loc.RadiusMeters
	if radius <= 0 {
		radius = v.defaultRadiusMeters
	}

	// Batas radius inklusif: tepat di garis masih diterima.
	if distance <= float64(radius) {
		return Result{
			Valid:          true,
			Code:           attendance.CodeValid,
			Message:        fmt.Sprintf("Lokasi valid, %.0f meter dari %s", distance, loc.Name),
			WorkLocation:   &loc,
			DistanceMeters: distance,
			Data: map[string]any{
				"distance_meters": math.Round(distance),
				"radius_meters":   radius,
			},
		}, nil
	}

	over := distance - float64(radius)
	result := Result{
		Valid: false,
		Code:  attendance.CodeOutsideWorkArea,
		Message: fmt.Sprintf("Anda berada %.0f meter dari %s, %.0f meter di luar radius %d meter",
			distance, loc.Name, over, radius),
		WorkLocation:   &loc,
		DistanceMeters: distance,
		Data: map[string]any{
			"distance_meters": math.Round(distance),
			"radius_meters":   radius,
			"over_by_meters":  math.Round(over),
		},
	}
	return v.applyMode(result, mode), nil
}

// applyMode downgrades checkout failures to non-blocking informational
// results. Deliberately permissive: a user with an open session already
// proved presence at check-in.
func (v *Validator) applyMode(result Result, mode Mode) Result {
	if result.Valid || mode != ModeCheckOut {
		return result
	}

	slog.Info("geofence failure downgraded for checkout",
		"code", result.Code, "distance_meters", result.DistanceMeters)

	if result.Data == nil {
		result.Data = map[string]any{}
	}
	result.Data["location_tolerance_applied"] = true
	result.Data["original_code"] = result.Code

	result.Valid = true
	result.Code = attendance.CodeValidCheckout
	result.Message = "Lokasi di luar area kerja, toleransi checkout diterapkan"
	return result
}
