package tolerance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/cache"
)

// Hard defaults. The legacy call sites and the schedule-based validator
// historically used different pairs; both are preserved on purpose, see
// the Resolver interface doc.
var legacyDefaults = map[tolerance.Action]tolerance.Result{
	tolerance.ActionCheckIn:  {EarlyMinutes: 30, LateMinutes: 60, Source: tolerance.SourceDefault},
	tolerance.ActionCheckOut: {EarlyMinutes: 30, LateMinutes: 60, Source: tolerance.SourceDefault},
}

var scheduleDefaults = map[tolerance.Action]tolerance.Result{
	tolerance.ActionCheckIn:  {EarlyMinutes: 15, LateMinutes: 15, Source: tolerance.SourceDefaultSchedule},
	tolerance.ActionCheckOut: {EarlyMinutes: 15, LateMinutes: 60, Source: tolerance.SourceDefaultSchedule},
}

// DefaultCacheTTL is deliberately short: settings rarely change within a
// day, but an admin edit should become visible within minutes.
const DefaultCacheTTL = 5 * time.Minute

type ResolverImpl struct {
	settingRepo  tolerance.ToleranceSettingRepository
	locationRepo worklocation.WorkLocationRepository
	store        cache.Store
	cacheTTL     time.Duration
}

func NewResolver(
	settingRepo tolerance.ToleranceSettingRepository,
	locationRepo worklocation.WorkLocationRepository,
	store cache.Store,
	cacheTTL time.Duration,
) tolerance.Resolver {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &ResolverImpl{
		settingRepo:  settingRepo,
		locationRepo: locationRepo,
		store:        store,
		cacheTTL:     cacheTTL,
	}
}

func overrideKey(userID, date string) string {
	return "tolerance:override:" + userID + ":" + date
}

func geofenceOverrideKey(userID, date string) string {
	return "geofence:override:" + userID + ":" + date
}

// resolvedKey is segmented by the fallback tier: the legacy and
// schedule paths bottom out on different hard defaults, so their
// resolutions must never share a cache entry.
func resolvedKey(tier, userID string, action tolerance.Action, date string) string {
	return fmt.Sprintf("tolerance:resolved:%s:%s:%s:%s", tier, userID, action, date)
}

// Resolve implements tolerance.Resolver using the legacy hard defaults.
func (r *ResolverImpl) Resolve(ctx context.Context, u user.User, action tolerance.Action, date time.Time) (tolerance.Result, error) {
	return r.resolve(ctx, u, action, date, legacyDefaults[action])
}

// ResolveSchedule implements tolerance.Resolver with the stricter
// schedule-path defaults.
func (r *ResolverImpl) ResolveSchedule(ctx context.Context, u user.User, action tolerance.Action, date time.Time) (tolerance.Result, error) {
	return r.resolve(ctx, u, action, date, scheduleDefaults[action])
}

func (r *ResolverImpl) resolve(ctx context.Context, u user.User, action tolerance.Action, date time.Time, fallback tolerance.Result) (tolerance.Result, error) {
	dateStr := date.Format("2006-01-02")

	// 1. Day-scoped admin override wins over everything, including the
	// resolution cache.
	if o, err := r.ActiveOverride(ctx, u.ID, date); err == nil && o != nil {
		result := overrideResult(o, action, fallback)
		r.logResolution(u.ID, action, dateStr, result)
		return result, nil
	}

	// 2. Cached resolution. A store failure is treated as a miss:
	// attendance marking must keep working when the cache is down.
	cacheKey := resolvedKey(fallback.Source, u.ID, action, dateStr)
	var cached tolerance.Result
	if found, err := r.store.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		slog.Warn("tolerance cache read failed, resolving from settings", "user_id", u.ID, "error", err)
	}

	result := r.resolveUncached(ctx, u, action, date, fallback)

	if err := r.store.Put(ctx, cacheKey, result, r.cacheTTL); err != nil {
		slog.Warn("tolerance cache write failed", "user_id", u.ID, "error", err)
	}

	r.logResolution(u.ID, action, dateStr, result)
	return result, nil
}

func (r *ResolverImpl) resolveUncached(ctx context.Context, u user.User, action tolerance.Action, date time.Time, fallback tolerance.Result) tolerance.Result {
	weekend := isWeekend(date)

	// 3-5. Settings by narrowing scope. The repository orders by
	// priority, so the first row wins within a scope. A settings-store
	// failure degrades to the next layer rather than failing the
	// validation.
	layers := []struct {
		scope  tolerance.Scope
		value  string
		source string
	}{
		{tolerance.ScopeUser, u.ID, tolerance.SourceUserSetting},
		{tolerance.ScopeRole, string(u.Role), tolerance.SourceRoleSetting},
		{tolerance.ScopeGlobal, "", tolerance.SourceGlobalSetting},
	}

	for _, layer := range layers {
		settings, err := r.settingRepo.GetActiveByScope(ctx, layer.scope, layer.value)
		if err != nil {
			slog.Warn("tolerance settings lookup failed, trying next layer",
				"scope", layer.scope, "scope_value", layer.value, "error", err)
			continue
		}
		if len(settings) == 0 {
			continue
		}
		s := settings[0]
		early, late := settingWindow(s, action, weekend)
		return tolerance.Result{
			EarlyMinutes: early,
			LateMinutes:  late,
			Source:       layer.source,
			SourceID:     s.ID,
		}
	}

	// 6. Work-location fallback fields.
	if loc, err := r.locationRepo.GetForUser(ctx, u.ID); err == nil {
		if result, ok := locationWindow(loc, action); ok {
			return result
		}
	}

	// 7. Hard default. Always terminates with a value.
	return fallback
}

func overrideResult(o *tolerance.Override, action tolerance.Action, fallback tolerance.Result) tolerance.Result {
	result := tolerance.Result{
		EarlyMinutes: fallback.EarlyMinutes,
		LateMinutes:  fallback.LateMinutes,
		Source:       tolerance.SourceOverride,
		SourceID:     o.IssuedBy,
	}
	switch action {
	case tolerance.ActionCheckIn:
		if o.CheckinEarlyMinutes != nil {
			result.EarlyMinutes = *o.CheckinEarlyMinutes
		}
		if o.CheckinLateMinutes != nil {
			result.LateMinutes = *o.CheckinLateMinutes
		}
	case tolerance.ActionCheckOut:
		if o.CheckoutEarlyMinutes != nil {
			result.EarlyMinutes = *o.CheckoutEarlyMinutes
		}
		if o.CheckoutLateMinutes != nil {
			result.LateMinutes = *o.CheckoutLateMinutes
		}
	}
	return result
}

func settingWindow(s tolerance.ToleranceSetting, action tolerance.Action, weekend bool) (early, late int) {
	switch action {
	case tolerance.ActionCheckIn:
		early, late = s.CheckinEarlyMinutes, s.CheckinLateMinutes
		if weekend {
			if s.WeekendCheckinEarlyMinutes != nil {
				early = *s.WeekendCheckinEarlyMinutes
			}
			if s.WeekendCheckinLateMinutes != nil {
				late = *s.WeekendCheckinLateMinutes
			}
		}
		// Gerbang boolean menimpa nilai menit: tanpa izin datang awal,
		// check-in baru dibuka tepat di jam shift.
		if !s.AllowEarlyCheckin {
			early = 0
		}
	case tolerance.ActionCheckOut:
		early, late = s.CheckoutEarlyMinutes, s.CheckoutLateMinutes
		if weekend {
			if s.WeekendCheckoutEarlyMinutes != nil {
				early = *s.WeekendCheckoutEarlyMinutes
			}
			if s.WeekendCheckoutLateMinutes != nil {
				late = *s.WeekendCheckoutLateMinutes
			}
		}
		if !s.AllowLateCheckout {
			late = 0
		}
	}
	return early, late
}

// locationWindow reads tolerance values off the work location: the
// nested settings blob takes priority over the flat columns.
func locationWindow(loc worklocation.WorkLocation, action tolerance.Action) (tolerance.Result, bool) {
	var early, late *int

	if nested := loc.ToleranceSettings; nested != nil {
		switch action {
		case tolerance.ActionCheckIn:
			early, late = nested.CheckinEarlyMinutes, nested.CheckinLateMinutes
		case tolerance.ActionCheckOut:
			early, late = nested.CheckoutEarlyMinutes, nested.CheckoutLateMinutes
		}
	}

	// Sisi yang tidak diisi blob dilengkapi dari kolom flat, jadi blob
	// parsial tidak menggugurkan lokasi dari rantai resolusi.
	switch action {
	case tolerance.ActionCheckIn:
		if early == nil {
			early = loc.CheckinEarlyMinutes
		}
		if late == nil {
			late = loc.CheckinLateMinutes
		}
	case tolerance.ActionCheckOut:
		if early == nil {
			early = loc.CheckoutEarlyMinutes
		}
		if late == nil {
			late = loc.CheckoutLateMinutes
		}
	}

	if early == nil || late == nil {
		return tolerance.Result{}, false
	}
	return tolerance.Result{
		EarlyMinutes: *early,
		LateMinutes:  *late,
		Source:       tolerance.SourceWorkLocation,
		SourceID:     loc.ID,
	}, true
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Invalidate implements tolerance.Resolver. Called after settings edits
// so in-flight requests pick up new values within the TTL at worst.
func (r *ResolverImpl) Invalidate(ctx context.Context, userID string) error {
	date := time.Now().Format("2006-01-02")
	for _, tier := range []string{tolerance.SourceDefault, tolerance.SourceDefaultSchedule} {
		for _, action := range []tolerance.Action{tolerance.ActionCheckIn, tolerance.ActionCheckOut} {
			if err := r.store.Forget(ctx, resolvedKey(tier, userID, action, date)); err != nil {
				return fmt.Errorf("invalidate tolerance cache for %s: %w", userID, err)
			}
		}
	}
	return nil
}

// IssueOverride implements tolerance.Resolver. The override expires at
// the end of the day it names.
func (r *ResolverImpl) IssueOverride(ctx context.Context, o tolerance.Override) error {
	ttl, err := ttlUntilEndOfDay(o.Date)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, overrideKey(o.UserID, o.Date), o, ttl); err != nil {
		return fmt.Errorf("store tolerance override: %w", err)
	}
	slog.Info("tolerance override issued",
		"user_id", o.UserID, "date", o.Date, "issued_by", o.IssuedBy, "reason", o.Reason)
	return nil
}

// ActiveOverride implements tolerance.Resolver.
func (r *ResolverImpl) ActiveOverride(ctx context.Context, userID string, date time.Time) (*tolerance.Override, error) {
	var o tolerance.Override
	found, err := r.store.Get(ctx, overrideKey(userID, date.Format("2006-01-02")), &o)
	if err != nil || !found {
		return nil, err
	}
	return &o, nil
}

// IssueGeofenceOverride implements tolerance.Resolver.
func (r *ResolverImpl) IssueGeofenceOverride(ctx context.Context, o tolerance.GeofenceOverride) error {
	ttl, err := ttlUntilEndOfDay(o.Date)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, geofenceOverrideKey(o.UserID, o.Date), o, ttl); err != nil {
		return fmt.Errorf("store geofence override: %w", err)
	}
	slog.Info("geofence override issued",
		"user_id", o.UserID, "date", o.Date, "issued_by", o.IssuedBy, "reason", o.Reason)
	return nil
}

// ActiveGeofenceOverride implements tolerance.Resolver.
func (r *ResolverImpl) ActiveGeofenceOverride(ctx context.Context, userID string, date time.Time) (*tolerance.GeofenceOverride, error) {
	var o tolerance.GeofenceOverride
	found, err := r.store.Get(ctx, geofenceOverrideKey(userID, date.Format("2006-01-02")), &o)
	if err != nil || !found {
		return nil, err
	}
	return &o, nil
}

func ttlUntilEndOfDay(date string) (time.Duration, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid override date %q: %w", date, err)
	}
	endOfDay := day.AddDate(0, 0, 1)
	ttl := time.Until(endOfDay)
	if ttl <= 0 {
		return 0, fmt.Errorf("override date %q has already passed", date)
	}
	return ttl, nil
}

func (r *ResolverImpl) logResolution(userID string, action tolerance.Action, date string, result tolerance.Result) {
	slog.Info("tolerance resolved",
		"user_id", userID,
		"action", action,
		"date", date,
		"early_minutes", result.EarlyMinutes,
		"late_minutes", result.LateMinutes,
		"source", result.Source,
		"source_id", result.SourceID,
	)
}
