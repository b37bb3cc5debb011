package tolerance

import (
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/pkg/validator"
)

type UpsertSettingRequest struct {
	Scope      string `json:"scope"`
	ScopeValue string `json:"scope_value"`
	Priority   int    `json:"priority"`
	IsActive   bool   `json:"is_active"`

	CheckinEarlyMinutes  int `json:"checkin_early_minutes"`
	CheckinLateMinutes   int `json:"checkin_late_minutes"`
	CheckoutEarlyMinutes int `json:"checkout_early_minutes"`
	CheckoutLateMinutes  int `json:"checkout_late_minutes"`

	WeekendCheckinEarlyMinutes  *int `json:"weekend_checkin_early_minutes,omitempty"`
	WeekendCheckinLateMinutes   *int `json:"weekend_checkin_late_minutes,omitempty"`
	WeekendCheckoutEarlyMinutes *int `json:"weekend_checkout_early_minutes,omitempty"`
	WeekendCheckoutLateMinutes  *int `json:"weekend_checkout_late_minutes,omitempty"`

	AllowEarlyCheckin bool `json:"allow_early_checkin"`
	AllowLateCheckout bool `json:"allow_late_checkout"`
}

func (r *UpsertSettingRequest) Validate() error {
	var errs validator.ValidationErrors

	switch Scope(r.Scope) {
	case ScopeGlobal, ScopeRole, ScopeUser:
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "scope",
			Message: "scope must be one of: global, role, user",
		})
	}

	if Scope(r.Scope) != ScopeGlobal && validator.IsEmpty(r.ScopeValue) {
		errs = append(errs, validator.ValidationError{
			Field:   "scope_value",
			Message: "scope_value is required for role and user scopes",
		})
	}

	for field, v := range map[string]int{
		"checkin_early_minutes":  r.CheckinEarlyMinutes,
		"checkin_late_minutes":   r.CheckinLateMinutes,
		"checkout_early_minutes": r.CheckoutEarlyMinutes,
		"checkout_late_minutes":  r.CheckoutLateMinutes,
	} {
		if v < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must not be negative",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToSetting maps the request onto a ToleranceSetting row.
func (r *UpsertSettingRequest) ToSetting() ToleranceSetting {
	return ToleranceSetting{
		Scope:      Scope(r.Scope),
		ScopeValue: r.ScopeValue,
		Priority:   r.Priority,
		IsActive:   r.IsActive,

		CheckinEarlyMinutes:  r.CheckinEarlyMinutes,
		CheckinLateMinutes:   r.CheckinLateMinutes,
		CheckoutEarlyMinutes: r.CheckoutEarlyMinutes,
		CheckoutLateMinutes:  r.CheckoutLateMinutes,

		WeekendCheckinEarlyMinutes:  r.WeekendCheckinEarlyMinutes,
		WeekendCheckinLateMinutes:   r.WeekendCheckinLateMinutes,
		WeekendCheckoutEarlyMinutes: r.WeekendCheckoutEarlyMinutes,
		WeekendCheckoutLateMinutes:  r.WeekendCheckoutLateMinutes,

		AllowEarlyCheckin: r.AllowEarlyCheckin,
		AllowLateCheckout: r.AllowLateCheckout,
	}
}

type OverrideRequest struct {
	UserID               string `json:"user_id"`
	Date                 string `json:"date"` // YYYY-MM-DD, default hari ini
	CheckinEarlyMinutes  *int   `json:"checkin_early_minutes,omitempty"`
	CheckinLateMinutes   *int   `json:"checkin_late_minutes,omitempty"`
	CheckoutEarlyMinutes *int   `json:"checkout_early_minutes,omitempty"`
	CheckoutLateMinutes  *int   `json:"checkout_late_minutes,omitempty"`
	Reason               string `json:"reason"`
}

func (r *OverrideRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
		}
	}
	if r.CheckinEarlyMinutes == nil && r.CheckinLateMinutes == nil &&
		r.CheckoutEarlyMinutes == nil && r.CheckoutLateMinutes == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "checkin_early_minutes",
			Message: "at least one tolerance value is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToOverride maps the request onto an Override, defaulting Date to now.
func (r *OverrideRequest) ToOverride(issuedBy string, now time.Time) Override {
	date := r.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	return Override{
		UserID:               r.UserID,
		Date:                 date,
		CheckinEarlyMinutes:  r.CheckinEarlyMinutes,
		CheckinLateMinutes:   r.CheckinLateMinutes,
		CheckoutEarlyMinutes: r.CheckoutEarlyMinutes,
		CheckoutLateMinutes:  r.CheckoutLateMinutes,
		Reason:               r.Reason,
		IssuedBy:             issuedBy,
		IssuedAt:             now,
	}
}

type GeofenceOverrideRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func (r *GeofenceOverrideRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *GeofenceOverrideRequest) ToOverride(issuedBy string, now time.Time) GeofenceOverride {
	date := r.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	return GeofenceOverride{
		UserID:   r.UserID,
		Date:     date,
		Reason:   r.Reason,
		IssuedBy: issuedBy,
		IssuedAt: now,
	}
}
