package tolerance

import "time"

// Action distinguishes which attendance boundary a tolerance applies to.
type Action string

const (
	ActionCheckIn  Action = "checkin"
	ActionCheckOut Action = "checkout"
)

type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRole   Scope = "role"
	ScopeUser   Scope = "user"
)

// ToleranceSetting is an admin-managed tolerance rule. Multiple rows may
// match a user; the resolver takes the lowest Priority among active rows
// of the narrowest matching scope.
type ToleranceSetting struct {
	ID         string
	Scope      Scope
	ScopeValue string // role name or user id; empty for global
	Priority   int
	IsActive   bool

	CheckinEarlyMinutes  int
	CheckinLateMinutes   int
	CheckoutEarlyMinutes int
	CheckoutLateMinutes  int

	// Weekend variants; nil means the weekday value also applies on
	// Saturday/Sunday and public holidays.
	WeekendCheckinEarlyMinutes  *int
	WeekendCheckinLateMinutes   *int
	WeekendCheckoutEarlyMinutes *int
	WeekendCheckoutLateMinutes  *int

	AllowEarlyCheckin bool
	AllowLateCheckout bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Override is a day-scoped, admin-issued tolerance exception for one
// user. It lives in the TTL store, not the database, and expires at the
// end of the day it was issued for. When present it wins over every
// other resolution layer.
type Override struct {
	UserID               string    `json:"user_id"`
	Date                 string    `json:"date"` // YYYY-MM-DD
	CheckinEarlyMinutes  *int      `json:"checkin_early_minutes,omitempty"`
	CheckinLateMinutes   *int      `json:"checkin_late_minutes,omitempty"`
	CheckoutEarlyMinutes *int      `json:"checkout_early_minutes,omitempty"`
	CheckoutLateMinutes  *int      `json:"checkout_late_minutes,omitempty"`
	Reason               string    `json:"reason"`
	IssuedBy             string    `json:"issued_by"`
	IssuedAt             time.Time `json:"issued_at"`
}

// GeofenceOverride bypasses location validation for one user for one
// day. Also store-backed and day-scoped.
type GeofenceOverride struct {
	UserID   string    `json:"user_id"`
	Date     string    `json:"date"`
	Reason   string    `json:"reason"`
	IssuedBy string    `json:"issued_by"`
	IssuedAt time.Time `json:"issued_at"`
}

// Result is a fully resolved tolerance window for one user+action+date.
// Source records which resolution layer produced the values, for audit.
type Result struct {
	EarlyMinutes int    `json:"early_minutes"`
	LateMinutes  int    `json:"late_minutes"`
	Source       string `json:"source"`
	SourceID     string `json:"source_id,omitempty"`
}

// Resolution sources, in priority order.
const (
	SourceOverride        = "override"
	SourceUserSetting     = "user_setting"
	SourceRoleSetting     = "role_setting"
	SourceGlobalSetting   = "global_setting"
	SourceWorkLocation    = "work_location"
	SourceDefault         = "default"
	SourceDefaultSchedule = "default_schedule"
)
