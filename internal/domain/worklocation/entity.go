package worklocation

import "time"

// LocationToleranceSettings is the nested tolerance blob stored as JSONB
// on the work_locations row. When present it takes priority over the
// flat per-column values below.
type LocationToleranceSettings struct {
	CheckinEarlyMinutes  *int `json:"checkin_early_minutes,omitempty"`
	CheckinLateMinutes   *int `json:"checkin_late_minutes,omitempty"`
	CheckoutEarlyMinutes *int `json:"checkout_early_minutes,omitempty"`
	CheckoutLateMinutes  *int `json:"checkout_late_minutes,omitempty"`
}

type WorkLocation struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	IsActive     bool

	// Tolerance fallback: nested blob first, then the flat columns.
	ToleranceSettings    *LocationToleranceSettings
	CheckinEarlyMinutes  *int
	CheckinLateMinutes   *int
	CheckoutEarlyMinutes *int
	CheckoutLateMinutes  *int

	CreatedAt time.Time
	UpdatedAt time.Time
}
