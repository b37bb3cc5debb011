package attendance

// Validation result codes. Stable machine-readable identifiers; clients
// and tests branch on these, never on the message text.
const (
	CodeAlreadyCheckedIn     = "ALREADY_CHECKED_IN"
	CodeNoSchedule           = "NO_SCHEDULE"
	CodeNoAvailableShift     = "NO_AVAILABLE_SHIFT"
	CodeAllShiftsCompleted   = "ALL_SHIFTS_COMPLETED"
	CodeTooEarly             = "TOO_EARLY"
	CodeTooLate              = "TOO_LATE"
	CodeValid                = "VALID"
	CodeValidButLate         = "VALID_BUT_LATE"
	CodeOutsideWorkArea      = "OUTSIDE_WORK_AREA"
	CodeGPSNotAccurate       = "GPS_NOT_ACCURATE"
	CodeNotCheckedIn         = "NOT_CHECKED_IN"
	CodeCheckoutTooEarly     = "CHECKOUT_TOO_EARLY"
	CodeCheckoutVeryLate     = "CHECKOUT_VERY_LATE"
	CodeValidCheckout        = "VALID_CHECKOUT"
	CodeAdminOverrideActive  = "ADMIN_OVERRIDE_ACTIVE"
	CodeWorkLocationInactive = "WORK_LOCATION_INACTIVE"
	CodeUserNotAllowed       = "USER_NOT_ALLOWED"
)

// ValidationResult is the structured outcome of a check-in or check-out
// attempt. Rejections are results, not errors: Valid=false plus a code,
// a human-readable message with concrete numbers, and a diagnostic Data
// bag (window bounds, distances, minute deltas).
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Reject builds a failed result.
func Reject(code, message string, data map[string]any) ValidationResult {
	return ValidationResult{Valid: false, Code: code, Message: message, Data: data}
}

// Accept builds a passing result.
func Accept(code, message string, data map[string]any) ValidationResult {
	return ValidationResult{Valid: true, Code: code, Message: message, Data: data}
}
