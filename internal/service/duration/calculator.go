package duration

import (
	"fmt"

	"github.com/klinika-hris/attendance-backend-go/internal/pkg/timeparse"
)

const minutesPerDay = 1440

// Policy flags attached to a calculation result.
const (
	FlagEarlyCheckinIgnored   = "early-checkin-ignored"
	FlagLateCheckoutIgnored   = "late-checkout-ignored"
	FlagOvernightShift        = "overnight-shift"
	FlagCheckoutBeforeCheckin = "checkout-before-checkin"
)

// Interval is a break window inside a shift.
type Interval struct {
	Start timeparse.TimeOfDay
	End   timeparse.TimeOfDay
}

// Input for one shift's effective-duration calculation. Nil time fields
// produce an error result, never a panic.
type Input struct {
	CheckIn    *timeparse.TimeOfDay
	CheckOut   *timeparse.TimeOfDay
	ShiftStart *timeparse.TimeOfDay
	ShiftEnd   *timeparse.TimeOfDay

	// Breaks are subtracted where they overlap the effective window.
	Breaks []Interval

	// ConfiguredBreakMinutes is the template's nominal break length,
	// subtracted from the scheduled duration regardless of overlap.
	ConfiguredBreakMinutes int
}

// Result of an effective-duration calculation. All minute values are
// guaranteed non-negative.
type Result struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message,omitempty"`

	EffectiveStartMinutes int      `json:"effective_start_minutes"`
	EffectiveEndMinutes   int      `json:"effective_end_minutes"`
	RawMinutes            int      `json:"raw_minutes"`
	BreakOverlapMinutes   int      `json:"break_overlap_minutes"`
	FinalMinutes          int      `json:"final_minutes"`
	ScheduledMinutes      int      `json:"scheduled_minutes"`
	ShortageMinutes       int      `json:"shortage_minutes"`
	AttendancePercentage  float64  `json:"attendance_percentage"`
	Flags                 []string `json:"flags,omitempty"`
}

// DaySummary aggregates multiple shift calculations for one day.
type DaySummary struct {
	TotalFinalMinutes     int     `json:"total_final_minutes"`
	TotalScheduledMinutes int     `json:"total_scheduled_minutes"`
	TotalShortageMinutes  int     `json:"total_shortage_minutes"`
	AttendancePercentage  float64 `json:"attendance_percentage"`
	ShiftCount            int     `json:"shift_count"`
}

// Calculator computes shift-clamped worked time. Pure and stateless;
// safe for concurrent use.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

func errorResult(msg string) Result {
	return Result{Error: true, ErrorMessage: msg}
}

// Calculate computes the effective worked window for one shift.
//
// All arithmetic is in minutes since midnight. A shift whose end is
// before its start is an overnight shift: its end gains a day, and a
// checkout before noon is assumed to have happened the next calendar
// day. Punches outside the shift window are clamped, so early arrival
// and late departure never add worked time.
func (c *Calculator) Calculate(in Input) Result {
	switch {
	case in.CheckIn == nil:
		return errorResult("check-in time is missing")
	case in.CheckOut == nil:
		return errorResult("check-out time is missing")
	case in.ShiftStart == nil:
		return errorResult("shift start time is missing")
	case in.ShiftEnd == nil:
		return errorResult("shift end time is missing")
	}

	checkIn := in.CheckIn.MinutesSinceMidnight()
	checkOut := in.CheckOut.MinutesSinceMidnight()
	shiftStart := in.ShiftStart.MinutesSinceMidnight()
	shiftEnd := in.ShiftEnd.MinutesSinceMidnight()

	var flags []string

	// Shift malam: end sebelum start berarti lewat tengah malam.
	overnight := shiftEnd < shiftStart
	if overnight {
		shiftEnd += minutesPerDay
		flags = append(flags, FlagOvernightShift)

		// A checkout before noon belongs to the next calendar day.
		if checkOut < 12*60 {
			checkOut += minutesPerDay
		}
	}

	effectiveStart := checkIn
	if effectiveStart < shiftStart {
		effectiveStart = shiftStart
		flags = append(flags, FlagEarlyCheckinIgnored)
	}

	effectiveEnd := checkOut
	if effectiveEnd > shiftEnd {
		effectiveEnd = shiftEnd
		flags = append(flags, FlagLateCheckoutIgnored)
	}

	rawMinutes := effectiveEnd - effectiveStart
	if rawMinutes < 0 {
		rawMinutes = 0
		flags = append(flags, FlagCheckoutBeforeCheckin)
	}

	breakOverlap := 0
	if rawMinutes > 0 {
		for _, br := range in.Breaks {
			breakOverlap += overlapMinutes(br, effectiveStart, effectiveEnd)
		}
	}

	finalMinutes := rawMinutes - breakOverlap
	if finalMinutes < 0 {
		finalMinutes = 0
	}

	scheduledMinutes := shiftEnd - shiftStart - in.ConfiguredBreakMinutes
	if scheduledMinutes < 0 {
		scheduledMinutes = 0
	}

	shortageMinutes := scheduledMinutes - finalMinutes
	if shortageMinutes < 0 {
		shortageMinutes = 0
	}

	percentage := 0.0
	if scheduledMinutes > 0 {
		percentage = float64(finalMinutes) / float64(scheduledMinutes) * 100
	}

	return Result{
		EffectiveStartMinutes: effectiveStart,
		EffectiveEndMinutes:   effectiveEnd,
		RawMinutes:            rawMinutes,
		BreakOverlapMinutes:   breakOverlap,
		FinalMinutes:          finalMinutes,
		ScheduledMinutes:      scheduledMinutes,
		ShortageMinutes:       shortageMinutes,
		AttendancePercentage:  percentage,
		Flags:                 flags,
	}
}

// overlapMinutes computes how much of a break interval falls inside
// [effectiveStart, effectiveEnd]. A break whose end precedes its start
// wraps past midnight and gains a day, like overnight shifts.
func overlapMinutes(br Interval, effectiveStart, effectiveEnd int) int {
	breakStart := br.Start.MinutesSinceMidnight()
	breakEnd := br.End.MinutesSinceMidnight()
	if breakEnd < breakStart {
		breakEnd += minutesPerDay
	}

	// The effective window may itself extend past 1440 on overnight
	// shifts; try the break in both day positions and take the larger
	// overlap.
	best := clippedOverlap(breakStart, breakEnd, effectiveStart, effectiveEnd)
	if alt := clippedOverlap(breakStart+minutesPerDay, breakEnd+minutesPerDay, effectiveStart, effectiveEnd); alt > best {
		best = alt
	}
	return best
}

func clippedOverlap(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// AggregateDay sums shift calculations for one multi-shift day. Error
// results are skipped; they carry no minutes.
func (c *Calculator) AggregateDay(results []Result) DaySummary {
	summary := DaySummary{}
	for _, r := range results {
		if r.Error {
			continue
		}
		summary.TotalFinalMinutes += r.FinalMinutes
		summary.TotalScheduledMinutes += r.ScheduledMinutes
		summary.TotalShortageMinutes += r.ShortageMinutes
		summary.ShiftCount++
	}
	if summary.TotalScheduledMinutes > 0 {
		summary.AttendancePercentage = float64(summary.TotalFinalMinutes) / float64(summary.TotalScheduledMinutes) * 100
	}
	return summary
}

// CalculateFromStrings is a convenience wrapper for callers holding raw
// shift-time strings; parse failures become error results.
func (c *Calculator) CalculateFromStrings(checkIn, checkOut, shiftStart, shiftEnd string, breaks []Interval, configuredBreakMinutes int) Result {
	parse := func(label, value string) (*timeparse.TimeOfDay, error) {
		if value == "" {
			return nil, nil
		}
		tod, err := timeparse.ParseTimeOfDay(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		return &tod, nil
	}

	in := Input{Breaks: breaks, ConfiguredBreakMinutes: configuredBreakMinutes}
	var err error
	if in.CheckIn, err = parse("check-in", checkIn); err != nil {
		return errorResult(err.Error())
	}
	if in.CheckOut, err = parse("check-out", checkOut); err != nil {
		return errorResult(err.Error())
	}
	if in.ShiftStart, err = parse("shift start", shiftStart); err != nil {
		return errorResult(err.Error())
	}
	if in.ShiftEnd, err = parse("shift end", shiftEnd); err != nil {
		return errorResult(err.Error())
	}
	return c.Calculate(in)
}
