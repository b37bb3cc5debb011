package schedule

import "time"

// ShiftTemplate defines the reusable time window of a shift ("jaga").
// StartTime/EndTime are stored as strings because historical rows carry
// three formats: "15:04", "15:04:05", or a full datetime. They are
// normalized with timeparse.ParseTimeOfDay before any arithmetic.
// Templates are referenced by assignments and never mutated by the engine.
type ShiftTemplate struct {
	ID                   string
	Name                 string
	StartTime            string
	EndTime              string
	BreakDurationMinutes int
	BreakStart           *string // optional explicit break window
	BreakEnd             *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type AssignmentStatus string

const (
	StatusActive    AssignmentStatus = "active"
	StatusLeave     AssignmentStatus = "leave"
	StatusOnCall    AssignmentStatus = "oncall"
	StatusCompleted AssignmentStatus = "completed"
)

// ScheduleAssignment is one user's shift on one date ("jadwal jaga").
// Created by the scheduling workflow ahead of the work date; read-only
// to the validation engine. SequenceNumber orders multi-shift days.
type ScheduleAssignment struct {
	ID              string
	UserID          string
	Date            time.Time
	ShiftTemplateID *string
	Status          AssignmentStatus
	SequenceNumber  int
	CustomStart     *string // override template start, same formats
	CustomEnd       *string
	WorkLocationID  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Join
	Template *ShiftTemplate
}

// EffectiveStart returns the assignment's start-time string, preferring
// the per-assignment override over the template.
func (a *ScheduleAssignment) EffectiveStart() string {
	if a.CustomStart != nil && *a.CustomStart != "" {
		return *a.CustomStart
	}
	if a.Template != nil {
		return a.Template.StartTime
	}
	return ""
}

func (a *ScheduleAssignment) EffectiveEnd() string {
	if a.CustomEnd != nil && *a.CustomEnd != "" {
		return *a.CustomEnd
	}
	if a.Template != nil {
		return a.Template.EndTime
	}
	return ""
}
