package schedule

import "errors"

var (
	ErrNoSchedule            = errors.New("no schedule assignment for this date")
	ErrAllShiftsCompleted    = errors.New("all shifts for this date are already completed")
	ErrNoAvailableShift      = errors.New("no shift is available for check-in right now")
	ErrShiftTemplateNotFound = errors.New("shift template not found")
	ErrAssignmentNotFound    = errors.New("schedule assignment not found")
)
