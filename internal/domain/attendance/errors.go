package attendance

import "errors"

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// ErrDuplicateOpenSession is surfaced by the repository when the
	// partial unique index rejects a second open session for the same
	// user. The engine maps it to ALREADY_CHECKED_IN.
	ErrDuplicateOpenSession = errors.New("an open attendance session already exists")
)
