package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
)

// AttendanceJobs wires the penalty sweep into the scheduler.
type AttendanceJobs struct {
	sweeper attendance.PenaltySweeper
}

func NewAttendanceJobs(sweeper attendance.PenaltySweeper) *AttendanceJobs {
	return &AttendanceJobs{sweeper: sweeper}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	scheduler.AddJob("sweep_stale_attendance_sessions", interval, j.SweepStaleSessions)
}

// SweepStaleSessions closes open sessions whose checkout deadline has
// passed. Satu record per iterasi, aman dijalankan berulang.
func (j *AttendanceJobs) SweepStaleSessions(ctx context.Context) error {
	closed, err := j.sweeper.SweepStaleSessions(ctx, time.Now())
	if err != nil {
		return err
	}
	if closed > 0 {
		slog.Info("Cron: closed stale attendance sessions", "count", closed)
	}
	return nil
}
