package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	id, user_id, date, schedule_assignment_id,
	time_in, time_out, logical_time_in, logical_time_out, logical_work_minutes,
	latitude, longitude, metadata,
	created_at, updated_at
`

func scanAttendance(row pgx.Row) (attendance.AttendanceRecord, error) {
	var r attendance.AttendanceRecord
	err := row.Scan(
		&r.ID, &r.UserID, &r.Date, &r.ScheduleAssignmentID,
		&r.TimeIn, &r.TimeOut, &r.LogicalTimeIn, &r.LogicalTimeOut, &r.LogicalWorkMinutes,
		&r.Latitude, &r.Longitude, &r.Metadata,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create implements attendance.AttendanceRepository. Index unik parsial
// `(user_id) WHERE time_out IS NULL` menolak sesi terbuka kedua, jadi
// dua check-in bersamaan tidak mungkin dua-duanya berhasil.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, user_id, date, schedule_assignment_id,
			time_in, logical_time_in, latitude, longitude, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.ID, record.UserID, record.Date, record.ScheduleAssignmentID,
		record.TimeIn, record.LogicalTimeIn, record.Latitude, record.Longitude, record.Metadata,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return attendance.AttendanceRecord{}, attendance.ErrDuplicateOpenSession
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`

	record, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return record, nil
}

// GetOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSession(ctx context.Context, userID string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE user_id = $1
		  AND time_out IS NULL
		ORDER BY time_in DESC
		LIMIT 1
	`

	record, err := scanAttendance(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return record, nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE user_id = $1
		  AND date = $2
		ORDER BY time_in ASC
	`

	rows, err := q.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.AttendanceRecord) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET time_out = $2,
			logical_time_out = $3,
			logical_work_minutes = $4,
			metadata = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		record.ID, record.TimeOut, record.LogicalTimeOut, record.LogicalWorkMinutes, record.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// GetStaleOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetStaleOpenSessions(ctx context.Context, before time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE time_out IS NULL
		  AND time_in < $1
		ORDER BY time_in ASC
	`

	rows, err := q.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale open sessions: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// AutoClose implements attendance.AttendanceRepository. Update optimis:
// hanya jika masih terbuka, supaya tidak balapan dengan checkout asli.
func (a *attendanceRepository) AutoClose(ctx context.Context, id string, timeOut time.Time, logicalWorkMinutes int, metadata map[string]any) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET time_out = $2,
			logical_work_minutes = $3,
			metadata = COALESCE(metadata, '{}'::jsonb) || $4,
			updated_at = NOW()
		WHERE id = $1
		  AND time_out IS NULL
	`

	tag, err := q.Exec(ctx, query, id, timeOut, logicalWorkMinutes, metadata)
	if err != nil {
		return false, fmt.Errorf("failed to auto-close attendance record: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

type violationRepository struct {
	db *database.DB
}

func NewViolationRepository(db *database.DB) attendance.ViolationRepository {
	return &violationRepository{db: db}
}

// Create implements attendance.ViolationRepository.
func (v *violationRepository) Create(ctx context.Context, violation attendance.AttendanceViolation) (attendance.AttendanceViolation, error) {
	q := GetQuerier(ctx, v.db)

	query := `
		INSERT INTO attendance_violations (
			id, user_id, attendance_record_id, violation_type,
			violation_minutes, severity, is_emergency_override
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		violation.ID, violation.UserID, violation.AttendanceRecordID, violation.ViolationType,
		violation.ViolationMinutes, violation.Severity, violation.IsEmergencyOverride,
	).Scan(&violation.CreatedAt)
	if err != nil {
		return attendance.AttendanceViolation{}, fmt.Errorf("failed to create attendance violation: %w", err)
	}

	return violation, nil
}

// ListByUser implements attendance.ViolationRepository.
func (v *violationRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]attendance.AttendanceViolation, error) {
	q := GetQuerier(ctx, v.db)

	query := `
		SELECT id, user_id, attendance_record_id, violation_type,
			   violation_minutes, severity, is_emergency_override, created_at
		FROM attendance_violations
		WHERE user_id = $1
		  AND created_at >= $2
		  AND created_at < $3
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance violations: %w", err)
	}
	defer rows.Close()

	var violations []attendance.AttendanceViolation
	for rows.Next() {
		var item attendance.AttendanceViolation
		err := rows.Scan(
			&item.ID, &item.UserID, &item.AttendanceRecordID, &item.ViolationType,
			&item.ViolationMinutes, &item.Severity, &item.IsEmergencyOverride, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance violation: %w", err)
		}
		violations = append(violations, item)
	}

	return violations, rows.Err()
}
