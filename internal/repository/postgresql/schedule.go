package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/database"
)

type shiftTemplateRepository struct {
	db *database.DB
}

func NewShiftTemplateRepository(db *database.DB) schedule.ShiftTemplateRepository {
	return &shiftTemplateRepository{db: db}
}

// GetByID implements schedule.ShiftTemplateRepository.
func (r *shiftTemplateRepository) GetByID(ctx context.Context, id string) (schedule.ShiftTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, start_time, end_time, break_duration_minutes,
			   break_start, break_end, created_at, updated_at
		FROM shift_templates
		WHERE id = $1
	`

	var t schedule.ShiftTemplate
	err := q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.StartTime, &t.EndTime, &t.BreakDurationMinutes,
		&t.BreakStart, &t.BreakEnd, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ShiftTemplate{}, schedule.ErrShiftTemplateNotFound
		}
		return schedule.ShiftTemplate{}, fmt.Errorf("failed to get shift template: %w", err)
	}

	return t, nil
}

type scheduleAssignmentRepository struct {
	db *database.DB
}

func NewScheduleAssignmentRepository(db *database.DB) schedule.ScheduleAssignmentRepository {
	return &scheduleAssignmentRepository{db: db}
}

const assignmentSelect = `
	SELECT sa.id, sa.user_id, sa.date, sa.shift_template_id, sa.status,
		   sa.sequence_number, sa.custom_start, sa.custom_end, sa.work_location_id,
		   sa.created_at, sa.updated_at,
		   st.id, st.name, st.start_time, st.end_time, st.break_duration_minutes,
		   st.break_start, st.break_end
	FROM schedule_assignments sa
	LEFT JOIN shift_templates st ON st.id = sa.shift_template_id
`

func scanAssignment(row pgx.Row) (schedule.ScheduleAssignment, error) {
	var (
		a schedule.ScheduleAssignment

		// Template join datang dari LEFT JOIN, semua kolomnya nullable.
		tmplID, tmplName, tmplStart, tmplEnd *string
		tmplBreakMinutes                     *int
		tmplBreakStart, tmplBreakEnd         *string
	)

	err := row.Scan(
		&a.ID, &a.UserID, &a.Date, &a.ShiftTemplateID, &a.Status,
		&a.SequenceNumber, &a.CustomStart, &a.CustomEnd, &a.WorkLocationID,
		&a.CreatedAt, &a.UpdatedAt,
		&tmplID, &tmplName, &tmplStart, &tmplEnd, &tmplBreakMinutes,
		&tmplBreakStart, &tmplBreakEnd,
	)
	if err != nil {
		return schedule.ScheduleAssignment{}, err
	}

	if tmplID != nil {
		t := schedule.ShiftTemplate{
			ID:         *tmplID,
			BreakStart: tmplBreakStart,
			BreakEnd:   tmplBreakEnd,
		}
		if tmplName != nil {
			t.Name = *tmplName
		}
		if tmplStart != nil {
			t.StartTime = *tmplStart
		}
		if tmplEnd != nil {
			t.EndTime = *tmplEnd
		}
		if tmplBreakMinutes != nil {
			t.BreakDurationMinutes = *tmplBreakMinutes
		}
		a.Template = &t
	}

	return a, nil
}

// GetByUserAndDate implements schedule.ScheduleAssignmentRepository.
func (r *scheduleAssignmentRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) ([]schedule.ScheduleAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + `
	WHERE sa.user_id = $1 AND sa.date = $2
	ORDER BY sa.sequence_number ASC
	`

	rows, err := q.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule assignments: %w", err)
	}
	defer rows.Close()

	var assignments []schedule.ScheduleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// GetByID implements schedule.ScheduleAssignmentRepository.
func (r *scheduleAssignmentRepository) GetByID(ctx context.Context, id string) (schedule.ScheduleAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + ` WHERE sa.id = $1`

	a, err := scanAssignment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ScheduleAssignment{}, schedule.ErrAssignmentNotFound
		}
		return schedule.ScheduleAssignment{}, fmt.Errorf("failed to get schedule assignment: %w", err)
	}

	return a, nil
}

// MarkCompleted implements schedule.ScheduleAssignmentRepository.
func (r *scheduleAssignmentRepository) MarkCompleted(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE schedule_assignments
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, schedule.StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark assignment completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrAssignmentNotFound
	}

	return nil
}
