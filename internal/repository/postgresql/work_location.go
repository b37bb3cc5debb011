package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/worklocation"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/database"
)

type workLocationRepository struct {
	db *database.DB
}

func NewWorkLocationRepository(db *database.DB) worklocation.WorkLocationRepository {
	return &workLocationRepository{db: db}
}

const workLocationColumns = `
	id, name, latitude, longitude, radius_meters, is_active,
	tolerance_settings,
	checkin_early_minutes, checkin_late_minutes,
	checkout_early_minutes, checkout_late_minutes,
	created_at, updated_at
`

func scanWorkLocation(row pgx.Row) (worklocation.WorkLocation, error) {
	var loc worklocation.WorkLocation
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters, &loc.IsActive,
		&loc.ToleranceSettings,
		&loc.CheckinEarlyMinutes, &loc.CheckinLateMinutes,
		&loc.CheckoutEarlyMinutes, &loc.CheckoutLateMinutes,
		&loc.CreatedAt, &loc.UpdatedAt,
	)
	return loc, err
}

// GetByID implements worklocation.WorkLocationRepository.
func (r *workLocationRepository) GetByID(ctx context.Context, id string) (worklocation.WorkLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + workLocationColumns + ` FROM work_locations WHERE id = $1`

	loc, err := scanWorkLocation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return worklocation.WorkLocation{}, worklocation.ErrWorkLocationNotFound
		}
		return worklocation.WorkLocation{}, fmt.Errorf("failed to get work location: %w", err)
	}

	return loc, nil
}

// GetForUser implements worklocation.WorkLocationRepository.
func (r *workLocationRepository) GetForUser(ctx context.Context, userID string) (worklocation.WorkLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT wl.id, wl.name, wl.latitude, wl.longitude, wl.radius_meters, wl.is_active,
			   wl.tolerance_settings,
			   wl.checkin_early_minutes, wl.checkin_late_minutes,
			   wl.checkout_early_minutes, wl.checkout_late_minutes,
			   wl.created_at, wl.updated_at
		FROM work_locations wl
		JOIN users u ON u.work_location_id = wl.id
		WHERE u.id = $1
	`

	loc, err := scanWorkLocation(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return worklocation.WorkLocation{}, worklocation.ErrWorkLocationNotFound
		}
		return worklocation.WorkLocation{}, fmt.Errorf("failed to get work location for user: %w", err)
	}

	return loc, nil
}
