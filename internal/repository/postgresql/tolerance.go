package postgresql

import (
	"context"
	"fmt"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/database"
)

type toleranceSettingRepository struct {
	db *database.DB
}

func NewToleranceSettingRepository(db *database.DB) tolerance.ToleranceSettingRepository {
	return &toleranceSettingRepository{db: db}
}

// GetActiveByScope implements tolerance.ToleranceSettingRepository.
func (r *toleranceSettingRepository) GetActiveByScope(ctx context.Context, scope tolerance.Scope, scopeValue string) ([]tolerance.ToleranceSetting, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, scope, scope_value, priority, is_active,
			   checkin_early_minutes, checkin_late_minutes,
			   checkout_early_minutes, checkout_late_minutes,
			   weekend_checkin_early_minutes, weekend_checkin_late_minutes,
			   weekend_checkout_early_minutes, weekend_checkout_late_minutes,
			   allow_early_checkin, allow_late_checkout,
			   created_at, updated_at
		FROM tolerance_settings
		WHERE scope = $1
		  AND scope_value = $2
		  AND is_active = TRUE
		ORDER BY priority ASC
	`

	rows, err := q.Query(ctx, query, scope, scopeValue)
	if err != nil {
		return nil, fmt.Errorf("failed to list tolerance settings: %w", err)
	}
	defer rows.Close()

	var settings []tolerance.ToleranceSetting
	for rows.Next() {
		var s tolerance.ToleranceSetting
		err := rows.Scan(
			&s.ID, &s.Scope, &s.ScopeValue, &s.Priority, &s.IsActive,
			&s.CheckinEarlyMinutes, &s.CheckinLateMinutes,
			&s.CheckoutEarlyMinutes, &s.CheckoutLateMinutes,
			&s.WeekendCheckinEarlyMinutes, &s.WeekendCheckinLateMinutes,
			&s.WeekendCheckoutEarlyMinutes, &s.WeekendCheckoutLateMinutes,
			&s.AllowEarlyCheckin, &s.AllowLateCheckout,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tolerance setting: %w", err)
		}
		settings = append(settings, s)
	}

	return settings, rows.Err()
}

// Upsert implements tolerance.ToleranceSettingRepository. Satu baris per
// (scope, scope_value, priority); edit admin menimpa baris yang ada.
func (r *toleranceSettingRepository) Upsert(ctx context.Context, setting tolerance.ToleranceSetting) (tolerance.ToleranceSetting, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO tolerance_settings (
			scope, scope_value, priority, is_active,
			checkin_early_minutes, checkin_late_minutes,
			checkout_early_minutes, checkout_late_minutes,
			weekend_checkin_early_minutes, weekend_checkin_late_minutes,
			weekend_checkout_early_minutes, weekend_checkout_late_minutes,
			allow_early_checkin, allow_late_checkout
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (scope, scope_value, priority) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			checkin_early_minutes = EXCLUDED.checkin_early_minutes,
			checkin_late_minutes = EXCLUDED.checkin_late_minutes,
			checkout_early_minutes = EXCLUDED.checkout_early_minutes,
			checkout_late_minutes = EXCLUDED.checkout_late_minutes,
			weekend_checkin_early_minutes = EXCLUDED.weekend_checkin_early_minutes,
			weekend_checkin_late_minutes = EXCLUDED.weekend_checkin_late_minutes,
			weekend_checkout_early_minutes = EXCLUDED.weekend_checkout_early_minutes,
			weekend_checkout_late_minutes = EXCLUDED.weekend_checkout_late_minutes,
			allow_early_checkin = EXCLUDED.allow_early_checkin,
			allow_late_checkout = EXCLUDED.allow_late_checkout,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		setting.Scope, setting.ScopeValue, setting.Priority, setting.IsActive,
		setting.CheckinEarlyMinutes, setting.CheckinLateMinutes,
		setting.CheckoutEarlyMinutes, setting.CheckoutLateMinutes,
		setting.WeekendCheckinEarlyMinutes, setting.WeekendCheckinLateMinutes,
		setting.WeekendCheckoutEarlyMinutes, setting.WeekendCheckoutLateMinutes,
		setting.AllowEarlyCheckin, setting.AllowLateCheckout,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return tolerance.ToleranceSetting{}, fmt.Errorf("failed to upsert tolerance setting: %w", err)
	}

	return setting, nil
}
