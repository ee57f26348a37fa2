package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

const shiftColumns = `id, worker_id, job_id, clock_in, clock_out, clock_in_lat, clock_in_lon,
clock_out_lat, clock_out_lon, is_overtime, auto_clocked_out, auto_clockout_type,
total_hours, created_at, updated_at`

// CloseShiftParams carries everything the conditional clock-out write needs.
type CloseShiftParams struct {
	SessionID      string
	ClockOut       time.Time
	Type           models.AutoClockoutType
	TotalHours     float64
	ClockOutLat    *float64
	ClockOutLon    *float64
	ExitDistanceM  *float64
	ExitAccuracyM  *float64
	ExitThresholdM *float64
	ExitJobRadiusM *float64
}

// ShiftRepository owns reads and the single mutation path of shift sessions.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository builds the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// FindByID returns the session or nil when it does not exist.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.ShiftSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_sessions WHERE id = $1`, shiftColumns)
	var session models.ShiftSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find shift session: %w", err)
	}
	return &session, nil
}

// FindOpenOvertime lists open overtime sessions clocked in at or before the
// supplied instant. The sweeper uses it to enforce the elapsed-time cap.
func (r *ShiftRepository) FindOpenOvertime(ctx context.Context, clockedInBy time.Time) ([]models.ShiftSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_sessions
WHERE clock_out IS NULL AND is_overtime = TRUE AND clock_in <= $1
ORDER BY clock_in ASC`, shiftColumns)
	var sessions []models.ShiftSession
	if err := r.db.SelectContext(ctx, &sessions, query, clockedInBy); err != nil {
		return nil, fmt.Errorf("find open overtime sessions: %w", err)
	}
	return sessions, nil
}

// CloseIfOpen performs the compare-and-swap clock-out: the update succeeds
// only if clock_out is still NULL at write time. It returns false when a
// concurrent writer closed the session first; that is the expected outcome
// of the race-buffer design, not an error.
func (r *ShiftRepository) CloseIfOpen(ctx context.Context, params CloseShiftParams) (bool, error) {
	query := `UPDATE shift_sessions
SET clock_out = $1,
    auto_clocked_out = TRUE,
    auto_clockout_type = $2,
    total_hours = $3,
    clock_out_lat = $4,
    clock_out_lon = $5,
    exit_distance_m = $6,
    exit_accuracy_m = $7,
    exit_threshold_m = $8,
    exit_radius_m = $9,
    updated_at = NOW()
WHERE id = $10 AND clock_out IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		params.ClockOut,
		params.Type,
		params.TotalHours,
		params.ClockOutLat,
		params.ClockOutLon,
		params.ExitDistanceM,
		params.ExitAccuracyM,
		params.ExitThresholdM,
		params.ExitJobRadiusM,
		params.SessionID,
	)
	if err != nil {
		return false, fmt.Errorf("close shift session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close shift session rows: %w", err)
	}
	return affected == 1, nil
}
