package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

const geofenceEventColumns = `id, worker_id, shift_session_id, shift_date, event_type,
latitude, longitude, accuracy_m, distance_m, job_radius_m, threshold_m, recorded_at`

// GeofenceEventRepository owns the append-only geofence observation log.
// Rows are inserted, never updated or deleted.
type GeofenceEventRepository struct {
	db *sqlx.DB
}

// NewGeofenceEventRepository builds the repository.
func NewGeofenceEventRepository(db *sqlx.DB) *GeofenceEventRepository {
	return &GeofenceEventRepository{db: db}
}

// Insert appends one observation.
func (r *GeofenceEventRepository) Insert(ctx context.Context, event *models.GeofenceEvent) error {
	query := `INSERT INTO geofence_events
(id, worker_id, shift_session_id, shift_date, event_type, latitude, longitude,
 accuracy_m, distance_m, job_radius_m, threshold_m, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.WorkerID,
		event.ShiftSessionID,
		event.ShiftDate,
		event.EventType,
		event.Latitude,
		event.Longitude,
		event.AccuracyM,
		event.DistanceM,
		event.JobRadiusM,
		event.ThresholdM,
		event.RecordedAt,
	); err != nil {
		return fmt.Errorf("insert geofence event: %w", err)
	}
	return nil
}

// PendingExit returns the latest exit_detected event for the session that has
// no re_entry or exit_confirmed recorded at-or-after it, or nil when the
// session is not in an exit-pending state.
func (r *GeofenceEventRepository) PendingExit(ctx context.Context, sessionID string) (*models.GeofenceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM geofence_events e
WHERE e.shift_session_id = $1
  AND e.event_type = 'exit_detected'
  AND NOT EXISTS (
    SELECT 1 FROM geofence_events later
    WHERE later.shift_session_id = e.shift_session_id
      AND later.event_type IN ('re_entry', 'exit_confirmed')
      AND later.recorded_at >= e.recorded_at
  )
ORDER BY e.recorded_at DESC
LIMIT 1`, prefixColumns("e", geofenceEventColumns))

	var event models.GeofenceEvent
	if err := r.db.GetContext(ctx, &event, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending exit: %w", err)
	}
	return &event, nil
}

// LatestFixesAfter returns the most recent location fixes for the session
// recorded strictly after the supplied instant, newest first.
func (r *GeofenceEventRepository) LatestFixesAfter(ctx context.Context, sessionID string, after time.Time, limit int) ([]models.GeofenceEvent, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s FROM geofence_events
WHERE shift_session_id = $1 AND event_type = 'location_fix' AND recorded_at > $2
ORDER BY recorded_at DESC
LIMIT $3`, geofenceEventColumns)

	var events []models.GeofenceEvent
	if err := r.db.SelectContext(ctx, &events, query, sessionID, after, limit); err != nil {
		return nil, fmt.Errorf("list fixes after exit: %w", err)
	}
	return events, nil
}

// UnresolvedExits lists exit_detected events recorded before the cutoff whose
// sessions are still open and have seen no re_entry or exit_confirmed since.
// Joining on clock_out IS NULL retires exits whose sessions were closed by a
// manual clock-out or the overtime cap, so the sweep's working set never
// accumulates dead exits.
func (r *GeofenceEventRepository) UnresolvedExits(ctx context.Context, cutoff time.Time) ([]models.GeofenceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM geofence_events e
JOIN shift_sessions s ON s.id = e.shift_session_id AND s.clock_out IS NULL
WHERE e.event_type = 'exit_detected'
  AND e.recorded_at < $1
  AND NOT EXISTS (
    SELECT 1 FROM geofence_events later
    WHERE later.shift_session_id = e.shift_session_id
      AND later.event_type IN ('re_entry', 'exit_confirmed')
      AND later.recorded_at >= e.recorded_at
  )
ORDER BY e.recorded_at ASC`, prefixColumns("e", geofenceEventColumns))

	var events []models.GeofenceEvent
	if err := r.db.SelectContext(ctx, &events, query, cutoff); err != nil {
		return nil, fmt.Errorf("list unresolved exits: %w", err)
	}
	return events, nil
}

// ListBySession returns the full ordered event log for one shift session.
func (r *GeofenceEventRepository) ListBySession(ctx context.Context, sessionID string) ([]models.GeofenceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM geofence_events
WHERE shift_session_id = $1
ORDER BY recorded_at ASC`, geofenceEventColumns)

	var events []models.GeofenceEvent
	if err := r.db.SelectContext(ctx, &events, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	return events, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
