package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

var geofenceEventRows = []string{
	"id", "worker_id", "shift_session_id", "shift_date", "event_type",
	"latitude", "longitude", "accuracy_m", "distance_m", "job_radius_m", "threshold_m", "recorded_at",
}

func TestGeofenceEventRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	now := time.Now()
	event := &models.GeofenceEvent{
		ID:             "event-1",
		WorkerID:       "worker-1",
		ShiftSessionID: "shift-1",
		ShiftDate:      now.Truncate(24 * time.Hour),
		EventType:      models.GeofenceEventExitDetected,
		Latitude:       51.51,
		Longitude:      -0.12,
		AccuracyM:      12,
		DistanceM:      270,
		JobRadiusM:     200,
		ThresholdM:     260,
		RecordedAt:     now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO geofence_events")).
		WithArgs(event.ID, event.WorkerID, event.ShiftSessionID, event.ShiftDate, event.EventType,
			event.Latitude, event.Longitude, event.AccuracyM, event.DistanceM,
			event.JobRadiusM, event.ThresholdM, event.RecordedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Insert(context.Background(), event))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceEventRepositoryPendingExit(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(geofenceEventRows).
		AddRow("event-1", "worker-1", "shift-1", now.Truncate(24*time.Hour), models.GeofenceEventExitDetected,
			51.51, -0.12, 12.0, 270.0, 200.0, 260.0, now)
	mock.ExpectQuery(regexp.QuoteMeta("e.event_type = 'exit_detected'")).
		WithArgs("shift-1").
		WillReturnRows(rows)

	event, err := repo.PendingExit(context.Background(), "shift-1")
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Equal(t, models.GeofenceEventExitDetected, event.EventType)
	require.Equal(t, 270.0, event.DistanceM)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceEventRepositoryPendingExitNone(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("e.event_type = 'exit_detected'")).
		WithArgs("shift-1").
		WillReturnRows(sqlmock.NewRows(geofenceEventRows))

	event, err := repo.PendingExit(context.Background(), "shift-1")
	require.NoError(t, err)
	require.Nil(t, event)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceEventRepositoryLatestFixesAfter(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	now := time.Now()
	after := now.Add(-5 * time.Minute)
	rows := sqlmock.NewRows(geofenceEventRows).
		AddRow("event-2", "worker-1", "shift-1", now.Truncate(24*time.Hour), models.GeofenceEventLocationFix,
			51.50, -0.12, 8.0, 150.0, 200.0, 260.0, now)
	mock.ExpectQuery(regexp.QuoteMeta("event_type = 'location_fix' AND recorded_at > $2")).
		WithArgs("shift-1", after, 5).
		WillReturnRows(rows)

	// A non-positive limit falls back to the re-entry minimum of five fixes.
	fixes, err := repo.LatestFixesAfter(context.Background(), "shift-1", after, 0)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	require.Equal(t, models.GeofenceEventLocationFix, fixes[0].EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceEventRepositoryUnresolvedExits(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	now := time.Now()
	cutoff := now.Add(-5 * time.Minute)
	rows := sqlmock.NewRows(geofenceEventRows).
		AddRow("event-1", "worker-1", "shift-1", now.Truncate(24*time.Hour), models.GeofenceEventExitDetected,
			51.51, -0.12, 12.0, 270.0, 200.0, 260.0, now.Add(-10*time.Minute)).
		AddRow("event-9", "worker-2", "shift-9", now.Truncate(24*time.Hour), models.GeofenceEventExitDetected,
			51.52, -0.13, 9.0, 300.0, 200.0, 260.0, now.Add(-7*time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("e.recorded_at < $1")).
		WithArgs(cutoff).
		WillReturnRows(rows)

	exits, err := repo.UnresolvedExits(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, exits, 2)
	require.Equal(t, "shift-1", exits[0].ShiftSessionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceEventRepositoryUnresolvedExitsSkipClosedSessions(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	cutoff := time.Now().Add(-5 * time.Minute)

	// A manually closed or cap-closed session never re-enters the sweep: the
	// query joins on clock_out IS NULL, so its stale exit is not selected.
	mock.ExpectQuery(regexp.QuoteMeta("JOIN shift_sessions s ON s.id = e.shift_session_id AND s.clock_out IS NULL")).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(geofenceEventRows))

	exits, err := repo.UnresolvedExits(context.Background(), cutoff)
	require.NoError(t, err)
	require.Empty(t, exits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceEventRepositoryListBySession(t *testing.T) {
	db, mock, cleanup := newShiftRepoMock(t)
	defer cleanup()

	repo := NewGeofenceEventRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(geofenceEventRows).
		AddRow("event-1", "worker-1", "shift-1", now.Truncate(24*time.Hour), models.GeofenceEventLocationFix,
			51.50, -0.12, 8.0, 120.0, 200.0, 260.0, now.Add(-20*time.Minute)).
		AddRow("event-2", "worker-1", "shift-1", now.Truncate(24*time.Hour), models.GeofenceEventExitDetected,
			51.51, -0.12, 10.0, 275.0, 200.0, 260.0, now.Add(-10*time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE shift_session_id = $1")).
		WithArgs("shift-1").
		WillReturnRows(rows)

	events, err := repo.ListBySession(context.Background(), "shift-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, models.GeofenceEventExitDetected, events[1].EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}
