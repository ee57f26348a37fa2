package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
	"github.com/Hillway-UK/union-clock-sub000/internal/repository"
)

type shiftCloserStub struct {
	mu     sync.Mutex
	closed map[string]bool
	err    error
	params []repository.CloseShiftParams
}

func (s *shiftCloserStub) CloseIfOpen(ctx context.Context, params repository.CloseShiftParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	s.params = append(s.params, params)
	if s.closed == nil {
		s.closed = map[string]bool{}
	}
	if s.closed[params.SessionID] {
		return false, nil
	}
	s.closed[params.SessionID] = true
	return true, nil
}

type eventAppenderStub struct {
	mu     sync.Mutex
	events []models.GeofenceEvent
	err    error
}

func (s *eventAppenderStub) Insert(ctx context.Context, event *models.GeofenceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

type auditStoreStub struct {
	mu      sync.Mutex
	entries []models.AutoClockoutAudit
	err     error
}

func (s *auditStoreStub) Insert(ctx context.Context, entry *models.AutoClockoutAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *entry)
	return nil
}

type notificationStoreStub struct {
	mu   sync.Mutex
	seen map[string]bool
	sent []models.Notification
	err  error
}

func (s *notificationStoreStub) Insert(ctx context.Context, n *models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[n.DedupeKey] {
		return false, nil
	}
	s.seen[n.DedupeKey] = true
	s.sent = append(s.sent, *n)
	return true, nil
}

func openSession(id string, clockIn time.Time, overtime bool) *models.ShiftSession {
	return &models.ShiftSession{
		ID:         id,
		WorkerID:   "worker-1",
		JobID:      "job-1",
		ClockIn:    clockIn,
		IsOvertime: overtime,
	}
}

func TestFinalizeGeofenceExit(t *testing.T) {
	shifts := &shiftCloserStub{}
	events := &eventAppenderStub{}
	audits := &auditStoreStub{}
	notifications := &notificationStoreStub{}
	svc := NewFinalizeService(shifts, events, audits, notifications, nil, nil)

	clockIn := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(7*time.Hour + 20*time.Minute)
	outcome, err := svc.Finalize(context.Background(), FinalizeRequest{
		Session:  openSession("shift-1", clockIn, false),
		ClockOut: clockOut,
		Reason:   models.AutoClockoutGeofence,
		Exit:     &ExitContext{DistanceM: 270, AccuracyM: 10, JobRadiusM: 200, ThresholdM: 260},
	})
	require.NoError(t, err)
	require.False(t, outcome.AlreadyClosed)
	assert.InDelta(t, 7.33, outcome.TotalHours, 0.001)

	require.Len(t, shifts.params, 1)
	assert.Equal(t, models.AutoClockoutGeofence, shifts.params[0].Type)
	require.NotNil(t, shifts.params[0].ExitDistanceM)
	assert.Equal(t, 270.0, *shifts.params[0].ExitDistanceM)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.GeofenceEventExitConfirmed, events.events[0].EventType)

	require.Len(t, audits.entries, 1)
	assert.Equal(t, "geofence_exit", audits.entries[0].Reason)
	assert.Equal(t, models.AuditDecidedBySystem, audits.entries[0].DecidedBy)
	assert.True(t, audits.entries[0].Performed)

	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "worker-1:2024-05-20:geofence_exit", notifications.sent[0].DedupeKey)
}

func TestFinalizeOvertimeCapHours(t *testing.T) {
	shifts := &shiftCloserStub{}
	events := &eventAppenderStub{}
	audits := &auditStoreStub{}
	notifications := &notificationStoreStub{}
	svc := NewFinalizeService(shifts, events, audits, notifications, nil, nil)

	clockIn := time.Date(2024, 5, 20, 17, 0, 0, 0, time.UTC)
	outcome, err := svc.Finalize(context.Background(), FinalizeRequest{
		Session:  openSession("shift-ot", clockIn, true),
		ClockOut: clockIn.Add(3 * time.Hour),
		Reason:   models.AutoClockoutTimeLimit,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, outcome.TotalHours)

	// No geofence observation backs a time-limit close.
	assert.Empty(t, events.events)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, "overtime_time_limit", audits.entries[0].Reason)
	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "worker-1:2024-05-20:overtime_time_limit", notifications.sent[0].DedupeKey)
}

func TestFinalizeIdempotentUnderRace(t *testing.T) {
	shifts := &shiftCloserStub{}
	events := &eventAppenderStub{}
	audits := &auditStoreStub{}
	notifications := &notificationStoreStub{}
	svc := NewFinalizeService(shifts, events, audits, notifications, nil, nil)

	clockIn := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	req := FinalizeRequest{
		Session:  openSession("shift-1", clockIn, false),
		ClockOut: clockIn.Add(7 * time.Hour),
		Reason:   models.AutoClockoutGeofence,
		Exit:     &ExitContext{DistanceM: 280, JobRadiusM: 200, ThresholdM: 260},
	}

	var wg sync.WaitGroup
	outcomes := make([]*FinalizeOutcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := svc.Finalize(context.Background(), req)
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, outcome := range outcomes {
		if !outcome.AlreadyClosed {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one writer closes the session")
	assert.Len(t, audits.entries, 1)
	assert.Len(t, notifications.sent, 1)
}

func TestFinalizeAuditFailureDoesNotRollBack(t *testing.T) {
	shifts := &shiftCloserStub{}
	events := &eventAppenderStub{}
	audits := &auditStoreStub{err: errors.New("audit sink down")}
	notifications := &notificationStoreStub{}
	svc := NewFinalizeService(shifts, events, audits, notifications, nil, nil)

	clockIn := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	outcome, err := svc.Finalize(context.Background(), FinalizeRequest{
		Session:  openSession("shift-1", clockIn, false),
		ClockOut: clockIn.Add(time.Hour),
		Reason:   models.AutoClockoutGeofence,
		Exit:     &ExitContext{DistanceM: 300, JobRadiusM: 200, ThresholdM: 260},
	})
	require.NoError(t, err)
	assert.False(t, outcome.AlreadyClosed)
	// The clock-out write stands; the notification still goes out.
	assert.Len(t, notifications.sent, 1)
}

func TestFinalizeCloseErrorSurfaces(t *testing.T) {
	shifts := &shiftCloserStub{err: errors.New("db down")}
	svc := NewFinalizeService(shifts, &eventAppenderStub{}, &auditStoreStub{}, &notificationStoreStub{}, nil, nil)

	_, err := svc.Finalize(context.Background(), FinalizeRequest{
		Session:  openSession("shift-1", time.Now(), false),
		ClockOut: time.Now(),
		Reason:   models.AutoClockoutGeofence,
	})
	assert.Error(t, err)
}
