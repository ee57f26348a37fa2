package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

type overtimeShiftStoreStub struct {
	sessions []models.ShiftSession
	err      error
	cutoff   time.Time
}

func (s *overtimeShiftStoreStub) FindOpenOvertime(ctx context.Context, clockedInBy time.Time) ([]models.ShiftSession, error) {
	s.cutoff = clockedInBy
	return s.sessions, s.err
}

type unresolvedExitStoreStub struct {
	exits  []models.GeofenceEvent
	err    error
	cutoff time.Time
}

func (s *unresolvedExitStoreStub) UnresolvedExits(ctx context.Context, cutoff time.Time) ([]models.GeofenceEvent, error) {
	s.cutoff = cutoff
	return s.exits, s.err
}

type exitResolverStub struct {
	resolutions map[string]Resolution
	errs        map[string]error
	resolved    []string
}

func (s *exitResolverStub) ResolveExit(ctx context.Context, sessionID string) (Resolution, error) {
	s.resolved = append(s.resolved, sessionID)
	if err := s.errs[sessionID]; err != nil {
		return ResolutionNone, err
	}
	return s.resolutions[sessionID], nil
}

func newSweep(shifts *overtimeShiftStoreStub, exits *unresolvedExitStoreStub, resolver *exitResolverStub, finalizer *finalizerStub) *SweepService {
	return NewSweepService(shifts, exits, resolver, finalizer,
		4*time.Minute, time.Minute, 3*time.Hour, nil, nil)
}

func TestSweepCapsOvertimeSessions(t *testing.T) {
	clockIn := time.Now().Add(-(3*time.Hour + 10*time.Minute))
	shifts := &overtimeShiftStoreStub{sessions: []models.ShiftSession{
		{ID: "ot-1", WorkerID: "worker-1", ClockIn: clockIn, IsOvertime: true},
	}}
	finalizer := &finalizerStub{}
	svc := newSweep(shifts, &unresolvedExitStoreStub{}, &exitResolverStub{}, finalizer)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OvertimeCapped)
	assert.Zero(t, result.Errors)

	require.Len(t, finalizer.requests, 1)
	req := finalizer.requests[0]
	assert.Equal(t, models.AutoClockoutTimeLimit, req.Reason)
	assert.True(t, req.ClockOut.Equal(clockIn.Add(3*time.Hour)), "cap boundary is the exact clock-out time")
	assert.Nil(t, req.Exit)

	// The query cutoff is cap duration back from now.
	assert.WithinDuration(t, time.Now().Add(-3*time.Hour), shifts.cutoff, 5*time.Second)
}

func TestSweepCountsRacesLost(t *testing.T) {
	shifts := &overtimeShiftStoreStub{sessions: []models.ShiftSession{
		{ID: "ot-1", ClockIn: time.Now().Add(-4 * time.Hour), IsOvertime: true},
	}}
	finalizer := &finalizerStub{outcome: &FinalizeOutcome{AlreadyClosed: true}}
	svc := newSweep(shifts, &unresolvedExitStoreStub{}, &exitResolverStub{}, finalizer)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.OvertimeCapped)
	assert.Equal(t, 1, result.RacesLost)
}

func TestSweepResolvesExpiredExits(t *testing.T) {
	exits := &unresolvedExitStoreStub{exits: []models.GeofenceEvent{
		{ShiftSessionID: "s-finalized"},
		{ShiftSessionID: "s-reentry"},
		{ShiftSessionID: "s-manual"},
		{ShiftSessionID: "s-raced"},
	}}
	resolver := &exitResolverStub{resolutions: map[string]Resolution{
		"s-finalized": ResolutionFinalized,
		"s-reentry":   ResolutionReEntry,
		"s-manual":    ResolutionManualClockout,
		"s-raced":     ResolutionAlreadyClosed,
	}}
	svc := newSweep(&overtimeShiftStoreStub{}, exits, resolver, &finalizerStub{})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitsFinalized)
	assert.Equal(t, 1, result.ReEntriesDetected)
	assert.Equal(t, 1, result.ManualYields)
	assert.Equal(t, 1, result.RacesLost)
	assert.Len(t, resolver.resolved, 4)

	// Only exits older than grace plus buffer are swept.
	assert.WithinDuration(t, time.Now().Add(-5*time.Minute), exits.cutoff, 5*time.Second)
}

func TestSweepContinuesPastErrors(t *testing.T) {
	exits := &unresolvedExitStoreStub{exits: []models.GeofenceEvent{
		{ShiftSessionID: "s-bad"},
		{ShiftSessionID: "s-good"},
	}}
	resolver := &exitResolverStub{
		resolutions: map[string]Resolution{"s-good": ResolutionFinalized},
		errs:        map[string]error{"s-bad": errors.New("db down")},
	}
	svc := newSweep(&overtimeShiftStoreStub{}, exits, resolver, &finalizerStub{})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.ExitsFinalized)
}

func TestSweepQueryFailureIsCounted(t *testing.T) {
	shifts := &overtimeShiftStoreStub{err: errors.New("timeout")}
	exits := &unresolvedExitStoreStub{err: errors.New("timeout")}
	svc := newSweep(shifts, exits, &exitResolverStub{}, &finalizerStub{})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Errors)
}
