package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

// Resolution is the outcome of one resolve attempt for a pending exit.
type Resolution string

const (
	// ResolutionNone means the session has no unresolved exit.
	ResolutionNone Resolution = "no_pending_exit"
	// ResolutionNotDue means the grace plus race-buffer period has not
	// elapsed yet.
	ResolutionNotDue Resolution = "not_due"
	// ResolutionReEntry means a fix after the exit was back inside the
	// fence, voiding the exit.
	ResolutionReEntry Resolution = "re_entry"
	// ResolutionManualClockout means a manual clock-out won the race; the
	// resolver yields silently.
	ResolutionManualClockout Resolution = "manual_clockout"
	// ResolutionAlreadyClosed means another automatic writer finalized
	// first.
	ResolutionAlreadyClosed Resolution = "already_closed"
	// ResolutionFinalized means this attempt closed the session.
	ResolutionFinalized Resolution = "finalized"
)

type shiftReader interface {
	FindByID(ctx context.Context, id string) (*models.ShiftSession, error)
}

type exitEventStore interface {
	Insert(ctx context.Context, event *models.GeofenceEvent) error
	PendingExit(ctx context.Context, sessionID string) (*models.GeofenceEvent, error)
	LatestFixesAfter(ctx context.Context, sessionID string, after time.Time, limit int) ([]models.GeofenceEvent, error)
}

type sessionFinalizer interface {
	Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeOutcome, error)
}

type deferredRunner interface {
	Schedule(key string, delay time.Duration, task func(context.Context)) error
	Cancel(key string) bool
}

// ResolverService drives the per-session exit state machine:
// MONITORING -> EXIT_PENDING -> {RESOLVED_REENTRY | RESOLVED_FINALIZED}.
// State lives entirely in the event log and the shift row, so the same
// ResolveExit is reachable from the deferred timer and the periodic sweep
// with identical semantics, and terminal states stay sticky.
type ResolverService struct {
	shifts    shiftReader
	events    exitEventStore
	finalizer sessionFinalizer
	timers    deferredRunner

	gracePeriod     time.Duration
	raceBuffer      time.Duration
	reEntryFixCount int
	overtimeCap     time.Duration

	metrics *MetricsService
	logger  *zap.Logger
}

// NewResolverService constructs the resolver.
func NewResolverService(shifts shiftReader, events exitEventStore, finalizer sessionFinalizer, timers deferredRunner, grace, raceBuffer, overtimeCap time.Duration, reEntryFixCount int, metrics *MetricsService, logger *zap.Logger) *ResolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reEntryFixCount < 5 {
		reEntryFixCount = 5
	}
	return &ResolverService{
		shifts:          shifts,
		events:          events,
		finalizer:       finalizer,
		timers:          timers,
		gracePeriod:     grace,
		raceBuffer:      raceBuffer,
		reEntryFixCount: reEntryFixCount,
		overtimeCap:     overtimeCap,
		metrics:         metrics,
		logger:          logger,
	}
}

// Deadline returns when an exit detected at exitAt becomes eligible for
// confirmation.
func (s *ResolverService) Deadline(exitAt time.Time) time.Time {
	return exitAt.Add(s.gracePeriod + s.raceBuffer)
}

// ScheduleResolution arms the deferred timer for a freshly detected exit.
// The periodic sweep remains the durability backstop if this process dies
// before the timer fires.
func (s *ResolverService) ScheduleResolution(sessionID string, exitAt time.Time) {
	if s.timers == nil {
		return
	}
	delay := time.Until(s.Deadline(exitAt))
	err := s.timers.Schedule(sessionID, delay, func(ctx context.Context) {
		if _, err := s.ResolveExit(ctx, sessionID); err != nil {
			s.logger.Sugar().Errorw("deferred exit resolution failed",
				"shift_session_id", sessionID, "error", err)
		}
	})
	if err != nil {
		s.logger.Sugar().Warnw("could not schedule exit resolution",
			"shift_session_id", sessionID, "error", err)
	}
}

// CancelResolution discards the pending timer after a re-entry.
func (s *ResolverService) CancelResolution(sessionID string) {
	if s.timers != nil {
		s.timers.Cancel(sessionID)
	}
}

// ResolveExit re-evaluates the session's pending exit and drives it to a
// terminal state when due. Safe to call from overlapping invocations: every
// path either appends to the event log or goes through the finalizer's
// conditional write.
func (s *ResolverService) ResolveExit(ctx context.Context, sessionID string) (Resolution, error) {
	exit, err := s.events.PendingExit(ctx, sessionID)
	if err != nil {
		return ResolutionNone, err
	}
	if exit == nil {
		return ResolutionNone, nil
	}

	now := time.Now()
	if now.Before(s.Deadline(exit.RecordedAt)) {
		return ResolutionNotDue, nil
	}

	reEntered, err := s.checkReEntry(ctx, exit)
	if err != nil {
		return ResolutionNone, err
	}
	if reEntered {
		return ResolutionReEntry, nil
	}

	session, err := s.shifts.FindByID(ctx, sessionID)
	if err != nil {
		return ResolutionNone, err
	}
	if session == nil {
		s.logger.Sugar().Warnw("pending exit references missing session",
			"shift_session_id", sessionID)
		return ResolutionNone, nil
	}
	if !session.Open() {
		if !session.AutoClockedOut {
			// Manual clock-out landed during the grace or buffer wait;
			// never override it.
			return ResolutionManualClockout, nil
		}
		return ResolutionAlreadyClosed, nil
	}

	clockOut := now
	reason := models.AutoClockoutGeofence
	exitCtx := &ExitContext{
		Latitude:   exit.Latitude,
		Longitude:  exit.Longitude,
		AccuracyM:  exit.AccuracyM,
		DistanceM:  exit.DistanceM,
		JobRadiusM: exit.JobRadiusM,
		ThresholdM: exit.ThresholdM,
	}
	if session.IsOvertime {
		// The elapsed-time cap takes priority: when both terminations are
		// eligible the cap's exact boundary is the clock-out time.
		capBoundary := session.ClockIn.Add(s.overtimeCap)
		if !capBoundary.After(now) {
			clockOut = capBoundary
			reason = models.AutoClockoutTimeLimit
			exitCtx = nil
		}
	}

	outcome, err := s.finalizer.Finalize(ctx, FinalizeRequest{
		Session:  session,
		ClockOut: clockOut,
		Reason:   reason,
		Exit:     exitCtx,
	})
	if err != nil {
		return ResolutionNone, err
	}
	if outcome.AlreadyClosed {
		return ResolutionAlreadyClosed, nil
	}
	return ResolutionFinalized, nil
}

// checkReEntry inspects the latest fixes received after the exit; any fix
// back inside the plain geofence radius (not the safe-out threshold) voids
// the exit and appends a re_entry event.
func (s *ResolverService) checkReEntry(ctx context.Context, exit *models.GeofenceEvent) (bool, error) {
	fixes, err := s.events.LatestFixesAfter(ctx, exit.ShiftSessionID, exit.RecordedAt, s.reEntryFixCount)
	if err != nil {
		return false, err
	}
	for i := range fixes {
		fix := &fixes[i]
		if fix.DistanceM < exit.JobRadiusM {
			if err := s.recordReEntry(ctx, exit, fix); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *ResolverService) recordReEntry(ctx context.Context, exit, fix *models.GeofenceEvent) error {
	event := &models.GeofenceEvent{
		ID:             uuid.NewString(),
		WorkerID:       exit.WorkerID,
		ShiftSessionID: exit.ShiftSessionID,
		ShiftDate:      exit.ShiftDate,
		EventType:      models.GeofenceEventReEntry,
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyM:      fix.AccuracyM,
		DistanceM:      fix.DistanceM,
		JobRadiusM:     exit.JobRadiusM,
		ThresholdM:     exit.ThresholdM,
		RecordedAt:     time.Now(),
	}
	if err := s.events.Insert(ctx, event); err != nil {
		return err
	}
	s.metrics.ReEntry()
	s.logger.Sugar().Infow("pending exit voided by re-entry",
		"shift_session_id", exit.ShiftSessionID,
		"distance_m", fix.DistanceM,
		"radius_m", exit.JobRadiusM,
	)
	return nil
}
