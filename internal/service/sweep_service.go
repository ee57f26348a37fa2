package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Hillway-UK/union-clock-sub000/internal/dto"
	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

type overtimeShiftStore interface {
	FindOpenOvertime(ctx context.Context, clockedInBy time.Time) ([]models.ShiftSession, error)
}

type unresolvedExitStore interface {
	UnresolvedExits(ctx context.Context, cutoff time.Time) ([]models.GeofenceEvent, error)
}

type exitResolver interface {
	ResolveExit(ctx context.Context, sessionID string) (Resolution, error)
}

// SweepService is the time-driven fallback: it finds exits whose grace plus
// buffer window elapsed without resolution (the deferred timer's host may
// have died) and overtime sessions past the elapsed-time cap, and drives
// both to finalization. Overlapping sweeps and the deferred timers stay
// correct purely through the finalizer's conditional write; there is no
// sweep-level locking.
type SweepService struct {
	shifts    overtimeShiftStore
	events    unresolvedExitStore
	resolver  exitResolver
	finalizer sessionFinalizer

	gracePeriod time.Duration
	raceBuffer  time.Duration
	overtimeCap time.Duration

	metrics *MetricsService
	logger  *zap.Logger
}

// NewSweepService constructs the sweeper.
func NewSweepService(shifts overtimeShiftStore, events unresolvedExitStore, resolver exitResolver, finalizer sessionFinalizer, grace, raceBuffer, overtimeCap time.Duration, metrics *MetricsService, logger *zap.Logger) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{
		shifts:      shifts,
		events:      events,
		resolver:    resolver,
		finalizer:   finalizer,
		gracePeriod: grace,
		raceBuffer:  raceBuffer,
		overtimeCap: overtimeCap,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run performs one sweep cycle. The overtime cap pass runs first because it
// takes priority over a concurrently eligible geofence exit.
func (s *SweepService) Run(ctx context.Context) (*dto.SweepResult, error) {
	start := time.Now()
	result := &dto.SweepResult{}

	s.sweepOvertimeCaps(ctx, result)
	s.sweepExpiredExits(ctx, result)

	s.metrics.ObserveSweep(time.Since(start))
	s.logger.Sugar().Infow("auto clock-out sweep complete",
		"overtime_capped", result.OvertimeCapped,
		"exits_finalized", result.ExitsFinalized,
		"re_entries", result.ReEntriesDetected,
		"manual_yields", result.ManualYields,
		"races_lost", result.RacesLost,
		"errors", result.Errors,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *SweepService) sweepOvertimeCaps(ctx context.Context, result *dto.SweepResult) {
	sessions, err := s.shifts.FindOpenOvertime(ctx, time.Now().Add(-s.overtimeCap))
	if err != nil {
		result.Errors++
		s.logger.Sugar().Errorw("overtime cap sweep query failed", "error", err)
		return
	}
	for i := range sessions {
		session := sessions[i]
		outcome, err := s.finalizer.Finalize(ctx, FinalizeRequest{
			Session:  &session,
			ClockOut: session.ClockIn.Add(s.overtimeCap),
			Reason:   models.AutoClockoutTimeLimit,
		})
		if err != nil {
			result.Errors++
			s.logger.Sugar().Errorw("overtime cap finalize failed",
				"shift_session_id", session.ID, "error", err)
			continue
		}
		if outcome.AlreadyClosed {
			result.RacesLost++
			continue
		}
		result.OvertimeCapped++
	}
}

func (s *SweepService) sweepExpiredExits(ctx context.Context, result *dto.SweepResult) {
	cutoff := time.Now().Add(-(s.gracePeriod + s.raceBuffer))
	exits, err := s.events.UnresolvedExits(ctx, cutoff)
	if err != nil {
		result.Errors++
		s.logger.Sugar().Errorw("unresolved exit sweep query failed", "error", err)
		return
	}
	for i := range exits {
		resolution, err := s.resolver.ResolveExit(ctx, exits[i].ShiftSessionID)
		if err != nil {
			result.Errors++
			s.logger.Sugar().Errorw("sweep exit resolution failed",
				"shift_session_id", exits[i].ShiftSessionID, "error", err)
			continue
		}
		switch resolution {
		case ResolutionFinalized:
			result.ExitsFinalized++
		case ResolutionReEntry:
			result.ReEntriesDetected++
		case ResolutionManualClockout:
			result.ManualYields++
		case ResolutionAlreadyClosed:
			result.RacesLost++
		}
	}
}
