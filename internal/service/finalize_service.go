package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
	"github.com/Hillway-UK/union-clock-sub000/internal/repository"
)

// Reason tags used in audit rows and notification dedupe keys.
const (
	reasonTagGeofence  = "geofence_exit"
	reasonTagTimeLimit = "overtime_time_limit"
)

type shiftCloser interface {
	CloseIfOpen(ctx context.Context, params repository.CloseShiftParams) (bool, error)
}

type eventAppender interface {
	Insert(ctx context.Context, event *models.GeofenceEvent) error
}

type auditStore interface {
	Insert(ctx context.Context, entry *models.AutoClockoutAudit) error
}

type notificationStore interface {
	Insert(ctx context.Context, n *models.Notification) (bool, error)
}

// ExitContext captures the observation that justified a geofence clock-out;
// it is stored on the closed session for audit.
type ExitContext struct {
	Latitude   float64
	Longitude  float64
	AccuracyM  float64
	DistanceM  float64
	JobRadiusM float64
	ThresholdM float64
}

// FinalizeRequest describes one close attempt.
type FinalizeRequest struct {
	Session  *models.ShiftSession
	ClockOut time.Time
	Reason   models.AutoClockoutType
	// Exit is nil for the overtime time-limit cap, which closes without a
	// geofence observation.
	Exit *ExitContext
}

// FinalizeOutcome reports the result of a close attempt. AlreadyClosed is
// the expected outcome of the race-buffer design, never an error.
type FinalizeOutcome struct {
	AlreadyClosed bool
	ClockOut      time.Time
	TotalHours    float64
}

// FinalizeService atomically closes open shift sessions exactly once. The
// authoritative clock-out write goes first and stands alone; the audit entry
// and notification are best-effort follow-ups that never roll it back.
type FinalizeService struct {
	shifts        shiftCloser
	events        eventAppender
	audits        auditStore
	notifications notificationStore
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewFinalizeService constructs the finalizer.
func NewFinalizeService(shifts shiftCloser, events eventAppender, audits auditStore, notifications notificationStore, metrics *MetricsService, logger *zap.Logger) *FinalizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalizeService{
		shifts:        shifts,
		events:        events,
		audits:        audits,
		notifications: notifications,
		metrics:       metrics,
		logger:        logger,
	}
}

// Finalize closes the session via the conditional update. Both invocation
// surfaces (deferred timer and periodic sweep) call it concurrently; the
// second writer observes AlreadyClosed and stops silently.
func (s *FinalizeService) Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeOutcome, error) {
	session := req.Session
	hours := req.ClockOut.Sub(session.ClockIn).Hours()
	if req.Reason == models.AutoClockoutTimeLimit && hours > 3.0 {
		hours = 3.0
	}
	hours = math.Round(hours*100) / 100

	params := repository.CloseShiftParams{
		SessionID:  session.ID,
		ClockOut:   req.ClockOut,
		Type:       req.Reason,
		TotalHours: hours,
	}
	if req.Exit != nil {
		params.ClockOutLat = &req.Exit.Latitude
		params.ClockOutLon = &req.Exit.Longitude
		params.ExitDistanceM = &req.Exit.DistanceM
		params.ExitAccuracyM = &req.Exit.AccuracyM
		params.ExitThresholdM = &req.Exit.ThresholdM
		params.ExitJobRadiusM = &req.Exit.JobRadiusM
	}

	closed, err := s.shifts.CloseIfOpen(ctx, params)
	if err != nil {
		return nil, err
	}
	if !closed {
		s.metrics.RaceLost()
		s.logger.Sugar().Debugw("finalize lost conditional-write race",
			"shift_session_id", session.ID, "reason", req.Reason)
		return &FinalizeOutcome{AlreadyClosed: true}, nil
	}

	s.metrics.AutoClockout(string(req.Reason))
	s.logger.Sugar().Infow("shift auto clocked out",
		"shift_session_id", session.ID,
		"worker_id", session.WorkerID,
		"reason", req.Reason,
		"clock_out", req.ClockOut,
		"total_hours", hours,
	)

	s.recordExitConfirmed(ctx, session, req)
	s.recordAudit(ctx, session, req, hours)
	s.notify(ctx, session, req, hours)

	return &FinalizeOutcome{ClockOut: req.ClockOut, TotalHours: hours}, nil
}

func (s *FinalizeService) recordExitConfirmed(ctx context.Context, session *models.ShiftSession, req FinalizeRequest) {
	if req.Exit == nil {
		return
	}
	event := &models.GeofenceEvent{
		ID:             uuid.NewString(),
		WorkerID:       session.WorkerID,
		ShiftSessionID: session.ID,
		ShiftDate:      session.ShiftDate(),
		EventType:      models.GeofenceEventExitConfirmed,
		Latitude:       req.Exit.Latitude,
		Longitude:      req.Exit.Longitude,
		AccuracyM:      req.Exit.AccuracyM,
		DistanceM:      req.Exit.DistanceM,
		JobRadiusM:     req.Exit.JobRadiusM,
		ThresholdM:     req.Exit.ThresholdM,
		RecordedAt:     req.ClockOut,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Sugar().Errorw("exit_confirmed event insert failed",
			"shift_session_id", session.ID, "error", err)
	}
}

func (s *FinalizeService) recordAudit(ctx context.Context, session *models.ShiftSession, req FinalizeRequest, hours float64) {
	entry := &models.AutoClockoutAudit{
		ID:        uuid.NewString(),
		WorkerID:  session.WorkerID,
		ShiftDate: session.ShiftDate(),
		Reason:    reasonTag(req.Reason),
		Performed: true,
		DecidedBy: models.AuditDecidedBySystem,
		Notes:     auditNotes(req, hours),
		DecidedAt: req.ClockOut,
	}
	if err := s.audits.Insert(ctx, entry); err != nil {
		s.logger.Sugar().Errorw("auto clock-out audit insert failed",
			"shift_session_id", session.ID, "error", err)
	}
}

func (s *FinalizeService) notify(ctx context.Context, session *models.ShiftSession, req FinalizeRequest, hours float64) {
	title, body := notificationContent(req, hours)
	n := &models.Notification{
		ID:        uuid.NewString(),
		WorkerID:  session.WorkerID,
		Title:     title,
		Body:      body,
		Type:      "auto_clockout",
		DedupeKey: models.NotificationDedupeKey(session.WorkerID, session.ShiftDate(), reasonTag(req.Reason)),
		CreatedAt: req.ClockOut,
	}
	inserted, err := s.notifications.Insert(ctx, n)
	if err != nil {
		s.logger.Sugar().Errorw("auto clock-out notification insert failed",
			"shift_session_id", session.ID, "error", err)
		return
	}
	if !inserted {
		s.logger.Sugar().Debugw("auto clock-out notification deduplicated",
			"dedupe_key", n.DedupeKey)
	}
}

func reasonTag(reason models.AutoClockoutType) string {
	if reason == models.AutoClockoutTimeLimit {
		return reasonTagTimeLimit
	}
	return reasonTagGeofence
}

func auditNotes(req FinalizeRequest, hours float64) string {
	if req.Exit != nil {
		return fmt.Sprintf("exit confirmed %.0fm from site center (radius %.0fm, threshold %.0fm, accuracy %.0fm), %.2f hours worked",
			req.Exit.DistanceM, req.Exit.JobRadiusM, req.Exit.ThresholdM, req.Exit.AccuracyM, hours)
	}
	return fmt.Sprintf("overtime session reached the elapsed-time cap, %.2f hours worked", hours)
}

func notificationContent(req FinalizeRequest, hours float64) (string, string) {
	if req.Exit != nil {
		return "You were clocked out automatically",
			fmt.Sprintf("You left the job site (%.0fm from center) and were clocked out at %s. Hours recorded: %.2f.",
				req.Exit.DistanceM, req.ClockOut.Format("15:04"), hours)
	}
	return "Overtime session closed",
		fmt.Sprintf("Your overtime session reached its limit and was closed at %s. Hours recorded: %.2f.",
			req.ClockOut.Format("15:04"), hours)
}
