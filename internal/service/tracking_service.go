package service

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hillway-UK/union-clock-sub000/internal/dto"
	"github.com/Hillway-UK/union-clock-sub000/internal/models"
	appErrors "github.com/Hillway-UK/union-clock-sub000/pkg/errors"
	"github.com/Hillway-UK/union-clock-sub000/pkg/geo"
)

type referenceStore interface {
	FindJobSite(ctx context.Context, id string) (*models.JobSite, error)
	FindWorker(ctx context.Context, id string) (*models.Worker, error)
}

type exitScheduler interface {
	ScheduleResolution(sessionID string, exitAt time.Time)
	CancelResolution(sessionID string)
}

// TrackingService handles location ingestion: it logs every fix, gates exit
// evaluation on the shift's clock-out window, classifies reliable exits and
// hands pending exits to the resolver. It never finalizes a session itself.
type TrackingService struct {
	shifts    shiftReader
	events    exitEventStore
	refs      referenceStore
	scheduler exitScheduler
	validator *validator.Validate

	clockOutWindow time.Duration

	metrics *MetricsService
	logger  *zap.Logger
}

// NewTrackingService constructs the tracking service.
func NewTrackingService(shifts shiftReader, events exitEventStore, refs referenceStore, scheduler exitScheduler, validate *validator.Validate, clockOutWindow time.Duration, metrics *MetricsService, logger *zap.Logger) *TrackingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		shifts:         shifts,
		events:         events,
		refs:           refs,
		scheduler:      scheduler,
		validator:      validate,
		clockOutWindow: clockOutWindow,
		metrics:        metrics,
		logger:         logger,
	}
}

// ReportFix processes one raw GPS fix. The returned status is client UX
// feedback only; authoritative state lives in the shift row and event log.
// Stale or out-of-order fixes are tolerated because every decision re-reads
// the current event-log state instead of trusting the fix in isolation.
func (s *TrackingService) ReportFix(ctx context.Context, req dto.ReportLocationRequest) (*dto.ReportLocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload")
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	session, err := s.shifts.FindByID(ctx, req.ShiftSessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.WorkerID != req.WorkerID {
		return s.result(dto.StatusNotClockedIn, 0, 0, nil), nil
	}
	if !session.Open() {
		return s.closedResult(session), nil
	}

	site, err := s.refs.FindJobSite(ctx, session.JobID)
	if err != nil {
		return nil, err
	}
	if site == nil || !site.ValidRadius() {
		return nil, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "job site has no usable geofence")
	}

	distance := geo.DistanceMeters(site.Latitude, site.Longitude, req.Latitude, req.Longitude)
	threshold := SafeOutThreshold(site.RadiusM)

	if err := s.recordEvent(ctx, session, req, models.GeofenceEventLocationFix, distance, site.RadiusM, threshold); err != nil {
		return nil, err
	}

	if !session.IsOvertime {
		worker, err := s.refs.FindWorker(ctx, session.WorkerID)
		if err != nil {
			return nil, err
		}
		if worker == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "worker not found")
		}
		active, err := InClockOutWindow(worker, time.Now(), s.clockOutWindow)
		if err != nil {
			return nil, err
		}
		if !active {
			return s.result(dto.StatusOutsideWindow, distance, threshold, nil), nil
		}
	}

	pending, err := s.events.PendingExit(ctx, req.ShiftSessionID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		if distance < site.RadiusM && req.Timestamp.After(pending.RecordedAt) {
			if err := s.recordEvent(ctx, session, req, models.GeofenceEventReEntry, distance, site.RadiusM, threshold); err != nil {
				return nil, err
			}
			s.scheduler.CancelResolution(session.ID)
			s.metrics.ReEntry()
			s.logger.Sugar().Infow("worker re-entered fence during grace period",
				"shift_session_id", session.ID, "distance_m", distance)
			return s.result(dto.StatusReEntered, distance, threshold, nil), nil
		}
		// Exit already pending; nothing new to decide until the deadline.
		return s.result(dto.StatusExitPending, distance, threshold, nil), nil
	}

	if IsReliableExit(distance, req.AccuracyM, site.RadiusM, threshold) {
		if err := s.recordEvent(ctx, session, req, models.GeofenceEventExitDetected, distance, site.RadiusM, threshold); err != nil {
			return nil, err
		}
		s.scheduler.ScheduleResolution(session.ID, req.Timestamp)
		s.metrics.ExitDetected()
		s.logger.Sugar().Infow("reliable exit detected",
			"shift_session_id", session.ID,
			"distance_m", distance,
			"accuracy_m", req.AccuracyM,
			"threshold_m", threshold,
		)
		return s.result(dto.StatusExitPending, distance, threshold, nil), nil
	}

	return s.result(dto.StatusInsideFence, distance, threshold, nil), nil
}

func (s *TrackingService) recordEvent(ctx context.Context, session *models.ShiftSession, req dto.ReportLocationRequest, eventType models.GeofenceEventType, distance, radius, threshold float64) error {
	return s.events.Insert(ctx, &models.GeofenceEvent{
		ID:             uuid.NewString(),
		WorkerID:       session.WorkerID,
		ShiftSessionID: session.ID,
		ShiftDate:      session.ShiftDate(),
		EventType:      eventType,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyM:      req.AccuracyM,
		DistanceM:      distance,
		JobRadiusM:     radius,
		ThresholdM:     threshold,
		RecordedAt:     req.Timestamp,
	})
}

func (s *TrackingService) closedResult(session *models.ShiftSession) *dto.ReportLocationResult {
	status := dto.StatusManualClockout
	if session.AutoClockedOut {
		status = dto.StatusAutoClockedOut
	}
	result := s.result(status, 0, 0, session.ClockOut)
	result.TotalHours = session.TotalHours
	return result
}

func (s *TrackingService) result(status dto.LocationStatus, distance, threshold float64, clockOut *time.Time) *dto.ReportLocationResult {
	s.metrics.ObserveFix(string(status))
	return &dto.ReportLocationResult{
		Status:     status,
		DistanceM:  distance,
		ThresholdM: threshold,
		ClockOut:   clockOut,
	}
}
