package service

import (
	"context"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
	appErrors "github.com/Hillway-UK/union-clock-sub000/pkg/errors"
)

type sessionEventLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.GeofenceEvent, error)
}

// ShiftQueryService exposes read-only views of a shift session and its
// geofence event log, used by clients after a terminal status token and by
// operators inspecting auto clock-out decisions.
type ShiftQueryService struct {
	shifts shiftReader
	events sessionEventLister
}

// NewShiftQueryService constructs the read service.
func NewShiftQueryService(shifts shiftReader, events sessionEventLister) *ShiftQueryService {
	return &ShiftQueryService{shifts: shifts, events: events}
}

// Get returns the session.
func (s *ShiftQueryService) Get(ctx context.Context, id string) (*models.ShiftSession, error) {
	session, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shift session not found")
	}
	return session, nil
}

// Events returns the ordered event log for the session.
func (s *ShiftQueryService) Events(ctx context.Context, id string) ([]models.GeofenceEvent, error) {
	session, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shift session not found")
	}
	return s.events.ListBySession(ctx, id)
}
