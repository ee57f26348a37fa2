package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
	"github.com/Hillway-UK/union-clock-sub000/pkg/response"
)

type shiftQueryService interface {
	Get(ctx context.Context, id string) (*models.ShiftSession, error)
	Events(ctx context.Context, id string) ([]models.GeofenceEvent, error)
}

// ShiftHandler exposes read-only shift session views.
type ShiftHandler struct {
	service shiftQueryService
}

// NewShiftHandler builds a new handler.
func NewShiftHandler(service shiftQueryService) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// Get godoc
// @Summary Get a shift session
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift session ID"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Events godoc
// @Summary List the geofence event log for a shift session
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift session ID"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id}/events [get]
func (h *ShiftHandler) Events(c *gin.Context) {
	events, err := h.service.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
