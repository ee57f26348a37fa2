package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hillway-UK/union-clock-sub000/internal/dto"
	"github.com/Hillway-UK/union-clock-sub000/pkg/response"
)

type sweepService interface {
	Run(ctx context.Context) (*dto.SweepResult, error)
}

// SweepHandler exposes the external cron trigger for the auto clock-out
// sweep. The in-process ticker and this endpoint share one sweep service
// and stay idempotent against each other.
type SweepHandler struct {
	service sweepService
}

// NewSweepHandler builds a new handler.
func NewSweepHandler(service sweepService) *SweepHandler {
	return &SweepHandler{service: service}
}

// Trigger godoc
// @Summary Run one auto clock-out sweep cycle
// @Tags Sweeps
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sweeps/auto-clockout [post]
func (h *SweepHandler) Trigger(c *gin.Context) {
	result, err := h.service.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
