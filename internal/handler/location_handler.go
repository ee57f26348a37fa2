package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hillway-UK/union-clock-sub000/internal/dto"
	appErrors "github.com/Hillway-UK/union-clock-sub000/pkg/errors"
	"github.com/Hillway-UK/union-clock-sub000/pkg/response"
)

type trackingService interface {
	ReportFix(ctx context.Context, req dto.ReportLocationRequest) (*dto.ReportLocationResult, error)
}

// LocationHandler exposes the location ingestion endpoint.
type LocationHandler struct {
	service trackingService
}

// NewLocationHandler builds a new handler.
func NewLocationHandler(service trackingService) *LocationHandler {
	return &LocationHandler{service: service}
}

// Report godoc
// @Summary Report a GPS fix for an open shift session
// @Tags Locations
// @Accept json
// @Produce json
// @Param payload body dto.ReportLocationRequest true "Location fix"
// @Success 200 {object} response.Envelope
// @Router /locations [post]
func (h *LocationHandler) Report(c *gin.Context) {
	var req dto.ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}
	result, err := h.service.ReportFix(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
