package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademia-id/timetable-api/internal/service"
	"github.com/akademia-id/timetable-api/pkg/response"
)

// UtilizationHandler exposes the utilization analyzer.
type UtilizationHandler struct {
	utilization *service.UtilizationService
}

// NewUtilizationHandler constructs a utilization handler.
func NewUtilizationHandler(utilization *service.UtilizationService) *UtilizationHandler {
	return &UtilizationHandler{utilization: utilization}
}

// Analyze godoc
// @Summary Utilization report
// @Description Aggregate slot consumption per teacher, class, period and room
// @Tags Utilization
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/utilization [get]
func (h *UtilizationHandler) Analyze(c *gin.Context) {
	report, err := h.utilization.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
