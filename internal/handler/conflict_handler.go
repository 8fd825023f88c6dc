package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademia-id/timetable-api/internal/service"
	"github.com/akademia-id/timetable-api/pkg/response"
)

// ConflictHandler exposes the conflict scanner.
type ConflictHandler struct {
	conflicts *service.ConflictService
}

// NewConflictHandler constructs a conflict handler.
func NewConflictHandler(conflicts *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflicts: conflicts}
}

// Scan godoc
// @Summary Scan for conflicts
// @Description Sweep every entry of a timetable and report teacher, room and class collisions
// @Tags Conflicts
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/conflicts [get]
func (h *ConflictHandler) Scan(c *gin.Context) {
	report, err := h.conflicts.Scan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
