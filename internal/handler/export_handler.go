package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/akademia-id/timetable-api/internal/service"
	"github.com/akademia-id/timetable-api/pkg/response"
)

// ExportHandler streams timetable exports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export timetable
// @Description Download the weekly grid as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string true "csv or pdf"
// @Param classId query string false "Limit the grid to one class"
// @Success 200 {file} byte
// @Router /timetables/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	result, err := h.exports.Export(c.Request.Context(), c.Param("id"), c.Query("classId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Content)
}
