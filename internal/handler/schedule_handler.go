package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademia-id/timetable-api/internal/service"
	"github.com/akademia-id/timetable-api/pkg/response"
)

// ScheduleHandler exposes the grid and schedule projections.
type ScheduleHandler struct {
	grids *service.GridService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(grids *service.GridService) *ScheduleHandler {
	return &ScheduleHandler{grids: grids}
}

// Grid godoc
// @Summary Weekly grid
// @Description Project a timetable into its day-by-period grid
// @Tags Schedules
// @Produce json
// @Param id path string true "Timetable ID"
// @Param classId query string false "Resolve cells to a single class"
// @Param teacherId query string false "Limit cells to one teacher's entries"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/grid [get]
func (h *ScheduleHandler) Grid(c *gin.Context) {
	grid, err := h.grids.WeeklyGrid(c.Request.Context(), c.Param("id"), c.Query("classId"), c.Query("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ClassSchedule godoc
// @Summary Class schedule
// @Description Ordered weekly schedule for one class
// @Tags Schedules
// @Produce json
// @Param id path string true "Timetable ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/classes/{classId}/schedule [get]
func (h *ScheduleHandler) ClassSchedule(c *gin.Context) {
	schedule, err := h.grids.ClassSchedule(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// TeacherSchedule godoc
// @Summary Teacher schedule
// @Description Ordered weekly schedule and load statistics for one teacher
// @Tags Schedules
// @Produce json
// @Param id path string true "Timetable ID"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/teachers/{teacherId}/schedule [get]
func (h *ScheduleHandler) TeacherSchedule(c *gin.Context) {
	schedule, err := h.grids.TeacherSchedule(c.Request.Context(), c.Param("id"), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
