package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	"github.com/akademia-id/timetable-api/internal/service"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
	"github.com/akademia-id/timetable-api/pkg/response"
)

// EntryHandler exposes entry placement endpoints. All placement routes
// are nested under the owning timetable.
type EntryHandler struct {
	placements *service.PlacementService
	grids      *service.GridService
}

// NewEntryHandler constructs an entry handler.
func NewEntryHandler(placements *service.PlacementService, grids *service.GridService) *EntryHandler {
	return &EntryHandler{placements: placements, grids: grids}
}

// List godoc
// @Summary List entries
// @Description List decorated entries of a timetable with filters
// @Tags Entries
// @Produce json
// @Param id path string true "Timetable ID"
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param periodId query string false "Filter by period"
// @Param dayOfWeek query string false "Filter by day of week"
// @Param room query string false "Filter by room number"
// @Param isActive query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/entries [get]
func (h *EntryHandler) List(c *gin.Context) {
	filter := models.EntryFilter{
		TimetableID: c.Param("id"),
		ClassID:     c.Query("classId"),
		TeacherID:   c.Query("teacherId"),
		PeriodID:    c.Query("periodId"),
		DayOfWeek:   c.Query("dayOfWeek"),
		RoomNumber:  c.Query("room"),
	}
	if isActive := c.Query("isActive"); isActive != "" {
		if val, err := strconv.ParseBool(isActive); err == nil {
			filter.IsActive = &val
		}
	}

	views, err := h.grids.ListEntries(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Create godoc
// @Summary Place entry
// @Description Place a class-subject assignment into a period slot; rejected on class, teacher or room conflict
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body service.PlaceEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	var req service.PlaceEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.placements.Place(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Move entry
// @Description Re-place an existing entry, re-running conflict checks against its new slot
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param entryId path string true "Entry ID"
// @Param payload body service.PlaceEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries/{entryId} [put]
func (h *EntryHandler) Update(c *gin.Context) {
	var req service.PlaceEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.placements.Update(c.Request.Context(), c.Param("id"), c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Remove entry
// @Tags Entries
// @Param id path string true "Timetable ID"
// @Param entryId path string true "Entry ID"
// @Success 204
// @Router /timetables/{id}/entries/{entryId} [delete]
func (h *EntryHandler) Delete(c *gin.Context) {
	if err := h.placements.Delete(c.Request.Context(), c.Param("id"), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Bulk godoc
// @Summary Bulk place entries
// @Description Place a batch of entries atomically; the first conflict rolls back the whole batch
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body service.BulkPlaceRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries/bulk [post]
func (h *EntryHandler) Bulk(c *gin.Context) {
	var req service.BulkPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.placements.BulkPlace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.BulkPlaceResponse{Created: created})
}
