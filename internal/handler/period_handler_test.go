package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademia-id/timetable-api/internal/models"
	"github.com/akademia-id/timetable-api/internal/service"
)

type periodRepoStub struct {
	periods map[string]*models.Period
	nextID  int
}

func newPeriodRepoStub() *periodRepoStub {
	return &periodRepoStub{periods: make(map[string]*models.Period)}
}

func (s *periodRepoStub) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error) {
	var result []models.Period
	for _, p := range s.periods {
		if filter.DayOfWeek != "" && string(p.DayOfWeek) != filter.DayOfWeek {
			continue
		}
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (s *periodRepoStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := s.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *periodRepoStub) ExistsBySlot(ctx context.Context, day models.DayOfWeek, startTime, endTime, excludeID string) (bool, error) {
	for _, p := range s.periods {
		if p.ID == excludeID {
			continue
		}
		if p.DayOfWeek == day && p.StartTime == startTime && p.EndTime == endTime {
			return true, nil
		}
	}
	return false, nil
}

func (s *periodRepoStub) Create(ctx context.Context, period *models.Period) error {
	s.nextID++
	period.ID = fmt.Sprintf("p%d", s.nextID)
	cp := *period
	s.periods[period.ID] = &cp
	return nil
}

func (s *periodRepoStub) Update(ctx context.Context, period *models.Period) error {
	cp := *period
	s.periods[period.ID] = &cp
	return nil
}

func newPeriodRouter() (*gin.Engine, *periodRepoStub) {
	gin.SetMode(gin.TestMode)
	repo := newPeriodRepoStub()
	h := NewPeriodHandler(service.NewPeriodService(repo, nil, nil))

	r := gin.New()
	r.GET("/periods", h.List)
	r.GET("/periods/:id", h.Get)
	r.POST("/periods", h.Create)
	r.PUT("/periods/:id", h.Update)
	return r, repo
}

func periodPayload() gin.H {
	return gin.H{
		"name":        "Period 1",
		"start_time":  "07:30",
		"end_time":    "08:15",
		"day_of_week": "MONDAY",
		"sort_order":  1,
	}
}

func TestPeriodHandlerCreate(t *testing.T) {
	r, repo := newPeriodRouter()

	body, _ := json.Marshal(periodPayload())
	req, _ := http.NewRequest(http.MethodPost, "/periods", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, repo.periods, 1)

	var envelope struct {
		Data models.Period `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Period 1", envelope.Data.Name)
	assert.Equal(t, models.Monday, envelope.Data.DayOfWeek)
	assert.True(t, envelope.Data.IsActive)
}

func TestPeriodHandlerCreateDuplicateSlot(t *testing.T) {
	r, _ := newPeriodRouter()

	body, _ := json.Marshal(periodPayload())
	req, _ := http.NewRequest(http.MethodPost, "/periods", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	body, _ = json.Marshal(periodPayload())
	req, _ = http.NewRequest(http.MethodPost, "/periods", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "DUPLICATE_PERIOD", envelope.Error.Code)
}

func TestPeriodHandlerCreateInvalidClock(t *testing.T) {
	r, _ := newPeriodRouter()

	payload := periodPayload()
	payload["start_time"] = "7:30am"
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, "/periods", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPeriodHandlerGetNotFound(t *testing.T) {
	r, _ := newPeriodRouter()

	req, _ := http.NewRequest(http.MethodGet, "/periods/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
