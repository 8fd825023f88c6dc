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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/models"
	"github.com/akademia-id/timetable-api/internal/service"
)

type entryStoreStub struct {
	entries map[string]*models.TimetableEntry
	nextID  int
}

func newEntryStoreStub() *entryStoreStub {
	return &entryStoreStub{entries: make(map[string]*models.TimetableEntry)}
}

func (s *entryStoreStub) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	snapshot := make(map[string]*models.TimetableEntry, len(s.entries))
	for id, e := range s.entries {
		cp := *e
		snapshot[id] = &cp
	}
	if err := fn(nil); err != nil {
		s.entries = snapshot
		return err
	}
	return nil
}

func (s *entryStoreStub) LockSlot(ctx context.Context, tx *sqlx.Tx, timetableID, periodID string, day models.DayOfWeek) error {
	return nil
}

func (s *entryStoreStub) ListBySlotTx(ctx context.Context, tx *sqlx.Tx, timetableID, periodID string, day models.DayOfWeek) ([]models.TimetableEntry, error) {
	var result []models.TimetableEntry
	for _, e := range s.entries {
		if e.TimetableID == timetableID && e.PeriodID == periodID && e.DayOfWeek == day && e.IsActive {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (s *entryStoreStub) CreateTx(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		s.nextID++
		entry.ID = fmt.Sprintf("e%d", s.nextID)
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *entryStoreStub) UpdateTx(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error {
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *entryStoreStub) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	if e, ok := s.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *entryStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.entries, id)
	return nil
}

type timetableFinderStub struct{}

func (timetableFinderStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if id == "tt1" {
		return &models.Timetable{ID: "tt1", Name: "Semester Ganjil", IsActive: true}, nil
	}
	return nil, sql.ErrNoRows
}

type periodFinderStub struct{}

func (periodFinderStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if id == "p1" {
		return &models.Period{ID: "p1", Name: "Period 1", DayOfWeek: models.Monday, StartTime: "07:30", EndTime: "08:15", IsActive: true}, nil
	}
	return nil, sql.ErrNoRows
}

func (periodFinderStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Period, error) {
	return map[string]models.Period{}, nil
}

type subjectFinderStub struct{}

func (subjectFinderStub) FindByID(ctx context.Context, id string) (*models.SubjectRef, error) {
	if id == "math-10a" {
		return &models.SubjectRef{ID: "math-10a", Code: "MATH", Name: "Mathematics", ClassID: "c10a"}, nil
	}
	return nil, sql.ErrNoRows
}

func (subjectFinderStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.SubjectRef, error) {
	return map[string]models.SubjectRef{}, nil
}

func newEntryRouter() (*gin.Engine, *entryStoreStub) {
	gin.SetMode(gin.TestMode)
	store := newEntryStoreStub()
	placements := service.NewPlacementService(service.PlacementServiceParams{
		Entries:    store,
		Timetables: timetableFinderStub{},
		Periods:    periodFinderStub{},
		Subjects:   subjectFinderStub{},
		Validator:  validator.New(),
		Logger:     zap.NewNop(),
	})
	h := NewEntryHandler(placements, nil)

	r := gin.New()
	r.POST("/timetables/:id/entries", h.Create)
	r.POST("/timetables/:id/entries/bulk", h.Bulk)
	r.PUT("/timetables/:id/entries/:entryId", h.Update)
	r.DELETE("/timetables/:id/entries/:entryId", h.Delete)
	return r, store
}

func postJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEntryHandlerCreate(t *testing.T) {
	r, store := newEntryRouter()

	w := postJSON(r, "/timetables/tt1/entries", gin.H{
		"class_id":    "c10a",
		"subject_id":  "math-10a",
		"period_id":   "p1",
		"day_of_week": "MONDAY",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, store.entries, 1)

	var envelope struct {
		Data models.TimetableEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "tt1", envelope.Data.TimetableID)
	assert.Equal(t, models.Monday, envelope.Data.DayOfWeek)
}

func TestEntryHandlerCreateConflict(t *testing.T) {
	r, _ := newEntryRouter()

	payload := gin.H{
		"class_id":    "c10a",
		"subject_id":  "math-10a",
		"period_id":   "p1",
		"day_of_week": "MONDAY",
	}
	first := postJSON(r, "/timetables/tt1/entries", payload)
	require.Equal(t, http.StatusCreated, first.Code)

	var created struct {
		Data models.TimetableEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))

	w := postJSON(r, "/timetables/tt1/entries", payload)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Axis     string                `json:"axis"`
				Conflict models.EntryConflict `json:"conflict"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "CLASS_CONFLICT", envelope.Error.Code)
	assert.Equal(t, "CLASS", envelope.Error.Details.Axis)
	assert.Equal(t, created.Data.ID, envelope.Error.Details.Conflict.EntryID)
	assert.Equal(t, "c10a", envelope.Error.Details.Conflict.ClassID)
}

func TestEntryHandlerCreateDayMismatch(t *testing.T) {
	r, _ := newEntryRouter()

	w := postJSON(r, "/timetables/tt1/entries", gin.H{
		"class_id":    "c10a",
		"subject_id":  "math-10a",
		"period_id":   "p1",
		"day_of_week": "TUESDAY",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEntryHandlerCreateMalformedBody(t *testing.T) {
	r, _ := newEntryRouter()

	req, _ := http.NewRequest(http.MethodPost, "/timetables/tt1/entries", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntryHandlerBulkRollsBack(t *testing.T) {
	r, store := newEntryRouter()

	w := postJSON(r, "/timetables/tt1/entries/bulk", gin.H{
		"items": []gin.H{
			{"class_id": "c10a", "subject_id": "math-10a", "period_id": "p1", "day_of_week": "MONDAY"},
			{"class_id": "c10a", "subject_id": "math-10a", "period_id": "p1", "day_of_week": "MONDAY"},
		},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, store.entries)
}

func TestEntryHandlerDelete(t *testing.T) {
	r, store := newEntryRouter()

	require.Equal(t, http.StatusCreated, postJSON(r, "/timetables/tt1/entries", gin.H{
		"class_id":    "c10a",
		"subject_id":  "math-10a",
		"period_id":   "p1",
		"day_of_week": "MONDAY",
	}).Code)

	var entryID string
	for id := range store.entries {
		entryID = id
	}

	req, _ := http.NewRequest(http.MethodDelete, "/timetables/tt1/entries/"+entryID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.entries)

	req, _ = http.NewRequest(http.MethodDelete, "/timetables/tt1/entries/"+entryID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
