package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type mockPeriodCatalog struct {
	periods []models.Period
}

func (m *mockPeriodCatalog) ListActive(ctx context.Context) ([]models.Period, error) {
	return m.periods, nil
}

func (m *mockPeriodCatalog) FindByIDs(ctx context.Context, ids []string) (map[string]models.Period, error) {
	result := make(map[string]models.Period)
	for _, id := range ids {
		for _, p := range m.periods {
			if p.ID == id {
				result[id] = p
			}
		}
	}
	return result, nil
}

type mockClassLookup struct {
	items map[string]*models.ClassRef
}

func (m *mockClassLookup) FindByID(ctx context.Context, id string) (*models.ClassRef, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassLookup) FindByIDs(ctx context.Context, ids []string) (map[string]models.ClassRef, error) {
	result := make(map[string]models.ClassRef)
	for _, id := range ids {
		if c, ok := m.items[id]; ok {
			result[id] = *c
		}
	}
	return result, nil
}

type mockSubjectLookup struct {
	items map[string]*models.SubjectRef
}

func (m *mockSubjectLookup) FindByIDs(ctx context.Context, ids []string) (map[string]models.SubjectRef, error) {
	result := make(map[string]models.SubjectRef)
	for _, id := range ids {
		if s, ok := m.items[id]; ok {
			result[id] = *s
		}
	}
	return result, nil
}

type mockTeacherLookup struct {
	items map[string]*models.TeacherRef
}

func (m *mockTeacherLookup) FindByID(ctx context.Context, id string) (*models.TeacherRef, error) {
	if t, ok := m.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherLookup) FindByIDs(ctx context.Context, ids []string) (map[string]models.TeacherRef, error) {
	result := make(map[string]models.TeacherRef)
	for _, id := range ids {
		if t, ok := m.items[id]; ok {
			result[id] = *t
		}
	}
	return result, nil
}

func newGridFixture(entries []models.TimetableEntry) *GridService {
	return NewGridService(GridServiceParams{
		Entries:    &mockEntryLister{entries: entries},
		Timetables: &mockTimetableFinder{items: map[string]*models.Timetable{"tt1": {ID: "tt1", Name: "Semester Ganjil"}}},
		Periods: &mockPeriodCatalog{periods: []models.Period{
			{ID: "p1", Name: "Period 1", StartTime: "07:30", EndTime: "08:15", DayOfWeek: models.Monday, SortOrder: 1, IsActive: true},
			{ID: "p2", Name: "Period 2", StartTime: "08:15", EndTime: "09:00", DayOfWeek: models.Monday, SortOrder: 2, IsActive: true},
			{ID: "p3", Name: "Period 1", StartTime: "07:30", EndTime: "08:15", DayOfWeek: models.Tuesday, SortOrder: 1, IsActive: true},
		}},
		Classes: &mockClassLookup{items: map[string]*models.ClassRef{
			"c10a": {ID: "c10a", Name: "X-A", Grade: "10"},
			"c10b": {ID: "c10b", Name: "X-B", Grade: "10"},
		}},
		Subjects: &mockSubjectLookup{items: map[string]*models.SubjectRef{
			"math-10a": {ID: "math-10a", Code: "MATH", Name: "Mathematics", ClassID: "c10a"},
			"bio-10b":  {ID: "bio-10b", Code: "BIO", Name: "Biology", ClassID: "c10b"},
		}},
		Teachers: &mockTeacherLookup{items: map[string]*models.TeacherRef{
			"guru-1": {ID: "guru-1", FullName: "Guru Satu", Active: true},
		}},
		Logger: zap.NewNop(),
	})
}

func TestGridServiceWeeklyGridLayout(t *testing.T) {
	svc := newGridFixture([]models.TimetableEntry{
		{ID: "e1", TimetableID: "tt1", ClassID: "c10b", SubjectID: "bio-10b", PeriodID: "p1", DayOfWeek: models.Monday, IsActive: true},
		{ID: "e2", TimetableID: "tt1", ClassID: "c10a", SubjectID: "math-10a", TeacherID: strPtr("guru-1"), PeriodID: "p1", DayOfWeek: models.Monday, IsActive: true},
	})

	grid, err := svc.WeeklyGrid(context.Background(), "tt1", "", "")
	require.NoError(t, err)
	require.Len(t, grid.Days, 7)

	// Days come back in canonical order with one cell per period of that day.
	assert.Equal(t, models.Monday, grid.Days[0].Day)
	require.Len(t, grid.Days[0].Cells, 2)
	assert.Equal(t, models.Tuesday, grid.Days[1].Day)
	require.Len(t, grid.Days[1].Cells, 1)
	assert.Equal(t, models.Sunday, grid.Days[6].Day)
	assert.Empty(t, grid.Days[6].Cells)

	// Occupants of a shared slot sort by class id, decorated with names.
	slot := grid.Days[0].Cells[0]
	require.Len(t, slot.Entries, 2)
	assert.Equal(t, "c10a", slot.Entries[0].ClassID)
	assert.Equal(t, "Mathematics", slot.Entries[0].SubjectName)
	assert.Equal(t, "Guru Satu", slot.Entries[0].TeacherName)
	assert.Equal(t, "07:30", slot.StartTime)

	// Empty slot still renders as a cell.
	assert.Nil(t, grid.Days[0].Cells[1].Entry)
	assert.Empty(t, grid.Days[0].Cells[1].Entries)
}

func TestGridServiceWeeklyGridClassFilterResolvesSingleEntry(t *testing.T) {
	svc := newGridFixture([]models.TimetableEntry{
		{ID: "e1", TimetableID: "tt1", ClassID: "c10a", SubjectID: "math-10a", PeriodID: "p1", DayOfWeek: models.Monday, IsActive: true},
	})

	grid, err := svc.WeeklyGrid(context.Background(), "tt1", "c10a", "")
	require.NoError(t, err)
	cell := grid.Days[0].Cells[0]
	require.NotNil(t, cell.Entry)
	assert.Equal(t, "e1", cell.Entry.ID)
	assert.Empty(t, cell.Entries)
}

func TestGridServiceWeeklyGridUnknownTimetable(t *testing.T) {
	svc := newGridFixture(nil)

	_, err := svc.WeeklyGrid(context.Background(), "missing", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGridServiceClassSchedule(t *testing.T) {
	svc := newGridFixture([]models.TimetableEntry{
		{ID: "e2", TimetableID: "tt1", ClassID: "c10a", SubjectID: "math-10a", PeriodID: "p2", DayOfWeek: models.Monday, IsActive: true},
		{ID: "e1", TimetableID: "tt1", ClassID: "c10a", SubjectID: "math-10a", PeriodID: "p1", DayOfWeek: models.Monday, IsActive: true},
	})

	schedule, err := svc.ClassSchedule(context.Background(), "tt1", "c10a")
	require.NoError(t, err)
	assert.Equal(t, "X-A", schedule.ClassName)
	require.Len(t, schedule.Days, 7)

	// Entries within a day follow period sort order, not storage order.
	monday := schedule.Days[0]
	require.Len(t, monday.Entries, 2)
	assert.Equal(t, "e1", monday.Entries[0].ID)
	assert.Equal(t, "e2", monday.Entries[1].ID)

	// Days without entries are present with an empty list.
	assert.NotNil(t, schedule.Days[6].Entries)
	assert.Empty(t, schedule.Days[6].Entries)
}

func TestGridServiceClassScheduleUnknownClass(t *testing.T) {
	svc := newGridFixture(nil)

	_, err := svc.ClassSchedule(context.Background(), "tt1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGridServiceTeacherScheduleStats(t *testing.T) {
	svc := newGridFixture([]models.TimetableEntry{
		{ID: "e1", TimetableID: "tt1", ClassID: "c10a", SubjectID: "math-10a", TeacherID: strPtr("guru-1"), PeriodID: "p1", DayOfWeek: models.Monday, IsActive: true},
	})

	schedule, err := svc.TeacherSchedule(context.Background(), "tt1", "guru-1")
	require.NoError(t, err)
	assert.Equal(t, "Guru Satu", schedule.TeacherName)
	assert.Equal(t, 1, schedule.Stats.UsedPeriods)
	// 1 of 3 active periods, rounded to two decimals.
	assert.InDelta(t, 33.33, schedule.Stats.Percentage, 0.001)
}
