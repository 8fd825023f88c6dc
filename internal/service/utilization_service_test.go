package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

func newUtilizationFixture(entries []models.TimetableEntry, periods []models.Period) *UtilizationService {
	return NewUtilizationService(UtilizationServiceParams{
		Entries:    &mockEntryLister{entries: entries},
		Timetables: &mockTimetableFinder{items: map[string]*models.Timetable{"tt1": {ID: "tt1"}}},
		Periods:    &mockPeriodCatalog{periods: periods},
		Classes: &mockClassLookup{items: map[string]*models.ClassRef{
			"c10a": {ID: "c10a", Name: "X-A"},
		}},
		Teachers: &mockTeacherLookup{items: map[string]*models.TeacherRef{
			"guru-1": {ID: "guru-1", FullName: "Guru Satu"},
		}},
		Logger: zap.NewNop(),
	})
}

func weekPeriods(count int) []models.Period {
	periods := make([]models.Period, 0, count)
	for i := 0; i < count; i++ {
		periods = append(periods, models.Period{
			ID:        "p" + string(rune('a'+i)),
			Name:      "Period",
			DayOfWeek: models.Monday,
			SortOrder: i + 1,
			IsActive:  true,
		})
	}
	return periods
}

func TestUtilizationServiceAnalyze(t *testing.T) {
	periods := weekPeriods(10)
	entries := []models.TimetableEntry{
		{ID: "e1", TimetableID: "tt1", ClassID: "c10a", TeacherID: strPtr("guru-1"), RoomNumber: strPtr("R101"), PeriodID: "pa", DayOfWeek: models.Monday, IsActive: true},
		{ID: "e2", TimetableID: "tt1", ClassID: "c10a", TeacherID: strPtr("guru-1"), RoomNumber: strPtr("R101"), PeriodID: "pb", DayOfWeek: models.Monday, IsActive: true},
		{ID: "e3", TimetableID: "tt1", ClassID: "c10a", TeacherID: strPtr("guru-1"), PeriodID: "pc", DayOfWeek: models.Monday, IsActive: true},
	}
	svc := newUtilizationFixture(entries, periods)

	report, err := svc.Analyze(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Equal(t, 10, report.TotalActivePeriods)
	assert.Equal(t, 3, report.TotalEntries)

	require.Len(t, report.Teachers, 1)
	assert.Equal(t, "Guru Satu", report.Teachers[0].Name)
	assert.Equal(t, 3, report.Teachers[0].UsedPeriods)
	assert.InDelta(t, 30.00, report.Teachers[0].Percentage, 0.001)

	require.Len(t, report.Classes, 1)
	assert.Equal(t, "X-A", report.Classes[0].Name)
	assert.InDelta(t, 30.00, report.Classes[0].Percentage, 0.001)

	require.Len(t, report.Periods, 10)
	assert.Equal(t, 1, report.Periods[0].EntryCount)
	assert.Equal(t, 1, report.Periods[0].DistinctClass)
	assert.Zero(t, report.Periods[9].EntryCount)

	require.Len(t, report.Rooms, 1)
	assert.Equal(t, "R101", report.Rooms[0].RoomNumber)
	assert.Equal(t, 2, report.Rooms[0].UsageCount)
	assert.Equal(t, 1, report.Rooms[0].DistinctClass)
}

func TestUtilizationServicePeriodRowsCanonicalDayOrder(t *testing.T) {
	// The catalog mock returns days alphabetically, the way the SQL
	// listing does (FRIDAY before MONDAY). Rows must still come out
	// Monday first.
	periods := []models.Period{
		{ID: "p-fri", Name: "Period 1", DayOfWeek: models.Friday, SortOrder: 1, IsActive: true},
		{ID: "p-mon-2", Name: "Period 2", DayOfWeek: models.Monday, SortOrder: 2, IsActive: true},
		{ID: "p-mon-1", Name: "Period 1", DayOfWeek: models.Monday, SortOrder: 1, IsActive: true},
		{ID: "p-tue", Name: "Period 1", DayOfWeek: models.Tuesday, SortOrder: 1, IsActive: true},
	}
	svc := newUtilizationFixture(nil, periods)

	report, err := svc.Analyze(context.Background(), "tt1")
	require.NoError(t, err)
	require.Len(t, report.Periods, 4)
	assert.Equal(t, "p-mon-1", report.Periods[0].PeriodID)
	assert.Equal(t, "p-mon-2", report.Periods[1].PeriodID)
	assert.Equal(t, "p-tue", report.Periods[2].PeriodID)
	assert.Equal(t, "p-fri", report.Periods[3].PeriodID)
}

func TestUtilizationServiceAnalyzeEmptyCatalog(t *testing.T) {
	svc := newUtilizationFixture(nil, nil)

	report, err := svc.Analyze(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Zero(t, report.TotalActivePeriods)
	assert.Empty(t, report.Teachers)
	assert.Empty(t, report.Classes)
	assert.Empty(t, report.Periods)
	assert.Empty(t, report.Rooms)
}

func TestUtilizationServiceAnalyzeUnknownTimetable(t *testing.T) {
	svc := newUtilizationFixture(nil, nil)

	_, err := svc.Analyze(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPercentageRounding(t *testing.T) {
	assert.InDelta(t, 33.33, percentage(1, 3), 0.001)
	assert.InDelta(t, 66.67, percentage(2, 3), 0.001)
	assert.Zero(t, percentage(5, 0))
	assert.InDelta(t, 100.0, percentage(3, 3), 0.001)
}
