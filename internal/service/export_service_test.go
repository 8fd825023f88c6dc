package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type mockGridProjector struct {
	grid *dto.WeeklyGridResponse
}

func (m *mockGridProjector) WeeklyGrid(ctx context.Context, timetableID, classID, teacherID string) (*dto.WeeklyGridResponse, error) {
	return m.grid, nil
}

type mockTimetableGetter struct {
	timetable *models.Timetable
}

func (m *mockTimetableGetter) Get(ctx context.Context, id string) (*models.Timetable, error) {
	if m.timetable == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return m.timetable, nil
}

func exportFixtureGrid() *dto.WeeklyGridResponse {
	return &dto.WeeklyGridResponse{
		TimetableID: "tt1",
		Days: []dto.GridDay{
			{Day: models.Monday, Cells: []dto.GridCell{
				{PeriodID: "p1", PeriodName: "Period 1", StartTime: "07:30", EndTime: "08:15", Entries: []dto.EntryView{
					{ID: "e1", ClassID: "c10a", ClassName: "X-A", SubjectID: "math-10a", SubjectName: "Mathematics", TeacherName: "Guru Satu"},
				}},
				{PeriodID: "p2", PeriodName: "Period 2", StartTime: "08:15", EndTime: "09:00"},
			}},
			{Day: models.Tuesday, Cells: []dto.GridCell{
				{PeriodID: "p3", PeriodName: "Period 1", StartTime: "07:30", EndTime: "08:15"},
			}},
		},
	}
}

func newExportFixture() *ExportService {
	return NewExportService(
		&mockGridProjector{grid: exportFixtureGrid()},
		&mockTimetableGetter{timetable: &models.Timetable{ID: "tt1", Name: "Semester Ganjil"}},
		zap.NewNop(),
	)
}

func TestExportServiceCSV(t *testing.T) {
	svc := newExportFixture()

	result, err := svc.Export(context.Background(), "tt1", "", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "timetable-tt1.csv", result.Filename)

	body := string(result.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	// Header plus two slot rows (Monday has two periods).
	require.Len(t, lines, 3)
	assert.Equal(t, "Slot,MONDAY,TUESDAY", lines[0])
	assert.Contains(t, lines[1], "Mathematics (X-A) / Guru Satu")
	assert.Contains(t, lines[2], "Period 2 08:15-09:00")
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportFixture()

	result, err := svc.Export(context.Background(), "tt1", "", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "timetable-tt1.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture()

	_, err := svc.Export(context.Background(), "tt1", "", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownTimetable(t *testing.T) {
	svc := NewExportService(&mockGridProjector{}, &mockTimetableGetter{}, zap.NewNop())

	_, err := svc.Export(context.Background(), "missing", "", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
