package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
	"github.com/akademia-id/timetable-api/pkg/export"
)

type gridProjector interface {
	WeeklyGrid(ctx context.Context, timetableID, classID, teacherID string) (*dto.WeeklyGridResponse, error)
}

type timetableGetter interface {
	Get(ctx context.Context, id string) (*models.Timetable, error)
}

// ExportResult carries rendered bytes plus the metadata handlers need to
// set response headers.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a timetable's weekly grid as a downloadable CSV
// or PDF document.
type ExportService struct {
	grids      gridProjector
	timetables timetableGetter
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService instantiates ExportService.
func NewExportService(grids gridProjector, timetables timetableGetter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		grids:      grids,
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// Export renders the weekly grid in the requested format. Supported
// formats are "csv" and "pdf".
func (s *ExportService) Export(ctx context.Context, timetableID, classID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	timetable, err := s.timetables.Get(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	grid, err := s.grids.WeeklyGrid(ctx, timetableID, classID, "")
	if err != nil {
		return nil, err
	}

	dataset := gridDataset(grid)
	title := fmt.Sprintf("Weekly Timetable %s", timetable.Name)

	var content []byte
	var contentType string
	switch format {
	case "csv":
		content, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case "pdf":
		content, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("timetable exported",
		zap.String("timetable_id", timetableID),
		zap.String("format", format),
		zap.Int("bytes", len(content)),
	)
	return &ExportResult{
		Content:     content,
		ContentType: contentType,
		Filename:    fmt.Sprintf("timetable-%s.%s", timetableID, format),
	}, nil
}

// gridDataset flattens the grid into a table with one row per period slot
// and one column per weekday. Periods on different days do not have to
// align, so each cell restates its own time window.
func gridDataset(grid *dto.WeeklyGridResponse) export.Dataset {
	headers := []string{"Slot"}
	maxRows := 0
	for _, day := range grid.Days {
		headers = append(headers, string(day.Day))
		if len(day.Cells) > maxRows {
			maxRows = len(day.Cells)
		}
	}

	rows := make([]map[string]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		row := map[string]string{"Slot": fmt.Sprintf("%d", i+1)}
		for _, day := range grid.Days {
			if i >= len(day.Cells) {
				continue
			}
			row[string(day.Day)] = cellText(day.Cells[i])
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func cellText(cell dto.GridCell) string {
	window := fmt.Sprintf("%s %s-%s", cell.PeriodName, cell.StartTime, cell.EndTime)
	views := cell.Entries
	if cell.Entry != nil {
		views = []dto.EntryView{*cell.Entry}
	}
	if len(views) == 0 {
		return window
	}

	parts := make([]string, 0, len(views))
	for _, view := range views {
		label := view.SubjectName
		if label == "" {
			label = view.SubjectID
		}
		if view.ClassName != "" {
			label = fmt.Sprintf("%s (%s)", label, view.ClassName)
		}
		if view.TeacherName != "" {
			label += " / " + view.TeacherName
		}
		parts = append(parts, label)
	}
	return window + ": " + strings.Join(parts, "; ")
}
