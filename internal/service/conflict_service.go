package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type conflictEntryLister interface {
	ListByTimetable(ctx context.Context, filter models.EntryFilter) ([]models.TimetableEntry, error)
}

// ConflictService audits a whole timetable for double-bookings. Unlike
// the placement gateway it is exhaustive rather than fail-fast: every
// entry is checked against every other entry so timetables populated by
// bulk import or direct edits can be audited after the fact.
type ConflictService struct {
	entries    conflictEntryLister
	timetables timetableFinder
	logger     *zap.Logger
}

// NewConflictService instantiates ConflictService.
func NewConflictService(entries conflictEntryLister, timetables timetableFinder, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{entries: entries, timetables: timetables, logger: logger}
}

// Scan reports pairwise conflicts grouped by axis. It never mutates state
// and only fails on infrastructure errors or a missing timetable.
func (s *ConflictService) Scan(ctx context.Context, timetableID string) (*dto.ConflictReport, error) {
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	active := true
	entries, err := s.entries.ListByTimetable(ctx, models.EntryFilter{TimetableID: timetableID, IsActive: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	report := &dto.ConflictReport{TimetableID: timetableID}
	for i, entry := range entries {
		var classWith, teacherWith, roomWith []models.TimetableEntry
		for j, other := range entries {
			if i == j || entry.PeriodID != other.PeriodID || entry.DayOfWeek != other.DayOfWeek {
				continue
			}
			if entry.ClassID == other.ClassID {
				classWith = append(classWith, other)
			}
			if entry.TeacherID != nil && other.TeacherID != nil && *entry.TeacherID == *other.TeacherID {
				teacherWith = append(teacherWith, other)
			}
			if entry.RoomNumber != nil && other.RoomNumber != nil && *entry.RoomNumber == *other.RoomNumber {
				roomWith = append(roomWith, other)
			}
		}
		if len(classWith) > 0 {
			report.ClassConflicts = append(report.ClassConflicts, dto.ConflictGroup{Entry: entry, ConflictingWith: classWith})
		}
		if len(teacherWith) > 0 {
			report.TeacherConflicts = append(report.TeacherConflicts, dto.ConflictGroup{Entry: entry, ConflictingWith: teacherWith})
		}
		if len(roomWith) > 0 {
			report.RoomConflicts = append(report.RoomConflicts, dto.ConflictGroup{Entry: entry, ConflictingWith: roomWith})
		}
	}

	report.TotalConflicts = len(report.ClassConflicts) + len(report.TeacherConflicts) + len(report.RoomConflicts)
	if report.TotalConflicts > 0 {
		s.logger.Info("timetable conflicts detected",
			zap.String("timetable_id", timetableID),
			zap.Int("total", report.TotalConflicts),
		)
	}
	return report, nil
}
