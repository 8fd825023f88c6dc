package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type periodCatalog interface {
	ListActive(ctx context.Context) ([]models.Period, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Period, error)
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.ClassRef, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.ClassRef, error)
}

type subjectLookup interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.SubjectRef, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.TeacherRef, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.TeacherRef, error)
}

// GridService projects the entry set into display views: the weekly
// day-by-period grid and ordered per-class / per-teacher schedules.
// Projections recompute from the current entry set on every call; the
// optional response cache only short-circuits identical reads.
type GridService struct {
	entries    conflictEntryLister
	timetables timetableFinder
	periods    periodCatalog
	classes    classLookup
	subjects   subjectLookup
	teachers   teacherLookup
	cache      *CacheService
	logger     *zap.Logger
}

// GridServiceParams groups constructor dependencies.
type GridServiceParams struct {
	Entries    conflictEntryLister
	Timetables timetableFinder
	Periods    periodCatalog
	Classes    classLookup
	Subjects   subjectLookup
	Teachers   teacherLookup
	Cache      *CacheService
	Logger     *zap.Logger
}

// NewGridService instantiates GridService.
func NewGridService(params GridServiceParams) *GridService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridService{
		entries:    params.Entries,
		timetables: params.Timetables,
		periods:    params.Periods,
		classes:    params.Classes,
		subjects:   params.Subjects,
		teachers:   params.Teachers,
		cache:      params.Cache,
		logger:     logger,
	}
}

// ListEntries returns decorated entries of a timetable, optionally
// narrowed by the filter's class, teacher, period or day fields.
func (s *GridService) ListEntries(ctx context.Context, filter models.EntryFilter) ([]dto.EntryView, error) {
	if err := s.ensureTimetable(ctx, filter.TimetableID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByTimetable(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	views, err := s.decorate(ctx, entries)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []dto.EntryView{}
	}
	return views, nil
}

// WeeklyGrid builds the day-by-period view of a timetable. Days follow
// the canonical MONDAY..SUNDAY order and periods within a day follow
// their sort order. With a class filter each cell resolves to at most one
// entry; otherwise cells carry every class occupying the slot.
func (s *GridService) WeeklyGrid(ctx context.Context, timetableID, classID, teacherID string) (*dto.WeeklyGridResponse, error) {
	cacheKey := TimetableKey(timetableID, "grid", classID, teacherID)
	var cached dto.WeeklyGridResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	if err := s.ensureTimetable(ctx, timetableID); err != nil {
		return nil, err
	}

	periods, err := s.periods.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}

	active := true
	entries, err := s.entries.ListByTimetable(ctx, models.EntryFilter{
		TimetableID: timetableID,
		ClassID:     classID,
		TeacherID:   teacherID,
		IsActive:    &active,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	views, err := s.decorate(ctx, entries)
	if err != nil {
		return nil, err
	}

	periodsByDay := make(map[models.DayOfWeek][]models.Period)
	for _, p := range periods {
		periodsByDay[p.DayOfWeek] = append(periodsByDay[p.DayOfWeek], p)
	}

	type slotKey struct {
		day      models.DayOfWeek
		periodID string
	}
	viewsBySlot := make(map[slotKey][]dto.EntryView)
	for _, v := range views {
		key := slotKey{day: v.DayOfWeek, periodID: v.PeriodID}
		viewsBySlot[key] = append(viewsBySlot[key], v)
	}

	resp := &dto.WeeklyGridResponse{TimetableID: timetableID, ClassID: classID, TeacherID: teacherID}
	for _, day := range models.WeekDays {
		gridDay := dto.GridDay{Day: day, Cells: []dto.GridCell{}}
		for _, period := range periodsByDay[day] {
			cell := dto.GridCell{
				PeriodID:   period.ID,
				PeriodName: period.Name,
				StartTime:  period.StartTime,
				EndTime:    period.EndTime,
			}
			occupants := viewsBySlot[slotKey{day: day, periodID: period.ID}]
			sort.SliceStable(occupants, func(i, j int) bool { return occupants[i].ClassID < occupants[j].ClassID })
			if classID != "" {
				if len(occupants) > 0 {
					entry := occupants[0]
					cell.Entry = &entry
				}
			} else {
				cell.Entries = occupants
			}
			gridDay.Cells = append(gridDay.Cells, cell)
		}
		resp.Days = append(resp.Days, gridDay)
	}

	_ = s.cache.Set(ctx, cacheKey, resp)
	return resp, nil
}

// ClassSchedule projects one class's week as day-ordered entry lists.
func (s *GridService) ClassSchedule(ctx context.Context, timetableID, classID string) (*dto.ClassScheduleResponse, error) {
	cacheKey := TimetableKey(timetableID, "class-schedule", classID)
	var cached dto.ClassScheduleResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	if err := s.ensureTimetable(ctx, timetableID); err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	days, err := s.daySchedules(ctx, models.EntryFilter{TimetableID: timetableID, ClassID: classID})
	if err != nil {
		return nil, err
	}

	resp := &dto.ClassScheduleResponse{
		TimetableID: timetableID,
		ClassID:     classID,
		ClassName:   class.Name,
		Days:        days,
	}
	_ = s.cache.Set(ctx, cacheKey, resp)
	return resp, nil
}

// TeacherSchedule projects one teacher's week plus their load statistics.
func (s *GridService) TeacherSchedule(ctx context.Context, timetableID, teacherID string) (*dto.TeacherScheduleResponse, error) {
	cacheKey := TimetableKey(timetableID, "teacher-schedule", teacherID)
	var cached dto.TeacherScheduleResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	if err := s.ensureTimetable(ctx, timetableID); err != nil {
		return nil, err
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	days, err := s.daySchedules(ctx, models.EntryFilter{TimetableID: timetableID, TeacherID: teacherID})
	if err != nil {
		return nil, err
	}

	periods, err := s.periods.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	used := 0
	for _, day := range days {
		used += len(day.Entries)
	}

	resp := &dto.TeacherScheduleResponse{
		TimetableID: timetableID,
		TeacherID:   teacherID,
		TeacherName: teacher.FullName,
		Days:        days,
		Stats: dto.ResourceUtilizationRow{
			ID:          teacherID,
			Name:        teacher.FullName,
			UsedPeriods: used,
			Percentage:  percentage(used, len(periods)),
		},
	}
	_ = s.cache.Set(ctx, cacheKey, resp)
	return resp, nil
}

func (s *GridService) ensureTimetable(ctx context.Context, timetableID string) error {
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return nil
}

// daySchedules groups decorated entries into canonical day order, sorting
// within each day by the referenced period's sort order. Entries whose
// period is missing sort last.
func (s *GridService) daySchedules(ctx context.Context, filter models.EntryFilter) ([]dto.DaySchedule, error) {
	active := true
	filter.IsActive = &active
	entries, err := s.entries.ListByTimetable(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	views, err := s.decorate(ctx, entries)
	if err != nil {
		return nil, err
	}

	periodIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		periodIDs = append(periodIDs, e.PeriodID)
	}
	periodsByID, err := s.periods.FindByIDs(ctx, dedup(periodIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}

	const missingOrder = int(^uint(0) >> 1)
	orderOf := func(v dto.EntryView) int {
		if p, ok := periodsByID[v.PeriodID]; ok {
			return p.SortOrder
		}
		return missingOrder
	}

	byDay := make(map[models.DayOfWeek][]dto.EntryView)
	for _, v := range views {
		byDay[v.DayOfWeek] = append(byDay[v.DayOfWeek], v)
	}

	days := make([]dto.DaySchedule, 0, len(models.WeekDays))
	for _, day := range models.WeekDays {
		items := byDay[day]
		sort.SliceStable(items, func(i, j int) bool { return orderOf(items[i]) < orderOf(items[j]) })
		if items == nil {
			items = []dto.EntryView{}
		}
		days = append(days, dto.DaySchedule{Day: day, Entries: items})
	}
	return days, nil
}

// decorate resolves class/subject/teacher/period display data through
// explicit batch lookups, keeping the read path free of implicit joins.
func (s *GridService) decorate(ctx context.Context, entries []models.TimetableEntry) ([]dto.EntryView, error) {
	classIDs := make([]string, 0, len(entries))
	subjectIDs := make([]string, 0, len(entries))
	teacherIDs := make([]string, 0, len(entries))
	periodIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		classIDs = append(classIDs, e.ClassID)
		subjectIDs = append(subjectIDs, e.SubjectID)
		periodIDs = append(periodIDs, e.PeriodID)
		if e.TeacherID != nil {
			teacherIDs = append(teacherIDs, *e.TeacherID)
		}
	}

	classes, err := s.classes.FindByIDs(ctx, dedup(classIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up classes")
	}
	subjects, err := s.subjects.FindByIDs(ctx, dedup(subjectIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up subjects")
	}
	teachers, err := s.teachers.FindByIDs(ctx, dedup(teacherIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up teachers")
	}
	periods, err := s.periods.FindByIDs(ctx, dedup(periodIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up periods")
	}

	views := make([]dto.EntryView, 0, len(entries))
	for _, e := range entries {
		view := dto.EntryView{
			ID:          e.ID,
			TimetableID: e.TimetableID,
			ClassID:     e.ClassID,
			SubjectID:   e.SubjectID,
			TeacherID:   e.TeacherID,
			PeriodID:    e.PeriodID,
			DayOfWeek:   e.DayOfWeek,
			RoomNumber:  e.RoomNumber,
			Notes:       e.Notes,
		}
		if c, ok := classes[e.ClassID]; ok {
			view.ClassName = c.Name
		}
		if sub, ok := subjects[e.SubjectID]; ok {
			view.SubjectName = sub.Name
		}
		if e.TeacherID != nil {
			if t, ok := teachers[*e.TeacherID]; ok {
				view.TeacherName = t.FullName
			}
		}
		if p, ok := periods[e.PeriodID]; ok {
			view.PeriodName = p.Name
			view.StartTime = p.StartTime
			view.EndTime = p.EndTime
		}
		views = append(views, view)
	}
	return views, nil
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
