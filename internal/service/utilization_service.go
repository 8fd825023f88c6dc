package service

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

// UtilizationService aggregates how much of the period catalog each
// teacher, class, period and room consumes within one timetable.
// Percentages are ratios against the global active-period count, so a
// teacher teaching every period of every day approaches 100%.
type UtilizationService struct {
	entries    conflictEntryLister
	timetables timetableFinder
	periods    periodCatalog
	classes    classLookup
	teachers   teacherLookup
	cache      *CacheService
	logger     *zap.Logger
}

// UtilizationServiceParams groups constructor dependencies.
type UtilizationServiceParams struct {
	Entries    conflictEntryLister
	Timetables timetableFinder
	Periods    periodCatalog
	Classes    classLookup
	Teachers   teacherLookup
	Cache      *CacheService
	Logger     *zap.Logger
}

// NewUtilizationService instantiates UtilizationService.
func NewUtilizationService(params UtilizationServiceParams) *UtilizationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UtilizationService{
		entries:    params.Entries,
		timetables: params.Timetables,
		periods:    params.Periods,
		classes:    params.Classes,
		teachers:   params.Teachers,
		cache:      params.Cache,
		logger:     logger,
	}
}

// Analyze recomputes utilization from the current entry set. Output rows
// are sorted so repeated calls with no intervening writes are identical.
func (s *UtilizationService) Analyze(ctx context.Context, timetableID string) (*dto.UtilizationResponse, error) {
	cacheKey := TimetableKey(timetableID, "utilization")
	var cached dto.UtilizationResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		return nil, notFoundOrInternal(err, "timetable not found", "failed to load timetable")
	}

	periods, err := s.periods.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}

	active := true
	entries, err := s.entries.ListByTimetable(ctx, models.EntryFilter{TimetableID: timetableID, IsActive: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	totalPeriods := len(periods)

	teacherUsed := make(map[string]int)
	classUsed := make(map[string]int)
	periodEntries := make(map[string]int)
	periodClasses := make(map[string]map[string]struct{})
	roomUsed := make(map[string]int)
	roomClasses := make(map[string]map[string]struct{})

	for _, e := range entries {
		classUsed[e.ClassID]++
		if e.TeacherID != nil {
			teacherUsed[*e.TeacherID]++
		}
		periodEntries[e.PeriodID]++
		if periodClasses[e.PeriodID] == nil {
			periodClasses[e.PeriodID] = make(map[string]struct{})
		}
		periodClasses[e.PeriodID][e.ClassID] = struct{}{}
		if e.RoomNumber != nil {
			room := *e.RoomNumber
			roomUsed[room]++
			if roomClasses[room] == nil {
				roomClasses[room] = make(map[string]struct{})
			}
			roomClasses[room][e.ClassID] = struct{}{}
		}
	}

	teacherRefs, err := s.teachers.FindByIDs(ctx, mapKeys(teacherUsed))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up teachers")
	}
	classRefs, err := s.classes.FindByIDs(ctx, mapKeys(classUsed))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up classes")
	}

	resp := &dto.UtilizationResponse{
		TimetableID:        timetableID,
		TotalActivePeriods: totalPeriods,
		TotalEntries:       len(entries),
		Teachers:           []dto.ResourceUtilizationRow{},
		Classes:            []dto.ResourceUtilizationRow{},
		Periods:            []dto.PeriodUtilizationRow{},
		Rooms:              []dto.RoomUtilizationRow{},
	}

	for _, id := range sortedKeys(teacherUsed) {
		row := dto.ResourceUtilizationRow{
			ID:          id,
			UsedPeriods: teacherUsed[id],
			Percentage:  percentage(teacherUsed[id], totalPeriods),
		}
		if ref, ok := teacherRefs[id]; ok {
			row.Name = ref.FullName
		}
		resp.Teachers = append(resp.Teachers, row)
	}

	for _, id := range sortedKeys(classUsed) {
		row := dto.ResourceUtilizationRow{
			ID:          id,
			UsedPeriods: classUsed[id],
			Percentage:  percentage(classUsed[id], totalPeriods),
		}
		if ref, ok := classRefs[id]; ok {
			row.Name = ref.Name
		}
		resp.Classes = append(resp.Classes, row)
	}

	// The catalog query orders days alphabetically; re-sort into the
	// canonical Monday-first week so the rows match grid display order.
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].DayOfWeek != periods[j].DayOfWeek {
			return periods[i].DayOfWeek.Ordinal() < periods[j].DayOfWeek.Ordinal()
		}
		if periods[i].SortOrder != periods[j].SortOrder {
			return periods[i].SortOrder < periods[j].SortOrder
		}
		return periods[i].StartTime < periods[j].StartTime
	})
	for _, p := range periods {
		resp.Periods = append(resp.Periods, dto.PeriodUtilizationRow{
			PeriodID:      p.ID,
			PeriodName:    p.Name,
			DayOfWeek:     p.DayOfWeek,
			EntryCount:    periodEntries[p.ID],
			DistinctClass: len(periodClasses[p.ID]),
		})
	}

	for _, room := range sortedKeys(roomUsed) {
		resp.Rooms = append(resp.Rooms, dto.RoomUtilizationRow{
			RoomNumber:    room,
			UsageCount:    roomUsed[room],
			DistinctClass: len(roomClasses[room]),
		})
	}

	_ = s.cache.Set(ctx, cacheKey, resp)
	return resp, nil
}

// percentage computes used/total as a percent rounded to two decimals.
func percentage(used, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(used)/float64(total)*10000) / 100
}

func mapKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func sortedKeys(m map[string]int) []string {
	keys := mapKeys(m)
	sort.Strings(keys)
	return keys
}
