package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type placementEntryRepository interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	LockSlot(ctx context.Context, tx *sqlx.Tx, timetableID, periodID string, day models.DayOfWeek) error
	ListBySlotTx(ctx context.Context, tx *sqlx.Tx, timetableID, periodID string, day models.DayOfWeek) ([]models.TimetableEntry, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	Delete(ctx context.Context, id string) error
}

type timetableFinder interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
}

type periodFinder interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Period, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.SubjectRef, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.SubjectRef, error)
}

// PlaceEntryRequest describes the payload for placing a single entry.
type PlaceEntryRequest struct {
	ClassID    string  `json:"class_id" validate:"required"`
	SubjectID  string  `json:"subject_id" validate:"required"`
	TeacherID  *string `json:"teacher_id,omitempty"`
	PeriodID   string  `json:"period_id" validate:"required"`
	DayOfWeek  string  `json:"day_of_week" validate:"required"`
	RoomNumber *string `json:"room_number,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// BulkPlaceRequest holds multiple placements inserted atomically.
type BulkPlaceRequest struct {
	Items []PlaceEntryRequest `json:"items" validate:"required,min=1,dive"`
}

// PlacementService is the single mutation gateway for timetable entries.
// Every write runs the precondition and conflict checks before anything
// is persisted, and the check-then-write sequence holds a slot-scoped
// advisory lock so racing placements on one slot serialize.
type PlacementService struct {
	entries      placementEntryRepository
	timetables   timetableFinder
	periods      periodFinder
	subjects     subjectFinder
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	maxBulkItems int
}

// PlacementServiceParams groups constructor dependencies.
type PlacementServiceParams struct {
	Entries      placementEntryRepository
	Timetables   timetableFinder
	Periods      periodFinder
	Subjects     subjectFinder
	Cache        *CacheService
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	MaxBulkItems int
}

// NewPlacementService instantiates PlacementService.
func NewPlacementService(params PlacementServiceParams) *PlacementService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBulk := params.MaxBulkItems
	if maxBulk <= 0 {
		maxBulk = 200
	}
	return &PlacementService{
		entries:      params.Entries,
		timetables:   params.Timetables,
		periods:      params.Periods,
		subjects:     params.Subjects,
		cache:        params.Cache,
		metrics:      params.Metrics,
		validator:    validate,
		logger:       logger,
		maxBulkItems: maxBulk,
	}
}

// Place validates and inserts a single entry. The specific violated axis
// is reported on failure and nothing is persisted.
func (s *PlacementService) Place(ctx context.Context, timetableID string, req PlaceEntryRequest) (*models.TimetableEntry, error) {
	draft, err := s.buildDraft(ctx, timetableID, req)
	if err != nil {
		s.recordPlacement("rejected", err)
		return nil, err
	}

	err = s.entries.InTx(ctx, func(tx *sqlx.Tx) error {
		return s.placeInSlot(ctx, tx, draft, false)
	})
	if err != nil {
		s.recordPlacement("conflict", err)
		return nil, err
	}

	s.recordPlacement("placed", nil)
	s.invalidate(ctx, timetableID)
	return draft, nil
}

// Update moves an existing entry to the requested slot, running the same
// checks as Place. Re-submitting an entry against its own current slot is
// a no-op success, not a conflict.
func (s *PlacementService) Update(ctx context.Context, timetableID, entryID string, req PlaceEntryRequest) (*models.TimetableEntry, error) {
	existing, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}
	if existing.TimetableID != timetableID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "entry not found in this timetable")
	}

	draft, err := s.buildDraft(ctx, timetableID, req)
	if err != nil {
		s.recordPlacement("rejected", err)
		return nil, err
	}
	draft.ID = existing.ID
	draft.CreatedAt = existing.CreatedAt

	err = s.entries.InTx(ctx, func(tx *sqlx.Tx) error {
		return s.placeInSlot(ctx, tx, draft, true)
	})
	if err != nil {
		s.recordPlacement("conflict", err)
		return nil, err
	}

	s.recordPlacement("placed", nil)
	s.invalidate(ctx, timetableID)
	return draft, nil
}

// Delete removes a single entry from its timetable.
func (s *PlacementService) Delete(ctx context.Context, timetableID, entryID string) error {
	existing, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}
	if existing.TimetableID != timetableID {
		return appErrors.Clone(appErrors.ErrNotFound, "entry not found in this timetable")
	}
	if err := s.entries.Delete(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete entry")
	}
	s.invalidate(ctx, timetableID)
	return nil
}

// BulkPlace inserts a batch of entries in one transaction. The first
// conflict aborts the whole batch; no entries survive a failure. Later
// items see earlier items of the same batch because the checks run inside
// the shared transaction.
func (s *PlacementService) BulkPlace(ctx context.Context, timetableID string, req BulkPlaceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk placement payload")
	}
	if len(req.Items) > s.maxBulkItems {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bulk placement limited to %d items", s.maxBulkItems))
	}

	drafts := make([]*models.TimetableEntry, 0, len(req.Items))
	for i, item := range req.Items {
		draft, err := s.buildDraft(ctx, timetableID, item)
		if err != nil {
			s.recordPlacement("rejected", err)
			appErr := appErrors.FromError(err)
			return 0, appErrors.Clone(appErr, fmt.Sprintf("item %d: %s", i, appErr.Message))
		}
		drafts = append(drafts, draft)
	}

	err := s.entries.InTx(ctx, func(tx *sqlx.Tx) error {
		for i, draft := range drafts {
			if err := s.placeInSlot(ctx, tx, draft, false); err != nil {
				appErr := appErrors.FromError(err)
				return appErrors.Clone(appErr, fmt.Sprintf("item %d: %s", i, appErr.Message))
			}
		}
		return nil
	})
	if err != nil {
		s.recordPlacement("conflict", err)
		return 0, err
	}

	s.recordPlacement("placed", nil)
	s.invalidate(ctx, timetableID)
	return len(drafts), nil
}

// buildDraft validates the payload and runs the referential preconditions:
// the timetable and period must exist, the entry day must equal the
// period's day, and the subject must belong to the entry's class.
func (s *PlacementService) buildDraft(ctx context.Context, timetableID string, req PlaceEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	day, err := models.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day of week")
	}

	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	if period.DayOfWeek != day {
		return nil, appErrors.Clone(appErrors.ErrPeriodDayMismatch,
			fmt.Sprintf("period %s is defined for %s, not %s", period.ID, period.DayOfWeek, day))
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.ClassID != req.ClassID {
		return nil, appErrors.Clone(appErrors.ErrSubjectClassMismatch,
			fmt.Sprintf("subject %s belongs to class %s", subject.ID, subject.ClassID))
	}

	return &models.TimetableEntry{
		TimetableID: timetableID,
		ClassID:     req.ClassID,
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
		PeriodID:    req.PeriodID,
		DayOfWeek:   day,
		RoomNumber:  req.RoomNumber,
		Notes:       req.Notes,
		IsActive:    true,
	}, nil
}

// placeInSlot locks the target slot, checks the conflict axes in class,
// teacher, room order (the first violation wins) and persists the draft.
// Must run inside the caller's transaction.
func (s *PlacementService) placeInSlot(ctx context.Context, tx *sqlx.Tx, draft *models.TimetableEntry, isUpdate bool) error {
	if err := s.entries.LockSlot(ctx, tx, draft.TimetableID, draft.PeriodID, draft.DayOfWeek); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock slot")
	}

	occupants, err := s.entries.ListBySlotTx(ctx, tx, draft.TimetableID, draft.PeriodID, draft.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot occupancy")
	}

	if err := s.checkAxes(occupants, draft, isUpdate); err != nil {
		return err
	}

	if isUpdate {
		if err := s.entries.UpdateTx(ctx, tx, draft); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry")
		}
		return nil
	}
	if err := s.entries.CreateTx(ctx, tx, draft); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create entry")
	}
	return nil
}

func (s *PlacementService) checkAxes(occupants []models.TimetableEntry, draft *models.TimetableEntry, isUpdate bool) error {
	for _, other := range occupants {
		if other.ID == draft.ID {
			continue
		}
		if other.ClassID == draft.ClassID {
			return s.conflictError(models.ConflictAxisClass, appErrors.ErrClassConflict, other)
		}
	}

	if draft.TeacherID != nil {
		for _, other := range occupants {
			if other.ID == draft.ID {
				continue
			}
			// A teacher substituting the same class across an edit is
			// not a new conflict.
			if isUpdate && other.ClassID == draft.ClassID {
				continue
			}
			if other.TeacherID != nil && *other.TeacherID == *draft.TeacherID {
				return s.conflictError(models.ConflictAxisTeacher, appErrors.ErrTeacherConflict, other)
			}
		}
	}

	if draft.RoomNumber != nil {
		for _, other := range occupants {
			if other.ID == draft.ID {
				continue
			}
			if other.RoomNumber != nil && *other.RoomNumber == *draft.RoomNumber {
				return s.conflictError(models.ConflictAxisRoom, appErrors.ErrRoomConflict, other)
			}
		}
	}

	return nil
}

func (s *PlacementService) conflictError(axis models.ConflictAxis, sentinel *appErrors.Error, existing models.TimetableEntry) error {
	if s.metrics != nil {
		s.metrics.RecordConflict(string(axis))
	}
	domainErr := &models.EntryConflictError{
		Axis:     axis,
		Message:  sentinel.Message,
		Conflict: models.NewEntryConflict(existing, axis),
	}
	return appErrors.Wrap(domainErr, sentinel.Code, sentinel.Status, sentinel.Message)
}

func (s *PlacementService) recordPlacement(outcome string, err error) {
	if s.metrics != nil {
		s.metrics.RecordPlacement(outcome)
	}
	if err != nil {
		s.logger.Debug("placement failed", zap.String("outcome", outcome), zap.Error(err))
	}
}

func (s *PlacementService) invalidate(ctx context.Context, timetableID string) {
	if s.cache != nil {
		s.cache.InvalidateTimetable(ctx, timetableID)
	}
}
