package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/dto"
	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, timetable *models.Timetable) error
	Update(ctx context.Context, timetable *models.Timetable) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type timetableEntryStore interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	CopyEntriesTx(ctx context.Context, tx *sqlx.Tx, sourceID, targetID string) (int, error)
	DeleteByTimetableTx(ctx context.Context, tx *sqlx.Tx, timetableID string) error
	CountByTimetable(ctx context.Context, timetableID string) (int, error)
}

// CreateTimetableRequest describes payload for creating a timetable.
type CreateTimetableRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	EffectiveFrom string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveTo   *string `json:"effective_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// UpdateTimetableRequest updates an existing timetable.
type UpdateTimetableRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	EffectiveFrom string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveTo   *string `json:"effective_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// TimetableService manages timetable containers and the clone operation.
type TimetableService struct {
	repo      timetableRepository
	entries   timetableEntryStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService instantiates TimetableService.
func NewTimetableService(repo timetableRepository, entries timetableEntryStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, entries: entries, cache: cache, validator: validate, logger: logger}
}

// List returns timetables with pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, error) {
	timetables, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return timetables, pagination, nil
}

// Get loads a single timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "timetable not found", "failed to load timetable")
	}
	return timetable, nil
}

// Create stores a new timetable container.
func (s *TimetableService) Create(ctx context.Context, req CreateTimetableRequest) (*models.Timetable, error) {
	timetable, err := s.buildTimetable(req.Name, req.Description, req.EffectiveFrom, req.EffectiveTo, req.IsActive)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return timetable, nil
}

// Update modifies an existing timetable container.
func (s *TimetableService) Update(ctx context.Context, id string, req UpdateTimetableRequest) (*models.Timetable, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "timetable not found", "failed to load timetable")
	}

	updated, err := s.buildTimetable(req.Name, req.Description, req.EffectiveFrom, req.EffectiveTo, req.IsActive)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Delete destroys a timetable and cascades to its owned entries within
// one transaction.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOrInternal(err, "timetable not found", "failed to load timetable")
	}

	err := s.entries.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.entries.DeleteByTimetableTx(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.invalidate(ctx, id)
	return nil
}

// Copy clones every entry of the source timetable into a freshly created
// one. The source is assumed already conflict-free, so entries are copied
// without re-running placement checks.
func (s *TimetableService) Copy(ctx context.Context, sourceID string, req CreateTimetableRequest) (*dto.CopyTimetableResponse, error) {
	if _, err := s.repo.FindByID(ctx, sourceID); err != nil {
		return nil, notFoundOrInternal(err, "source timetable not found", "failed to load source timetable")
	}

	target, err := s.buildTimetable(req.Name, req.Description, req.EffectiveFrom, req.EffectiveTo, req.IsActive)
	if err != nil {
		return nil, err
	}

	var copied int
	err = s.entries.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateTx(ctx, tx, target); err != nil {
			return err
		}
		copied, err = s.entries.CopyEntriesTx(ctx, tx, sourceID, target.ID)
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy timetable")
	}

	s.logger.Info("timetable copied",
		zap.String("source_id", sourceID),
		zap.String("target_id", target.ID),
		zap.Int("entries_copied", copied),
	)
	return &dto.CopyTimetableResponse{Timetable: *target, EntriesCopied: copied}, nil
}

func (s *TimetableService) buildTimetable(name, description, from string, to *string, isActive *bool) (*models.Timetable, error) {
	req := CreateTimetableRequest{Name: name, Description: description, EffectiveFrom: from, EffectiveTo: to, IsActive: isActive}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	effectiveFrom, err := parseDate(from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid effective_from date")
	}

	timetable := &models.Timetable{
		Name:          name,
		Description:   description,
		EffectiveFrom: effectiveFrom,
		IsActive:      true,
	}
	if isActive != nil {
		timetable.IsActive = *isActive
	}
	if to != nil && *to != "" {
		effectiveTo, err := parseDate(*to)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid effective_to date")
		}
		if !effectiveTo.After(effectiveFrom) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "effective_to must be after effective_from")
		}
		timetable.EffectiveTo = &effectiveTo
	}
	return timetable, nil
}

func (s *TimetableService) invalidate(ctx context.Context, timetableID string) {
	if s.cache != nil {
		s.cache.InvalidateTimetable(ctx, timetableID)
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// notFoundOrInternal maps sql.ErrNoRows onto the 404 sentinel and wraps
// anything else as an internal failure.
func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMsg)
}
