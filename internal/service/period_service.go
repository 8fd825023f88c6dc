package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akademia-id/timetable-api/internal/models"
	appErrors "github.com/akademia-id/timetable-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	ExistsBySlot(ctx context.Context, day models.DayOfWeek, startTime, endTime, excludeID string) (bool, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
}

// UpsertPeriodRequest is shared between create and update because both
// carry the full period definition.
type UpsertPeriodRequest struct {
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	DayOfWeek string `json:"day_of_week" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// PeriodService owns the period catalog.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService instantiates PeriodService.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns catalog periods with pagination metadata.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, *models.Pagination, error) {
	if filter.DayOfWeek != "" {
		day, err := models.ParseDayOfWeek(filter.DayOfWeek)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day_of_week filter")
		}
		filter.DayOfWeek = string(day)
	}

	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return periods, pagination, nil
}

// Get loads one period.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "period not found", "failed to load period")
	}
	return period, nil
}

// Create adds a period to the catalog. Two active periods may not share
// the same day and time window.
func (s *PeriodService) Create(ctx context.Context, req UpsertPeriodRequest) (*models.Period, error) {
	period, err := s.buildPeriod(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueSlot(ctx, period, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	return period, nil
}

// Update replaces a period definition. Placed entries keep referencing
// the period by id, so renaming or shifting times is reflected in every
// projection immediately.
func (s *PeriodService) Update(ctx context.Context, id string, req UpsertPeriodRequest) (*models.Period, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "period not found", "failed to load period")
	}

	period, err := s.buildPeriod(req)
	if err != nil {
		return nil, err
	}
	period.ID = existing.ID
	period.CreatedAt = existing.CreatedAt

	if err := s.ensureUniqueSlot(ctx, period, period.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	return period, nil
}

func (s *PeriodService) buildPeriod(req UpsertPeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}

	day, err := models.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day_of_week")
	}

	start, _ := time.Parse("15:04", req.StartTime)
	end, _ := time.Parse("15:04", req.EndTime)
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	period := &models.Period{
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		DayOfWeek: day,
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if req.IsActive != nil {
		period.IsActive = *req.IsActive
	}
	return period, nil
}

func (s *PeriodService) ensureUniqueSlot(ctx context.Context, period *models.Period, excludeID string) error {
	exists, err := s.repo.ExistsBySlot(ctx, period.DayOfWeek, period.StartTime, period.EndTime, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period slot")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicatePeriod, "a period already exists for this day and time window")
	}
	return nil
}
