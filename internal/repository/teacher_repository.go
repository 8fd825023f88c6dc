package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akademia-id/timetable-api/internal/models"
)

// TeacherRepository reads teacher reference records for schedule display.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID loads a teacher reference by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherRef, error) {
	const query = `SELECT id, full_name, email, active FROM teachers WHERE id = $1`
	var teacher models.TeacherRef
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByIDs batch-loads teacher references keyed by id.
func (r *TeacherRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.TeacherRef, error) {
	result := make(map[string]models.TeacherRef, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, email, active FROM teachers WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build teachers lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var teachers []models.TeacherRef
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("lookup teachers: %w", err)
	}
	for _, t := range teachers {
		result[t.ID] = t
	}
	return result, nil
}
