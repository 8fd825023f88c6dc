package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akademia-id/timetable-api/internal/models"
)

// ClassRepository reads class reference records. Classes are owned by the
// roster module; the scheduler only resolves ids to display data.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID loads a class reference by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassRef, error) {
	const query = `SELECT id, name, grade, capacity FROM classes WHERE id = $1`
	var class models.ClassRef
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByIDs batch-loads class references keyed by id.
func (r *ClassRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.ClassRef, error) {
	result := make(map[string]models.ClassRef, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, grade, capacity FROM classes WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build classes lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var classes []models.ClassRef
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("lookup classes: %w", err)
	}
	for _, c := range classes {
		result[c.ID] = c
	}
	return result, nil
}
