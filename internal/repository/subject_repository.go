package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akademia-id/timetable-api/internal/models"
)

// SubjectRepository reads subject reference records, including the class
// each subject belongs to.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID loads a subject reference by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.SubjectRef, error) {
	const query = `SELECT id, code, name, class_id FROM subjects WHERE id = $1`
	var subject models.SubjectRef
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByIDs batch-loads subject references keyed by id.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.SubjectRef, error) {
	result := make(map[string]models.SubjectRef, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, code, name, class_id FROM subjects WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build subjects lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var subjects []models.SubjectRef
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("lookup subjects: %w", err)
	}
	for _, s := range subjects {
		result[s.ID] = s
	}
	return result, nil
}
