package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademia-id/timetable-api/internal/models"
)

const entryColumns = "id, timetable_id, class_id, subject_id, teacher_id, period_id, day_of_week, room_number, notes, is_active, created_at, updated_at"

// EntryRepository provides persistence for timetable entries.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// InTx runs fn inside a transaction, rolling back on error.
func (r *EntryRepository) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entry tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry tx: %w", err)
	}
	return nil
}

// LockSlot takes a transaction-scoped advisory lock for one
// (timetable, period, day) slot. Two placements racing on the same slot
// serialize here, so the check-then-insert sequence cannot interleave.
func (r *EntryRepository) LockSlot(ctx context.Context, tx *sqlx.Tx, timetableID, periodID string, day models.DayOfWeek) error {
	key := fmt.Sprintf("%s:%s:%s", timetableID, periodID, day)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock slot %s: %w", key, err)
	}
	return nil
}

// ListBySlot returns the active entries occupying one period slot.
func (r *EntryRepository) ListBySlot(ctx context.Context, timetableID, periodID string, day models.DayOfWeek) ([]models.TimetableEntry, error) {
	return listBySlot(ctx, r.db, timetableID, periodID, day)
}

// ListBySlotTx is ListBySlot against an open transaction, so a placement
// sees rows inserted earlier in the same batch.
func (r *EntryRepository) ListBySlotTx(ctx context.Context, tx *sqlx.Tx, timetableID, periodID string, day models.DayOfWeek) ([]models.TimetableEntry, error) {
	return listBySlot(ctx, tx, timetableID, periodID, day)
}

func listBySlot(ctx context.Context, q sqlx.QueryerContext, timetableID, periodID string, day models.DayOfWeek) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE timetable_id = $1 AND period_id = $2 AND day_of_week = $3 AND is_active = TRUE", entryColumns)
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, q, &entries, query, timetableID, periodID, day); err != nil {
		return nil, fmt.Errorf("list slot entries: %w", err)
	}
	return entries, nil
}

// ListByTimetable returns entries of a timetable with optional filtering.
func (r *EntryRepository) ListByTimetable(ctx context.Context, filter models.EntryFilter) ([]models.TimetableEntry, error) {
	conditions := []string{"timetable_id = $1"}
	args := []interface{}{filter.TimetableID}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.DayOfWeek))
	}
	if filter.RoomNumber != "" {
		conditions = append(conditions, fmt.Sprintf("room_number = $%d", len(args)+1))
		args = append(args, filter.RoomNumber)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE %s ORDER BY day_of_week ASC, period_id ASC", entryColumns, strings.Join(conditions, " AND "))
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// FindByID loads an entry by id.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE id = $1", entryColumns)
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateTx inserts a new entry using an open transaction.
func (r *EntryRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO timetable_entries (id, timetable_id, class_id, subject_id, teacher_id, period_id, day_of_week, room_number, notes, is_active, created_at, updated_at) VALUES (:id, :timetable_id, :class_id, :subject_id, :teacher_id, :period_id, :day_of_week, :room_number, :notes, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, entry); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// UpdateTx modifies an entry record using an open transaction.
func (r *EntryRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET class_id = :class_id, subject_id = :subject_id, teacher_id = :teacher_id, period_id = :period_id, day_of_week = :day_of_week, room_number = :room_number, notes = :notes, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, entry); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// CountByTimetable returns how many entries a timetable owns.
func (r *EntryRepository) CountByTimetable(ctx context.Context, timetableID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM timetable_entries WHERE timetable_id = $1`, timetableID); err != nil {
		return 0, fmt.Errorf("count timetable entries: %w", err)
	}
	return count, nil
}

// CopyEntriesTx duplicates every entry of the source timetable into the
// target within the caller's transaction, returning the copied count.
// Identity and timestamps are regenerated; all scheduling fields carry over.
func (r *EntryRepository) CopyEntriesTx(ctx context.Context, tx *sqlx.Tx, sourceID, targetID string) (int, error) {
	const query = `INSERT INTO timetable_entries (id, timetable_id, class_id, subject_id, teacher_id, period_id, day_of_week, room_number, notes, is_active, created_at, updated_at)
		SELECT gen_random_uuid(), $2, class_id, subject_id, teacher_id, period_id, day_of_week, room_number, notes, is_active, NOW(), NOW()
		FROM timetable_entries WHERE timetable_id = $1`
	res, err := tx.ExecContext(ctx, query, sourceID, targetID)
	if err != nil {
		return 0, fmt.Errorf("copy timetable entries: %w", err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count copied entries: %w", err)
	}
	return int(copied), nil
}

// DeleteByTimetableTx removes all entries of a timetable inside the
// caller's transaction. Used by the cascade when a timetable is destroyed.
func (r *EntryRepository) DeleteByTimetableTx(ctx context.Context, tx *sqlx.Tx, timetableID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE timetable_id = $1`, timetableID); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}
