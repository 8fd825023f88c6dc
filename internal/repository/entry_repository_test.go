package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademia-id/timetable-api/internal/models"
)

func newEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "timetable_id", "class_id", "subject_id", "teacher_id", "period_id", "day_of_week", "room_number", "notes", "is_active", "created_at", "updated_at"})
}

func TestEntryRepositoryListBySlot(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	rows := entryRows().
		AddRow("e1", "tt1", "c1", "s1", "t1", "p1", "MONDAY", "R101", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, timetable_id, class_id, subject_id, teacher_id, period_id, day_of_week, room_number, notes, is_active, created_at, updated_at FROM timetable_entries WHERE timetable_id = $1 AND period_id = $2 AND day_of_week = $3 AND is_active = TRUE")).
		WithArgs("tt1", "p1", models.Monday).
		WillReturnRows(rows)

	entries, err := repo.ListBySlot(context.Background(), "tt1", "p1", models.Monday)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryListByTimetableFilters(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, timetable_id, class_id, subject_id, teacher_id, period_id, day_of_week, room_number, notes, is_active, created_at, updated_at FROM timetable_entries WHERE timetable_id = $1 AND class_id = $2 AND day_of_week = $3 ORDER BY day_of_week ASC, period_id ASC")).
		WithArgs("tt1", "c1", "FRIDAY").
		WillReturnRows(entryRows())

	entries, err := repo.ListByTimetable(context.Background(), models.EntryFilter{
		TimetableID: "tt1",
		ClassID:     "c1",
		DayOfWeek:   "friday",
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryPlaceWithinTx(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("tt1:p1:MONDAY").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx *sqlx.Tx) error {
		if err := repo.LockSlot(context.Background(), tx, "tt1", "p1", models.Monday); err != nil {
			return err
		}
		return repo.CreateTx(context.Background(), tx, &models.TimetableEntry{
			TimetableID: "tt1",
			ClassID:     "c1",
			SubjectID:   "s1",
			PeriodID:    "p1",
			DayOfWeek:   models.Monday,
			IsActive:    true,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryInTxRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := assert.AnError
	err := repo.InTx(context.Background(), func(tx *sqlx.Tx) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCopyEntriesTx(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs("tt1", "tt2").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	var copied int
	err := repo.InTx(context.Background(), func(tx *sqlx.Tx) error {
		var err error
		copied, err = repo.CopyEntriesTx(context.Background(), tx, "tt1", "tt2")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 12, copied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryDeleteByTimetableTx(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE timetable_id = $1")).
		WithArgs("tt1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx *sqlx.Tx) error {
		return repo.DeleteByTimetableTx(context.Background(), tx, "tt1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCountByTimetable(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_entries WHERE timetable_id = $1")).
		WithArgs("tt1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByTimetable(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
