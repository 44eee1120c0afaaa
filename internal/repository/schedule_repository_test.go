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

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryListByStaffAndRange(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	start := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 10, 6, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "staff_id", "start_date", "session_type", "description", "request_id", "updated_at"}).
		AddRow("sch-1", "staff-1", start, string(models.SessionFullDay), "wfh", "req-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE staff_id = $1 AND start_date BETWEEN $2 AND $3 ORDER BY start_date ASC")).
		WithArgs("staff-1", start, end).
		WillReturnRows(rows)

	schedules, err := repo.ListByStaffAndRange(context.Background(), "staff-1", start, end)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, models.SessionFullDay, schedules[0].SessionType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListEntriesByStaffAndRange(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	start := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 10, 6, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "staff_id", "start_date", "session_type", "description", "request_id", "updated_at", "first_name", "last_name", "department", "position"}).
		AddRow("sch-1", "staff-1", start, string(models.SessionAM), "wfh", "req-1", time.Now(), "John", "Doe", "Engineering", "Developer")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.start_date BETWEEN $1 AND $2 AND c.staff_id IN ($3, $4)")).
		WithArgs(start, end, "staff-1", "staff-2").
		WillReturnRows(rows)

	entries, err := repo.ListEntriesByStaffAndRange(context.Background(), []string{"staff-1", "staff-2"}, start, end)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Engineering", entries[0].Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListEntriesEmptyStaffIDs(t *testing.T) {
	db, _, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	entries, err := repo.ListEntriesByStaffAndRange(context.Background(), nil, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestScheduleRepositoryUpsertWithTx(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	date := time.Date(2023, 10, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "staff-1", date, string(models.SessionFullDay), "wfh", "req-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	schedule := &models.Schedule{
		StaffID:     "staff-1",
		StartDate:   date,
		SessionType: models.SessionFullDay,
		Description: "wfh",
		RequestID:   "req-1",
	}
	require.NoError(t, repo.UpsertWithTx(context.Background(), tx, schedule))

	assert.NotEmpty(t, schedule.ID)
	assert.False(t, schedule.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpsertRequiresTx(t *testing.T) {
	db, _, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	err := repo.UpsertWithTx(context.Background(), nil, &models.Schedule{StaffID: "staff-1"})
	require.Error(t, err)
}

func TestScheduleRepositoryDeleteForRequestWithTx(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	date := time.Date(2023, 10, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE staff_id = $1 AND start_date = $2 AND session_type = $3 AND request_id = $4")).
		WithArgs("staff-1", date, string(models.SessionFullDay), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.DeleteForRequestWithTx(context.Background(), tx, "staff-1", date, models.SessionFullDay, "req-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
