package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
)

func newArrangementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "request_group_id", "session_type", "start_date", "description", "request_status", "approval_comment", "approved_at", "updated_at"})
}

func TestArrangementRepositoryListNonTerminalByStaffAndDates(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	date := time.Date(2023, 10, 4, 0, 0, 0, 0, time.UTC)
	rows := requestRows().
		AddRow("req-1", "group-1", string(models.SessionFullDay), date, "wfh", string(models.RequestStatusPending), nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.staff_id = $1 AND r.request_status IN ($2, $3) AND r.start_date IN ($4)")).
		WithArgs("staff-1", string(models.RequestStatusPending), string(models.RequestStatusApproved), date).
		WillReturnRows(rows)

	requests, err := repo.ListNonTerminalByStaffAndDates(context.Background(), nil, "staff-1", []time.Time{date})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, models.RequestStatusPending, requests[0].RequestStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArrangementRepositoryListNonTerminalEmptyDates(t *testing.T) {
	db, _, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	requests, err := repo.ListNonTerminalByStaffAndDates(context.Background(), nil, "staff-1", nil)
	require.NoError(t, err)
	assert.Nil(t, requests)
}

func TestArrangementRepositoryCreateGroupWithRequests(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_groups")).
		WithArgs(sqlmock.AnyArg(), "staff-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO arrangement_requests")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), string(models.SessionFullDay), sqlmock.AnyArg(), "wfh", string(models.RequestStatusPending), nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	group := &models.RequestGroup{StaffID: "staff-1"}
	requests := []models.ArrangementRequest{{
		SessionType:   models.SessionFullDay,
		StartDate:     time.Date(2023, 10, 4, 0, 0, 0, 0, time.UTC),
		Description:   "wfh",
		RequestStatus: models.RequestStatusPending,
	}}
	require.NoError(t, repo.CreateGroupWithRequests(context.Background(), tx, group, requests))

	assert.NotEmpty(t, group.ID)
	assert.Equal(t, group.ID, requests[0].RequestGroupID)
	assert.NotEmpty(t, requests[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArrangementRepositoryCreateGroupRequiresTx(t *testing.T) {
	db, _, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	err := repo.CreateGroupWithRequests(context.Background(), nil, &models.RequestGroup{StaffID: "staff-1"}, nil)
	require.Error(t, err)
}

func TestArrangementRepositoryFindGroupByID(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "staff_id", "created_at"}).
		AddRow("group-1", "staff-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, staff_id, created_at FROM request_groups WHERE id = $1")).
		WithArgs("group-1").
		WillReturnRows(rows)

	group, err := repo.FindGroupByID(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", group.StaffID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArrangementRepositoryFindGroupByIDNotFound(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM request_groups WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindGroupByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArrangementRepositoryListDetailsByStatus(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "request_group_id", "session_type", "start_date", "description", "request_status", "approval_comment", "approved_at", "updated_at", "staff_id", "first_name", "last_name"}).
		AddRow("req-1", "group-1", string(models.SessionAM), time.Now(), "wfh", string(models.RequestStatusPending), nil, nil, time.Now(), "staff-1", "John", "Doe")
	mock.ExpectQuery(regexp.QuoteMeta("AND s.reporting_manager = $1 AND r.request_status = $2 ORDER BY r.start_date ASC, r.id ASC")).
		WithArgs("manager-1", string(models.RequestStatusPending)).
		WillReturnRows(rows)

	details, err := repo.ListDetails(context.Background(), models.ArrangementRequestFilter{
		ReportingTo: "manager-1",
		Status:      models.RequestStatusPending,
	})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "John", details[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArrangementRepositoryUpdateStatusWithTx(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	comment := "ok"
	approvedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE arrangement_requests SET request_status = $1, approval_comment = $2, approved_at = $3, updated_at = $4 WHERE id = $5")).
		WithArgs(string(models.RequestStatusApproved), comment, approvedAt, sqlmock.AnyArg(), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.UpdateStatusWithTx(context.Background(), tx, "req-1", models.RequestStatusApproved, &comment, &approvedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArrangementRepositoryUpdateStatusWithTxNoRows(t *testing.T) {
	db, mock, cleanup := newArrangementRepoMock(t)
	defer cleanup()
	repo := NewArrangementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE arrangement_requests SET")).
		WithArgs(string(models.RequestStatusRejected), nil, nil, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.UpdateStatusWithTx(context.Background(), tx, "missing", models.RequestStatusRejected, nil, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
