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

func newNotificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(sqlmock.AnyArg(), "staff-1", "Your request was approved", string(models.NotificationRequestApproved), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{
		StaffID: "staff-1",
		Message: "Your request was approved",
		Type:    models.NotificationRequestApproved,
	}
	require.NoError(t, repo.Create(context.Background(), notification))

	assert.NotEmpty(t, notification.ID)
	assert.False(t, notification.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListByStaff(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "staff_id", "message", "type", "read", "created_at"}).
		AddRow("notif-2", "staff-1", "newer", string(models.NotificationRequestApproved), false, time.Now()).
		AddRow("notif-1", "staff-1", "older", string(models.NotificationRequestCreated), true, time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE staff_id = $1 ORDER BY created_at DESC")).
		WithArgs("staff-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByStaff(context.Background(), "staff-1")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "notif-2", notifications[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkRead(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE id = $1 AND staff_id = $2")).
		WithArgs("notif-1", "staff-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRead(context.Background(), "notif-1", "staff-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadWrongOwner(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE")).
		WithArgs("notif-1", "staff-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "notif-1", "staff-2")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
