package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
)

type arrangementStoreStub struct {
	groups      map[string]*models.RequestGroup
	requests    map[string][]models.ArrangementRequest
	conflicts   []models.ArrangementRequest
	updateErr   error
	lastFilter  models.ArrangementRequestFilter
	createCalls int
}

func newArrangementStoreStub() *arrangementStoreStub {
	return &arrangementStoreStub{
		groups:   make(map[string]*models.RequestGroup),
		requests: make(map[string][]models.ArrangementRequest),
	}
}

func (s *arrangementStoreStub) ListNonTerminalByStaffAndDates(ctx context.Context, tx *sqlx.Tx, staffID string, dates []time.Time) ([]models.ArrangementRequest, error) {
	return s.conflicts, nil
}

func (s *arrangementStoreStub) CreateGroupWithRequests(ctx context.Context, tx *sqlx.Tx, group *models.RequestGroup, requests []models.ArrangementRequest) error {
	s.createCalls++
	group.ID = "group-1"
	group.CreatedAt = time.Now().UTC()
	for i := range requests {
		requests[i].ID = group.ID + "-" + requests[i].StartDate.Format(models.DateLayout)
		requests[i].RequestGroupID = group.ID
	}
	s.groups[group.ID] = group
	s.requests[group.ID] = append([]models.ArrangementRequest(nil), requests...)
	return nil
}

func (s *arrangementStoreStub) FindGroupByID(ctx context.Context, id string) (*models.RequestGroup, error) {
	if group, ok := s.groups[id]; ok {
		copy := *group
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *arrangementStoreStub) ListByGroup(ctx context.Context, groupID string) ([]models.ArrangementRequest, error) {
	return append([]models.ArrangementRequest(nil), s.requests[groupID]...), nil
}

func (s *arrangementStoreStub) ListDetails(ctx context.Context, filter models.ArrangementRequestFilter) ([]models.ArrangementRequestDetail, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *arrangementStoreStub) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.RequestStatus, comment *string, approvedAt *time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for groupID := range s.requests {
		for i := range s.requests[groupID] {
			if s.requests[groupID][i].ID == id {
				s.requests[groupID][i].RequestStatus = status
				s.requests[groupID][i].ApprovalComment = comment
				s.requests[groupID][i].ApprovedAt = approvedAt
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

type scheduleWriterStub struct {
	upserts   []models.Schedule
	deletes   []string
	upsertErr error
}

func (s *scheduleWriterStub) UpsertWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, *schedule)
	return nil
}

func (s *scheduleWriterStub) DeleteForRequestWithTx(ctx context.Context, tx *sqlx.Tx, staffID string, date time.Time, sessionType models.SessionType, requestID string) error {
	s.deletes = append(s.deletes, requestID)
	return nil
}

type txRunnerStub struct{}

func (txRunnerStub) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type notifierStub struct {
	messages []string
	types    []models.NotificationType
}

func (n *notifierStub) Notify(ctx context.Context, staffID, message string, notificationType models.NotificationType) {
	n.messages = append(n.messages, message)
	n.types = append(n.types, notificationType)
}

type invalidatorStub struct {
	patterns []string
}

func (i *invalidatorStub) Invalidate(ctx context.Context, pattern string) error {
	i.patterns = append(i.patterns, pattern)
	return nil
}

func newArrangementServiceForTest(store *arrangementStoreStub, schedules *scheduleWriterStub) (*ArrangementService, *notifierStub, *invalidatorStub) {
	notifier := &notifierStub{}
	invalidator := &invalidatorStub{}
	svc := NewArrangementService(store, schedules, txRunnerStub{}, notifier, invalidator, nil, nil)
	return svc, notifier, invalidator
}

func TestArrangementServiceCreate(t *testing.T) {
	store := newArrangementStoreStub()
	svc, notifier, invalidator := newArrangementServiceForTest(store, &scheduleWriterStub{})

	created, err := svc.Create(context.Background(), CreateArrangementRequest{
		StaffID:     "staff-1",
		SessionType: string(models.SessionFullDay),
		StartDate:   "2023-10-02",
		Description: "focus day",
	})
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, created.RequestStatus)
	require.Equal(t, "group-1", created.RequestGroupID)
	require.Equal(t, 1, store.createCalls)
	require.Len(t, notifier.messages, 1)
	require.Equal(t, []string{"schedule:*"}, invalidator.patterns)
}

func TestArrangementServiceCreateConflict(t *testing.T) {
	store := newArrangementStoreStub()
	store.conflicts = []models.ArrangementRequest{{ID: "req-1", StartDate: mustDate(t, "2023-10-02")}}
	svc, notifier, _ := newArrangementServiceForTest(store, &scheduleWriterStub{})

	_, err := svc.Create(context.Background(), CreateArrangementRequest{
		StaffID:     "staff-1",
		SessionType: string(models.SessionAM),
		StartDate:   "2023-10-02",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Zero(t, store.createCalls)
	require.Empty(t, notifier.messages)
}

func TestArrangementServiceCreateRejectsInvalidSession(t *testing.T) {
	svc, _, _ := newArrangementServiceForTest(newArrangementStoreStub(), &scheduleWriterStub{})

	_, err := svc.Create(context.Background(), CreateArrangementRequest{
		StaffID:     "staff-1",
		SessionType: "Remote",
		StartDate:   "2023-10-02",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestArrangementServiceCreateBatchExpandsOccurrences(t *testing.T) {
	store := newArrangementStoreStub()
	svc, _, _ := newArrangementServiceForTest(store, &scheduleWriterStub{})

	// 2023-10-04 is a Wednesday.
	result, err := svc.CreateBatch(context.Background(), CreateBatchArrangementRequest{
		StaffID:     "staff-1",
		SessionType: string(models.SessionPM),
		Weekdays:    []int{1, 3},
		Occurrences: 2,
		RepeatType:  string(models.RepeatWeekly),
		StartDate:   "2023-10-04",
	})
	require.NoError(t, err)
	require.Len(t, result.Requests, 4)

	var got []string
	for _, req := range result.Requests {
		got = append(got, req.StartDate.Format(models.DateLayout))
	}
	require.Equal(t, []string{"2023-10-04", "2023-10-09", "2023-10-11", "2023-10-16"}, got)
}

func TestArrangementServiceApprove(t *testing.T) {
	store := newArrangementStoreStub()
	store.groups["group-1"] = &models.RequestGroup{ID: "group-1", StaffID: "staff-1"}
	store.requests["group-1"] = []models.ArrangementRequest{
		{ID: "req-1", RequestGroupID: "group-1", SessionType: models.SessionFullDay, StartDate: mustDate(t, "2023-10-02"), RequestStatus: models.RequestStatusPending},
		{ID: "req-2", RequestGroupID: "group-1", SessionType: models.SessionFullDay, StartDate: mustDate(t, "2023-10-09"), RequestStatus: models.RequestStatusPending},
	}
	schedules := &scheduleWriterStub{}
	svc, notifier, invalidator := newArrangementServiceForTest(store, schedules)

	result, err := svc.Approve(context.Background(), "group-1", "ok", "manager-1")
	require.NoError(t, err)
	require.Len(t, schedules.upserts, 2)
	require.Equal(t, "staff-1", schedules.upserts[0].StaffID)
	for _, req := range result.Requests {
		require.Equal(t, models.RequestStatusApproved, req.RequestStatus)
		require.NotNil(t, req.ApprovedAt)
		require.Equal(t, "ok", *req.ApprovalComment)
	}
	require.Len(t, notifier.messages, 1)
	require.Equal(t, []string{"schedule:*"}, invalidator.patterns)
}

func TestArrangementServiceApproveWithoutPending(t *testing.T) {
	store := newArrangementStoreStub()
	store.groups["group-1"] = &models.RequestGroup{ID: "group-1", StaffID: "staff-1"}
	store.requests["group-1"] = []models.ArrangementRequest{
		{ID: "req-1", RequestGroupID: "group-1", RequestStatus: models.RequestStatusApproved},
	}
	schedules := &scheduleWriterStub{}
	svc, _, _ := newArrangementServiceForTest(store, schedules)

	_, err := svc.Approve(context.Background(), "group-1", "", "manager-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Empty(t, schedules.upserts)
}

func TestArrangementServiceApproveRollsBackOnFailure(t *testing.T) {
	store := newArrangementStoreStub()
	store.groups["group-1"] = &models.RequestGroup{ID: "group-1", StaffID: "staff-1"}
	store.requests["group-1"] = []models.ArrangementRequest{
		{ID: "req-1", RequestGroupID: "group-1", SessionType: models.SessionFullDay, StartDate: mustDate(t, "2023-10-02"), RequestStatus: models.RequestStatusPending},
	}
	store.updateErr = errors.New("write failed")
	schedules := &scheduleWriterStub{}
	svc, notifier, _ := newArrangementServiceForTest(store, schedules)

	_, err := svc.Approve(context.Background(), "group-1", "", "manager-1")
	require.Error(t, err)
	require.Equal(t, models.RequestStatusPending, store.requests["group-1"][0].RequestStatus)
	require.Empty(t, notifier.messages)
}

func TestArrangementServiceRevokeDeletesSchedules(t *testing.T) {
	store := newArrangementStoreStub()
	store.groups["group-1"] = &models.RequestGroup{ID: "group-1", StaffID: "staff-1"}
	store.requests["group-1"] = []models.ArrangementRequest{
		{ID: "req-1", RequestGroupID: "group-1", SessionType: models.SessionFullDay, StartDate: mustDate(t, "2023-10-02"), RequestStatus: models.RequestStatusApproved},
	}
	schedules := &scheduleWriterStub{}
	svc, notifier, _ := newArrangementServiceForTest(store, schedules)

	result, err := svc.Revoke(context.Background(), "group-1", "plans changed", "manager-1")
	require.NoError(t, err)
	require.Equal(t, []string{"req-1"}, schedules.deletes)
	require.Equal(t, models.RequestStatusRevoked, result.Requests[0].RequestStatus)
	require.Len(t, notifier.messages, 1)
}

func TestArrangementServiceWithdrawRequiresOwnership(t *testing.T) {
	store := newArrangementStoreStub()
	store.groups["group-1"] = &models.RequestGroup{ID: "group-1", StaffID: "staff-1"}
	store.requests["group-1"] = []models.ArrangementRequest{
		{ID: "req-1", RequestGroupID: "group-1", RequestStatus: models.RequestStatusPending},
	}
	svc, _, _ := newArrangementServiceForTest(store, &scheduleWriterStub{})

	_, err := svc.Withdraw(context.Background(), "group-1", "", "staff-2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	result, err := svc.Withdraw(context.Background(), "group-1", "changed my mind", "staff-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusWithdrawn, result.Requests[0].RequestStatus)
}

func TestArrangementServiceWithdrawUnknownGroup(t *testing.T) {
	svc, _, _ := newArrangementServiceForTest(newArrangementStoreStub(), &scheduleWriterStub{})

	_, err := svc.Withdraw(context.Background(), "missing", "", "staff-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExpandOccurrencesDedupesWeekdays(t *testing.T) {
	start := mustDate(t, "2023-10-02") // Monday
	dates := expandOccurrences(start, []int{1, 1}, 3, 7)
	require.Len(t, dates, 3)
	require.Equal(t, "2023-10-02", dates[0].Format(models.DateLayout))
	require.Equal(t, "2023-10-16", dates[2].Format(models.DateLayout))
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
	require.NoError(t, err)
	return parsed
}
