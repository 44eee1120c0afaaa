package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
)

type arrangementStore interface {
	ListNonTerminalByStaffAndDates(ctx context.Context, tx *sqlx.Tx, staffID string, dates []time.Time) ([]models.ArrangementRequest, error)
	CreateGroupWithRequests(ctx context.Context, tx *sqlx.Tx, group *models.RequestGroup, requests []models.ArrangementRequest) error
	FindGroupByID(ctx context.Context, id string) (*models.RequestGroup, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.ArrangementRequest, error)
	ListDetails(ctx context.Context, filter models.ArrangementRequestFilter) ([]models.ArrangementRequestDetail, error)
	UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.RequestStatus, comment *string, approvedAt *time.Time) error
}

type scheduleWriter interface {
	UpsertWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error
	DeleteForRequestWithTx(ctx context.Context, tx *sqlx.Tx, staffID string, date time.Time, sessionType models.SessionType, requestID string) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type workflowNotifier interface {
	Notify(ctx context.Context, staffID, message string, notificationType models.NotificationType)
}

type viewInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// ArrangementService owns the request lifecycle: creation with conflict
// detection, approval, rejection, revocation, and withdrawal. It is the only
// component that mutates persisted request and schedule state.
type ArrangementService struct {
	repo      arrangementStore
	schedules scheduleWriter
	tx        txRunner
	notifier  workflowNotifier
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArrangementService constructs the service.
func NewArrangementService(repo arrangementStore, schedules scheduleWriter, tx txRunner, notifier workflowNotifier, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *ArrangementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArrangementService{repo: repo, schedules: schedules, tx: tx, notifier: notifier, views: views, validator: validate, logger: logger}
}

// CreateArrangementRequest describes a single-day submission.
type CreateArrangementRequest struct {
	StaffID     string `json:"staff_id" validate:"required"`
	SessionType string `json:"session_type" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	Description string `json:"description"`
}

// CreateBatchArrangementRequest describes a recurring submission.
type CreateBatchArrangementRequest struct {
	StaffID     string `json:"staff_id" validate:"required"`
	SessionType string `json:"session_type" validate:"required"`
	Description string `json:"description"`
	Weekdays    []int  `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	Occurrences int    `json:"occurrences" validate:"required,min=1"`
	RepeatType  string `json:"repeat_type" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
}

// ArrangementGroupResult bundles a group with its requests after a workflow
// operation.
type ArrangementGroupResult struct {
	Group    models.RequestGroup         `json:"group"`
	Requests []models.ArrangementRequest `json:"requests"`
}

// Create submits a single-day request. The conflict check and both inserts
// share one transaction; a duplicate non-terminal request for the staff/date
// pair aborts with a conflict.
func (s *ArrangementService) Create(ctx context.Context, req CreateArrangementRequest) (*models.ArrangementRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	sessionType := models.SessionType(req.SessionType)
	if !sessionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported session type")
	}
	date, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	group := &models.RequestGroup{StaffID: req.StaffID}
	requests := []models.ArrangementRequest{{
		SessionType:   sessionType,
		StartDate:     date,
		Description:   req.Description,
		RequestStatus: models.RequestStatusPending,
	}}

	if err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		conflicts, err := s.repo.ListNonTerminalByStaffAndDates(ctx, tx, req.StaffID, []time.Time{date})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "a WFH request already exists for this staff member on this date")
		}
		return s.repo.CreateGroupWithRequests(ctx, tx, group, requests)
	}); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create arrangement request")
	}

	s.notify(ctx, req.StaffID, fmt.Sprintf("WFH request submitted for %s", req.StartDate), models.NotificationRequestCreated)
	s.invalidateViews(ctx)
	return &requests[0], nil
}

// CreateBatch submits a recurring request: one group holding one request per
// occurrence date. Any conflict or write failure rolls back the whole batch.
func (s *ArrangementService) CreateBatch(ctx context.Context, req CreateBatchArrangementRequest) (*ArrangementGroupResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	sessionType := models.SessionType(req.SessionType)
	if !sessionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported session type")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	repeat := models.RepeatType(req.RepeatType)
	interval, ok := repeat.IntervalDays()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "repeat_type must be weekly, biweekly, or monthly")
	}

	dates := expandOccurrences(start, req.Weekdays, req.Occurrences, interval)
	if len(dates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no occurrence dates resolved")
	}

	group := &models.RequestGroup{StaffID: req.StaffID}
	requests := make([]models.ArrangementRequest, len(dates))
	for i, date := range dates {
		requests[i] = models.ArrangementRequest{
			SessionType:   sessionType,
			StartDate:     date,
			Description:   req.Description,
			RequestStatus: models.RequestStatusPending,
		}
	}

	if err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		conflicts, err := s.repo.ListNonTerminalByStaffAndDates(ctx, tx, req.StaffID, dates)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a WFH request already exists for this staff member on %s", conflicts[0].StartDate.Format(models.DateLayout)))
		}
		return s.repo.CreateGroupWithRequests(ctx, tx, group, requests)
	}); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch arrangement request")
	}

	s.notify(ctx, req.StaffID, fmt.Sprintf("Recurring WFH request submitted (%d dates starting %s)", len(dates), req.StartDate), models.NotificationRequestCreated)
	s.invalidateViews(ctx)
	return &ArrangementGroupResult{Group: *group, Requests: requests}, nil
}

// Approve converts every pending request of the group into an authoritative
// schedule fact and marks it approved, all inside one transaction.
func (s *ArrangementService) Approve(ctx context.Context, groupID, comment, approverID string) (*ArrangementGroupResult, error) {
	group, requests, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if countByStatus(requests, models.RequestStatusPending) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request group has no pending requests")
	}

	now := time.Now().UTC()
	commentValue := optionalComment(comment)
	if err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		for i := range requests {
			if requests[i].RequestStatus != models.RequestStatusPending {
				continue
			}
			schedule := &models.Schedule{
				StaffID:     group.StaffID,
				StartDate:   requests[i].StartDate,
				SessionType: requests[i].SessionType,
				Description: requests[i].Description,
				RequestID:   requests[i].ID,
			}
			if err := s.schedules.UpsertWithTx(ctx, tx, schedule); err != nil {
				return err
			}
			if err := s.repo.UpdateStatusWithTx(ctx, tx, requests[i].ID, models.RequestStatusApproved, commentValue, &now); err != nil {
				return err
			}
			requests[i].RequestStatus = models.RequestStatusApproved
			requests[i].ApprovalComment = commentValue
			requests[i].ApprovedAt = &now
			requests[i].UpdatedAt = now
		}
		return nil
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve request group")
	}

	s.logger.Info("request group approved",
		zap.String("group_id", groupID),
		zap.String("approver_id", approverID),
		zap.Int("requests", len(requests)))
	s.notify(ctx, group.StaffID, "Your WFH request has been approved", models.NotificationRequestApproved)
	s.invalidateViews(ctx)
	return &ArrangementGroupResult{Group: *group, Requests: requests}, nil
}

// Reject marks every pending request of the group rejected. No schedule rows
// are written.
func (s *ArrangementService) Reject(ctx context.Context, groupID, comment, approverID string) (*ArrangementGroupResult, error) {
	result, err := s.transition(ctx, groupID, models.RequestStatusPending, models.RequestStatusRejected, comment, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("request group rejected", zap.String("group_id", groupID), zap.String("approver_id", approverID))
	s.notify(ctx, result.Group.StaffID, "Your WFH request has been rejected", models.NotificationRequestRejected)
	s.invalidateViews(ctx)
	return result, nil
}

// Revoke undoes an approval: the matching schedule facts are deleted and the
// requests marked revoked, all inside one transaction.
func (s *ArrangementService) Revoke(ctx context.Context, groupID, comment, actorID string) (*ArrangementGroupResult, error) {
	result, err := s.transition(ctx, groupID, models.RequestStatusApproved, models.RequestStatusRevoked, comment, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("request group revoked", zap.String("group_id", groupID), zap.String("actor_id", actorID))
	s.notify(ctx, result.Group.StaffID, "Your approved WFH arrangement has been revoked", models.NotificationRequestRevoked)
	s.invalidateViews(ctx)
	return result, nil
}

// Withdraw lets the requesting staff member retract a pending submission.
func (s *ArrangementService) Withdraw(ctx context.Context, groupID, reason, staffID string) (*ArrangementGroupResult, error) {
	group, _, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.StaffID != staffID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requesting staff member may withdraw")
	}

	result, err := s.transition(ctx, groupID, models.RequestStatusPending, models.RequestStatusWithdrawn, reason, false)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, staffID, "Your WFH request has been withdrawn", models.NotificationRequestWithdrawn)
	s.invalidateViews(ctx)
	return result, nil
}

// ListRequests returns requests joined with their owners, scoped by filter.
func (s *ArrangementService) ListRequests(ctx context.Context, filter models.ArrangementRequestFilter) ([]models.ArrangementRequestDetail, error) {
	details, err := s.repo.ListDetails(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return details, nil
}

// transition moves every request of the group in state `from` to state `to`,
// optionally deleting the schedule facts the requests created.
func (s *ArrangementService) transition(ctx context.Context, groupID string, from, to models.RequestStatus, comment string, deleteSchedules bool) (*ArrangementGroupResult, error) {
	group, requests, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if countByStatus(requests, from) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request group has no %s requests", from))
	}

	now := time.Now().UTC()
	commentValue := optionalComment(comment)
	if err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		for i := range requests {
			if requests[i].RequestStatus != from {
				continue
			}
			if deleteSchedules {
				if err := s.schedules.DeleteForRequestWithTx(ctx, tx, group.StaffID, requests[i].StartDate, requests[i].SessionType, requests[i].ID); err != nil {
					return err
				}
			}
			if err := s.repo.UpdateStatusWithTx(ctx, tx, requests[i].ID, to, commentValue, requests[i].ApprovedAt); err != nil {
				return err
			}
			requests[i].RequestStatus = to
			requests[i].ApprovalComment = commentValue
			requests[i].UpdatedAt = now
		}
		return nil
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to mark request group %s", to))
	}

	return &ArrangementGroupResult{Group: *group, Requests: requests}, nil
}

func (s *ArrangementService) loadGroup(ctx context.Context, groupID string) (*models.RequestGroup, []models.ArrangementRequest, error) {
	group, err := s.repo.FindGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "request group not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request group")
	}
	requests, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group requests")
	}
	return group, requests, nil
}

func (s *ArrangementService) notify(ctx context.Context, staffID, message string, notificationType models.NotificationType) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, staffID, message, notificationType)
}

func (s *ArrangementService) invalidateViews(ctx context.Context) {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(ctx, "schedule:*"); err != nil {
		s.logger.Warn("schedule view invalidation failed", zap.Error(err))
	}
}

// expandOccurrences resolves the occurrence dates of a recurring submission:
// for each selected weekday the first occurrence is the first date on or
// after start falling on that weekday, and subsequent occurrences advance by
// intervalDays. Duplicate weekdays are ignored; the result is ascending.
func expandOccurrences(start time.Time, weekdays []int, occurrences, intervalDays int) []time.Time {
	start = atMidnightUTC(start)
	seen := make(map[time.Weekday]struct{}, len(weekdays))
	var dates []time.Time
	for _, raw := range weekdays {
		weekday := time.Weekday(raw)
		if _, ok := seen[weekday]; ok {
			continue
		}
		seen[weekday] = struct{}{}

		first := start
		for first.Weekday() != weekday {
			first = first.AddDate(0, 0, 1)
		}
		for i := 0; i < occurrences; i++ {
			dates = append(dates, first.AddDate(0, 0, i*intervalDays))
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func countByStatus(requests []models.ArrangementRequest, status models.RequestStatus) int {
	count := 0
	for _, req := range requests {
		if req.RequestStatus == status {
			count++
		}
	}
	return count
}

func optionalComment(comment string) *string {
	if comment == "" {
		return nil
	}
	return &comment
}
