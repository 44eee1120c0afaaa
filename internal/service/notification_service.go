package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByStaff(ctx context.Context, staffID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, staffID string) error
}

// NotificationService persists workflow notifications and dispatches them
// asynchronously through the background queue. Dispatch is fire-and-forget:
// failures are logged, never surfaced to workflow callers.
type NotificationService struct {
	repo   notificationStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service. With async disabled the
// queue stays nil and notifications persist synchronously.
func NewNotificationService(repo notificationStore, logger *zap.Logger, workers, bufferSize, maxRetries int, retryDelay time.Duration, async bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{repo: repo, logger: logger}
	if async {
		svc.queue = jobs.NewQueue("notifications", svc.handleJob, jobs.QueueConfig{
			Workers:    workers,
			BufferSize: bufferSize,
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
			Logger:     logger,
		})
		svc.queue.Start(context.Background())
	}
	return svc
}

// Notify records a notification for the staff member. With the dispatcher
// enabled the write happens on a worker goroutine.
func (s *NotificationService) Notify(ctx context.Context, staffID, message string, notificationType models.NotificationType) {
	notification := &models.Notification{
		StaffID: staffID,
		Message: message,
		Type:    notificationType,
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{Type: string(notificationType), Payload: notification}); err != nil {
			s.logger.Warn("notification enqueue failed, persisting inline", zap.Error(err))
			s.persist(ctx, notification)
		}
		return
	}
	s.persist(ctx, notification)
}

// List returns the staff member's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, staffID string) ([]models.Notification, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staffId is required")
	}
	notifications, err := s.repo.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags a notification read for its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, staffID string) error {
	if err := s.repo.MarkRead(ctx, id, staffID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "notification not found")
	}
	return nil
}

// Close drains the dispatcher queue.
func (s *NotificationService) Close() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	return s.repo.Create(ctx, notification)
}

func (s *NotificationService) persist(ctx context.Context, notification *models.Notification) {
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Warn("notification persist failed",
			zap.String("staff_id", notification.StaffID),
			zap.String("type", string(notification.Type)),
			zap.Error(err))
	}
}
