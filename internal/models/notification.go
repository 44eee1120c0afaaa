package models

import "time"

// NotificationType distinguishes the workflow event behind a notification.
type NotificationType string

const (
	NotificationRequestCreated   NotificationType = "REQUEST_CREATED"
	NotificationRequestApproved  NotificationType = "REQUEST_APPROVED"
	NotificationRequestRejected  NotificationType = "REQUEST_REJECTED"
	NotificationRequestRevoked   NotificationType = "REQUEST_REVOKED"
	NotificationRequestWithdrawn NotificationType = "REQUEST_WITHDRAWN"
)

// Notification is a message delivered to a staff member after a workflow
// event.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	StaffID   string           `db:"staff_id" json:"staff_id"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
