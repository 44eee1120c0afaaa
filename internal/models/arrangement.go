package models

import "time"

// SessionType is the work-from-home granularity of a request or schedule entry.
type SessionType string

const (
	SessionFullDay SessionType = "Work from home"
	SessionAM      SessionType = "Work from home (AM)"
	SessionPM      SessionType = "Work from home (PM)"
)

// Valid reports whether the session type is one of the known variants.
func (s SessionType) Valid() bool {
	switch s {
	case SessionFullDay, SessionAM, SessionPM:
		return true
	default:
		return false
	}
}

// RequestStatus tracks the lifecycle state of an arrangement request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusApproved  RequestStatus = "Approved"
	RequestStatusRejected  RequestStatus = "Rejected"
	RequestStatusRevoked   RequestStatus = "Revoked"
	RequestStatusWithdrawn RequestStatus = "Withdrawn"
)

// Terminal reports whether the status can no longer transition.
// Approved is not terminal: it may still be revoked.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusRevoked, RequestStatusWithdrawn:
		return true
	default:
		return false
	}
}

// RepeatType describes the cadence of a recurring batch submission.
type RepeatType string

const (
	RepeatWeekly   RepeatType = "weekly"
	RepeatBiweekly RepeatType = "biweekly"
	RepeatMonthly  RepeatType = "monthly"
)

// IntervalDays returns the calendar-day step between occurrences.
func (r RepeatType) IntervalDays() (int, bool) {
	switch r {
	case RepeatWeekly:
		return 7, true
	case RepeatBiweekly:
		return 14, true
	case RepeatMonthly:
		return 28, true
	default:
		return 0, false
	}
}

// RequestGroup anchors the arrangement requests of one submission event.
type RequestGroup struct {
	ID        string    `db:"id" json:"id"`
	StaffID   string    `db:"staff_id" json:"staff_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ArrangementRequest is a single day's work-from-home request.
type ArrangementRequest struct {
	ID              string        `db:"id" json:"id"`
	RequestGroupID  string        `db:"request_group_id" json:"request_group_id"`
	SessionType     SessionType   `db:"session_type" json:"session_type"`
	StartDate       time.Time     `db:"start_date" json:"start_date"`
	Description     string        `db:"description" json:"description"`
	RequestStatus   RequestStatus `db:"request_status" json:"request_status"`
	ApprovalComment *string       `db:"approval_comment" json:"approval_comment,omitempty"`
	ApprovedAt      *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// ArrangementRequestDetail joins a request with its owning group's staff.
type ArrangementRequestDetail struct {
	ArrangementRequest
	StaffID   string `db:"staff_id" json:"staff_id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// ArrangementRequestFilter captures listing criteria for requests.
type ArrangementRequestFilter struct {
	StaffID     string
	ReportingTo string
	Status      RequestStatus
}
