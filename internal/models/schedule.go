package models

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Status labels resolved for schedule views.
const (
	StatusInOffice       = "In office"
	StatusPendingRequest = "Pending Arrangement Request"
)

// ScheduleBuckets are the fixed status categories of the nested views, in
// render order.
var ScheduleBuckets = []string{
	StatusInOffice,
	string(SessionFullDay),
	string(SessionAM),
	string(SessionPM),
}

// Schedule is the authoritative work-location fact for a staff member and
// date. Created on approval, deleted on revocation; it can outlive the
// request that produced it.
type Schedule struct {
	ID          string      `db:"id" json:"id"`
	StaffID     string      `db:"staff_id" json:"staff_id"`
	StartDate   time.Time   `db:"start_date" json:"start_date"`
	SessionType SessionType `db:"session_type" json:"session_type"`
	Description string      `db:"description" json:"description"`
	RequestID   string      `db:"request_id" json:"request_id"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// ScheduleEntry joins a schedule fact with the owning staff member.
type ScheduleEntry struct {
	Schedule
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	Department string `db:"department" json:"department"`
	Position   string `db:"position" json:"position"`
}

// PersonalScheduleView maps date strings to a single resolved status.
type PersonalScheduleView map[string]string

// GroupedScheduleView maps date -> department -> position -> bucket ->
// ordered staff display names.
type GroupedScheduleView map[string]map[string]map[string]map[string][]string
