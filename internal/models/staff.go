package models

import "time"

// StaffRole represents the access tier of a staff member.
type StaffRole string

const (
	RoleStaff    StaffRole = "STAFF"
	RoleManager  StaffRole = "MANAGER"
	RoleDirector StaffRole = "DIRECTOR"
	RoleHR       StaffRole = "HR"
)

// Staff represents an employee record owned by the HR system.
type Staff struct {
	ID               string    `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Department       string    `db:"department" json:"department"`
	Position         string    `db:"position" json:"position"`
	ReportingManager *string   `db:"reporting_manager" json:"reporting_manager,omitempty"`
	Role             StaffRole `db:"role" json:"role"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName is the name rendered inside schedule view buckets.
func (s Staff) DisplayName() string {
	return s.FirstName + " " + s.LastName
}

// StaffFilter captures filtering criteria for listing staff.
type StaffFilter struct {
	Department      string
	Position        string
	ExcludePosition string
	ReportingTo     string
	Active          *bool
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
