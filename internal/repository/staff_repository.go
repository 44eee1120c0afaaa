package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
)

const staffColumns = "id, first_name, last_name, email, password_hash, department, position, reporting_manager, role, active, created_at, updated_at"

// StaffRepository provides read access to the staff directory.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new staff repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff matching the filter, ordered by name for stable output.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, error) {
	base := fmt.Sprintf("SELECT %s FROM staffs WHERE 1=1", staffColumns)
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Position != "" {
		conditions = append(conditions, fmt.Sprintf("position = $%d", len(args)+1))
		args = append(args, filter.Position)
	}
	if filter.ExcludePosition != "" {
		conditions = append(conditions, fmt.Sprintf("position <> $%d", len(args)+1))
		args = append(args, filter.ExcludePosition)
	}
	if filter.ReportingTo != "" {
		conditions = append(conditions, fmt.Sprintf("reporting_manager = $%d", len(args)+1))
		args = append(args, filter.ReportingTo)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY first_name ASC, last_name ASC, id ASC"

	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, base, args...); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// FindByID loads a staff member by id.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staffs WHERE id = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByEmail loads a staff member by email for authentication.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staffs WHERE email = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		return nil, err
	}
	return &staff, nil
}
