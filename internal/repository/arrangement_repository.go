package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
)

const requestColumns = "r.id, r.request_group_id, r.session_type, r.start_date, r.description, r.request_status, r.approval_comment, r.approved_at, r.updated_at"

// ArrangementRepository persists request groups and arrangement requests.
type ArrangementRepository struct {
	db *sqlx.DB
}

// NewArrangementRepository creates a new arrangement repository.
func NewArrangementRepository(db *sqlx.DB) *ArrangementRepository {
	return &ArrangementRepository{db: db}
}

func (r *ArrangementRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// ListNonTerminalByStaffAndDates returns Pending or Approved requests of the
// staff member falling on any of the given dates. Used for the creation-time
// conflict check; pass the open transaction so the check and the insert share
// one isolation scope.
func (r *ArrangementRepository) ListNonTerminalByStaffAndDates(ctx context.Context, tx *sqlx.Tx, staffID string, dates []time.Time) ([]models.ArrangementRequest, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	args := []interface{}{staffID, models.RequestStatusPending, models.RequestStatusApproved}
	placeholders := make([]string, 0, len(dates))
	for _, date := range dates {
		args = append(args, date)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM arrangement_requests r
		JOIN request_groups g ON g.id = r.request_group_id
		WHERE g.staff_id = $1 AND r.request_status IN ($2, $3) AND r.start_date IN (%s)`,
		requestColumns, strings.Join(placeholders, ", "))

	var requests []models.ArrangementRequest
	if err := sqlx.SelectContext(ctx, r.ext(tx), &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list conflicting requests: %w", err)
	}
	return requests, nil
}

// CreateGroupWithRequests inserts the group and all of its requests inside
// the caller's transaction.
func (r *ArrangementRepository) CreateGroupWithRequests(ctx context.Context, tx *sqlx.Tx, group *models.RequestGroup, requests []models.ArrangementRequest) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}

	now := time.Now().UTC()
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}

	const groupQuery = `INSERT INTO request_groups (id, staff_id, created_at) VALUES (:id, :staff_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, groupQuery, group); err != nil {
		return fmt.Errorf("create request group: %w", err)
	}

	const requestQuery = `INSERT INTO arrangement_requests (id, request_group_id, session_type, start_date, description, request_status, approval_comment, approved_at, updated_at)
		VALUES (:id, :request_group_id, :session_type, :start_date, :description, :request_status, :approval_comment, :approved_at, :updated_at)`
	for i := range requests {
		payload := requests[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.RequestGroupID = group.ID
		payload.UpdatedAt = now

		if _, err := tx.NamedExecContext(ctx, requestQuery, &payload); err != nil {
			return fmt.Errorf("create arrangement request: %w", err)
		}
		requests[i] = payload
	}
	return nil
}

// FindGroupByID loads a request group by id.
func (r *ArrangementRepository) FindGroupByID(ctx context.Context, id string) (*models.RequestGroup, error) {
	const query = `SELECT id, staff_id, created_at FROM request_groups WHERE id = $1`
	var group models.RequestGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByGroup returns the requests of a group ordered by date.
func (r *ArrangementRepository) ListByGroup(ctx context.Context, groupID string) ([]models.ArrangementRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM arrangement_requests r WHERE r.request_group_id = $1 ORDER BY r.start_date ASC`, requestColumns)
	var requests []models.ArrangementRequest
	if err := r.db.SelectContext(ctx, &requests, query, groupID); err != nil {
		return nil, fmt.Errorf("list requests by group: %w", err)
	}
	return requests, nil
}

// ListDetails returns requests joined with their owning staff, filtered by
// owner, reporting manager, or status.
func (r *ArrangementRepository) ListDetails(ctx context.Context, filter models.ArrangementRequestFilter) ([]models.ArrangementRequestDetail, error) {
	base := fmt.Sprintf(`SELECT %s, g.staff_id, s.first_name, s.last_name FROM arrangement_requests r
		JOIN request_groups g ON g.id = r.request_group_id
		JOIN staffs s ON s.id = g.staff_id
		WHERE 1=1`, requestColumns)
	var conditions []string
	var args []interface{}

	if filter.StaffID != "" {
		conditions = append(conditions, fmt.Sprintf("g.staff_id = $%d", len(args)+1))
		args = append(args, filter.StaffID)
	}
	if filter.ReportingTo != "" {
		conditions = append(conditions, fmt.Sprintf("s.reporting_manager = $%d", len(args)+1))
		args = append(args, filter.ReportingTo)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.request_status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY r.start_date ASC, r.id ASC"

	var details []models.ArrangementRequestDetail
	if err := r.db.SelectContext(ctx, &details, base, args...); err != nil {
		return nil, fmt.Errorf("list request details: %w", err)
	}
	return details, nil
}

// ListPendingByStaffAndRange returns Pending requests of the staff member
// within the inclusive date range. Feeds the personal view overlay.
func (r *ArrangementRepository) ListPendingByStaffAndRange(ctx context.Context, staffID string, start, end time.Time) ([]models.ArrangementRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM arrangement_requests r
		JOIN request_groups g ON g.id = r.request_group_id
		WHERE g.staff_id = $1 AND r.request_status = $2 AND r.start_date BETWEEN $3 AND $4
		ORDER BY r.start_date ASC`, requestColumns)
	var requests []models.ArrangementRequest
	if err := r.db.SelectContext(ctx, &requests, query, staffID, models.RequestStatusPending, start, end); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, nil
}

// UpdateStatusWithTx transitions a request inside the caller's transaction,
// recording the comment and approval timestamp when provided.
func (r *ArrangementRepository) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.RequestStatus, comment *string, approvedAt *time.Time) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `UPDATE arrangement_requests SET request_status = $1, approval_comment = $2, approved_at = $3, updated_at = $4 WHERE id = $5`
	result, err := tx.ExecContext(ctx, query, status, comment, approvedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update request status: no request with id %s", id)
	}
	return nil
}
