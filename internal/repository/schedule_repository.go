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

// ScheduleRepository persists authoritative work-location facts.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByStaffAndRange returns schedule facts for one staff member within the
// inclusive date range.
func (r *ScheduleRepository) ListByStaffAndRange(ctx context.Context, staffID string, start, end time.Time) ([]models.Schedule, error) {
	const query = `SELECT id, staff_id, start_date, session_type, description, request_id, updated_at
		FROM schedules WHERE staff_id = $1 AND start_date BETWEEN $2 AND $3 ORDER BY start_date ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, staffID, start, end); err != nil {
		return nil, fmt.Errorf("list schedules by staff: %w", err)
	}
	return schedules, nil
}

// ListEntriesByStaffAndRange returns schedule facts joined to staff for the
// given staff set and inclusive date range.
func (r *ScheduleRepository) ListEntriesByStaffAndRange(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.ScheduleEntry, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}

	args := []interface{}{start, end}
	placeholders := make([]string, 0, len(staffIDs))
	for _, id := range staffIDs {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT c.id, c.staff_id, c.start_date, c.session_type, c.description, c.request_id, c.updated_at,
			s.first_name, s.last_name, s.department, s.position
		FROM schedules c
		JOIN staffs s ON s.id = c.staff_id
		WHERE c.start_date BETWEEN $1 AND $2 AND c.staff_id IN (%s)
		ORDER BY c.start_date ASC, c.id ASC`, strings.Join(placeholders, ", "))

	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// UpsertWithTx writes the schedule fact for (staff, date) inside the caller's
// transaction, replacing any previous fact for that day.
func (r *ScheduleRepository) UpsertWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	schedule.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO schedules (id, staff_id, start_date, session_type, description, request_id, updated_at)
		VALUES (:id, :staff_id, :start_date, :session_type, :description, :request_id, :updated_at)
		ON CONFLICT (staff_id, start_date) DO UPDATE
		SET session_type = EXCLUDED.session_type, description = EXCLUDED.description, request_id = EXCLUDED.request_id, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// DeleteForRequestWithTx removes the schedule fact created by a specific
// request. Matched by staff, date, session type, and originating request id
// because callers revoke without knowing the schedule id.
func (r *ScheduleRepository) DeleteForRequestWithTx(ctx context.Context, tx *sqlx.Tx, staffID string, date time.Time, sessionType models.SessionType, requestID string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `DELETE FROM schedules WHERE staff_id = $1 AND start_date = $2 AND session_type = $3 AND request_id = $4`
	if _, err := tx.ExecContext(ctx, query, staffID, date, sessionType, requestID); err != nil {
		return fmt.Errorf("delete schedule for request: %w", err)
	}
	return nil
}
