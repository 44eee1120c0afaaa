package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
)

type scheduleStaffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

type scheduleReader interface {
	ListByStaffAndRange(ctx context.Context, staffID string, start, end time.Time) ([]models.Schedule, error)
	ListEntriesByStaffAndRange(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.ScheduleEntry, error)
}

type pendingRequestReader interface {
	ListPendingByStaffAndRange(ctx context.Context, staffID string, start, end time.Time) ([]models.ArrangementRequest, error)
}

// ScheduleService projects schedule facts into calendar views at personal,
// team, department, and organization granularity.
type ScheduleService struct {
	staff     scheduleStaffRepository
	schedules scheduleReader
	requests  pendingRequestReader
	cache     *CacheService
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewScheduleService constructs the service.
func NewScheduleService(staff scheduleStaffRepository, schedules scheduleReader, requests pendingRequestReader, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{staff: staff, schedules: schedules, requests: requests, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// WorkingDays expands the inclusive date range into ascending Monday-Friday
// dates. A range where end precedes start is invalid; start == end is a
// single-day range.
func WorkingDays(start, end time.Time) ([]time.Time, error) {
	start = atMidnightUTC(start)
	end = atMidnightUTC(end)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be on or after start date")
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}

// resolveStatus maps a day's facts to a status label. A pending request
// always wins over an existing schedule fact for the same date.
func resolveStatus(schedule *models.Schedule, pending bool) string {
	if pending {
		return models.StatusPendingRequest
	}
	if schedule != nil {
		return string(schedule.SessionType)
	}
	return models.StatusInOffice
}

// Personal returns one status per working day for a single staff member,
// overlaying pending requests.
func (s *ScheduleService) Personal(ctx context.Context, staffID, startDate, endDate string) (models.PersonalScheduleView, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staffId is required")
	}
	start, end, err := parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	days, err := WorkingDays(start, end)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("schedule:personal:%s:%s:%s", staffID, startDate, endDate)
	var cached models.PersonalScheduleView
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	schedules, err := s.schedules.ListByStaffAndRange(ctx, staffID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedules")
	}
	pending, err := s.requests.ListPendingByStaffAndRange(ctx, staffID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pending requests")
	}

	// First fact per date wins; later duplicates are ignored.
	factByDate := make(map[string]models.Schedule, len(schedules))
	for _, fact := range schedules {
		key := fact.StartDate.Format(models.DateLayout)
		if _, ok := factByDate[key]; !ok {
			factByDate[key] = fact
		}
	}
	pendingDates := make(map[string]struct{}, len(pending))
	for _, req := range pending {
		pendingDates[req.StartDate.Format(models.DateLayout)] = struct{}{}
	}

	view := make(models.PersonalScheduleView, len(days))
	for _, day := range days {
		key := day.Format(models.DateLayout)
		var fact *models.Schedule
		if f, ok := factByDate[key]; ok {
			fact = &f
		}
		_, isPending := pendingDates[key]
		view[key] = resolveStatus(fact, isPending)
	}

	s.cacheSet(ctx, cacheKey, view)
	return view, nil
}

// Team returns the nested view for staff sharing the requester's department
// and position.
func (s *ScheduleService) Team(ctx context.Context, staffID, startDate, endDate string) (models.GroupedScheduleView, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staffId is required")
	}
	requester, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
	}

	cacheKey := fmt.Sprintf("schedule:team:%s:%s:%s", staffID, startDate, endDate)
	filter := models.StaffFilter{Department: requester.Department, Position: requester.Position}
	return s.grouped(ctx, cacheKey, filter, startDate, endDate)
}

// Department returns the nested view for a department, excluding directors.
func (s *ScheduleService) Department(ctx context.Context, department, startDate, endDate string) (models.GroupedScheduleView, error) {
	if department == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	cacheKey := fmt.Sprintf("schedule:department:%s:%s:%s", department, startDate, endDate)
	filter := models.StaffFilter{Department: department, ExcludePosition: "Director"}
	return s.grouped(ctx, cacheKey, filter, startDate, endDate)
}

// Organization returns the nested view across the organization, optionally
// narrowed by department and/or position.
func (s *ScheduleService) Organization(ctx context.Context, department, position, startDate, endDate string) (models.GroupedScheduleView, error) {
	cacheKey := fmt.Sprintf("schedule:org:%s:%s:%s:%s", department, position, startDate, endDate)
	filter := models.StaffFilter{Department: department, Position: position}
	return s.grouped(ctx, cacheKey, filter, startDate, endDate)
}

// grouped is the shared fold behind the team, department, and organization
// views. It resolves the staff set, bulk-fetches schedule facts, and buckets
// staff display names per date, department, and position.
func (s *ScheduleService) grouped(ctx context.Context, cacheKey string, filter models.StaffFilter, startDate, endDate string) (models.GroupedScheduleView, error) {
	start, end, err := parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	days, err := WorkingDays(start, end)
	if err != nil {
		return nil, err
	}

	var cached models.GroupedScheduleView
	if hit, err := s.cacheGet(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	staff, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}

	staffIDs := make([]string, len(staff))
	for i, member := range staff {
		staffIDs[i] = member.ID
	}
	entries, err := s.schedules.ListEntriesByStaffAndRange(ctx, staffIDs, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedules")
	}

	// First fact per (staff, date) wins; later duplicates are ignored.
	factByStaffDate := make(map[string]models.SessionType, len(entries))
	for _, entry := range entries {
		key := entry.StaffID + "|" + entry.StartDate.Format(models.DateLayout)
		if _, ok := factByStaffDate[key]; !ok {
			factByStaffDate[key] = entry.SessionType
		}
	}

	view := make(models.GroupedScheduleView, len(days))
	for _, day := range days {
		dateKey := day.Format(models.DateLayout)
		view[dateKey] = make(map[string]map[string]map[string][]string)
		for _, member := range staff {
			positions, ok := view[dateKey][member.Department]
			if !ok {
				positions = make(map[string]map[string][]string)
				view[dateKey][member.Department] = positions
			}
			buckets, ok := positions[member.Position]
			if !ok {
				buckets = make(map[string][]string, len(models.ScheduleBuckets))
				for _, bucket := range models.ScheduleBuckets {
					buckets[bucket] = []string{}
				}
				positions[member.Position] = buckets
			}

			bucket := models.StatusInOffice
			if sessionType, ok := factByStaffDate[member.ID+"|"+dateKey]; ok {
				bucket = string(sessionType)
			}
			buckets[bucket] = append(buckets[bucket], member.DisplayName())
		}
	}

	s.cacheSet(ctx, cacheKey, view)
	return view, nil
}

func (s *ScheduleService) cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil || !s.cache.Enabled() {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *ScheduleService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("schedule cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func atMidnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return parsed, nil
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end date must be on or after start date")
	}
	return start, end, nil
}
