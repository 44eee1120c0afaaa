package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/response"
)

type scheduleViewService interface {
	Personal(ctx context.Context, staffID, startDate, endDate string) (models.PersonalScheduleView, error)
	Team(ctx context.Context, staffID, startDate, endDate string) (models.GroupedScheduleView, error)
	Department(ctx context.Context, department, startDate, endDate string) (models.GroupedScheduleView, error)
	Organization(ctx context.Context, department, position, startDate, endDate string) (models.GroupedScheduleView, error)
}

// ScheduleHandler exposes the schedule view endpoints.
type ScheduleHandler struct {
	service scheduleViewService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleViewService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Personal godoc
// @Summary Personal schedule for the caller
// @Tags Schedules
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/personal [get]
func (h *ScheduleHandler) Personal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	start, end, ok := dateRangeParams(c)
	if !ok {
		return
	}
	view, err := h.service.Personal(c.Request.Context(), claims.StaffID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Team godoc
// @Summary Schedule for the caller's department and position peers
// @Tags Schedules
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/team [get]
func (h *ScheduleHandler) Team(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	start, end, ok := dateRangeParams(c)
	if !ok {
		return
	}
	view, err := h.service.Team(c.Request.Context(), claims.StaffID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Department godoc
// @Summary Schedule for one department, directors excluded
// @Tags Schedules
// @Produce json
// @Param department query string true "Department name"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/department [get]
func (h *ScheduleHandler) Department(c *gin.Context) {
	department := strings.TrimSpace(c.Query("department"))
	if department == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "department is required"))
		return
	}
	start, end, ok := dateRangeParams(c)
	if !ok {
		return
	}
	view, err := h.service.Department(c.Request.Context(), department, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Organization godoc
// @Summary Organization-wide schedule with optional filters
// @Tags Schedules
// @Produce json
// @Param department query string false "Department filter"
// @Param position query string false "Position filter"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/organization [get]
func (h *ScheduleHandler) Organization(c *gin.Context) {
	start, end, ok := dateRangeParams(c)
	if !ok {
		return
	}
	department := strings.TrimSpace(c.Query("department"))
	position := strings.TrimSpace(c.Query("position"))
	view, err := h.service.Organization(c.Request.Context(), department, position, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

func dateRangeParams(c *gin.Context) (string, string, bool) {
	start := strings.TrimSpace(c.Query("start_date"))
	end := strings.TrimSpace(c.Query("end_date"))
	if start == "" || end == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start_date and end_date are required"))
		return "", "", false
	}
	return start, end, true
}
