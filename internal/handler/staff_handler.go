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

type staffDirectory interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, error)
	Get(ctx context.Context, id string) (*models.Staff, error)
}

// StaffHandler exposes the staff directory endpoints.
type StaffHandler struct {
	service staffDirectory
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(service staffDirectory) *StaffHandler {
	return &StaffHandler{service: service}
}

// List godoc
// @Summary List staff members
// @Tags Staff
// @Produce json
// @Param department query string false "Department filter"
// @Param position query string false "Position filter"
// @Success 200 {object} response.Envelope
// @Router /staffs [get]
func (h *StaffHandler) List(c *gin.Context) {
	filter := models.StaffFilter{
		Department: strings.TrimSpace(c.Query("department")),
		Position:   strings.TrimSpace(c.Query("position")),
	}
	staffs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staffs, nil)
}

// Get godoc
// @Summary Get a staff member by ID
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staffs/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "staff id is required"))
		return
	}
	staff, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}
