package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	"github.com/julian-m-willis/spm-proj-sub000/internal/service"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/response"
)

type arrangementService interface {
	Create(ctx context.Context, req service.CreateArrangementRequest) (*models.ArrangementRequest, error)
	CreateBatch(ctx context.Context, req service.CreateBatchArrangementRequest) (*service.ArrangementGroupResult, error)
	Approve(ctx context.Context, groupID, comment, approverID string) (*service.ArrangementGroupResult, error)
	Reject(ctx context.Context, groupID, comment, approverID string) (*service.ArrangementGroupResult, error)
	Revoke(ctx context.Context, groupID, comment, actorID string) (*service.ArrangementGroupResult, error)
	Withdraw(ctx context.Context, groupID, reason, staffID string) (*service.ArrangementGroupResult, error)
	ListRequests(ctx context.Context, filter models.ArrangementRequestFilter) ([]models.ArrangementRequestDetail, error)
}

// ArrangementHandler exposes REST endpoints for the arrangement workflow.
type ArrangementHandler struct {
	service arrangementService
}

// NewArrangementHandler constructs the handler.
func NewArrangementHandler(service arrangementService) *ArrangementHandler {
	return &ArrangementHandler{service: service}
}

type decisionPayload struct {
	Comment string `json:"comment"`
}

// Create godoc
// @Summary Submit a single-day arrangement request
// @Tags Arrangements
// @Accept json
// @Produce json
// @Param payload body service.CreateArrangementRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /arrangements [post]
func (h *ArrangementHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid arrangement payload"))
		return
	}
	req.StaffID = claims.StaffID
	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, created, nil)
}

// CreateBatch godoc
// @Summary Submit a recurring arrangement request
// @Tags Arrangements
// @Accept json
// @Produce json
// @Param payload body service.CreateBatchArrangementRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /arrangements/batch [post]
func (h *ArrangementHandler) CreateBatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateBatchArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch payload"))
		return
	}
	req.StaffID = claims.StaffID
	result, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// List godoc
// @Summary List the caller's arrangement requests
// @Tags Arrangements
// @Produce json
// @Param status query string false "Filter by request status"
// @Success 200 {object} response.Envelope
// @Router /arrangements [get]
func (h *ArrangementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ArrangementRequestFilter{
		StaffID: claims.StaffID,
		Status:  models.RequestStatus(strings.TrimSpace(c.Query("status"))),
	}
	requests, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ListPending godoc
// @Summary List pending requests from the caller's direct reports
// @Tags Arrangements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /arrangements/pending [get]
func (h *ArrangementHandler) ListPending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ArrangementRequestFilter{
		ReportingTo: claims.StaffID,
		Status:      models.RequestStatusPending,
	}
	requests, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Approve godoc
// @Summary Approve a pending request group
// @Tags Arrangements
// @Accept json
// @Produce json
// @Param id path string true "Request group ID"
// @Param payload body decisionPayload false "Optional approval comment"
// @Success 200 {object} response.Envelope
// @Router /arrangements/{id}/approve [post]
func (h *ArrangementHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending request group
// @Tags Arrangements
// @Accept json
// @Produce json
// @Param id path string true "Request group ID"
// @Param payload body decisionPayload false "Optional rejection comment"
// @Success 200 {object} response.Envelope
// @Router /arrangements/{id}/reject [post]
func (h *ArrangementHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

// Revoke godoc
// @Summary Revoke an approved request group
// @Tags Arrangements
// @Accept json
// @Produce json
// @Param id path string true "Request group ID"
// @Param payload body decisionPayload false "Optional revocation comment"
// @Success 200 {object} response.Envelope
// @Router /arrangements/{id}/revoke [post]
func (h *ArrangementHandler) Revoke(c *gin.Context) {
	h.decide(c, h.service.Revoke)
}

// Withdraw godoc
// @Summary Withdraw the caller's own pending request group
// @Tags Arrangements
// @Accept json
// @Produce json
// @Param id path string true "Request group ID"
// @Param payload body decisionPayload false "Optional withdrawal reason"
// @Success 200 {object} response.Envelope
// @Router /arrangements/{id}/withdraw [post]
func (h *ArrangementHandler) Withdraw(c *gin.Context) {
	h.decide(c, h.service.Withdraw)
}

func (h *ArrangementHandler) decide(c *gin.Context, op func(ctx context.Context, groupID, comment, actorID string) (*service.ArrangementGroupResult, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	groupID := strings.TrimSpace(c.Param("id"))
	if groupID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "request group id is required"))
		return
	}
	var payload decisionPayload
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
			return
		}
	}
	result, err := op(c.Request.Context(), groupID, payload.Comment, claims.StaffID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
