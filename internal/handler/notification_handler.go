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

type notificationReader interface {
	List(ctx context.Context, staffID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, staffID string) error
}

// NotificationHandler exposes workflow notification endpoints.
type NotificationHandler struct {
	service notificationReader
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationReader) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notifications, err := h.service.List(c.Request.Context(), claims.StaffID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "notification id is required"))
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id, claims.StaffID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
