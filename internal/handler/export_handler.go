package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/julian-m-willis/spm-proj-sub000/internal/service"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/response"
)

type scheduleExporter interface {
	DepartmentSchedule(ctx context.Context, department, startDate, endDate string, format service.ExportFormat) (*service.ExportResult, error)
	StoreDepartmentSchedule(ctx context.Context, department, startDate, endDate string, format service.ExportFormat) (*service.ExportDownload, error)
	OpenDownload(token string) (*service.ExportResult, error)
}

// ExportHandler serves schedule view downloads.
type ExportHandler struct {
	service scheduleExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service scheduleExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Department godoc
// @Summary Export a department schedule as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param department query string true "Department name"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /schedules/department/export [get]
func (h *ExportHandler) Department(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	department := strings.TrimSpace(c.Query("department"))
	if department == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "department is required"))
		return
	}
	start, end, ok := dateRangeParams(c)
	if !ok {
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if format == "" {
		format = service.ExportFormatCSV
	}
	result, err := h.service.DepartmentSchedule(c.Request.Context(), department, start, end, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Store godoc
// @Summary Store a department schedule export and return a download token
// @Tags Exports
// @Produce json
// @Param department query string true "Department name"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 201 {object} response.Envelope
// @Router /schedules/department/export/store [post]
func (h *ExportHandler) Store(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	department := strings.TrimSpace(c.Query("department"))
	if department == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "department is required"))
		return
	}
	start, end, ok := dateRangeParams(c)
	if !ok {
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if format == "" {
		format = service.ExportFormatCSV
	}
	download, err := h.service.StoreDepartmentSchedule(c.Request.Context(), department, start, end, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, download, nil)
}

// Download godoc
// @Summary Download a stored export by signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
