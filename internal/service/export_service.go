package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/export"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/storage"
)

type departmentViewProvider interface {
	Department(ctx context.Context, department, startDate, endDate string) (models.GroupedScheduleView, error)
}

// ExportFormat identifies a supported export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportDownload points at a stored export retrievable by signed token.
type ExportDownload struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders department schedule views into downloadable files.
type ExportService struct {
	schedules departmentViewProvider
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
}

// NewExportService constructs the service. Store and signer are optional;
// without them only inline downloads are available.
func NewExportService(schedules departmentViewProvider, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		logger:    logger,
	}
}

// DepartmentSchedule renders the department view for the range as CSV or PDF.
func (s *ExportService) DepartmentSchedule(ctx context.Context, department, startDate, endDate string, format ExportFormat) (*ExportResult, error) {
	view, err := s.schedules.Department(ctx, department, startDate, endDate)
	if err != nil {
		return nil, err
	}

	dataset := buildScheduleDataset(view)
	filename := fmt.Sprintf("schedule_%s_%s_%s", strings.ToLower(department), startDate, endDate)

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: filename + ".csv"}, nil
	case ExportFormatPDF:
		title := fmt.Sprintf("%s schedule %s to %s", department, startDate, endDate)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: filename + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// StoreDepartmentSchedule renders the view, persists it on disk, and returns
// a signed download token.
func (s *ExportService) StoreDepartmentSchedule(ctx context.Context, department, startDate, endDate string, format ExportFormat) (*ExportDownload, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "stored exports are not configured")
	}
	result, err := s.DepartmentSchedule(ctx, department, startDate, endDate, format)
	if err != nil {
		return nil, err
	}
	jobID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s", jobID, result.Filename)
	if _, err := s.store.Save(relPath, result.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	s.logger.Info("export stored",
		zap.String("department", department),
		zap.String("file", relPath),
		zap.Time("expires_at", expiresAt))
	return &ExportDownload{Token: token, Filename: result.Filename, ExpiresAt: expiresAt}, nil
}

// OpenDownload validates a token and returns the stored export content.
func (s *ExportService) OpenDownload(token string) (*ExportResult, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "stored exports are not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	defer file.Close() //nolint:errcheck
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored export")
	}
	filename := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		filename = relPath[idx+1:]
	}
	contentType := "text/csv"
	if strings.HasSuffix(filename, ".pdf") {
		contentType = "application/pdf"
	}
	return &ExportResult{Content: content, ContentType: contentType, Filename: filename}, nil
}

// buildScheduleDataset flattens the nested view into one row per date,
// department, position, and status bucket, sorted for stable output.
func buildScheduleDataset(view models.GroupedScheduleView) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Date", "Department", "Position", "Status", "Staff"}}

	dates := make([]string, 0, len(view))
	for date := range view {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		departments := make([]string, 0, len(view[date]))
		for department := range view[date] {
			departments = append(departments, department)
		}
		sort.Strings(departments)

		for _, department := range departments {
			positions := make([]string, 0, len(view[date][department]))
			for position := range view[date][department] {
				positions = append(positions, position)
			}
			sort.Strings(positions)

			for _, position := range positions {
				buckets := view[date][department][position]
				for _, bucket := range models.ScheduleBuckets {
					dataset.Rows = append(dataset.Rows, map[string]string{
						"Date":       date,
						"Department": department,
						"Position":   position,
						"Status":     bucket,
						"Staff":      strings.Join(buckets[bucket], ", "),
					})
				}
			}
		}
	}
	return dataset
}
