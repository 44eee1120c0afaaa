package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
)

type departmentViewStub struct {
	view models.GroupedScheduleView
}

func (s *departmentViewStub) Department(ctx context.Context, department, startDate, endDate string) (models.GroupedScheduleView, error) {
	return s.view, nil
}

func sampleDepartmentView() models.GroupedScheduleView {
	buckets := map[string][]string{
		models.StatusInOffice:         {"Jane Smith"},
		string(models.SessionFullDay): {"John Doe"},
		string(models.SessionAM):      {},
		string(models.SessionPM):      {},
	}
	return models.GroupedScheduleView{
		"2023-10-02": {
			"Engineering": {
				"Developer": buckets,
			},
		},
	}
}

func TestExportServiceDepartmentScheduleCSV(t *testing.T) {
	svc := NewExportService(&departmentViewStub{view: sampleDepartmentView()}, nil, nil, nil)

	result, err := svc.DepartmentSchedule(context.Background(), "Engineering", "2023-10-02", "2023-10-02", ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.Equal(t, "schedule_engineering_2023-10-02_2023-10-02.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Equal(t, "Date,Department,Position,Status,Staff", lines[0])
	// one row per bucket, in fixed bucket order
	require.Len(t, lines, 1+len(models.ScheduleBuckets))
	require.Contains(t, lines[1], "In office")
	require.Contains(t, lines[1], "Jane Smith")
	require.Contains(t, lines[2], "John Doe")
}

func TestExportServiceDepartmentSchedulePDF(t *testing.T) {
	svc := NewExportService(&departmentViewStub{view: sampleDepartmentView()}, nil, nil, nil)

	result, err := svc.DepartmentSchedule(context.Background(), "Engineering", "2023-10-02", "2023-10-02", ExportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	require.NotEmpty(t, result.Content)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&departmentViewStub{view: sampleDepartmentView()}, nil, nil, nil)

	_, err := svc.DepartmentSchedule(context.Background(), "Engineering", "2023-10-02", "2023-10-02", ExportFormat("xlsx"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceStoreRequiresConfiguration(t *testing.T) {
	svc := NewExportService(&departmentViewStub{view: sampleDepartmentView()}, nil, nil, nil)

	_, err := svc.StoreDepartmentSchedule(context.Background(), "Engineering", "2023-10-02", "2023-10-02", ExportFormatCSV)
	require.Error(t, err)
}

func TestBuildScheduleDatasetSortsRows(t *testing.T) {
	view := models.GroupedScheduleView{
		"2023-10-03": {"Engineering": {"Developer": emptyBuckets()}},
		"2023-10-02": {"Engineering": {"Developer": emptyBuckets()}},
	}
	dataset := buildScheduleDataset(view)
	require.Len(t, dataset.Rows, 2*len(models.ScheduleBuckets))
	require.Equal(t, "2023-10-02", dataset.Rows[0]["Date"])
	require.Equal(t, "2023-10-03", dataset.Rows[len(models.ScheduleBuckets)]["Date"])
}

func emptyBuckets() map[string][]string {
	buckets := make(map[string][]string, len(models.ScheduleBuckets))
	for _, bucket := range models.ScheduleBuckets {
		buckets[bucket] = []string{}
	}
	return buckets
}
