package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/pkg/export"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

// ExportFormat names a supported report rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered report ready to be written to the response.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

type exportProgressRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.StudentProgressView, error)
}

type exportGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders group progress reports as CSV or PDF.
type ExportService struct {
	progress exportProgressRepository
	groups   exportGroupRepository
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(progress exportProgressRepository, groups exportGroupRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{progress: progress, groups: groups, csv: csv, pdf: pdf, logger: logger}
}

// GroupProgressReport renders the per-student progress of a group.
func (s *ExportService) GroupProgressReport(ctx context.Context, groupID string, format ExportFormat) (*ExportResult, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	views, err := s.progress.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group progress")
	}

	dataset := buildProgressDataset(views)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("progress_%s_%s.csv", sanitizeFileName(group.Name), stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Progress report: %s", group.Name))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("progress_%s_%s.pdf", sanitizeFileName(group.Name), stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func buildProgressDataset(views []models.StudentProgressView) export.Dataset {
	headers := []string{"Student", "Email", "Percent", "Status", "Started", "Graduated"}
	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		name := strings.TrimSpace(fmt.Sprintf("%s %s %s", v.StudentLastName, v.StudentFirstName, v.StudentMiddleName))
		graduated := ""
		if v.GraduationDate != nil {
			graduated = v.GraduationDate.Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Student":   name,
			"Email":     v.Email,
			"Percent":   fmt.Sprintf("%d", v.Percent),
			"Status":    v.StatusName,
			"Started":   v.EducationStartDate.Format("2006-01-02"),
			"Graduated": graduated,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	return strings.ToLower(replacer.Replace(name))
}
