package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type receivedRequestLister interface {
	ListReceived(ctx context.Context, ownerID string) ([]models.RequestDetail, error)
}

// ExportService renders a user's received adoption requests as CSV or PDF.
type ExportService struct {
	requests receivedRequestLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService builds an ExportService.
func NewExportService(requests receivedRequestLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		requests: requests,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportedDocument carries rendered bytes with download metadata.
type ExportedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReceivedRequests renders the caller's received adoption requests.
func (s *ExportService) ReceivedRequests(ctx context.Context, ownerID string, format ExportFormat) (*ExportedDocument, error) {
	items, err := s.requests.ListReceived(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Pet", "Applicant", "Email", "Status", "Message", "Requested At"},
		Rows:    make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Pet":          item.SubjectName,
			"Applicant":    item.ApplicantName,
			"Email":        item.ApplicantEmail,
			"Status":       string(item.Status),
			"Message":      item.Message,
			"Requested At": item.CreatedAt.Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportedDocument{
			Filename:    fmt.Sprintf("adoption-requests-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Adoption Requests")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportedDocument{
			Filename:    fmt.Sprintf("adoption-requests-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
