package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rivadavia/grainops/internal/export"
	"github.com/rivadavia/grainops/internal/metrics"
	"github.com/rivadavia/grainops/internal/model"
)

type ExcelGenerator interface {
	Generate(ops []model.Operation) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.Liquidation) ([]byte, error)
	FileName(doc model.Liquidation) string
}

type CompanySource interface {
	Current() model.Settings
}

type Document struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DocumentService renders stored operations; it never recomputes totals.
type DocumentService struct {
	repo     OperationStore
	company  CompanySource
	excelGen ExcelGenerator
	pdfGen   PDFGenerator
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewDocumentService(
	repo OperationStore,
	company CompanySource,
	excelGen ExcelGenerator,
	pdfGen PDFGenerator,
	m *metrics.Metrics,
	log zerolog.Logger,
) *DocumentService {
	return &DocumentService{
		repo:     repo,
		company:  company,
		excelGen: excelGen,
		pdfGen:   pdfGen,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (s *DocumentService) ExportCSV(ctx context.Context, filter model.OperationFilter) (*Document, error) {
	ops, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	content, err := export.ToCSV(ops)
	if err != nil {
		if errors.Is(err, export.ErrNoOperations) {
			return nil, fmt.Errorf("%w: %s", ErrNothingToExport, err.Error())
		}
		return nil, err
	}
	s.metrics.ObserveExport("csv")
	return &Document{
		FileName:    s.buildFileName("csv"),
		ContentType: "text/csv; charset=utf-8",
		Content:     content,
	}, nil
}

func (s *DocumentService) ExportExcel(ctx context.Context, filter model.OperationFilter) (*Document, error) {
	ops, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, ErrNothingToExport
	}
	content, err := s.excelGen.Generate(ops)
	if err != nil {
		s.log.Error().Err(err).Int("operations", len(ops)).Msg("excel export failed")
		return nil, err
	}
	s.metrics.ObserveExport("xlsx")
	return &Document{
		FileName:    s.buildFileName("xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

// ListLiquidations returns the completed operations, optionally for one contact.
func (s *DocumentService) ListLiquidations(ctx context.Context, contact string) ([]model.Operation, error) {
	return s.repo.List(ctx, model.OperationFilter{CompletedOnly: true, Contact: contact})
}

func (s *DocumentService) LiquidationPDF(ctx context.Context, id uuid.UUID, party model.LiquidationParty) (*Document, error) {
	if !party.Valid() {
		return nil, fmt.Errorf("%w: party must be productor or comprador", ErrInvalidInput)
	}
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if op.Status != model.OperationStatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrNotLiquidatable, op.Status)
	}

	doc := model.Liquidation{
		Operation: *op,
		Company:   s.company.Current().Company,
		Party:     party,
	}
	content, err := s.pdfGen.Generate(doc)
	if err != nil {
		s.log.Error().Err(err).Str("operation_id", id.String()).Str("party", string(party)).Msg("liquidation pdf failed")
		return nil, err
	}
	s.metrics.ObserveExport("pdf")
	return &Document{
		FileName:    s.pdfGen.FileName(doc),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *DocumentService) buildFileName(ext string) string {
	return sanitizeFileName(fmt.Sprintf("reporte_operaciones_%s.%s", s.now().Format("2006-01-02"), ext))
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(strings.TrimSpace(name))
}
