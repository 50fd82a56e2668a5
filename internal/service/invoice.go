package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"efactura/internal/artifact"
	"efactura/internal/extract"
	"efactura/internal/model"
	"efactura/internal/repository"
)

// ErrInvoiceNotFound is returned when the requested invoice does not exist.
var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceService serves read access to synced invoices: filtered listings,
// canonical projections, and archive downloads through the retrieval ladder.
type InvoiceService struct {
	invoices  repository.InvoiceRepository
	companies repository.CompanyRepository
	retriever *artifact.Retriever
	log       *zap.Logger
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	companies repository.CompanyRepository,
	retriever *artifact.Retriever,
	log *zap.Logger,
) *InvoiceService {
	return &InvoiceService{invoices: invoices, companies: companies, retriever: retriever, log: log}
}

// List returns a page of a company's invoices, newest sync first.
func (s *InvoiceService) List(ctx context.Context, companyID int64, f repository.InvoiceFilter, pq repository.PageQuery) (*repository.PageResult[model.Invoice], error) {
	return s.invoices.List(ctx, companyID, f, pq)
}

// Get returns one invoice record by id.
func (s *InvoiceService) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return inv, nil
}

// GetProjection returns the invoice's canonical projection: the persisted one
// when present, a live re-extraction from the stored document otherwise, and
// as a last resort a projection assembled from the record's own columns.
func (s *InvoiceService) GetProjection(ctx context.Context, id int64) (*model.ParsedInvoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(inv.Projection) > 0 {
		var parsed model.ParsedInvoice
		if err := json.Unmarshal(inv.Projection, &parsed); err == nil {
			return &parsed, nil
		}
		s.log.Warn("stored projection is unreadable, re-extracting", zap.Int64("invoice_id", id))
	}

	if inv.XMLContent != "" {
		if parsed, err := extract.Parse(inv.XMLContent); err == nil {
			return parsed, nil
		}
	}

	parsed := &model.ParsedInvoice{
		IssuerName:     inv.IssuerName,
		IssuerVATID:    inv.IssuerVATID,
		RecipientName:  inv.RecipientName,
		RecipientVATID: inv.RecipientVATID,
		IssueDate:      inv.InvoiceDate,
		Currency:       inv.Currency,
	}
	if inv.TotalAmount.Valid {
		total := inv.TotalAmount.Decimal
		parsed.Total = &total
	}
	return parsed, nil
}

// DownloadArchive returns the invoice's archive bytes and a download filename,
// re-obtaining the blob through the retrieval ladder.
func (s *InvoiceService) DownloadArchive(ctx context.Context, id int64) ([]byte, string, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	company, err := s.companies.FindByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("load company %d: %w", inv.CompanyID, err)
	}

	blob, err := s.retriever.Fetch(ctx, company.UserID, inv)
	if err != nil {
		return nil, "", err
	}
	return blob, fmt.Sprintf("invoice_%s.zip", inv.ExternalID), nil
}
