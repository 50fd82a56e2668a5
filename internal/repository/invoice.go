package repository

import (
	"context"
	"time"

	"efactura/internal/model"
)

// InvoiceFilter narrows invoice listings. Zero values mean "no filter".
type InvoiceFilter struct {
	IssuerVATID string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// InvoiceRepository defines data access for synced invoices using SQL queries
// only. No business logic here, strictly persistence operations.
type InvoiceRepository interface {
	// Create inserts a new invoice record. It returns ErrDuplicate when the
	// (company_id, external_id) identity already exists.
	Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)

	// FindByID returns an invoice by its surrogate ID.
	FindByID(ctx context.Context, id int64) (*model.Invoice, error)

	// FindByExternalID returns an invoice by its (company, external id)
	// identity. Absence is reported as sql.ErrNoRows.
	FindByExternalID(ctx context.Context, companyID int64, externalID string) (*model.Invoice, error)

	// Update persists the enrichment fields of an existing record. Identity
	// fields are never touched.
	Update(ctx context.Context, inv *model.Invoice) error

	// List returns a company's invoices, newest sync first, with a total count.
	List(ctx context.Context, companyID int64, f InvoiceFilter, pq PageQuery) (*PageResult[model.Invoice], error)

	// ListIncomplete returns invoices with sentinel/missing enrichment fields,
	// up to limit, for the reparse job.
	ListIncomplete(ctx context.Context, limit int) ([]model.Invoice, error)
}

// CompanyRepository defines read access to the company registry.
type CompanyRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Company, error)
	// ListAutoSync returns companies with automatic sync enabled.
	ListAutoSync(ctx context.Context) ([]model.Company, error)
}

// CheckpointRepository persists per-company sync checkpoints.
type CheckpointRepository interface {
	// Find returns the company's checkpoint, or (nil, nil) when none has been
	// recorded yet (first sync).
	Find(ctx context.Context, companyID int64) (*model.SyncCheckpoint, error)
	// Record upserts the checkpoint timestamp after a successful pass.
	Record(ctx context.Context, companyID int64, ts time.Time) error
}
