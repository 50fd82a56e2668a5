package service

import (
	"context"

	"efactura/internal/model"
	"efactura/internal/repository"
)

// Syncer is the sync surface consumed by the HTTP layer and the scheduler.
type Syncer interface {
	SyncCompany(ctx context.Context, companyID int64, force bool) (*SyncCounts, error)
	ReparseIncomplete(ctx context.Context) (int, error)
}

// InvoiceReader is the invoice read surface consumed by the HTTP layer.
type InvoiceReader interface {
	List(ctx context.Context, companyID int64, f repository.InvoiceFilter, pq repository.PageQuery) (*repository.PageResult[model.Invoice], error)
	Get(ctx context.Context, id int64) (*model.Invoice, error)
	GetProjection(ctx context.Context, id int64) (*model.ParsedInvoice, error)
	DownloadArchive(ctx context.Context, id int64) ([]byte, string, error)
}

var (
	_ Syncer        = (*SyncService)(nil)
	_ InvoiceReader = (*InvoiceService)(nil)
)
