package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"efactura/internal/model"
	"efactura/internal/repository"
	"efactura/internal/service"
)

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) SyncCompany(ctx context.Context, companyID int64, force bool) (*service.SyncCounts, error) {
	args := m.Called(ctx, companyID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncCounts), args.Error(1)
}

func (m *MockSyncService) ReparseIncomplete(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) List(ctx context.Context, companyID int64, f repository.InvoiceFilter, pq repository.PageQuery) (*repository.PageResult[model.Invoice], error) {
	args := m.Called(ctx, companyID, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Invoice]), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GetProjection(ctx context.Context, id int64) (*model.ParsedInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ParsedInvoice), args.Error(1)
}

func (m *MockInvoiceService) DownloadArchive(ctx context.Context, id int64) ([]byte, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
