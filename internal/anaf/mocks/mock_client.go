package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"efactura/internal/anaf"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) ListMessages(ctx context.Context, userID int64, taxID string, lookbackDays, page int) (*anaf.Page, error) {
	args := m.Called(ctx, userID, taxID, lookbackDays, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anaf.Page), args.Error(1)
}

func (m *MockClient) DownloadArtifact(ctx context.Context, userID int64, externalID string) ([]byte, error) {
	args := m.Called(ctx, userID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
