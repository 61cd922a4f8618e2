package identity

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/worldboard/server/internal/model"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) ResolveUsername(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}
