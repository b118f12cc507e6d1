package clients

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruteri/secret-dns/interfaces"
)

// MockNameService mocks the interfaces.NameRegistry interface
type MockNameService struct {
	mock.Mock
}

func (m *MockNameService) Ready() bool {
	return m.Called().Bool(0)
}

func (m *MockNameService) RegisterStatus(ctx context.Context, domain, owner string) (interfaces.StatusCode, error) {
	args := m.Called(ctx, domain, owner)
	return args.Get(0).(interfaces.StatusCode), args.Error(1)
}

func (m *MockNameService) SetTargetStatus(ctx context.Context, domain, target, owner string) (interfaces.StatusCode, error) {
	args := m.Called(ctx, domain, target, owner)
	return args.Get(0).(interfaces.StatusCode), args.Error(1)
}

func (m *MockNameService) ResolveTarget(ctx context.Context, domain string) (string, error) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Error(1)
}
