package backend

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruteri/secret-dns/interfaces"
)

// MockTaskBackend mocks the interfaces.TaskBackend interface
type MockTaskBackend struct {
	mock.Mock
}

// SubmitCall mocks the SubmitCall method
func (m *MockTaskBackend) SubmitCall(ctx context.Context, call *interfaces.RemoteCall) (*interfaces.TaskHandle, error) {
	args := m.Called(ctx, call)
	handle, _ := args.Get(0).(*interfaces.TaskHandle)
	return handle, args.Error(1)
}

// GetStatus mocks the GetStatus method
func (m *MockTaskBackend) GetStatus(ctx context.Context, handle *interfaces.TaskHandle) (*interfaces.TaskHandle, error) {
	args := m.Called(ctx, handle)
	next, _ := args.Get(0).(*interfaces.TaskHandle)
	return next, args.Error(1)
}

// GetResult mocks the GetResult method
func (m *MockTaskBackend) GetResult(ctx context.Context, handle *interfaces.TaskHandle) (*interfaces.TaskResult, error) {
	args := m.Called(ctx, handle)
	result, _ := args.Get(0).(*interfaces.TaskResult)
	return result, args.Error(1)
}

// Decrypt mocks the Decrypt method
func (m *MockTaskBackend) Decrypt(ctx context.Context, result *interfaces.TaskResult) ([]byte, error) {
	args := m.Called(ctx, result)
	plaintext, _ := args.Get(0).([]byte)
	return plaintext, args.Error(1)
}
