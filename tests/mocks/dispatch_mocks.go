package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/mail"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
)

// MockTransport implements mail.Transport
type MockTransport struct {
	mock.Mock
}

// Send delivers a message
func (m *MockTransport) Send(ctx context.Context, msg *mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockDispatchTrigger stands in for trigger.Trigger
type MockDispatchTrigger struct {
	mock.Mock
}

// DispatchOne dispatches a single sending
func (m *MockDispatchTrigger) DispatchOne(ctx context.Context, id uint) (*sending.Result, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sending.Result), args.Error(1)
}

// DispatchDue dispatches every due sending
func (m *MockDispatchTrigger) DispatchDue(ctx context.Context) ([]*sending.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sending.Result), args.Error(1)
}

var _ mail.Transport = (*MockTransport)(nil)
