package confirm

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	confirm "github.com/vadiminshakov/bondi/internal/services/confirm"
)

// Gate is a testify mock of confirm.Gate.
type Gate struct {
	mock.Mock
}

// Confirm provides a mock function with given fields: ctx, prompt
func (_m *Gate) Confirm(ctx context.Context, prompt confirm.Prompt) (bool, error) {
	ret := _m.Called(ctx, prompt)

	if len(ret) == 0 {
		panic("no return value specified for Confirm")
	}

	var r0 bool
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, confirm.Prompt) (bool, error)); ok {
		return rf(ctx, prompt)
	}
	if rf, ok := ret.Get(0).(func(context.Context, confirm.Prompt) bool); ok {
		r0 = rf(ctx, prompt)
	} else {
		r0 = ret.Get(0).(bool)
	}

	if rf, ok := ret.Get(1).(func(context.Context, confirm.Prompt) error); ok {
		r1 = rf(ctx, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewGate creates the mock and asserts its expectations on test cleanup.
func NewGate(t interface {
	mock.TestingT
	Cleanup(func())
}) *Gate {
	mock := &Gate{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
