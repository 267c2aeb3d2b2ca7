package submitter

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	domain "github.com/vadiminshakov/bondi/internal/domain"
)

// Submitter is a testify mock of bonding.Submitter.
type Submitter struct {
	mock.Mock
}

// Approve provides a mock function with given fields: ctx, req
func (_m *Submitter) Approve(ctx context.Context, req domain.ApprovalRequest) (domain.Receipt, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Approve")
	}

	var r0 domain.Receipt
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, domain.ApprovalRequest) (domain.Receipt, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, domain.ApprovalRequest) domain.Receipt); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(domain.Receipt)
	}

	if rf, ok := ret.Get(1).(func(context.Context, domain.ApprovalRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Bond provides a mock function with given fields: ctx, req
func (_m *Submitter) Bond(ctx context.Context, req domain.BondRequest) (domain.Receipt, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Bond")
	}

	var r0 domain.Receipt
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, domain.BondRequest) (domain.Receipt, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, domain.BondRequest) domain.Receipt); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(domain.Receipt)
	}

	if rf, ok := ret.Get(1).(func(context.Context, domain.BondRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewSubmitter creates the mock and asserts its expectations on test cleanup.
func NewSubmitter(t interface {
	mock.TestingT
	Cleanup(func())
}) *Submitter {
	mock := &Submitter{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
