package loader

import (
	context "context"

	decimal "github.com/shopspring/decimal"
	mock "github.com/stretchr/testify/mock"
	domain "github.com/vadiminshakov/bondi/internal/domain"
)

// Loader is a testify mock of recompute.Loader.
type Loader struct {
	mock.Mock
}

// CalcBondDetails provides a mock function with given fields: ctx, asset, quantity
func (_m *Loader) CalcBondDetails(ctx context.Context, asset domain.BondAssetID, quantity decimal.Decimal) (domain.QuoteUpdate, error) {
	ret := _m.Called(ctx, asset, quantity)

	if len(ret) == 0 {
		panic("no return value specified for CalcBondDetails")
	}

	var r0 domain.QuoteUpdate
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, domain.BondAssetID, decimal.Decimal) (domain.QuoteUpdate, error)); ok {
		return rf(ctx, asset, quantity)
	}
	if rf, ok := ret.Get(0).(func(context.Context, domain.BondAssetID, decimal.Decimal) domain.QuoteUpdate); ok {
		r0 = rf(ctx, asset, quantity)
	} else {
		r0 = ret.Get(0).(domain.QuoteUpdate)
	}

	if rf, ok := ret.Get(1).(func(context.Context, domain.BondAssetID, decimal.Decimal) error); ok {
		r1 = rf(ctx, asset, quantity)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CalculateUserBondDetails provides a mock function with given fields: ctx, address, asset
func (_m *Loader) CalculateUserBondDetails(ctx context.Context, address string, asset domain.BondAssetID) (domain.PositionUpdate, error) {
	ret := _m.Called(ctx, address, asset)

	if len(ret) == 0 {
		panic("no return value specified for CalculateUserBondDetails")
	}

	var r0 domain.PositionUpdate
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, domain.BondAssetID) (domain.PositionUpdate, error)); ok {
		return rf(ctx, address, asset)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, domain.BondAssetID) domain.PositionUpdate); ok {
		r0 = rf(ctx, address, asset)
	} else {
		r0 = ret.Get(0).(domain.PositionUpdate)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, domain.BondAssetID) error); ok {
		r1 = rf(ctx, address, asset)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewLoader creates the mock and asserts its expectations on test cleanup.
func NewLoader(t interface {
	mock.TestingT
	Cleanup(func())
}) *Loader {
	mock := &Loader{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
