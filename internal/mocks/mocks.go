// Package mocks holds testify mocks of the repositories shared between
// components.
package mocks

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

// PassThroughTx runs the callback directly without a database transaction.
type PassThroughTx struct{}

func (PassThroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) CreateCart(ctx context.Context, clientID int64) error {
	return m.Called(ctx, clientID).Error(0)
}

func (m *OrderRepository) ActiveCart(ctx context.Context, clientID int64) (*order.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *OrderRepository) LockActiveCart(ctx context.Context, clientID int64) (*order.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *OrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *OrderRepository) Items(ctx context.Context, orderID uuid.UUID) ([]order.LineItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.LineItem), args.Error(1)
}

func (m *OrderRepository) UpdatePricing(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *OrderRepository) ListByClient(ctx context.Context, clientID int64) ([]order.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *OrderRepository) ListByStatus(ctx context.Context, statuses []order.Status) ([]order.Order, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

type Directory struct {
	mock.Mock
}

func (m *Directory) ClientByUserID(ctx context.Context, userID int64) (*directory.Client, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

func (m *Directory) ClientByID(ctx context.Context, id int64) (*directory.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Client), args.Error(1)
}

func (m *Directory) ProductByID(ctx context.Context, id int64) (*directory.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Product), args.Error(1)
}

func (m *Directory) BranchByID(ctx context.Context, id int64) (*directory.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Branch), args.Error(1)
}
