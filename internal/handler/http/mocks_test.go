package http_test

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/loyalty"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

func orderResult(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetOrCreateActiveCart(ctx context.Context, userID int64) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID))
}

func (m *MockCartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, productID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID int64, itemID uuid.UUID) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, itemID))
}

func (m *MockCartService) ClearCart(ctx context.Context, userID int64, cartID uuid.UUID) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, cartID))
}

func (m *MockCartService) AssignBranch(ctx context.Context, userID, branchID int64) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, branchID))
}

func (m *MockCartService) SetDeliveryType(ctx context.Context, userID int64, delivery order.DeliveryType) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, delivery))
}

type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Validate(ctx context.Context, code string, userID int64) (*coupon.Coupon, error) {
	args := m.Called(ctx, code, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) Apply(ctx context.Context, code string, userID int64) (*order.Order, error) {
	return orderResult(m.Called(ctx, code, userID))
}

func (m *MockCouponService) Remove(ctx context.Context, userID int64) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID))
}

func (m *MockCouponService) ListAvailable(ctx context.Context, userID int64) ([]coupon.Coupon, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) RecordUsage(ctx context.Context, code string, clientID int64, orderID uuid.UUID) error {
	return m.Called(ctx, code, clientID, orderID).Error(0)
}

func (m *MockCouponService) ListActive(ctx context.Context) ([]coupon.Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) Create(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockLoyaltyService struct {
	mock.Mock
}

func (m *MockLoyaltyService) Balance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoyaltyService) AwardPoints(ctx context.Context, userID int64, amount decimal.Decimal, orderID uuid.UUID) (*loyalty.Award, error) {
	args := m.Called(ctx, userID, amount, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Award), args.Error(1)
}

func (m *MockLoyaltyService) AwardClientPoints(ctx context.Context, clientID int64, amount decimal.Decimal, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, clientID, amount, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoyaltyService) History(ctx context.Context, userID int64) ([]loyalty.HistoryEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.HistoryEntry), args.Error(1)
}

func (m *MockLoyaltyService) ListRewards(ctx context.Context) ([]loyalty.Reward, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.Reward), args.Error(1)
}

func (m *MockLoyaltyService) Redeem(ctx context.Context, userID int64, rewardID uuid.UUID) (*loyalty.Redemption, error) {
	args := m.Called(ctx, userID, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Redemption), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID int64, payment order.Payment) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, payment))
}

func (m *MockOrderService) Cancel(ctx context.Context, userID int64, orderID uuid.UUID) (*order.Order, error) {
	return orderResult(m.Called(ctx, userID, orderID))
}

func (m *MockOrderService) AdvanceState(ctx context.Context, orderID uuid.UUID, newStatus order.Status) (*order.Order, error) {
	return orderResult(m.Called(ctx, orderID, newStatus))
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return orderResult(m.Called(ctx, orderID))
}

func (m *MockOrderService) ListClientOrders(ctx context.Context, userID int64) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListActiveOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}
