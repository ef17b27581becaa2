package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/mocks"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

type MockCouponRecorder struct {
	mock.Mock
}

func (m *MockCouponRecorder) RecordUsage(ctx context.Context, code string, clientID int64, orderID uuid.UUID) error {
	return m.Called(ctx, code, clientID, orderID).Error(0)
}

type MockPointsAwarder struct {
	mock.Mock
}

func (m *MockPointsAwarder) AwardClientPoints(ctx context.Context, clientID int64, amount decimal.Decimal, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, clientID, amount, orderID)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2025, 5, 10, 18, 30, 0, 0, time.UTC)

type fixture struct {
	repo    *mocks.OrderRepository
	dir     *mocks.Directory
	coupons *MockCouponRecorder
	points  *MockPointsAwarder
	svc     order.Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:    new(mocks.OrderRepository),
		dir:     new(mocks.Directory),
		coupons: new(MockCouponRecorder),
		points:  new(MockPointsAwarder),
	}
	f.svc = order.NewService(f.repo, f.dir, mocks.PassThroughTx{}, f.coupons, f.points,
		order.WithClock(func() time.Time { return fixedNow }))
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.repo.AssertExpectations(t)
	f.dir.AssertExpectations(t)
	f.coupons.AssertExpectations(t)
	f.points.AssertExpectations(t)
}

func newCart(clientID int64) *order.Order {
	branch := int64(3)
	return &order.Order{
		ID:           uuid.Must(uuid.NewV4()),
		ClientID:     clientID,
		Status:       order.StatusCart,
		DeliveryType: order.DeliveryPickup,
		Subtotal:     decimal.NewFromInt(9000),
		Discount:     decimal.Zero,
		ShippingCost: decimal.Zero,
		Total:        decimal.NewFromInt(9000),
		BranchID:     &branch,
	}
}

func oneItem(orderID uuid.UUID) []order.LineItem {
	return []order.LineItem{{
		ID:        uuid.Must(uuid.NewV4()),
		OrderID:   orderID,
		ProductID: 10,
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(4500),
		Subtotal:  decimal.NewFromInt(9000),
	}}
}

func TestService_Checkout_CashConfirmsAndRecordsCoupon(t *testing.T) {
	f := newFixture()
	cart := newCart(7)
	code := "VERANO10"
	cart.CouponCode = &code

	f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7, UserID: 70}, nil).Once()
	f.repo.On("LockActiveCart", mock.Anything, int64(7)).Return(cart, nil).Once()
	f.repo.On("Items", mock.Anything, cart.ID).Return(oneItem(cart.ID), nil).Once()
	f.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.Status == order.StatusConfirmed &&
			o.ConfirmedAt != nil && o.ConfirmedAt.Equal(fixedNow) &&
			o.PaymentMethod != nil && *o.PaymentMethod == order.PaymentCash
	})).Return(nil).Once()
	f.coupons.On("RecordUsage", mock.Anything, "VERANO10", int64(7), cart.ID).Return(nil).Once()

	got, err := f.svc.Checkout(context.Background(), 70, order.Payment{Method: order.PaymentCash})

	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, got.Status)
	assert.Len(t, got.Items, 1)
	f.assertExpectations(t)
}

func TestService_Checkout_SinpeLeavesOrderPending(t *testing.T) {
	f := newFixture()
	cart := newCart(7)

	f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7, UserID: 70}, nil).Once()
	f.repo.On("LockActiveCart", mock.Anything, int64(7)).Return(cart, nil).Once()
	f.repo.On("Items", mock.Anything, cart.ID).Return(oneItem(cart.ID), nil).Once()
	f.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.Status == order.StatusPending && o.ConfirmedAt == nil &&
			o.Payment.SinpeReceipt != nil && *o.Payment.SinpeReceipt == "RCPT-881" &&
			o.Payment.CardLast4 == nil
	})).Return(nil).Once()

	got, err := f.svc.Checkout(context.Background(), 70, order.Payment{
		Method:       order.PaymentSinpe,
		SinpeReceipt: "RCPT-881",
		SinpePhone:   "88887777",
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)
	f.assertExpectations(t)
}

func TestService_Checkout_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		payment   order.Payment
		setup     func(f *fixture)
		wantErrIs []error
	}{
		{
			name:      "unknown_method",
			payment:   order.Payment{Method: "bitcoin"},
			setup:     func(f *fixture) {},
			wantErrIs: []error{order.ErrInvalidPayment, apperr.ErrInvalidInput},
		},
		{
			name:      "paypal_without_order_id",
			payment:   order.Payment{Method: order.PaymentPayPal},
			setup:     func(f *fixture) {},
			wantErrIs: []error{order.ErrMissingPaymentRef, apperr.ErrInvalidInput},
		},
		{
			name:      "card_without_authorization",
			payment:   order.Payment{Method: order.PaymentCard, CardLast4: "4242"},
			setup:     func(f *fixture) {},
			wantErrIs: []error{order.ErrMissingPaymentRef},
		},
		{
			name:    "no_profile",
			payment: order.Payment{Method: order.PaymentCash},
			setup: func(f *fixture) {
				f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(nil, directory.ErrClientNotFound).Once()
			},
			wantErrIs: []error{apperr.ErrNotFound},
		},
		{
			name:    "no_active_cart",
			payment: order.Payment{Method: order.PaymentCash},
			setup: func(f *fixture) {
				f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
				f.repo.On("LockActiveCart", mock.Anything, int64(7)).Return(nil, order.ErrNoActiveCart).Once()
			},
			wantErrIs: []error{order.ErrNoActiveCart, apperr.ErrNotFound},
		},
		{
			name:    "empty_cart",
			payment: order.Payment{Method: order.PaymentCash},
			setup: func(f *fixture) {
				cart := newCart(7)
				f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
				f.repo.On("LockActiveCart", mock.Anything, int64(7)).Return(cart, nil).Once()
				f.repo.On("Items", mock.Anything, cart.ID).Return([]order.LineItem{}, nil).Once()
			},
			wantErrIs: []error{order.ErrEmptyCart, apperr.ErrInvalidState},
		},
		{
			name:    "no_branch",
			payment: order.Payment{Method: order.PaymentCash},
			setup: func(f *fixture) {
				cart := newCart(7)
				cart.BranchID = nil
				f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
				f.repo.On("LockActiveCart", mock.Anything, int64(7)).Return(cart, nil).Once()
				f.repo.On("Items", mock.Anything, cart.ID).Return(oneItem(cart.ID), nil).Once()
			},
			wantErrIs: []error{order.ErrNoBranchSelected, apperr.ErrInvalidState},
		},
		{
			name:    "coupon_cap_reached_at_confirmation",
			payment: order.Payment{Method: order.PaymentCash},
			setup: func(f *fixture) {
				cart := newCart(7)
				code := "UNICO"
				cart.CouponCode = &code
				f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
				f.repo.On("LockActiveCart", mock.Anything, int64(7)).Return(cart, nil).Once()
				f.repo.On("Items", mock.Anything, cart.ID).Return(oneItem(cart.ID), nil).Once()
				f.repo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil).Once()
				f.coupons.On("RecordUsage", mock.Anything, "UNICO", int64(7), cart.ID).Return(apperr.ErrRedemptionLimitReached).Once()
			},
			wantErrIs: []error{apperr.ErrRedemptionLimitReached},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			got, err := f.svc.Checkout(context.Background(), 70, tt.payment)

			require.Error(t, err)
			assert.Nil(t, got)
			for _, target := range tt.wantErrIs {
				assert.ErrorIs(t, err, target)
			}
			f.assertExpectations(t)
		})
	}
}

func TestService_Cancel(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	t.Run("success", func(t *testing.T) {
		f := newFixture()
		f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
		f.repo.On("LockByID", mock.Anything, orderID).Return(&order.Order{ID: orderID, ClientID: 7, Status: order.StatusPending}, nil).Once()
		f.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
			return o.Status == order.StatusCancelled
		})).Return(nil).Once()

		got, err := f.svc.Cancel(context.Background(), 70, orderID)

		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, got.Status)
		f.assertExpectations(t)
	})

	t.Run("other_clients_order", func(t *testing.T) {
		f := newFixture()
		f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
		f.repo.On("LockByID", mock.Anything, orderID).Return(&order.Order{ID: orderID, ClientID: 8, Status: order.StatusPending}, nil).Once()

		_, err := f.svc.Cancel(context.Background(), 70, orderID)

		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		f.assertExpectations(t)
	})

	t.Run("already_completed", func(t *testing.T) {
		f := newFixture()
		f.dir.On("ClientByUserID", mock.Anything, int64(70)).Return(&directory.Client{ID: 7}, nil).Once()
		f.repo.On("LockByID", mock.Anything, orderID).Return(&order.Order{ID: orderID, ClientID: 7, Status: order.StatusCompleted}, nil).Once()

		_, err := f.svc.Cancel(context.Background(), 70, orderID)

		assert.ErrorIs(t, err, apperr.ErrInvalidState)
		f.assertExpectations(t)
	})
}

func TestService_AdvanceState(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		current    order.Status
		target     order.Status
		expectLoad bool
		expectSave bool
		setupHooks func(f *fixture)
		wantErrIs  error
	}{
		{name: "pending_not_admin_target", current: order.StatusConfirmed, target: order.StatusPending, wantErrIs: apperr.ErrInvalidInput},
		{name: "unknown_target", current: order.StatusConfirmed, target: "entregado", wantErrIs: apperr.ErrInvalidInput},
		{name: "from_completed", current: order.StatusCompleted, target: order.StatusCompleted, expectLoad: true, wantErrIs: apperr.ErrInvalidState},
		{name: "from_cancelled", current: order.StatusCancelled, target: order.StatusConfirmed, expectLoad: true, wantErrIs: apperr.ErrInvalidState},
		{name: "from_cart", current: order.StatusCart, target: order.StatusConfirmed, expectLoad: true, wantErrIs: apperr.ErrInvalidState},
		{name: "cart_to_cancelled", current: order.StatusCart, target: order.StatusCancelled, expectLoad: true, expectSave: true},
		{name: "skip_back", current: order.StatusReady, target: order.StatusPreparing, expectLoad: true, wantErrIs: apperr.ErrInvalidState},
		{name: "pending_to_preparing", current: order.StatusPending, target: order.StatusPreparing, expectLoad: true, wantErrIs: apperr.ErrInvalidState},
		{name: "same_status_is_noop", current: order.StatusPreparing, target: order.StatusPreparing, expectLoad: true},
		{name: "confirmed_to_preparing", current: order.StatusConfirmed, target: order.StatusPreparing, expectLoad: true, expectSave: true},
		{
			name: "pending_to_confirmed_records_coupon", current: order.StatusPending, target: order.StatusConfirmed,
			expectLoad: true, expectSave: true,
			setupHooks: func(f *fixture) {
				f.coupons.On("RecordUsage", mock.Anything, "VERANO10", int64(7), orderID).Return(nil).Once()
			},
		},
		{
			name: "ready_to_completed_awards_points", current: order.StatusReady, target: order.StatusCompleted,
			expectLoad: true, expectSave: true,
			setupHooks: func(f *fixture) {
				f.points.On("AwardClientPoints", mock.Anything, int64(7), mock.MatchedBy(func(d decimal.Decimal) bool {
					return d.Equal(decimal.NewFromInt(12500))
				}), orderID).Return(int64(120), nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			code := "VERANO10"
			current := &order.Order{ID: orderID, ClientID: 7, Status: tt.current, Total: decimal.NewFromInt(12500), CouponCode: &code}

			if tt.expectLoad {
				f.repo.On("LockByID", mock.Anything, orderID).Return(current, nil).Once()
			}
			if tt.expectSave {
				f.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
					return o.Status == tt.target
				})).Return(nil).Once()
			}
			if tt.setupHooks != nil {
				tt.setupHooks(f)
			}

			got, err := f.svc.AdvanceState(context.Background(), orderID, tt.target)

			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.target, got.Status)
			}
			f.assertExpectations(t)
		})
	}
}

func TestService_AdvanceState_StampsCompletion(t *testing.T) {
	f := newFixture()
	orderID := uuid.Must(uuid.NewV4())
	current := &order.Order{ID: orderID, ClientID: 7, Status: order.StatusReady, Total: decimal.NewFromInt(900)}

	f.repo.On("LockByID", mock.Anything, orderID).Return(current, nil).Once()
	f.repo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil).Once()
	f.points.On("AwardClientPoints", mock.Anything, int64(7), mock.Anything, orderID).Return(int64(0), nil).Once()

	got, err := f.svc.AdvanceState(context.Background(), orderID, order.StatusCompleted)

	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, fixedNow, *got.CompletedAt)
	f.assertExpectations(t)
}

func TestService_ListActiveOrders(t *testing.T) {
	f := newFixture()
	orders := []order.Order{{ID: uuid.Must(uuid.NewV4()), Status: order.StatusPreparing}}
	f.repo.On("ListByStatus", mock.Anything, order.ActiveStatuses).Return(orders, nil).Once()

	got, err := f.svc.ListActiveOrders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, orders, got)
	f.assertExpectations(t)
}

func TestService_GetOrder_NotFound(t *testing.T) {
	f := newFixture()
	id := uuid.Must(uuid.NewV4())
	f.repo.On("GetByID", mock.Anything, id).Return(nil, order.ErrOrderNotFound).Once()

	_, err := f.svc.GetOrder(context.Background(), id)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	f.assertExpectations(t)
}
