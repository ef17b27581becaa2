package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	handler "github.com/vasiliy-maslov/restaurant-ordering/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

func confirmedOrder() *order.Order {
	o := sampleCart()
	method := order.PaymentCash
	confirmedAt := o.CreatedAt.Add(10 * time.Minute)
	o.Status = order.StatusConfirmed
	o.PaymentMethod = &method
	o.ConfirmedAt = &confirmedAt
	return o
}

func TestOrderHandler_Checkout(t *testing.T) {
	t.Run("cash", func(t *testing.T) {
		mockService := new(MockOrderService)
		o := confirmedOrder()
		mockService.On("Checkout", mock.Anything, int64(70), order.Payment{Method: order.PaymentCash}).Return(o, nil).Once()

		rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPost, "/users/70/checkout",
			handler.CheckoutRequest{PaymentMethod: "efectivo"})

		require.Equal(t, http.StatusCreated, rr.Code)
		var actual handler.OrderResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&actual))
		assert.Equal(t, "confirmado", actual.Status)
		require.NotNil(t, actual.Payment)
		assert.Equal(t, "efectivo", actual.Payment.Method)
		require.NotNil(t, actual.ConfirmedAt)
		mockService.AssertExpectations(t)
	})

	t.Run("paypal_passes_references", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("Checkout", mock.Anything, int64(70), mock.MatchedBy(func(p order.Payment) bool {
			return p.Method == order.PaymentPayPal &&
				p.PayPalOrderID == "5O190127TN364715T" &&
				p.PayPalAmount.Valid &&
				p.PayPalAmount.Decimal.Equal(decimal.RequireFromString("15.75"))
		})).Return(sampleCart(), nil).Once()

		body := `{"payment_method":"paypal","paypal_order_id":"5O190127TN364715T","paypal_amount":"15.75"}`
		rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPost, "/users/70/checkout", body)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unknown_method", func(t *testing.T) {
		mockService := new(MockOrderService)

		rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPost, "/users/70/checkout",
			handler.CheckoutRequest{PaymentMethod: "bitcoin"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty_cart", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("Checkout", mock.Anything, int64(70), mock.Anything).Return(nil, order.ErrEmptyCart).Once()

		rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPost, "/users/70/checkout",
			handler.CheckoutRequest{PaymentMethod: "efectivo"})

		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "invalid_state", decodeError(t, rr).Code)
		mockService.AssertExpectations(t)
	})

	t.Run("storage_failure_hides_cause", func(t *testing.T) {
		mockService := new(MockOrderService)
		cause := apperr.Storage("order repository: update order", errors.New("pq: connection refused"))
		mockService.On("Checkout", mock.Anything, int64(70), mock.Anything).Return(nil, cause).Once()

		rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPost, "/users/70/checkout",
			handler.CheckoutRequest{PaymentMethod: "efectivo"})

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, "storage_error", resp.Code)
		assert.Equal(t, "Failed to check out cart", resp.Error)
		mockService.AssertExpectations(t)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	mockService := new(MockOrderService)
	id := uuid.Must(uuid.NewV4())
	mockService.On("Cancel", mock.Anything, int64(70), id).Return(nil, order.ErrInvalidTransition).Once()

	rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPut, "/users/70/orders/"+id.String()+"/cancel", nil)

	assert.Equal(t, http.StatusConflict, rr.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_AdvanceState(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		err        error
		wantStatus int
	}{
		{name: "advanced", status: "en_preparacion", wantStatus: http.StatusOK},
		{name: "unsupported_target", status: "carrito", err: order.ErrInvalidTargetStatus, wantStatus: http.StatusBadRequest},
		{name: "not_allowed", status: "listo", err: order.ErrInvalidTransition, wantStatus: http.StatusConflict},
		{name: "missing_order", status: "listo", err: order.ErrOrderNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			id := uuid.Must(uuid.NewV4())
			if tt.err != nil {
				mockService.On("AdvanceState", mock.Anything, id, order.Status(tt.status)).Return(nil, tt.err).Once()
			} else {
				o := confirmedOrder()
				o.ID = id
				o.Status = order.Status(tt.status)
				mockService.On("AdvanceState", mock.Anything, id, order.Status(tt.status)).Return(o, nil).Once()
			}

			rr := serve(t, handler.NewOrderHandler(mockService), http.MethodPut, "/admin/orders/"+id.String()+"/status",
				handler.AdvanceStatusRequest{Status: tt.status})

			assert.Equal(t, tt.wantStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Reads(t *testing.T) {
	mockService := new(MockOrderService)
	o := confirmedOrder()
	mockService.On("GetOrder", mock.Anything, o.ID).Return(o, nil).Once()
	mockService.On("ListClientOrders", mock.Anything, int64(70)).Return([]order.Order{*o}, nil).Once()
	mockService.On("ListActiveOrders", mock.Anything).Return([]order.Order{}, nil).Once()
	h := handler.NewOrderHandler(mockService)

	rr := serve(t, h, http.MethodGet, "/orders/"+o.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, h, http.MethodGet, "/users/70/orders", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []handler.OrderResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, o.ID, listed[0].ID)

	rr = serve(t, h, http.MethodGet, "/admin/orders/active", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	mockService.AssertExpectations(t)
}

func TestOrderHandler_GetOrder_InvalidID(t *testing.T) {
	mockService := new(MockOrderService)

	rr := serve(t, handler.NewOrderHandler(mockService), http.MethodGet, "/orders/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthHandler(t *testing.T) {
	rr := serve(t, handler.NewHealthHandler(stubPinger{}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = serve(t, handler.NewHealthHandler(stubPinger{err: errors.New("dial tcp: refused")}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
