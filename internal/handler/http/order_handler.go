package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

type CheckoutRequest struct {
	PaymentMethod     string           `json:"payment_method" validate:"required,oneof=efectivo paypal sinpe tarjeta"`
	PayPalOrderID     string           `json:"paypal_order_id,omitempty" validate:"max=100"`
	PayPalPayerID     string           `json:"paypal_payer_id,omitempty" validate:"max=100"`
	PayPalAmount      *decimal.Decimal `json:"paypal_amount,omitempty"`
	SinpeReceipt      string           `json:"sinpe_receipt,omitempty" validate:"max=100"`
	SinpePhone        string           `json:"sinpe_phone,omitempty" validate:"max=20"`
	CardLast4         string           `json:"card_last4,omitempty" validate:"omitempty,len=4,numeric"`
	CardAuthorization string           `json:"card_authorization,omitempty" validate:"max=100"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users/{userID}/checkout", h.handleCheckout)
	router.Put("/users/{userID}/orders/{orderID}/cancel", h.handleCancel)
	router.Get("/users/{userID}/orders", h.handleListClientOrders)
	router.Get("/orders/{orderID}", h.handleGetOrder)
	router.Put("/admin/orders/{orderID}/status", h.handleAdvanceState)
	router.Get("/admin/orders/active", h.handleListActive)
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req CheckoutRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	payment := order.Payment{
		Method:            order.PaymentMethod(req.PaymentMethod),
		PayPalOrderID:     req.PayPalOrderID,
		PayPalPayerID:     req.PayPalPayerID,
		SinpeReceipt:      req.SinpeReceipt,
		SinpePhone:        req.SinpePhone,
		CardLast4:         req.CardLast4,
		CardAuthorization: req.CardAuthorization,
	}
	if req.PayPalAmount != nil {
		payment.PayPalAmount = decimal.NewNullDecimal(*req.PayPalAmount)
	}

	o, err := h.service.Checkout(r.Context(), userID, payment)
	if err != nil {
		respondWithServiceError(w, err, "Failed to check out cart")
		return
	}

	respondWithJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.Cancel(r.Context(), userID, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to cancel order")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) handleListClientOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	orders, err := h.service.ListClientOrders(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) handleAdvanceState(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}

	var req AdvanceStatusRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	o, err := h.service.AdvanceState(r.Context(), orderID, order.Status(req.Status))
	if err != nil {
		respondWithServiceError(w, err, "Failed to change order status")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) handleListActive(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListActiveOrders(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list active orders")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}
