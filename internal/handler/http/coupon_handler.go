package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
)

type CouponCodeRequest struct {
	Code   string `json:"code" validate:"required,max=50"`
	UserID int64  `json:"user_id" validate:"required,gt=0"`
}

type RecordUsageRequest struct {
	Code     string `json:"code" validate:"required,max=50"`
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	OrderID  string `json:"order_id" validate:"required,uuid"`
}

type CreateCouponRequest struct {
	Code               string          `json:"code" validate:"required,max=50"`
	Description        string          `json:"description" validate:"max=255"`
	DiscountKind       string          `json:"discount_kind" validate:"required,oneof=porcentaje monto_fijo"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	MinimumOrderAmount decimal.Decimal `json:"minimum_order_amount"`
	StartsOn           string          `json:"starts_on" validate:"required,datetime=2006-01-02"`
	EndsOn             string          `json:"ends_on" validate:"required,datetime=2006-01-02"`
	MaxRedemptions     *int            `json:"max_redemptions,omitempty" validate:"omitempty,gte=1"`
	MaxPerClient       int             `json:"max_per_client" validate:"omitempty,gte=1"`
}

type CouponHandler struct {
	service  coupon.Service
	validate *validator.Validate
}

func NewCouponHandler(service coupon.Service) *CouponHandler {
	return &CouponHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CouponHandler) RegisterRoutes(router chi.Router) {
	router.Post("/coupons/validate", h.handleValidate)
	router.Post("/coupons/apply", h.handleApply)
	router.Post("/coupons/usages", h.handleRecordUsage)
	router.Get("/coupons", h.handleListActive)
	router.Get("/coupons/{code}", h.handleGetByCode)
	router.Delete("/users/{userID}/cart/coupon", h.handleRemove)
	router.Get("/users/{userID}/coupons", h.handleListAvailable)
	router.Post("/admin/coupons", h.handleCreate)
	router.Delete("/admin/coupons/{couponID}", h.handleDeactivate)
}

func (h *CouponHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req CouponCodeRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	c, err := h.service.Validate(r.Context(), req.Code, req.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to validate coupon")
		return
	}

	respondWithJSON(w, http.StatusOK, ValidateCouponResponse{Valid: true, Coupon: toCouponResponse(c)})
}

func (h *CouponHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	var req CouponCodeRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	cart, err := h.service.Apply(r.Context(), req.Code, req.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to apply coupon")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(cart))
}

func (h *CouponHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	cart, err := h.service.Remove(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove coupon")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(cart))
}

func (h *CouponHandler) handleListAvailable(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	coupons, err := h.service.ListAvailable(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list available coupons")
		return
	}

	respondWithJSON(w, http.StatusOK, toCouponResponses(coupons))
}

func (h *CouponHandler) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var req RecordUsageRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	orderID := uuid.FromStringOrNil(req.OrderID)
	if err := h.service.RecordUsage(r.Context(), req.Code, req.ClientID, orderID); err != nil {
		respondWithServiceError(w, err, "Failed to record coupon usage")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CouponHandler) handleListActive(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListActive(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list coupons")
		return
	}

	respondWithJSON(w, http.StatusOK, toCouponResponses(coupons))
}

func (h *CouponHandler) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "invalid_input", "Code parameter cannot be empty")
		return
	}

	c, err := h.service.GetByCode(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get coupon")
		return
	}

	respondWithJSON(w, http.StatusOK, toCouponResponse(c))
}

func (h *CouponHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	// Both dates already passed the datetime validator.
	startsOn, _ := time.Parse(time.DateOnly, req.StartsOn)
	endsOn, _ := time.Parse(time.DateOnly, req.EndsOn)

	maxPerClient := req.MaxPerClient
	if maxPerClient == 0 {
		maxPerClient = 1
	}

	created, err := h.service.Create(r.Context(), &coupon.Coupon{
		Code:               req.Code,
		Description:        req.Description,
		DiscountKind:       coupon.DiscountKind(req.DiscountKind),
		DiscountValue:      req.DiscountValue,
		MinimumOrderAmount: req.MinimumOrderAmount,
		StartsOn:           startsOn,
		EndsOn:             endsOn,
		MaxRedemptions:     req.MaxRedemptions,
		MaxPerClient:       maxPerClient,
		Active:             true,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create coupon")
		return
	}

	respondWithJSON(w, http.StatusCreated, toCouponResponse(created))
}

func (h *CouponHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	couponID, ok := uuidParam(w, r, "couponID")
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), couponID); err != nil {
		respondWithServiceError(w, err, "Failed to deactivate coupon")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
