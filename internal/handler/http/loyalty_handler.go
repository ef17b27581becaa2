package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/loyalty"
)

type AwardPointsRequest struct {
	UserID  int64           `json:"user_id" validate:"required,gt=0"`
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"order_id,omitempty" validate:"omitempty,uuid"`
}

type RedeemRequest struct {
	RewardID string `json:"reward_id" validate:"required,uuid"`
}

type LoyaltyHandler struct {
	service  loyalty.Service
	validate *validator.Validate
}

func NewLoyaltyHandler(service loyalty.Service) *LoyaltyHandler {
	return &LoyaltyHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *LoyaltyHandler) RegisterRoutes(router chi.Router) {
	router.Get("/users/{userID}/loyalty", h.handleBalance)
	router.Get("/users/{userID}/loyalty/history", h.handleHistory)
	router.Post("/users/{userID}/loyalty/redeem", h.handleRedeem)
	router.Post("/loyalty/award", h.handleAward)
	router.Get("/loyalty/rewards", h.handleListRewards)
}

func (h *LoyaltyHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	points, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get points balance")
		return
	}

	respondWithJSON(w, http.StatusOK, BalanceResponse{UserID: userID, Points: points})
}

func (h *LoyaltyHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	entries, err := h.service.History(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get points history")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *LoyaltyHandler) handleAward(w http.ResponseWriter, r *http.Request) {
	var req AwardPointsRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	award, err := h.service.AwardPoints(r.Context(), req.UserID, req.Amount, uuid.FromStringOrNil(req.OrderID))
	if err != nil {
		respondWithServiceError(w, err, "Failed to award points")
		return
	}

	respondWithJSON(w, http.StatusOK, award)
}

func (h *LoyaltyHandler) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.service.ListRewards(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list rewards")
		return
	}

	respondWithJSON(w, http.StatusOK, rewards)
}

func (h *LoyaltyHandler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req RedeemRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	redemption, err := h.service.Redeem(r.Context(), userID, uuid.FromStringOrNil(req.RewardID))
	if err != nil {
		respondWithServiceError(w, err, "Failed to redeem reward")
		return
	}

	respondWithJSON(w, http.StatusOK, toRedemptionResponse(redemption))
}
