package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type AssignBranchRequest struct {
	BranchID int64 `json:"branch_id" validate:"required,gt=0"`
}

type SetDeliveryTypeRequest struct {
	DeliveryType string `json:"delivery_type" validate:"required,oneof=recoger_tienda domicilio"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/users/{userID}/cart", h.handleGetCart)
	router.Post("/users/{userID}/cart/items", h.handleAddItem)
	router.Delete("/users/{userID}/cart/items/{itemID}", h.handleRemoveItem)
	router.Delete("/users/{userID}/cart/{cartID}/items", h.handleClearCart)
	router.Put("/users/{userID}/cart/branch", h.handleAssignBranch)
	router.Put("/users/{userID}/cart/delivery", h.handleSetDeliveryType)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	c, err := h.service.GetOrCreateActiveCart(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get cart")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(c))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req AddItemRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	c, err := h.service.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(c))
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	c, err := h.service.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove item from cart")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(c))
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}
	cartID, ok := uuidParam(w, r, "cartID")
	if !ok {
		return
	}

	c, err := h.service.ClearCart(r.Context(), userID, cartID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(c))
}

func (h *CartHandler) handleAssignBranch(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req AssignBranchRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	c, err := h.service.AssignBranch(r.Context(), userID, req.BranchID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to assign branch")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(c))
}

func (h *CartHandler) handleSetDeliveryType(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req SetDeliveryTypeRequest
	if !decodeRequest(w, r, h.validate, &req) {
		return
	}

	c, err := h.service.SetDeliveryType(r.Context(), userID, order.DeliveryType(req.DeliveryType))
	if err != nil {
		respondWithServiceError(w, err, "Failed to set delivery type")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(c))
}
