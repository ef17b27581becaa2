package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

type Service interface {
	GetOrCreateActiveCart(ctx context.Context, userID int64) (*order.Order, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*order.Order, error)
	RemoveItem(ctx context.Context, userID int64, itemID uuid.UUID) (*order.Order, error)
	ClearCart(ctx context.Context, userID int64, cartID uuid.UUID) (*order.Order, error)
	AssignBranch(ctx context.Context, userID, branchID int64) (*order.Order, error)
	SetDeliveryType(ctx context.Context, userID int64, delivery order.DeliveryType) (*order.Order, error)
}

type service struct {
	items     Repository
	orders    order.Repository
	directory directory.Repository
	tx        db.Transactor
}

func NewService(items Repository, orders order.Repository, dir directory.Repository, tx db.Transactor) Service {
	return &service{
		items:     items,
		orders:    orders,
		directory: dir,
		tx:        tx,
	}
}

func (s *service) GetOrCreateActiveCart(ctx context.Context, userID int64) (*order.Order, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		logFailure(err, "failed to resolve client", userID)
		return nil, fmt.Errorf("service: get cart: %w", err)
	}

	cart, err := s.orders.ActiveCart(ctx, client.ID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, order.ErrNoActiveCart) {
		logFailure(err, "failed to load active cart", userID)
		return nil, fmt.Errorf("service: get cart: %w", err)
	}

	if err := s.orders.CreateCart(ctx, client.ID); err != nil {
		logFailure(err, "failed to create cart", userID)
		return nil, fmt.Errorf("service: create cart: %w", err)
	}

	cart, err = s.orders.ActiveCart(ctx, client.ID)
	if err != nil {
		logFailure(err, "failed to reload created cart", userID)
		return nil, fmt.Errorf("service: get cart: %w", err)
	}

	log.Info().Stringer("order_id", cart.ID).Int64("client_id", client.ID).Msg("service: cart created")
	return cart, nil
}

// lockOrCreateCart returns the client's cart locked for update, creating it
// first when the client has none.
func (s *service) lockOrCreateCart(ctx context.Context, clientID int64) (*order.Order, error) {
	cart, err := s.orders.LockActiveCart(ctx, clientID)
	if !errors.Is(err, order.ErrNoActiveCart) {
		return cart, err
	}

	if err := s.orders.CreateCart(ctx, clientID); err != nil {
		return nil, err
	}
	return s.orders.LockActiveCart(ctx, clientID)
}

// lockOwnedCart locks cartID and checks that it is still the client's cart.
func (s *service) lockOwnedCart(ctx context.Context, clientID int64, cartID uuid.UUID) (*order.Order, error) {
	cart, err := s.orders.LockByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.ClientID != clientID {
		return nil, order.ErrOrderNotFound
	}
	if cart.Status != order.StatusCart {
		return nil, ErrCartClosed
	}
	return cart, nil
}

// recompute reprices a locked cart from its stored line items and persists
// the result. The caller holds the row lock.
func (s *service) recompute(ctx context.Context, cart *order.Order) error {
	items, err := s.orders.Items(ctx, cart.ID)
	if err != nil {
		return err
	}

	Reprice(cart, SumLines(items))
	cart.Items = items

	return s.orders.UpdatePricing(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*order.Order, error) {
	if quantity <= 0 {
		log.Warn().Int64("user_id", userID).Int("quantity", quantity).Msg("service: rejected non-positive quantity")
		return nil, ErrInvalidQuantity
	}

	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		product, err := s.directory.ProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Available {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}

		cart, err := s.lockOrCreateCart(ctx, client.ID)
		if err != nil {
			return err
		}

		existing, err := s.items.ItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			existing.Quantity += quantity
			existing.Subtotal = LineSubtotal(existing.UnitPrice, existing.Quantity)
			if err := s.items.UpdateItem(ctx, existing); err != nil {
				return err
			}
		case errors.Is(err, ErrItemNotFound):
			item := &order.LineItem{
				OrderID:   cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				Subtotal:  LineSubtotal(product.Price, quantity),
			}
			if err := s.items.InsertItem(ctx, item); err != nil {
				return err
			}
		default:
			return err
		}

		if err := s.recompute(ctx, cart); err != nil {
			return err
		}

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to add item", userID)
		return nil, fmt.Errorf("service: add item: %w", err)
	}

	log.Info().Stringer("order_id", result.ID).Int64("product_id", productID).Int("quantity", quantity).Msg("service: item added to cart")
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, userID int64, itemID uuid.UUID) (*order.Order, error) {
	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		item, err := s.items.ItemByID(ctx, itemID)
		if err != nil {
			return err
		}

		cart, err := s.lockOwnedCart(ctx, client.ID, item.OrderID)
		if errors.Is(err, order.ErrOrderNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return err
		}

		if err := s.items.DeleteItem(ctx, itemID); err != nil {
			return err
		}

		if err := s.recompute(ctx, cart); err != nil {
			return err
		}

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to remove item", userID)
		return nil, fmt.Errorf("service: remove item: %w", err)
	}

	log.Info().Stringer("order_id", result.ID).Stringer("item_id", itemID).Msg("service: item removed from cart")
	return result, nil
}

func (s *service) ClearCart(ctx context.Context, userID int64, cartID uuid.UUID) (*order.Order, error) {
	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		cart, err := s.lockOwnedCart(ctx, client.ID, cartID)
		if err != nil {
			return err
		}

		if err := s.items.DeleteItems(ctx, cart.ID); err != nil {
			return err
		}

		// An emptied cart owes nothing, delivery fee included.
		cart.Subtotal = decimal.Zero
		cart.Discount = decimal.Zero
		cart.ShippingCost = decimal.Zero
		cart.Total = decimal.Zero
		cart.CouponCode = nil
		cart.Items = []order.LineItem{}
		if err := s.orders.UpdatePricing(ctx, cart); err != nil {
			return err
		}

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to clear cart", userID)
		return nil, fmt.Errorf("service: clear cart: %w", err)
	}

	log.Info().Stringer("order_id", cartID).Msg("service: cart cleared")
	return result, nil
}

func (s *service) AssignBranch(ctx context.Context, userID, branchID int64) (*order.Order, error) {
	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		branch, err := s.directory.BranchByID(ctx, branchID)
		if err != nil {
			return err
		}
		if !branch.Active {
			return ErrBranchUnavailable
		}

		cart, err := s.lockOrCreateCart(ctx, client.ID)
		if err != nil {
			return err
		}

		cart.BranchID = &branch.ID
		if err := s.recompute(ctx, cart); err != nil {
			return err
		}

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to assign branch", userID)
		return nil, fmt.Errorf("service: assign branch: %w", err)
	}

	log.Info().Stringer("order_id", result.ID).Int64("branch_id", branchID).Msg("service: branch assigned to cart")
	return result, nil
}

func (s *service) SetDeliveryType(ctx context.Context, userID int64, delivery order.DeliveryType) (*order.Order, error) {
	if !delivery.Valid() {
		log.Warn().Int64("user_id", userID).Str("delivery_type", string(delivery)).Msg("service: rejected delivery type")
		return nil, fmt.Errorf("%w: %q", order.ErrInvalidDeliveryType, delivery)
	}

	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		cart, err := s.lockOrCreateCart(ctx, client.ID)
		if err != nil {
			return err
		}

		cart.DeliveryType = delivery
		if err := s.recompute(ctx, cart); err != nil {
			return err
		}

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to set delivery type", userID)
		return nil, fmt.Errorf("service: set delivery type: %w", err)
	}

	return result, nil
}

func logFailure(err error, msg string, userID int64) {
	event := log.Warn()
	if errors.Is(err, apperr.ErrStorage) {
		event = log.Error()
	}
	event.Err(err).Int64("user_id", userID).Msg("service: " + msg)
}
