package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

type Service interface {
	Validate(ctx context.Context, code string, userID int64) (*Coupon, error)
	Apply(ctx context.Context, code string, userID int64) (*order.Order, error)
	Remove(ctx context.Context, userID int64) (*order.Order, error)
	ListAvailable(ctx context.Context, userID int64) ([]Coupon, error)
	RecordUsage(ctx context.Context, code string, clientID int64, orderID uuid.UUID) error
	ListActive(ctx context.Context) ([]Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) (*Coupon, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      Repository
	orders    order.Repository
	directory directory.Repository
	tx        db.Transactor
	now       func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func NewService(repo Repository, orders order.Repository, dir directory.Repository, tx db.Transactor, opts ...Option) Service {
	s := &service{
		repo:      repo,
		orders:    orders,
		directory: dir,
		tx:        tx,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) today() time.Time {
	return dateOf(s.now().UTC())
}

// checkWindow rejects inactive coupons and those outside their dates.
func (s *service) checkWindow(c *Coupon) error {
	if !c.Active {
		return ErrCouponNotFound
	}
	today := s.today()
	if c.InWindow(today) {
		return nil
	}
	if today.Before(c.StartsOn) {
		return fmt.Errorf("%w: %s starts on %s", apperr.ErrNotYetActive, c.Code, c.StartsOn.Format(time.DateOnly))
	}
	return fmt.Errorf("%w: %s ended on %s", apperr.ErrExpired, c.Code, c.EndsOn.Format(time.DateOnly))
}

// checkCaps rejects a coupon whose global or per-client redemption cap is used up.
func (s *service) checkCaps(ctx context.Context, c *Coupon, clientID int64) error {
	if c.MaxRedemptions != nil {
		used, err := s.repo.CountUsages(ctx, c.ID)
		if err != nil {
			return err
		}
		if used >= *c.MaxRedemptions {
			return fmt.Errorf("%w: %s", apperr.ErrRedemptionLimitReached, c.Code)
		}
	}

	usedByClient, err := s.repo.CountClientUsages(ctx, c.ID, clientID)
	if err != nil {
		return err
	}
	if usedByClient >= c.MaxPerClient {
		return fmt.Errorf("%w: %s", apperr.ErrPerClientLimitReached, c.Code)
	}

	return nil
}

func (s *service) eligible(ctx context.Context, code string, clientID int64) (*Coupon, error) {
	c, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if err := s.checkWindow(c); err != nil {
		return nil, err
	}
	if err := s.checkCaps(ctx, c, clientID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Validate(ctx context.Context, code string, userID int64) (*Coupon, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		logFailure(err, "failed to resolve client", code)
		return nil, fmt.Errorf("service: validate coupon: %w", err)
	}

	c, err := s.eligible(ctx, code, client.ID)
	if err != nil {
		logFailure(err, "coupon rejected", code)
		return nil, fmt.Errorf("service: validate coupon: %w", err)
	}

	return c, nil
}

func (s *service) Apply(ctx context.Context, code string, userID int64) (*order.Order, error) {
	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		c, err := s.eligible(ctx, code, client.ID)
		if err != nil {
			return err
		}

		cart, err := s.orders.LockActiveCart(ctx, client.ID)
		if err != nil {
			return err
		}

		if cart.Subtotal.LessThan(c.MinimumOrderAmount) {
			return &MinimumNotMetError{Minimum: c.MinimumOrderAmount, Subtotal: cart.Subtotal}
		}

		cart.Discount = c.DiscountFor(cart.Subtotal)
		cart.CouponCode = &c.Code
		cart.RefreshTotal()

		if err := s.orders.UpdatePricing(ctx, cart); err != nil {
			return err
		}

		items, err := s.orders.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.Items = items

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to apply coupon", code)
		return nil, fmt.Errorf("service: apply coupon: %w", err)
	}

	log.Info().Str("coupon_code", code).Stringer("order_id", result.ID).
		Str("discount", result.Discount.StringFixed(2)).Msg("service: coupon applied to cart")
	return result, nil
}

func (s *service) Remove(ctx context.Context, userID int64) (*order.Order, error) {
	var result *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		cart, err := s.orders.LockActiveCart(ctx, client.ID)
		if err != nil {
			return err
		}

		cart.CouponCode = nil
		cart.Discount = decimal.Zero
		cart.RefreshTotal()

		if err := s.orders.UpdatePricing(ctx, cart); err != nil {
			return err
		}

		items, err := s.orders.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.Items = items

		result = cart
		return nil
	})
	if err != nil {
		logFailure(err, "failed to remove coupon", "")
		return nil, fmt.Errorf("service: remove coupon: %w", err)
	}

	log.Info().Stringer("order_id", result.ID).Msg("service: coupon removed from cart")
	return result, nil
}

func (s *service) ListAvailable(ctx context.Context, userID int64) ([]Coupon, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		logFailure(err, "failed to resolve client", "")
		return nil, fmt.Errorf("service: list available coupons: %w", err)
	}

	coupons, err := s.repo.ListAvailable(ctx, client.ID, s.today())
	if err != nil {
		log.Error().Err(err).Int64("client_id", client.ID).Msg("service: failed to list available coupons")
		return nil, fmt.Errorf("service: list available coupons: %w", err)
	}

	return coupons, nil
}

// RecordUsage counts one redemption of code by orderID. Recording the same
// order again is a no-op.
func (s *service) RecordUsage(ctx context.Context, code string, clientID int64, orderID uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.directory.ClientByID(ctx, clientID); err != nil {
			return err
		}

		c, err := s.repo.LockByCode(ctx, code)
		if err != nil {
			return err
		}

		recorded, err := s.repo.HasUsage(ctx, c.ID, orderID)
		if err != nil {
			return err
		}
		if recorded {
			return nil
		}

		discount := decimal.Zero
		o, err := s.orders.GetByID(ctx, orderID)
		switch {
		case err == nil:
			if o.ClientID != clientID {
				return fmt.Errorf("%w: %s belongs to another client", order.ErrOrderNotFound, orderID)
			}
			discount = o.Discount
		case errors.Is(err, order.ErrOrderNotFound):
		default:
			return err
		}

		if err := s.checkCaps(ctx, c, clientID); err != nil {
			return err
		}

		_, err = s.repo.InsertUsage(ctx, &Usage{
			CouponID:        c.ID,
			ClientID:        clientID,
			OrderID:         orderID,
			DiscountApplied: discount,
			UsedAt:          s.now().UTC(),
		})
		return err
	})
	if err != nil {
		logFailure(err, "failed to record coupon usage", code)
		return fmt.Errorf("service: record coupon usage: %w", err)
	}

	log.Info().Str("coupon_code", code).Int64("client_id", clientID).Stringer("order_id", orderID).Msg("service: coupon usage recorded")
	return nil
}

func (s *service) ListActive(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list active coupons")
		return nil, fmt.Errorf("service: list active coupons: %w", err)
	}
	return coupons, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	c, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err == nil {
		err = s.checkWindow(c)
	}
	if err != nil {
		logFailure(err, "coupon lookup failed", code)
		return nil, fmt.Errorf("service: get coupon: %w", err)
	}
	return c, nil
}

func validateDefinition(c *Coupon) error {
	switch {
	case c.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	case !c.DiscountKind.Valid():
		return fmt.Errorf("%w: unknown discount kind %q", ErrInvalidCoupon, c.DiscountKind)
	case !c.DiscountValue.IsPositive():
		return fmt.Errorf("%w: discount value must be positive", ErrInvalidCoupon)
	case c.DiscountKind == KindPercentage && c.DiscountValue.GreaterThan(hundred):
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidCoupon)
	case c.MinimumOrderAmount.IsNegative():
		return fmt.Errorf("%w: minimum order amount cannot be negative", ErrInvalidCoupon)
	case c.EndsOn.Before(c.StartsOn):
		return fmt.Errorf("%w: validity window ends before it starts", ErrInvalidCoupon)
	case c.MaxPerClient < 1:
		return fmt.Errorf("%w: per-client cap must be at least 1", ErrInvalidCoupon)
	case c.MaxRedemptions != nil && *c.MaxRedemptions < 1:
		return fmt.Errorf("%w: redemption cap must be at least 1", ErrInvalidCoupon)
	}
	return nil
}

func (s *service) Create(ctx context.Context, c *Coupon) (*Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	c.StartsOn = dateOf(c.StartsOn)
	c.EndsOn = dateOf(c.EndsOn)
	c.ID = uuid.Nil

	if err := validateDefinition(c); err != nil {
		log.Warn().Err(err).Str("coupon_code", c.Code).Msg("service: rejected coupon definition")
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		logFailure(err, "failed to create coupon", c.Code)
		return nil, fmt.Errorf("service: create coupon: %w", err)
	}

	log.Info().Str("coupon_code", c.Code).Stringer("coupon_id", c.ID).Msg("service: coupon created")
	return c, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		logFailure(err, "failed to deactivate coupon "+id.String(), "")
		return fmt.Errorf("service: deactivate coupon: %w", err)
	}

	log.Info().Stringer("coupon_id", id).Msg("service: coupon deactivated")
	return nil
}

func logFailure(err error, msg, code string) {
	event := log.Warn()
	if errors.Is(err, apperr.ErrStorage) {
		event = log.Error()
	}
	if code != "" {
		event = event.Str("coupon_code", code)
	}
	event.Err(err).Msg("service: " + msg)
}
