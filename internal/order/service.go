package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
)

// adminTargets are the states an operator may move an order into.
var adminTargets = map[Status]bool{
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusReady:     true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// CouponRecorder counts a coupon redemption once an order is confirmed.
type CouponRecorder interface {
	RecordUsage(ctx context.Context, code string, clientID int64, orderID uuid.UUID) error
}

// PointsAwarder credits loyalty points once an order is completed.
type PointsAwarder interface {
	AwardClientPoints(ctx context.Context, clientID int64, amount decimal.Decimal, orderID uuid.UUID) (int64, error)
}

// Payment is the checkout payload. Only the reference matching Method is
// required; the rest are stored when present.
type Payment struct {
	Method            PaymentMethod
	PayPalOrderID     string
	PayPalPayerID     string
	PayPalAmount      decimal.NullDecimal
	SinpeReceipt      string
	SinpePhone        string
	CardLast4         string
	CardAuthorization string
}

func (p Payment) validate() error {
	if !p.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPayment, p.Method)
	}

	switch {
	case p.Method == PaymentPayPal && p.PayPalOrderID == "":
		return fmt.Errorf("%w: paypal order id", ErrMissingPaymentRef)
	case p.Method == PaymentSinpe && p.SinpeReceipt == "":
		return fmt.Errorf("%w: sinpe receipt", ErrMissingPaymentRef)
	case p.Method == PaymentCard && p.CardAuthorization == "":
		return fmt.Errorf("%w: card authorization", ErrMissingPaymentRef)
	}

	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (p Payment) details() PaymentDetails {
	return PaymentDetails{
		PayPalOrderID:     optional(p.PayPalOrderID),
		PayPalPayerID:     optional(p.PayPalPayerID),
		PayPalAmount:      p.PayPalAmount,
		SinpeReceipt:      optional(p.SinpeReceipt),
		SinpePhone:        optional(p.SinpePhone),
		CardLast4:         optional(p.CardLast4),
		CardAuthorization: optional(p.CardAuthorization),
	}
}

type Service interface {
	Checkout(ctx context.Context, userID int64, payment Payment) (*Order, error)
	Cancel(ctx context.Context, userID int64, orderID uuid.UUID) (*Order, error)
	AdvanceState(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListClientOrders(ctx context.Context, userID int64) ([]Order, error)
	ListActiveOrders(ctx context.Context) ([]Order, error)
}

type service struct {
	orderRepo Repository
	directory directory.Repository
	tx        db.Transactor
	coupons   CouponRecorder
	points    PointsAwarder
	now       func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService wires the lifecycle. coupons and points may be nil, in which
// case the matching side effect is skipped.
func NewService(orderRepo Repository, dir directory.Repository, tx db.Transactor, coupons CouponRecorder, points PointsAwarder, opts ...Option) Service {
	s := &service{
		orderRepo: orderRepo,
		directory: dir,
		tx:        tx,
		coupons:   coupons,
		points:    points,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Checkout(ctx context.Context, userID int64, payment Payment) (*Order, error) {
	if err := payment.validate(); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("service: checkout rejected, invalid payment")
		return nil, err
	}

	var result *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		cart, err := s.orderRepo.LockActiveCart(ctx, client.ID)
		if err != nil {
			return err
		}

		items, err := s.orderRepo.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		if cart.BranchID == nil {
			return ErrNoBranchSelected
		}

		method := payment.Method
		cart.PaymentMethod = &method
		cart.Payment = payment.details()
		cart.Items = items

		if method == PaymentCash {
			cart.Status = StatusConfirmed
			now := s.now().UTC()
			cart.ConfirmedAt = &now
		} else {
			cart.Status = StatusPending
		}

		if err := s.orderRepo.UpdateStatus(ctx, cart); err != nil {
			return err
		}

		if cart.Status == StatusConfirmed {
			if err := s.onConfirmed(ctx, cart); err != nil {
				return err
			}
		}

		result = cart
		return nil
	})
	if err != nil {
		s.logFailure(err, "checkout failed", userID, uuid.Nil)
		return nil, fmt.Errorf("service: checkout: %w", err)
	}

	log.Info().Stringer("order_id", result.ID).Int64("client_id", result.ClientID).
		Stringer("status", result.Status).Str("payment_method", string(payment.Method)).
		Msg("service: cart checked out")

	return result, nil
}

func (s *service) Cancel(ctx context.Context, userID int64, orderID uuid.UUID) (*Order, error) {
	var result *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		o, err := s.orderRepo.LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.ClientID != client.ID {
			return ErrOrderNotFound
		}
		if o.Status.Terminal() {
			return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, o.Status)
		}

		o.Status = StatusCancelled
		if err := s.orderRepo.UpdateStatus(ctx, o); err != nil {
			return err
		}

		result = o
		return nil
	})
	if err != nil {
		s.logFailure(err, "cancel failed", userID, orderID)
		return nil, fmt.Errorf("service: cancel order: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Int64("client_id", result.ClientID).Msg("service: order cancelled by client")
	return result, nil
}

func (s *service) AdvanceState(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error) {
	if !adminTargets[newStatus] {
		log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: unsupported target status")
		return nil, fmt.Errorf("%w: %q", ErrInvalidTargetStatus, newStatus)
	}

	var (
		result    *Order
		oldStatus Status
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		oldStatus = o.Status

		if o.Status.Terminal() {
			return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, o.Status)
		}
		if o.Status == StatusCart && newStatus != StatusCancelled {
			return fmt.Errorf("%w: order is still a cart", ErrInvalidTransition)
		}
		if o.Status == newStatus {
			result = o
			return nil
		}
		if !CanTransition(o.Status, newStatus) {
			return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, o.Status, newStatus)
		}

		now := s.now().UTC()
		o.Status = newStatus
		switch newStatus {
		case StatusConfirmed:
			o.ConfirmedAt = &now
		case StatusCompleted:
			o.CompletedAt = &now
		}

		if err := s.orderRepo.UpdateStatus(ctx, o); err != nil {
			return err
		}

		switch newStatus {
		case StatusConfirmed:
			err = s.onConfirmed(ctx, o)
		case StatusCompleted:
			err = s.onCompleted(ctx, o)
		}
		if err != nil {
			return err
		}

		result = o
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: status change rejected")
		return nil, fmt.Errorf("service: advance order state: %w", err)
	}

	if oldStatus == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
	} else {
		log.Info().Stringer("order_id", orderID).Stringer("old_status", oldStatus).Stringer("new_status", newStatus).Msg("service: order status updated successfully")
	}

	return result, nil
}

func (s *service) onConfirmed(ctx context.Context, o *Order) error {
	if s.coupons == nil || o.CouponCode == nil {
		return nil
	}
	if err := s.coupons.RecordUsage(ctx, *o.CouponCode, o.ClientID, o.ID); err != nil {
		return fmt.Errorf("record coupon usage: %w", err)
	}
	return nil
}

func (s *service) onCompleted(ctx context.Context, o *Order) error {
	if s.points == nil {
		return nil
	}
	awarded, err := s.points.AwardClientPoints(ctx, o.ClientID, o.Total, o.ID)
	if err != nil {
		return fmt.Errorf("award loyalty points: %w", err)
	}
	log.Info().Stringer("order_id", o.ID).Int64("client_id", o.ClientID).Int64("points", awarded).Msg("service: loyalty points awarded for completed order")
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("service: order not found by id")
			return nil, err
		}

		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

func (s *service) ListClientOrders(ctx context.Context, userID int64) ([]Order, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		s.logFailure(err, "failed to resolve client", userID, uuid.Nil)
		return nil, fmt.Errorf("service: list client orders: %w", err)
	}

	orders, err := s.orderRepo.ListByClient(ctx, client.ID)
	if err != nil {
		log.Error().Err(err).Int64("client_id", client.ID).Msg("service: failed to fetch client orders in repository")
		return nil, fmt.Errorf("service: failed to fetch client orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListActiveOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orderRepo.ListByStatus(ctx, ActiveStatuses)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch active orders in repository")
		return nil, fmt.Errorf("service: failed to fetch active orders: %w", err)
	}

	return orders, nil
}

func (s *service) logFailure(err error, msg string, userID int64, orderID uuid.UUID) {
	event := log.Warn()
	if errors.Is(err, apperr.ErrStorage) {
		event = log.Error()
	}
	event = event.Err(err).Int64("user_id", userID)
	if orderID != uuid.Nil {
		event = event.Stringer("order_id", orderID)
	}
	event.Msg("service: " + msg)
}
