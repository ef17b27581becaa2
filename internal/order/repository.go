package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
)

type Repository interface {
	CreateCart(ctx context.Context, clientID int64) error
	ActiveCart(ctx context.Context, clientID int64) (*Order, error)
	LockActiveCart(ctx context.Context, clientID int64) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Items(ctx context.Context, orderID uuid.UUID) ([]LineItem, error)
	UpdatePricing(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, o *Order) error
	ListByClient(ctx context.Context, clientID int64) ([]Order, error)
	ListByStatus(ctx context.Context, statuses []Status) ([]Order, error)
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(pool db.Querier) Repository {
	return &postgresRepository{db: pool}
}

const orderColumns = `
	id, client_id, status, delivery_type, subtotal, discount, shipping_cost, total,
	coupon_code, branch_id, payment_method, paypal_order_id, paypal_payer_id, paypal_amount,
	sinpe_receipt, sinpe_phone, card_last4, card_authorization,
	created_at, updated_at, confirmed_at, completed_at`

const itemColumns = `id, order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.ClientID,
		&o.Status,
		&o.DeliveryType,
		&o.Subtotal,
		&o.Discount,
		&o.ShippingCost,
		&o.Total,
		&o.CouponCode,
		&o.BranchID,
		&o.PaymentMethod,
		&o.Payment.PayPalOrderID,
		&o.Payment.PayPalPayerID,
		&o.Payment.PayPalAmount,
		&o.Payment.SinpeReceipt,
		&o.Payment.SinpePhone,
		&o.Payment.CardLast4,
		&o.Payment.CardAuthorization,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.ConfirmedAt,
		&o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = make([]LineItem, 0)
	return &o, nil
}

func scanItem(row pgx.Row) (LineItem, error) {
	var item LineItem
	err := row.Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.Quantity,
		&item.UnitPrice,
		&item.Subtotal,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// CreateCart inserts an empty cart for the client unless one already exists.
// Concurrent callers converge on the single row allowed by the partial index.
func (r *postgresRepository) CreateCart(ctx context.Context, clientID int64) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate order ID: %w", err)
	}

	query := `
		INSERT INTO orders (id, client_id, status, delivery_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (client_id) WHERE status = 'carrito' DO NOTHING
	`
	now := time.Now().UTC()
	if _, err := db.Conn(ctx, r.db).Exec(ctx, query, id, clientID, string(StatusCart), string(DeliveryPickup), now); err != nil {
		return apperr.Storage(fmt.Sprintf("repository: insert cart for client %d", clientID), err)
	}

	return nil
}

func (r *postgresRepository) activeCart(ctx context.Context, clientID int64, lock bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE client_id = $1 AND status = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(db.Conn(ctx, r.db).QueryRow(ctx, query, clientID, string(StatusCart)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveCart
		}
		return nil, apperr.Storage(fmt.Sprintf("repository: select active cart for client %d", clientID), err)
	}

	return o, nil
}

func (r *postgresRepository) ActiveCart(ctx context.Context, clientID int64) (*Order, error) {
	o, err := r.activeCart(ctx, clientID, false)
	if err != nil {
		return nil, err
	}

	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// LockActiveCart returns the cart header with its row locked until the
// surrounding transaction ends. Items are not loaded.
func (r *postgresRepository) LockActiveCart(ctx context.Context, clientID int64) (*Order, error) {
	return r.activeCart(ctx, clientID, true)
}

func (r *postgresRepository) byID(ctx context.Context, id uuid.UUID, lock bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(db.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("repository: select order %s", id), err)
	}

	return o, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := r.byID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *postgresRepository) LockByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.byID(ctx, id, true)
}

func (r *postgresRepository) Items(ctx context.Context, orderID uuid.UUID) ([]LineItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY created_at, id`

	rows, err := db.Conn(ctx, r.db).Query(ctx, query, orderID)
	if err != nil {
		return nil, apperr.Storage(fmt.Sprintf("repository: query items for order %s", orderID), err)
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperr.Storage(fmt.Sprintf("repository: scan item for order %s", orderID), err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, apperr.Storage(fmt.Sprintf("repository: iterate items for order %s", orderID), err)
	}

	return items, nil
}

func (r *postgresRepository) UpdatePricing(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders
		SET subtotal = $1, discount = $2, shipping_cost = $3, total = $4,
			coupon_code = $5, delivery_type = $6, branch_id = $7, updated_at = $8
		WHERE id = $9
	`
	o.UpdatedAt = time.Now().UTC()

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query,
		o.Subtotal,
		o.Discount,
		o.ShippingCost,
		o.Total,
		o.CouponCode,
		string(o.DeliveryType),
		o.BranchID,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("repository: failed to update order pricing")
		return apperr.Storage(fmt.Sprintf("repository: update pricing of order %s", o.ID), err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders
		SET status = $1, payment_method = $2, paypal_order_id = $3, paypal_payer_id = $4,
			paypal_amount = $5, sinpe_receipt = $6, sinpe_phone = $7, card_last4 = $8,
			card_authorization = $9, confirmed_at = $10, completed_at = $11, updated_at = $12
		WHERE id = $13
	`
	o.UpdatedAt = time.Now().UTC()

	var method *string
	if o.PaymentMethod != nil {
		m := string(*o.PaymentMethod)
		method = &m
	}

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query,
		string(o.Status),
		method,
		o.Payment.PayPalOrderID,
		o.Payment.PayPalPayerID,
		o.Payment.PayPalAmount,
		o.Payment.SinpeReceipt,
		o.Payment.SinpePhone,
		o.Payment.CardLast4,
		o.Payment.CardAuthorization,
		o.ConfirmedAt,
		o.CompletedAt,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Stringer("new_status", o.Status).Msg("repository: failed to update order status")
		return apperr.Storage(fmt.Sprintf("repository: update status of order %s", o.ID), err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", o.ID).Stringer("new_status", o.Status).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) ListByClient(ctx context.Context, clientID int64) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE client_id = $1 AND status <> $2 ORDER BY created_at DESC`
	return r.list(ctx, fmt.Sprintf("client %d", clientID), query, clientID, string(StatusCart))
}

func (r *postgresRepository) ListByStatus(ctx context.Context, statuses []Status) ([]Order, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ANY($1) ORDER BY created_at`
	return r.list(ctx, "statuses", query, values)
}

// list loads the orders selected by query and attaches their items with a
// single batched query.
func (r *postgresRepository) list(ctx context.Context, scope, query string, args ...any) ([]Order, error) {
	conn := db.Conn(ctx, r.db)

	orderRows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("repository: query orders for "+scope, err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		o, err := scanOrder(orderRows)
		if err != nil {
			return nil, apperr.Storage("repository: scan order for "+scope, err)
		}
		ordersMap[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
	}

	if err = orderRows.Err(); err != nil {
		return nil, apperr.Storage("repository: iterate orders for "+scope, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemRows, err := conn.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY created_at, id`, orderIDs)
	if err != nil {
		return nil, apperr.Storage("repository: query order items for "+scope, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanItem(itemRows)
		if err != nil {
			return nil, apperr.Storage("repository: scan order item for "+scope, err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err = itemRows.Err(); err != nil {
		return nil, apperr.Storage("repository: iterate order items for "+scope, err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}

	return result, nil
}
