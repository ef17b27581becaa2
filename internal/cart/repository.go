package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

// Repository writes the line items of a cart. Order headers are handled by
// order.Repository.
type Repository interface {
	ItemByID(ctx context.Context, itemID uuid.UUID) (*order.LineItem, error)
	ItemByProduct(ctx context.Context, orderID uuid.UUID, productID int64) (*order.LineItem, error)
	InsertItem(ctx context.Context, item *order.LineItem) error
	UpdateItem(ctx context.Context, item *order.LineItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, orderID uuid.UUID) error
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(pool db.Querier) Repository {
	return &postgresRepository{db: pool}
}

func (r *postgresRepository) scanOne(ctx context.Context, op, query string, args ...any) (*order.LineItem, error) {
	var item order.LineItem
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.Quantity,
		&item.UnitPrice,
		&item.Subtotal,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, apperr.Storage(op, err)
	}
	return &item, nil
}

func (r *postgresRepository) ItemByID(ctx context.Context, itemID uuid.UUID) (*order.LineItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at
		FROM order_items
		WHERE id = $1
	`
	return r.scanOne(ctx, fmt.Sprintf("cart repository: select item %s", itemID), query, itemID)
}

func (r *postgresRepository) ItemByProduct(ctx context.Context, orderID uuid.UUID, productID int64) (*order.LineItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at
		FROM order_items
		WHERE order_id = $1 AND product_id = $2
	`
	return r.scanOne(ctx, fmt.Sprintf("cart repository: select item of product %d", productID), query, orderID, productID)
}

func (r *postgresRepository) InsertItem(ctx context.Context, item *order.LineItem) error {
	if item.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("cart repository: failed to generate item ID: %w", err)
		}
		item.ID = id
	}
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.Conn(ctx, r.db).Exec(ctx, query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.Subtotal,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return apperr.Storage(fmt.Sprintf("cart repository: insert item into order %s", item.OrderID), err)
	}

	return nil
}

func (r *postgresRepository) UpdateItem(ctx context.Context, item *order.LineItem) error {
	item.UpdatedAt = time.Now().UTC()

	query := `UPDATE order_items SET quantity = $1, subtotal = $2, updated_at = $3 WHERE id = $4`
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, item.Quantity, item.Subtotal, item.UpdatedAt, item.ID)
	if err != nil {
		return apperr.Storage(fmt.Sprintf("cart repository: update item %s", item.ID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return apperr.Storage(fmt.Sprintf("cart repository: delete item %s", itemID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	if _, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return apperr.Storage(fmt.Sprintf("cart repository: delete items of order %s", orderID), err)
	}

	return nil
}
