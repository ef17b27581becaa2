// Package directory reads the catalog, client and branch records owned by
// other services. Nothing here writes.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
)

var (
	ErrClientNotFound  = fmt.Errorf("client profile %w", apperr.ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", apperr.ErrNotFound)
	ErrBranchNotFound  = fmt.Errorf("branch %w", apperr.ErrNotFound)
)

type Client struct {
	ID            int64 `json:"id"`
	UserID        int64 `json:"user_id"`
	LoyaltyPoints int64 `json:"loyalty_points"`
}

type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Available  bool            `json:"available"`
	CategoryID *int64          `json:"category_id,omitempty"`
}

type Branch struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Repository interface {
	ClientByUserID(ctx context.Context, userID int64) (*Client, error)
	ClientByID(ctx context.Context, id int64) (*Client, error)
	ProductByID(ctx context.Context, id int64) (*Product, error)
	BranchByID(ctx context.Context, id int64) (*Branch, error)
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(pool db.Querier) Repository {
	return &postgresRepository{db: pool}
}

func (r *postgresRepository) ClientByUserID(ctx context.Context, userID int64) (*Client, error) {
	query := `SELECT id, user_id, loyalty_points FROM clients WHERE user_id = $1`

	var c Client
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.LoyaltyPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("directory: select client by user id %d", userID), err)
	}

	return &c, nil
}

func (r *postgresRepository) ClientByID(ctx context.Context, id int64) (*Client, error) {
	query := `SELECT id, user_id, loyalty_points FROM clients WHERE id = $1`

	var c Client
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.LoyaltyPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("directory: select client %d", id), err)
	}

	return &c, nil
}

func (r *postgresRepository) ProductByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT id, name, price, available, category_id FROM products WHERE id = $1`

	var p Product
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Available, &p.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("directory: select product %d", id), err)
	}

	return &p, nil
}

func (r *postgresRepository) BranchByID(ctx context.Context, id int64) (*Branch, error) {
	query := `SELECT id, name, active FROM branches WHERE id = $1`

	var b Branch
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("directory: select branch %d", id), err)
	}

	return &b, nil
}
