package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	LockByCode(ctx context.Context, code string) (*Coupon, error)
	ListActive(ctx context.Context) ([]Coupon, error)
	ListAvailable(ctx context.Context, clientID int64, day time.Time) ([]Coupon, error)
	CountUsages(ctx context.Context, couponID uuid.UUID) (int, error)
	CountClientUsages(ctx context.Context, couponID uuid.UUID, clientID int64) (int, error)
	HasUsage(ctx context.Context, couponID, orderID uuid.UUID) (bool, error)
	InsertUsage(ctx context.Context, u *Usage) (bool, error)
	Create(ctx context.Context, c *Coupon) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(pool db.Querier) Repository {
	return &postgresRepository{db: pool}
}

const couponColumns = `
	id, code, description, discount_kind, discount_value, minimum_order_amount,
	starts_on, ends_on, max_redemptions, max_per_client, active, created_at`

func scanCoupon(row pgx.Row) (*Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.DiscountKind,
		&c.DiscountValue,
		&c.MinimumOrderAmount,
		&c.StartsOn,
		&c.EndsOn,
		&c.MaxRedemptions,
		&c.MaxPerClient,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) byCode(ctx context.Context, code string, lock bool) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`
	if lock {
		query += ` FOR UPDATE`
	}

	c, err := scanCoupon(db.Conn(ctx, r.db).QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("coupon repository: select coupon %q", code), err)
	}

	return c, nil
}

// GetByCode matches code case-insensitively, active or not.
func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	return r.byCode(ctx, code, false)
}

func (r *postgresRepository) LockByCode(ctx context.Context, code string) (*Coupon, error) {
	return r.byCode(ctx, code, true)
}

func (r *postgresRepository) list(ctx context.Context, op, query string, args ...any) ([]Coupon, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("coupon repository: query "+op, err)
	}
	defer rows.Close()

	coupons := make([]Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, apperr.Storage("coupon repository: scan "+op, err)
		}
		coupons = append(coupons, *c)
	}

	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("coupon repository: iterate "+op, err)
	}

	return coupons, nil
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE active ORDER BY created_at DESC`
	return r.list(ctx, "active coupons", query)
}

// ListAvailable returns active coupons valid on day that neither cap excludes
// for the client, largest discount value first.
func (r *postgresRepository) ListAvailable(ctx context.Context, clientID int64, day time.Time) ([]Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons c
		WHERE c.active
			AND $2::date BETWEEN c.starts_on AND c.ends_on
			AND (c.max_redemptions IS NULL
				OR (SELECT COUNT(*) FROM coupon_usages u WHERE u.coupon_id = c.id) < c.max_redemptions)
			AND (SELECT COUNT(*) FROM coupon_usages u WHERE u.coupon_id = c.id AND u.client_id = $1) < c.max_per_client
		ORDER BY c.discount_value DESC, c.code
	`
	return r.list(ctx, fmt.Sprintf("available coupons for client %d", clientID), query, clientID, day)
}

func (r *postgresRepository) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := db.Conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperr.Storage("coupon repository: "+op, err)
	}
	return n, nil
}

func (r *postgresRepository) CountUsages(ctx context.Context, couponID uuid.UUID) (int, error) {
	return r.count(ctx, fmt.Sprintf("count usages of %s", couponID),
		`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1`, couponID)
}

func (r *postgresRepository) CountClientUsages(ctx context.Context, couponID uuid.UUID, clientID int64) (int, error) {
	return r.count(ctx, fmt.Sprintf("count usages of %s by client %d", couponID, clientID),
		`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND client_id = $2`, couponID, clientID)
}

func (r *postgresRepository) HasUsage(ctx context.Context, couponID, orderID uuid.UUID) (bool, error) {
	n, err := r.count(ctx, fmt.Sprintf("check usage of %s by order %s", couponID, orderID),
		`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND order_id = $2`, couponID, orderID)
	return n > 0, err
}

// InsertUsage appends u and reports false when the order already has a usage
// row for this coupon.
func (r *postgresRepository) InsertUsage(ctx context.Context, u *Usage) (bool, error) {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return false, fmt.Errorf("coupon repository: failed to generate usage ID: %w", err)
		}
		u.ID = id
	}
	if u.UsedAt.IsZero() {
		u.UsedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO coupon_usages (id, coupon_id, client_id, order_id, discount_applied, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coupon_id, order_id) DO NOTHING
	`
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, u.ID, u.CouponID, u.ClientID, u.OrderID, u.DiscountApplied, u.UsedAt)
	if err != nil {
		return false, apperr.Storage(fmt.Sprintf("coupon repository: insert usage of %s", u.CouponID), err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

func (r *postgresRepository) Create(ctx context.Context, c *Coupon) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("coupon repository: failed to generate coupon ID: %w", err)
		}
		c.ID = id
	}
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO coupons (id, code, description, discount_kind, discount_value, minimum_order_amount,
			starts_on, ends_on, max_redemptions, max_per_client, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := db.Conn(ctx, r.db).Exec(ctx, query,
		c.ID,
		c.Code,
		c.Description,
		string(c.DiscountKind),
		c.DiscountValue,
		c.MinimumOrderAmount,
		c.StartsOn,
		c.EndsOn,
		c.MaxRedemptions,
		c.MaxPerClient,
		c.Active,
		c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, c.Code)
		}
		return apperr.Storage(fmt.Sprintf("coupon repository: insert coupon %q", c.Code), err)
	}

	return nil
}

func (r *postgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, `UPDATE coupons SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage(fmt.Sprintf("coupon repository: deactivate coupon %s", id), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}

	return nil
}
