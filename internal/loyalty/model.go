package loyalty

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
)

var pointsStep = decimal.NewFromInt(1000)

const (
	pointsPerStep = 10
	// HistoryLimit caps the number of entries History returns.
	HistoryLimit = 50
)

// PointsFor returns the points earned for a purchase of amount: 10 points per
// full 1,000 spent.
func PointsFor(amount decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Div(pointsStep).Floor().IntPart() * pointsPerStep
}

type EntryKind string

const (
	KindEarned   EntryKind = "ganado"
	KindRedeemed EntryKind = "canjeado"
)

type HistoryEntry struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    int64      `json:"client_id"`
	Points      int64      `json:"points"`
	Kind        EntryKind  `json:"kind"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	RewardID    *uuid.UUID `json:"reward_id,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RewardKind string

const (
	RewardCoupon   RewardKind = "cupon"
	RewardDiscount RewardKind = "descuento"
)

// IssuesCoupon reports whether redeeming this kind of reward yields a coupon.
func (k RewardKind) IssuesCoupon() bool {
	return k == RewardCoupon || k == RewardDiscount
}

type Reward struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	PointsRequired int64      `json:"points_required"`
	Kind           RewardKind `json:"kind"`
	Value          string     `json:"value"`
	Active         bool       `json:"active"`
}

type Redemption struct {
	Reward          Reward         `json:"reward"`
	PointsSpent     int64          `json:"points_spent"`
	RemainingPoints int64          `json:"remaining_points"`
	Coupon          *coupon.Coupon `json:"coupon,omitempty"`
}

type Award struct {
	ClientID int64 `json:"client_id"`
	Points   int64 `json:"points"`
	Balance  int64 `json:"balance"`
}

// InsufficientPointsError reports a redemption the balance cannot cover.
type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("reward requires %d points, only %d available", e.Required, e.Available)
}

func (e *InsufficientPointsError) Unwrap() error {
	return apperr.ErrInsufficientPoints
}

var ErrRewardNotFound = fmt.Errorf("reward %w", apperr.ErrNotFound)
