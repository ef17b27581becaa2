package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
)

const rewardCouponDays = 30

var (
	defaultRewardDiscount = decimal.NewFromInt(1000)
	maxRewardPercentage   = decimal.NewFromInt(100)
)

// CouponCreator stores the coupons issued by reward redemptions.
type CouponCreator interface {
	Create(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
}

type Service interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	AwardPoints(ctx context.Context, userID int64, amount decimal.Decimal, orderID uuid.UUID) (*Award, error)
	AwardClientPoints(ctx context.Context, clientID int64, amount decimal.Decimal, orderID uuid.UUID) (int64, error)
	History(ctx context.Context, userID int64) ([]HistoryEntry, error)
	ListRewards(ctx context.Context) ([]Reward, error)
	Redeem(ctx context.Context, userID int64, rewardID uuid.UUID) (*Redemption, error)
}

type service struct {
	repo      Repository
	directory directory.Repository
	coupons   CouponCreator
	tx        db.Transactor
	now       func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func NewService(repo Repository, dir directory.Repository, coupons CouponCreator, tx db.Transactor, opts ...Option) Service {
	s := &service{
		repo:      repo,
		directory: dir,
		coupons:   coupons,
		tx:        tx,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Balance(ctx context.Context, userID int64) (int64, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		logFailure(err, "failed to resolve client", "user_id", userID)
		return 0, fmt.Errorf("service: points balance: %w", err)
	}
	return client.LoyaltyPoints, nil
}

func (s *service) AwardPoints(ctx context.Context, userID int64, amount decimal.Decimal, orderID uuid.UUID) (*Award, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		logFailure(err, "failed to resolve client", "user_id", userID)
		return nil, fmt.Errorf("service: award points: %w", err)
	}

	points, balance, err := s.award(ctx, client.ID, amount, orderID)
	if err != nil {
		return nil, err
	}

	return &Award{ClientID: client.ID, Points: points, Balance: balance}, nil
}

// AwardClientPoints awards points for amount to an already resolved client
// and returns the points granted.
func (s *service) AwardClientPoints(ctx context.Context, clientID int64, amount decimal.Decimal, orderID uuid.UUID) (int64, error) {
	points, _, err := s.award(ctx, clientID, amount, orderID)
	return points, err
}

func (s *service) award(ctx context.Context, clientID int64, amount decimal.Decimal, orderID uuid.UUID) (int64, int64, error) {
	points := PointsFor(amount)

	var granted, balance int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockClient(ctx, clientID)
		if err != nil {
			return err
		}
		balance = current
		if points == 0 {
			return nil
		}

		entry := &HistoryEntry{
			ClientID:    clientID,
			Points:      points,
			Kind:        KindEarned,
			Description: "Ganados por compra de ₡" + amount.StringFixed(2),
			CreatedAt:   s.now().UTC(),
		}
		if orderID != uuid.Nil {
			entry.OrderID = &orderID
		}

		inserted, err := s.repo.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		if err := s.repo.SetPoints(ctx, clientID, current+points); err != nil {
			return err
		}
		granted = points
		balance = current + points
		return nil
	})
	if err != nil {
		logFailure(err, "failed to award points", "client_id", clientID)
		return 0, 0, fmt.Errorf("service: award points: %w", err)
	}

	if granted > 0 {
		log.Info().Int64("client_id", clientID).Int64("points", granted).Stringer("order_id", orderID).Msg("service: loyalty points awarded")
	}
	return granted, balance, nil
}

func (s *service) History(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	client, err := s.directory.ClientByUserID(ctx, userID)
	if err != nil {
		logFailure(err, "failed to resolve client", "user_id", userID)
		return nil, fmt.Errorf("service: points history: %w", err)
	}

	entries, err := s.repo.History(ctx, client.ID, HistoryLimit)
	if err != nil {
		logFailure(err, "failed to load points history", "user_id", userID)
		return nil, fmt.Errorf("service: points history: %w", err)
	}
	return entries, nil
}

func (s *service) ListRewards(ctx context.Context) ([]Reward, error) {
	rewards, err := s.repo.ListRewards(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list rewards")
		return nil, fmt.Errorf("service: list rewards: %w", err)
	}
	return rewards, nil
}

func (s *service) Redeem(ctx context.Context, userID int64, rewardID uuid.UUID) (*Redemption, error) {
	var result *Redemption
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.directory.ClientByUserID(ctx, userID)
		if err != nil {
			return err
		}

		reward, err := s.repo.ActiveReward(ctx, rewardID)
		if err != nil {
			return err
		}

		current, err := s.repo.LockClient(ctx, client.ID)
		if err != nil {
			return err
		}
		if current < reward.PointsRequired {
			return &InsufficientPointsError{Required: reward.PointsRequired, Available: current}
		}

		remaining := current - reward.PointsRequired
		if err := s.repo.SetPoints(ctx, client.ID, remaining); err != nil {
			return err
		}

		now := s.now().UTC()
		_, err = s.repo.InsertEntry(ctx, &HistoryEntry{
			ClientID:    client.ID,
			Points:      -reward.PointsRequired,
			Kind:        KindRedeemed,
			RewardID:    &reward.ID,
			Description: "Canjeado: " + reward.Name,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		result = &Redemption{Reward: *reward, PointsSpent: reward.PointsRequired, RemainingPoints: remaining}
		if !reward.Kind.IssuesCoupon() {
			return nil
		}

		issued, err := s.coupons.Create(ctx, NewRewardCoupon(reward, client.ID, now))
		if err != nil {
			return err
		}
		result.Coupon = issued
		return nil
	})
	if err != nil {
		logFailure(err, "failed to redeem reward "+rewardID.String(), "user_id", userID)
		return nil, fmt.Errorf("service: redeem reward: %w", err)
	}

	log.Info().Int64("user_id", userID).Stringer("reward_id", rewardID).
		Int64("points_spent", result.PointsSpent).Msg("service: reward redeemed")
	return result, nil
}

// NewRewardCoupon builds the single-use coupon issued when clientID redeems
// reward at now. A value ending in % yields a percentage discount capped at
// 100, any other number a fixed one, and an unreadable value the default fixed
// discount.
func NewRewardCoupon(reward *Reward, clientID int64, now time.Time) *coupon.Coupon {
	unix := strconv.FormatInt(now.Unix(), 10)
	if len(unix) > 6 {
		unix = unix[len(unix)-6:]
	}

	kind := coupon.KindFixed
	value := defaultRewardDiscount
	raw := strings.TrimSpace(reward.Value)
	if strings.Contains(raw, "%") {
		if v, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))); err == nil && v.IsPositive() {
			kind, value = coupon.KindPercentage, decimal.Min(v, maxRewardPercentage)
		}
	} else if v, err := decimal.NewFromString(raw); err == nil && v.IsPositive() {
		value = v
	}

	maxRedemptions := 1
	starts := now.UTC().Truncate(24 * time.Hour)
	return &coupon.Coupon{
		Code:               fmt.Sprintf("REWARD%d%s", clientID, unix),
		Description:        "Recompensa canjeada: " + reward.Name,
		DiscountKind:       kind,
		DiscountValue:      value,
		MinimumOrderAmount: decimal.Zero,
		StartsOn:           starts,
		EndsOn:             starts.AddDate(0, 0, rewardCouponDays),
		MaxRedemptions:     &maxRedemptions,
		MaxPerClient:       1,
		Active:             true,
	}
}

func logFailure(err error, msg, key string, id int64) {
	event := log.Warn()
	if errors.Is(err, apperr.ErrStorage) {
		event = log.Error()
	}
	event.Err(err).Int64(key, id).Msg("service: " + msg)
}
