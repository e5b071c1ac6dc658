package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
)

// Tier thresholds by cumulative order count.
const (
	silverThreshold = 10
	goldThreshold   = 25
)

// Milestone coupon values issued on tier upgrades.
const (
	silverRewardHuf = 1000
	goldRewardHuf   = 2000
	rewardValidDays = 90
)

// LoyaltyStore defines the DB methods needed for loyalty accrual.
// Satisfied by *database.Queries.
type LoyaltyStore interface {
	AccrueLoyalty(ctx context.Context, arg database.AccrueLoyaltyParams) (database.LoyaltyAccount, error)
	SetLoyaltyTier(ctx context.Context, arg database.SetLoyaltyTierParams) error
	CreateCoupon(ctx context.Context, arg database.CreateCouponParams) (database.Coupon, error)
}

// Loyalty maintains the per-phone counters and issues milestone coupons.
// Best-effort side effect of order submission; its errors never fail an
// order.
type Loyalty struct {
	store   LoyaltyStore
	newCode func() string
}

// NewLoyalty creates a Loyalty service. newCode generates reward coupon
// codes.
func NewLoyalty(store LoyaltyStore, newCode func() string) *Loyalty {
	return &Loyalty{store: store, newCode: newCode}
}

// TierForCount maps a cumulative order count to a loyalty tier.
func TierForCount(count int32) string {
	switch {
	case count >= goldThreshold:
		return enum.LoyaltyTierGold
	case count >= silverThreshold:
		return enum.LoyaltyTierSilver
	default:
		return enum.LoyaltyTierBronze
	}
}

// Accrue bumps the account for one completed order and, when the order
// count crosses a tier threshold, upgrades the tier and issues a one-use
// milestone coupon. Returns the issued coupon code, or "" when no milestone
// was reached.
func (s *Loyalty) Accrue(ctx context.Context, phone string, spendHuf int64) (string, error) {
	account, err := s.store.AccrueLoyalty(ctx, database.AccrueLoyaltyParams{
		Phone:    phone,
		SpendHuf: spendHuf,
		Tier:     enum.LoyaltyTierBronze,
	})
	if err != nil {
		return "", fmt.Errorf("accrue loyalty: %w", err)
	}

	newTier := TierForCount(account.OrderCount)
	if newTier == account.Tier {
		return "", nil
	}

	if err := s.store.SetLoyaltyTier(ctx, database.SetLoyaltyTierParams{
		Phone: phone,
		Tier:  newTier,
	}); err != nil {
		return "", fmt.Errorf("set loyalty tier: %w", err)
	}

	var rewardHuf int64
	switch newTier {
	case enum.LoyaltyTierSilver:
		rewardHuf = silverRewardHuf
	case enum.LoyaltyTierGold:
		rewardHuf = goldRewardHuf
	default:
		return "", nil
	}

	code := "HUSEG-" + s.newCode()
	_, err = s.store.CreateCoupon(ctx, database.CreateCouponParams{
		Code:        code,
		Type:        enum.CouponTypeFixed,
		Value:       rewardHuf,
		MinOrderHuf: 0,
		MaxUses:     pgtype.Int4{Int32: 1, Valid: true},
		ValidFrom:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
		ValidUntil:  pgtype.Timestamptz{Time: time.Now().AddDate(0, 0, rewardValidDays), Valid: true},
	})
	if err != nil {
		return "", fmt.Errorf("issue milestone coupon: %w", err)
	}
	return code, nil
}
