package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
)

// Errors returned by the coupon redemption service.
var (
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponNotYetValid  = errors.New("coupon is not active yet")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrMinimumOrderNotMet = errors.New("order total is below the coupon minimum")
)

// CouponStore defines the DB methods needed to redeem coupons.
// Satisfied by *database.Queries.
type CouponStore interface {
	GetCouponByCode(ctx context.Context, code string) (database.Coupon, error)
	IncrementCouponUsage(ctx context.Context, code string) (int64, error)
}

// Coupons validates and redeems discount codes. The usage counter is bumped
// with the same conditional-update primitive as the portion and slot
// counters, so a capped coupon holds under concurrent submissions.
type Coupons struct {
	store CouponStore
	now   func() time.Time
}

// NewCoupons creates a coupon redemption service.
func NewCoupons(store CouponStore) *Coupons {
	return &Coupons{store: store, now: time.Now}
}

// Redeem validates the code against the pre-discount total, records one
// usage, and returns the discount amount in HUF. The discount never exceeds
// the total.
func (s *Coupons) Redeem(ctx context.Context, code string, totalHuf int64) (int64, error) {
	coupon, err := s.store.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCouponNotFound
		}
		return 0, fmt.Errorf("get coupon: %w", err)
	}

	now := s.now()
	if coupon.ValidFrom.Valid && now.Before(coupon.ValidFrom.Time) {
		return 0, ErrCouponNotYetValid
	}
	if coupon.ValidUntil.Valid && now.After(coupon.ValidUntil.Time) {
		return 0, ErrCouponExpired
	}
	if coupon.MaxUses.Valid && coupon.UsedCount >= coupon.MaxUses.Int32 {
		return 0, ErrCouponExhausted
	}
	if totalHuf < coupon.MinOrderHuf {
		return 0, fmt.Errorf("%w: minimum is %d HUF", ErrMinimumOrderNotMet, coupon.MinOrderHuf)
	}

	discount := Discount(coupon.Type, coupon.Value, totalHuf)

	affected, err := s.store.IncrementCouponUsage(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("increment coupon usage: %w", err)
	}
	if affected == 0 {
		// Lost the race for the last use between validation and redemption.
		return 0, ErrCouponExhausted
	}
	return discount, nil
}

// Discount computes the discount amount for a coupon type and value against
// a total. Percentage discounts round half away from zero; both types are
// capped at the total so it can never go negative.
func Discount(couponType string, value, totalHuf int64) int64 {
	var discount int64
	switch couponType {
	case enum.CouponTypePercentage:
		discount = decimal.NewFromInt(totalHuf).
			Mul(decimal.NewFromInt(value)).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()
	case enum.CouponTypeFixed:
		discount = value
	}
	if discount > totalHuf {
		discount = totalHuf
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
