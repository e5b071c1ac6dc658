package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getCouponByCode = `
SELECT id, code, type, value, min_order_huf, max_uses, used_count, valid_from, valid_until, is_active, created_at
FROM coupons
WHERE code = $1 AND is_active = true
`

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	row := q.db.QueryRow(ctx, getCouponByCode, code)
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrderHuf, &c.MaxUses,
		&c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.CreatedAt)
	return c, err
}

const incrementCouponUsage = `
UPDATE coupons
SET used_count = used_count + 1
WHERE code = $1 AND is_active = true
  AND (max_uses IS NULL OR used_count < max_uses)
`

// IncrementCouponUsage records a redemption with the same conditional-update
// shape as the portion and slot counters, so a capped coupon cannot be
// oversubscribed by concurrent orders. Zero rows affected means the cap was
// reached between validation and redemption.
func (q *Queries) IncrementCouponUsage(ctx context.Context, code string) (int64, error) {
	tag, err := q.db.Exec(ctx, incrementCouponUsage, code)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Admin CRUD ---

type CreateCouponParams struct {
	Code        string
	Type        string
	Value       int64
	MinOrderHuf int64
	MaxUses     pgtype.Int4
	ValidFrom   pgtype.Timestamptz
	ValidUntil  pgtype.Timestamptz
}

const createCoupon = `
INSERT INTO coupons (code, type, value, min_order_huf, max_uses, valid_from, valid_until)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, code, type, value, min_order_huf, max_uses, used_count, valid_from, valid_until, is_active, created_at
`

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, createCoupon,
		arg.Code, arg.Type, arg.Value, arg.MinOrderHuf, arg.MaxUses, arg.ValidFrom, arg.ValidUntil)
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrderHuf, &c.MaxUses,
		&c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.CreatedAt)
	return c, err
}

const listCoupons = `
SELECT id, code, type, value, min_order_huf, max_uses, used_count, valid_from, valid_until, is_active, created_at
FROM coupons
ORDER BY created_at DESC
`

func (q *Queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCoupons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrderHuf, &c.MaxUses,
			&c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

const deactivateCoupon = `
UPDATE coupons SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) DeactivateCoupon(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deactivateCoupon, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
