package database

import (
	"context"
)

type AccrueLoyaltyParams struct {
	Phone    string
	SpendHuf int64
	Tier     string
}

const accrueLoyalty = `
INSERT INTO loyalty_accounts (phone, order_count, total_spend_huf, tier, last_order_at)
VALUES ($1, 1, $2, $3, now())
ON CONFLICT (phone) DO UPDATE
SET order_count = loyalty_accounts.order_count + 1,
    total_spend_huf = loyalty_accounts.total_spend_huf + EXCLUDED.total_spend_huf,
    last_order_at = now()
RETURNING phone, order_count, total_spend_huf, tier, last_order_at, created_at
`

// AccrueLoyalty additively bumps the per-phone counters in one upsert.
// The tier column is recomputed by the caller from the returned count and
// written back with SetLoyaltyTier when it changes.
func (q *Queries) AccrueLoyalty(ctx context.Context, arg AccrueLoyaltyParams) (LoyaltyAccount, error) {
	row := q.db.QueryRow(ctx, accrueLoyalty, arg.Phone, arg.SpendHuf, arg.Tier)
	var a LoyaltyAccount
	err := row.Scan(&a.Phone, &a.OrderCount, &a.TotalSpendHuf, &a.Tier, &a.LastOrderAt, &a.CreatedAt)
	return a, err
}

type SetLoyaltyTierParams struct {
	Phone string
	Tier  string
}

const setLoyaltyTier = `
UPDATE loyalty_accounts SET tier = $2 WHERE phone = $1
`

func (q *Queries) SetLoyaltyTier(ctx context.Context, arg SetLoyaltyTierParams) error {
	_, err := q.db.Exec(ctx, setLoyaltyTier, arg.Phone, arg.Tier)
	return err
}

const getLoyaltyAccount = `
SELECT phone, order_count, total_spend_huf, tier, last_order_at, created_at
FROM loyalty_accounts
WHERE phone = $1
`

func (q *Queries) GetLoyaltyAccount(ctx context.Context, phone string) (LoyaltyAccount, error) {
	row := q.db.QueryRow(ctx, getLoyaltyAccount, phone)
	var a LoyaltyAccount
	err := row.Scan(&a.Phone, &a.OrderCount, &a.TotalSpendHuf, &a.Tier, &a.LastOrderAt, &a.CreatedAt)
	return a, err
}
