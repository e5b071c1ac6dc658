package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDailyItem = `
SELECT id, kind, date, name, price_huf, max_portions, remaining_portions, created_at, updated_at
FROM daily_items
WHERE id = $1 AND kind = $2
`

func (q *Queries) GetDailyItem(ctx context.Context, id uuid.UUID, kind string) (DailyItem, error) {
	row := q.db.QueryRow(ctx, getDailyItem, id, kind)
	var d DailyItem
	err := row.Scan(&d.ID, &d.Kind, &d.Date, &d.Name, &d.PriceHuf,
		&d.MaxPortions, &d.RemainingPortions, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

type DecrementDailyPortionsParams struct {
	ID       uuid.UUID
	Kind     string
	Quantity int32
}

const decrementDailyPortions = `
UPDATE daily_items
SET remaining_portions = remaining_portions - $3, updated_at = now()
WHERE id = $1 AND kind = $2 AND remaining_portions >= $3
`

// DecrementDailyPortions is the only write path for remaining_portions.
// The WHERE guard makes it a single-statement compare-and-swap: when two
// requests race for the last portions, at most one update affects a row.
// Returns the number of rows affected (0 means insufficient stock).
func (q *Queries) DecrementDailyPortions(ctx context.Context, arg DecrementDailyPortionsParams) (int64, error) {
	tag, err := q.db.Exec(ctx, decrementDailyPortions, arg.ID, arg.Kind, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listDailyItemsByDate = `
SELECT id, kind, date, name, price_huf, max_portions, remaining_portions, created_at, updated_at
FROM daily_items
WHERE date = $1
ORDER BY kind, name
`

func (q *Queries) ListDailyItemsByDate(ctx context.Context, date pgtype.Date) ([]DailyItem, error) {
	rows, err := q.db.Query(ctx, listDailyItemsByDate, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DailyItem
	for rows.Next() {
		var d DailyItem
		if err := rows.Scan(&d.ID, &d.Kind, &d.Date, &d.Name, &d.PriceHuf,
			&d.MaxPortions, &d.RemainingPortions, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// --- Admin CRUD ---

type CreateDailyItemParams struct {
	Kind        string
	Date        pgtype.Date
	Name        string
	PriceHuf    int64
	MaxPortions int32
}

const createDailyItem = `
INSERT INTO daily_items (kind, date, name, price_huf, max_portions, remaining_portions)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING id, kind, date, name, price_huf, max_portions, remaining_portions, created_at, updated_at
`

func (q *Queries) CreateDailyItem(ctx context.Context, arg CreateDailyItemParams) (DailyItem, error) {
	row := q.db.QueryRow(ctx, createDailyItem,
		arg.Kind, arg.Date, arg.Name, arg.PriceHuf, arg.MaxPortions)
	var d DailyItem
	err := row.Scan(&d.ID, &d.Kind, &d.Date, &d.Name, &d.PriceHuf,
		&d.MaxPortions, &d.RemainingPortions, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

type ResetDailyPortionsParams struct {
	ID          uuid.UUID
	MaxPortions int32
}

const resetDailyPortions = `
UPDATE daily_items
SET max_portions = $2, remaining_portions = $2, updated_at = now()
WHERE id = $1
RETURNING id, kind, date, name, price_huf, max_portions, remaining_portions, created_at, updated_at
`

// ResetDailyPortions is the admin reset path; it rewrites both counters.
func (q *Queries) ResetDailyPortions(ctx context.Context, arg ResetDailyPortionsParams) (DailyItem, error) {
	row := q.db.QueryRow(ctx, resetDailyPortions, arg.ID, arg.MaxPortions)
	var d DailyItem
	err := row.Scan(&d.ID, &d.Kind, &d.Date, &d.Name, &d.PriceHuf,
		&d.MaxPortions, &d.RemainingPortions, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

const deleteDailyItem = `
DELETE FROM daily_items WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteDailyItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteDailyItem, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
