package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type EnsureCapacitySlotParams struct {
	Date      pgtype.Date
	Slot      string
	MaxOrders int32
}

const ensureCapacitySlot = `
INSERT INTO capacity_slots (date, slot, max_orders)
VALUES ($1, $2, $3)
ON CONFLICT (date, slot) DO NOTHING
`

// EnsureCapacitySlot lazily creates the (date, slot) row with the default
// capacity. ON CONFLICT DO NOTHING keeps concurrent first-orders from
// colliding; whoever loses the insert race simply finds the row present.
func (q *Queries) EnsureCapacitySlot(ctx context.Context, arg EnsureCapacitySlotParams) error {
	_, err := q.db.Exec(ctx, ensureCapacitySlot, arg.Date, arg.Slot, arg.MaxOrders)
	return err
}

type IncrementSlotBookedParams struct {
	Date pgtype.Date
	Slot string
}

const incrementSlotBooked = `
UPDATE capacity_slots
SET booked_orders = booked_orders + 1
WHERE date = $1 AND slot = $2 AND booked_orders < max_orders
`

// IncrementSlotBooked is the only write path for booked_orders. Single
// conditional UPDATE; zero rows affected means the slot is full.
func (q *Queries) IncrementSlotBooked(ctx context.Context, arg IncrementSlotBookedParams) (int64, error) {
	tag, err := q.db.Exec(ctx, incrementSlotBooked, arg.Date, arg.Slot)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listCapacitySlotsByDate = `
SELECT id, date, slot, max_orders, booked_orders, created_at
FROM capacity_slots
WHERE date = $1
ORDER BY slot
`

func (q *Queries) ListCapacitySlotsByDate(ctx context.Context, date pgtype.Date) ([]CapacitySlot, error) {
	rows, err := q.db.Query(ctx, listCapacitySlotsByDate, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []CapacitySlot
	for rows.Next() {
		var s CapacitySlot
		if err := rows.Scan(&s.ID, &s.Date, &s.Slot, &s.MaxOrders, &s.BookedOrders, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

type GetCapacitySlotParams struct {
	Date pgtype.Date
	Slot string
}

const getCapacitySlot = `
SELECT id, date, slot, max_orders, booked_orders, created_at
FROM capacity_slots
WHERE date = $1 AND slot = $2
`

func (q *Queries) GetCapacitySlot(ctx context.Context, arg GetCapacitySlotParams) (CapacitySlot, error) {
	row := q.db.QueryRow(ctx, getCapacitySlot, arg.Date, arg.Slot)
	var s CapacitySlot
	err := row.Scan(&s.ID, &s.Date, &s.Slot, &s.MaxOrders, &s.BookedOrders, &s.CreatedAt)
	return s, err
}
