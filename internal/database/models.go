package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// MenuItem is a permanent catalog row. Prices are whole HUF (forints have no
// minor unit in practice), stored as BIGINT.
type MenuItem struct {
	ID            uuid.UUID
	Name          string
	Category      pgtype.Text
	PriceHuf      int64
	IsActive      bool
	SidesRequired bool
	SidesMin      int32
	SidesMax      int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SideDish is a selectable side, priced independently of the main item.
type SideDish struct {
	ID       uuid.UUID
	Name     string
	PriceHuf int64
	IsActive bool
}

// Modifier is a per-item price delta (extra cheese, larger portion, ...).
type Modifier struct {
	ID            uuid.UUID
	MenuItemID    uuid.UUID
	Label         string
	PriceDeltaHuf int64
	IsActive      bool
}

// DailyItem is a limited-availability product valid for a single calendar
// date. remaining_portions is mutated only through DecrementDailyPortions
// and admin resets; the DB CHECK keeps it within [0, max_portions].
type DailyItem struct {
	ID                uuid.UUID
	Kind              string
	Date              pgtype.Date
	Name              string
	PriceHuf          int64
	MaxPortions       int32
	RemainingPortions int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CapacitySlot is a (date, slot) booking bucket, created lazily on first
// order. booked_orders is mutated only through IncrementSlotBooked.
type CapacitySlot struct {
	ID           uuid.UUID
	Date         pgtype.Date
	Slot         string
	MaxOrders    int32
	BookedOrders int32
	CreatedAt    time.Time
}

// Coupon is a discount code with an activity window, usage cap and
// minimum-order threshold.
type Coupon struct {
	ID          uuid.UUID
	Code        string
	Type        string
	Value       int64
	MinOrderHuf int64
	MaxUses     pgtype.Int4
	UsedCount   int32
	ValidFrom   pgtype.Timestamptz
	ValidUntil  pgtype.Timestamptz
	IsActive    bool
	CreatedAt   time.Time
}

// Order is the persisted order header.
type Order struct {
	ID            uuid.UUID
	Code          string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Notes         pgtype.Text
	PaymentMethod string
	PickupAt      pgtype.Timestamptz
	PickupDate    pgtype.Date
	PickupSlot    pgtype.Text
	Status        string
	TotalHuf      int64
	DiscountHuf   int64
	CouponCode    pgtype.Text
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is one cart line with name and unit price snapshotted at order
// time; never re-read from the catalog afterwards.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	MenuItemID   pgtype.UUID
	NameSnapshot string
	UnitPriceHuf int64
	Quantity     int32
	LineTotalHuf int64
	DailyKind    pgtype.Text
	DailyID      pgtype.UUID
	DailyDate    pgtype.Date
}

// OrderItemOption is an immutable price-delta snapshot attached to an order
// item: a modifier, a side dish, or the synthetic daily metadata marker.
type OrderItemOption struct {
	ID            uuid.UUID
	OrderItemID   uuid.UUID
	Kind          string
	Label         string
	PriceDeltaHuf int64
}

// LoyaltyAccount is the per-phone running counter row. Mutated additively by
// the order pipeline only.
type LoyaltyAccount struct {
	Phone         string
	OrderCount    int32
	TotalSpendHuf int64
	Tier          string
	LastOrderAt   pgtype.Timestamptz
	CreatedAt     time.Time
}
