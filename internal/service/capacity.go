package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
)

// Errors returned by the capacity reservation service.
var (
	ErrInvalidSlot          = errors.New("invalid time slot")
	ErrOutsideBusinessHours = errors.New("pickup time is outside business hours")
	ErrSlotFull             = errors.New("the selected pickup slot is fully booked")
	ErrPickupDateInPast     = errors.New("pickup date is in the past")
)

// DefaultSlotMaxOrders caps how many orders a lazily-created slot accepts.
const DefaultSlotMaxOrders = 8

// defaultBufferMinutes blocks the slots right after a booked-out one on the
// customer-facing list, giving the kitchen room to catch up. Advisory only:
// the hard limit is the conditional update on booked_orders.
const defaultBufferMinutes = 30

// CapacityStore defines the DB methods needed to reserve pickup capacity.
// Satisfied by *database.Queries.
type CapacityStore interface {
	EnsureCapacitySlot(ctx context.Context, arg database.EnsureCapacitySlotParams) error
	IncrementSlotBooked(ctx context.Context, arg database.IncrementSlotBookedParams) (int64, error)
	ListCapacitySlotsByDate(ctx context.Context, date pgtype.Date) ([]database.CapacitySlot, error)
}

// Capacity reserves (date, slot) booking units and lists availability.
type Capacity struct {
	store         CapacityStore
	maxOrders     int32
	bufferMinutes int
	now           func() time.Time
}

// NewCapacity creates a Capacity service. maxOrders <= 0 falls back to
// DefaultSlotMaxOrders.
func NewCapacity(store CapacityStore, maxOrders int32) *Capacity {
	if maxOrders <= 0 {
		maxOrders = DefaultSlotMaxOrders
	}
	return &Capacity{
		store:         store,
		maxOrders:     maxOrders,
		bufferMinutes: defaultBufferMinutes,
		now:           time.Now,
	}
}

// Reserve atomically books one unit on the (date, slot) pair, creating the
// slot row on demand when the pair is within business hours. One shared
// policy decides hours for both creation and listing.
func (s *Capacity) Reserve(ctx context.Context, date time.Time, slot string) error {
	canonical, err := canonicalSlot(slot)
	if err != nil {
		return ErrInvalidSlot
	}

	today := s.now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return ErrPickupDateInPast
	}

	if !WithinBusinessHours(date, canonical) {
		return fmt.Errorf("%w: %s %s", ErrOutsideBusinessHours, date.Format("2006-01-02"), canonical)
	}

	pgDate := pgtype.Date{Time: date, Valid: true}
	if err := s.store.EnsureCapacitySlot(ctx, database.EnsureCapacitySlotParams{
		Date:      pgDate,
		Slot:      canonical,
		MaxOrders: s.maxOrders,
	}); err != nil {
		return fmt.Errorf("ensure capacity slot: %w", err)
	}

	affected, err := s.store.IncrementSlotBooked(ctx, database.IncrementSlotBookedParams{
		Date: pgDate,
		Slot: canonical,
	})
	if err != nil {
		return fmt.Errorf("increment slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %s", ErrSlotFull, date.Format("2006-01-02"), canonical)
	}
	return nil
}

// AvailableSlot is one customer-visible pickup option.
type AvailableSlot struct {
	Slot      string `json:"slot"`
	Remaining int32  `json:"remaining"`
}

// ListAvailable returns the bookable slots for a date: business-hours slots
// minus full ones, minus past slots for today, minus the advisory buffer
// window after any full slot.
func (s *Capacity) ListAvailable(ctx context.Context, date time.Time) ([]AvailableSlot, error) {
	labels := GenerateSlots(date)
	if len(labels) == 0 {
		return nil, nil
	}

	rows, err := s.store.ListCapacitySlotsByDate(ctx, pgtype.Date{Time: date, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("list capacity slots: %w", err)
	}
	booked := make(map[string]database.CapacitySlot, len(rows))
	for _, r := range rows {
		booked[r.Slot] = r
	}

	now := s.now()
	sameDay := date.Year() == now.Year() && date.YearDay() == now.YearDay()
	minutesNow := now.Hour()*60 + now.Minute()

	blockedUntil := -1 // inclusive minutes-from-midnight end of the buffer window
	var out []AvailableSlot
	for _, label := range labels {
		m, _ := parseSlot(label)

		remaining := s.maxOrders
		if row, ok := booked[label]; ok {
			remaining = row.MaxOrders - row.BookedOrders
		}

		if remaining <= 0 {
			// Full slot starts a buffer window behind it.
			if m+s.bufferMinutes > blockedUntil {
				blockedUntil = m + s.bufferMinutes
			}
			continue
		}
		if m <= blockedUntil {
			continue
		}
		if sameDay && m <= minutesNow {
			continue
		}
		out = append(out, AvailableSlot{Slot: label, Remaining: remaining})
	}
	return out, nil
}
