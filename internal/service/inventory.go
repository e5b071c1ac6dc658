package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
)

// Errors returned by the daily-inventory reservation service.
var (
	ErrInvalidDailyKind     = errors.New("invalid daily item kind")
	ErrInvalidDailyID       = errors.New("invalid daily_id")
	ErrDailyItemNotFound    = errors.New("daily item not found")
	ErrItemExpired          = errors.New("daily item date is in the past")
	ErrInsufficientPortions = errors.New("not enough portions remaining")
)

// DailyStore defines the DB methods needed to reserve daily portions.
// Satisfied by *database.Queries.
type DailyStore interface {
	GetDailyItem(ctx context.Context, id uuid.UUID, kind string) (database.DailyItem, error)
	DecrementDailyPortions(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error)
}

// Inventory reserves portions from daily items. All mutation goes through
// the conditional-update primitive; this service never reads a counter and
// writes it back.
type Inventory struct {
	store DailyStore
	now   func() time.Time
}

// NewInventory creates an Inventory service.
func NewInventory(store DailyStore) *Inventory {
	return &Inventory{store: store, now: time.Now}
}

// Reserve validates the daily item and atomically consumes quantity
// portions. On success it returns the item row as read before the
// decrement, for pricing snapshots; its RemainingPortions field must not be
// trusted for availability decisions.
func (s *Inventory) Reserve(ctx context.Context, kind, id string, quantity int32) (database.DailyItem, error) {
	switch kind {
	case enum.DailyKindOffer, enum.DailyKindMenu, enum.DailyKindCompleteMenu:
	default:
		return database.DailyItem{}, fmt.Errorf("%w: %q", ErrInvalidDailyKind, kind)
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return database.DailyItem{}, ErrInvalidDailyID
	}

	item, err := s.store.GetDailyItem(ctx, itemID, kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DailyItem{}, ErrDailyItemNotFound
		}
		return database.DailyItem{}, fmt.Errorf("get daily item: %w", err)
	}

	today := s.now().Truncate(24 * time.Hour)
	if item.Date.Valid && item.Date.Time.Before(today) {
		return database.DailyItem{}, fmt.Errorf("%w: %s", ErrItemExpired, item.Date.Time.Format("2006-01-02"))
	}

	affected, err := s.store.DecrementDailyPortions(ctx, database.DecrementDailyPortionsParams{
		ID:       itemID,
		Kind:     kind,
		Quantity: quantity,
	})
	if err != nil {
		return database.DailyItem{}, fmt.Errorf("decrement portions: %w", err)
	}
	if affected == 0 {
		return database.DailyItem{}, fmt.Errorf("%w: %q", ErrInsufficientPortions, item.Name)
	}
	return item, nil
}
