package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
)

// mockDailyStore implements DailyStore with configurable behavior.
type mockDailyStore struct {
	getDailyItemFn func(ctx context.Context, id uuid.UUID, kind string) (database.DailyItem, error)
	decrementFn    func(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error)
}

func (m *mockDailyStore) GetDailyItem(ctx context.Context, id uuid.UUID, kind string) (database.DailyItem, error) {
	if m.getDailyItemFn != nil {
		return m.getDailyItemFn(ctx, id, kind)
	}
	return database.DailyItem{}, pgx.ErrNoRows
}

func (m *mockDailyStore) DecrementDailyPortions(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
	if m.decrementFn != nil {
		return m.decrementFn(ctx, arg)
	}
	return 0, nil
}

// counterDailyStore emulates the conditional UPDATE semantics of the real
// query: the decrement succeeds only while enough portions remain.
type counterDailyStore struct {
	mu        sync.Mutex
	item      database.DailyItem
	remaining int32
}

func (s *counterDailyStore) GetDailyItem(ctx context.Context, id uuid.UUID, kind string) (database.DailyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.item
	item.RemainingPortions = s.remaining
	return item, nil
}

func (s *counterDailyStore) DecrementDailyPortions(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining < arg.Quantity {
		return 0, nil
	}
	s.remaining -= arg.Quantity
	return 1, nil
}

func futureDate() pgtype.Date {
	return pgtype.Date{Time: time.Now().AddDate(0, 0, 1), Valid: true}
}

func TestReserveInvalidKind(t *testing.T) {
	inv := NewInventory(&mockDailyStore{})
	_, err := inv.Reserve(context.Background(), "weekly", uuid.NewString(), 1)
	if !errors.Is(err, ErrInvalidDailyKind) {
		t.Fatalf("expected ErrInvalidDailyKind, got %v", err)
	}
}

func TestReserveInvalidID(t *testing.T) {
	inv := NewInventory(&mockDailyStore{})
	_, err := inv.Reserve(context.Background(), enum.DailyKindOffer, "nope", 1)
	if !errors.Is(err, ErrInvalidDailyID) {
		t.Fatalf("expected ErrInvalidDailyID, got %v", err)
	}
}

func TestReserveNotFound(t *testing.T) {
	inv := NewInventory(&mockDailyStore{})
	_, err := inv.Reserve(context.Background(), enum.DailyKindOffer, uuid.NewString(), 1)
	if !errors.Is(err, ErrDailyItemNotFound) {
		t.Fatalf("expected ErrDailyItemNotFound, got %v", err)
	}
}

func TestReserveExpiredItem(t *testing.T) {
	id := uuid.New()
	store := &mockDailyStore{
		getDailyItemFn: func(ctx context.Context, gotID uuid.UUID, kind string) (database.DailyItem, error) {
			return database.DailyItem{
				ID: id, Kind: kind, Name: "Tegnapi menü",
				Date: pgtype.Date{Time: time.Now().AddDate(0, 0, -1), Valid: true},
			}, nil
		},
		decrementFn: func(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
			t.Fatal("decrement must not run for an expired item")
			return 0, nil
		},
	}
	_, err := NewInventory(store).Reserve(context.Background(), enum.DailyKindMenu, id.String(), 1)
	if !errors.Is(err, ErrItemExpired) {
		t.Fatalf("expected ErrItemExpired, got %v", err)
	}
}

func TestReserveInsufficientPortions(t *testing.T) {
	id := uuid.New()
	store := &mockDailyStore{
		getDailyItemFn: func(ctx context.Context, gotID uuid.UUID, kind string) (database.DailyItem, error) {
			return database.DailyItem{ID: id, Kind: kind, Name: "Gulyás", Date: futureDate(), RemainingPortions: 1}, nil
		},
		decrementFn: func(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
			return 0, nil // conditional update misses
		},
	}
	_, err := NewInventory(store).Reserve(context.Background(), enum.DailyKindOffer, id.String(), 2)
	if !errors.Is(err, ErrInsufficientPortions) {
		t.Fatalf("expected ErrInsufficientPortions, got %v", err)
	}
}

func TestReserveSuccessReturnsSnapshot(t *testing.T) {
	id := uuid.New()
	store := &mockDailyStore{
		getDailyItemFn: func(ctx context.Context, gotID uuid.UUID, kind string) (database.DailyItem, error) {
			return database.DailyItem{ID: id, Kind: kind, Name: "Gulyás", PriceHuf: 1690, Date: futureDate()}, nil
		},
		decrementFn: func(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
			if arg.ID != id || arg.Quantity != 3 {
				t.Errorf("decrement args = %+v", arg)
			}
			return 1, nil
		},
	}
	item, err := NewInventory(store).Reserve(context.Background(), enum.DailyKindOffer, id.String(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Name != "Gulyás" || item.PriceHuf != 1690 {
		t.Errorf("snapshot = %+v, want name and price from store", item)
	}
}

// TestReserveConcurrentNeverOversells runs more reservations than there are
// portions and checks that exactly the available amount is handed out.
func TestReserveConcurrentNeverOversells(t *testing.T) {
	const portions = 10
	const attempts = 25

	id := uuid.New()
	store := &counterDailyStore{
		item:      database.DailyItem{ID: id, Kind: enum.DailyKindMenu, Name: "Napi menü", PriceHuf: 1990, Date: futureDate()},
		remaining: portions,
	}
	inv := NewInventory(store)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Reserve(context.Background(), enum.DailyKindMenu, id.String(), 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientPortions):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if ok != portions {
		t.Errorf("%d reservations succeeded, want exactly %d", ok, portions)
	}
	if insufficient != attempts-portions {
		t.Errorf("%d refusals, want %d", insufficient, attempts-portions)
	}
	if store.remaining != 0 {
		t.Errorf("remaining = %d, want 0", store.remaining)
	}
}
