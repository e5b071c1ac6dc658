package handler_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/handler"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/service"
)

type mockSlotLister struct {
	listFn func(ctx context.Context, date time.Time) ([]service.AvailableSlot, error)
}

func (m *mockSlotLister) ListAvailable(ctx context.Context, date time.Time) ([]service.AvailableSlot, error) {
	return m.listFn(ctx, date)
}

func setupSlotRouter(svc handler.SlotLister) *chi.Mux {
	h := handler.NewSlotHandler(svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestSlotList_Success(t *testing.T) {
	svc := &mockSlotLister{
		listFn: func(ctx context.Context, date time.Time) ([]service.AvailableSlot, error) {
			if date.Format("2006-01-02") != "2026-09-02" {
				t.Errorf("date not parsed: %v", date)
			}
			return []service.AvailableSlot{
				{Slot: "11:30", Remaining: 5},
				{Slot: "12:00", Remaining: 8},
			}, nil
		},
	}
	router := setupSlotRouter(svc)

	rr := doRequest(t, router, "GET", "/slots?date=2026-09-02", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	slots := resp["slots"].([]interface{})
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}

func TestSlotList_ClosedDayReturnsEmptyList(t *testing.T) {
	svc := &mockSlotLister{
		listFn: func(ctx context.Context, date time.Time) ([]service.AvailableSlot, error) {
			return nil, nil
		},
	}
	router := setupSlotRouter(svc)

	rr := doRequest(t, router, "GET", "/slots?date=2026-09-06", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	// nil from the service must serialize as [] rather than null.
	if got := rr.Body.String(); !strings.Contains(got, `"slots":[]`) {
		t.Errorf("body = %s, want empty slots array", got)
	}
}

func TestSlotList_MissingDate(t *testing.T) {
	router := setupSlotRouter(&mockSlotLister{})

	rr := doRequest(t, router, "GET", "/slots", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSlotList_BadDate(t *testing.T) {
	router := setupSlotRouter(&mockSlotLister{})

	rr := doRequest(t, router, "GET", "/slots?date=tomorrow", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSlotList_ServiceError(t *testing.T) {
	svc := &mockSlotLister{
		listFn: func(ctx context.Context, date time.Time) ([]service.AvailableSlot, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := setupSlotRouter(svc)

	rr := doRequest(t, router, "GET", "/slots?date=2026-09-02", nil)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
