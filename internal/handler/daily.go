package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
)

// DailyItemStore defines the database methods needed by daily item
// handlers. Satisfied by *database.Queries.
type DailyItemStore interface {
	ListDailyItemsByDate(ctx context.Context, date pgtype.Date) ([]database.DailyItem, error)
	CreateDailyItem(ctx context.Context, arg database.CreateDailyItemParams) (database.DailyItem, error)
	ResetDailyPortions(ctx context.Context, arg database.ResetDailyPortionsParams) (database.DailyItem, error)
	DeleteDailyItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// DailyHandler handles daily offer/menu endpoints.
type DailyHandler struct {
	store DailyItemStore
}

// NewDailyHandler creates a new DailyHandler.
func NewDailyHandler(store DailyItemStore) *DailyHandler {
	return &DailyHandler{store: store}
}

// RegisterPublicRoutes registers the customer-facing daily listing.
func (h *DailyHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/daily", h.List)
}

// RegisterAdminRoutes registers the staff CRUD endpoints.
func (h *DailyHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/daily-items", h.Create)
	r.Patch("/daily-items/{id}/portions", h.ResetPortions)
	r.Delete("/daily-items/{id}", h.Delete)
}

// --- Request / Response types ---

type dailyItemResponse struct {
	ID                uuid.UUID `json:"id"`
	Kind              string    `json:"kind"`
	Date              string    `json:"date"`
	Name              string    `json:"name"`
	PriceHuf          int64     `json:"price_huf"`
	MaxPortions       int32     `json:"max_portions"`
	RemainingPortions int32     `json:"remaining_portions"`
}

type createDailyItemRequest struct {
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	PriceHuf    int64  `json:"price_huf"`
	MaxPortions int32  `json:"max_portions"`
}

type resetPortionsRequest struct {
	MaxPortions int32 `json:"max_portions"`
}

// --- Handlers ---

// List handles GET /daily?date=YYYY-MM-DD. Defaults to today.
func (h *DailyHandler) List(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
			return
		}
		date = t
	}

	items, err := h.store.ListDailyItemsByDate(r.Context(), pgtype.Date{Time: date, Valid: true})
	if err != nil {
		log.Printf("ERROR: list daily items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]dailyItemResponse, len(items))
	for i, item := range items {
		resp[i] = dbDailyItemToResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /admin/daily-items. remaining_portions starts at
// max_portions.
func (h *DailyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDailyItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Kind {
	case enum.DailyKindOffer, enum.DailyKindMenu, enum.DailyKindCompleteMenu:
	default:
		writeError(w, http.StatusBadRequest, "invalid kind")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.PriceHuf < 0 {
		writeError(w, http.StatusBadRequest, "price_huf must be >= 0")
		return
	}
	if req.MaxPortions <= 0 {
		writeError(w, http.StatusBadRequest, "max_portions must be > 0")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	item, err := h.store.CreateDailyItem(r.Context(), database.CreateDailyItemParams{
		Kind:        req.Kind,
		Date:        pgtype.Date{Time: date, Valid: true},
		Name:        req.Name,
		PriceHuf:    req.PriceHuf,
		MaxPortions: req.MaxPortions,
	})
	if err != nil {
		log.Printf("ERROR: create daily item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, dbDailyItemToResponse(item))
}

// ResetPortions handles PATCH /admin/daily-items/{id}/portions. Rewrites
// both counters; any in-flight reservations against the old count stand.
func (h *DailyHandler) ResetPortions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid daily item ID")
		return
	}

	var req resetPortionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaxPortions <= 0 {
		writeError(w, http.StatusBadRequest, "max_portions must be > 0")
		return
	}

	item, err := h.store.ResetDailyPortions(r.Context(), database.ResetDailyPortionsParams{
		ID:          id,
		MaxPortions: req.MaxPortions,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "daily item not found")
			return
		}
		log.Printf("ERROR: reset daily portions: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dbDailyItemToResponse(item))
}

// Delete handles DELETE /admin/daily-items/{id}.
func (h *DailyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid daily item ID")
		return
	}

	if _, err := h.store.DeleteDailyItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "daily item not found")
			return
		}
		log.Printf("ERROR: delete daily item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func dbDailyItemToResponse(item database.DailyItem) dailyItemResponse {
	return dailyItemResponse{
		ID:                item.ID,
		Kind:              item.Kind,
		Date:              item.Date.Time.Format("2006-01-02"),
		Name:              item.Name,
		PriceHuf:          item.PriceHuf,
		MaxPortions:       item.MaxPortions,
		RemainingPortions: item.RemainingPortions,
	}
}
