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
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries.
type MenuStore interface {
	ListActiveMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListModifiersByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.Modifier, error)
	ListActiveSideDishes(ctx context.Context) ([]database.SideDish, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SoftDeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuHandler handles catalog endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterPublicRoutes registers the customer-facing menu endpoint.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/menu", h.GetMenu)
}

// RegisterAdminRoutes registers the staff CRUD endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/menu-items", h.Create)
	r.Put("/menu-items/{id}", h.Update)
	r.Delete("/menu-items/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemResponse struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	Category      *string            `json:"category"`
	PriceHuf      int64              `json:"price_huf"`
	IsActive      bool               `json:"is_active"`
	SidesRequired bool               `json:"sides_required"`
	SidesMin      int32              `json:"sides_min"`
	SidesMax      int32              `json:"sides_max"`
	Modifiers     []modifierResponse `json:"modifiers,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

type modifierResponse struct {
	ID            uuid.UUID `json:"id"`
	Label         string    `json:"label"`
	PriceDeltaHuf int64     `json:"price_delta_huf"`
}

type sideDishResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	PriceHuf int64     `json:"price_huf"`
}

type menuResponse struct {
	Items []menuItemResponse `json:"items"`
	Sides []sideDishResponse `json:"sides"`
}

type upsertMenuItemRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	PriceHuf      int64  `json:"price_huf"`
	IsActive      *bool  `json:"is_active"`
	SidesRequired bool   `json:"sides_required"`
	SidesMin      int32  `json:"sides_min"`
	SidesMax      int32  `json:"sides_max"`
}

func (req *upsertMenuItemRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.PriceHuf < 0 {
		return "price_huf must be >= 0"
	}
	if req.SidesRequired && (req.SidesMin < 0 || req.SidesMax < req.SidesMin) {
		return "invalid sides_min/sides_max range"
	}
	return ""
}

// --- Handlers ---

// GetMenu handles GET /menu: active items with their modifiers, plus the
// active side dishes.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListActiveMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := menuResponse{Items: []menuItemResponse{}, Sides: []sideDishResponse{}}
	for _, item := range items {
		mods, err := h.store.ListModifiersByMenuItem(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list modifiers: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		mi := dbMenuItemToResponse(item)
		for _, m := range mods {
			mi.Modifiers = append(mi.Modifiers, modifierResponse{
				ID:            m.ID,
				Label:         m.Label,
				PriceDeltaHuf: m.PriceDeltaHuf,
			})
		}
		resp.Items = append(resp.Items, mi)
	}

	sides, err := h.store.ListActiveSideDishes(r.Context())
	if err != nil {
		log.Printf("ERROR: list side dishes: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	for _, s := range sides {
		resp.Sides = append(resp.Sides, sideDishResponse{ID: s.ID, Name: s.Name, PriceHuf: s.PriceHuf})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /admin/menu-items.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:          req.Name,
		Category:      category,
		PriceHuf:      req.PriceHuf,
		SidesRequired: req.SidesRequired,
		SidesMin:      req.SidesMin,
		SidesMax:      req.SidesMax,
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, dbMenuItemToResponse(item))
}

// Update handles PUT /admin/menu-items/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	var req upsertMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:            id,
		Name:          req.Name,
		Category:      category,
		PriceHuf:      req.PriceHuf,
		IsActive:      isActive,
		SidesRequired: req.SidesRequired,
		SidesMin:      req.SidesMin,
		SidesMax:      req.SidesMax,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dbMenuItemToResponse(item))
}

// Delete handles DELETE /admin/menu-items/{id}. Soft delete; order item
// snapshots keep the name and price regardless.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	if _, err := h.store.SoftDeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func dbMenuItemToResponse(item database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:            item.ID,
		Name:          item.Name,
		PriceHuf:      item.PriceHuf,
		IsActive:      item.IsActive,
		SidesRequired: item.SidesRequired,
		SidesMin:      item.SidesMin,
		SidesMax:      item.SidesMax,
		CreatedAt:     item.CreatedAt,
	}
	if item.Category.Valid {
		resp.Category = &item.Category.String
	}
	return resp
}
