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

// CouponAdminStore defines the database methods needed by coupon admin
// handlers. Satisfied by *database.Queries.
type CouponAdminStore interface {
	ListCoupons(ctx context.Context) ([]database.Coupon, error)
	CreateCoupon(ctx context.Context, arg database.CreateCouponParams) (database.Coupon, error)
	DeactivateCoupon(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// CouponHandler handles staff coupon management.
type CouponHandler struct {
	store CouponAdminStore
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(store CouponAdminStore) *CouponHandler {
	return &CouponHandler{store: store}
}

// RegisterAdminRoutes registers the coupon endpoints; mounted behind auth.
func (h *CouponHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/coupons", h.List)
	r.Post("/coupons", h.Create)
	r.Delete("/coupons/{id}", h.Deactivate)
}

// --- Request / Response types ---

type couponResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       int64      `json:"value"`
	MinOrderHuf int64      `json:"min_order_huf"`
	MaxUses     *int32     `json:"max_uses"`
	UsedCount   int32      `json:"used_count"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
	IsActive    bool       `json:"is_active"`
}

type createCouponRequest struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	MinOrderHuf int64  `json:"min_order_huf"`
	MaxUses     *int32 `json:"max_uses"`
	ValidFrom   string `json:"valid_from"`
	ValidUntil  string `json:"valid_until"`
}

// --- Handlers ---

// List handles GET /admin/coupons.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.store.ListCoupons(r.Context())
	if err != nil {
		log.Printf("ERROR: list coupons: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = dbCouponToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /admin/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	switch req.Type {
	case enum.CouponTypePercentage:
		if req.Value <= 0 || req.Value > 100 {
			writeError(w, http.StatusBadRequest, "percentage value must be in 1-100")
			return
		}
	case enum.CouponTypeFixed:
		if req.Value <= 0 {
			writeError(w, http.StatusBadRequest, "fixed value must be > 0")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		writeError(w, http.StatusBadRequest, "max_uses must be > 0")
		return
	}

	params := database.CreateCouponParams{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		MinOrderHuf: req.MinOrderHuf,
	}
	if req.MaxUses != nil {
		params.MaxUses = pgtype.Int4{Int32: *req.MaxUses, Valid: true}
	}
	if req.ValidFrom != "" {
		t, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid valid_from, use RFC3339")
			return
		}
		params.ValidFrom = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if req.ValidUntil != "" {
		t, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid valid_until, use RFC3339")
			return
		}
		params.ValidUntil = pgtype.Timestamptz{Time: t, Valid: true}
	}

	coupon, err := h.store.CreateCoupon(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create coupon: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, dbCouponToResponse(coupon))
}

// Deactivate handles DELETE /admin/coupons/{id}. Coupons are never hard
// deleted; committed orders reference them by code.
func (h *CouponHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coupon ID")
		return
	}

	if _, err := h.store.DeactivateCoupon(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		log.Printf("ERROR: deactivate coupon: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func dbCouponToResponse(c database.Coupon) couponResponse {
	resp := couponResponse{
		ID:          c.ID,
		Code:        c.Code,
		Type:        c.Type,
		Value:       c.Value,
		MinOrderHuf: c.MinOrderHuf,
		UsedCount:   c.UsedCount,
		IsActive:    c.IsActive,
	}
	if c.MaxUses.Valid {
		resp.MaxUses = &c.MaxUses.Int32
	}
	if c.ValidFrom.Valid {
		resp.ValidFrom = &c.ValidFrom.Time
	}
	if c.ValidUntil.Valid {
		resp.ValidUntil = &c.ValidUntil.Time
	}
	return resp
}
