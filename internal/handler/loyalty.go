package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
)

// LoyaltyReadStore defines the database methods needed by the loyalty
// lookup. Satisfied by *database.Queries.
type LoyaltyReadStore interface {
	GetLoyaltyAccount(ctx context.Context, phone string) (database.LoyaltyAccount, error)
}

// LoyaltyHandler serves staff loyalty lookups.
type LoyaltyHandler struct {
	store LoyaltyReadStore
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(store LoyaltyReadStore) *LoyaltyHandler {
	return &LoyaltyHandler{store: store}
}

// RegisterAdminRoutes registers the loyalty endpoint; mounted behind auth.
func (h *LoyaltyHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/loyalty/{phone}", h.Get)
}

type loyaltyResponse struct {
	Phone         string     `json:"phone"`
	OrderCount    int32      `json:"order_count"`
	TotalSpendHuf int64      `json:"total_spend_huf"`
	Tier          string     `json:"tier"`
	LastOrderAt   *time.Time `json:"last_order_at"`
}

// Get handles GET /admin/loyalty/{phone}.
func (h *LoyaltyHandler) Get(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	account, err := h.store.GetLoyaltyAccount(r.Context(), phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "loyalty account not found")
			return
		}
		log.Printf("ERROR: get loyalty account: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := loyaltyResponse{
		Phone:         account.Phone,
		OrderCount:    account.OrderCount,
		TotalSpendHuf: account.TotalSpendHuf,
		Tier:          account.Tier,
	}
	if account.LastOrderAt.Valid {
		resp.LastOrderAt = &account.LastOrderAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}
