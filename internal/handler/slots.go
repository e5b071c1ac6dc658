package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/service"
)

// SlotLister defines the service methods needed by the slot endpoint.
// Satisfied by *service.Capacity.
type SlotLister interface {
	ListAvailable(ctx context.Context, date time.Time) ([]service.AvailableSlot, error)
}

// SlotHandler serves the customer-facing pickup slot list.
type SlotHandler struct {
	svc SlotLister
}

// NewSlotHandler creates a new SlotHandler.
func NewSlotHandler(svc SlotLister) *SlotHandler {
	return &SlotHandler{svc: svc}
}

// RegisterRoutes registers the slot endpoint.
func (h *SlotHandler) RegisterRoutes(r chi.Router) {
	r.Get("/slots", h.List)
}

type slotListResponse struct {
	Date  string                  `json:"date"`
	Slots []service.AvailableSlot `json:"slots"`
}

// List handles GET /slots?date=YYYY-MM-DD.
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	slots, err := h.svc.ListAvailable(r.Context(), date)
	if err != nil {
		log.Printf("ERROR: list slots: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if slots == nil {
		slots = []service.AvailableSlot{}
	}

	writeJSON(w, http.StatusOK, slotListResponse{Date: dateStr, Slots: slots})
}
