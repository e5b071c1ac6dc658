package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/service"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/ws"
)

// OrderSubmitter defines the service methods needed by the public order
// endpoint. Satisfied by *service.Orders; narrow interface for testability.
type OrderSubmitter interface {
	Submit(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update
// handlers. Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderByCode(ctx context.Context, code string) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemOptionsByItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemOption, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// Broadcaster pushes events to the staff live feed.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderSubmitter
	store OrderStore
	feed  Broadcaster
}

// NewOrderHandler creates a new OrderHandler. feed may be nil in tests.
func NewOrderHandler(svc OrderSubmitter, store OrderStore, feed Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, feed: feed}
}

// RegisterPublicRoutes registers the customer-facing endpoints.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/orders", h.Submit)
	r.Get("/orders/{code}", h.GetByCode)
}

// RegisterAdminRoutes registers the staff endpoints; mounted behind auth.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type submitOrderRequest struct {
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	CustomerEmail string              `json:"customer_email"`
	Notes         string              `json:"notes"`
	PaymentMethod string              `json:"payment_method"`
	PickupDate    string              `json:"pickup_date"`
	PickupSlot    string              `json:"pickup_slot"`
	PickupTime    string              `json:"pickup_time"`
	CouponCode    string              `json:"coupon_code"`
	Items         []submitItemRequest `json:"items"`
}

type submitItemRequest struct {
	ItemID       string                  `json:"item_id"`
	Name         string                  `json:"name"`
	Quantity     int32                   `json:"quantity"`
	UnitPriceHuf int64                   `json:"unit_price_huf"`
	DailyKind    string                  `json:"daily_kind"`
	DailyID      string                  `json:"daily_id"`
	DailyDate    string                  `json:"daily_date"`
	Modifiers    []submitModifierRequest `json:"modifiers"`
	Sides        []submitSideRequest     `json:"sides"`
}

type submitModifierRequest struct {
	Label         string `json:"label"`
	PriceDeltaHuf int64  `json:"price_delta_huf"`
}

type submitSideRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PriceHuf int64  `json:"price_huf"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Code          string              `json:"code"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	CustomerEmail string              `json:"customer_email"`
	Notes         *string             `json:"notes"`
	PaymentMethod string              `json:"payment_method"`
	PickupDate    string              `json:"pickup_date"`
	PickupSlot    string              `json:"pickup_slot"`
	Status        string              `json:"status"`
	TotalHuf      int64               `json:"total_huf"`
	DiscountHuf   int64               `json:"discount_huf"`
	CouponCode    *string             `json:"coupon_code"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	UnitPriceHuf int64                 `json:"unit_price_huf"`
	Quantity     int32                 `json:"quantity"`
	LineTotalHuf int64                 `json:"line_total_huf"`
	DailyKind    *string               `json:"daily_kind,omitempty"`
	Options      []orderOptionResponse `json:"options,omitempty"`
}

type orderOptionResponse struct {
	Kind          string `json:"kind"`
	Label         string `json:"label"`
	PriceDeltaHuf int64  `json:"price_delta_huf"`
}

// orderStatusResponse is the minimal customer-facing status lookup payload.
type orderStatusResponse struct {
	Code       string `json:"code"`
	Status     string `json:"status"`
	PickupDate string `json:"pickup_date"`
	PickupSlot string `json:"pickup_slot"`
	TotalHuf   int64  `json:"total_huf"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Submit handles POST /orders. This is the public entry of the whole
// pipeline; no auth.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.CartItem, len(req.Items))
	for i, item := range req.Items {
		mods := make([]service.CartModifier, len(item.Modifiers))
		for j, mod := range item.Modifiers {
			mods[j] = service.CartModifier{Label: mod.Label, PriceDeltaHuf: mod.PriceDeltaHuf}
		}
		sides := make([]service.CartSide, len(item.Sides))
		for j, side := range item.Sides {
			sides[j] = service.CartSide{ID: side.ID, Name: side.Name, PriceHuf: side.PriceHuf}
		}
		items[i] = service.CartItem{
			ItemID:       item.ItemID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPriceHuf: item.UnitPriceHuf,
			DailyKind:    item.DailyKind,
			DailyID:      item.DailyID,
			DailyDate:    item.DailyDate,
			Modifiers:    mods,
			Sides:        sides,
		}
	}

	result, err := h.svc.Submit(r.Context(), service.SubmitOrderRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		PickupDate:    req.PickupDate,
		PickupSlot:    req.PickupSlot,
		PickupTime:    req.PickupTime,
		CouponCode:    req.CouponCode,
		Items:         items,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// OrderCreatedAnnouncer adapts the staff live feed for the submission
// pipeline's announce hook. The hook fires once per committed order, so
// this is the only source of order.created events.
func OrderCreatedAnnouncer(feed Broadcaster) func(service.SubmitOrderResult) {
	return func(result service.SubmitOrderResult) {
		payload, err := json.Marshal(toOrderResponse(result.Order, result.Items))
		if err != nil {
			log.Printf("ERROR: marshal order.created event: %v", err)
			return
		}
		feed.Broadcast(ws.Event{Type: "order.created", Payload: payload})
	}
}

// writeSubmitError maps pipeline errors onto HTTP statuses: counter
// conflicts are 409, unknown references 404, bad input 400, the rest 500.
func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case isConflictError(err):
		writeError(w, http.StatusConflict, err.Error())
	case isNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("ERROR: submit order: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isConflictError(err error) bool {
	return errors.Is(err, service.ErrInsufficientPortions) ||
		errors.Is(err, service.ErrSlotFull) ||
		errors.Is(err, service.ErrCouponExhausted)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, service.ErrItemNotFound) ||
		errors.Is(err, service.ErrDailyItemNotFound) ||
		errors.Is(err, service.ErrCouponNotFound)
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrMissingCustomerInfo) ||
		errors.Is(err, service.ErrInvalidCustomerEmail) ||
		errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidPickupDate) ||
		errors.Is(err, service.ErrInvalidPickupTime) ||
		errors.Is(err, service.ErrMultipleDailyDates) ||
		errors.Is(err, service.ErrDailyDateMismatch) ||
		errors.Is(err, service.ErrInvalidItemID) ||
		errors.Is(err, service.ErrItemInactive) ||
		errors.Is(err, service.ErrSideSelectionInvalid) ||
		errors.Is(err, service.ErrInvalidDailyKind) ||
		errors.Is(err, service.ErrInvalidDailyID) ||
		errors.Is(err, service.ErrItemExpired) ||
		errors.Is(err, service.ErrInvalidSlot) ||
		errors.Is(err, service.ErrOutsideBusinessHours) ||
		errors.Is(err, service.ErrPickupDateInPast) ||
		errors.Is(err, service.ErrCouponNotYetValid) ||
		errors.Is(err, service.ErrCouponExpired) ||
		errors.Is(err, service.ErrMinimumOrderNotMet)
}

// GetByCode handles GET /orders/{code}. Public status lookup; exposes only
// what the customer already knows plus the status.
func (h *OrderHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	order, err := h.store.GetOrderByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("ERROR: get order by code: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	pickupDate, pickupSlot := pickupFields(order)
	writeJSON(w, http.StatusOK, orderStatusResponse{
		Code:       order.Code,
		Status:     order.Status,
		PickupDate: pickupDate,
		PickupSlot: pickupSlot,
		TotalHuf:   order.TotalHuf,
	})
}

// List handles GET /admin/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date format, use YYYY-MM-DD")
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date format, use YYYY-MM-DD")
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /admin/orders/{id} with items and option snapshots.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := dbOrderToResponse(order)
	for _, item := range items {
		opts, err := h.store.ListOrderItemOptionsByItem(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list order item options: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp.Items = append(resp.Items, dbItemToResponse(item, opts))
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /admin/orders/{id}/status. The write is a
// compare-and-set against the status we just read; losing the race returns
// 409 so the client refetches.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !service.CanTransitionStatus(current.Status, req.Status) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("cannot transition from %s to %s", current.Status, req.Status))
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:         id,
		Status:     req.Status,
		FromStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "order status changed concurrently, refetch and retry")
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.broadcast("order.updated", dbOrderToResponse(order))
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

func (h *OrderHandler) broadcast(eventType string, payload interface{}) {
	if h.feed == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.feed.Broadcast(ws.Event{Type: eventType, Payload: data})
}

// --- Response builders ---

// pickupFields prefers the date+slot columns and derives them from the
// timestamp for orders submitted with the legacy pickup_time field.
func pickupFields(o database.Order) (string, string) {
	if o.PickupDate.Valid {
		return o.PickupDate.Time.Format("2006-01-02"), o.PickupSlot.String
	}
	if o.PickupAt.Valid {
		return o.PickupAt.Time.Format("2006-01-02"), o.PickupAt.Time.Format("15:04")
	}
	return "", ""
}

func dbOrderToResponse(o database.Order) orderResponse {
	pickupDate, pickupSlot := pickupFields(o)
	resp := orderResponse{
		ID:            o.ID,
		Code:          o.Code,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
		PaymentMethod: o.PaymentMethod,
		PickupDate:    pickupDate,
		PickupSlot:    pickupSlot,
		Status:        o.Status,
		TotalHuf:      o.TotalHuf,
		DiscountHuf:   o.DiscountHuf,
		CreatedAt:     o.CreatedAt,
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.CouponCode.Valid {
		resp.CouponCode = &o.CouponCode.String
	}
	return resp
}

func dbItemToResponse(item database.OrderItem, opts []database.OrderItemOption) orderItemResponse {
	resp := orderItemResponse{
		ID:           item.ID,
		Name:         item.NameSnapshot,
		UnitPriceHuf: item.UnitPriceHuf,
		Quantity:     item.Quantity,
		LineTotalHuf: item.LineTotalHuf,
	}
	if item.DailyKind.Valid {
		resp.DailyKind = &item.DailyKind.String
	}
	for _, o := range opts {
		resp.Options = append(resp.Options, orderOptionResponse{
			Kind:          o.Kind,
			Label:         o.Label,
			PriceDeltaHuf: o.PriceDeltaHuf,
		})
	}
	return resp
}

func toOrderResponse(o database.Order, items []service.SubmittedItem) orderResponse {
	resp := dbOrderToResponse(o)
	for _, it := range items {
		resp.Items = append(resp.Items, dbItemToResponse(it.Item, it.Options))
	}
	return resp
}
