package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/mailer"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/ordercode"
)

const maxOrderCodeRetries = 3

// postCommitTimeout bounds the detached goroutine that runs loyalty accrual
// and the confirmation email after the order is committed.
const postCommitTimeout = 15 * time.Second

// Errors returned by order submission validation.
var (
	ErrMissingCustomerInfo  = errors.New("customer name, phone and email are required")
	ErrInvalidCustomerEmail = errors.New("invalid customer email")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidPickupDate    = errors.New("invalid pickup_date")
	ErrInvalidPickupTime    = errors.New("invalid pickup_time")
	ErrMultipleDailyDates   = errors.New("daily items in one order must share a single date")
	ErrDailyDateMismatch    = errors.New("daily item date does not match the pickup date")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to persist orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemOption(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// SubmitOrderRequest is the validated input for submitting an order.
type SubmitOrderRequest struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Notes         string
	PaymentMethod string
	PickupDate    string // 2006-01-02
	PickupSlot    string // HH:MM
	PickupTime    string // RFC 3339, older clients send this instead of date+slot
	CouponCode    string
	Items         []CartItem
}

// SubmitOrderResult is the committed order with its lines.
type SubmitOrderResult struct {
	Order database.Order
	Items []SubmittedItem
}

// SubmittedItem is a persisted line with its option snapshots.
type SubmittedItem struct {
	Item    database.OrderItem
	Options []database.OrderItemOption
}

// OrdersDeps collects the collaborators of the order pipeline.
type OrdersDeps struct {
	Pool      TxBeginner
	NewStore  NewOrderStore
	Pricer    *Pricer
	Inventory *Inventory
	Capacity  *Capacity
	Coupons   *Coupons
	Loyalty   *Loyalty
	Mailer    mailer.Mailer
	Announce  func(SubmitOrderResult)
}

// Orders runs the submission pipeline: validate, re-price, reserve
// counters, persist, then kick off best-effort side effects. The counter
// reservations are independent conditional updates; a failure after one
// succeeded does not release it (accepted, see schema constraints for the
// hard bounds).
type Orders struct {
	pool      TxBeginner
	newStore  NewOrderStore
	pricer    *Pricer
	inventory *Inventory
	capacity  *Capacity
	coupons   *Coupons
	loyalty   *Loyalty
	mail      mailer.Mailer
	announce  func(SubmitOrderResult)
	newCode   func() string
	now       func() time.Time
}

// NewOrders creates the order pipeline service.
func NewOrders(deps OrdersDeps) *Orders {
	announce := deps.Announce
	if announce == nil {
		announce = func(SubmitOrderResult) {}
	}
	m := deps.Mailer
	if m == nil {
		m = mailer.Nop{}
	}
	return &Orders{
		pool:      deps.Pool,
		newStore:  deps.NewStore,
		pricer:    deps.Pricer,
		inventory: deps.Inventory,
		capacity:  deps.Capacity,
		coupons:   deps.Coupons,
		loyalty:   deps.Loyalty,
		mail:      m,
		announce:  announce,
		newCode:   ordercode.New,
		now:       time.Now,
	}
}

// Submit runs the whole pipeline for one customer order.
func (s *Orders) Submit(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerPhone) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, ErrMissingCustomerInfo
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return nil, ErrInvalidCustomerEmail
	}

	switch req.PaymentMethod {
	case enum.PaymentMethodCash, enum.PaymentMethodCard:
	default:
		return nil, ErrInvalidPaymentMethod
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	pk, err := s.resolvePickup(req)
	if err != nil {
		return nil, err
	}

	// Daily lines must agree on one date, and that date must be the pickup
	// date. Checked before any counter is touched.
	if err := checkDailyDates(req.Items, pk.at.Format("2006-01-02")); err != nil {
		return nil, err
	}

	// Re-price regular lines from the catalog. Read-only, so it runs before
	// any reservation.
	lines := make([]PricedLine, 0, len(req.Items))
	var dailyLines []CartItem
	for i, item := range req.Items {
		if item.IsDaily() {
			dailyLines = append(dailyLines, item)
			continue
		}
		line, err := s.pricer.PriceRegularItem(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		lines = append(lines, line)
	}

	// Reserve daily portions. Each line consumes its quantity atomically;
	// the returned row provides the authoritative price snapshot.
	for _, item := range dailyLines {
		row, err := s.inventory.Reserve(ctx, item.DailyKind, item.DailyID, item.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, PricedLine{
			NameSnapshot: row.Name,
			UnitPriceHuf: row.PriceHuf,
			Quantity:     item.Quantity,
			LineTotalHuf: row.PriceHuf * int64(item.Quantity),
			DailyKind:    item.DailyKind,
			DailyID:      row.ID,
			DailyDate:    row.Date.Time,
		})
	}

	var gross int64
	for _, line := range lines {
		gross += line.LineTotalHuf
	}

	var discount int64
	couponCode := strings.TrimSpace(req.CouponCode)
	if couponCode != "" {
		discount, err = s.coupons.Redeem(ctx, couponCode, gross)
		if err != nil {
			return nil, err
		}
	}
	total := gross - discount

	// Timestamp-only pickups book no capacity slot; only the date+slot
	// shape participates in slot accounting.
	if pk.hasSlot {
		if err := s.capacity.Reserve(ctx, pk.date, pk.slot); err != nil {
			return nil, err
		}
	}

	result, err := s.persist(ctx, req, pk, lines, total, discount, couponCode)
	if err != nil {
		return nil, err
	}

	s.afterCommit(*result)
	return result, nil
}

// pickup is the resolved pickup request. Legacy timestamp-only orders have
// hasSlot false and skip capacity reservation.
type pickup struct {
	at      time.Time
	date    time.Time
	slot    string
	hasSlot bool
}

// resolvePickup normalizes the two accepted pickup shapes. date+slot is
// the primary one; a bare RFC 3339 timestamp is still accepted from older
// clients and only has to land inside business hours.
func (s *Orders) resolvePickup(req SubmitOrderRequest) (pickup, error) {
	if req.PickupDate != "" || req.PickupSlot != "" {
		date, err := time.Parse("2006-01-02", req.PickupDate)
		if err != nil {
			return pickup{}, ErrInvalidPickupDate
		}
		slot, err := canonicalSlot(req.PickupSlot)
		if err != nil {
			return pickup{}, ErrInvalidSlot
		}
		m, _ := parseSlot(slot)
		return pickup{
			at:      date.Add(time.Duration(m) * time.Minute),
			date:    date,
			slot:    slot,
			hasSlot: true,
		}, nil
	}

	if req.PickupTime == "" {
		return pickup{}, ErrInvalidPickupDate
	}
	at, err := time.Parse(time.RFC3339, req.PickupTime)
	if err != nil {
		return pickup{}, ErrInvalidPickupTime
	}
	if at.Before(s.now()) {
		return pickup{}, ErrPickupDateInPast
	}
	if !WithinBusinessHours(at, at.Format("15:04")) {
		return pickup{}, fmt.Errorf("%w: %s", ErrOutsideBusinessHours, at.Format(time.RFC3339))
	}
	return pickup{at: at}, nil
}

// persist writes the order header, items and option snapshots in one
// transaction, retrying with a fresh code when the generated code collides.
func (s *Orders) persist(ctx context.Context, req SubmitOrderRequest, pk pickup,
	lines []PricedLine, total, discount int64, couponCode string) (*SubmitOrderResult, error) {

	var lastErr error
	for attempt := 0; attempt < maxOrderCodeRetries; attempt++ {
		result, err := s.persistTx(ctx, req, pk, lines, total, discount, couponCode)
		if err == nil {
			return result, nil
		}
		if isOrderCodeConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func isOrderCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_code_key"
	}
	return false
}

func (s *Orders) persistTx(ctx context.Context, req SubmitOrderRequest, pk pickup,
	lines []PricedLine, total, discount int64, couponCode string) (*SubmitOrderResult, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	pickupDate := pgtype.Date{}
	pickupSlot := pgtype.Text{}
	if pk.hasSlot {
		pickupDate = pgtype.Date{Time: pk.date, Valid: true}
		pickupSlot = pgtype.Text{String: pk.slot, Valid: true}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	coupon := pgtype.Text{}
	if couponCode != "" {
		coupon = pgtype.Text{String: couponCode, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		Code:          s.newCode(),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Notes:         notes,
		PaymentMethod: req.PaymentMethod,
		PickupAt:      pgtype.Timestamptz{Time: pk.at, Valid: true},
		PickupDate:    pickupDate,
		PickupSlot:    pickupSlot,
		Status:        enum.OrderStatusNew,
		TotalHuf:      total,
		DiscountHuf:   discount,
		CouponCode:    coupon,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []SubmittedItem
	for _, line := range lines {
		params := database.CreateOrderItemParams{
			OrderID:      order.ID,
			NameSnapshot: line.NameSnapshot,
			UnitPriceHuf: line.UnitPriceHuf,
			Quantity:     line.Quantity,
			LineTotalHuf: line.LineTotalHuf,
		}
		if line.MenuItemID != uuid.Nil {
			params.MenuItemID = pgtype.UUID{Bytes: line.MenuItemID, Valid: true}
		}
		if line.DailyKind != "" {
			params.DailyKind = pgtype.Text{String: line.DailyKind, Valid: true}
			params.DailyID = pgtype.UUID{Bytes: line.DailyID, Valid: true}
			params.DailyDate = pgtype.Date{Time: line.DailyDate, Valid: true}
		}

		item, err := store.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}

		var opts []database.OrderItemOption
		for _, opt := range line.Options {
			o, err := store.CreateOrderItemOption(ctx, database.CreateOrderItemOptionParams{
				OrderItemID:   item.ID,
				Kind:          opt.Kind,
				Label:         opt.Label,
				PriceDeltaHuf: opt.PriceDeltaHuf,
			})
			if err != nil {
				return nil, fmt.Errorf("create order item option: %w", err)
			}
			opts = append(opts, o)
		}
		items = append(items, SubmittedItem{Item: item, Options: opts})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &SubmitOrderResult{Order: order, Items: items}, nil
}

// afterCommit runs loyalty accrual, the confirmation email and the live
// feed announcement in a detached goroutine. The order is already durable;
// failures here are logged and swallowed.
func (s *Orders) afterCommit(result SubmitOrderResult) {
	s.announce(result)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), postCommitTimeout)
		defer cancel()

		o := result.Order
		if s.loyalty != nil {
			if _, err := s.loyalty.Accrue(ctx, o.CustomerPhone, o.TotalHuf); err != nil {
				log.Printf("order %s: loyalty accrual failed: %v", o.Code, err)
			}
		}

		pickupDate := o.PickupAt.Time.Format("2006-01-02")
		pickupSlot := o.PickupAt.Time.Format("15:04")
		if o.PickupDate.Valid {
			pickupDate = o.PickupDate.Time.Format("2006-01-02")
			pickupSlot = o.PickupSlot.String
		}

		conf := mailer.OrderConfirmation{
			Code:          o.Code,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			PickupDate:    pickupDate,
			PickupSlot:    pickupSlot,
			TotalHuf:      o.TotalHuf,
			DiscountHuf:   o.DiscountHuf,
		}
		for _, it := range result.Items {
			conf.Lines = append(conf.Lines, mailer.ConfirmationLine{
				Name:     it.Item.NameSnapshot,
				Quantity: it.Item.Quantity,
				TotalHuf: it.Item.LineTotalHuf,
			})
		}
		if err := s.mail.SendOrderConfirmation(ctx, conf); err != nil {
			log.Printf("order %s: confirmation email failed: %v", o.Code, err)
		}
	}()
}

// checkDailyDates enforces the single-daily-date rule against the pickup
// date.
func checkDailyDates(items []CartItem, pickupDate string) error {
	seen := ""
	for _, item := range items {
		if !item.IsDaily() {
			continue
		}
		if item.DailyDate == "" {
			return ErrDailyDateMismatch
		}
		if seen == "" {
			seen = item.DailyDate
		} else if item.DailyDate != seen {
			return ErrMultipleDailyDates
		}
	}
	if seen != "" && seen != pickupDate {
		return ErrDailyDateMismatch
	}
	return nil
}

// Valid staff transitions of an order's status.
var statusTransitions = map[string][]string{
	enum.OrderStatusNew:       {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted},
}

// CanTransitionStatus reports whether a staff client may move an order from
// one status to another.
func CanTransitionStatus(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
