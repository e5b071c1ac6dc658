package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/enum"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/ordercode"
)

// mockTx implements pgx.Tx with only the methods the pipeline touches.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
	rollbacks   int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rollbacks++
	return m.rollbackErr
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx     pgx.Tx
	err    error
	begins int
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins++
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior. The
// defaults echo the params back as persisted rows.
type mockOrderStore struct {
	createOrderFn     func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createItemFn      func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	createItemOptFn   func(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error)
	createOrderCalls  int
	createdItemParams []database.CreateOrderItemParams
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	m.createOrderCalls++
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, arg)
	}
	return orderFromParams(arg), nil
}

func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	m.createdItemParams = append(m.createdItemParams, arg)
	if m.createItemFn != nil {
		return m.createItemFn(ctx, arg)
	}
	return database.OrderItem{
		ID:           uuid.New(),
		OrderID:      arg.OrderID,
		MenuItemID:   arg.MenuItemID,
		NameSnapshot: arg.NameSnapshot,
		UnitPriceHuf: arg.UnitPriceHuf,
		Quantity:     arg.Quantity,
		LineTotalHuf: arg.LineTotalHuf,
		DailyKind:    arg.DailyKind,
		DailyID:      arg.DailyID,
		DailyDate:    arg.DailyDate,
	}, nil
}

func (m *mockOrderStore) CreateOrderItemOption(ctx context.Context, arg database.CreateOrderItemOptionParams) (database.OrderItemOption, error) {
	if m.createItemOptFn != nil {
		return m.createItemOptFn(ctx, arg)
	}
	return database.OrderItemOption{
		ID:            uuid.New(),
		OrderItemID:   arg.OrderItemID,
		Kind:          arg.Kind,
		Label:         arg.Label,
		PriceDeltaHuf: arg.PriceDeltaHuf,
	}, nil
}

func orderFromParams(arg database.CreateOrderParams) database.Order {
	return database.Order{
		ID:            uuid.New(),
		Code:          arg.Code,
		CustomerName:  arg.CustomerName,
		CustomerPhone: arg.CustomerPhone,
		CustomerEmail: arg.CustomerEmail,
		Notes:         arg.Notes,
		PaymentMethod: arg.PaymentMethod,
		PickupAt:      arg.PickupAt,
		PickupDate:    arg.PickupDate,
		PickupSlot:    arg.PickupSlot,
		Status:        arg.Status,
		TotalHuf:      arg.TotalHuf,
		DiscountHuf:   arg.DiscountHuf,
		CouponCode:    arg.CouponCode,
	}
}

// orderEnv wires the pipeline to mock stores, with the clock pinned so the
// fixture dates stay in the future.
type orderEnv struct {
	catalog   *mockCatalog
	daily     *mockDailyStore
	capacity  *mockCapacityStore
	coupons   *mockCouponStore
	store     *mockOrderStore
	tx        *mockTx
	beginner  *mockTxBeginner
	announced []SubmitOrderResult
	svc       *Orders
}

func newOrderEnv() *orderEnv {
	env := &orderEnv{
		catalog:  &mockCatalog{},
		daily:    &mockDailyStore{},
		capacity: &mockCapacityStore{},
		coupons:  &mockCouponStore{},
		store:    &mockOrderStore{},
		tx:       &mockTx{},
	}
	env.beginner = &mockTxBeginner{tx: env.tx}

	inv := NewInventory(env.daily)
	inv.now = fixedNow
	capSvc := NewCapacity(env.capacity, 8)
	capSvc.now = fixedNow
	cpn := NewCoupons(env.coupons)
	cpn.now = fixedNow

	env.svc = NewOrders(OrdersDeps{
		Pool:      env.beginner,
		NewStore:  func(db database.DBTX) OrderStore { return env.store },
		Pricer:    NewPricer(env.catalog),
		Inventory: inv,
		Capacity:  capSvc,
		Coupons:   cpn,
		Announce:  func(r SubmitOrderResult) { env.announced = append(env.announced, r) },
	})
	env.svc.now = fixedNow
	return env
}

// validRequest builds a request for a Wednesday pickup with one regular
// line; fixedNow is the Tuesday before.
func validRequest() SubmitOrderRequest {
	return SubmitOrderRequest{
		CustomerName:  "Kiss Anna",
		CustomerPhone: "+36301234567",
		CustomerEmail: "anna@example.com",
		PaymentMethod: enum.PaymentMethodCash,
		PickupDate:    "2026-09-02",
		PickupSlot:    "11:30",
		Items: []CartItem{
			{ItemID: uuid.NewString(), Name: "Rántott csirkecomb", Quantity: 2, UnitPriceHuf: 1},
		},
	}
}

func TestSubmitHappyPath(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Rántott csirkecomb", 1890), nil
	}

	dailyID := uuid.New()
	env.daily.getDailyItemFn = func(ctx context.Context, id uuid.UUID, kind string) (database.DailyItem, error) {
		return database.DailyItem{
			ID:       id,
			Kind:     kind,
			Name:     "Gulyásleves",
			PriceHuf: 1690,
			Date:     pgtype.Date{Time: date(2026, time.September, 2), Valid: true},
		}, nil
	}
	env.daily.decrementFn = func(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
		return 1, nil
	}

	req := validRequest()
	req.Items = append(req.Items, CartItem{
		DailyKind: enum.DailyKindOffer,
		DailyID:   dailyID.String(),
		DailyDate: "2026-09-02",
		Quantity:  1,
	})

	result, err := env.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 x 1890 catalog price plus one daily portion; the client's claimed
	// unit price of 1 never shows up.
	if result.Order.TotalHuf != 2*1890+1690 {
		t.Errorf("TotalHuf = %d, want %d", result.Order.TotalHuf, 2*1890+1690)
	}
	if result.Order.Status != enum.OrderStatusNew {
		t.Errorf("Status = %q, want %q", result.Order.Status, enum.OrderStatusNew)
	}
	if !strings.HasPrefix(result.Order.Code, ordercode.Prefix) {
		t.Errorf("Code = %q, want %q prefix", result.Order.Code, ordercode.Prefix)
	}
	if len(result.Items) != 2 {
		t.Fatalf("persisted %d items, want 2", len(result.Items))
	}
	if env.tx.commits != 1 {
		t.Errorf("commits = %d, want 1", env.tx.commits)
	}

	daily := env.store.createdItemParams[1]
	if daily.UnitPriceHuf != 1690 || !daily.DailyKind.Valid {
		t.Errorf("daily line = %+v, want price 1690 with daily fields set", daily)
	}

	if len(env.announced) != 1 || env.announced[0].Order.Code != result.Order.Code {
		t.Errorf("announced = %+v, want the committed order", env.announced)
	}
}

func TestSubmitValidation(t *testing.T) {
	itemID := uuid.NewString()

	tests := []struct {
		name    string
		mutate  func(r *SubmitOrderRequest)
		wantErr error
	}{
		{"missing name", func(r *SubmitOrderRequest) { r.CustomerName = "  " }, ErrMissingCustomerInfo},
		{"missing phone", func(r *SubmitOrderRequest) { r.CustomerPhone = "" }, ErrMissingCustomerInfo},
		{"bad email", func(r *SubmitOrderRequest) { r.CustomerEmail = "not-an-email" }, ErrInvalidCustomerEmail},
		{"bad payment method", func(r *SubmitOrderRequest) { r.PaymentMethod = "bitcoin" }, ErrInvalidPaymentMethod},
		{"empty cart", func(r *SubmitOrderRequest) { r.Items = nil }, ErrEmptyCart},
		{"zero quantity", func(r *SubmitOrderRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"bad pickup date", func(r *SubmitOrderRequest) { r.PickupDate = "02-09-2026" }, ErrInvalidPickupDate},
		{"bad slot", func(r *SubmitOrderRequest) { r.PickupSlot = "noonish" }, ErrInvalidSlot},
		{
			"daily dates disagree",
			func(r *SubmitOrderRequest) {
				r.Items = append(r.Items,
					CartItem{DailyKind: enum.DailyKindOffer, DailyID: itemID, DailyDate: "2026-09-02", Quantity: 1},
					CartItem{DailyKind: enum.DailyKindMenu, DailyID: itemID, DailyDate: "2026-09-03", Quantity: 1},
				)
			},
			ErrMultipleDailyDates,
		},
		{
			"daily date not the pickup date",
			func(r *SubmitOrderRequest) {
				r.Items = append(r.Items,
					CartItem{DailyKind: enum.DailyKindOffer, DailyID: itemID, DailyDate: "2026-09-03", Quantity: 1})
			},
			ErrDailyDateMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newOrderEnv()
			req := validRequest()
			tt.mutate(&req)

			_, err := env.svc.Submit(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}
			if env.beginner.begins != 0 {
				t.Error("transaction began for a request that failed validation")
			}
		})
	}
}

func TestSubmitLegacyPickupTimestamp(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Húsleves", 890), nil
	}
	env.capacity.ensureFn = func(ctx context.Context, arg database.EnsureCapacitySlotParams) error {
		t.Fatal("capacity slot created for a timestamp-only pickup")
		return nil
	}

	req := validRequest()
	req.PickupDate, req.PickupSlot = "", ""
	req.PickupTime = "2026-09-02T11:45:00Z"

	result, err := env.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := result.Order
	want := time.Date(2026, time.September, 2, 11, 45, 0, 0, time.UTC)
	if !o.PickupAt.Valid || !o.PickupAt.Time.Equal(want) {
		t.Errorf("PickupAt = %+v, want %v", o.PickupAt, want)
	}
	if o.PickupDate.Valid || o.PickupSlot.Valid {
		t.Errorf("timestamp-only pickup must leave the slot columns empty, got date=%+v slot=%+v",
			o.PickupDate, o.PickupSlot)
	}
	if env.tx.commits != 1 {
		t.Errorf("commits = %d, want 1", env.tx.commits)
	}
}

func TestSubmitLegacyPickupTimestampValidation(t *testing.T) {
	tests := []struct {
		name    string
		ts      string
		wantErr error
	}{
		{"malformed", "tomorrow noon", ErrInvalidPickupTime},
		{"in the past", "2026-08-31T11:00:00Z", ErrPickupDateInPast},
		{"sunday", "2026-09-06T11:00:00Z", ErrOutsideBusinessHours},
		{"before opening", "2026-09-02T06:30:00Z", ErrOutsideBusinessHours},
		{"no pickup at all", "", ErrInvalidPickupDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newOrderEnv()
			req := validRequest()
			req.PickupDate, req.PickupSlot = "", ""
			req.PickupTime = tt.ts

			_, err := env.svc.Submit(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}
			if env.beginner.begins != 0 {
				t.Error("transaction began for a rejected pickup time")
			}
		})
	}
}

func TestSubmitSlotFullAbortsBeforePersist(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Húsleves", 890), nil
	}
	env.capacity.incrementFn = func(ctx context.Context, arg database.IncrementSlotBookedParams) (int64, error) {
		return 0, nil
	}

	_, err := env.svc.Submit(context.Background(), validRequest())
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}
	if env.beginner.begins != 0 {
		t.Error("transaction began despite a full slot")
	}
}

func TestSubmitInventoryFailureSkipsCapacity(t *testing.T) {
	env := newOrderEnv()
	env.daily.getDailyItemFn = func(ctx context.Context, id uuid.UUID, kind string) (database.DailyItem, error) {
		return database.DailyItem{
			ID: id, Kind: kind, Name: "Gulyásleves",
			Date: pgtype.Date{Time: date(2026, time.September, 2), Valid: true},
		}, nil
	}
	env.daily.decrementFn = func(ctx context.Context, arg database.DecrementDailyPortionsParams) (int64, error) {
		return 0, nil
	}
	env.capacity.ensureFn = func(ctx context.Context, arg database.EnsureCapacitySlotParams) error {
		t.Fatal("capacity reserved after inventory refused")
		return nil
	}

	req := validRequest()
	req.Items = []CartItem{
		{DailyKind: enum.DailyKindOffer, DailyID: uuid.NewString(), DailyDate: "2026-09-02", Quantity: 3},
	}

	_, err := env.svc.Submit(context.Background(), req)
	if !errors.Is(err, ErrInsufficientPortions) {
		t.Fatalf("expected ErrInsufficientPortions, got %v", err)
	}
}

func TestSubmitAppliesCoupon(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Rántott csirkecomb", 1000), nil
	}
	env.coupons.getFn = func(ctx context.Context, code string) (database.Coupon, error) {
		return percentCoupon("SAVE10", 10), nil
	}

	req := validRequest()
	req.CouponCode = "SAVE10"

	result, err := env.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.DiscountHuf != 200 {
		t.Errorf("DiscountHuf = %d, want 200", result.Order.DiscountHuf)
	}
	if result.Order.TotalHuf != 1800 {
		t.Errorf("TotalHuf = %d, want 1800", result.Order.TotalHuf)
	}
	if !result.Order.CouponCode.Valid || result.Order.CouponCode.String != "SAVE10" {
		t.Errorf("CouponCode = %+v, want SAVE10", result.Order.CouponCode)
	}
}

func codeConflict() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "orders_code_key"}
}

func TestSubmitRetriesOnCodeCollision(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Húsleves", 890), nil
	}
	env.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		if env.store.createOrderCalls == 1 {
			return database.Order{}, codeConflict()
		}
		return orderFromParams(arg), nil
	}

	result, err := env.svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.store.createOrderCalls != 2 {
		t.Errorf("CreateOrder called %d times, want 2", env.store.createOrderCalls)
	}
	if result.Order.Code == "" {
		t.Error("committed order has no code")
	}
}

func TestSubmitGivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Húsleves", 890), nil
	}
	env.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, codeConflict()
	}

	_, err := env.svc.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if env.store.createOrderCalls != maxOrderCodeRetries {
		t.Errorf("CreateOrder called %d times, want %d", env.store.createOrderCalls, maxOrderCodeRetries)
	}
}

func TestSubmitCommitFailure(t *testing.T) {
	env := newOrderEnv()
	env.catalog.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return activeItem(id, "Húsleves", 890), nil
	}
	env.tx.commitErr = errors.New("connection reset")

	_, err := env.svc.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected commit error to surface")
	}
	if len(env.announced) != 0 {
		t.Error("announced an order that never committed")
	}
}

func TestCanTransitionStatus(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{enum.OrderStatusNew, enum.OrderStatusPreparing, true},
		{enum.OrderStatusNew, enum.OrderStatusCancelled, true},
		{enum.OrderStatusNew, enum.OrderStatusReady, false},
		{enum.OrderStatusNew, enum.OrderStatusCompleted, false},
		{enum.OrderStatusPreparing, enum.OrderStatusReady, true},
		{enum.OrderStatusPreparing, enum.OrderStatusCancelled, true},
		{enum.OrderStatusPreparing, enum.OrderStatusNew, false},
		{enum.OrderStatusReady, enum.OrderStatusCompleted, true},
		{enum.OrderStatusReady, enum.OrderStatusCancelled, false},
		{enum.OrderStatusCompleted, enum.OrderStatusNew, false},
		{enum.OrderStatusCancelled, enum.OrderStatusPreparing, false},
		{"garbage", enum.OrderStatusNew, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+" to "+tt.to, func(t *testing.T) {
			if got := CanTransitionStatus(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransitionStatus(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
