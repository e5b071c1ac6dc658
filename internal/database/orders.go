package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateOrderParams struct {
	Code          string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Notes         pgtype.Text
	PaymentMethod string
	PickupAt      pgtype.Timestamptz
	PickupDate    pgtype.Date
	PickupSlot    pgtype.Text
	Status        string
	TotalHuf      int64
	DiscountHuf   int64
	CouponCode    pgtype.Text
}

const createOrder = `
INSERT INTO orders (code, customer_name, customer_phone, customer_email, notes,
                    payment_method, pickup_at, pickup_date, pickup_slot, status,
                    total_huf, discount_huf, coupon_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, code, customer_name, customer_phone, customer_email, notes,
          payment_method, pickup_at, pickup_date, pickup_slot, status,
          total_huf, discount_huf, coupon_code, created_at, updated_at
`

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.Code, arg.CustomerName, arg.CustomerPhone, arg.CustomerEmail, arg.Notes,
		arg.PaymentMethod, arg.PickupAt, arg.PickupDate, arg.PickupSlot, arg.Status,
		arg.TotalHuf, arg.DiscountHuf, arg.CouponCode)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID      uuid.UUID
	MenuItemID   pgtype.UUID
	NameSnapshot string
	UnitPriceHuf int64
	Quantity     int32
	LineTotalHuf int64
	DailyKind    pgtype.Text
	DailyID      pgtype.UUID
	DailyDate    pgtype.Date
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, name_snapshot, unit_price_huf,
                         quantity, line_total_huf, daily_kind, daily_id, daily_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, order_id, menu_item_id, name_snapshot, unit_price_huf, quantity,
          line_total_huf, daily_kind, daily_id, daily_date
`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuItemID, arg.NameSnapshot, arg.UnitPriceHuf,
		arg.Quantity, arg.LineTotalHuf, arg.DailyKind, arg.DailyID, arg.DailyDate)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.NameSnapshot, &it.UnitPriceHuf,
		&it.Quantity, &it.LineTotalHuf, &it.DailyKind, &it.DailyID, &it.DailyDate)
	return it, err
}

type CreateOrderItemOptionParams struct {
	OrderItemID   uuid.UUID
	Kind          string
	Label         string
	PriceDeltaHuf int64
}

const createOrderItemOption = `
INSERT INTO order_item_options (order_item_id, kind, label, price_delta_huf)
VALUES ($1, $2, $3, $4)
RETURNING id, order_item_id, kind, label, price_delta_huf
`

func (q *Queries) CreateOrderItemOption(ctx context.Context, arg CreateOrderItemOptionParams) (OrderItemOption, error) {
	row := q.db.QueryRow(ctx, createOrderItemOption,
		arg.OrderItemID, arg.Kind, arg.Label, arg.PriceDeltaHuf)
	var o OrderItemOption
	err := row.Scan(&o.ID, &o.OrderItemID, &o.Kind, &o.Label, &o.PriceDeltaHuf)
	return o, err
}

const getOrder = `
SELECT id, code, customer_name, customer_phone, customer_email, notes,
       payment_method, pickup_at, pickup_date, pickup_slot, status,
       total_huf, discount_huf, coupon_code, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByCode = `
SELECT id, code, customer_name, customer_phone, customer_email, notes,
       payment_method, pickup_at, pickup_date, pickup_slot, status,
       total_huf, discount_huf, coupon_code, created_at, updated_at
FROM orders
WHERE code = $1
`

func (q *Queries) GetOrderByCode(ctx context.Context, code string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByCode, code))
}

type ListOrdersParams struct {
	Status    pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

const listOrders = `
SELECT id, code, customer_name, customer_phone, customer_email, notes,
       payment_method, pickup_at, pickup_date, pickup_slot, status,
       total_huf, discount_huf, coupon_code, created_at, updated_at
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, code, customer_name, customer_phone, customer_email, notes,
          payment_method, pickup_at, pickup_date, pickup_slot, status,
          total_huf, discount_huf, coupon_code, created_at, updated_at
`

// UpdateOrderStatus compare-and-sets the status against the value the caller
// read, so two staff clients racing on the same order cannot double-apply a
// transition.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, name_snapshot, unit_price_huf, quantity,
       line_total_huf, daily_kind, daily_id, daily_date
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.NameSnapshot, &it.UnitPriceHuf,
			&it.Quantity, &it.LineTotalHuf, &it.DailyKind, &it.DailyID, &it.DailyDate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const listOrderItemOptionsByItem = `
SELECT id, order_item_id, kind, label, price_delta_huf
FROM order_item_options
WHERE order_item_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemOptionsByItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemOption, error) {
	rows, err := q.db.Query(ctx, listOrderItemOptionsByItem, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []OrderItemOption
	for rows.Next() {
		var o OrderItemOption
		if err := rows.Scan(&o.ID, &o.OrderItemID, &o.Kind, &o.Label, &o.PriceDeltaHuf); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// row is the minimal scan interface shared by pgx.Row and pgx.Rows.
type row interface {
	Scan(dest ...any) error
}

func scanOrder(r row) (Order, error) {
	var o Order
	err := r.Scan(&o.ID, &o.Code, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &o.Notes,
		&o.PaymentMethod, &o.PickupAt, &o.PickupDate, &o.PickupSlot, &o.Status,
		&o.TotalHuf, &o.DiscountHuf, &o.CouponCode, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
