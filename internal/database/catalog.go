package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const getMenuItemForOrder = `
SELECT id, name, category, price_huf, is_active, sides_required, sides_min, sides_max, created_at, updated_at
FROM menu_items
WHERE id = $1
`

// GetMenuItemForOrder fetches a catalog row by id regardless of active flag;
// the service distinguishes not-found from inactive.
func (q *Queries) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItemForOrder, id)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.PriceHuf, &m.IsActive,
		&m.SidesRequired, &m.SidesMin, &m.SidesMax, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const getSideDish = `
SELECT id, name, price_huf, is_active
FROM side_dishes
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetSideDish(ctx context.Context, id uuid.UUID) (SideDish, error) {
	row := q.db.QueryRow(ctx, getSideDish, id)
	var s SideDish
	err := row.Scan(&s.ID, &s.Name, &s.PriceHuf, &s.IsActive)
	return s, err
}

const getModifierByLabel = `
SELECT id, menu_item_id, label, price_delta_huf, is_active
FROM modifiers
WHERE menu_item_id = $1 AND label = $2 AND is_active = true
`

// GetModifierByLabel resolves a client-submitted modifier label against the
// catalog row for the same menu item.
func (q *Queries) GetModifierByLabel(ctx context.Context, menuItemID uuid.UUID, label string) (Modifier, error) {
	row := q.db.QueryRow(ctx, getModifierByLabel, menuItemID, label)
	var m Modifier
	err := row.Scan(&m.ID, &m.MenuItemID, &m.Label, &m.PriceDeltaHuf, &m.IsActive)
	return m, err
}

const listActiveMenuItems = `
SELECT id, name, category, price_huf, is_active, sides_required, sides_min, sides_max, created_at, updated_at
FROM menu_items
WHERE is_active = true
ORDER BY category, name
`

func (q *Queries) ListActiveMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listActiveMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.PriceHuf, &m.IsActive,
			&m.SidesRequired, &m.SidesMin, &m.SidesMax, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const listModifiersByMenuItem = `
SELECT id, menu_item_id, label, price_delta_huf, is_active
FROM modifiers
WHERE menu_item_id = $1 AND is_active = true
ORDER BY label
`

func (q *Queries) ListModifiersByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]Modifier, error) {
	rows, err := q.db.Query(ctx, listModifiersByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []Modifier
	for rows.Next() {
		var m Modifier
		if err := rows.Scan(&m.ID, &m.MenuItemID, &m.Label, &m.PriceDeltaHuf, &m.IsActive); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

const listActiveSideDishes = `
SELECT id, name, price_huf, is_active
FROM side_dishes
WHERE is_active = true
ORDER BY name
`

func (q *Queries) ListActiveSideDishes(ctx context.Context) ([]SideDish, error) {
	rows, err := q.db.Query(ctx, listActiveSideDishes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sides []SideDish
	for rows.Next() {
		var s SideDish
		if err := rows.Scan(&s.ID, &s.Name, &s.PriceHuf, &s.IsActive); err != nil {
			return nil, err
		}
		sides = append(sides, s)
	}
	return sides, rows.Err()
}

// --- Admin CRUD ---

type CreateMenuItemParams struct {
	Name          string
	Category      pgtype.Text
	PriceHuf      int64
	SidesRequired bool
	SidesMin      int32
	SidesMax      int32
}

const createMenuItem = `
INSERT INTO menu_items (name, category, price_huf, sides_required, sides_min, sides_max)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, category, price_huf, is_active, sides_required, sides_min, sides_max, created_at, updated_at
`

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name, arg.Category, arg.PriceHuf, arg.SidesRequired, arg.SidesMin, arg.SidesMax)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.PriceHuf, &m.IsActive,
		&m.SidesRequired, &m.SidesMin, &m.SidesMax, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

type UpdateMenuItemParams struct {
	ID            uuid.UUID
	Name          string
	Category      pgtype.Text
	PriceHuf      int64
	IsActive      bool
	SidesRequired bool
	SidesMin      int32
	SidesMax      int32
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2, category = $3, price_huf = $4, is_active = $5,
    sides_required = $6, sides_min = $7, sides_max = $8, updated_at = now()
WHERE id = $1
RETURNING id, name, category, price_huf, is_active, sides_required, sides_min, sides_max, created_at, updated_at
`

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.Name, arg.Category, arg.PriceHuf, arg.IsActive,
		arg.SidesRequired, arg.SidesMin, arg.SidesMax)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.PriceHuf, &m.IsActive,
		&m.SidesRequired, &m.SidesMin, &m.SidesMax, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const softDeleteMenuItem = `
UPDATE menu_items SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteMenuItem, id)
	var out uuid.UUID
	if err := row.Scan(&out); err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, pgx.ErrNoRows
		}
		return uuid.Nil, err
	}
	return out, nil
}
