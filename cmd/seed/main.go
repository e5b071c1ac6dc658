package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/auth"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/config"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
)

// Demo catalog for local development and first deployments.
func main() {
	staffName := flag.String("staff", "Kiscsibe Admin", "Staff name embedded in the issued token")
	tokenTTL := flag.Duration("ttl", 30*24*time.Hour, "Validity of the issued staff token")
	flag.Parse()

	cfg := config.Load()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Seed in a transaction: the whole demo catalog or nothing.
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := seedCatalog(ctx, tx); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	if err := seedDaily(ctx, tx); err != nil {
		log.Fatalf("Failed to seed daily items: %v", err)
	}
	if err := seedCoupon(ctx, tx); err != nil {
		log.Fatalf("Failed to seed coupon: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed completed successfully")

	token, err := auth.GenerateToken(cfg.JWTSecret, *staffName, "STAFF", *tokenTTL)
	if err != nil {
		log.Fatalf("Failed to issue staff token: %v", err)
	}
	fmt.Printf("\nStaff token (valid %s):\n%s\n", *tokenTTL, token)
}

// seedCatalog creates a handful of menu items, sides and modifiers if the
// catalog is empty.
func seedCatalog(ctx context.Context, tx pgx.Tx) error {
	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM menu_items`).Scan(&count); err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		log.Printf("Catalog already has %d items, skipping", count)
		return nil
	}

	items := []struct {
		name     string
		category string
		priceHuf int64
		sides    bool
		min, max int32
	}{
		{"Rántott csirkecomb", "Főételek", 1890, true, 1, 2},
		{"Grillezett csirkemell", "Főételek", 2090, true, 1, 2},
		{"Húsleves", "Levesek", 890, false, 0, 0},
		{"Palacsinta (2 db)", "Desszertek", 790, false, 0, 0},
	}

	queries := database.New(tx)
	var firstID uuid.UUID
	for i, it := range items {
		created, err := queries.CreateMenuItem(ctx, database.CreateMenuItemParams{
			Name:          it.name,
			Category:      textOrNull(it.category),
			PriceHuf:      it.priceHuf,
			SidesRequired: it.sides,
			SidesMin:      it.min,
			SidesMax:      it.max,
		})
		if err != nil {
			return fmt.Errorf("insert %q: %w", it.name, err)
		}
		if i == 0 {
			firstID = created.ID
		}
		log.Printf("Created menu item %q (ID: %s)", it.name, created.ID)
	}

	sides := []struct {
		name     string
		priceHuf int64
	}{
		{"Rizs", 450},
		{"Hasábburgonya", 490},
		{"Friss saláta", 390},
	}
	for _, s := range sides {
		if _, err := tx.Exec(ctx,
			`INSERT INTO side_dishes (name, price_huf) VALUES ($1, $2)`,
			s.name, s.priceHuf); err != nil {
			return fmt.Errorf("insert side %q: %w", s.name, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO modifiers (menu_item_id, label, price_delta_huf) VALUES ($1, $2, $3)`,
		firstID, "Dupla adag", 700); err != nil {
		return fmt.Errorf("insert modifier: %w", err)
	}
	return nil
}

// seedDaily creates today's daily offer and menu when missing.
func seedDaily(ctx context.Context, tx pgx.Tx) error {
	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM daily_items WHERE date = CURRENT_DATE`).Scan(&count); err != nil {
		return fmt.Errorf("count daily items: %w", err)
	}
	if count > 0 {
		log.Printf("Today already has %d daily items, skipping", count)
		return nil
	}

	daily := []struct {
		kind     string
		name     string
		priceHuf int64
		portions int32
	}{
		{"offer", "Gulyásleves + palacsinta", 1690, 25},
		{"menu", "Napi menü: paradicsomleves, milánói sertésborda", 1990, 40},
	}
	for _, d := range daily {
		if _, err := tx.Exec(ctx,
			`INSERT INTO daily_items (kind, date, name, price_huf, max_portions, remaining_portions)
			 VALUES ($1, CURRENT_DATE, $2, $3, $4, $4)`,
			d.kind, d.name, d.priceHuf, d.portions); err != nil {
			return fmt.Errorf("insert daily %q: %w", d.name, err)
		}
		log.Printf("Created daily item %q (%d portions)", d.name, d.portions)
	}
	return nil
}

// seedCoupon creates the standing 10% welcome coupon when missing.
func seedCoupon(ctx context.Context, tx pgx.Tx) error {
	var existing uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM coupons WHERE code = 'SAVE10'`).Scan(&existing)
	if err == nil {
		log.Printf("Coupon SAVE10 already exists (ID: %s), skipping", existing)
		return nil
	}
	if err != pgx.ErrNoRows {
		return fmt.Errorf("check coupon: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO coupons (code, type, value, min_order_huf) VALUES ('SAVE10', 'percentage', 10, 1500)`); err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	log.Println("Created coupon SAVE10 (10% off, min 1500 HUF)")
	return nil
}

func textOrNull(s string) (t pgtype.Text) {
	if s != "" {
		t = pgtype.Text{String: s, Valid: true}
	}
	return t
}
