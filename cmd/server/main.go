package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/config"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/mailer"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/router"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	log.Println("Migrations applied")

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

	queries := database.New(pool)

	var m mailer.Mailer = mailer.Nop{}
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass,
			cfg.MailFrom, cfg.AdminEmail)
		if err != nil {
			log.Fatalf("Unable to create mailer: %v", err)
		}
		m = smtp
	} else {
		log.Println("SMTP_HOST not set, confirmation emails disabled")
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, hub, m)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
