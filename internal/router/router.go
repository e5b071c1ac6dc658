package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/config"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/database"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/handler"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/mailer"
	mw "github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/middleware"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/ordercode"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/service"
	"github.com/BenceG-tech/kiscscibe-order-hub-sub000/internal/ws"
)

// New creates a Chi router with all application routes wired up. Customer
// endpoints are public; everything under /admin requires a staff JWT.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, m mailer.Mailer) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",     // SvelteKit dev server
			"https://kiscsibe.hu",       // Production storefront
			"https://www.kiscsibe.hu",   // Production storefront (www)
			"https://admin.kiscsibe.hu", // Staff dashboard
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Services
	pricer := service.NewPricer(queries)
	inventory := service.NewInventory(queries)
	capacity := service.NewCapacity(queries, int32(cfg.SlotMaxOrders))
	coupons := service.NewCoupons(queries)
	loyalty := service.NewLoyalty(queries, func() string { return ordercode.Random(6) })

	orders := service.NewOrders(service.OrdersDeps{
		Pool: pool,
		NewStore: func(db database.DBTX) service.OrderStore {
			return database.New(db)
		},
		Pricer:    pricer,
		Inventory: inventory,
		Capacity:  capacity,
		Coupons:   coupons,
		Loyalty:   loyalty,
		Mailer:    m,
		Announce:  handler.OrderCreatedAnnouncer(hub),
	})

	orderHandler := handler.NewOrderHandler(orders, queries, hub)
	menuHandler := handler.NewMenuHandler(queries)
	dailyHandler := handler.NewDailyHandler(queries)
	slotHandler := handler.NewSlotHandler(capacity)
	couponHandler := handler.NewCouponHandler(queries)
	loyaltyHandler := handler.NewLoyaltyHandler(queries)

	// Public customer routes
	orderHandler.RegisterPublicRoutes(r)
	menuHandler.RegisterPublicRoutes(r)
	dailyHandler.RegisterPublicRoutes(r)
	slotHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Staff routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler.RegisterAdminRoutes(r)
		menuHandler.RegisterAdminRoutes(r)
		dailyHandler.RegisterAdminRoutes(r)
		couponHandler.RegisterAdminRoutes(r)
		loyaltyHandler.RegisterAdminRoutes(r)
	})

	return r
}
