package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/database"
	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/middleware"
	"github.com/iliyamo/travel-booking/internal/payment"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client turns the rate limiter and the
	// response cache into pass-throughs.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	trips := repository.NewTravelOptionRepo(db)
	modes := repository.NewTravelModeRepo(db)
	bookings := repository.NewBookingRepo(db)
	passengers := repository.NewPassengerRepo(db)

	var gw payment.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpaySecret != "" {
		gw = payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	}

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("rabbitmq: consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, users, bookings),
		Catalog:   handler.NewCatalogHandler(cfg, trips, modes),
		Booking:   handler.NewBookingHandler(trips, bookings, passengers, gw),
		Payment:   handler.NewPaymentHandler(cfg, trips, gw),
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewRateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
