package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/config"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
	httpHandler "github.com/vasiliy-maslov/restaurant-ordering/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/loyalty"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/order"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.With().Str("service", cfg.App.Name).Logger()

	log.Info().Msg("Ordering service starting...")

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	dbConn, err := db.New(connectCtx, cfg.Postgres)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	tx := db.NewTransactor(dbConn.Pool)
	dir := directory.NewRepository(dbConn.Pool)
	orderRepository := order.NewRepository(dbConn.Pool)

	couponSvc := coupon.NewService(coupon.NewRepository(dbConn.Pool), orderRepository, dir, tx)
	loyaltySvc := loyalty.NewService(loyalty.NewRepository(dbConn.Pool), dir, couponSvc, tx)
	cartSvc := cart.NewService(cart.NewRepository(dbConn.Pool), orderRepository, dir, tx)
	orderSvc := order.NewService(orderRepository, dir, tx, couponSvc, loyaltySvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.App.RequestTimeout))

	httpHandler.NewHealthHandler(dbConn.Pool).RegisterRoutes(router)
	httpHandler.NewCartHandler(cartSvc).RegisterRoutes(router)
	httpHandler.NewCouponHandler(couponSvc).RegisterRoutes(router)
	httpHandler.NewLoyaltyHandler(loyaltySvc).RegisterRoutes(router)
	httpHandler.NewOrderHandler(orderSvc).RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.App.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	dbConn.Close()

	log.Info().Msg("Ordering service stopped gracefully")
}
