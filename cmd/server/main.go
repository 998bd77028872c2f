// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/auth"
	"github.com/jason-s-yu/spotdiff/internal/broker"
	"github.com/jason-s-yu/spotdiff/internal/cache"
	"github.com/jason-s-yu/spotdiff/internal/config"
	"github.com/jason-s-yu/spotdiff/internal/database"
	"github.com/jason-s-yu/spotdiff/internal/game"
	"github.com/jason-s-yu/spotdiff/internal/gateway"
	"github.com/jason-s-yu/spotdiff/internal/handlers"
	"github.com/jason-s-yu/spotdiff/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(os.Getenv("SPOTDIFF_CONFIG"))
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	database.ConnectDB()
	defer database.DB.Close()
	store := database.NewStore(database.DB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("%v", err)
	}
	if err := store.SeedConstants(ctx, cfg.Game.Constants); err != nil {
		logger.Warnf("%v", err)
	}

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("room history disabled: %v", err)
		cache.Rdb = nil
	}

	var mirror gateway.Mirror
	if url := os.Getenv("NATS_URL"); url != "" {
		nm, err := broker.ConnectNATS(url, cfg.Broker.SubjectPrefix, logger)
		if err != nil {
			logger.Warnf("event mirror disabled: %v", err)
		} else {
			defer nm.Close()
			mirror = nm
		}
	}

	tokenTTL := 12 * time.Hour
	if v := os.Getenv("TOKEN_EXPIRE_TIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			tokenTTL = d
		}
	}
	signer, err := auth.NewSigner(tokenTTL)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	hub := gateway.NewHub(logger, mirror)
	gw := gateway.New(store, hub, logger,
		game.WithTickInterval(cfg.Server.TickInterval),
		game.WithMaxTimer(cfg.Game.MaxTimer),
		game.WithDefaults(cfg.Game.Constants),
	)
	go gw.Run(ctx)

	admin := &handlers.AdminAPI{
		Store:        store,
		Gateway:      gw,
		Signer:       signer,
		PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/session/ws", handlers.SessionWSHandler(logger, gw, cfg.Server.AllowedOrigins))
	mux.HandleFunc("GET /rooms", handlers.AvailableRoomsHandler(gw))
	mux.HandleFunc("GET /games", handlers.GamesHandler(logger, store))
	mux.HandleFunc("GET /best-times/{game}", handlers.BestTimesHandler(logger, store))
	mux.HandleFunc("GET /health", handlers.HealthHandler(store))
	admin.Register(mux)

	handler := middleware.CORS(cfg.Server.AllowedOrigins)(middleware.LogMiddleware(logger)(mux))
	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}
