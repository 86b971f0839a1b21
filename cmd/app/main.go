package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lootrun/internal/config"
	"lootrun/internal/db"
	"lootrun/internal/game"
	httpServer "lootrun/internal/http"
	"lootrun/internal/http/handlers"
	"lootrun/internal/logger"
	"lootrun/internal/repository"
	"lootrun/internal/seeker"
	"lootrun/internal/service"
	"lootrun/internal/session"
	"lootrun/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Version устанавливается при сборке
var Version = "dev"

const (
	cleanupEvery = time.Minute
	roomMaxIdle  = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid config", "error", err)
	}

	logger.Init(cfg.LogLevel, cfg.JSONLogs())
	logger.Debug("config loaded",
		"port", cfg.AppPort,
		"win_threshold", cfg.Game.WinThreshold,
		"shop", cfg.Game.ShopEnabled,
		"history", cfg.DatabaseURL != "",
		"model_store", cfg.RedisAddr != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// история игр пишется только если есть база
	var (
		recorder session.Recorder
		games    handlers.GameStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database unavailable", "error", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("migration failed", "error", err)
		}
		repo := repository.NewGameRepository(pool)
		recorder, games = repo, repo
		logger.Info("game history enabled")
	} else {
		logger.Warn("DATABASE_URL not set - game history is disabled")
	}

	// обученная модель искателя подтягивается из redis
	var scorer session.ScorerSource
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		models := seeker.NewModelStore(rdb, cfg.Seeker.ModelKey, logger.With("component", "models"))
		go models.Run(ctx, cfg.Seeker.ModelRefresh)
		scorer = models.Scorer
		logger.Info("seeker model store enabled", "key", cfg.Seeker.ModelKey)
	}

	catalog := game.DefaultCatalog()
	hub := ws.NewHub(ws.RoomDeps{
		Settings: session.SettingsFromConfig(cfg.Game),
		Catalog:  catalog,
		Planner:  seeker.New(seeker.ParamsFromConfig(cfg.Seeker), logger.With("component", "seeker")),
		Scorer:   scorer,
		Recorder: recorder,
		Log:      logger.With("component", "rooms"),
	})
	hub.StartCleanup(ctx, cleanupEvery, roomMaxIdle)

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set - tokens will not survive a restart")
	}

	if !cfg.JSONLogs() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handlers.Handler{
		Hub:     hub,
		Games:   games,
		Tokens:  tokens,
		Catalog: catalog,
		Version: Version,
		Log:     logger.With("component", "http"),
	}
	httpServer.RegisterRoutes(r, h, ws.NewHandler(hub, tokens, cfg.AllowedOrigin, logger.With("component", "ws")), cfg.AllowedOrigin)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// комнаты закрываются после http, чтобы новые клиенты уже не приходили
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Error("rooms did not stop in time", "error", err)
	}

	logger.Info("server exited")
}
