package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	rcache "giveaway-raffle/internal/cache/redis"
	"giveaway-raffle/internal/common/config"
	"giveaway-raffle/internal/common/logger"
	dg "giveaway-raffle/internal/domain/giveaway"
	httpapi "giveaway-raffle/internal/http"
	"giveaway-raffle/internal/platform/db"
	"giveaway-raffle/internal/platform/discord"
	rplatform "giveaway-raffle/internal/platform/redis"
	"giveaway-raffle/internal/repository/ledger"
	"giveaway-raffle/internal/service/giveaway"
	"giveaway-raffle/internal/service/membership"
	"giveaway-raffle/internal/service/notifications"
	"giveaway-raffle/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(cfg.ServiceName, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	sqlDB, store, err := openLedger(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer sqlDB.Close()
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")

	// Discord
	session, err := discord.Open(ctx, cfg.Discord.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open discord session")
	}
	defer session.Close()

	var members dg.MembershipProvider = membership.NewProvider(session, cfg.Discord.GuildID)
	checks := map[string]httpapi.Pinger{"database": store}

	var rdb *rplatform.Client
	var memberCache *rcache.MemberCache
	if cfg.RedisEnabled() {
		rdb, err = rplatform.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		memberCache = rcache.NewMemberCache(rdb, members, cfg.Redis.MemberCacheTTL)
		members = memberCache
		checks["redis"] = httpapi.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis member cache enabled")
	}

	// Giveaway service
	slot := giveaway.NewSlot()
	gate := giveaway.NewGate(store, members, dg.Requirements{
		DefaultRoles:  cfg.Raffle.DefaultRoles,
		MinTenureDays: cfg.Raffle.MinTenureDays,
	})
	proc := giveaway.NewProcessor(slot, gate, store, cfg.Raffle.QueueSize)
	selector := giveaway.NewSelector(store, members)
	ctrl := giveaway.NewController(slot, store, members, notifications.NewService(session), proc, selector)

	procDone := make(chan struct{})
	go func() {
		defer close(procDone)
		proc.Run(ctx)
	}()

	if err := ctrl.Reconcile(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to restore current giveaway")
	}
	cur := ctrl.Current()
	logger.Info().Str("state", string(cur.State)).Msg("Current giveaway restored")

	// Workers
	autoFinish, err := workers.NewAutoFinishWorker(ctrl, cfg.Raffle.AutoFinishInterval)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create auto-finish worker")
	}
	if err := autoFinish.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start auto-finish worker")
	}
	defer func() { _ = autoFinish.Stop() }()

	if rdb != nil {
		streamWorker := workers.NewRedisStreamWorker(rdb, cfg.Redis.EventsStream,
			cfg.Redis.ConsumerGroup, cfg.Redis.ConsumerName, ctrl, memberCache)
		go streamWorker.Start(ctx)
	}

	// HTTP
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.HTTP.AdminToken == "" {
		logger.Warn().Msg("ADMIN_TOKEN is empty, admin endpoints are disabled")
	}
	if cfg.HTTP.BotToken == "" {
		logger.Warn().Msg("BOT_API_TOKEN is empty, joining is disabled")
	}
	router := httpapi.NewRouter(ctrl, httpapi.Options{
		AllowedOrigin: cfg.HTTP.Origin,
		AdminToken:    cfg.HTTP.AdminToken,
		BotToken:      cfg.HTTP.BotToken,
		Checks:        checks,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	<-procDone

	logger.Info().Msg("Server exited")
}

func openLedger(ctx context.Context, cfg *config.Config) (*sql.DB, *ledger.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		sqlDB, err := db.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, ledger.NewPostgresStore(sqlDB), nil
	default:
		sqlDB, err := db.OpenSQLite(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, ledger.NewSQLiteStore(sqlDB), nil
	}
}
