package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"stock-screener-backend/internal/config"
	httpdelivery "stock-screener-backend/internal/delivery/http"
	wsdelivery "stock-screener-backend/internal/delivery/websocket"
	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/db"
	"stock-screener-backend/internal/infrastructure/fcm"
	"stock-screener-backend/internal/infrastructure/marketdata"
	"stock-screener-backend/internal/logging"
	"stock-screener-backend/internal/repository"
	"stock-screener-backend/internal/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	log := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Postgres price store
	if cfg.Database.URL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to postgres failed")
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	priceRepo := repository.NewPostgresPriceRepository(pool)
	subRepo := repository.NewPostgresSubscriberRepository(pool)
	if raw := os.Getenv("EXTRA_DEVICE_TOKENS"); raw != "" {
		if n, err := subRepo.SeedFromEnv(ctx, raw); err != nil {
			log.Warn().Err(err).Msg("seeding subscribers failed")
		} else if n > 0 {
			log.Info().Int("seeded", n).Msg("subscribers seeded from env")
		}
	}

	// 2. Snapshot repositories
	snapRepo := repository.NewInMemorySnapshotRepository()
	var mirror domain.SnapshotRepository
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		mirror = repository.NewRedisSnapshotRepository(redis.NewClient(opts), 48*time.Hour)
	}

	// 3. Notifications
	fcmClient, err := fcm.NewClient(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing FCM failed")
	}
	notify := usecase.NewNotificationService(fcmClient, subRepo, cfg.Notify, log)

	// 4. Market data + screener
	var fetcher usecase.BarFetcher
	if cfg.MarketData.BaseURL != "" {
		fetcher = marketdata.NewClient(cfg.MarketData.BaseURL)
	} else {
		log.Warn().Msg("MARKET_DATA_URL not set, screening stored prices only")
	}
	screener := usecase.NewScreenerUsecase(cfg, priceRepo, snapRepo, mirror, fetcher, notify, log)
	go screener.Run(ctx)

	// 5. Delivery
	snapshotHandler := httpdelivery.NewSnapshotHandler(snapRepo)
	tokenHandler := httpdelivery.NewTokenHandler(subRepo)
	wsHandler := wsdelivery.NewHandler(snapRepo, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/picks", snapshotHandler.HandleGetPicks)
	mux.HandleFunc("/api/events", snapshotHandler.HandleGetEvents)
	mux.HandleFunc("/api/health", snapshotHandler.HandleHealth)
	mux.HandleFunc("/api/tokens/register", tokenHandler.HandleRegisterToken)
	mux.HandleFunc("/api/tokens/unregister", tokenHandler.HandleUnregisterToken)
	mux.HandleFunc("/ws", wsHandler.Handle)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
