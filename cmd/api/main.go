package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/config"
	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/events"
	"github.com/gestaozabele/zeladoria/internal/guard"
	internalhttp "github.com/gestaozabele/zeladoria/internal/http"
	"github.com/gestaozabele/zeladoria/internal/metrics"
	"github.com/gestaozabele/zeladoria/internal/registry"
	"github.com/gestaozabele/zeladoria/internal/reports"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var (
		redisClient redis.UniversalClient
		publisher   events.Publisher = events.Noop{}
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		client := redis.NewClient(redisOpts)
		defer client.Close()
		redisClient = client
		publisher = events.NewRedisPublisher(client, cfg.EventsChannel)
	} else {
		log.Warn().Msg("REDIS_URL ausente; eventos de relato não serão publicados")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	reportsService := reports.NewService(reports.NewPGStore(pool),
		reports.WithPublisher(publisher),
		reports.WithMetrics(m),
	)
	hasher, err := auth.NewPasswordHasher(auth.PasswordParams(cfg.PasswordHash))
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}
	registryService := registry.NewService(registry.NewPGStore(pool), registry.WithHasher(hasher.Hash))
	guardService := guard.NewService(guard.NewPGStore(pool), m)

	// Tokens são emitidos pelo provedor de identidade; aqui só validamos.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 0)

	handler, err := internalhttp.NewRouter(internalhttp.Deps{
		Config:   cfg,
		DB:       pool,
		Redis:    redisClient,
		JWT:      jwtManager,
		Reports:  reportsService,
		Registry: registryService,
		Guard:    guardService,
		Metrics:  m,
		Gatherer: reg,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
