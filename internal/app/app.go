package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/user/frontier-crawler/internal/adapter/chromedp_fetcher"
	"github.com/user/frontier-crawler/internal/adapter/fs_archiver"
	"github.com/user/frontier-crawler/internal/adapter/http_fetcher"
	"github.com/user/frontier-crawler/internal/adapter/kafka_archiver"
	"github.com/user/frontier-crawler/internal/adapter/memory"
	"github.com/user/frontier-crawler/internal/adapter/postgres"
	redisadapter "github.com/user/frontier-crawler/internal/adapter/redis"
	"github.com/user/frontier-crawler/internal/adapter/s3_archiver"
	"github.com/user/frontier-crawler/internal/delivery/http/handler"
	"github.com/user/frontier-crawler/internal/delivery/http/router"
	"github.com/user/frontier-crawler/internal/delivery/http/server"
	"github.com/user/frontier-crawler/internal/proxy"
	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/internal/usecase"
	"github.com/user/frontier-crawler/pkg/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type frontierStore interface {
	repository.FrontierRepository
	repository.FailureRepository
}

// App holds every component of one crawl run.
type App struct {
	Frontier  repository.FrontierRepository
	Fetcher   repository.PageFetcher
	Archiver  repository.PageArchiver
	Scheduler *usecase.Scheduler
	Inspector usecase.FrontierInspector

	cfg     *config.Config
	logger  *zap.Logger
	pgPool  *pgxpool.Pool
	closers []func() error
}

// New connects to the configured backends. On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := a.newFrontier(ctx)
	if err != nil {
		return nil, err
	}
	a.Frontier = store

	failures := repository.FailureRepository(store)
	if cfg.FailureStore == "postgres" {
		pool, err := a.postgres(ctx)
		if err != nil {
			return nil, err
		}
		failures = postgres.NewFailedURLRepo(pool)
	}

	if a.Fetcher, err = a.newFetcher(); err != nil {
		return nil, err
	}
	if a.Archiver, err = a.newArchiver(ctx); err != nil {
		return nil, err
	}
	archives, _ := a.Archiver.(repository.ArchiveReader)

	coordinator := usecase.NewCoordinator(a.Frontier, a.Fetcher, a.Archiver, cfg.KeysLimit, logger)
	a.Scheduler = usecase.NewScheduler(a.Frontier, failures, coordinator, cfg.Seed, cfg.MaxFailures, logger)
	a.Inspector = usecase.NewFrontierInspector(a.Frontier, archives, cfg.KeysLimit)
	return a, nil
}

func (a *App) newFrontier(ctx context.Context) (frontierStore, error) {
	switch a.cfg.FrontierStore {
	case "memory":
		a.logger.Warn("using the in-memory frontier; progress is lost on exit")
		return memory.NewFrontierRepo(a.cfg.EntryTTL), nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		repo := redisadapter.NewFrontierRepo(client, a.cfg.RedisKeyPrefix, a.cfg.EntryTTL)
		a.closers = append(a.closers, repo.Close)
		if err := repo.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.RedisAddr, err)
		}
		a.logger.Info("redis connection established", zap.String("addr", a.cfg.RedisAddr))
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: unknown frontier store %q", config.ErrInvalidConfig, a.cfg.FrontierStore)
	}
}

func (a *App) newFetcher() (repository.PageFetcher, error) {
	proxies := proxy.NewManager(a.cfg.Proxies, a.cfg.UserAgents)

	switch a.cfg.Fetcher {
	case "http":
		return http_fetcher.NewHTTPFetcher(a.cfg.PageLoadTimeout, proxies, a.logger), nil
	case "chromedp":
		f, err := chromedp_fetcher.NewChromedpFetcher(chromedp_fetcher.Options{
			ExecPath:        a.cfg.ChromePath,
			UserAgent:       proxies.GetUserAgent(),
			ProxyServer:     proxies.GetProxy(),
			PageLoadTimeout: a.cfg.PageLoadTimeout,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f.Close)
		return f, nil
	default:
		return nil, fmt.Errorf("%w: unknown fetcher %q", config.ErrInvalidConfig, a.cfg.Fetcher)
	}
}

func (a *App) newArchiver(ctx context.Context) (repository.PageArchiver, error) {
	switch a.cfg.Archiver {
	case "filesystem":
		return fs_archiver.NewFileArchiver(a.cfg.ResultDir), nil
	case "postgres":
		pool, err := a.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewArchivedPageRepo(pool), nil
	case "s3":
		return s3_archiver.NewS3Archiver(ctx, s3_archiver.Options{
			Bucket:    a.cfg.S3Bucket,
			Prefix:    a.cfg.S3Prefix,
			Endpoint:  a.cfg.S3Endpoint,
			Region:    a.cfg.S3Region,
			AccessKey: a.cfg.S3AccessKey,
			SecretKey: a.cfg.S3SecretKey,
		}, a.logger)
	case "kafka":
		k := kafka_archiver.NewKafkaArchiver(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
		a.closers = append(a.closers, k.Close)
		return k, nil
	default:
		return nil, fmt.Errorf("%w: unknown archiver %q", config.ErrInvalidConfig, a.cfg.Archiver)
	}
}

// postgres opens the shared pool on first use.
func (a *App) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pgPool != nil {
		return a.pgPool, nil
	}
	pool, err := postgres.Connect(ctx, a.cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	a.pgPool = pool
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	a.logger.Info("PostgreSQL connection pool established")
	return pool, nil
}

// Run serves the observability endpoints when configured and drives the scheduler to completion.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.MetricsAddr != "" {
		srv := server.NewServer(a.cfg.MetricsAddr, router.New(handler.NewHandler(a.Inspector, a.logger), a.logger), a.logger)
		go func() {
			if err := srv.Start(); err != nil {
				a.logger.Error("observability server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("observability server shutdown", zap.Error(err))
			}
		}()
	}

	return a.Scheduler.Run(ctx)
}

// Close releases the backends in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
