package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/config"
	"github.com/d60-Lab/zenblog/internal/api/handler"
	"github.com/d60-Lab/zenblog/internal/api/router"
	"github.com/d60-Lab/zenblog/internal/cache"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/internal/service"
	"github.com/d60-Lab/zenblog/pkg/database"
	"github.com/d60-Lab/zenblog/pkg/logger"
	"github.com/d60-Lab/zenblog/pkg/tracing"
)

// @title        zenblog API
// @version      1.0
// @description  博客文章的增删改查与分页接口
// @BasePath     /
func main() {
	if err := run(); err != nil {
		logger.Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("tracing shutdown failed", zap.Error(err))
			}
		}()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("close database failed", zap.Error(err))
		}
	}()

	var (
		postCache cache.PostCache = cache.NopPostCache{}
		opts      []service.Option
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		postCache = cache.NewRedisPostCache(rdb, cfg.Redis.TTL)
		logger.Info("redis post cache enabled", zap.String("addr", cfg.Redis.Addr))

		if cfg.Redis.WarmWorkers > 0 {
			warmer := service.NewCacheWarmer(postCache, cfg.Redis.WarmQueue)
			stopWarmer := warmer.Start(cfg.Redis.WarmWorkers)
			defer func() {
				wctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := stopWarmer(wctx); err != nil {
					logger.Warn("stop cache warmer failed", zap.Error(err))
				}
			}()
			opts = append(opts, service.WithWarmer(warmer))
		}
	}

	svc := service.NewPostService(repository.NewPostRepository(db), postCache, opts...)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(cfg, handler.NewHandler(svc)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("ZENBLOG_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
