package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/weblearn/catalog"
	"github.com/p-n-ai/weblearn/internal/content"
	"github.com/p-n-ai/weblearn/internal/events"
	"github.com/p-n-ai/weblearn/internal/platform/cache"
	"github.com/p-n-ai/weblearn/internal/platform/config"
	"github.com/p-n-ai/weblearn/internal/platform/database"
	"github.com/p-n-ai/weblearn/internal/progress"
	"github.com/p-n-ai/weblearn/internal/web"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	loader, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		slog.Error("failed to open progress backend", "backend", cfg.Progress.Backend, "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	srv, err := web.New(web.Config{
		Content: loader,
		Store:   progress.NewStore(svc.backend),
		Events:  svc.events,
		Ready:   svc.ready,
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"addr", httpSrv.Addr,
			"backend", cfg.Progress.Backend,
			"courses", len(loader.Courses()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from the log section of the config.
func newLogger(w io.Writer, logCfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(logCfg.Level)}
	if logCfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadCatalog reads the catalog from dir, or the embedded one when dir is
// empty.
func loadCatalog(dir string) (*content.Loader, error) {
	if dir == "" {
		return content.NewLoader(catalog.FS)
	}
	return content.NewDirLoader(dir)
}

// services are the backing resources selected by the progress backend.
type services struct {
	backend progress.Backend
	events  events.Logger
	ready   func(ctx context.Context) error
	closers []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	svc := &services{events: events.SlogLogger{}}

	switch cfg.Progress.Backend {
	case config.BackendMemory:
		svc.backend = progress.NewMemoryBackend()

	case config.BackendFile:
		svc.backend = progress.NewFileBackend(cfg.Progress.FilePath)

	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, func() {
			if err := c.Close(); err != nil {
				slog.Warn("failed to close cache", "error", err)
			}
		})
		svc.backend = progress.NewRedisBackend(c.Client, cfg.Progress.Key)
		svc.ready = c.HealthCheck

	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, db.Close)

		backend, err := progress.NewPostgresBackend(ctx, db.Pool, cfg.Progress.Key)
		if err != nil {
			svc.Close()
			return nil, err
		}
		ev, err := events.NewPostgresLogger(ctx, db.Pool)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.backend = backend
		svc.events = events.Multi{events.SlogLogger{}, ev}
		svc.ready = db.HealthCheck

	default:
		return nil, fmt.Errorf("unknown progress backend %q", cfg.Progress.Backend)
	}

	return svc, nil
}
