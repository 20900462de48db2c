package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inkpress/content-platform/internal/config"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Sessions      *service.SessionService
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, sessions *service.SessionService) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Observability: runtime, Sessions: sessions}
}

// Run serves until ctx is cancelled, then drains the server and flushes the
// observability pipeline within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.Config.SessionJanitorInterval > 0 {
		g.Go(func() error {
			a.runJanitor(ctx)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := a.Observability.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// runJanitor purges expired session rows. Expiry is always enforced at
// validation time; this only keeps the table small.
func (a *App) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(a.Config.SessionJanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.Sessions.DeleteExpired(ctx)
			if err != nil {
				a.Logger.Warn("session janitor sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				a.Logger.Debug("session janitor removed expired sessions", "count", removed)
			}
		}
	}
}
