package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "TitaniumDesk/internal/domain/repository"
	"TitaniumDesk/internal/usecase"
	xhttp "TitaniumDesk/pkg/http"
	applogger "TitaniumDesk/pkg/logger"
)

// App encapsulates the desk service lifecycle.
type App struct {
	log     *applogger.Logger
	desk    *usecase.Desk
	uplink  drepo.Uplink
	tap     *usecase.EventTap
	mirror  *usecase.SnapshotMirror
	http    *xhttp.Server
	closers []func() error

	shutdownTimeout time.Duration
}

// New builds the app. tap and mirror are optional.
func New(
	log *applogger.Logger,
	desk *usecase.Desk,
	uplink drepo.Uplink,
	tap *usecase.EventTap,
	mirror *usecase.SnapshotMirror,
	httpServer *xhttp.Server,
	shutdownTimeout time.Duration,
) *App {
	return &App{
		log:             log,
		desk:            desk,
		uplink:          uplink,
		tap:             tap,
		mirror:          mirror,
		http:            httpServer,
		shutdownTimeout: shutdownTimeout,
	}
}

// OnShutdown registers a cleanup run after every component has stopped.
func (a *App) OnShutdown(fn func() error) { a.closers = append(a.closers, fn) }

// Start brings components up in dependency order. The tap is attached before
// the desk connects so the first SYSTEM_STATUS is captured.
func (a *App) Start() error {
	if a.tap != nil {
		a.tap.Attach(a.uplink)
		a.log.Info("event tap attached")
	}
	if a.mirror != nil {
		a.mirror.Start()
		a.log.Info("snapshot mirror started")
	}
	a.desk.Start()

	if err := a.http.Start(); err != nil {
		return fmt.Errorf("http start: %w", err)
	}
	return nil
}

// Run starts the app and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops intake first, then the desk, then the sinks.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.desk.Stop(); err != nil {
		errs = append(errs, err)
	}
	// the digest shares the tap's producer, flush it while the producer is open
	a.log.DetachDigest()
	if a.tap != nil {
		if err := a.tap.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event tap: %w", err))
		}
	}
	if a.mirror != nil {
		if err := a.mirror.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("snapshot mirror: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		a.log.Error("shutdown finished with errors", applogger.Error(err))
	} else {
		a.log.Info("shutdown complete")
	}
	return err
}
