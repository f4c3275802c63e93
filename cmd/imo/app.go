package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmcdole/imo/internal/adapter"
	"github.com/mmcdole/imo/internal/adapter/source"
	"github.com/mmcdole/imo/internal/bus"
	"github.com/mmcdole/imo/internal/marks"
	"github.com/mmcdole/imo/internal/session"
	"github.com/mmcdole/imo/internal/store"
	"github.com/mmcdole/imo/internal/view"
)

// shutdownTimeout bounds mark flushing and metrics shutdown on exit
const shutdownTimeout = 5 * time.Second

// app holds the wired collaborators of one run
type app struct {
	slots   *store.SlotStore
	backend *source.Backend
	bus     *bus.Bus
	marks   *marks.Service
	session *session.Session
	metrics *http.Server
}

func newApp(cfg *adapter.Config) (*app, error) {
	slots, err := store.NewSlotStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		// Fall back to memory-only so the dashboard still runs
		logger.Warn("failed to open cache, marks will not survive restart", "error", err)
		slots, _ = store.NewSlotStore("", cfg.Server.URL)
	}

	backend, err := source.NewBackend(cfg, logger)
	if err != nil {
		slots.Close()
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	b := bus.New(logger)
	markSvc := marks.NewService(slots, backend.Marks, b, logger,
		marks.WithTimeout(cfg.Remote.Timeout))

	sess := session.New(session.Deps{
		Listings:     backend.Listings,
		Stats:        backend.Stats,
		Marks:        markSvc,
		Bus:          b,
		Slots:        slots,
		Logger:       logger,
		Query:        cfg.Query,
		View:         view.Options{RentThreshold: cfg.View.RentThreshold},
		FetchTimeout: cfg.Server.Timeout,
	})

	a := &app{
		slots:   slots,
		backend: backend,
		bus:     b,
		marks:   markSvc,
		session: sess,
	}
	a.serveMetrics(cfg.Metrics.Listen)
	return a, nil
}

// serveMetrics exposes /metrics when listen is set
func (a *app) serveMetrics(listen string) {
	if listen == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metrics = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "listen", listen)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
}

// close flushes pending mark pushes and releases every resource
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.session.Close(ctx); err != nil {
		logger.Warn("pending mark pushes abandoned", "error", err)
	}
	if a.metrics != nil {
		a.metrics.Shutdown(ctx)
	}
	if err := a.backend.Close(); err != nil {
		logger.Warn("failed to close backend", "error", err)
	}
	if err := a.slots.Close(); err != nil {
		logger.Warn("failed to close cache", "error", err)
	}
	logger.Info("shutting down")
}
