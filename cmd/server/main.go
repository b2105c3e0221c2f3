package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"termo/internal/audit"
	"termo/internal/document/artifact"
	docService "termo/internal/document/service"
	participantService "termo/internal/participant/service"
	"termo/internal/platform/config"
	"termo/internal/platform/httpserver"
	"termo/internal/platform/logger"
	"termo/internal/platform/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(os.Stdout, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	infra, err := newInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	publisher := audit.NewPublisher(audit.DefaultBuffer)
	worker := audit.NewWorker(infra.auditSink, publisher.Events(), log)

	paths := artifact.NewPaths(cfg.Artifacts.URLPrefix)
	documents := docService.New(infra.participants, infra.artifacts,
		docService.WithLogger(log),
		docService.WithMetrics(m),
		docService.WithAuditPublisher(publisher),
		docService.WithLocker(infra.locker),
		docService.WithPaths(paths),
		docService.WithLocation(cfg.Document.Location),
	)
	participants := participantService.New(infra.participants, participantService.WithLogger(log))

	router := newRouter(routerDeps{
		log:          log,
		metrics:      m,
		registry:     reg,
		participants: participants,
		documents:    documents,
		paths:        paths,
		location:     cfg.Document.Location,
		checks:       infra.checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	// the worker stops once the publisher is closed, after in-flight requests
	g.Go(func() error {
		return worker.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		log.Info("starting termo", "addr", cfg.Server.Addr, "artifacts_backend", cfg.Artifacts.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		publisher.Close()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
