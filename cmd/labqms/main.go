// Command labqms serves the laboratory quality-management API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labqms/internal/adapters/httpapi"
	"labqms/internal/audit"
	"labqms/internal/auth"
	"labqms/internal/blob"
	"labqms/internal/config"
	"labqms/internal/core"
	"labqms/internal/export"
	"labqms/internal/observability"
	"labqms/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("labqms stopped", zap.Error(err))
		os.Exit(1)
	}
}

type app struct {
	svc     *core.Service
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// build wires the service, its collaborators and the HTTP surface from cfg.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }
	journal, err := audit.Open(ctx, cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit journal: %w", err)
	}
	a.closers = append(a.closers, journal.Close)
	logger.Info("audit journal ready", zap.String("driver", journal.Driver()))

	archive, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("document archive: %w", err)
	}
	logger.Info("document archive ready", zap.String("driver", string(archive.Driver())))

	metrics := observability.NewPrometheusRecorder()
	a.svc = core.NewInMemoryService(core.NewDefaultRulesEngine(),
		core.WithLogger(observability.NewZapLogger(logger.Named("core"))),
		core.WithAuditRecorder(observability.NewZapAuditRecorder(logger)),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(observability.NewZapTracer(logger)),
		core.WithDeletionJournal(journal),
		core.WithPasswordHasher(auth.NewBcryptHasher()),
		core.WithTrainingRequirements(cfg.Training),
		core.WithLocation(loc),
	)
	if cfg.Seed {
		if err := a.svc.Seed(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	format, err := export.New(export.WithOrganization(cfg.Organization), export.WithClock(now))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	opts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithClock(now),
		httpapi.WithMetricsHandler(metrics.Handler()),
		httpapi.WithArchiver(export.NewArchiver(archive, format)),
	}
	if cfg.Report.Enabled() {
		gen, err := report.NewHTTPGenerator(cfg.Report.HTTPConfig)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		opts = append(opts, httpapi.WithAssistant(report.NewClient(gen, report.WithLogger(logger))))
	}
	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	a.handler = httpapi.New(a.svc, tokens, opts...).Router()
	return a, nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}()

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: a.handler}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
