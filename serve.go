package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	restapi "github.com/hedisam/rscanner/api/rest"
	"github.com/hedisam/rscanner/internal/config"
	"github.com/hedisam/rscanner/internal/custompromauto"
	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/scan"
	"github.com/hedisam/rscanner/internal/store/memdb"
)

func serve(ctx context.Context, logger *logrus.Logger, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	chain, err := provider.New(logger, cfg.ProviderOptions())
	if err != nil {
		return fmt.Errorf("failed to set up providers: %w", err)
	}
	logger.WithField("providers", chain.Providers()).Info("Providers ready")

	params := cfg.ChainParams()
	jobStore := memdb.NewJobStore()
	scanner := scan.New(logger, chain, jobStore, params, cfg.ScanOptions())
	defer scanner.Close()

	restServer := restapi.NewServer(logger, scanner, chain, params)
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	restapi.RegisterFunc(logger, api, http.MethodGet, "/health", restServer.Health)
	restapi.RegisterFunc(logger, api, http.MethodGet, "/blocks/tip", restServer.GetTip)
	restapi.RegisterFunc(logger, api, http.MethodPost, "/scans", restServer.StartScan)
	restapi.RegisterFunc(logger, api, http.MethodGet, "/scans", restServer.ListScans)
	restapi.RegisterFunc(logger, api, http.MethodGet, "/scans/{id}/progress", restServer.GetProgress)
	restapi.RegisterFunc(logger, api, http.MethodGet, "/scans/{id}/results", restServer.GetResults)
	restapi.RegisterFunc(logger, api, http.MethodPost, "/scans/{id}/stop", restServer.StopScan)
	restapi.RegisterFunc(logger, api, http.MethodGet, "/scans/{id}/export", restServer.ExportScan)
	restapi.RegisterFunc(logger, api, http.MethodPost, "/balances", restServer.CheckBalances)

	// use a custom prom registry to avoid recording the default http handler metrics
	router.Handle("/metrics", promhttp.HandlerFor(custompromauto.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	accessLog := logger.WriterLevel(logrus.DebugLevel)
	defer accessLog.Close()

	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))(handler)
	handler = handlers.CombinedLoggingHandler(accessLog, handler)

	return listenAndServe(ctx, logger, cfg.Server, handler)
}

func listenAndServe(ctx context.Context, logger *logrus.Logger, cfg config.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("Serving server...")
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...")
	err := srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.WithError(err).Error("Failed to shutdown server gracefully")
	}
	return nil
}
