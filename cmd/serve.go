package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coin-heist/internal/api"
	"coin-heist/internal/config"
	"coin-heist/internal/db"
	"coin-heist/internal/metrics"
	"coin-heist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP command surface and the daily reward scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}

	m := metrics.New()
	econ, err := service.NewEconomy(ctx, store, log, service.WithMetrics(m))
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := econ.Close(); err != nil {
			log.Error("Failed to close ledger store", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	handlers := &api.Handlers{Economy: econ, Logger: log}
	router := api.NewRouter(handlers, api.RouterConfig{
		Auth:       service.NewAuthService(log, cfg.JWTSecret),
		AdminRoles: cfg.AdminRoles,
		Metrics:    m,
	})
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server",
			zap.String("port", cfg.ServerPort),
			zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return service.NewScheduler(econ, log, loc).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
