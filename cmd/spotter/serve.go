package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spotter/internal/handler"
	"spotter/internal/repository/postgres"
	"spotter/internal/router"
	"spotter/internal/service"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read API over extracted products and runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !cfg.DB.Enabled {
			return fmt.Errorf("serve requires a database; set SPOTTER_DB_ENABLED=true")
		}
		db, err := postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog := service.NewCatalogService(postgres.NewProductRepo(db), postgres.NewRunRepo(db))

		if cfg.Server.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		r := router.Setup(
			handler.NewProductHandler(catalog),
			handler.NewRunHandler(catalog),
			handler.NewHealthHandler(db),
			cfg.Server.CORSOrigins,
		)

		addr := firstNonEmpty(servePort, cfg.Server.Port)
		srv := &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "addr", "", "listen address, e.g. :8080 (default from config)")
	rootCmd.AddCommand(serveCmd)
}
