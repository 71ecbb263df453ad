package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/resourcemart/storefront/internal/devserver"
	"github.com/resourcemart/storefront/internal/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local catalog/cart development server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := devserver.LoadConfig()
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := devserver.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}

	if cfg.DatabaseURL == "" {
		if err := devserver.Seed(db, cfg.SeedCount); err != nil {
			return err
		}
	}

	srv := &devserver.Server{
		DB:        db,
		Producer:  devserver.NewProducer(cfg.Brokers),
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	}
	if cfg.ESURL != "" {
		es, err := devserver.NewESClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Warn("es_unavailable", "error", err)
		} else {
			srv.ES = es
		}
	}

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	devserver.Register(e, srv)

	go func() {
		log.Info("devserver_starting", "port", cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.Error("devserver_start_failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	log.Info("devserver_stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("devserver_shutdown_error", "error", err)
	}
	if err := srv.Producer.Close(); err != nil {
		log.Warn("producer_close_error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
