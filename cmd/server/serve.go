package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/taskflow/task-tracker-api/internal/config"
	"github.com/taskflow/task-tracker-api/internal/database"
	"github.com/taskflow/task-tracker-api/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), config.Load())
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode())

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cfg.SeedOnStart {
		if _, err := database.Seed(db, newLogger()); err != nil {
			return err
		}
	}

	svc, cleanup := buildServices(cfg, db)
	defer cleanup()

	engine, err := router.New(svc)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server stopped")
	return nil
}
