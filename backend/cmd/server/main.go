package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jkd-coach-app/backend/internal/app"
	"jkd-coach-app/backend/internal/bootstrap"
	"jkd-coach-app/backend/internal/infra/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if _, err := logger.Init(); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.S().With("component", "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.Bootstrap(ctx)
	if err != nil {
		log.Fatalw("bootstrap failed", "error", err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			log.Errorw("close resources", "error", err)
		}
	}()

	application, err := bootstrap.BuildApplication(ctx, log, resources)
	if err != nil {
		log.Fatalw("build application failed", "error", err)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", resources.Flags.Port),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", srv.Addr, "mode", resources.Flags.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "error", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
	log.Infow("server stopped")
}
