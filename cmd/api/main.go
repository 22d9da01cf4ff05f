package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/medid/internal/app"
	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/config"
	httpx "github.com/geocoder89/medid/internal/http"
	"github.com/geocoder89/medid/internal/observability"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup; main exits only after it returns.
func run() int {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		return 1
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err, "store", cfg.Store)
		return 1
	}
	defer a.Close()

	if err := a.SeedAdmin(ctx); err != nil {
		log.Error("admin seed failed", "err", err)
	}

	router := httpx.NewRouter(log, httpx.Deps{
		Config:   cfg,
		Accounts: a.Service,
		Gate:     auth.NewGate(a.Tokens),
		Prom:     a.Prom,
		Gatherer: a.Registry,
		Checks:   a.Checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	select {
	case <-stop:
		log.Info("server shutting down")
	case err := <-serveErr:
		log.Error("server failed", "err", err)
		code = 1
	}

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
		code = 1
	}

	return code
}
