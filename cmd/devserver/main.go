/*
Package main is the entry point for the yapnet dev fixture server.

It serves an in-memory implementation of the upstream social API so the
client library and demo CLI can run locally with no infrastructure. It loads
its settings from environment variables, seeds sample content, and handles
operating system interrupt signals for a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"yapnet/internal/devapi"
	"yapnet/internal/pkg/logx"
)

func main() {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid PORT environment variable: %v\n", err)
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if environment != "development" {
			fmt.Fprintf(os.Stderr, "FATAL: JWT_SECRET environment variable is required in %s environment\n", environment)
			os.Exit(1)
		}
		secret = "devserver_insecure_secret_change_me"
	}

	logx.InitGlobalLogger(environment == "development")
	logx.Info("Devserver configuration loaded", "environment", environment, "port", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := devapi.NewStore()
	store.Seed(27)

	api := devapi.NewAPI(store, secret)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("yapnet devserver listening on http://localhost:%d", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Devserver failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Devserver forced to shutdown")
	}

	logx.Info("Devserver gracefully stopped.")
}
