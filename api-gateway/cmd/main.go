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

	"github.com/eaglebank/ledger/api-gateway/internal/gateway"
	"github.com/eaglebank/ledger/shared/config"
	"github.com/eaglebank/ledger/shared/middleware"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	Upstreams gateway.Upstreams
	JWT       config.JWT
}

func main() {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.MustInitJWTSecret(cfg.JWT)

	router, err := gateway.New(cfg.Upstreams, cfg.JWT)
	if err != nil {
		log.Fatalf("Failed to build gateway: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("API Gateway starting on port %s (auth=%s, api=%s)", cfg.Port, cfg.Upstreams.AuthServiceURL, cfg.Upstreams.APIServiceURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
