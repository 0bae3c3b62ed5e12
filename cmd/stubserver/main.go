// main runs the fake ampairs backend for local development: the full
// enveloped auth contract plus a /metrics endpoint.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/platform/logger"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/stubserver"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	otp := flag.String("otp", "123456", "OTP the stub accepts")
	accessTTL := flag.Duration("access-ttl", time.Hour, "access token lifetime")
	refreshTTL := flag.Duration("refresh-ttl", 7*24*time.Hour, "refresh token lifetime")
	flag.Parse()

	log := logger.New()

	stub := stubserver.New(stubserver.Options{
		OTP:        *otp,
		AccessTTL:  *accessTTL,
		RefreshTTL: *refreshTTL,
	})

	router := chi.NewRouter()
	router.Mount("/", stub.Handler())
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting stub backend", "addr", *addr, "otp", *otp)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down stub backend")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
