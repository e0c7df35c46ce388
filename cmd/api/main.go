package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"inverter-simulator/internal/api"
	"inverter-simulator/internal/api/handlers"
	"inverter-simulator/internal/api/store"
	"inverter-simulator/internal/logging"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func gracefulShutdown(server *http.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down gracefully, press Ctrl+C again to force")

	// The server has 5 seconds to finish the requests it is currently handling.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	done <- true
}

func main() {
	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := store.DefaultTTL
	if s := os.Getenv("RESULT_TTL"); s != "" {
		if ttl, err = time.ParseDuration(s); err != nil {
			logger.Fatal("invalid RESULT_TTL", zap.String("value", s), zap.Error(err))
		}
	}
	maxResults := 100
	if s := os.Getenv("RESULT_MAX"); s != "" {
		if maxResults, err = strconv.Atoi(s); err != nil {
			logger.Fatal("invalid RESULT_MAX", zap.String("value", s), zap.Error(err))
		}
	}
	var origins []string
	if s := os.Getenv("CORS_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	router := api.NewRouter(api.Deps{
		Logger:         logger,
		Results:        store.New(ttl, maxResults),
		BatteryDir:     handlers.ResolveBatteryDir(),
		AllowedOrigins: origins,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	done := make(chan bool, 1)
	go gracefulShutdown(server, logger, done)

	logger.Info("starting API server", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server error", zap.Error(err))
	}

	<-done
	logger.Info("graceful shutdown complete")
}
