package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/joho/godotenv"

	"github.com/openalpha/creator-staking/api"
	"github.com/openalpha/creator-staking/pkg/tracing"
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func main() {
	logger := log.NewLogger(os.Stdout).With("module", "main")

	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found, using process environment")
	}

	// Command line flags, defaulting from the environment
	host := flag.String("host", envOr("XSTAKE_API_HOST", "0.0.0.0"), "Server host")
	port := flag.Int("port", envInt("XSTAKE_API_PORT", 8080), "Server port")
	noRateLimit := flag.Bool("no-rate-limit", !envBool("XSTAKE_API_RATE_LIMIT", true), "Disable rate limiting")
	faucet := flag.Bool("faucet", envBool("XSTAKE_API_FAUCET", true), "Enable the test token faucet")
	otelEndpoint := flag.String("otel-endpoint", os.Getenv("XSTAKE_OTEL_ENDPOINT"), "OTLP/HTTP collector endpoint")
	flag.Parse()

	shutdownTracing, err := tracing.Init(context.Background(), *otelEndpoint, "xstake-api")
	if err != nil {
		logger.Error("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	config := api.DefaultConfig()
	config.Host = *host
	config.Port = *port
	config.DisableRateLimit = *noRateLimit
	config.EnableFaucet = *faucet

	server, err := api.NewServer(config, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("xstake API server started",
		"http", "http://"+*host+":"+strconv.Itoa(*port),
		"ws", "ws://"+*host+":"+strconv.Itoa(*port)+"/ws",
	)

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("server exited")
}
