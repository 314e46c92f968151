package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"moment/api"
	"moment/internal"
	"moment/runtime"
	"moment/runtime/workers"
	"moment/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.GetLoggerFromString(config.LogLevel)

	// 2. Room engine composition. The store is an explicit object
	// passed by reference to every component; no package globals.
	registry := runtime.NewRegistry(logger, config.RoomCapacity)
	presence := runtime.NewPresence(registry, logger)
	voting := runtime.NewVoting(registry, logger)
	limiter := runtime.NewRateLimiter(config.RateLimitInterval)

	hub := api.NewHub(logger)
	sanitizer := services.NewMessages(config.MaxContentLength)
	roomService := services.NewRoomService(logger, registry, presence, voting, limiter, sanitizer, hub)

	// 3. Background scheduler under supervision
	scheduler := workers.NewExpiryScheduler(
		logger, registry, presence, voting, hub,
		config.TickInterval, config.AwayAfter, config.EvictAfter,
	)
	sup := workers.NewSupervisor(logger)
	sup.Add(scheduler)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 5. HTTP/WebSocket server
	server := api.NewServer(logger, roomService, hub)
	errChan := make(chan error, 1)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	go func() {
		logger.Info("Starting server", "address", address)
		if err := server.Listen(address); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown: stop taking requests, halt future ticks,
	// and let in-flight work complete.
	logger.Info("Shutting down gracefully...")
	if err := server.Shutdown(); err != nil {
		logger.Warn("Server shutdown error", "err", err)
	}
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
