// Command stubserver runs the in-memory Talent Verify backend for local
// development and demos. It is seeded with the demo accounts printed at
// startup.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/config"
	"github.com/Tawa-dev/TalentVerify/internal/stub"
)

func main() {
	cfg := config.LoadStub()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := stub.NewServer(stub.Config{
		Secret:     cfg.Secret,
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("stub backend listening", "addr", cfg.Addr)
		logger.Info("seeded account", "email", "staff@talentverify.example", "password", "verify-staff")
		logger.Info("seeded account", "email", "admin@acme.example", "password", "acme-admin")
		logger.Info("seeded account", "email", "hr@acme.example", "password", "acme-staff")
		logger.Info("seeded account", "email", "viewer@example.com", "password", "viewer")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
