// Command server runs the Mailcast HTTP API and, in development, an SMTP
// capture server that receives the campaign mail the API dispatches.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/redis/go-redis/v9"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/config"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/database"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/mail"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/pkg/distlock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/smtp"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/storage"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/trigger"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/websocket"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout     = 10 * time.Second
	rateLimitCleanup    = time.Minute
	rateLimitMaxIdle    = 10 * time.Minute
	captureOutboxLength = 500
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	security := logger.NewSecurityLogger()

	log.Info("Starting Mailcast Backend Server...")
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Optional Redis for dispatch locks
	var redisClient *redis.Client
	healthChecks := make(map[string]handlers.HealthCheck)
	if cfg.RedisURL != "" {
		redisClient, err = distlock.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	avatars, err := storage.NewLocalStorage(cfg.AvatarStoragePath)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Live feed
	hub := websocket.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	// Outbound mail goes to the capture server when it is enabled
	smtpCfg := mail.SMTPConfig{
		Host:          cfg.EmailHost,
		Port:          cfg.EmailPort,
		Username:      cfg.EmailHostUser,
		Password:      cfg.EmailHostPassword,
		UseTLS:        cfg.EmailUseTLS,
		SkipTLSVerify: cfg.EmailSkipTLSVerify,
	}
	var outbox *smtp.Outbox
	if cfg.SMTPCaptureEnabled {
		outbox = smtp.NewOutbox(captureOutboxLength)
		captureServer := smtp.NewSecureServer(smtp.NewBackend(&smtp.BackendConfig{
			Outbox:   outbox,
			Notifier: hub,
			Logger:   log,
		}), &smtp.ServerConfig{Addr: cfg.SMTPCaptureAddr})

		go func() {
			log.Info("SMTP capture server listening", slog.String("addr", cfg.SMTPCaptureAddr))
			if err := captureServer.ListenAndServe(); err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
				log.Error("SMTP capture server stopped", slog.Any("error", err))
			}
		}()
		defer captureServer.Close()

		smtpCfg, err = captureTransportConfig(cfg.SMTPCaptureAddr)
		if err != nil {
			return err
		}
	}

	dispatcher := sending.NewDispatcher(mail.NewSMTPTransport(smtpCfg), repository.NewEventRepository(db), cfg.EmailFrom, log)
	dispatcher.Notifier = hub
	trig := trigger.New(
		repository.NewSendingRepository(db),
		dispatcher,
		distlock.NewLocker(redisClient, sqlDB, cfg.DispatchLockTTL),
		log,
	)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx, rateLimitCleanup, rateLimitMaxIdle)

	scheduler := sending.NewScheduler(loc)
	e := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Logger:         log,
		Security:       security,
		Avatars:        avatars,
		Scheduler:      scheduler,
		Trigger:        trig,
		Hub:            hub,
		Outbox:         outbox,
		HealthChecks:   healthChecks,
		APIKey:         cfg.APIKey,
		AllowedOrigins: websocket.ParseOrigins(cfg.AllowedOrigins),
		AppEnv:         cfg.AppEnv,
		RateLimiter:    limiter,
	})

	addr := ":" + strconv.Itoa(cfg.APIPort)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// captureTransportConfig points outbound mail at the local capture server
func captureTransportConfig(addr string) (mail.SMTPConfig, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return mail.SMTPConfig{}, fmt.Errorf("invalid SMTP_CAPTURE_ADDR %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return mail.SMTPConfig{}, fmt.Errorf("invalid SMTP_CAPTURE_ADDR port %q: %w", portStr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return mail.SMTPConfig{Host: host, Port: port}, nil
}
