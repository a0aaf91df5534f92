// Command dispatch runs one dispatch pass. It is meant to be invoked by cron or
// another external scheduler: with -id it dispatches a single sending,
// otherwise every launched, active sending whose scheduled time has passed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/config"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/database"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/mail"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/pkg/distlock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/trigger"
)

func main() {
	sendingID := flag.Uint("id", 0, "dispatch only this sending")
	flag.Parse()

	if err := run(*sendingID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(sendingID uint) error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = distlock.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	transport := mail.NewSMTPTransport(mail.SMTPConfig{
		Host:          cfg.EmailHost,
		Port:          cfg.EmailPort,
		Username:      cfg.EmailHostUser,
		Password:      cfg.EmailHostPassword,
		UseTLS:        cfg.EmailUseTLS,
		SkipTLSVerify: cfg.EmailSkipTLSVerify,
	})
	dispatcher := sending.NewDispatcher(transport, repository.NewEventRepository(db), cfg.EmailFrom, log)
	trig := trigger.New(
		repository.NewSendingRepository(db),
		dispatcher,
		distlock.NewLocker(redisClient, sqlDB, cfg.DispatchLockTTL),
		log,
	)

	var results []*sending.Result
	if sendingID != 0 {
		result, dispatchErr := trig.DispatchOne(ctx, sendingID)
		if result != nil {
			results = append(results, result)
		}
		err = dispatchErr
	} else {
		results, err = trig.DispatchDue(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(results); encErr != nil {
		log.Error("failed to write results", slog.Any("error", encErr))
	}
	return err
}
