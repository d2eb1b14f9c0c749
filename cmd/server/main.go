package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/config"
	"github.com/example/bozor/internal/database"
	"github.com/example/bozor/internal/logger"
	"github.com/example/bozor/internal/routes"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	_, closer, err := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	defer closer.Close()

	if err := utils.ConfigurePhonePattern(cfg.PhonePattern); err != nil {
		log.Fatal().Err(err).Msg("invalid PHONE_PATTERN")
	}
	utils.ConfigureOTPDigits(cfg.OTPDigits)

	db, err := database.Connect(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Seed(ctx, db, database.SeedConfig{
		Region:        cfg.SeedRegion,
		AdminPhone:    cfg.SeedAdminPhone,
		AdminEmail:    cfg.SeedAdminEmail,
		AdminPassword: cfg.SeedAdminPassword,
	}); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}

	tokens, err := newTokenStore(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("refresh token store")
	}

	deps := routes.Dependencies{
		DB:        db,
		Config:    cfg,
		Tokens:    tokens,
		OTPSender: newOTPSender(cfg),
		Uploads:   services.NewUploadService(cfg.UploadDir, cfg.MaxUploadMB),
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChat != "" {
		deps.Notifier = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	}

	app := routes.NewApp(deps)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("fiber.Listen")
	}
}

// newTokenStore prefers Redis when REDIS_ADDR is set and falls back to the
// database table otherwise.
func newTokenStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (services.RefreshTokenStore, error) {
	if cfg.RedisAddr == "" {
		store := services.NewGormTokenStore(db)
		if n, err := store.PurgeExpired(ctx); err == nil && n > 0 {
			log.Info().Int64("purged", n).Msg("expired refresh tokens removed")
		}
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("refresh tokens stored in redis")
	return services.NewRedisTokenStore(client), nil
}

func newOTPSender(cfg *config.Config) services.OTPSender {
	var senders services.MultiOTPSender

	if mailer := services.NewMailer(cfg); mailer != nil {
		senders = append(senders, services.NewEmailOTPSender(mailer))
	}
	if cfg.EskizEnabled {
		eskiz := services.NewEskizClient(services.EskizConfig{
			BaseURL:  cfg.EskizBaseURL,
			Email:    cfg.EskizEmail,
			Password: cfg.EskizPassword,
			From:     cfg.EskizFrom,
		}, nil)
		senders = append(senders, services.NewSMSOTPSender(eskiz))
	}

	if len(senders) == 0 {
		log.Warn().Msg("no OTP delivery channel configured")
		return services.NoopOTPSender{}
	}
	return senders
}
