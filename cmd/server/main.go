package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"contact-server/internal/captcha"
	"contact-server/internal/config"
	httpServer "contact-server/internal/infrastructure/http"
	"contact-server/internal/logger"
	"contact-server/internal/mailer"
	"contact-server/internal/ratelimit"
	"contact-server/internal/usecase"
)

func main() {
	// Local development convenience; deployments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Captcha.Secret == "" {
		zapLogger.Warn("No captcha signing secret configured; challenge issuance will fail")
	}

	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	store := newRateLimitStore(cfg, window, zapLogger)
	guard := ratelimit.NewGuard(store, window, cfg.RateLimit.MaxSubmissions, zapLogger)

	captchaSvc := captcha.NewService(cfg.Captcha.Secret)
	contactSvc := usecase.NewContactService(captchaSvc, guard, newMailer(cfg, zapLogger), cfg.Email, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httpServer.NewServer(cfg, zapLogger, contactSvc)
	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	zapLogger.Info("Server shut down successfully")
}

// newRateLimitStore picks the sliding-window backend. Redis carries the
// counters across restarts and replicas; memory is the single-instance
// default.
func newRateLimitStore(cfg *config.Config, window time.Duration, zapLogger *zap.Logger) ratelimit.Store {
	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	zapLogger.Info("Rate limiting backed by redis", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedisStore(client, 2*window)
}

// newMailer selects the configured delivery provider. Returning nil is
// deliberate: the pipeline still serves challenges and reports a
// configuration error on submit.
func newMailer(cfg *config.Config, zapLogger *zap.Logger) mailer.Mailer {
	switch {
	case cfg.Email.Provider == "smtp" && cfg.Email.SMTP.Host != "":
		zapLogger.Info("Email delivery via SMTP", zap.String("host", cfg.Email.SMTP.Host))
		return mailer.NewSMTPMailer(cfg.Email.SMTP.Host, cfg.Email.SMTP.Port, cfg.Email.SMTP.Username, cfg.Email.SMTP.Password, zapLogger)
	case cfg.Email.ResendAPIKey != "":
		zapLogger.Info("Email delivery via Resend")
		return mailer.NewResendMailer(cfg.Email.ResendAPIKey, zapLogger)
	default:
		zapLogger.Warn("No email provider configured; submissions will be rejected")
		return nil
	}
}
