package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Flaviohmm/mei-backend/internal/auth"
	"github.com/Flaviohmm/mei-backend/internal/config"
	"github.com/Flaviohmm/mei-backend/internal/db"
	internalhttp "github.com/Flaviohmm/mei-backend/internal/http"
	httpmiddleware "github.com/Flaviohmm/mei-backend/internal/http/middleware"
	"github.com/Flaviohmm/mei-backend/internal/invoice"
	"github.com/Flaviohmm/mei-backend/internal/mail"
	"github.com/Flaviohmm/mei-backend/internal/repo"
	"github.com/Flaviohmm/mei-backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	} else {
		log.Warn().Msg("REDIS_URL não definido; tokens serão consultados sempre no banco")
	}

	var tokenCache *repo.TokenCache
	if redisClient != nil {
		tokenCache = repo.NewTokenCache(redisClient, cfg.TokenCacheTTL)
	}

	var mailer mail.Mailer
	if cfg.Email.Enabled() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			User:     cfg.Email.User,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
	} else {
		log.Warn().Msg("SMTP não configurado; e-mails serão apenas registrados no log")
		mailer = mail.NewLogMailer(log.Logger)
	}

	accounts := service.NewAccountService(service.AccountDeps{
		Repo:        repo.New(pool),
		Cache:       tokenCache,
		Signer:      auth.NewResetSigner(cfg.SecretKey, cfg.PasswordResetTTL),
		Mailer:      mailer,
		FrontendURL: cfg.FrontendURL,
		Logger:      log.Logger,
	})
	invoices := invoice.NewService(invoice.NewRepository(pool), log.Logger)

	handler := internalhttp.NewRouter(internalhttp.Dependencies{
		Config:   cfg,
		DB:       pool,
		Redis:    redisClient,
		Accounts: accounts,
		Invoices: invoices,
		Metrics:  httpmiddleware.NewMetrics(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
