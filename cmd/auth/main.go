package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/super-skeleton/auth-service/internal/config"
	"github.com/super-skeleton/auth-service/internal/db"
	"github.com/super-skeleton/auth-service/internal/events"
	"github.com/super-skeleton/auth-service/internal/hash"
	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/httpserver"
	"github.com/super-skeleton/auth-service/internal/logging"
	"github.com/super-skeleton/auth-service/internal/oauth"
	"github.com/super-skeleton/auth-service/internal/repo"
	"github.com/super-skeleton/auth-service/internal/service"
	"github.com/super-skeleton/auth-service/internal/tokens"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	accessTTL, err := tokens.ParseExpiry(cfg.AccessTokenExpiry)
	if err != nil {
		log.Fatalf("invalid ACCESS_TOKEN_EXPIRY: %v", err)
	}
	refreshTTL, err := tokens.ParseExpiry(cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("invalid REFRESH_TOKEN_EXPIRY: %v", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	minter := &tokens.Minter{AccessSecret: []byte(cfg.AccessTokenSecret)}
	dispatcher := hooks.New()

	svc := &service.AuthService{
		Repo:   repo.New(gdb),
		Hasher: hash.NewArgon2(),
		Tokens: minter,
		Hooks:  dispatcher,
		Opts: service.Options{
			AccessTokenTTL:           accessTTL,
			RefreshTokenTTL:          refreshTTL,
			RequireEmailVerification: cfg.RequireEmailVerification,
		},
	}

	if cfg.GoogleConfigured() {
		oidcCtx, oidcCancel := context.WithTimeout(context.Background(), 10*time.Second)
		exchanger, err := oauth.NewGoogleExchanger(oidcCtx, oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		oidcCancel()
		if err != nil {
			log.Fatalf("google oidc init error: %v", err)
		}
		svc.Google = exchanger
		logger.Info("google_federation_enabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher.Observe(dispatcher)
		defer publisher.Close()
		logger.Info("kafka_publisher_enabled", "topic", cfg.KafkaTopic)
	}

	if cfg.ESURL != "" {
		indexer, err := events.NewAuditIndexer(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer.Observe(dispatcher)
		logger.Info("audit_indexer_enabled")
	}

	// In development the one-time tokens are only reachable through the logs.
	if cfg.Env == "development" {
		for _, e := range []hooks.Event{hooks.EventUserRegistered, hooks.EventPasswordResetRequested, hooks.EventVerificationResent} {
			e := e
			dispatcher.On(e, func(ctx context.Context, p hooks.Payload) {
				logging.FromContext(ctx).Debug("one_time_token_issued", "event", string(e), "token", p.Token)
			})
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(echomw.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		OAuthHandler: &httpserver.OAuthHTTP{
			Svc:                svc,
			SuccessRedirectURL: cfg.GoogleSuccessRedirectURL,
			FailureRedirectURL: cfg.GoogleFailureRedirectURL,
		},
		Minter: minter,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_failed", "error", err)
	}
}
