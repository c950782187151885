package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/httpserver"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/repo/redisreset"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/pkg/hash"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	loggingmw "github.com/Skotchmaster/bookstore/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	if cfg.WeakSigningKey() {
		logger.Warn("weak_signing_key", "min_len", 32)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if cfg.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	hasher, err := hash.New(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		return err
	}
	signer, err := tokens.NewSigner(tokens.SignerConfig{
		Key:      []byte(cfg.JWT.SigningKey),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})
	if err != nil {
		return err
	}

	resets, err := resetStore(ctx, cfg, gdb)
	if err != nil {
		return err
	}

	notifier, closers, err := notifiers(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("notifier_close", "error", err)
			}
		}
	}()

	users := &repo.UserRepo{DB: gdb}
	admins := &repo.AdminRepo{DB: gdb}
	tokenSvc := &service.TokenService{Signer: signer, Store: &repo.RefreshTokenRepo{DB: gdb}}
	resetSvc := &service.ResetService{
		Users:       users,
		Admins:      admins,
		Resets:      resets,
		Hasher:      hasher,
		Sessions:    tokenSvc,
		Notifier:    notifier,
		AdminSecret: cfg.AdminSecretKey,
		ResetURL:    cfg.ResetPasswordURL,
	}

	accountSvc := &service.AccountService{
		Users:    users,
		Admins:   admins,
		Hasher:   hasher,
		Sessions: tokenSvc,
		Notifier: notifier,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Auth: &service.AuthService{
				Users:       users,
				Admins:      admins,
				Hasher:      hasher,
				AdminSecret: cfg.AdminSecretKey,
				Notifier:    notifier,
			},
			Tokens:      tokenSvc,
			Resets:      resetSvc,
			Accounts:    accountSvc,
			Development: cfg.IsDevelopment(),
		},
		Validator: signer,
		Ready: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
	})

	go purgeResets(ctx, resetSvc, cfg.ResetPurgeInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown", "error", err)
	}
	logger.Info("stopped")
	return nil
}

func resetStore(ctx context.Context, cfg *config.Config, gdb *gorm.DB) (service.PasswordResetStore, error) {
	if cfg.ResetStore != config.ResetStoreRedis {
		return &repo.PasswordResetRepo{DB: gdb}, nil
	}
	client, err := redisreset.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	return redisreset.New(client), nil
}

func notifiers(cfg *config.Config, logger *slog.Logger) (service.Notifier, []io.Closer, error) {
	var (
		out     events.Multi
		closers []io.Closer
	)
	if cfg.NotifierEnabled(config.NotifierLog) {
		out = append(out, &events.LogNotifier{})
	}
	if cfg.NotifierEnabled(config.NotifierKafka) {
		k := events.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		out = append(out, k)
		closers = append(closers, k)
	}
	if cfg.NotifierEnabled(config.NotifierAMQP) {
		q, err := events.NewMailQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.ResetQueue)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, err
		}
		out = append(out, q)
		closers = append(closers, q)
	}
	logger.Info("notifiers", "enabled", cfg.Notifiers)
	return out, closers, nil
}

func purgeResets(ctx context.Context, svc *service.ResetService, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := svc.PurgeExpired(ctx); err != nil {
				logging.FromContext(ctx).Warn("purge_failed", "error", err)
			}
		}
	}
}
