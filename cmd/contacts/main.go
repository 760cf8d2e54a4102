package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contacts_api/internal/auth"
	"contacts_api/internal/config"
	"contacts_api/internal/contacts"
	"contacts_api/internal/http_server/router"
	"contacts_api/internal/lib/avatar"
	"contacts_api/internal/lib/jwt"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/lib/verification"
	"contacts_api/internal/mailer"
	"contacts_api/internal/rabbitmq"
	"contacts_api/internal/storage/files"
	"contacts_api/internal/storage/memory"
	"contacts_api/internal/storage/minio"
	"contacts_api/internal/storage/postgres"
)

// store is everything the services need from a directory backend.
type store interface {
	auth.UserSaver
	auth.UserProvider
	contacts.Store
}

type avatarStore interface {
	auth.AvatarStore
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

func main() {
	cfg := config.MustLoad("")

	log := setupLogger(cfg.Env)

	log.Info("starting contacts service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, closeStorage, err := setupStorage(ctx, log, cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer closeStorage()

	publisher, closePublisher, err := setupPublisher(cfg)
	if err != nil {
		log.Error("failed to init email transport", sl.Err(err))
		os.Exit(1)
	}
	defer closePublisher()

	avatars, err := setupAvatars(ctx, cfg)
	if err != nil {
		log.Error("failed to init avatar storage", sl.Err(err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Avatars.TempDir, 0o755); err != nil {
		log.Error("failed to create temp dir", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(
		log,
		storage,
		storage,
		jwt.New(cfg.Tokens.SessionTokenSecret, cfg.Tokens.SessionTokenTTL),
		publisher,
		avatar.Resizer{MaxPixels: cfg.Avatars.MaxPixels},
		avatars,
		auth.Options{
			BaseURL:      cfg.Verification.BaseURL,
			PasswordCost: cfg.Password.Cost,
			AvatarSize:   cfg.Avatars.Size,
		},
	)

	contactsService := contacts.New(log, storage)

	srv := &http.Server{
		Addr: cfg.HTTPServer.Address,
		Handler: router.New(log, router.Deps{
			Auth:          authService,
			Contacts:      contactsService,
			Avatars:       avatars,
			TempDir:       cfg.Avatars.TempDir,
			MaxUploadSize: cfg.HTTPServer.MaxUploadSize,
		}),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupStorage(ctx context.Context, log *slog.Logger, cfg *config.Config) (store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")

		return memory.New(), func() {}, nil
	case config.StoragePostgres:
		repo, err := postgres.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}

		if err := repo.Migrate(ctx); err != nil {
			repo.Close()

			return nil, nil, err
		}

		log.Info("postgres migrations applied")

		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func setupPublisher(cfg *config.Config) (verification.Publisher, func(), error) {
	switch cfg.Email.Transport {
	case config.TransportRabbitMQ:
		msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			return nil, nil, err
		}

		return msgBroker, msgBroker.Close, nil
	case config.TransportSMTP:
		return newMailer(cfg), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown email transport %q", cfg.Email.Transport)
	}
}

func newMailer(cfg *config.Config) *mailer.Mailer {
	return &mailer.Mailer{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}
}

func setupAvatars(ctx context.Context, cfg *config.Config) (avatarStore, error) {
	switch cfg.Avatars.Backend {
	case config.AvatarsLocal:
		return files.New(cfg.Avatars.Dir)
	case config.AvatarsMinio:
		return minio.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.Bucket,
			cfg.Minio.UseSSL,
		)
	default:
		return nil, fmt.Errorf("unknown avatars backend %q", cfg.Avatars.Backend)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
		log.Warn("unknown env, using prod logger", slog.String("env", env))
	}

	return log
}
