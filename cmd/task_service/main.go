package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task_service/internal/auth"
	"task_service/internal/config"
	"task_service/internal/handler"
	"task_service/internal/service"
	"task_service/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	//PARSE ARGS
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")

	flag.Parse()
	if configPath == "" {
		log.Fatal("failed get config path from flags")
	}

	cfg := config.MustLoadConfig(configPath)

	//INIT LOGGER
	lgr := setupLogger(cfg.Env)
	lgr.Info("starting task service", slog.String("env", cfg.Env), slog.String("storage", cfg.DB.Storage))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//INIT DB
	st, err := setupStorage(ctx, cfg)
	if err != nil {
		lgr.Error("failed to init storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	//INIT SERVICES
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.Auth.Secret,
		Algorithm:  cfg.Auth.Algorithm,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		lgr.Error("failed to init token service", slog.Any("error", err))
		os.Exit(1)
	}

	srvc := service.NewService(st, tokens, lgr)

	generated, err := srvc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		lgr.Error("failed to ensure admin account", slog.Any("error", err))
		os.Exit(1)
	}
	if generated != "" {
		lgr.Warn("generated bootstrap admin password, change it after first login",
			slog.String("email", cfg.Admin.Email),
			slog.String("password", generated),
		)
	}

	//INIT SERVER
	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler.NewHandler(srvc, lgr).InitRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		lgr.Info("http server listening", slog.String("address", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("http server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("failed to shutdown http server", slog.Any("error", err))
	}

	lgr.Info("task service stopped")
}

func setupStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.DB.Storage == config.StorageMemory {
		return storage.NewMemoryStorage(), nil
	}

	pg, err := storage.NewPostgresStorage(ctx, cfg.DB.DbURL)
	if err != nil {
		return nil, err
	}

	if cfg.DB.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}

	return pg, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
