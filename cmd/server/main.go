package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/auth"
	"github.com/moviehub/moviehub/internal/cache"
	"github.com/moviehub/moviehub/internal/catalog"
	"github.com/moviehub/moviehub/internal/config"
	httpserver "github.com/moviehub/moviehub/internal/http"
	"github.com/moviehub/moviehub/internal/mailer"
	"github.com/moviehub/moviehub/internal/repository"
	"github.com/moviehub/moviehub/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.MongoTimeoutSecs)*time.Second)
	defer cancel()

	// An unreachable database is not fatal; the API serves degraded
	// responses until the health check sees it come back.
	st, err := store.New(dbCtx, cfg.MongoURI, store.Options{
		Database:    cfg.MongoDatabase,
		ConnTimeout: time.Duration(cfg.MongoTimeoutSecs) * time.Second,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("init store", zap.Error(err))
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		st.Close(closeCtx)
	}()

	repo := repository.New(st)
	if st.Connected() {
		if err := repo.EnsureIndexes(dbCtx); err != nil {
			logger.Warn("ensure indexes failed", zap.Error(err))
		}
	}

	c := cache.New(ctx, cfg.RedisURL, logger)
	cat := catalog.New(repo.Movies, c, logger)
	tokens := auth.NewTokens(cfg.UserJWTSecret, cfg.AdminJWTSecret)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(mailer.SMTPConfig{
			Host:   cfg.SMTPHost,
			Port:   cfg.SMTPPort,
			User:   cfg.SMTPUser,
			Pass:   cfg.SMTPPass,
			From:   cfg.ResetEmailFrom,
			Secure: cfg.SMTPSecure,
		})
	} else {
		mail = mailer.NewLog(logger)
	}

	server := httpserver.New(cfg, st, repo, cat, tokens, mail, logger)
	logger.Info("server starting", zap.String("port", cfg.Port))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
