package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taxi-pet/internal/adapters/auth/federated"
	"taxi-pet/internal/adapters/auth/jwtauth"
	"taxi-pet/internal/adapters/blobs/s3store"
	pg "taxi-pet/internal/adapters/storage/postgres"
	"taxi-pet/internal/adapters/storage/redisstore"
	"taxi-pet/internal/domain/users"
	"taxi-pet/internal/platform/config"
	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/platform/metrics"
	"taxi-pet/internal/router"
	"taxi-pet/internal/security/password"
)

// @title Taxi Pet API
// @version 1.0
// @description Backend de Taxi Pet: usuarios, mascotas, calificaciones e historial de búsqueda.
// @BasePath /
func main() {
	log := logger.NewFromEnv()
	if err := run(log); err != nil {
		log.Error("server stopped", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(log logger.Logger) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Logger:    log,
		Metrics:   metrics.New(),
		Passwords: &pwCfg,
		StateTTL:  cfg.OAuthStateTTL,
		DevAuth:   cfg.DevAuth,
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Warn("JWT_SECRET not set; using an ephemeral secret", nil)
	}
	tokens, err := jwtauth.New(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	opts.Tokens = tokens

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.DB = db
	} else {
		log.Warn("DB_DSN not set; records are kept in memory", nil)
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.States = redisstore.NewOAuthStates(rdb)
	}

	if cfg.S3Bucket != "" {
		store, err := s3store.New(ctx, s3store.Options{Bucket: cfg.S3Bucket, Prefix: cfg.S3Prefix, Endpoint: cfg.S3Endpoint})
		if err != nil {
			return err
		}
		opts.Blobs = store
	}

	if cfg.GoogleEnabled() {
		g, err := federated.NewGoogle(federated.GoogleOptions{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
		})
		if err != nil {
			return err
		}
		opts.Providers = []users.OAuthProvider{g}
		if cfg.GoogleRedirectURL != "" {
			opts.RedirectURLs = []string{cfg.GoogleRedirectURL}
		}
	}

	h, err := router.NewRouter(ctx, opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
