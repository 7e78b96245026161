package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "taxi-pet/docs"
	"taxi-pet/internal/adapters/auth/jwtauth"
	mem "taxi-pet/internal/adapters/storage/memory"
	pg "taxi-pet/internal/adapters/storage/postgres"
	"taxi-pet/internal/domain/pets"
	"taxi-pet/internal/domain/ratings"
	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/domain/searchhistory"
	"taxi-pet/internal/domain/users"
	"taxi-pet/internal/middleware"
	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/platform/metrics"
	"taxi-pet/internal/platform/respond"
	"taxi-pet/internal/ports/auth"
	"taxi-pet/internal/ports/blobs"
	"taxi-pet/internal/schema"
	"taxi-pet/internal/schema/migrations"
	"taxi-pet/internal/security/password"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Tokens firma y verifica tokens de sesión (jwtauth.Signer).
type Tokens interface {
	auth.TokenIssuer
	auth.AuthVerifier
}

type Options struct {
	Logger  logger.Logger
	Metrics *metrics.Metrics // nil = sin /metrics

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcionales; nil => implementación en memoria.
	Blobs  blobs.Store
	States users.StateStore

	// nil => jwtauth con secreto efímero.
	Tokens    Tokens
	Passwords *password.Config

	Providers    []users.OAuthProvider
	RedirectURLs []string
	StateTTL     time.Duration

	// DevAuth acepta X-Debug-User-ID como identidad.
	DevAuth bool
}

// NewRouter aplica las migraciones y arma el handler HTTP.
func NewRouter(ctx context.Context, opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	tokens := opts.Tokens
	if tokens == nil {
		s, err := jwtauth.New("", 14*24*time.Hour)
		if err != nil {
			return nil, err
		}
		tokens = s
	}
	pwCfg := password.DefaultConfig()
	if opts.Passwords != nil {
		pwCfg = *opts.Passwords
	}
	store := opts.Blobs
	if store == nil {
		store = mem.NewBlobStore()
	}
	states := opts.States
	if states == nil {
		states = mem.NewOAuthStates()
	}

	// Registry + storage
	reg := schema.NewRegistry()
	var (
		repo    records.Repository
		ledger  schema.Ledger
		storage schema.Storage
	)
	if opts.DB != nil {
		l := pg.NewLedger(opts.DB)
		if err := l.Ensure(ctx); err != nil {
			return nil, err
		}
		ledger, storage = l, pg.NewSchemaStorage(opts.DB)
		repo = pg.NewRecordsRepo(opts.DB)
	} else {
		repo = mem.NewRecordsRepo()
	}

	fresh, err := schema.NewMigrator(reg, ledger, storage, log, migrations.All()).Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	opts.Metrics.MigrationsApplied(len(fresh))

	// Services por módulo
	usersSvc := users.NewService(users.Options{
		Registry:     reg,
		Repo:         repo,
		Passwords:    pwCfg,
		Tokens:       tokens,
		Verifier:     tokens,
		Providers:    opts.Providers,
		States:       states,
		StateTTL:     opts.StateTTL,
		RedirectURLs: opts.RedirectURLs,
		Metrics:      opts.Metrics,
		Logger:       log,
	})
	recordsSvc := records.NewService(reg, repo, store, log)
	recordsSvc.Use(users.Collection, usersSvc.Hook())
	recordsSvc.Use(pets.Collection, pets.Hook{})
	recordsSvc.Use(ratings.Collection, ratings.Hook{})
	recordsSvc.Use(searchhistory.Collection, searchhistory.Hook{})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if len(reg.Settings().TrustedProxyHeaders) > 0 {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recover(log))
	r.Use(middleware.AuthContext(usersSvc, opts.DevAuth))
	r.Use(middleware.RequestLog(log))
	r.Use(opts.Metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed.", nil)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]any{"status": http.StatusOK, "message": "API is healthy."})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc)
	records.RegisterRoutes(r, recordsSvc)

	log.Info("router ready", map[string]any{
		"collections": reg.Names(),
		"postgres":    opts.DB != nil,
		"dev_auth":    opts.DevAuth,
	})
	return r, nil
}
