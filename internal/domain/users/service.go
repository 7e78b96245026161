package users

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/ports/auth"
	"taxi-pet/internal/schema"
	"taxi-pet/internal/security/password"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type Options struct {
	Registry  *schema.Registry
	Repo      records.Repository
	Passwords password.Config
	Tokens    auth.TokenIssuer
	// Verifier valida firma y vencimiento; Service.Verify agrega el chequeo contra el registro.
	Verifier  auth.AuthVerifier

	Providers []OAuthProvider
	States    StateStore
	StateTTL  time.Duration

	// RedirectURLs permitidas además de loopback (http://127.0.0.1:*, http://localhost:*).
	RedirectURLs []string

	Metrics AuthMetrics
	Logger  logger.Logger
}

// Service resuelve la autenticación contra la colección users.
// El CRUD de perfil pasa por records.Service con el Hook de este paquete.
type Service struct {
	reg       *schema.Registry
	repo      records.Repository
	passwords password.Config
	tokens    auth.TokenIssuer
	verifier  auth.AuthVerifier

	providers    map[string]OAuthProvider
	states       StateStore
	stateTTL     time.Duration
	redirectURLs []string

	metrics AuthMetrics
	log     logger.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(opts Options) *Service {
	s := &Service{
		reg:          opts.Registry,
		repo:         opts.Repo,
		passwords:    opts.Passwords,
		tokens:       opts.Tokens,
		verifier:     opts.Verifier,
		providers:    map[string]OAuthProvider{},
		states:       opts.States,
		stateTTL:     opts.StateTTL,
		redirectURLs: opts.RedirectURLs,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		now:          time.Now,
	}
	for _, p := range opts.Providers {
		s.providers[p.Name()] = p
	}
	if s.stateTTL <= 0 {
		s.stateTTL = 10 * time.Minute
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// Hook devuelve el hook de signup/cambio de password para records.Service.
func (s *Service) Hook() records.Hook {
	return hook{passwords: s.passwords}
}

func (s *Service) AuthMethods() AuthMethods {
	out := AuthMethods{Password: true, OAuth2: make([]ProviderInfo, 0, len(s.providers))}
	for _, p := range s.providers {
		out.OAuth2 = append(out.OAuth2, ProviderInfo{Name: p.Name(), DisplayName: p.DisplayName()})
	}
	sort.Slice(out.OAuth2, func(i, j int) bool { return out.OAuth2[i].Name < out.OAuth2[j].Name })
	return out
}

// AuthWithPassword nunca distingue "no existe" de "password incorrecta".
func (s *Service) AuthWithPassword(ctx context.Context, identity, pw string) (AuthResult, error) {
	c, err := s.collection()
	if err != nil {
		return AuthResult{}, err
	}

	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" || pw == "" {
		s.attempt("password", false)
		return AuthResult{}, ErrInvalidCredentials
	}

	rec, err := s.findByEmail(ctx, c, identity)
	if errors.Is(err, records.ErrNotFound) {
		// mismo costo que un usuario existente
		_, _ = s.passwords.Verify(s.dummy(), pw)
		s.attempt("password", false)
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}

	ok, err := s.passwords.Verify(rec.String("password"), pw)
	if err != nil || !ok {
		s.attempt("password", false)
		return AuthResult{}, ErrInvalidCredentials
	}

	s.attempt("password", true)
	return s.authResult(ctx, c, rec, nil)
}

// AuthRefresh emite un token nuevo para un usuario que sigue existiendo.
func (s *Service) AuthRefresh(ctx context.Context, userID string) (AuthResult, error) {
	c, err := s.collection()
	if err != nil {
		return AuthResult{}, err
	}
	rec, err := s.repo.Get(ctx, c, userID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	return s.authResult(ctx, c, rec, nil)
}

// Verify acepta un token sólo si el usuario sigue existiendo y el tokenKey
// coincide con el actual (cambio de password o baja revocan todo).
func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if s.verifier == nil {
		return auth.Claims{}, ErrTokenRevoked
	}
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return auth.Claims{}, err
	}
	c, err := s.collection()
	if err != nil {
		return auth.Claims{}, err
	}
	if claims.Collection != "" && claims.Collection != c.Name {
		return auth.Claims{}, ErrTokenRevoked
	}
	rec, err := s.repo.Get(ctx, c, claims.UserID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return auth.Claims{}, ErrTokenRevoked
		}
		return auth.Claims{}, err
	}
	key := rec.String("tokenKey")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(claims.TokenKey)) != 1 {
		return auth.Claims{}, ErrTokenRevoked
	}
	return claims, nil
}

// StartOAuth2 genera state + PKCE verifier y devuelve la URL del proveedor.
func (s *Service) StartOAuth2(ctx context.Context, provider, redirectURL string) (OAuthStart, error) {
	p, ok := s.providers[provider]
	if !ok {
		return OAuthStart{}, ErrUnknownProvider
	}
	if s.states == nil {
		return OAuthStart{}, fmt.Errorf("oauth2 state store not configured")
	}
	if !s.redirectAllowed(redirectURL) {
		return OAuthStart{}, ErrRedirectNotAllowed
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	entry := StateEntry{
		Provider:    provider,
		Verifier:    verifier,
		RedirectURL: redirectURL,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.states.Save(ctx, state, entry, s.stateTTL); err != nil {
		return OAuthStart{}, fmt.Errorf("save oauth2 state: %w", err)
	}

	return OAuthStart{
		Provider: provider,
		State:    state,
		AuthURL:  p.AuthURL(state, verifier, redirectURL),
	}, nil
}

// AuthWithOAuth2 completa el flujo: consume el state, intercambia el code
// y busca o crea el usuario por email.
func (s *Service) AuthWithOAuth2(ctx context.Context, provider, code, state string) (AuthResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return AuthResult{}, ErrUnknownProvider
	}
	if s.states == nil || strings.TrimSpace(state) == "" || strings.TrimSpace(code) == "" {
		return AuthResult{}, ErrInvalidState
	}

	entry, err := s.states.Take(ctx, state)
	if err != nil || entry.Provider != provider {
		s.attempt("oauth2", false)
		return AuthResult{}, ErrInvalidState
	}

	ext, err := p.Exchange(ctx, code, entry.Verifier, entry.RedirectURL)
	if err != nil {
		s.attempt("oauth2", false)
		s.log.Warn("oauth2 exchange failed", map[string]any{"provider": provider, "err": err})
		return AuthResult{}, fmt.Errorf("%w: %v", ErrProviderExchange, err)
	}
	email := strings.ToLower(strings.TrimSpace(ext.Email))
	if email == "" {
		s.attempt("oauth2", false)
		return AuthResult{}, fmt.Errorf("%w: provider returned no email", ErrProviderExchange)
	}

	c, err := s.collection()
	if err != nil {
		return AuthResult{}, err
	}

	rec, err := s.findByEmail(ctx, c, email)
	isNew := false
	switch {
	case errors.Is(err, records.ErrNotFound):
		rec, err = s.createExternal(ctx, c, email, ext)
		if err != nil {
			return AuthResult{}, err
		}
		isNew = true
	case err != nil:
		return AuthResult{}, err
	case ext.EmailVerified && rec["verified"] != true:
		rec["verified"] = true
		c.Touch(rec, s.now().UTC(), false)
		if err := s.repo.Update(ctx, c, rec); err != nil {
			return AuthResult{}, err
		}
	}

	s.attempt("oauth2", true)
	return s.authResult(ctx, c, rec, &OAuthMeta{Provider: provider, IsNew: isNew})
}

// createExternal da de alta un usuario federado. El perfil (teléfono, cpf,
// dirección) queda vacío hasta el primer update, que sí valida todo.
func (s *Service) createExternal(ctx context.Context, c *schema.Collection, email string, ext ExternalUser) (schema.Record, error) {
	random, err := randomSecret()
	if err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(random)
	if err != nil {
		return nil, err
	}
	key, err := randomSecret()
	if err != nil {
		return nil, err
	}

	name := ext.GivenName
	if name == "" {
		name = ext.Name
	}
	rec := schema.Record{
		"id":       schema.NewID(),
		"email":    email,
		"password": hash,
		"verified": ext.EmailVerified,
		"name":     name,
		"surname":  ext.FamilyName,
		"tokenKey": key,
	}
	c.Touch(rec, s.now().UTC(), true)

	if err := s.repo.Insert(ctx, c, rec); err != nil {
		return nil, err
	}
	s.log.Info("user created from oauth2", map[string]any{"user_id": rec.ID()})
	return rec, nil
}

func (s *Service) authResult(ctx context.Context, c *schema.Collection, rec schema.Record, meta *OAuthMeta) (AuthResult, error) {
	token, err := s.tokens.Issue(ctx, auth.Claims{
		UserID:     rec.ID(),
		Email:      rec.String("email"),
		Collection: c.Name,
		TokenKey:   rec.String("tokenKey"),
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, Record: records.Present(c, rec), Meta: meta}, nil
}

func (s *Service) findByEmail(ctx context.Context, c *schema.Collection, email string) (schema.Record, error) {
	recs, err := s.repo.List(ctx, c, schema.Query{Conditions: []schema.Condition{
		{Field: "email", Op: schema.CondEq, Value: email},
	}})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, records.ErrNotFound
	}
	return recs[0], nil
}

func (s *Service) collection() (*schema.Collection, error) {
	c, err := s.reg.Find(Collection)
	if err != nil {
		return nil, fmt.Errorf("users collection: %w", err)
	}
	return c, nil
}

// redirectAllowed acepta loopback (clientes CLI/desktop) o las URLs configuradas.
func (s *Service) redirectAllowed(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	for _, allowed := range s.redirectURLs {
		if raw == allowed {
			return true
		}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}

func (s *Service) attempt(method string, ok bool) {
	if s.metrics == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	s.metrics.AuthAttempt(method, outcome)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.passwords.Hash("taxi-pet-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
