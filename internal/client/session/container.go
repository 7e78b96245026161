// Package session mantiene el estado de autenticación del cliente:
// quién es el usuario actual y con qué token habla con la API.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taxi-pet/internal/client/api"
	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/security/password"
)

const usersCollection = "users"

type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Backend es lo que el contenedor necesita de la API (*api.Client lo cumple).
type Backend interface {
	AuthWithPassword(ctx context.Context, identity, password string) (api.AuthResponse, error)
	AuthRefresh(ctx context.Context) (api.AuthResponse, error)
	StartOAuth2(ctx context.Context, provider, redirectURL string) (api.OAuthStart, error)
	AuthWithOAuth2(ctx context.Context, provider, code, state string) (api.AuthResponse, error)
	CreateRecord(ctx context.Context, collection string, rec api.Record) (api.Record, error)
	UpdateRecord(ctx context.Context, collection, id string, rec api.Record) (api.Record, error)
}

// Callback es lo que devuelve el proveedor al redirect.
type Callback struct {
	Code  string
	State string
	Error string
}

// Redirector lleva al usuario al proveedor y espera el callback.
type Redirector interface {
	RedirectURL() string
	Open(ctx context.Context, authURL string) error
	Wait(ctx context.Context) (Callback, error)
}

// Snapshot es lo que reciben los suscriptores en cada cambio.
type Snapshot struct {
	State    State
	Identity api.Record
}

type Options struct {
	Backend    Backend
	Store      TokenStore
	Redirector Redirector
	Logger     logger.Logger
	Now        func() time.Time
}

// Container es el único escritor del estado de sesión.
// Token e identidad se escriben siempre juntos bajo mu.
type Container struct {
	backend  Backend
	store    TokenStore
	redirect Redirector
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	token    string
	identity api.Record
	// epoch sube con cada logout; una respuesta pedida en un epoch viejo se descarta.
	epoch    uint64
	// version sube con cada escritura de estado; Init no pisa lo que cambió mientras leía.
	version  uint64

	subs     map[int]func(Snapshot)
	nextSub  int
	// pending se entrega en orden de escritura; un solo goroutine drena a la vez.
	pending  []Snapshot
	draining bool
}

func New(opts Options) *Container {
	c := &Container{
		backend:  opts.Backend,
		store:    opts.Store,
		redirect: opts.Redirector,
		log:      opts.Logger,
		now:      opts.Now,
		state:    Uninitialized,
		subs:     map[int]func(Snapshot){},
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Init lee el slot persistido. Sólo local: no valida contra el servidor.
func (c *Container) Init() {
	c.mu.Lock()
	c.state = Loading
	version := c.version
	c.mu.Unlock()

	p, ok, err := c.store.Load()
	if err != nil {
		c.log.Warn("session load failed", map[string]any{"error": err})
	}

	c.mu.Lock()
	if version != c.version {
		// un login o logout terminó durante la lectura y ya dejó su estado
		c.mu.Unlock()
		return
	}
	if err == nil && ok && c.usable(p) {
		c.token, c.identity, c.state = p.Token, p.Identity, Authenticated
	} else {
		c.token, c.identity, c.state = "", nil, Anonymous
		if ok || err != nil {
			if cerr := c.store.Clear(); cerr != nil {
				c.log.Warn("session clear failed", map[string]any{"error": cerr})
			}
		}
	}
	c.publishLocked()
	c.mu.Unlock()

	c.flush()
}

// usable: JWT bien formado, no vencido, y con identidad.
func (c *Container) usable(p Persisted) bool {
	if strings.TrimSpace(p.Token) == "" || p.Identity.ID() == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.Token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return c.now().Before(exp.Time)
}

func (c *Container) Login(ctx context.Context, email, secret string) (api.Record, error) {
	epoch := c.currentEpoch()

	res, err := c.backend.AuthWithPassword(ctx, strings.TrimSpace(email), secret)
	if err != nil {
		return nil, err
	}
	if err := c.commit(ctx, epoch, res.Token, res.Record); err != nil {
		return nil, err
	}
	c.log.Info("logged in", map[string]any{"user_id": res.Record.ID()})
	return res.Record, nil
}

// LoginWithProvider corre el flujo federado en background y llama a
// onSuccess u onError (nunca a ambos) al terminar.
func (c *Container) LoginWithProvider(ctx context.Context, provider string, onSuccess func(api.Record), onError func(error)) {
	go func() {
		rec, err := c.loginWithProvider(ctx, provider)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(rec)
		}
	}()
}

func (c *Container) loginWithProvider(ctx context.Context, provider string) (api.Record, error) {
	if c.redirect == nil {
		return nil, ErrNoRedirector
	}
	epoch := c.currentEpoch()

	start, err := c.backend.StartOAuth2(ctx, provider, c.redirect.RedirectURL())
	if err != nil {
		return nil, err
	}
	if err := c.redirect.Open(ctx, start.AuthURL); err != nil {
		return nil, err
	}
	cb, err := c.redirect.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if cb.Error != "" {
		return nil, errors.Join(ErrProviderDenied, errors.New(cb.Error))
	}
	if cb.State != start.State {
		return nil, ErrStateMismatch
	}

	res, err := c.backend.AuthWithOAuth2(ctx, provider, cb.Code, cb.State)
	if err != nil {
		return nil, err
	}
	if err := c.commit(ctx, epoch, res.Token, res.Record); err != nil {
		return nil, err
	}
	c.log.Info("logged in", map[string]any{"user_id": res.Record.ID(), "provider": provider})
	return res.Record, nil
}

// Signup valida la password localmente, crea la cuenta y hace login.
func (c *Container) Signup(ctx context.Context, fields api.Record) (api.Record, error) {
	pw := fields.String("password")
	if vs, mismatch := password.Validate(pw), pw != fields.String("passwordConfirm"); len(vs) > 0 || mismatch {
		return nil, &PolicyError{Violations: vs, Mismatch: mismatch}
	}
	epoch := c.currentEpoch()

	created, err := c.backend.CreateRecord(ctx, usersCollection, fields)
	if err != nil {
		return nil, err
	}

	email := fields.String("email")
	if e := created.String("email"); e != "" {
		email = e
	}
	res, err := c.backend.AuthWithPassword(ctx, email, pw)
	if err != nil {
		c.log.Warn("auto login after signup failed", map[string]any{"user_id": created.ID(), "error": err})
		return nil, &AutoLoginError{Identity: created, Err: err}
	}
	if err := c.commit(ctx, epoch, res.Token, res.Record); err != nil {
		// la cuenta existe aunque la sesión no se haya aplicado
		return nil, &AutoLoginError{Identity: created, Err: err}
	}
	c.log.Info("signed up", map[string]any{"user_id": res.Record.ID()})
	return res.Record, nil
}

// Logout siempre funciona, desde cualquier estado.
func (c *Container) Logout() {
	c.mu.Lock()
	c.epoch++
	c.token, c.identity, c.state = "", nil, Anonymous
	if err := c.store.Clear(); err != nil {
		c.log.Warn("session clear failed", map[string]any{"error": err})
	}
	c.publishLocked()
	c.mu.Unlock()

	c.flush()
}

// UpdateProfile actualiza un registro de users; si es el propio, refresca la identidad.
func (c *Container) UpdateProfile(ctx context.Context, id string, fields api.Record) (api.Record, error) {
	c.mu.Lock()
	epoch, authed := c.epoch, c.state == Authenticated
	c.mu.Unlock()
	if !authed {
		return nil, ErrNotAuthenticated
	}

	rec, err := c.backend.UpdateRecord(ctx, usersCollection, id, fields)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return nil, ctx.Err()
	}
	if epoch != c.epoch {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	if c.state == Authenticated && c.identity.ID() == rec.ID() {
		c.identity = rec
		c.persistLocked()
		c.publishLocked()
	}
	c.mu.Unlock()

	c.flush()
	return rec, nil
}

// Refresh renueva el token; si el servidor lo rechaza, cierra la sesión.
func (c *Container) Refresh(ctx context.Context) (api.Record, error) {
	c.mu.Lock()
	epoch, authed := c.epoch, c.state == Authenticated
	c.mu.Unlock()
	if !authed {
		return nil, ErrNotAuthenticated
	}

	res, err := c.backend.AuthRefresh(ctx)
	if err != nil {
		if ae, ok := api.AsError(err); ok && ae.IsUnauthorized() && c.currentEpoch() == epoch {
			c.log.Info("token rejected, logging out", nil)
			c.Logout()
		}
		return nil, err
	}
	if err := c.commit(ctx, epoch, res.Token, res.Record); err != nil {
		return nil, err
	}
	return res.Record, nil
}

// commit aplica una respuesta de autenticación si sigue vigente.
// Entre logins concurrentes gana el último en completar.
func (c *Container) commit(ctx context.Context, epoch uint64, token string, identity api.Record) error {
	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return err
	}
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.token, c.identity, c.state = token, identity, Authenticated
	c.persistLocked()
	c.publishLocked()
	c.mu.Unlock()

	c.flush()
	return nil
}

func (c *Container) persistLocked() {
	if err := c.store.Save(Persisted{Token: c.token, Identity: c.identity}); err != nil {
		c.log.Warn("session save failed", map[string]any{"error": err})
	}
}

func (c *Container) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Token es la fuente de Bearer para el cliente de la API.
func (c *Container) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Authenticated {
		return ""
	}
	return c.token
}

// CurrentIdentity devuelve una copia; nil si no hay sesión.
func (c *Container) CurrentIdentity() api.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Authenticated {
		return nil
	}
	return copyRecord(c.identity)
}

func (c *Container) IsAuthenticated() bool { return c.State() == Authenticated }

func (c *Container) InitialLoading() bool {
	s := c.State()
	return s == Uninitialized || s == Loading
}

func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ValidatePassword expone la política para que la UI la muestre en vivo.
func (c *Container) ValidatePassword(pw string) []password.Violation {
	return password.Validate(pw)
}

// Subscribe registra fn para cada cambio de estado; devuelve la baja.
func (c *Container) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Container) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, Identity: copyRecord(c.identity)}
}

// publishLocked registra una escritura de estado y encola su snapshot.
func (c *Container) publishLocked() {
	c.version++
	c.pending = append(c.pending, c.snapshotLocked())
}

// flush entrega lo encolado fuera del lock. Si otro goroutine ya está
// drenando, él entrega también lo nuevo: el último snapshot recibido es
// siempre el estado vigente. Un suscriptor puede llamar al contenedor.
func (c *Container) flush() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.pending) > 0 {
		s := c.pending[0]
		c.pending = c.pending[1:]
		fns := make([]func(Snapshot), 0, len(c.subs))
		for _, fn := range c.subs {
			fns = append(fns, fn)
		}
		c.mu.Unlock()

		for _, fn := range fns {
			fn(s)
		}
		c.mu.Lock()
	}
	c.pending = nil
	c.draining = false
	c.mu.Unlock()
}

func copyRecord(r api.Record) api.Record {
	if r == nil {
		return nil
	}
	out := make(api.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
