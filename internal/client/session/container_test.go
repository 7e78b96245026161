package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taxi-pet/internal/client/api"
	"taxi-pet/internal/security/password"
)

const strongPassword = "Str0ng!pass"

// fakeBackend responde con lo que definan sus funcs; cuenta las llamadas.
type fakeBackend struct {
	calls atomic.Int32

	login   func(ctx context.Context, identity, pw string) (api.AuthResponse, error)
	refresh func(ctx context.Context) (api.AuthResponse, error)
	start   func(ctx context.Context, provider, redirectURL string) (api.OAuthStart, error)
	oauth   func(ctx context.Context, provider, code, state string) (api.AuthResponse, error)
	create  func(ctx context.Context, collection string, rec api.Record) (api.Record, error)
	update  func(ctx context.Context, collection, id string, rec api.Record) (api.Record, error)
}

func (f *fakeBackend) AuthWithPassword(ctx context.Context, identity, pw string) (api.AuthResponse, error) {
	f.calls.Add(1)
	return f.login(ctx, identity, pw)
}

func (f *fakeBackend) AuthRefresh(ctx context.Context) (api.AuthResponse, error) {
	f.calls.Add(1)
	return f.refresh(ctx)
}

func (f *fakeBackend) StartOAuth2(ctx context.Context, provider, redirectURL string) (api.OAuthStart, error) {
	f.calls.Add(1)
	return f.start(ctx, provider, redirectURL)
}

func (f *fakeBackend) AuthWithOAuth2(ctx context.Context, provider, code, state string) (api.AuthResponse, error) {
	f.calls.Add(1)
	return f.oauth(ctx, provider, code, state)
}

func (f *fakeBackend) CreateRecord(ctx context.Context, collection string, rec api.Record) (api.Record, error) {
	f.calls.Add(1)
	return f.create(ctx, collection, rec)
}

func (f *fakeBackend) UpdateRecord(ctx context.Context, collection, id string, rec api.Record) (api.Record, error) {
	f.calls.Add(1)
	return f.update(ctx, collection, id, rec)
}

func tokenFor(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("client-side-tests-never-verify-this"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func authFor(id string) api.AuthResponse {
	return api.AuthResponse{Token: "token-" + id, Record: api.Record{"id": id, "email": id + "@example.com"}}
}

func TestInit_ValidPersistedSession(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Save(Persisted{
		Token:    tokenFor(t, "u1", time.Now().Add(time.Hour)),
		Identity: api.Record{"id": "u1"},
	})

	c := New(Options{Backend: &fakeBackend{}, Store: store})
	if !c.InitialLoading() || c.State() != Uninitialized {
		t.Fatalf("fresh container must be loading")
	}
	c.Init()

	if !c.IsAuthenticated() || c.CurrentIdentity().ID() != "u1" || c.Token() == "" {
		t.Fatalf("expected authenticated u1, got %v %v", c.State(), c.CurrentIdentity())
	}
	if c.InitialLoading() {
		t.Fatalf("loading must end after init")
	}
}

func TestInit_StaleSlotIsClearedAndAnonymous(t *testing.T) {
	cases := map[string]Persisted{
		"expired":     {Token: tokenFor(t, "u1", time.Now().Add(-time.Minute)), Identity: api.Record{"id": "u1"}},
		"garbage":     {Token: "not-a-jwt", Identity: api.Record{"id": "u1"}},
		"no identity": {Token: tokenFor(t, "u1", time.Now().Add(time.Hour))},
		"empty token": {Identity: api.Record{"id": "u1"}},
	}
	for name, p := range cases {
		store := NewMemoryStore()
		_ = store.Save(p)
		c := New(Options{Backend: &fakeBackend{}, Store: store})
		c.Init()

		if c.State() != Anonymous || c.Token() != "" || c.CurrentIdentity() != nil {
			t.Fatalf("%s: expected anonymous, got %v", name, c.State())
		}
		if _, ok, _ := store.Load(); ok {
			t.Fatalf("%s: stale slot must be cleared", name)
		}
	}
}

func TestSignup_PolicyCheckedBeforeRemoteCall(t *testing.T) {
	fb := &fakeBackend{}
	c := New(Options{Backend: fb})
	c.Init()

	_, err := c.Signup(context.Background(), api.Record{"email": "a@example.com", "password": "abc", "passwordConfirm": "abc"})
	var pe *PolicyError
	if !errors.As(err, &pe) || !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected policy error, got %v", err)
	}
	want := []password.Code{password.CodeMinLength, password.CodeUppercase, password.CodeDigit, password.CodeSymbol}
	if len(pe.Violations) != len(want) {
		t.Fatalf("expected %d violations, got %+v", len(want), pe.Violations)
	}
	for i, code := range want {
		if pe.Violations[i].Code != code {
			t.Fatalf("violation %d = %s, want %s", i, pe.Violations[i].Code, code)
		}
	}

	_, err = c.Signup(context.Background(), api.Record{"password": strongPassword, "passwordConfirm": strongPassword + "x"})
	if !errors.As(err, &pe) || !pe.Mismatch || len(pe.Violations) != 0 {
		t.Fatalf("expected mismatch only, got %v", err)
	}

	if fb.calls.Load() != 0 {
		t.Fatalf("no remote call expected, got %d", fb.calls.Load())
	}
	if c.State() != Anonymous {
		t.Fatalf("state must not change")
	}
}

func TestSignup_AutoLoginFailureIsDistinct(t *testing.T) {
	loginErr := &api.Error{Status: http.StatusBadRequest, Message: "Failed to authenticate."}
	fb := &fakeBackend{
		create: func(_ context.Context, collection string, rec api.Record) (api.Record, error) {
			if collection != "users" {
				t.Errorf("unexpected collection %q", collection)
			}
			return api.Record{"id": "new1", "email": rec.String("email")}, nil
		},
		login: func(context.Context, string, string) (api.AuthResponse, error) {
			return api.AuthResponse{}, loginErr
		},
	}
	c := New(Options{Backend: fb})
	c.Init()

	_, err := c.Signup(context.Background(), api.Record{"email": "n@example.com", "password": strongPassword, "passwordConfirm": strongPassword})
	var ae *AutoLoginError
	if !errors.As(err, &ae) || !errors.Is(err, ErrAutoLoginFailed) {
		t.Fatalf("expected auto login error, got %v", err)
	}
	if ae.Identity.ID() != "new1" {
		t.Fatalf("created identity must be carried, got %v", ae.Identity)
	}
	if !errors.Is(err, loginErr) {
		t.Fatalf("cause must be preserved")
	}
	if c.IsAuthenticated() {
		t.Fatalf("must stay anonymous")
	}
}

func TestLogin_FailureLeavesStateUnchanged(t *testing.T) {
	fb := &fakeBackend{login: func(context.Context, string, string) (api.AuthResponse, error) {
		return api.AuthResponse{}, &api.Error{Status: http.StatusBadRequest}
	}}
	c := New(Options{Backend: fb})
	c.Init()

	if _, err := c.Login(context.Background(), "a@example.com", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if c.State() != Anonymous {
		t.Fatalf("expected anonymous, got %v", c.State())
	}
}

func TestLogout_DiscardsInFlightLogin(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fb := &fakeBackend{login: func(context.Context, string, string) (api.AuthResponse, error) {
		close(entered)
		<-release
		return authFor("late"), nil
	}}
	store := NewMemoryStore()
	c := New(Options{Backend: fb, Store: store})
	c.Init()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Login(context.Background(), "late@example.com", strongPassword)
		errc <- err
	}()

	<-entered
	c.Logout()
	close(release)

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if c.IsAuthenticated() || c.Token() != "" {
		t.Fatalf("late response must not resurrect the session")
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("late response must not be persisted")
	}
}

func TestLogin_CancelledContextIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fb := &fakeBackend{login: func(context.Context, string, string) (api.AuthResponse, error) {
		cancel()
		return authFor("u1"), nil
	}}
	c := New(Options{Backend: fb})
	c.Init()

	if _, err := c.Login(ctx, "u1@example.com", strongPassword); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.IsAuthenticated() {
		t.Fatalf("cancelled response must be discarded")
	}
}

func TestLogin_ConcurrentLastCompletedWins(t *testing.T) {
	gates := map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})}
	var entered sync.WaitGroup
	entered.Add(2)
	fb := &fakeBackend{login: func(_ context.Context, identity, _ string) (api.AuthResponse, error) {
		entered.Done()
		<-gates[identity]
		return authFor(identity), nil
	}}
	c := New(Options{Backend: fb})
	c.Init()

	done := map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})}
	for _, id := range []string{"a", "b"} {
		go func(id string) {
			defer close(done[id])
			if _, err := c.Login(context.Background(), id, strongPassword); err != nil {
				t.Errorf("login %s: %v", id, err)
			}
		}(id)
	}
	entered.Wait()

	close(gates["b"])
	<-done["b"]
	close(gates["a"])
	<-done["a"]

	if got := c.CurrentIdentity().ID(); got != "a" {
		t.Fatalf("last completed login must win, got %q", got)
	}
	if c.Token() != "token-a" {
		t.Fatalf("token and identity must belong to the same login, got %q", c.Token())
	}
}

func TestLogout_FromAnyState(t *testing.T) {
	fb := &fakeBackend{login: func(context.Context, string, string) (api.AuthResponse, error) {
		return authFor("u1"), nil
	}}

	fresh := New(Options{Backend: fb})
	fresh.Logout()
	if fresh.State() != Anonymous {
		t.Fatalf("logout from uninitialized: %v", fresh.State())
	}

	anon := New(Options{Backend: fb})
	anon.Init()
	anon.Logout()
	if anon.State() != Anonymous {
		t.Fatalf("logout from anonymous: %v", anon.State())
	}

	authed := New(Options{Backend: fb})
	authed.Init()
	if _, err := authed.Login(context.Background(), "u1", strongPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	authed.Logout()
	if authed.State() != Anonymous || authed.CurrentIdentity() != nil {
		t.Fatalf("logout from authenticated: %v", authed.State())
	}
}

func TestRefresh_UnauthorizedLogsOut(t *testing.T) {
	fb := &fakeBackend{
		login: func(context.Context, string, string) (api.AuthResponse, error) { return authFor("u1"), nil },
		refresh: func(context.Context) (api.AuthResponse, error) {
			return api.AuthResponse{}, &api.Error{Status: http.StatusUnauthorized}
		},
	}
	c := New(Options{Backend: fb})
	c.Init()

	if _, err := c.Refresh(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("refresh while anonymous: %v", err)
	}
	if _, err := c.Login(context.Background(), "u1", strongPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := c.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if c.IsAuthenticated() {
		t.Fatalf("rejected token must log out")
	}
}

func TestUpdateProfile_RefreshesOwnIdentity(t *testing.T) {
	fb := &fakeBackend{
		login: func(context.Context, string, string) (api.AuthResponse, error) { return authFor("u1"), nil },
		update: func(_ context.Context, _ string, id string, rec api.Record) (api.Record, error) {
			return api.Record{"id": id, "name": rec.String("name")}, nil
		},
	}
	c := New(Options{Backend: fb})
	c.Init()

	if _, err := c.UpdateProfile(context.Background(), "u1", api.Record{"name": "x"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	_, _ = c.Login(context.Background(), "u1", strongPassword)
	var seen []Snapshot
	cancel := c.Subscribe(func(s Snapshot) { seen = append(seen, s) })
	defer cancel()

	if _, err := c.UpdateProfile(context.Background(), "u1", api.Record{"name": "Bia"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.CurrentIdentity().String("name") != "Bia" {
		t.Fatalf("identity not refreshed: %v", c.CurrentIdentity())
	}
	if len(seen) != 1 || seen[0].Identity.String("name") != "Bia" {
		t.Fatalf("subscriber not notified: %+v", seen)
	}
}

type fakeRedirector struct {
	cb Callback
}

func (r *fakeRedirector) RedirectURL() string                    { return "http://127.0.0.1:9999/callback" }
func (r *fakeRedirector) Open(context.Context, string) error     { return nil }
func (r *fakeRedirector) Wait(context.Context) (Callback, error) { return r.cb, nil }

func TestLoginWithProvider(t *testing.T) {
	fb := &fakeBackend{
		start: func(_ context.Context, provider, redirectURL string) (api.OAuthStart, error) {
			return api.OAuthStart{Provider: provider, State: "st-1", AuthURL: "https://accounts.example/auth"}, nil
		},
		oauth: func(_ context.Context, _, code, _ string) (api.AuthResponse, error) {
			return authFor("g-" + code), nil
		},
	}

	run := func(cb Callback) (api.Record, error) {
		c := New(Options{Backend: fb, Redirector: &fakeRedirector{cb: cb}})
		c.Init()
		type result struct {
			rec api.Record
			err error
		}
		out := make(chan result, 1)
		c.LoginWithProvider(context.Background(), "google",
			func(r api.Record) { out <- result{rec: r} },
			func(err error) { out <- result{err: err} },
		)
		select {
		case r := <-out:
			return r.rec, r.err
		case <-time.After(2 * time.Second):
			t.Fatalf("continuation never called")
			return nil, nil
		}
	}

	rec, err := run(Callback{Code: "c1", State: "st-1"})
	if err != nil || rec.ID() != "g-c1" {
		t.Fatalf("expected success, got %v %v", rec, err)
	}
	if _, err := run(Callback{Code: "c1", State: "forged"}); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("expected state mismatch, got %v", err)
	}
	if _, err := run(Callback{Error: "access_denied"}); !errors.Is(err, ErrProviderDenied) {
		t.Fatalf("expected provider denied, got %v", err)
	}

	c := New(Options{Backend: fb})
	errc := make(chan error, 1)
	c.LoginWithProvider(context.Background(), "google", nil, func(err error) { errc <- err })
	if err := <-errc; !errors.Is(err, ErrNoRedirector) {
		t.Fatalf("expected ErrNoRedirector, got %v", err)
	}
}

func TestFileStore_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	if _, ok, err := s.Load(); ok || err != nil {
		t.Fatalf("missing file must be empty, got ok=%v err=%v", ok, err)
	}
	if err := s.Save(Persisted{Token: "t", Identity: api.Record{"id": "u1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", fi.Mode().Perm())
	}

	p, ok, err := s.Load()
	if err != nil || !ok || p.Token != "t" || p.Identity.ID() != "u1" {
		t.Fatalf("unexpected load %+v %v %v", p, ok, err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
}

func TestSignup_SupersededAutoLoginKeepsCreatedIdentity(t *testing.T) {
	var c *Container
	fb := &fakeBackend{
		create: func(_ context.Context, _ string, rec api.Record) (api.Record, error) {
			return api.Record{"id": "new1", "email": rec.String("email")}, nil
		},
		login: func(context.Context, string, string) (api.AuthResponse, error) {
			c.Logout()
			return authFor("new1"), nil
		},
	}
	c = New(Options{Backend: fb})
	c.Init()

	_, err := c.Signup(context.Background(), api.Record{"email": "n@example.com", "password": strongPassword, "passwordConfirm": strongPassword})
	var ae *AutoLoginError
	if !errors.As(err, &ae) || !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected auto login error wrapping ErrSuperseded, got %v", err)
	}
	if ae.Identity.ID() != "new1" {
		t.Fatalf("created identity must be carried, got %v", ae.Identity)
	}
	if c.IsAuthenticated() {
		t.Fatalf("superseded signup must not authenticate")
	}
}

// slowLoadStore frena Load hasta que el test lo libere.
type slowLoadStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowLoadStore) Load() (Persisted, bool, error) {
	close(s.entered)
	<-s.release
	return s.MemoryStore.Load()
}

func TestInit_DoesNotOverwriteLoginCommittedDuringLoad(t *testing.T) {
	store := &slowLoadStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	fb := &fakeBackend{login: func(_ context.Context, identity, _ string) (api.AuthResponse, error) {
		return api.AuthResponse{Token: tokenFor(t, identity, time.Now().Add(time.Hour)), Record: api.Record{"id": identity}}, nil
	}}
	c := New(Options{Backend: fb, Store: store})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Init()
	}()
	<-store.entered

	if _, err := c.Login(context.Background(), "u1", strongPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	close(store.release)
	<-done

	if !c.IsAuthenticated() || c.CurrentIdentity().ID() != "u1" {
		t.Fatalf("login during init must survive, got %v %v", c.State(), c.CurrentIdentity())
	}
	if p, ok, _ := store.MemoryStore.Load(); !ok || p.Identity.ID() != "u1" {
		t.Fatalf("persisted session must survive init, got %v %v", p, ok)
	}
}

func TestSubscribe_LastSnapshotIsCurrentState(t *testing.T) {
	fb := &fakeBackend{login: func(_ context.Context, identity, _ string) (api.AuthResponse, error) {
		return authFor(identity), nil
	}}
	c := New(Options{Backend: fb})
	c.Init()

	holdA := make(chan struct{})
	deliveringA := make(chan struct{})
	var mu sync.Mutex
	var last Snapshot
	cancel := c.Subscribe(func(s Snapshot) {
		if s.Identity.ID() == "a" {
			close(deliveringA)
			<-holdA
		}
		mu.Lock()
		last = s
		mu.Unlock()
	})
	defer cancel()

	doneA := make(chan struct{})
	go func() {
		defer close(doneA)
		if _, err := c.Login(context.Background(), "a", strongPassword); err != nil {
			t.Errorf("login a: %v", err)
		}
	}()
	<-deliveringA

	if _, err := c.Login(context.Background(), "b", strongPassword); err != nil {
		t.Fatalf("login b: %v", err)
	}
	close(holdA)
	<-doneA

	mu.Lock()
	defer mu.Unlock()
	if c.CurrentIdentity().ID() != "b" || last.Identity.ID() != "b" {
		t.Fatalf("last snapshot must match state: state=%v last=%v", c.CurrentIdentity().ID(), last.Identity.ID())
	}
}
