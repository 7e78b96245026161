package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/ports/auth"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return auth.Claims{UserID: "u1"}, nil
}

func callerOf(h func(http.Handler) http.Handler, header, value string) string {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Caller(r.Context()).ID
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	h(next).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestAuthContext(t *testing.T) {
	mw := AuthContext(stubVerifier{}, false)

	if got := callerOf(mw, "Authorization", "Bearer good"); got != "u1" {
		t.Fatalf("bearer token not verified, got %q", got)
	}
	if got := callerOf(mw, "Authorization", "good"); got != "u1" {
		t.Fatalf("bare token not accepted, got %q", got)
	}
	if got := callerOf(mw, "Authorization", "Bearer bad"); got != "" {
		t.Fatalf("invalid token must be anonymous, got %q", got)
	}
	if got := callerOf(mw, DebugUserHeader, "dev"); got != "" {
		t.Fatalf("debug header must be ignored without dev mode")
	}
	if got := callerOf(AuthContext(nil, true), DebugUserHeader, "dev"); got != "dev" {
		t.Fatalf("debug header ignored in dev mode, got %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"abc":          "abc",
		"Basic abc":    "",
	}
	for in, want := range cases {
		if got := BearerToken(in); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecover_WritesJSON500(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Format: logger.FormatJSON})

	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":500`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestRequestLog_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Format: logger.FormatJSON})

	h := RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"status":404`) || !strings.Contains(out, `"path":"/x"`) {
		t.Fatalf("unexpected log line %s", out)
	}
}
