package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taxi-pet/internal/router"
	"taxi-pet/internal/security/password"
)

func setup(t *testing.T) {
	t.Helper()
	pw := password.FastConfig()
	h, err := router.NewRouter(context.Background(), router.Options{Passwords: &pw})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	t.Setenv("TAXIPET_API_URL", ts.URL)
	t.Setenv("TAXIPET_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
}

func cli(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCLI_SignupPetsHistoryLogout(t *testing.T) {
	setup(t)

	code, out, errOut := cli(t, "", "signup",
		"-email", "ana@example.com", "-name", "Ana", "-surname", "Diaz",
		"-phone", "11999990000", "-cpf", "12345678900", "-address", "Rua A, 1",
		"-password", "Str0ng!pass")
	if code != 0 || !strings.Contains(out, "Welcome, Ana") {
		t.Fatalf("signup failed: code=%d out=%q err=%q", code, out, errOut)
	}

	code, out, _ = cli(t, "", "whoami")
	if code != 0 || !strings.Contains(out, "ana@example.com") {
		t.Fatalf("whoami: code=%d out=%q", code, out)
	}

	code, out, errOut = cli(t, "", "pets", "add", "-name", "Milo", "-type", "dog", "-size", "small", "-age", "3")
	if code != 0 || !strings.Contains(out, "Added Milo") {
		t.Fatalf("pets add: code=%d out=%q err=%q", code, out, errOut)
	}

	code, _, errOut = cli(t, "", "pets", "add", "-name", "Rex", "-type", "dragon", "-size", "small")
	if code != 1 || !strings.Contains(errOut, "animal_type") {
		t.Fatalf("invalid pet must show field message: code=%d err=%q", code, errOut)
	}

	code, out, _ = cli(t, "", "pets", "list")
	if code != 0 || !strings.Contains(out, "Milo") || strings.Contains(out, "Rex") {
		t.Fatalf("pets list: code=%d out=%q", code, out)
	}

	for _, addr := range []string{"Av. Paulista 1000", "  av.   paulista 1000 ", "Rua B, 2"} {
		if code, _, errOut := cli(t, "", append([]string{"search"}, strings.Fields(addr)...)...); code != 0 {
			t.Fatalf("search %q: %s", addr, errOut)
		}
	}
	code, out, _ = cli(t, "", "history")
	if code != 0 || strings.Count(out, "\n") != 2 {
		t.Fatalf("history must dedupe: code=%d out=%q", code, out)
	}

	code, out, _ = cli(t, "", "profile", "set", "-name", "Bia")
	if code != 0 || !strings.Contains(out, "Profile updated") {
		t.Fatalf("profile set: code=%d out=%q", code, out)
	}

	if code, _, _ := cli(t, "", "logout"); code != 0 {
		t.Fatalf("logout failed")
	}
	code, _, errOut = cli(t, "", "pets", "list")
	if code != 1 || !strings.Contains(errOut, "not logged in") {
		t.Fatalf("expected login hint: code=%d err=%q", code, errOut)
	}
	if _, err := os.Stat(os.Getenv("TAXIPET_SESSION_FILE")); !os.IsNotExist(err) {
		t.Fatalf("session file must be removed on logout")
	}
}

func TestCLI_WeakPasswordNeverReachesServer(t *testing.T) {
	setup(t)

	code, _, errOut := cli(t, "abc\nabc\n", "signup", "-email", "x@example.com")
	if code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	for _, msg := range []string{
		"at least 8 characters",
		"1 uppercase letter",
		"1 number",
		"1 special character",
	} {
		if !strings.Contains(errOut, msg) {
			t.Fatalf("missing %q in %q", msg, errOut)
		}
	}
	if strings.Contains(errOut, "lowercase") {
		t.Fatalf("lowercase rule is satisfied by %q", "abc")
	}
}

func TestCLI_LoginFailureAndUnknownCommand(t *testing.T) {
	setup(t)

	code, _, errOut := cli(t, "", "login", "-email", "nobody@example.com", "-password", "Wr0ng!pass")
	if code != 1 || !strings.Contains(errOut, "Failed to authenticate.") {
		t.Fatalf("login failure: code=%d err=%q", code, errOut)
	}

	if code, _, _ := cli(t, "", "teleport"); code != 2 {
		t.Fatalf("unknown command must exit 2, got %d", code)
	}
	if code, out, _ := cli(t, "", "ride"); code != 0 || !strings.Contains(out, "coming soon") {
		t.Fatalf("ride placeholder: %d %q", code, out)
	}
}
