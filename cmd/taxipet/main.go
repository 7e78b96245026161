// taxipet es el cliente de línea de comandos de Taxi Pet.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"taxi-pet/internal/client/api"
	"taxi-pet/internal/client/session"
	"taxi-pet/internal/platform/config"
	"taxi-pet/internal/platform/logger"
)

type app struct {
	client *api.Client
	sess   *session.Container
	store  session.TokenStore
	log    logger.Logger
	out    io.Writer
	in     *bufio.Reader
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"signup":       {"signup -email E -name N -surname S -phone P -cpf C -address A [-password PW]", runSignup},
	"login":        {"login -email E [-password PW]", runLogin},
	"login-google": {"login-google", runLoginGoogle},
	"logout":       {"logout", runLogout},
	"whoami":       {"whoami", runWhoami},
	"profile":      {"profile set [-name N] [-surname S] [-phone P] [-address A] [-avatar FILE]", runProfile},
	"pets":         {"pets list | add | edit ID | rm ID", runPets},
	"search":       {"search ADDRESS", runSearch},
	"history":      {"history", runHistory},
	"rate":         {"rate -ride R -user U -score N [-comment C]", runRate},
	"ride":         {"ride", runRide},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		usage(stdout)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(stderr, "configuration error:", err)
		return 1
	}

	level := logger.Warn
	if lv := os.Getenv("LOG_LEVEL"); lv != "" {
		level = logger.ParseLevel(lv)
	}
	log := logger.New(logger.Options{Level: level, App: "taxipet", Output: stderr})

	client, err := api.New(cfg.APIURL, cfg.Timeout)
	if err != nil {
		fmt.Fprintln(stderr, "configuration error:", err)
		return 1
	}
	store := session.NewFileStore(cfg.SessionFile)
	sess := session.New(session.Options{
		Backend: client,
		Store:   store,
		Logger:  log,
	})
	client.SetTokenSource(sess.Token)
	sess.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{client: client, sess: sess, store: store, log: log, out: stdout, in: bufio.NewReader(stdin)}
	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: taxipet <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(w, "  "+commands[n].usage)
	}
}

// userMessage convierte cualquier error en algo mostrable; nunca expone stack ni internals.
func userMessage(err error) string {
	var pe *session.PolicyError
	var ale *session.AutoLoginError

	switch {
	case errors.As(err, &pe):
		lines := []string{"Your password is not valid:"}
		for _, v := range pe.Violations {
			lines = append(lines, "  - "+v.Message)
		}
		if pe.Mismatch {
			lines = append(lines, "  - Passwords do not match")
		}
		return strings.Join(lines, "\n")
	case errors.As(err, &ale):
		return "Your account was created, but we could not log you in. Please run `taxipet login`."
	case errors.Is(err, session.ErrNotAuthenticated):
		return "You are not logged in. Run `taxipet login` first."
	case errors.Is(err, session.ErrSuperseded), errors.Is(err, context.Canceled):
		return "The operation was cancelled."
	case errors.Is(err, session.ErrStateMismatch):
		return "The login response could not be verified. Please try again."
	case errors.Is(err, session.ErrProviderDenied):
		return "The login was cancelled at the provider."
	case errors.Is(err, errUsage):
		return err.Error()
	}

	if ae, ok := api.AsError(err); ok {
		switch {
		case ae.IsValidation():
			fields := make([]string, 0, len(ae.Data))
			for k := range ae.Data {
				fields = append(fields, k)
			}
			sort.Strings(fields)
			lines := []string{"Please fix the following:"}
			for _, f := range fields {
				lines = append(lines, fmt.Sprintf("  - %s: %s", f, ae.Data[f].Message))
			}
			return strings.Join(lines, "\n")
		case ae.IsUnauthorized():
			return "Your session is no longer valid. Please log in again."
		case ae.IsForbidden():
			return "You are not allowed to do that."
		case ae.IsNotFound():
			return "Not found."
		case ae.IsConflict():
			return "That email is already registered."
		case ae.Message != "":
			return ae.Message
		}
	}
	return "Something went wrong. Please check your connection and try again."
}
