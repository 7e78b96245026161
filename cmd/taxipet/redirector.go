package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"taxi-pet/internal/client/session"
)

// loopbackRedirector recibe el callback OAuth2 en 127.0.0.1 con un puerto efímero.
type loopbackRedirector struct {
	ln      net.Listener
	srv     *http.Server
	out     io.Writer
	results chan session.Callback
}

func newLoopbackRedirector(out io.Writer) (*loopbackRedirector, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth2 callback: %w", err)
	}
	r := &loopbackRedirector{ln: ln, out: out, results: make(chan session.Callback, 1)}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		cb := session.Callback{Code: q.Get("code"), State: q.Get("state"), Error: q.Get("error")}
		select {
		case r.results <- cb:
		default:
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Login received. You can close this window and go back to the terminal.")
	})
	r.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(out, "callback server stopped:", err)
		}
	}()
	return r, nil
}

func (r *loopbackRedirector) RedirectURL() string {
	return "http://" + r.ln.Addr().String() + "/callback"
}

func (r *loopbackRedirector) Open(_ context.Context, authURL string) error {
	_, err := fmt.Fprintf(r.out, "Open this URL in your browser to continue:\n\n  %s\n\n", authURL)
	return err
}

func (r *loopbackRedirector) Wait(ctx context.Context) (session.Callback, error) {
	select {
	case cb := <-r.results:
		return cb, nil
	case <-ctx.Done():
		return session.Callback{}, ctx.Err()
	}
}

func (r *loopbackRedirector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.srv.Shutdown(ctx)
}
