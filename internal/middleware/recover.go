package middleware

import (
	"net/http"
	"runtime/debug"

	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/platform/respond"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover reemplaza a chi/middleware.Recoverer: loguea con nuestro logger y
// responde con el mismo formato de error que el resto de la API.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"panic":      rec,
					"stack":      string(debug.Stack()),
				})
				respond.Error(w, http.StatusInternalServerError, "Something went wrong while processing your request.", nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
