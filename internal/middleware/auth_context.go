package middleware

import (
	"context"
	"net/http"
	"strings"

	"taxi-pet/internal/ports/auth"
	"taxi-pet/internal/schema"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// DebugUserHeader inyecta una identidad sin token (sólo con DEV_AUTH).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext:
// - Si viene un token (Bearer o pelado) y verifier != nil => Verify() y setea claims.
// - Si devHeader => X-Debug-User-ID setea claims sin verificar.
// - Sin claims el request sigue como anónimo; las reglas de colección deciden 401/403.
func AuthContext(verifier auth.AuthVerifier, devHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if devHeader {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), auth.Claims{UserID: uid})))
					return
				}
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// token vencido o inválido = anónimo
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// Caller es la identidad que evalúan las reglas de colección; vacía = anónimo.
func Caller(ctx context.Context) schema.Caller {
	c, ok := GetClaims(ctx)
	if !ok {
		return schema.Caller{}
	}
	return schema.Caller{ID: strings.TrimSpace(c.UserID)}
}

// BearerToken extrae el token de un header Authorization.
// Acepta "Bearer <token>" y también el token sin prefijo.
func BearerToken(authHeader string) string {
	return bearerToken(authHeader)
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 {
		return strings.TrimSpace(parts[0])
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
