package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/middleware"
	"taxi-pet/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las rutas de auth. Signup y perfil usan las rutas
// genéricas de records (/api/collections/users/records).
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/api/collections/users/auth-with-password", authWithPasswordHandler(svc))
	r.Post("/api/collections/users/auth-refresh", authRefreshHandler(svc))
	r.Get("/api/collections/users/auth-methods", authMethodsHandler(svc))
	r.Get("/api/collections/users/oauth2/{provider}", oauth2StartHandler(svc))
	r.Post("/api/collections/users/auth-with-oauth2", authWithOAuth2Handler(svc))
}

type authWithPasswordRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

type authWithOAuth2Request struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	State    string `json:"state"`
}

// authWithPasswordHandler godoc
// @Summary Login con email y password
// @Description Devuelve un token Bearer y el registro del usuario. No distingue usuario inexistente de password incorrecta.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body authWithPasswordRequest true "identity = email"
// @Success 200 {object} AuthResult
// @Failure 400 {object} respond.ErrorBody "Failed to authenticate."
// @Router /api/collections/users/auth-with-password [post]
func authWithPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authWithPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json", nil)
			return
		}

		res, err := svc.AuthWithPassword(r.Context(), req.Identity, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}

// authRefreshHandler godoc
// @Summary Renovar token
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer token vigente"
// @Success 200 {object} AuthResult
// @Failure 401 {object} respond.ErrorBody
// @Router /api/collections/users/auth-refresh [post]
func authRefreshHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if !caller.IsAuthenticated() {
			respond.Error(w, http.StatusUnauthorized, "The request requires valid authorization token.", nil)
			return
		}

		res, err := svc.AuthRefresh(r.Context(), caller.ID)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				respond.Error(w, http.StatusUnauthorized, "The request requires valid authorization token.", nil)
				return
			}
			writeAuthError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}

// authMethodsHandler godoc
// @Summary Métodos de login disponibles
// @Tags auth
// @Produce json
// @Success 200 {object} AuthMethods
// @Router /api/collections/users/auth-methods [get]
func authMethodsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, svc.AuthMethods())
	}
}

// oauth2StartHandler godoc
// @Summary Iniciar login federado
// @Description Genera el state (un solo uso) y la URL de autorización del proveedor. `redirectUrl` debe ser loopback o estar configurada.
// @Tags auth
// @Produce json
// @Param provider path string true "Proveedor (google)"
// @Param redirectUrl query string true "URL de callback"
// @Success 200 {object} OAuthStart
// @Failure 400 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /api/collections/users/oauth2/{provider} [get]
func oauth2StartHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := svc.StartOAuth2(r.Context(), chi.URLParam(r, "provider"), r.URL.Query().Get("redirectUrl"))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, start)
	}
}

// authWithOAuth2Handler godoc
// @Summary Completar login federado
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body authWithOAuth2Request true "code y state recibidos en el callback"
// @Success 200 {object} AuthResult
// @Failure 400 {object} respond.ErrorBody
// @Router /api/collections/users/auth-with-oauth2 [post]
func authWithOAuth2Handler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authWithOAuth2Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json", nil)
			return
		}

		res, err := svc.AuthWithOAuth2(r.Context(), strings.TrimSpace(req.Provider), req.Code, req.State)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, "Failed to authenticate.", nil)
	case errors.Is(err, ErrUnknownProvider):
		respond.Error(w, http.StatusNotFound, "Unknown OAuth2 provider.", nil)
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrRedirectNotAllowed):
		respond.Error(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrProviderExchange):
		respond.Error(w, http.StatusBadRequest, "Failed to authenticate with the OAuth2 provider.", nil)
	case errors.Is(err, records.ErrConflict):
		respond.Error(w, http.StatusConflict, "Value must be unique.", nil)
	default:
		respond.Error(w, http.StatusInternalServerError, "Something went wrong while processing your request.", nil)
	}
}
