package federated

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"taxi-pet/internal/domain/users"
	"taxi-pet/internal/platform/httpclient"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type GoogleOptions struct {
	ClientID     string
	ClientSecret string

	// Overrides para tests; vacíos => endpoints reales de Google.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTP        *httpclient.Client
}

// Google implementa users.OAuthProvider (authorization code + PKCE S256).
type Google struct {
	cfg         oauth2.Config
	userInfoURL string
	http        *httpclient.Client
}

func NewGoogle(opts GoogleOptions) (*Google, error) {
	if strings.TrimSpace(opts.ClientID) == "" || strings.TrimSpace(opts.ClientSecret) == "" {
		return nil, errors.New("google oauth2: client id and secret are required")
	}
	ep := opts.Endpoint
	if ep.AuthURL == "" || ep.TokenURL == "" {
		ep = endpoints.Google
	}
	info := opts.UserInfoURL
	if info == "" {
		info = googleUserInfoURL
	}
	hc := opts.HTTP
	if hc == nil {
		hc = httpclient.New(10 * time.Second)
	}

	return &Google{
		cfg: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     ep,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: info,
		http:        hc,
	}, nil
}

func (g *Google) Name() string        { return users.ProviderGoogle }
func (g *Google) DisplayName() string { return "Google" }

func (g *Google) AuthURL(state, verifier, redirectURL string) string {
	cfg := g.cfg
	cfg.RedirectURL = redirectURL
	return cfg.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func (g *Google) Exchange(ctx context.Context, code, verifier, redirectURL string) (users.ExternalUser, error) {
	cfg := g.cfg
	cfg.RedirectURL = redirectURL

	// el exchange usa el mismo *http.Client (timeouts/transport de tests)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.http.HTTP)
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return users.ExternalUser{}, fmt.Errorf("%w: %v", users.ErrProviderExchange, err)
	}

	var info googleUserInfo
	headers := map[string]string{"Authorization": "Bearer " + tok.AccessToken}
	if err := g.http.DoJSON(ctx, http.MethodGet, g.userInfoURL, headers, nil, &info); err != nil {
		return users.ExternalUser{}, fmt.Errorf("%w: userinfo: %v", users.ErrProviderExchange, err)
	}
	if info.Sub == "" || info.Email == "" {
		return users.ExternalUser{}, fmt.Errorf("%w: userinfo without subject or email", users.ErrProviderExchange)
	}

	return users.ExternalUser{
		ID:            info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		AvatarURL:     info.Picture,
	}, nil
}
