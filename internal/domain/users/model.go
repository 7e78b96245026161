package users

import (
	"time"

	"taxi-pet/internal/schema"
)

const (
	Collection = "users"

	ProviderGoogle = "google"
)

// User es la vista tipada de un registro de users (sin password).
type User struct {
	ID       string
	Email    string
	Verified bool
	Name     string
	Surname  string
	Phone    string
	CPF      string
	Address  string
	Avatar   string
	Created  string
	Updated  string
}

func UserFromRecord(rec schema.Record) User {
	verified, _ := rec["verified"].(bool)
	return User{
		ID:       rec.ID(),
		Email:    rec.String("email"),
		Verified: verified,
		Name:     rec.String("name"),
		Surname:  rec.String("surname"),
		Phone:    rec.String("phone"),
		CPF:      rec.String("cpf"),
		Address:  rec.String("address"),
		Avatar:   rec.String("avatar"),
		Created:  rec.String("created"),
		Updated:  rec.String("updated"),
	}
}

// Record arma el input de signup/update de perfil (sin password ni avatar).
func (u User) Record() schema.Record {
	return schema.Record{
		"email":   u.Email,
		"name":    u.Name,
		"surname": u.Surname,
		"phone":   u.Phone,
		"cpf":     u.CPF,
		"address": u.Address,
	}
}

// AuthResult es la respuesta de cualquier login: token + registro visible.
type AuthResult struct {
	Token  string        `json:"token"`
	Record schema.Record `json:"record"`
	Meta   *OAuthMeta    `json:"meta,omitempty"`
}

type OAuthMeta struct {
	Provider string `json:"provider"`
	IsNew    bool   `json:"isNew"`
}

// ExternalUser es lo que devuelve un proveedor federado tras el exchange.
type ExternalUser struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	AvatarURL     string
}

// StateEntry se guarda entre el inicio del flujo OAuth2 y el callback.
type StateEntry struct {
	Provider    string    `json:"provider"`
	Verifier    string    `json:"verifier"`
	RedirectURL string    `json:"redirectUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OAuthStart struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
	AuthURL  string `json:"authUrl"`
}

type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type AuthMethods struct {
	Password bool           `json:"password"`
	OAuth2   []ProviderInfo `json:"oauth2"`
}
