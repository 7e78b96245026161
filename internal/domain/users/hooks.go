package users

import (
	"context"
	"strings"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
	"taxi-pet/internal/security/password"
)

// Campos que maneja el store; el cliente no puede fijarlos.
var storeManaged = []string{"verified", "rating", "cachpet_balance", "tokenKey"}

type hook struct {
	passwords password.Config
}

var _ records.Hook = hook{}

// BeforeCreate (signup): password + passwordConfirm en claro, política, hash.
func (h hook) BeforeCreate(_ context.Context, e *records.Event) error {
	ve := &schema.ValidationError{Collection: e.Collection.Name}

	pw := e.Input.String("password")
	h.checkNewPassword(ve, pw, e.Input.String("passwordConfirm"))
	if len(ve.Fields) > 0 {
		return ve
	}

	hash, err := h.passwords.Hash(pw)
	if err != nil {
		return err
	}
	e.Record["password"] = hash

	for _, f := range storeManaged {
		delete(e.Record, f)
	}
	key, err := randomSecret()
	if err != nil {
		return err
	}
	e.Record["verified"] = false
	e.Record["tokenKey"] = key
	normalizeEmail(e.Record)
	return nil
}

// BeforeUpdate: cambio de password opcional con oldPassword.
func (h hook) BeforeUpdate(_ context.Context, e *records.Event) error {
	for _, f := range storeManaged {
		if v, ok := e.Current[f]; ok {
			e.Record[f] = v
		} else {
			delete(e.Record, f)
		}
	}
	normalizeEmail(e.Record)

	pw := e.Input.String("password")
	if pw == "" {
		return nil
	}

	ve := &schema.ValidationError{Collection: e.Collection.Name}
	ok, err := h.passwords.Verify(e.Current.String("password"), e.Input.String("oldPassword"))
	if err != nil || !ok {
		ve.Add("oldPassword", "validation_invalid_old_password", "Missing or invalid old password.")
	}
	h.checkNewPassword(ve, pw, e.Input.String("passwordConfirm"))
	if len(ve.Fields) > 0 {
		return ve
	}

	hash, err := h.passwords.Hash(pw)
	if err != nil {
		return err
	}
	e.Record["password"] = hash

	// password nueva: los tokens emitidos antes dejan de valer
	key, err := randomSecret()
	if err != nil {
		return err
	}
	e.Record["tokenKey"] = key
	return nil
}

func (h hook) checkNewPassword(ve *schema.ValidationError, pw, confirm string) {
	if pw == "" {
		ve.Add("password", "validation_required", "Cannot be blank.")
		return
	}
	if h.passwords.EnforcePolicy {
		if vs := password.Validate(pw); len(vs) > 0 {
			ve.Add("password", "validation_password_policy", strings.Join(password.Messages(vs), " "))
		}
	}
	if confirm != pw {
		ve.Add("passwordConfirm", "validation_values_mismatch", "Values don't match.")
	}
}

func normalizeEmail(rec schema.Record) {
	if _, ok := rec["email"]; ok {
		rec["email"] = strings.ToLower(strings.TrimSpace(rec.String("email")))
	}
}
