// Package password concentra la política de contraseñas (advisory, sin I/O)
// y el hashing Argon2id que usa el servidor.
package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code identifica una regla de la política.
type Code string

const (
	CodeMinLength Code = "min_length"
	CodeUppercase Code = "uppercase"
	CodeLowercase Code = "lowercase"
	CodeDigit     Code = "digit"
	CodeSymbol    Code = "symbol"
)

const (
	MinLength = 8

	// Symbols es el set de puntuación aceptado para la regla de símbolo.
	Symbols = `!@#$%^&*(),.?":{}|<>`
)

// Violation es una regla incumplida, con el mensaje que se muestra al usuario.
type Violation struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Validate devuelve las reglas violadas en orden fijo:
// longitud, mayúscula, minúscula, dígito, símbolo. Vacío = cumple.
func Validate(pw string) []Violation {
	var out []Violation

	if utf8.RuneCountInString(pw) < MinLength {
		out = append(out, Violation{CodeMinLength, "Password must be at least 8 characters"})
	}
	if !strings.ContainsFunc(pw, isASCIIUpper) {
		out = append(out, Violation{CodeUppercase, "Password must contain at least 1 uppercase letter"})
	}
	if !strings.ContainsFunc(pw, isASCIILower) {
		out = append(out, Violation{CodeLowercase, "Password must contain at least 1 lowercase letter"})
	}
	if !strings.ContainsFunc(pw, isASCIIDigit) {
		out = append(out, Violation{CodeDigit, "Password must contain at least 1 number"})
	}
	if !strings.ContainsAny(pw, Symbols) {
		out = append(out, Violation{CodeSymbol, "Password must contain at least 1 special character"})
	}

	return out
}

// Messages es un atajo para UIs que sólo muestran texto.
func Messages(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Message)
	}
	return out
}

// Las clases son sólo ASCII: [A-Z], [a-z], [0-9].
func isASCIIUpper(r rune) bool { return r <= unicode.MaxASCII && unicode.IsUpper(r) }
func isASCIILower(r rune) bool { return r <= unicode.MaxASCII && unicode.IsLower(r) }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
