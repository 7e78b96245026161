package schema

import "crypto/rand"

// NewID genera un id de 15 chars [a-z0-9] con crypto/rand.
// El resultado siempre satisface IDPattern e IDLength.
func NewID() string {
	const n = len(IDAlphabet)
	// descartamos bytes >= 252 para no sesgar (252 = 36*7)
	const limit = 256 - (256 % n)

	out := make([]byte, 0, IDLength)
	buf := make([]byte, IDLength*2)
	for len(out) < IDLength {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand no falla en plataformas soportadas
			panic("schema: crypto/rand: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, IDAlphabet[int(b)%n])
			if len(out) == IDLength {
				break
			}
		}
	}
	return string(out)
}

// IsValidID valida un id contra la longitud y el pattern declarados.
func IsValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	return compilePattern(IDPattern).MatchString(id)
}
