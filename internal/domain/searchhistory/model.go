package searchhistory

import (
	"strings"

	"taxi-pet/internal/schema"
)

const (
	Collection = "search_history"

	// RecentLimit es cuántas direcciones muestra la pantalla de inicio.
	RecentLimit = 5
)

type Entry struct {
	ID      string
	UserID  string
	Address string
	Created string
}

func FromRecord(rec schema.Record) Entry {
	return Entry{
		ID:      rec.ID(),
		UserID:  rec.String("userId"),
		Address: rec.String("address"),
		Created: rec.String("created"),
	}
}

func (e Entry) Record() schema.Record {
	return schema.Record{"userId": e.UserID, "address": e.Address}
}

// Recent devuelve hasta n direcciones distintas, en el orden recibido
// (se espera -created). La comparación ignora mayúsculas y espacios.
func Recent(entries []Entry, n int) []Entry {
	out := make([]Entry, 0, n)
	seen := map[string]struct{}{}
	for _, e := range entries {
		if len(out) == n {
			break
		}
		k := strings.ToLower(NormalizeAddress(e.Address))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// NormalizeAddress recorta y colapsa espacios.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
