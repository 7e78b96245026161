package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record es la vista genérica de un registro: nombre de campo -> valor.
// Las reglas, la validación y los filtros operan sobre esta vista;
// cada dominio convierte su struct tipado con un método Record().
type Record map[string]any

// File es un upload pendiente para un campo file.
// Una vez guardado, el registro sólo conserva el nombre (string).
type File struct {
	Name     string
	Size     int64
	MimeType string
	Content  []byte
}

func (r Record) ID() string { return r.String("id") }

// String devuelve el valor como texto ("" si no existe o es nil).
func (r Record) String(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case File:
		return t.Name
	case *File:
		if t == nil {
			return ""
		}
		return t.Name
	case time.Time:
		return t.UTC().Format(DateLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case *float64:
		if t == nil {
			return ""
		}
		return strconv.FormatFloat(*t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Float intenta leer un número; ok=false si falta o no es numérico.
func (r Record) Float(name string) (float64, bool) {
	v, exists := r[name]
	if !exists || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Clone hace una copia superficial.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge devuelve una copia de r con los campos de patch aplicados.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// DateLayout es el formato de timestamps que expone la API.
const DateLayout = "2006-01-02 15:04:05.000Z"
