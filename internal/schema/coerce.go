package schema

import (
	"strconv"
	"strings"
)

// Coerce convierte valores de formulario (siempre string) al tipo declarado
// del campo. Lo que no parsea queda como está para que Validate lo reporte.
func (c *Collection) Coerce(rec Record) Record {
	out := rec.Clone()
	for _, f := range c.Fields {
		v, ok := out[f.Name]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		s = strings.TrimSpace(s)

		switch f.Type {
		case FieldNumber:
			if s == "" {
				delete(out, f.Name)
				continue
			}
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				out[f.Name] = n
			}
		case FieldBool:
			if s == "" {
				delete(out, f.Name)
				continue
			}
			if b, err := strconv.ParseBool(s); err == nil {
				out[f.Name] = b
			}
		}
	}
	return out
}

// Declared deja sólo los campos definidos en la colección.
func (c *Collection) Declared(rec Record) Record {
	out := make(Record, len(rec))
	for _, f := range c.Fields {
		if v, ok := rec[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
