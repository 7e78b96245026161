package schema

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// CollectionType distingue colecciones normales de las de autenticación.
type CollectionType string

const (
	TypeBase CollectionType = "base"
	TypeAuth CollectionType = "auth"
)

// Collection es la definición declarativa de un tipo de entidad:
// sus campos, restricciones y los predicados de acceso.
type Collection struct {
	ID     string
	Name   string
	Type   CollectionType
	Fields []Field
	Rules  Rules
}

// Field busca un campo por nombre.
func (c *Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (c *Collection) HasField(name string) bool {
	_, ok := c.Field(name)
	return ok
}

// Authorize evalúa la regla de op contra el caller y el registro.
func (c *Collection) Authorize(op Op, caller Caller, rec Record) error {
	rule := c.Rules.For(op)
	if rule == nil || !rule(caller, rec) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeUpdate exige que la regla de update se cumpla para el registro
// actual y para el resultante (no se puede "regalar" un registro).
func (c *Collection) AuthorizeUpdate(caller Caller, current, next Record) error {
	if err := c.Authorize(OpUpdate, caller, current); err != nil {
		return err
	}
	return c.Authorize(OpUpdate, caller, next)
}

// Filter aplica la regla de list y devuelve sólo lo visible para caller.
func (c *Collection) Filter(caller Caller, recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	if c.Rules.List == nil {
		return out
	}
	for _, r := range recs {
		if c.Rules.List(caller, r) {
			out = append(out, r)
		}
	}
	return out
}

// StripSystem elimina de un input del cliente los campos que sólo fija el store
// (id, autodate). Nunca se aceptan timestamps del cliente.
func (c *Collection) StripSystem(in Record) Record {
	out := in.Clone()
	for _, f := range c.Fields {
		if f.PrimaryKey || f.Type == FieldAutodate {
			delete(out, f.Name)
		}
	}
	return out
}

// Touch fija los autodate con el reloj del store.
func (c *Collection) Touch(rec Record, now time.Time, creating bool) {
	for _, f := range c.Fields {
		if f.Type != FieldAutodate {
			continue
		}
		if creating && f.OnCreate {
			rec[f.Name] = now
			continue
		}
		if !creating && f.OnUpdate {
			rec[f.Name] = now
		}
	}
}

// Visible quita los campos ocultos (p.ej. password) antes de exponer un registro.
func (c *Collection) Visible(rec Record) Record {
	out := rec.Clone()
	for _, f := range c.Fields {
		if f.Hidden {
			delete(out, f.Name)
		}
	}
	return out
}

// Validate chequea todas las restricciones declaradas. Los campos no declarados se ignoran.
func (c *Collection) Validate(rec Record) error {
	ve := &ValidationError{Collection: c.Name}
	for _, f := range c.Fields {
		validateField(ve, f, rec)
	}
	return ve.orNil()
}

func validateField(ve *ValidationError, f Field, rec Record) {
	v, present := rec[f.Name]
	if present && v == nil {
		present = false
	}

	switch f.Type {
	case FieldAutodate:
		return

	case FieldText, FieldPassword:
		s := rec.String(f.Name)
		if strings.TrimSpace(s) == "" {
			if f.Required {
				ve.Add(f.Name, "validation_required", "Cannot be blank.")
			}
			return
		}
		n := float64(utf8.RuneCountInString(s))
		if f.Min != nil && *f.Min > 0 && n < *f.Min {
			ve.Add(f.Name, "validation_min_text_constraint", fmt.Sprintf("Must be at least %d character(s).", int(*f.Min)))
			return
		}
		if f.Max != nil && *f.Max > 0 && n > *f.Max {
			ve.Add(f.Name, "validation_max_text_constraint", fmt.Sprintf("Must be no more than %d character(s).", int(*f.Max)))
			return
		}
		if f.Pattern != "" && !compilePattern(f.Pattern).MatchString(s) {
			ve.Add(f.Name, "validation_invalid_format", "Invalid value format.")
		}

	case FieldEmail:
		s := strings.TrimSpace(rec.String(f.Name))
		if s == "" {
			if f.Required {
				ve.Add(f.Name, "validation_required", "Cannot be blank.")
			}
			return
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			ve.Add(f.Name, "validation_is_email", "Must be a valid email address.")
		}

	case FieldNumber:
		if !present {
			if f.Required {
				ve.Add(f.Name, "validation_required", "Cannot be blank.")
			}
			return
		}
		n, ok := rec.Float(f.Name)
		if !ok {
			// string vacío de un form = no enviado
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				if f.Required {
					ve.Add(f.Name, "validation_required", "Cannot be blank.")
				}
				return
			}
			ve.Add(f.Name, "validation_invalid_number", "Must be a number.")
			return
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			ve.Add(f.Name, "validation_invalid_number", "Must be a finite number.")
			return
		}
		if f.OnlyInt && n != math.Trunc(n) {
			ve.Add(f.Name, "validation_only_int_constraint", "Decimal numbers are not allowed.")
			return
		}
		if f.Min != nil && n < *f.Min {
			ve.Add(f.Name, "validation_min_number_constraint", fmt.Sprintf("Must be larger than %s.", trimFloat(*f.Min)))
			return
		}
		if f.Max != nil && n > *f.Max {
			ve.Add(f.Name, "validation_max_number_constraint", fmt.Sprintf("Must be less than %s.", trimFloat(*f.Max)))
		}

	case FieldBool:
		if !present {
			return
		}
		if _, ok := v.(bool); !ok {
			ve.Add(f.Name, "validation_invalid_bool", "Must be a boolean.")
		}

	case FieldFile:
		validateFile(ve, f, v, present)
	}
}

func validateFile(ve *ValidationError, f Field, v any, present bool) {
	var files []File
	var kept int

	if present {
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				kept++
			}
		case File:
			files = append(files, t)
		case *File:
			if t != nil {
				files = append(files, *t)
			}
		case []File:
			files = append(files, t...)
		default:
			ve.Add(f.Name, "validation_invalid_file", "Invalid file value.")
			return
		}
	}

	total := kept + len(files)
	if total == 0 {
		if f.Required {
			ve.Add(f.Name, "validation_required", "Cannot be blank.")
		}
		return
	}

	maxSelect := f.MaxSelect
	if maxSelect <= 0 {
		maxSelect = 1
	}
	if total > maxSelect {
		ve.Add(f.Name, "validation_too_many_files", fmt.Sprintf("The maximum allowed files is %d.", maxSelect))
		return
	}

	maxSize := f.MaxSize
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	for _, file := range files {
		if strings.TrimSpace(file.Name) == "" {
			ve.Add(f.Name, "validation_invalid_file", "Missing file name.")
			return
		}
		if file.Size > maxSize {
			ve.Add(f.Name, "validation_file_size_limit", fmt.Sprintf("Failed to upload %q - the maximum allowed file size is %d bytes.", file.Name, maxSize))
			return
		}
		if !f.allowsMime(file.MimeType) {
			ve.Add(f.Name, "validation_invalid_mime_type", fmt.Sprintf("%q mime type must be one of: %s.", file.Name, strings.Join(f.MimeTypes, ", ")))
			return
		}
	}
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
