package pets

import (
	"context"
	"strings"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
)

// Hook valida las categorías enumeradas. Vacío lo reporta Validate (required).
type Hook struct{}

var _ records.Hook = Hook{}

func (Hook) BeforeCreate(_ context.Context, e *records.Event) error {
	return checkEnums(e.Collection, e.Record)
}

func (Hook) BeforeUpdate(_ context.Context, e *records.Event) error {
	return checkEnums(e.Collection, e.Record)
}

func checkEnums(c *schema.Collection, rec schema.Record) error {
	ve := &schema.ValidationError{Collection: c.Name}

	if v, ok := rec["name"].(string); ok {
		rec["name"] = strings.TrimSpace(v)
	}
	if t := strings.ToLower(strings.TrimSpace(rec.String("animal_type"))); t != "" {
		rec["animal_type"] = t
		if !ValidAnimalType(t) {
			ve.Add("animal_type", "validation_invalid_value", "Must be one of: "+joinAnimalTypes()+".")
		}
	}
	if s := strings.ToLower(strings.TrimSpace(rec.String("size"))); s != "" {
		rec["size"] = s
		if !ValidSize(s) {
			ve.Add("size", "validation_invalid_value", "Must be one of: small, medium, large.")
		}
	}

	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
