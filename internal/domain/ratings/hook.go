package ratings

import (
	"context"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
)

// Hook: nadie se califica a sí mismo y una calificación no cambia de viaje ni de destinatario.
type Hook struct{}

var _ records.Hook = Hook{}

func (Hook) BeforeCreate(_ context.Context, e *records.Event) error {
	by, to := e.Record.String("ratedBy"), e.Record.String("ratedUser")
	if by != "" && by == to {
		return schema.NewFieldError("ratedUser", "validation_self_rating", "You cannot rate yourself.")
	}
	return nil
}

func (Hook) BeforeUpdate(_ context.Context, e *records.Event) error {
	ve := &schema.ValidationError{Collection: e.Collection.Name}
	for _, f := range []string{"rideId", "ratedUser"} {
		if e.Record.String(f) != e.Current.String(f) {
			ve.Add(f, "validation_immutable", "Cannot be changed.")
		}
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
