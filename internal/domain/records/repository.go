package records

import (
	"context"

	"taxi-pet/internal/schema"
)

// Repository persiste registros de cualquier colección.
// Insert/Update devuelven *ConflictError si se viola un campo Unique;
// Get/Update/Delete devuelven ErrNotFound si el id no existe.
// List aplica las condiciones y el orden de q (no el Limit ni las reglas).
type Repository interface {
	Insert(ctx context.Context, c *schema.Collection, rec schema.Record) error
	Get(ctx context.Context, c *schema.Collection, id string) (schema.Record, error)
	Update(ctx context.Context, c *schema.Collection, rec schema.Record) error
	Delete(ctx context.Context, c *schema.Collection, id string) error
	List(ctx context.Context, c *schema.Collection, q schema.Query) ([]schema.Record, error)
}
