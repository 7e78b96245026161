package records

import (
	"context"

	"taxi-pet/internal/schema"
)

const (
	DefaultPerPage = 30
	MaxPerPage     = 500
)

// Event es lo que recibe un Hook antes de persistir.
type Event struct {
	Collection *schema.Collection
	Caller     schema.Caller

	// Input crudo del cliente; puede traer campos no declarados (p.ej. passwordConfirm).
	Input schema.Record

	// Current es nil en create.
	Current schema.Record

	// Record es lo que se va a guardar; el hook puede modificarlo.
	Record schema.Record
}

// Hook agrega reglas de negocio por colección, después de la regla de acceso
// y antes de la validación de campos.
type Hook interface {
	BeforeCreate(ctx context.Context, e *Event) error
	BeforeUpdate(ctx context.Context, e *Event) error
}

type ListOptions struct {
	Filter  string
	Sort    string
	Page    int
	PerPage int
}

type ListResult struct {
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalItems int             `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
	Items      []schema.Record `json:"items"`
}
