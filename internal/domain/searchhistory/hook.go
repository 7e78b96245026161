package searchhistory

import (
	"context"

	"taxi-pet/internal/domain/records"
)

type Hook struct{}

var _ records.Hook = Hook{}

func (Hook) BeforeCreate(_ context.Context, e *records.Event) error {
	if _, ok := e.Record["address"]; ok {
		e.Record["address"] = NormalizeAddress(e.Record.String("address"))
	}
	return nil
}

func (Hook) BeforeUpdate(ctx context.Context, e *records.Event) error {
	return Hook{}.BeforeCreate(ctx, e)
}
