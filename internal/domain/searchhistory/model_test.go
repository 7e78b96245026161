package searchhistory

import (
	"context"
	"testing"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
	"taxi-pet/internal/schema/migrations"
)

func TestRecent_DedupesAndLimits(t *testing.T) {
	in := []Entry{
		{Address: "Rua A, 1"},
		{Address: "rua  a, 1 "},
		{Address: ""},
		{Address: "Rua B"},
		{Address: "Rua C"},
		{Address: "Rua D"},
		{Address: "Rua E"},
		{Address: "Rua F"},
	}
	got := Recent(in, RecentLimit)
	if len(got) != RecentLimit {
		t.Fatalf("expected %d, got %d", RecentLimit, len(got))
	}
	if got[0].Address != "Rua A, 1" || got[1].Address != "Rua B" || got[4].Address != "Rua E" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestHook_NormalizesAddress(t *testing.T) {
	rec := schema.Record{"userId": "u1", "address": "  Av.   Paulista   1000 "}
	if err := (Hook{}).BeforeCreate(context.Background(), &records.Event{Collection: migrations.SearchHistorySchema(), Record: rec}); err != nil {
		t.Fatalf("hook: %v", err)
	}
	if rec["address"] != "Av. Paulista 1000" {
		t.Fatalf("unexpected address %q", rec["address"])
	}
}
