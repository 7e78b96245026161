package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/domain/users"
	"taxi-pet/internal/schema"
	"taxi-pet/internal/schema/migrations"
)

func TestRecordsRepo_UniqueEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo()
	c := migrations.UsersSchema()

	if err := repo.Insert(ctx, c, schema.Record{"id": schema.NewID(), "email": "ana@x.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := repo.Insert(ctx, c, schema.Record{"id": schema.NewID(), "email": "ANA@x.com"})
	var ce *records.ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestRecordsRepo_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo()
	c := migrations.PetsSchema()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, owner := range []string{"a", "b", "a"} {
		rec := schema.Record{"id": schema.NewID(), "userId": owner, "name": "p", "created": base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Insert(ctx, c, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	q, err := schema.ParseQuery(c, `userId = "a"`, "-created")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := repo.List(ctx, c, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0]["created"].(time.Time).Before(got[1]["created"].(time.Time)) {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestRecordsRepo_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo()
	c := migrations.PetsSchema()
	id := schema.NewID()
	_ = repo.Insert(ctx, c, schema.Record{"id": id, "name": "Milo"})

	rec, _ := repo.Get(ctx, c, id)
	rec["name"] = "changed"
	again, _ := repo.Get(ctx, c, id)
	if again["name"] != "Milo" {
		t.Fatalf("repo state mutated through returned record")
	}

	if err := repo.Delete(ctx, c, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, c, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
}

func TestOAuthStates_SingleUseAndExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewOAuthStates()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Save(ctx, "st", users.StateEntry{Provider: "google", Verifier: "v"}, time.Minute)
	e, err := s.Take(ctx, "st")
	if err != nil || e.Verifier != "v" {
		t.Fatalf("take: %v %+v", err, e)
	}
	if _, err := s.Take(ctx, "st"); !errors.Is(err, users.ErrStateNotFound) {
		t.Fatalf("state must be single use")
	}

	_ = s.Save(ctx, "old", users.StateEntry{Provider: "google"}, time.Minute)
	now = now.Add(2 * time.Minute)
	if _, err := s.Take(ctx, "old"); !errors.Is(err, users.ErrStateNotFound) {
		t.Fatalf("expired state must be rejected")
	}
}
