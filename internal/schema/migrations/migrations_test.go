package migrations

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"taxi-pet/internal/schema"
)

func applyAll(t *testing.T) (*schema.Registry, *schema.Migrator) {
	t.Helper()
	reg := schema.NewRegistry()
	m := schema.NewMigrator(reg, nil, nil, nil, All())
	if _, err := m.Up(context.Background()); err != nil {
		t.Fatalf("up: %v", err)
	}
	return reg, m
}

func TestAll_AppliesInOrder(t *testing.T) {
	reg, _ := applyAll(t)

	want := []string{UsersCollection, PetsCollection, RatingsCollection, HistoryCollection}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("collections = %v, want %v", got, want)
	}
	if s := reg.Settings(); s.LogsMaxDays != 7 || len(s.TrustedProxyHeaders) != 3 {
		t.Fatalf("settings not applied: %+v", s)
	}
}

func TestAll_ReapplyIsNoop(t *testing.T) {
	reg, m := applyAll(t)
	before := reg.MustFind(PetsCollection)

	if _, err := m.Up(context.Background()); err != nil {
		t.Fatalf("second up: %v", err)
	}
	if reg.MustFind(PetsCollection) != before {
		t.Fatalf("pets definition must be unchanged")
	}
}

func TestAll_RevertEverything(t *testing.T) {
	reg, m := applyAll(t)

	reverted, err := m.Revert(context.Background(), len(All()))
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if len(reverted) != len(All()) {
		t.Fatalf("expected all reverted, got %v", reverted)
	}
	if len(reg.Names()) != 0 {
		t.Fatalf("residue after revert: %v", reg.Names())
	}
	if !reflect.DeepEqual(reg.Settings(), schema.Settings{}) {
		t.Fatalf("settings residue: %+v", reg.Settings())
	}
}

func TestPets_OwnerScopedRules(t *testing.T) {
	c := PetsSchema()
	a := schema.Caller{ID: "aaaaaaaaaaaaaaa"}
	b := schema.Caller{ID: "bbbbbbbbbbbbbbb"}
	pet := schema.Record{"id": schema.NewID(), "userId": a.ID, "name": "Milo", "animal_type": "dog", "size": "small"}

	for _, op := range []schema.Op{schema.OpList, schema.OpView, schema.OpCreate, schema.OpUpdate, schema.OpDelete} {
		if err := c.Authorize(op, a, pet); err != nil {
			t.Fatalf("owner %s: %v", op, err)
		}
		if err := c.Authorize(op, b, pet); !errors.Is(err, schema.ErrForbidden) {
			t.Fatalf("other identity %s must be forbidden", op)
		}
	}
	if got := c.Filter(b, []schema.Record{pet}); len(got) != 0 {
		t.Fatalf("B must not list A's pet")
	}
}

func TestRatings_Rules(t *testing.T) {
	c := RatingsSchema()
	rater := schema.Caller{ID: "rater"}
	rated := schema.Caller{ID: "rated"}
	other := schema.Caller{ID: "other"}
	rec := schema.Record{"id": schema.NewID(), "rideId": "r1", "ratedBy": rater.ID, "ratedUser": rated.ID, "rating": 4.0}

	if err := c.Authorize(schema.OpView, rated, rec); err != nil {
		t.Fatalf("rated user should read: %v", err)
	}
	if err := c.Authorize(schema.OpUpdate, rated, rec); err == nil {
		t.Fatalf("rated user must not update")
	}
	if err := c.Authorize(schema.OpDelete, rater, rec); err != nil {
		t.Fatalf("rater should delete: %v", err)
	}
	if err := c.Authorize(schema.OpView, other, rec); err == nil {
		t.Fatalf("third party must not read")
	}

	rec["rating"] = 5.5
	if _, ok := schema.AsValidation(c.Validate(rec)); !ok {
		t.Fatalf("score above 5 must be rejected")
	}
}

func TestUsers_SelfScopedAndPublicSignup(t *testing.T) {
	c := UsersSchema()
	rec := schema.Record{"id": "aaaaaaaaaaaaaaa"}

	if err := c.Authorize(schema.OpCreate, schema.Caller{}, rec); err != nil {
		t.Fatalf("signup must be public: %v", err)
	}
	if err := c.Authorize(schema.OpView, schema.Caller{ID: "bbbbbbbbbbbbbbb"}, rec); err == nil {
		t.Fatalf("users must only see themselves")
	}
	if _, ok := c.Visible(schema.Record{"password": "hash"})["password"]; ok {
		t.Fatalf("password must be hidden")
	}
}
