package postgres

import (
	"strings"
	"testing"

	"taxi-pet/internal/schema"
	"taxi-pet/internal/schema/migrations"
)

func TestCreateTableSQL_Users(t *testing.T) {
	ddl := CreateTableSQL(migrations.UsersSchema())

	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "users"`,
		`"id" TEXT PRIMARY KEY`,
		`"rating" DOUBLE PRECISION NULL`,
		`"verified" BOOLEAN NOT NULL DEFAULT FALSE`,
		`"created" TIMESTAMPTZ NULL`,
		`CONSTRAINT "uq_users_email" UNIQUE ("email")`,
	} {
		if !strings.Contains(ddl, want) {
			t.Fatalf("missing %q in:\n%s", want, ddl)
		}
	}
}

func TestWhereAndOrder(t *testing.T) {
	c := migrations.PetsSchema()
	q, err := schema.ParseQuery(c, `userId = "abc" && age != "2.5"`, "-created")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	where, args := whereClause(c, q.Conditions)
	if where != ` WHERE "userId" = $1 AND "age" IS DISTINCT FROM $2` {
		t.Fatalf("unexpected where %q", where)
	}
	if len(args) != 2 || args[0] != "abc" || args[1] != 2.5 {
		t.Fatalf("unexpected args %v", args)
	}
	if got := orderClause(c, q.Sort); got != ` ORDER BY "created" DESC, "id" ASC` {
		t.Fatalf("unexpected order %q", got)
	}

	where, _ = whereClause(c, []schema.Condition{{Field: "age", Op: schema.CondEq, Value: "old"}})
	if where != " WHERE FALSE" {
		t.Fatalf("unparseable number must match nothing, got %q", where)
	}
}
