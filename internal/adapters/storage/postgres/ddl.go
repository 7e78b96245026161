package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taxi-pet/internal/schema"
)

// SchemaStorage materializa colecciones como tablas (schema.Storage).
type SchemaStorage struct {
	db *sql.DB
}

func NewSchemaStorage(db *sql.DB) *SchemaStorage {
	return &SchemaStorage{db: db}
}

func (s *SchemaStorage) CreateCollection(ctx context.Context, c *schema.Collection) error {
	_, err := s.db.ExecContext(ctx, CreateTableSQL(c))
	if err != nil {
		return fmt.Errorf("create table %s: %w", c.Name, err)
	}
	return nil
}

func (s *SchemaStorage) DropCollection(ctx context.Context, c *schema.Collection) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+ident(c.Name))
	if err != nil {
		return fmt.Errorf("drop table %s: %w", c.Name, err)
	}
	return nil
}

// CreateTableSQL arma el DDL de una colección. Idempotente (IF NOT EXISTS).
func CreateTableSQL(c *schema.Collection) string {
	cols := make([]string, 0, len(c.Fields)+2)
	for _, f := range c.Fields {
		cols = append(cols, ident(f.Name)+" "+columnType(f))
	}
	for _, f := range c.Fields {
		if f.Unique && !f.PrimaryKey {
			cols = append(cols, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", ident("uq_"+c.Name+"_"+f.Name), ident(f.Name)))
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", ident(c.Name), strings.Join(cols, ",\n\t"))
}

func columnType(f schema.Field) string {
	if f.PrimaryKey {
		return "TEXT PRIMARY KEY"
	}
	switch f.Type {
	case schema.FieldNumber:
		return "DOUBLE PRECISION NULL"
	case schema.FieldBool:
		return "BOOLEAN NOT NULL DEFAULT FALSE"
	case schema.FieldAutodate:
		return "TIMESTAMPTZ NULL"
	default:
		// text, email, password, file (nombre guardado)
		return "TEXT NOT NULL DEFAULT ''"
	}
}
