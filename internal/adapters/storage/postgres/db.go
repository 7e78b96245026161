package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"taxi-pet/internal/domain/records"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	ErrNotFound = records.ErrNotFound
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// ident cita un identificador (tabla/columna). Los nombres ya vienen
// validados contra la colección, esto es sólo el quoting de Postgres.
func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// conflictField traduce una violación unique (23505) al campo afectado.
// Las constraints se nombran uq_<tabla>_<campo> (ver ddl.go).
func conflictField(err error, table string) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	if f, ok := strings.CutPrefix(pgErr.ConstraintName, "uq_"+table+"_"); ok {
		return f, true
	}
	return "id", true
}
