package postgres

import (
	"context"
	"database/sql"
	"time"
)

// Ledger registra migraciones aplicadas en schema_migrations (schema.Ledger).
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Ensure crea la tabla del ledger si falta. Se llama antes de Migrator.Up.
func (l *Ledger) Ensure(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (l *Ledger) Applied(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT name FROM schema_migrations ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (l *Ledger) Record(ctx context.Context, name string, at time.Time) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO schema_migrations (name, applied_at) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, name, at)
	return err
}

func (l *Ledger) Remove(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE name = $1`, name)
	return err
}
