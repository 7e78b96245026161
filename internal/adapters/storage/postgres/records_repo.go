package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
)

// RecordsRepo guarda cada colección en su tabla (ver ddl.go).
type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) Insert(ctx context.Context, c *schema.Collection, rec schema.Record) error {
	cols := make([]string, 0, len(c.Fields))
	marks := make([]string, 0, len(c.Fields))
	args := make([]any, 0, len(c.Fields))
	for i, f := range c.Fields {
		cols = append(cols, ident(f.Name))
		marks = append(marks, "$"+strconv.Itoa(i+1))
		args = append(args, toColumn(f, rec))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident(c.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return r.mapErr(c, err)
	}
	return nil
}

func (r *RecordsRepo) Get(ctx context.Context, c *schema.Collection, id string) (schema.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", selectList(c), ident(c.Name), ident("id"))
	rec, err := scanRecord(c, r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *RecordsRepo) Update(ctx context.Context, c *schema.Collection, rec schema.Record) error {
	sets := make([]string, 0, len(c.Fields))
	args := []any{rec.ID()}
	for _, f := range c.Fields {
		if f.PrimaryKey {
			continue
		}
		args = append(args, toColumn(f, rec))
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(f.Name), len(args)))
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", ident(c.Name), strings.Join(sets, ", "), ident("id"))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return r.mapErr(c, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) Delete(ctx context.Context, c *schema.Collection, id string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident(c.Name), ident("id")), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List traduce la query a WHERE/ORDER BY. Los campos ya fueron validados por
// schema.ParseQuery; los valores van siempre como parámetros.
func (r *RecordsRepo) List(ctx context.Context, c *schema.Collection, q schema.Query) ([]schema.Record, error) {
	where, args := whereClause(c, q.Conditions)
	stmt := fmt.Sprintf("SELECT %s FROM %s%s%s", selectList(c), ident(c.Name), where, orderClause(c, q.Sort))

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schema.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(c, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) mapErr(c *schema.Collection, err error) error {
	if field, ok := conflictField(err, c.Name); ok {
		return &records.ConflictError{Collection: c.Name, Field: field}
	}
	return err
}

func selectList(c *schema.Collection) string {
	cols := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		cols = append(cols, ident(f.Name))
	}
	return strings.Join(cols, ", ")
}

func whereClause(c *schema.Collection, conds []schema.Condition) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, cond := range conds {
		f, _ := c.Field(cond.Field)
		v, ok := parseValue(f, cond.Value)
		if !ok {
			// un valor que no parsea nunca es igual a nada
			if cond.Op == schema.CondEq {
				parts = append(parts, "FALSE")
			}
			continue
		}
		args = append(args, v)
		op := "="
		if cond.Op == schema.CondNeq {
			op = "IS DISTINCT FROM"
		}
		parts = append(parts, fmt.Sprintf("%s %s $%d", ident(f.Name), op, len(args)))
	}
	if len(parts) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func orderClause(c *schema.Collection, sorts []schema.SortField) string {
	parts := make([]string, 0, len(sorts)+1)
	for _, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, ident(s.Field)+" "+dir)
	}
	if len(parts) == 0 && c.HasField("created") {
		parts = append(parts, ident("created")+" ASC")
	}
	parts = append(parts, ident("id")+" ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

func parseValue(f schema.Field, raw string) (any, bool) {
	switch f.Type {
	case schema.FieldNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		return n, err == nil
	case schema.FieldBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		return b, err == nil
	case schema.FieldAutodate:
		t, err := time.Parse(schema.DateLayout, strings.TrimSpace(raw))
		return t, err == nil
	default:
		return raw, true
	}
}

func toColumn(f schema.Field, rec schema.Record) any {
	switch f.Type {
	case schema.FieldNumber:
		if n, ok := rec.Float(f.Name); ok {
			return n
		}
		return nil
	case schema.FieldBool:
		b, _ := rec[f.Name].(bool)
		return b
	case schema.FieldAutodate:
		if t, ok := rec[f.Name].(time.Time); ok {
			return t.UTC()
		}
		return nil
	default:
		return rec.String(f.Name)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(c *schema.Collection, row scanner) (schema.Record, error) {
	dest := make([]any, len(c.Fields))
	for i, f := range c.Fields {
		switch f.Type {
		case schema.FieldNumber:
			dest[i] = new(sql.NullFloat64)
		case schema.FieldBool:
			dest[i] = new(sql.NullBool)
		case schema.FieldAutodate:
			dest[i] = new(sql.NullTime)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	rec := make(schema.Record, len(c.Fields))
	for i, f := range c.Fields {
		switch v := dest[i].(type) {
		case *sql.NullFloat64:
			if v.Valid {
				rec[f.Name] = v.Float64
			}
		case *sql.NullBool:
			rec[f.Name] = v.Valid && v.Bool
		case *sql.NullTime:
			if v.Valid {
				rec[f.Name] = v.Time.UTC()
			}
		case *sql.NullString:
			rec[f.Name] = v.String
		}
	}
	return rec, nil
}
