package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
)

var (
	ErrNotFound = records.ErrNotFound
)

// recordsRepo guarda registros por colección (clave: id de colección).
type recordsRepo struct {
	mu     sync.RWMutex
	tables map[string]map[string]schema.Record
	order  map[string][]string // orden de inserción, para listados estables
}

func NewRecordsRepo() records.Repository {
	return &recordsRepo{
		tables: map[string]map[string]schema.Record{},
		order:  map[string][]string{},
	}
}

func (r *recordsRepo) Insert(ctx context.Context, c *schema.Collection, rec schema.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := rec.ID()
	if strings.TrimSpace(id) == "" {
		return errors.New("record id required")
	}
	t := r.table(c)
	if _, exists := t[id]; exists {
		return &records.ConflictError{Collection: c.Name, Field: "id"}
	}
	if err := r.checkUnique(c, rec); err != nil {
		return err
	}

	t[id] = rec.Clone()
	r.order[c.ID] = append(r.order[c.ID], id)
	return nil
}

func (r *recordsRepo) Get(ctx context.Context, c *schema.Collection, id string) (schema.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.tables[c.ID][id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *recordsRepo) Update(ctx context.Context, c *schema.Collection, rec schema.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	if _, exists := t[rec.ID()]; !exists {
		return ErrNotFound
	}
	if err := r.checkUnique(c, rec); err != nil {
		return err
	}
	t[rec.ID()] = rec.Clone()
	return nil
}

func (r *recordsRepo) Delete(ctx context.Context, c *schema.Collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	if _, exists := t[id]; !exists {
		return ErrNotFound
	}
	delete(t, id)

	ids := r.order[c.ID]
	for i, v := range ids {
		if v == id {
			r.order[c.ID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (r *recordsRepo) List(ctx context.Context, c *schema.Collection, q schema.Query) ([]schema.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := r.tables[c.ID]
	all := make([]schema.Record, 0, len(t))
	for _, id := range r.order[c.ID] {
		all = append(all, t[id].Clone())
	}

	return q.Apply(all), nil
}

// checkUnique compara sin distinguir mayúsculas (emails). Se llama con el lock tomado.
func (r *recordsRepo) checkUnique(c *schema.Collection, rec schema.Record) error {
	for _, f := range c.Fields {
		if !f.Unique {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(rec.String(f.Name)))
		if v == "" {
			continue
		}
		for id, other := range r.tables[c.ID] {
			if id == rec.ID() {
				continue
			}
			if strings.ToLower(strings.TrimSpace(other.String(f.Name))) == v {
				return &records.ConflictError{Collection: c.Name, Field: f.Name}
			}
		}
	}
	return nil
}

func (r *recordsRepo) table(c *schema.Collection) map[string]schema.Record {
	t, ok := r.tables[c.ID]
	if !ok {
		t = map[string]schema.Record{}
		r.tables[c.ID] = t
	}
	return t
}
