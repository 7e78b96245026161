package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Settings son los ajustes globales que fija la migración inicial.
type Settings struct {
	AppName      string
	AppURL       string
	HideControls bool

	LogsMaxDays  int
	LogsMinLevel int
	LogIP        bool

	TrustedProxyHeaders []string
}

// Registry es el conjunto de colecciones declaradas. Se construye al iniciar
// (replay de migraciones) y después sólo se lee.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Collection
	order    []string
	settings Settings
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Collection{}}
}

// Save registra c. Falla con ErrNameNotUnique si ya existe una colección con
// ese nombre o id; la existente queda intacta.
func (r *Registry) Save(c *Collection) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("schema: collection name required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[c.Name]; exists {
		return fmt.Errorf("%w: %s", ErrNameNotUnique, c.Name)
	}
	if c.ID != "" {
		for _, existing := range r.byName {
			if existing.ID == c.ID {
				return fmt.Errorf("%w: id %s", ErrNameNotUnique, c.ID)
			}
		}
	}
	if c.Type == "" {
		c.Type = TypeBase
	}
	r.byName[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// Find busca por nombre o id.
func (r *Registry) Find(nameOrID string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(nameOrID)
}

func (r *Registry) findLocked(nameOrID string) (*Collection, error) {
	if c, ok := r.byName[nameOrID]; ok {
		return c, nil
	}
	for _, c := range r.byName {
		if c.ID != "" && c.ID == nameOrID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, nameOrID)
}

// MustFind es para el wiring de arranque: una colección faltante es un bug de migraciones.
func (r *Registry) MustFind(nameOrID string) *Collection {
	c, err := r.Find(nameOrID)
	if err != nil {
		panic(err)
	}
	return c
}

// Delete quita la colección (inverso exacto de Save).
func (r *Registry) Delete(nameOrID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.findLocked(nameOrID)
	if err != nil {
		return err
	}
	delete(r.byName, c.Name)
	for i, n := range r.order {
		if n == c.Name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names devuelve los nombres en orden de registro.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.settings
	s.TrustedProxyHeaders = append([]string(nil), s.TrustedProxyHeaders...)
	return s
}

func (r *Registry) SaveSettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s
}
