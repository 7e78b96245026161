package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"taxi-pet/internal/platform/logger"
)

// App es lo que ve una migración: guardar/borrar colecciones y ajustes.
type App interface {
	Save(c *Collection) error
	FindCollection(nameOrID string) (*Collection, error)
	Delete(c *Collection) error
	Settings() Settings
	SaveSettings(s Settings) error
}

// Migration es un paso de schema. Down debe ser el inverso estructural exacto de Up.
type Migration struct {
	Name string
	Up   func(app App) error
	Down func(app App) error
}

// Ledger persiste qué migraciones se aplicaron.
type Ledger interface {
	Applied(ctx context.Context) ([]string, error)
	Record(ctx context.Context, name string, at time.Time) error
	Remove(ctx context.Context, name string) error
}

// Storage materializa colecciones en el backend (DDL). Opcional; debe ser idempotente.
type Storage interface {
	CreateCollection(ctx context.Context, c *Collection) error
	DropCollection(ctx context.Context, c *Collection) error
}

// Migrator aplica migraciones en orden sobre un Registry.
//
// El registry vive en memoria, así que en cada arranque se re-ejecutan todos los Up;
// el Ledger decide qué pasos son nuevos para Storage y el orden de Revert.
type Migrator struct {
	registry   *Registry
	ledger     Ledger
	storage    Storage
	log        logger.Logger
	now        func() time.Time
	migrations []Migration
}

func NewMigrator(reg *Registry, ledger Ledger, storage Storage, log logger.Logger, migrations []Migration) *Migrator {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	if log == nil {
		log = logger.Nop()
	}
	sorted := append([]Migration(nil), migrations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return &Migrator{
		registry:   reg,
		ledger:     ledger,
		storage:    storage,
		log:        log,
		now:        time.Now,
		migrations: sorted,
	}
}

// Up aplica todas las migraciones. Devuelve los nombres que fueron nuevos para el ledger.
// Un conflicto de nombre (colección ya existente) no es error: se registra y se sigue.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	appliedList, err := m.ledger.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("read migrations ledger: %w", err)
	}
	applied := map[string]bool{}
	for _, n := range appliedList {
		applied[n] = true
	}

	var fresh []string
	for _, mig := range m.migrations {
		if mig.Up == nil {
			continue
		}
		pending := !applied[mig.Name]
		app := &migrationApp{ctx: ctx, registry: m.registry, storage: m.storage, materialize: pending}

		if err := mig.Up(app); err != nil {
			if !errors.Is(err, ErrNameNotUnique) {
				return fresh, fmt.Errorf("migration %s: %w", mig.Name, err)
			}
			m.log.Info("collection already exists, skipping", map[string]any{"migration": mig.Name})
		}

		if !pending {
			continue
		}
		if err := m.ledger.Record(ctx, mig.Name, m.now().UTC()); err != nil {
			return fresh, fmt.Errorf("record migration %s: %w", mig.Name, err)
		}
		fresh = append(fresh, mig.Name)
		m.log.Info("migration applied", map[string]any{"migration": mig.Name})
	}
	return fresh, nil
}

// Revert ejecuta Down de las últimas n migraciones aplicadas, en orden inverso.
func (m *Migrator) Revert(ctx context.Context, n int) ([]string, error) {
	appliedList, err := m.ledger.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("read migrations ledger: %w", err)
	}
	sort.Strings(appliedList)

	byName := map[string]Migration{}
	for _, mig := range m.migrations {
		byName[mig.Name] = mig
	}

	var reverted []string
	for i := len(appliedList) - 1; i >= 0 && len(reverted) < n; i-- {
		name := appliedList[i]
		mig, ok := byName[name]
		if !ok {
			return reverted, fmt.Errorf("revert %s: migration not registered", name)
		}
		if mig.Down != nil {
			app := &migrationApp{ctx: ctx, registry: m.registry, storage: m.storage, materialize: true}
			if err := mig.Down(app); err != nil {
				return reverted, fmt.Errorf("revert %s: %w", name, err)
			}
		}
		if err := m.ledger.Remove(ctx, name); err != nil {
			return reverted, fmt.Errorf("unrecord migration %s: %w", name, err)
		}
		reverted = append(reverted, name)
		m.log.Info("migration reverted", map[string]any{"migration": name})
	}
	return reverted, nil
}

type migrationApp struct {
	ctx         context.Context
	registry    *Registry
	storage     Storage
	materialize bool
}

func (a *migrationApp) Save(c *Collection) error {
	if err := a.registry.Save(c); err != nil {
		return err
	}
	if a.materialize && a.storage != nil {
		if err := a.storage.CreateCollection(a.ctx, c); err != nil {
			_ = a.registry.Delete(c.Name)
			return err
		}
	}
	return nil
}

func (a *migrationApp) FindCollection(nameOrID string) (*Collection, error) {
	return a.registry.Find(nameOrID)
}

func (a *migrationApp) Delete(c *Collection) error {
	if c == nil {
		return ErrCollectionNotFound
	}
	if err := a.registry.Delete(c.Name); err != nil {
		return err
	}
	if a.materialize && a.storage != nil {
		return a.storage.DropCollection(a.ctx, c)
	}
	return nil
}

func (a *migrationApp) Settings() Settings { return a.registry.Settings() }

func (a *migrationApp) SaveSettings(s Settings) error {
	a.registry.SaveSettings(s)
	return nil
}

// MemoryLedger es el ledger por defecto (dev/tests).
type MemoryLedger struct {
	mu      sync.Mutex
	applied map[string]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{applied: map[string]time.Time{}}
}

func (l *MemoryLedger) Applied(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.applied))
	for n := range l.applied {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (l *MemoryLedger) Record(_ context.Context, name string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applied[name] = at
	return nil
}

func (l *MemoryLedger) Remove(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.applied, name)
	return nil
}
