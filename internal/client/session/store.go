package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"taxi-pet/internal/client/api"
)

// Persisted es el slot de credenciales: token e identidad viajan juntos.
type Persisted struct {
	Token    string     `json:"token"`
	Identity api.Record `json:"identity"`
}

type TokenStore interface {
	// Load devuelve ok=false si no hay nada guardado.
	Load() (Persisted, bool, error)
	Save(p Persisted) error
	Clear() error
}

type MemoryStore struct {
	mu  sync.Mutex
	p   Persisted
	set bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load() (Persisted, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p, s.set, nil
}

func (s *MemoryStore) Save(p Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p, s.set = p, true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p, s.set = Persisted{}, false
	return nil
}

// FileStore guarda la sesión como JSON con permisos 0600.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (Persisted, bool, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Persisted{}, false, nil
	}
	if err != nil {
		return Persisted{}, false, fmt.Errorf("read session: %w", err)
	}
	var p Persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return Persisted{}, false, fmt.Errorf("decode session: %w", err)
	}
	return p, true, nil
}

// Save escribe a un temporal y renombra: nunca queda un archivo a medias.
func (s *FileStore) Save(p Persisted) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
