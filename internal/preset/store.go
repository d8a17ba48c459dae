// Package preset persists filter snapshots and named presets in a single
// JSON file. It implements the engine's key-value surface; writes go
// through a temp file and rename so a crash never leaves a torn file.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore maps keys to raw JSON values inside one file. The file is read
// lazily on first access and rewritten whole on every Set.
type FileStore struct {
	path    string
	loaded  bool
	loadErr error
	m       map[string]json.RawMessage
}

// DefaultPath places the store under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "logview", "presets.json")
}

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset store path must not be empty")
	}
	return &FileStore{path: path, m: map[string]json.RawMessage{}}, nil
}

func (s *FileStore) Path() string { return s.path }

// load reads the file once. A failed load sticks; a corrupt store never
// reads as empty or accepts writes.
func (s *FileStore) load() error {
	if s.loaded {
		return s.loadErr
	}
	s.loaded = true
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.loadErr = fmt.Errorf("open preset store: %w", err)
		return s.loadErr
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&s.m); err != nil {
		s.loadErr = fmt.Errorf("decode preset store %s: %w", s.path, err)
		return s.loadErr
	}
	return nil
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if err := s.load(); err != nil {
		return nil, false, err
	}
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	if err := s.load(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	s.m[key] = append(json.RawMessage(nil), value...)
	return s.flush()
}

func (s *FileStore) Keys(prefix string) ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Delete removes a key; deleting an absent key is a no-op.
func (s *FileStore) Delete(key string) error {
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.m[key]; !ok {
		return nil
	}
	delete(s.m, key)
	return s.flush()
}

func (s *FileStore) flush() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.m); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode preset store: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
