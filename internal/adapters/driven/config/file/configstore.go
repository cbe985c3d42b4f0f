package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a TOML-file implementation of driven.ConfigStore.
// Nested tables are exposed as dot-notation keys ("parser.model").
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a TOML-based config store for filePath.
// If filePath is empty, defaults to ~/.pagevec/config.toml.
func NewConfigStore(filePath string) (*ConfigStore, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		filePath = filepath.Join(home, ".pagevec", "config.toml")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filePath,
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get returns the raw value stored under a dotted key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString returns key as a string, or "" when absent or not a string.
func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

// GetInt returns key as an int. TOML decodes integers as int64.
func (s *ConfigStore) GetInt(key string) int {
	if v, ok := lookup[int64](s, key); ok {
		return int(v)
	}
	v, _ := lookup[int](s, key)
	return v
}

// GetBool returns key as a bool, or false when absent or not a bool.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

// Keys returns every stored key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.data)
}

func lookup[T any](s *ConfigStore, key string) (T, bool) {
	raw, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// Set stores value under key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	out, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.filePath, err)
	}
	return os.WriteFile(s.filePath, out, 0o600)
}

// Load reads configuration from the TOML file. A missing file is empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = map[string]any{}
		return nil
	}
	if err != nil {
		return err
	}

	tables := map[string]any{}
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, s.filePath, err)
	}
	s.data = map[string]any{}
	flatten(tables, "", s.data)
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Apply overlays every recognised key onto cfg. Unknown keys are ignored.
func (s *ConfigStore) Apply(cfg *domain.Config) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range sortedKeys(s.data) {
		b, ok := bindings[key]
		if !ok {
			continue
		}
		if err := b.set(cfg, s.data[key]); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
	}
	return nil
}

// flatten writes nested tables into out under dotted keys.
func flatten(tables map[string]any, prefix string, out map[string]any) {
	for k, v := range tables {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(sub, k, out)
			continue
		}
		out[k] = v
	}
}

// nestMap is the inverse of flatten so the file keeps its tables.
func nestMap(flat map[string]any) map[string]any {
	result := make(map[string]any)

	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := result
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	return result
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
