package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves prompts from <dir>/<name>.txt. A prompt that has a
// built-in default is seeded to disk the first time it is loaded, so users
// can edit it. Unreadable, missing or blank files fall back to the default.
type PromptStore struct {
	dir      string
	defaults map[string]string

	mu     sync.Mutex
	loaded map[string]string
}

// NewPromptStore returns a store rooted at dir, or ~/.pagevec/prompts when
// dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string, defaults map[string]string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".pagevec", "prompts")
	}
	return &PromptStore{dir: dir, defaults: defaults, loaded: map[string]string{}}, nil
}

// Load implements driven.PromptStore.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text, ok := s.loaded[name]; ok {
		return text, nil
	}

	def, hasDefault := s.defaults[name]
	text, err := s.read(name)
	switch {
	case err == nil && text != "":
	case hasDefault:
		if errors.Is(err, fs.ErrNotExist) {
			s.seed(name, def)
		}
		text = def
	case err != nil:
		return "", fmt.Errorf("%w: prompt %q: %w", domain.ErrNotFound, name, err)
	default:
		return "", fmt.Errorf("%w: prompt %q is empty", domain.ErrInvalidInput, name)
	}

	s.loaded[name] = text
	return text, nil
}

// Reload forgets loaded prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = map[string]string{}
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string { return s.dir }

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// seed writes a default prompt file. Failures leave the default in use.
func (s *PromptStore) seed(name, text string) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}
	_ = os.WriteFile(s.path(name), []byte(text+"\n"), 0o600)
}
