// Package file stores pipeline checkpoints on the local filesystem.
//
// Three directories are used, each keyed by doc name:
//
//   - images/{doc}_page_{n}.{ext}: page images
//   - payloads/{doc}.json: embedding request written by the parse stage
//   - embeddings/{doc}.json: embedding response written by the embed stage
//
// By default they live under ~/.pagevec/data.
package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Store is a filesystem implementation of driven.ArtifactStore.
type Store struct {
	dataDir       string
	imagesDir     string
	payloadDir    string
	embeddingsDir string
}

// NewStore creates the checkpoint directories and returns a store.
// Empty directories in cfg default to subdirectories of cfg.DataDir,
// which itself defaults to ~/.pagevec/data.
func NewStore(cfg domain.StorageConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagevec", "data")
	}

	s := &Store{
		dataDir:       dataDir,
		imagesDir:     orDefault(cfg.ImagesDir, filepath.Join(dataDir, "images")),
		payloadDir:    orDefault(cfg.PayloadDir, filepath.Join(dataDir, "payloads")),
		embeddingsDir: orDefault(cfg.EmbeddingsDir, filepath.Join(dataDir, "embeddings")),
	}
	for _, dir := range []string{s.imagesDir, s.payloadDir, s.embeddingsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return s, nil
}

// Path returns the checkpoint file path for kind and docName.
func (s *Store) Path(kind driven.ArtifactKind, docName string) string {
	dir := s.payloadDir
	if kind == driven.ArtifactEmbeddings {
		dir = s.embeddingsDir
	}
	return filepath.Join(dir, docName+".json")
}

// Exists reports whether the checkpoint file is present.
func (s *Store) Exists(kind driven.ArtifactKind, docName string) bool {
	info, err := os.Stat(s.Path(kind, docName))
	return err == nil && info.Mode().IsRegular()
}

// WriteJSON writes v with 2-space indentation and no HTML escaping.
// The file is replaced atomically so a crash never leaves a truncated
// checkpoint behind.
func (s *Store) WriteJSON(kind driven.ArtifactKind, docName string, v any) (string, error) {
	if !domain.IsValidDocName(docName) {
		return "", fmt.Errorf("%w: doc name %q", domain.ErrInvalidInput, docName)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding %s: %w", kind, err)
	}

	path := s.Path(kind, docName)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Read returns the checkpoint content.
func (s *Store) Read(kind driven.ArtifactKind, docName string) ([]byte, error) {
	path := s.Path(kind, docName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Remove deletes the checkpoint file if present.
func (s *Store) Remove(kind driven.ArtifactKind, docName string) error {
	if err := os.Remove(s.Path(kind, docName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveImage writes an image into the images directory.
func (s *Store) SaveImage(filename string, data []byte) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("%w: image filename %q", domain.ErrInvalidInput, filename)
	}
	path := s.ImagePath(filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ImagePath returns the path of filename in the images directory.
func (s *Store) ImagePath(filename string) string {
	return filepath.Join(s.imagesDir, filename)
}

// RemoveImages deletes every {docName}_page_* file.
func (s *Store) RemoveImages(docName string) (int, error) {
	if !domain.IsValidDocName(docName) {
		return 0, fmt.Errorf("%w: doc name %q", domain.ErrInvalidInput, docName)
	}
	matches, err := filepath.Glob(filepath.Join(s.imagesDir, domain.PageImagePattern(docName)))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ImagesDir returns the images directory.
func (s *Store) ImagesDir() string { return s.imagesDir }

// Dirs returns the resolved directory layout.
func (s *Store) Dirs() domain.StorageConfig {
	return domain.StorageConfig{
		DataDir:       s.dataDir,
		ImagesDir:     s.imagesDir,
		PayloadDir:    s.payloadDir,
		EmbeddingsDir: s.embeddingsDir,
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
