// Package env reads configuration from .env files and the process
// environment.
package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ConfigSource = (*Source)(nil)

// Source overlays environment variables onto a configuration. Values in
// the process environment win over values from .env files. Empty values
// count as unset.
type Source struct {
	files  []string
	lookup func(string) (string, bool)
}

// NewSource creates a source reading the given .env files. Missing files
// are skipped. With no files, ".env" in the working directory is used.
func NewSource(files ...string) *Source {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return &Source{files: files, lookup: os.LookupEnv}
}

// Apply overlays every recognised variable onto cfg.
func (s *Source) Apply(cfg *domain.Config) error {
	fileVars, err := s.readFiles()
	if err != nil {
		return err
	}

	get := func(names ...string) (string, bool) {
		for _, name := range names {
			if v, ok := s.lookup(name); ok && v != "" {
				return v, true
			}
		}
		for _, name := range names {
			if v, ok := fileVars[name]; ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	var errs []error
	for _, v := range variables {
		raw, ok := get(v.names...)
		if !ok {
			continue
		}
		if err := v.set(cfg, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.names[0], err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// readFiles merges the existing .env files, earlier files winning.
func (s *Source) readFiles() (map[string]string, error) {
	merged := make(map[string]string)
	for _, f := range s.files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		vars, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vars {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// Names returns every recognised variable name, aliases included.
func Names() []string {
	var names []string
	for _, v := range variables {
		names = append(names, v.names...)
	}
	return names
}

// variable binds one or more environment names (first wins) to a field.
type variable struct {
	names []string
	set   func(cfg *domain.Config, raw string) error
}

func str(field func(*domain.Config) *string, names ...string) variable {
	return variable{names: names, set: func(cfg *domain.Config, raw string) error {
		*field(cfg) = raw
		return nil
	}}
}

func integer(field func(*domain.Config) *int, names ...string) variable {
	return variable{names: names, set: func(cfg *domain.Config, raw string) error {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}}
}

// boolean treats anything other than a true value as false.
func boolean(field func(*domain.Config) *bool, names ...string) variable {
	return variable{names: names, set: func(cfg *domain.Config, raw string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		*field(cfg) = err == nil && b
		return nil
	}}
}

// seconds accepts a plain number of seconds or a Go duration string.
func seconds(field func(*domain.Config) *time.Duration, names ...string) variable {
	return variable{names: names, set: func(cfg *domain.Config, raw string) error {
		d, err := parseSeconds(raw)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}}
}

func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

var variables = []variable{
	str(func(c *domain.Config) *string { return &c.Parser.BaseURL }, "LLAMA_BASE_URL"),
	str(func(c *domain.Config) *string { return &c.Parser.Token }, "LLAMA_API_TOKEN", "LLAMA_TOKEN"),
	boolean(func(c *domain.Config) *bool { return &c.Parser.Multimodal }, "LLAMA_USE_MULTIMODAL"),
	str(func(c *domain.Config) *string { return &c.Parser.Model }, "LLAMA_MODEL_NAME"),
	integer(func(c *domain.Config) *int { return &c.Parser.NumWorkers }, "NUM_WORKERS", "LLAMA_NUM_WORKERS"),
	seconds(func(c *domain.Config) *time.Duration { return &c.Parser.MaxWait }, "LLAMA_MAX_WAIT_TIME"),
	seconds(func(c *domain.Config) *time.Duration { return &c.Parser.CheckInterval }, "LLAMA_CHECK_INTERVAL"),
	boolean(func(c *domain.Config) *bool { return &c.Verbose }, "LLAMA_VERBOSE"),
	str(func(c *domain.Config) *string { return &c.Storage.ImagesDir }, "LLAMA_IMAGES_DIR"),
	str(func(c *domain.Config) *string { return &c.Storage.PayloadDir }, "LLAMA_PAYLOAD_DIR"),

	str(func(c *domain.Config) *string { return &c.Embedding.BaseURL }, "VOYAGE_BASE_URL"),
	str(func(c *domain.Config) *string { return &c.Embedding.Token }, "VOYAGE_API_KEY", "VOYAGE_API_TOKEN"),
	str(func(c *domain.Config) *string { return &c.Embedding.Model }, "VOYAGE_MODEL_NAME"),
	str(func(c *domain.Config) *string { return &c.Storage.EmbeddingsDir }, "VOYAGE_EMBEDDINGS_DIR"),
	integer(func(c *domain.Config) *int { return &c.Embedding.Dimensions }, "VOYAGE_DIMENSIONS"),

	str(func(c *domain.Config) *string { return &c.Vector.URL }, "UPSTASH_VECTOR_REST_URL", "UPSTASH_VECTOR_URL"),
	str(func(c *domain.Config) *string { return &c.Vector.Token }, "UPSTASH_VECTOR_REST_TOKEN", "UPSTASH_VECTOR_TOKEN"),
	integer(func(c *domain.Config) *int { return &c.Vector.MaxInlineImageSize }, "UPSTASH_MAX_IMAGE_SIZE"),
	str(func(c *domain.Config) *string { return &c.Vector.Namespace }, "UPSTASH_NAMESPACE"),
	{names: []string{"PAGEVEC_VECTOR_BACKEND"}, set: func(c *domain.Config, raw string) error {
		c.Vector.Backend = domain.VectorBackend(strings.ToLower(strings.TrimSpace(raw)))
		return nil
	}},
	str(func(c *domain.Config) *string { return &c.Vector.PostgresURL }, "PAGEVEC_PG_URL"),
	str(func(c *domain.Config) *string { return &c.Storage.DataDir }, "PAGEVEC_DATA_DIR"),

	str(func(c *domain.Config) *string { return &c.LLM.APIKey }, "OPENAI_API_KEY"),
	str(func(c *domain.Config) *string { return &c.LLM.BaseURL }, "OPENAI_BASE_URL"),
	str(func(c *domain.Config) *string { return &c.LLM.Model }, "OPENAI_MODEL"),

	integer(func(c *domain.Config) *int { return &c.Batch.Size }, "PAGEVEC_BATCH_SIZE"),
	seconds(func(c *domain.Config) *time.Duration { return &c.Batch.Pause }, "PAGEVEC_BATCH_PAUSE"),
}
