package file

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// binding assigns one TOML key to a field of domain.Config.
type binding struct {
	set func(cfg *domain.Config, v any) error
}

func stringKey(field func(*domain.Config) *string) binding {
	return binding{set: func(cfg *domain.Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		*field(cfg) = s
		return nil
	}}
}

func intKey(field func(*domain.Config) *int) binding {
	return binding{set: func(cfg *domain.Config, v any) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}}
}

func boolKey(field func(*domain.Config) *bool) binding {
	return binding{set: func(cfg *domain.Config, v any) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected boolean, got %T", v)
		}
		*field(cfg) = b
		return nil
	}}
}

func floatKey(field func(*domain.Config) *float64) binding {
	return binding{set: func(cfg *domain.Config, v any) error {
		switch n := v.(type) {
		case float64:
			*field(cfg) = n
		case int64:
			*field(cfg) = float64(n)
		case int:
			*field(cfg) = float64(n)
		default:
			return fmt.Errorf("expected number, got %T", v)
		}
		return nil
	}}
}

// durationKey accepts a Go duration string ("10s") or a number of seconds.
func durationKey(field func(*domain.Config) *time.Duration) binding {
	return binding{set: func(cfg *domain.Config, v any) error {
		switch d := v.(type) {
		case string:
			parsed, err := time.ParseDuration(d)
			if err != nil {
				return err
			}
			*field(cfg) = parsed
		case int64:
			*field(cfg) = time.Duration(d) * time.Second
		case int:
			*field(cfg) = time.Duration(d) * time.Second
		case float64:
			*field(cfg) = time.Duration(d * float64(time.Second))
		default:
			return fmt.Errorf("expected duration, got %T", v)
		}
		return nil
	}}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

var bindings = map[string]binding{
	"verbose": boolKey(func(c *domain.Config) *bool { return &c.Verbose }),

	"parser.base_url":       stringKey(func(c *domain.Config) *string { return &c.Parser.BaseURL }),
	"parser.token":          stringKey(func(c *domain.Config) *string { return &c.Parser.Token }),
	"parser.multimodal":     boolKey(func(c *domain.Config) *bool { return &c.Parser.Multimodal }),
	"parser.model":          stringKey(func(c *domain.Config) *string { return &c.Parser.Model }),
	"parser.num_workers":    intKey(func(c *domain.Config) *int { return &c.Parser.NumWorkers }),
	"parser.max_wait":       durationKey(func(c *domain.Config) *time.Duration { return &c.Parser.MaxWait }),
	"parser.check_interval": durationKey(func(c *domain.Config) *time.Duration { return &c.Parser.CheckInterval }),
	"parser.timeout":        durationKey(func(c *domain.Config) *time.Duration { return &c.Parser.Timeout }),
	"parser.result_timeout": durationKey(func(c *domain.Config) *time.Duration { return &c.Parser.ResultTimeout }),
	"parser.rate_limit":     floatKey(func(c *domain.Config) *float64 { return &c.Parser.RatePerSecond }),

	"embedding.base_url":   stringKey(func(c *domain.Config) *string { return &c.Embedding.BaseURL }),
	"embedding.token":      stringKey(func(c *domain.Config) *string { return &c.Embedding.Token }),
	"embedding.model":      stringKey(func(c *domain.Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": intKey(func(c *domain.Config) *int { return &c.Embedding.Dimensions }),
	"embedding.timeout":    durationKey(func(c *domain.Config) *time.Duration { return &c.Embedding.Timeout }),
	"embedding.rate_limit": floatKey(func(c *domain.Config) *float64 { return &c.Embedding.RatePerSecond }),

	"vector.backend": {set: func(c *domain.Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		c.Vector.Backend = domain.VectorBackend(s)
		return nil
	}},
	"vector.url":                   stringKey(func(c *domain.Config) *string { return &c.Vector.URL }),
	"vector.token":                 stringKey(func(c *domain.Config) *string { return &c.Vector.Token }),
	"vector.namespace":             stringKey(func(c *domain.Config) *string { return &c.Vector.Namespace }),
	"vector.postgres_url":          stringKey(func(c *domain.Config) *string { return &c.Vector.PostgresURL }),
	"vector.max_inline_image_size": intKey(func(c *domain.Config) *int { return &c.Vector.MaxInlineImageSize }),
	"vector.range_limit":           intKey(func(c *domain.Config) *int { return &c.Vector.RangeLimit }),
	"vector.batch_size":            intKey(func(c *domain.Config) *int { return &c.Vector.BatchSize }),
	"vector.timeout":               durationKey(func(c *domain.Config) *time.Duration { return &c.Vector.Timeout }),
	"vector.rate_limit":            floatKey(func(c *domain.Config) *float64 { return &c.Vector.RatePerSecond }),

	"storage.data_dir":       stringKey(func(c *domain.Config) *string { return &c.Storage.DataDir }),
	"storage.images_dir":     stringKey(func(c *domain.Config) *string { return &c.Storage.ImagesDir }),
	"storage.payload_dir":    stringKey(func(c *domain.Config) *string { return &c.Storage.PayloadDir }),
	"storage.embeddings_dir": stringKey(func(c *domain.Config) *string { return &c.Storage.EmbeddingsDir }),

	"llm.base_url": stringKey(func(c *domain.Config) *string { return &c.LLM.BaseURL }),
	"llm.api_key":  stringKey(func(c *domain.Config) *string { return &c.LLM.APIKey }),
	"llm.model":    stringKey(func(c *domain.Config) *string { return &c.LLM.Model }),

	"batch.size":  intKey(func(c *domain.Config) *int { return &c.Batch.Size }),
	"batch.pause": durationKey(func(c *domain.Config) *time.Duration { return &c.Batch.Pause }),
}

// KnownKeys returns every key Apply understands, sorted.
func KnownKeys() []string {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key maps to a configuration field.
func IsKnownKey(key string) bool {
	_, ok := bindings[key]
	return ok
}

// ParseValue converts a command-line string into the TOML value type it
// most likely denotes: integer, float, "true"/"false", then string.
func ParseValue(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ValidateValue checks that v can be assigned to key without applying it.
func ValidateValue(key string, v any) error {
	b, ok := bindings[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	cfg := domain.DefaultConfig()
	if err := b.set(&cfg, v); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	return nil
}
