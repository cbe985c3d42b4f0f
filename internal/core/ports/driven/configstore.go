package driven

import "github.com/custodia-labs/pagevec/internal/core/domain"

// ConfigSource is one layer of configuration. Sources are applied in
// order, each overriding only the values it sets.
type ConfigSource interface {
	// Apply overlays this source's values onto cfg.
	Apply(cfg *domain.Config) error
}

// ConfigStore provides access to persisted configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	ConfigSource

	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Keys returns every stored key in sorted order.
	Keys() []string

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
