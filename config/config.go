package config

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kochabx/axis/log"
)

// Config manages application configuration
type Config struct {
	mu        sync.RWMutex        // protects concurrent access to target
	viper     *viper.Viper        // viper instance for configuration management
	validate  *validator.Validate // validator for configuration validation
	target    any                 // target is the destination where the configuration will be unmarshalled
	loader    Loader              // loader is responsible for loading configuration
	name      string              // config file name used by the default loader
	paths     []string            // search paths used by the default loader
	envPrefix string              // prefix of environment overrides
	defaults  map[string]any      // viper defaults registered before loading
}

// New creates a new Config instance with the given options
// If no loader is provided, a default FileLoader will be created with:
//   - filename: "config.yaml"
//   - paths: ["."]
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		target:   target,
		name:     "config.yaml",
		paths:    []string{"."},
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	for key, value := range c.defaults {
		c.viper.SetDefault(key, value)
	}
	if c.envPrefix != "" {
		c.viper.SetEnvPrefix(c.envPrefix)
	}

	// Create default FileLoader if no loader is provided
	if c.loader == nil {
		c.loader = NewFileLoader(c.name, c.paths, c.viper, c.validate)
	}

	return c
}

// Load reads the configuration using the configured loader
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Reload reloads the configuration from the loader
func (c *Config) Reload() error {
	return c.Load()
}

// Watch reloads the target on every configuration change. onChange, when
// set, runs after each successful reload.
func (c *Config) Watch(onChange ...func()) error {
	return c.loader.Watch(func() {
		log.Info().Str("component", "config").Msg("config change detected")

		// Attempt to reload configuration
		if err := c.Reload(); err != nil {
			log.Error().Err(err).Str("component", "config").Msg("failed to reload config after change")
			return
		}

		log.Info().Str("component", "config").Msg("config reloaded successfully")
		for _, fn := range onChange {
			if fn != nil {
				fn()
			}
		}
	})
}

// Read runs fn with the target under the read lock.
func (c *Config) Read(fn func(target any)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.target)
}

// GetViper returns the underlying viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.viper
}
