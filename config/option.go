package config

import (
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Option is a function that configures a Config
type Option func(*Config)

// WithViper sets a custom viper instance
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets a custom validator. A nil validator disables validation.
func WithValidator(v *validator.Validate) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader sets the configuration loader
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithFile loads the file at path instead of config.yaml in the working directory
func WithFile(path string) Option {
	return func(c *Config) {
		c.name = filepath.Base(path)
		c.paths = []string{filepath.Dir(path)}
	}
}

// WithEnvPrefix sets the prefix of environment overrides
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithDefaults registers default values by dotted key
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) {
		if c.defaults == nil {
			c.defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			c.defaults[k] = v
		}
	}
}
