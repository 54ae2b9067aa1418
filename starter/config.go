package starter

import (
	"github.com/kochabx/axis/config"
	"github.com/kochabx/axis/resolver"
	"github.com/kochabx/axis/schema"
)

// DefaultPriority is used when a config does not set one.
const DefaultPriority = 10

// DefaultComponents are the role folders discovered by default.
var DefaultComponents = []string{"Initiator", "Model"}

// Config describes one plugin.
type Config struct {
	// MainEntry is the plugin main file. Required.
	MainEntry string `mapstructure:"main_entry" json:"main_entry" validate:"required"`
	// Slug defaults to the directory of MainEntry, or its file name for a
	// single-file plugin.
	Slug    string `mapstructure:"slug" json:"slug"`
	Version string `mapstructure:"version" json:"version,omitempty"`
	// Namespace is the root namespace of discovered types.
	Namespace string `mapstructure:"namespace" json:"namespace,omitempty"`
	// SourceRoot defaults to <dir of MainEntry>/src.
	SourceRoot string `mapstructure:"source_root" json:"source_root"`
	Textdomain string `mapstructure:"textdomain" json:"textdomain,omitempty"`
	// Prefix is the stem without trailing separator. Defaults to Slug.
	Prefix string `mapstructure:"prefix" json:"prefix"`
	// DefaultPriority of hooks without an explicit priority. Zero selects 10.
	DefaultPriority int      `mapstructure:"default_priority" json:"default_priority"`
	Components      []string `mapstructure:"components" json:"components"`
	Extensions      []string `mapstructure:"extensions" json:"extensions"`
	// Tenants limits the starter to these tenant ids when a tenant is set.
	Tenants []int `mapstructure:"tenants" json:"tenants,omitempty"`
	// StrictCallbacks fails InitHooks on unresolvable virtual callbacks.
	StrictCallbacks bool               `mapstructure:"strict_callbacks" json:"strict_callbacks"`
	Database        schema.StoreConfig `mapstructure:"database" json:"database"`
	Request         resolver.Request   `mapstructure:"request" json:"request"`
}

// LoadConfig reads a Config from the file at path. Environment variables
// prefixed with AXIS_ override file values.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	c := config.New(&cfg,
		config.WithFile(path),
		config.WithEnvPrefix("axis"),
		config.WithDefaults(map[string]any{
			"default_priority": DefaultPriority,
			"components":       DefaultComponents,
			"extensions":       []string{".go"},
		}),
	)
	if err := c.Load(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
