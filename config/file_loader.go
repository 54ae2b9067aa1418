package config

import (
	"path"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kochabx/axis/errors"
)

var (
	// ErrNotFound is returned when no config file exists in the search paths.
	ErrNotFound = errors.Configuration("config file not found")
	// ErrParse is returned when the file cannot be decoded into the target.
	ErrParse = errors.Configuration("config parse error")
	// ErrValidation is returned when the decoded target fails validation.
	ErrValidation = errors.Configuration("config validation failed")
)

// FileLoader loads configuration from file
type FileLoader struct {
	viper    *viper.Viper
	validate *validator.Validate
	name     string
	paths    []string
}

// NewFileLoader creates a new file loader
func NewFileLoader(name string, paths []string, v *viper.Viper, validate *validator.Validate) *FileLoader {
	// Determine config type from file extension
	extension := path.Ext(name)
	configType := strings.TrimPrefix(extension, ".")

	// Add configuration paths to viper
	for _, configPath := range paths {
		v.AddConfigPath(configPath)
	}

	v.SetConfigName(name)
	v.SetConfigType(configType)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		paths:    paths,
		name:     name,
		validate: validate,
	}
}

// Load implements Loader interface
func (l *FileLoader) Load(target any) error {
	if err := l.viper.ReadInConfig(); err != nil {
		return ErrNotFound.With("name", l.name).WithCause(err)
	}

	if err := l.viper.Unmarshal(target); err != nil {
		return ErrParse.With("name", l.name).WithCause(err)
	}

	// Validate configuration
	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return ErrValidation.With("name", l.name).WithCause(err)
		}
	}

	return nil
}

// Watch implements Loader interface
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}
