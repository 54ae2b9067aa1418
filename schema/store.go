package schema

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/log"
)

// Driver names a database driver.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// StoreConfig selects the database behind a Gorm registry. An empty Driver
// means no database.
type StoreConfig struct {
	Driver          Driver        `mapstructure:"driver" json:"driver" validate:"omitempty,oneof=sqlite mysql postgres"`
	DSN             string        `mapstructure:"dsn" json:"-" validate:"required_with=Driver"`
	LogLevel        string        `mapstructure:"log_level" json:"log_level"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// Enabled reports whether a driver is configured.
func (c StoreConfig) Enabled() bool {
	return c.Driver != ""
}

// ErrStore is returned when the database cannot be opened.
var ErrStore = errors.Configuration("schema store unavailable")

// Open connects to the configured database.
func Open(c StoreConfig, l *log.Logger) (*gorm.DB, error) {
	if err := Validator().Struct(c); err != nil {
		return nil, ErrStore.WithCause(Translate(err))
	}
	if l == nil {
		l = log.G
	}

	dialector, err := dialectorOf(c)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormLogWriter{l}, logger.Config{
			LogLevel:                  parseLogLevel(c.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, ErrStore.With("driver", string(c.Driver)).WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, ErrStore.With("driver", string(c.Driver)).WithCause(err)
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	}

	l.Debug().Str("driver", string(c.Driver)).Msg("schema store opened")
	return db, nil
}

func dialectorOf(c StoreConfig) (gorm.Dialector, error) {
	switch c.Driver {
	case DriverSQLite:
		return sqlite.Open(c.DSN), nil
	case DriverMySQL:
		return mysql.Open(c.DSN), nil
	case DriverPostgres:
		return postgres.Open(c.DSN), nil
	default:
		return nil, ErrStore.WithCause(fmt.Errorf("unsupported driver %q", c.Driver))
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

type gormLogWriter struct {
	l *log.Logger
}

func (w gormLogWriter) Printf(format string, args ...any) {
	w.l.Info().Str("component", "schema").Msgf(format, args...)
}
