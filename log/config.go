package log

import (
	"github.com/kochabx/axis/log/writer"
)

// FileConfig configures file logging.
type FileConfig struct {
	Filepath         string            `mapstructure:"filepath"`
	Filename         string            `mapstructure:"filename"`
	FileExt          string            `mapstructure:"file_ext"`
	RotateMode       writer.RotateMode `mapstructure:"rotate_mode"`
	RotatelogsConfig RotatelogsConfig  `mapstructure:"rotatelogs"`
	LumberjackConfig LumberjackConfig  `mapstructure:"lumberjack"`
}

// RotatelogsConfig configures time based rotation. Values are hours.
type RotatelogsConfig struct {
	MaxAge       int `mapstructure:"max_age"`
	RotationTime int `mapstructure:"rotation_time"`
}

// LumberjackConfig configures size based rotation.
type LumberjackConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

func (c *FileConfig) applyDefaults() {
	if c.Filepath == "" {
		c.Filepath = "log"
	}
	if c.Filename == "" {
		c.Filename = "axis"
	}
	if c.FileExt == "" {
		c.FileExt = "log"
	}
	if c.RotatelogsConfig.MaxAge == 0 {
		c.RotatelogsConfig.MaxAge = 24
	}
	if c.RotatelogsConfig.RotationTime == 0 {
		c.RotatelogsConfig.RotationTime = 1
	}
	if c.LumberjackConfig.MaxSize == 0 {
		c.LumberjackConfig.MaxSize = 100
	}
	if c.LumberjackConfig.MaxBackups == 0 {
		c.LumberjackConfig.MaxBackups = 5
	}
	if c.LumberjackConfig.MaxAge == 0 {
		c.LumberjackConfig.MaxAge = 30
	}
}

func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Filepath: c.Filepath,
		Filename: c.Filename,
		FileExt:  c.FileExt,
		Mode:     c.RotateMode,
		TimeRotateConfig: writer.TimeRotateConfig{
			MaxAge:       c.RotatelogsConfig.MaxAge,
			RotationTime: c.RotatelogsConfig.RotationTime,
		},
		SizeRotateConfig: writer.SizeRotateConfig{
			MaxSize:    c.LumberjackConfig.MaxSize,
			MaxBackups: c.LumberjackConfig.MaxBackups,
			MaxAge:     c.LumberjackConfig.MaxAge,
			Compress:   c.LumberjackConfig.Compress,
		},
	}
}
