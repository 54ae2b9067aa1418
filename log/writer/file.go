package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// RotateConfig describes a rotated log file.
type RotateConfig struct {
	Mode             RotateMode
	Filepath         string
	Filename         string
	FileExt          string
	TimeRotateConfig TimeRotateConfig
	SizeRotateConfig SizeRotateConfig
}

// TimeRotateConfig holds hour based retention.
type TimeRotateConfig struct {
	MaxAge       int
	RotationTime int
}

// SizeRotateConfig holds size based retention. MaxSize is megabytes, MaxAge days.
type SizeRotateConfig struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// File returns a rotating writer for config.
func File(config RotateConfig) (io.Writer, error) {
	switch config.Mode {
	case RotateModeTime:
		return timeRotateWriter(config)
	case RotateModeSize:
		return sizeRotateWriter(config)
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %v", config.Mode)
	}
}

func (c *RotateConfig) path() string {
	return c.pathWithPattern("")
}

func (c *RotateConfig) pathWithPattern(pattern string) string {
	var b strings.Builder
	b.WriteString(c.Filename)
	if pattern != "" {
		b.WriteByte('.')
		b.WriteString(pattern)
	}
	b.WriteByte('.')
	b.WriteString(c.FileExt)
	return filepath.Join(c.Filepath, b.String())
}
