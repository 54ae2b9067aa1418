package http

import (
	"github.com/kochabx/axis/starter"
)

const (
	defaultMetricsPath = "/metrics"
	defaultHealthPath  = "/health"
)

type Options struct {
	Metrics    MetricsOption
	Health     HealthOption
	Inspection InspectionOption
}

type MetricsOption struct {
	Enabled                   bool   `json:"enabled" mapstructure:"enabled"`
	Path                      string `json:"path" mapstructure:"path"`
	EnabledGoCollector        bool   `json:"enabled_go_collector" mapstructure:"enabled_go_collector"`
	EnabledBuildInfoCollector bool   `json:"enabled_build_info_collector" mapstructure:"enabled_build_info_collector"`
	// Metrics is the registry served on Path. Defaults to the inspected
	// pool metrics, or a fresh registry.
	Metrics *starter.Metrics `json:"-" mapstructure:"-"`
}

func (m *MetricsOption) init() {
	if m.Path == "" {
		m.Path = defaultMetricsPath
	}
}

type HealthOption struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

func (h *HealthOption) init() {
	if h.Path == "" {
		h.Path = defaultHealthPath
	}
}

// InspectionOption serves the starters of Pool below /starters.
type InspectionOption struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Pool    *starter.Pool `json:"-" mapstructure:"-"`
}
