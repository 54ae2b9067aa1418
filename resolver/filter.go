package resolver

import (
	"os"
	"strings"
)

// RegionFilter decides whether a region of the source tree is active.
type RegionFilter interface {
	Filter(region string, host Host) bool
}

// ContextFilter decides whether a context folder applies to the current
// execution.
type ContextFilter interface {
	Filter(context string, host Host) bool
}

// RegionFilterFunc adapts a func to RegionFilter.
type RegionFilterFunc func(region string, host Host) bool

func (f RegionFilterFunc) Filter(region string, host Host) bool {
	return f(region, host)
}

// ContextFilterFunc adapts a func to ContextFilter.
type ContextFilterFunc func(context string, host Host) bool

func (f ContextFilterFunc) Filter(context string, host Host) bool {
	return f(context, host)
}

// AllGranted accepts every region and context.
type AllGranted struct{}

func (AllGranted) Filter(string, Host) bool {
	return true
}

// EnvRegionFilter enables the regions listed, comma separated, in an
// environment variable. An unset variable enables every region and the
// empty region is always enabled.
type EnvRegionFilter struct {
	Variable string
}

// NewEnvRegionFilter creates a filter reading variable at filter time.
func NewEnvRegionFilter(variable string) *EnvRegionFilter {
	return &EnvRegionFilter{Variable: variable}
}

func (f *EnvRegionFilter) Filter(region string, _ Host) bool {
	if region == "" {
		return true
	}

	value, ok := os.LookupEnv(f.Variable)
	if !ok {
		return true
	}
	for _, r := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(r), region) {
			return true
		}
	}
	return false
}

// RequestContextFilter maps context folder names onto the host request.
type RequestContextFilter struct{}

func (RequestContextFilter) Filter(context string, host Host) bool {
	return host.Request().Is(context, host.Bus())
}
