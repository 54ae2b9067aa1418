package starter

import (
	"github.com/spf13/afero"

	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/ioc"
	"github.com/kochabx/axis/log"
	"github.com/kochabx/axis/resolver"
	"github.com/kochabx/axis/schema"
)

// Option configures a Starter.
type Option func(*options)

type options struct {
	region      resolver.RegionFilter
	context     resolver.ContextFilter
	finder      finder.Finder
	resolvers   func(s *Starter) []resolver.Resolver
	beforeStart func(c *ioc.Container, s *Starter) error
	bus         event.Bus
	schema      schema.Registry
	catalog     *ioc.Catalog
	request     *resolver.Request
	pool        *Pool
	tenant      int
	scope       func(s *Starter) bool
	logger      *log.Logger
	fs          afero.Fs
	metrics     *Metrics
}

func WithRegionFilter(f resolver.RegionFilter) Option {
	return func(o *options) {
		o.region = f
	}
}

func WithContextFilter(f resolver.ContextFilter) Option {
	return func(o *options) {
		o.context = f
	}
}

// WithFinder replaces the filesystem discovery below SourceRoot.
func WithFinder(f finder.Finder) Option {
	return func(o *options) {
		o.finder = f
	}
}

// WithResolvers replaces the initiator and model resolvers. fn runs on the
// first Start.
func WithResolvers(fn func(s *Starter) []resolver.Resolver) Option {
	return func(o *options) {
		o.resolvers = fn
	}
}

// WithBeforeStart runs fn at the end of Factory.
func WithBeforeStart(fn func(c *ioc.Container, s *Starter) error) Option {
	return func(o *options) {
		o.beforeStart = fn
	}
}

func WithBus(bus event.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithSchema sets the schema registry. Without it a gorm registry is opened
// when a database is configured, else an in-memory one is used.
func WithSchema(reg schema.Registry) Option {
	return func(o *options) {
		o.schema = reg
	}
}

// WithCatalog sets the constructor catalog. Defaults to ioc.Types.
func WithCatalog(cat *ioc.Catalog) Option {
	return func(o *options) {
		o.catalog = cat
	}
}

// WithRequest overrides the request described by the config.
func WithRequest(r *resolver.Request) Option {
	return func(o *options) {
		o.request = r
	}
}

// WithPool adds the starter to p once it is configured.
func WithPool(p *Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithTenant sets the current tenant checked against Config.Tenants.
func WithTenant(id int) Option {
	return func(o *options) {
		o.tenant = id
	}
}

// WithScope sets a predicate deciding whether Start runs the pipeline. It
// takes precedence over the tenant list.
func WithScope(fn func(s *Starter) bool) Option {
	return func(o *options) {
		o.scope = fn
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFs sets the filesystem walked by the default finder.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
