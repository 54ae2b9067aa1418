// Package starter runs the discovery and resolution pipeline of one plugin.
//
// A Starter owns a container, a bus and a schema registry. Factory
// normalizes the plugin config and binds the default finder, filters and
// resolvers into the container; Start runs the resolvers once.
package starter

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/ioc"
	"github.com/kochabx/axis/log"
	"github.com/kochabx/axis/resolver"
	"github.com/kochabx/axis/schema"
)

// ErrStarterFailure is returned for missing or invalid starter arguments.
var ErrStarterFailure = errors.Configuration("starter failure")

// Container keys bound by Factory.
const (
	KeyStarter         = "starter"
	KeyMainEntry       = "starter.mainEntry"
	KeySlug            = "starter.slug"
	KeyVersion         = "starter.version"
	KeyNamespace       = "starter.namespace"
	KeySourceRoot      = "starter.sourceRoot"
	KeyPrefix          = "starter.prefix"
	KeyTextdomain      = "starter.textdomain"
	KeyTenants         = "starter.tenants"
	KeyDefaultPriority = "starter.defaultPriority"
	KeyResolvers       = "classResolvers"
	KeyBus             = "bus"
	KeySchema          = "schema"
	KeyDB              = "db"
)

// HookRecord is a hook registered while starting.
type HookRecord struct {
	Owner string `json:"owner"`
	hook.Descriptor
}

// ResolvedType is a discovered type instantiated by a resolver.
type ResolvedType struct {
	Resolver string `json:"resolver"`
	finder.Type
}

var (
	_ resolver.Host     = (*Starter)(nil)
	_ hook.Observer     = (*Starter)(nil)
	_ resolver.Observer = (*Starter)(nil)
)

// Starter is one running plugin.
type Starter struct {
	cfg       Config
	basename  string
	container *ioc.Container
	bus       event.Bus
	request   *resolver.Request
	logger    *log.Logger
	metrics   *Metrics
	tenant    int
	scope     func(s *Starter) bool

	startMu sync.Mutex

	mu      sync.RWMutex
	schema  schema.Registry
	started bool
	hooks   []HookRecord
	types   []ResolvedType
}

// Factory validates cfg and configures a starter. The pipeline does not run
// until Start.
func Factory(cfg Config, opts ...Option) (*Starter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(cfg.MainEntry) == "" {
		return nil, ErrStarterFailure.With("argument", "main_entry").With("reason", "required")
	}
	cfg = normalize(cfg)

	s := &Starter{
		cfg:      cfg,
		basename: basenameOf(cfg.MainEntry),
		bus:      o.bus,
		request:  o.request,
		logger:   o.logger,
		metrics:  o.metrics,
		tenant:   o.tenant,
		scope:    o.scope,
		schema:   o.schema,
	}
	if s.bus == nil {
		s.bus = event.New()
	}
	if s.request == nil {
		req := cfg.Request
		s.request = &req
	}
	if s.logger == nil {
		s.logger = log.G
	}
	s.logger = s.logger.Component("starter")

	catalog := o.catalog
	if catalog == nil {
		catalog = ioc.Types
	}
	s.container = ioc.New(ioc.WithCatalog(catalog))
	if err := s.bind(o, catalog); err != nil {
		return nil, err
	}

	if o.pool != nil {
		o.pool.Add(s)
	}

	if o.beforeStart != nil {
		if err := o.beforeStart(s.container, s); err != nil {
			return nil, ErrStarterFailure.With("slug", cfg.Slug).With("stage", "before_start").WithCause(err)
		}
	}

	return s, nil
}

func (s *Starter) bind(o options, catalog *ioc.Catalog) error {
	c := s.container
	cfg := s.cfg

	c.Instance(ioc.KeyOf[*Starter](), s)
	c.Instance(ioc.KeyOf[event.Bus](), s.bus)
	c.Instance(ioc.KeyOf[*resolver.Request](), s.request)
	if err := c.Alias(ioc.KeyOf[*Starter](), KeyStarter); err != nil {
		return err
	}
	if err := c.Alias(ioc.KeyOf[event.Bus](), KeyBus); err != nil {
		return err
	}

	c.Instance(KeyMainEntry, cfg.MainEntry)
	c.Instance(KeySlug, cfg.Slug)
	if cfg.Version != "" {
		c.Instance(KeyVersion, cfg.Version)
	}
	if cfg.Namespace != "" {
		c.Instance(KeyNamespace, cfg.Namespace)
	}
	c.Instance(KeySourceRoot, cfg.SourceRoot)
	c.Instance(KeyPrefix, cfg.Prefix)
	c.Instance(KeyTextdomain, cfg.Textdomain)
	c.Instance(KeyTenants, slices.Clone(cfg.Tenants))
	c.Instance(KeyDefaultPriority, cfg.DefaultPriority)

	var region resolver.RegionFilter = resolver.AllGranted{}
	if o.region != nil {
		region = o.region
	}
	c.BindIf(ioc.KeyOf[resolver.RegionFilter](), constant(region), true)

	var context resolver.ContextFilter = resolver.RequestContextFilter{}
	if o.context != nil {
		context = o.context
	}
	c.BindIf(ioc.KeyOf[resolver.ContextFilter](), constant(context), true)

	if o.finder != nil {
		c.BindIf(ioc.KeyOf[finder.Finder](), constant(o.finder), true)
	} else {
		fopts := []finder.Option{
			finder.WithExtensions(cfg.Extensions...),
			finder.WithClassifier(resolver.CatalogClassifier(catalog)),
		}
		if o.fs != nil {
			fopts = append(fopts, finder.WithFs(o.fs))
		}
		c.BindIf(ioc.KeyOf[finder.Finder](), func(*ioc.Container, ioc.Params) (any, error) {
			return finder.NewAutoDiscover(cfg.Components, cfg.Namespace, cfg.SourceRoot, fopts...), nil
		}, true)
	}

	if o.resolvers != nil {
		build := o.resolvers
		c.BindIf(KeyResolvers, func(*ioc.Container, ioc.Params) (any, error) {
			return build(s), nil
		}, true)
	} else {
		c.BindIf(KeyResolvers, defaultResolvers, true)
	}
	return nil
}

func defaultResolvers(c *ioc.Container, _ ioc.Params) (any, error) {
	s, err := ioc.MakeAs[*Starter](c, KeyStarter)
	if err != nil {
		return nil, err
	}
	f, err := ioc.Resolve[finder.Finder](c)
	if err != nil {
		return nil, err
	}
	region, err := ioc.Resolve[resolver.RegionFilter](c)
	if err != nil {
		return nil, err
	}
	context, err := ioc.Resolve[resolver.ContextFilter](c)
	if err != nil {
		return nil, err
	}

	return []resolver.Resolver{
		resolver.NewInitiator(s, f, region, context, resolver.WithObserver(s)),
		resolver.NewModel(s, f, region, resolver.WithObserver(s)),
	}, nil
}

func constant(v any) ioc.Factory {
	return func(*ioc.Container, ioc.Params) (any, error) {
		return v, nil
	}
}

func normalize(cfg Config) Config {
	cfg.MainEntry = filepath.Clean(cfg.MainEntry)

	cfg.Slug = sanitizeKey(cfg.Slug)
	if cfg.Slug == "" {
		cfg.Slug = slugOf(cfg.MainEntry)
	}

	cfg.Namespace = strings.Trim(strings.TrimSpace(cfg.Namespace), `\`)
	if cfg.Namespace != "" {
		cfg.Namespace += `\`
	}

	if cfg.SourceRoot == "" {
		cfg.SourceRoot = filepath.Join(filepath.Dir(cfg.MainEntry), "src")
	} else {
		cfg.SourceRoot = filepath.Clean(cfg.SourceRoot)
	}

	cfg.Prefix = strings.TrimRight(sanitizeKey(cfg.Prefix), "-_")
	if cfg.Prefix == "" {
		cfg.Prefix = strings.TrimRight(cfg.Slug, "-_")
	}

	cfg.Textdomain = sanitizeKey(cfg.Textdomain)

	if cfg.DefaultPriority == 0 {
		cfg.DefaultPriority = DefaultPriority
	}
	if len(cfg.Components) == 0 {
		cfg.Components = slices.Clone(DefaultComponents)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".go"}
	}
	cfg.Tenants = slices.Clone(cfg.Tenants)
	return cfg
}

// sanitizeKey keeps lowercase alphanumerics, dashes and underscores.
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isTopLevel(mainEntry string) bool {
	dir := filepath.Dir(mainEntry)
	return dir == "." || dir == string(filepath.Separator)
}

// slugOf names a plugin after its directory, or after its file when the
// plugin is a single file.
func slugOf(mainEntry string) string {
	if isTopLevel(mainEntry) {
		base := filepath.Base(mainEntry)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Base(filepath.Dir(mainEntry))
}

// basenameOf returns the plugin file relative to its plugins directory.
func basenameOf(mainEntry string) string {
	if isTopLevel(mainEntry) {
		return filepath.Base(mainEntry)
	}
	return filepath.Base(filepath.Dir(mainEntry)) + "/" + filepath.Base(mainEntry)
}

// Start runs the resolvers once. Later calls return nil. A starter outside
// its tenant scope does nothing.
func (s *Starter) Start() error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.Started() {
		return nil
	}
	if !s.Available() {
		s.logger.Info().Str("slug", s.cfg.Slug).Int("tenant", s.tenant).Msg("starter out of scope, skipped")
		return nil
	}

	begin := time.Now()
	if err := s.prepareSchema(); err != nil {
		return err
	}

	resolvers, err := ioc.MakeAs[[]resolver.Resolver](s.container, KeyResolvers)
	if err != nil {
		return err
	}
	for _, r := range resolvers {
		if err := r.Resolve(); err != nil {
			return fmt.Errorf("starter %s: %w", s.cfg.Slug, err)
		}
	}

	elapsed := time.Since(begin)
	s.mu.Lock()
	s.started = true
	hooks, types := len(s.hooks), len(s.types)
	s.mu.Unlock()

	s.metrics.starterStarted(s.cfg.Slug, elapsed)
	s.logger.Info().
		Str("slug", s.cfg.Slug).
		Int("components", types).
		Int("hooks", hooks).
		Dur("elapsed", elapsed).
		Msg("starter started")
	return nil
}

func (s *Starter) prepareSchema() error {
	s.mu.RLock()
	reg := s.schema
	s.mu.RUnlock()

	if reg == nil {
		if s.cfg.Database.Enabled() {
			store := s.cfg.Database
			s.container.BindIf(KeyDB, func(*ioc.Container, ioc.Params) (any, error) {
				return schema.Open(store, s.logger)
			}, true)

			db, err := ioc.MakeAs[*gorm.DB](s.container, KeyDB)
			if err != nil {
				return ErrStarterFailure.With("slug", s.cfg.Slug).With("stage", "database").WithCause(err)
			}
			g, err := schema.NewGorm(db)
			if err != nil {
				return ErrStarterFailure.With("slug", s.cfg.Slug).With("stage", "schema").WithCause(err)
			}
			reg = g
		} else {
			reg = schema.NewMemory()
		}
	}

	s.container.Instance(ioc.KeyOf[schema.Registry](), reg)
	if !s.container.Bound(KeySchema) {
		if err := s.container.Alias(ioc.KeyOf[schema.Registry](), KeySchema); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.schema = reg
	s.mu.Unlock()
	return nil
}

// Available reports whether the starter runs for the current tenant.
func (s *Starter) Available() bool {
	if s.scope != nil {
		return s.scope(s)
	}
	if s.tenant == 0 || len(s.cfg.Tenants) == 0 {
		return true
	}
	return slices.Contains(s.cfg.Tenants, s.tenant)
}

// Activate fires the plugin activation event.
func (s *Starter) Activate(args ...any) error {
	return s.bus.DoAction(hook.ActivateTag(s.basename), args...)
}

// Deactivate fires the plugin deactivation event.
func (s *Starter) Deactivate(args ...any) error {
	return s.bus.DoAction(hook.DeactivateTag(s.basename), args...)
}

// Close releases the database opened by Start, if any.
func (s *Starter) Close() error {
	if !s.container.Resolved(KeyDB) {
		return nil
	}
	db, err := ioc.MakeAs[*gorm.DB](s.container, KeyDB)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Starter) HookRegistered(owner string, d hook.Descriptor) {
	s.mu.Lock()
	s.hooks = append(s.hooks, HookRecord{Owner: owner, Descriptor: d})
	s.mu.Unlock()

	s.metrics.hookRegistered(s.cfg.Slug, d.Operation.String())
}

func (s *Starter) TypeResolved(resolverName string, t finder.Type) {
	s.mu.Lock()
	s.types = append(s.types, ResolvedType{Resolver: resolverName, Type: t})
	s.mu.Unlock()

	s.metrics.componentResolved(s.cfg.Slug, resolverName)
}

func (s *Starter) Container() *ioc.Container { return s.container }
func (s *Starter) Bus() event.Bus { return s.bus }
func (s *Starter) DefaultPriority() int { return s.cfg.DefaultPriority }
func (s *Starter) Basename() string { return s.basename }
func (s *Starter) StrictCallbacks() bool { return s.cfg.StrictCallbacks }
func (s *Starter) Request() *resolver.Request { return s.request }

// Schema returns the registry selected by Start, or the one set with
// WithSchema.
func (s *Starter) Schema() schema.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

func (s *Starter) Config() Config { return s.cfg }
func (s *Starter) MainEntry() string { return s.cfg.MainEntry }
func (s *Starter) Slug() string { return s.cfg.Slug }
func (s *Starter) Version() string { return s.cfg.Version }
func (s *Starter) Namespace() string { return s.cfg.Namespace }
func (s *Starter) SourceRoot() string { return s.cfg.SourceRoot }
func (s *Starter) Textdomain() string { return s.cfg.Textdomain }

// Prefix returns the prefix stem followed by '-' or '_'.
func (s *Starter) Prefix(dash bool) string {
	if dash {
		return s.cfg.Prefix + "-"
	}
	return s.cfg.Prefix + "_"
}

// Prefixed prepends the prefix to str.
func (s *Starter) Prefixed(str string, dash bool) string {
	return s.Prefix(dash) + str
}

// Finder returns the configured finder.
func (s *Starter) Finder() (finder.Finder, error) {
	return ioc.Resolve[finder.Finder](s.container)
}

func (s *Starter) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Hooks returns the hooks registered so far.
func (s *Starter) Hooks() []HookRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.hooks)
}

// Types returns the types resolved so far.
func (s *Starter) Types() []ResolvedType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.types)
}
