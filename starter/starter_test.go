package starter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	axiserrors "github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/config"
	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/ioc"
	"github.com/kochabx/axis/model"
	"github.com/kochabx/axis/resolver"
	"github.com/kochabx/axis/schema"
)

type greeter struct {
	hook.AutoHook
}

func (g *greeter) InitHooks(h hook.Host) error { return g.Init(h, g) }

func (g *greeter) Filter_the_content(s string) string { return s + "!" }

func (g *greeter) Command_greeting(attrs map[string]string, content string) string {
	return "hello " + content
}

type book struct {
	model.PostBase
	activated int
}

func (b *book) ActivationSetup() error     { b.activated++; return nil }
func (b *book) DeactivationCleanup() error { return nil }

var errBoom = errors.New("boom")

type exploding struct{}

func (exploding) InitHooks(hook.Host) error { return errBoom }

func newCatalog(t *testing.T) *ioc.Catalog {
	t.Helper()

	cat := ioc.NewCatalog()
	require.NoError(t, cat.Register(`App\Initiator\Front\Greeter`, func() *greeter { return &greeter{} }))
	require.NoError(t, cat.Register(`App\Model\Book`, func() *book {
		return &book{PostBase: model.PostBase{
			MetaBase: model.MetaBase{Fields: []schema.Field{{Key: "isbn", Type: schema.TypeString}}},
			Name:     "book",
		}}
	}))
	require.NoError(t, cat.Register(`App\Initiator\Front\Exploding`, func() exploding { return exploding{} }))
	return cat
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"/plugins/hello/hello.go",
		"/plugins/hello/src/Initiator/Front/Greeter.go",
		"/plugins/hello/src/Model/Book.go",
		"/plugins/hello/src/Model/book_test.go",
		"/plugins/hello/src/util.go",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("package hello\n"), 0o644))
	}
	return fs
}

func metricValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestFactoryRequiresMainEntry(t *testing.T) {
	_, err := Factory(Config{Slug: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStarterFailure)
	assert.Equal(t, axiserrors.CodeConfiguration, axiserrors.CodeOf(err))
}

func TestFactoryDefaults(t *testing.T) {
	s, err := Factory(Config{MainEntry: "/plugins/hello/hello.go", Namespace: `\App\`}, WithCatalog(ioc.NewCatalog()))
	require.NoError(t, err)

	assert.Equal(t, "hello", s.Slug())
	assert.Equal(t, `App\`, s.Namespace())
	assert.Equal(t, filepath.Join("/plugins/hello", "src"), s.SourceRoot())
	assert.Equal(t, "hello/hello.go", s.Basename())
	assert.Equal(t, 10, s.DefaultPriority())
	assert.Equal(t, "hello_", s.Prefix(false))
	assert.Equal(t, "hello-title", s.Prefixed("title", true))
	assert.Equal(t, DefaultComponents, s.Config().Components)

	self, err := ioc.MakeAs[*Starter](s.Container(), KeyStarter)
	require.NoError(t, err)
	assert.Same(t, s, self)

	slug, err := s.Container().Make(KeySlug)
	require.NoError(t, err)
	assert.Equal(t, "hello", slug)

	_, err = s.Finder()
	assert.NoError(t, err)
}

func TestFactoryNaming(t *testing.T) {
	single, err := Factory(Config{MainEntry: "hello.go"}, WithCatalog(ioc.NewCatalog()))
	require.NoError(t, err)
	assert.Equal(t, "hello", single.Slug())
	assert.Equal(t, "hello.go", single.Basename())

	named, err := Factory(Config{
		MainEntry:  "/plugins/x/main.go",
		Slug:       "My Plugin!",
		Prefix:     "mp__",
		Textdomain: "My-Plugin",
	}, WithCatalog(ioc.NewCatalog()))
	require.NoError(t, err)
	assert.Equal(t, "myplugin", named.Slug())
	assert.Equal(t, "mp-", named.Prefix(true))
	assert.Equal(t, "my-plugin", named.Textdomain())
}

func TestStartPipeline(t *testing.T) {
	pool := NewPool()
	s, err := Factory(
		Config{MainEntry: "/plugins/hello/hello.go", Namespace: "App"},
		WithCatalog(newCatalog(t)),
		WithFs(newFs(t)),
		WithPool(pool),
	)
	require.NoError(t, err)
	assert.Same(t, s, pool.Get("hello"))

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.Started())

	assert.Len(t, s.Hooks(), 2)
	require.Len(t, s.Types(), 2)
	assert.Equal(t, "initiator", s.Types()[0].Resolver)
	assert.Equal(t, "model", s.Types()[1].Resolver)

	out, err := s.Bus().ApplyFilters("the_content", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)

	greeting, err := s.Bus().DoCommand("greeting", nil, "axis")
	require.NoError(t, err)
	assert.Equal(t, "hello axis", greeting)

	types, err := s.Schema().Declarations(schema.KindPostType)
	require.NoError(t, err)
	assert.Len(t, types, 1)

	require.NoError(t, s.Activate())
	b, err := ioc.MakeAs[*book](s.Container(), `App\Model\Book`)
	require.NoError(t, err)
	assert.Equal(t, 1, b.activated)

	reg, err := ioc.MakeAs[schema.Registry](s.Container(), KeySchema)
	require.NoError(t, err)
	assert.Same(t, s.Schema(), reg)

	m := pool.Metrics()
	assert.Equal(t, 2.0, metricValue(t, m, "axis_components_resolved_total"))
	assert.Equal(t, 2.0, metricValue(t, m, "axis_hooks_registered_total"))
	assert.Equal(t, 1.0, metricValue(t, m, "axis_starters_started"))
	assert.Equal(t, 1.0, metricValue(t, m, "axis_start_duration_seconds"))
}

func TestStartFailFast(t *testing.T) {
	f := finder.NewSimple(finder.WithClassifier(resolver.CatalogClassifier(newCatalog(t))))
	f.AddClass("Front", `App\Initiator\Front\Exploding`)

	s, err := Factory(Config{MainEntry: "/plugins/boom/boom.go"}, WithCatalog(newCatalog(t)), WithFinder(f))
	require.NoError(t, err)

	err = s.Start()
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, s.Started())
}

func TestStartScope(t *testing.T) {
	cfg := Config{MainEntry: "/plugins/hello/hello.go", Namespace: "App", Tenants: []int{1, 2}}

	outside, err := Factory(cfg, WithCatalog(newCatalog(t)), WithFs(newFs(t)), WithTenant(3))
	require.NoError(t, err)
	require.NoError(t, outside.Start())
	assert.False(t, outside.Started())
	assert.False(t, outside.Bus().HasFilter("the_content"))

	inside, err := Factory(cfg, WithCatalog(newCatalog(t)), WithFs(newFs(t)), WithTenant(2))
	require.NoError(t, err)
	require.NoError(t, inside.Start())
	assert.True(t, inside.Started())

	scoped, err := Factory(cfg, WithCatalog(newCatalog(t)), WithFs(newFs(t)), WithTenant(2),
		WithScope(func(*Starter) bool { return false }))
	require.NoError(t, err)
	require.NoError(t, scoped.Start())
	assert.False(t, scoped.Started())
}

func TestContextFilterFromRequest(t *testing.T) {
	s, err := Factory(
		Config{MainEntry: "/plugins/hello/hello.go", Namespace: "App"},
		WithCatalog(newCatalog(t)),
		WithFs(newFs(t)),
		WithRequest(&resolver.Request{Admin: true}),
	)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	assert.False(t, s.Bus().HasFilter("the_content"), "front initiators are skipped on admin requests")
	assert.Len(t, s.Types(), 1)
}

func TestBeforeStartAndResolvers(t *testing.T) {
	var seen *Starter
	var resolved int

	s, err := Factory(
		Config{MainEntry: "/plugins/hello/hello.go"},
		WithCatalog(ioc.NewCatalog()),
		WithSchema(schema.NewMemory()),
		WithBeforeStart(func(c *ioc.Container, s *Starter) error {
			seen, _ = ioc.MakeAs[*Starter](c, KeyStarter)
			return nil
		}),
		WithResolvers(func(*Starter) []resolver.Resolver {
			return []resolver.Resolver{resolverFunc(func() error { resolved++; return nil })}
		}),
	)
	require.NoError(t, err)
	assert.Same(t, s, seen)

	require.NoError(t, s.Start())
	assert.Equal(t, 1, resolved)

	_, err = Factory(Config{MainEntry: "/plugins/hello/hello.go"},
		WithCatalog(ioc.NewCatalog()),
		WithBeforeStart(func(*ioc.Container, *Starter) error { return errBoom }))
	assert.ErrorIs(t, err, ErrStarterFailure)
	assert.ErrorIs(t, err, errBoom)
}

type resolverFunc func() error

func (f resolverFunc) Resolve() error { return f() }

func TestStartWithDatabase(t *testing.T) {
	s, err := Factory(Config{
		MainEntry: "/plugins/hello/hello.go",
		Database: schema.StoreConfig{
			Driver:       schema.DriverSQLite,
			DSN:          "file::memory:",
			MaxOpenConns: 1,
		},
	}, WithCatalog(ioc.NewCatalog()), WithFinder(finder.NewSimple()))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	_, ok := s.Schema().(*schema.Gorm)
	assert.True(t, ok)
	assert.True(t, s.Container().Resolved(KeyDB))
	assert.NoError(t, s.Close())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
main_entry: /plugins/hello/hello.go
slug: hello
namespace: App
tenants: [1, 2]
database:
  driver: sqlite
  dsn: "file::memory:"
request:
  admin: true
`), 0o644))

	t.Setenv("AXIS_SLUG", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/plugins/hello/hello.go", cfg.MainEntry)
	assert.Equal(t, "from-env", cfg.Slug)
	assert.Equal(t, DefaultPriority, cfg.DefaultPriority)
	assert.Equal(t, DefaultComponents, cfg.Components)
	assert.Equal(t, []string{".go"}, cfg.Extensions)
	assert.Equal(t, []int{1, 2}, cfg.Tenants)
	assert.Equal(t, schema.DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Request.Admin)

	missing := filepath.Join(t.TempDir(), "axis.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("slug: hello\n"), 0o644))
	_, err = LoadConfig(missing)
	assert.ErrorIs(t, err, config.ErrValidation)
}

func TestPool(t *testing.T) {
	pool := NewPool()

	for _, main := range []string{"/plugins/a/a.go", "/plugins/b/b.go"} {
		_, err := Factory(Config{MainEntry: main},
			WithCatalog(ioc.NewCatalog()),
			WithFinder(finder.NewSimple()),
			WithPool(pool))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b"}, pool.Slugs())
	assert.Nil(t, pool.Get("missing"))

	require.NoError(t, pool.StartAll(context.Background()))
	for _, s := range pool.Starters() {
		assert.True(t, s.Started())
	}

	replacement, err := Factory(Config{MainEntry: "/plugins/a/a.go"},
		WithCatalog(ioc.NewCatalog()),
		WithFinder(finder.NewSimple()),
		WithPool(pool))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, pool.Slugs())
	assert.Same(t, replacement, pool.Get("a"))
	assert.NoError(t, pool.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.StartAll(ctx), context.Canceled)
}
