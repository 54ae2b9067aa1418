package hook

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/ioc"
)

type testHost struct {
	c        *ioc.Container
	bus      event.Bus
	priority int
	strict   bool
	seen     []Descriptor
}

func newTestHost() *testHost {
	return &testHost{
		c:        ioc.New(ioc.WithCatalog(ioc.NewCatalog())),
		bus:      event.New(),
		priority: 10,
	}
}

func (h *testHost) Container() *ioc.Container { return h.c }
func (h *testHost) Bus() event.Bus { return h.bus }
func (h *testHost) DefaultPriority() int { return h.priority }
func (h *testHost) Basename() string { return "hello/hello.go" }
func (h *testHost) StrictCallbacks() bool { return h.strict }

func (h *testHost) HookRegistered(owner string, d Descriptor) {
	h.seen = append(h.seen, d)
}

type posts struct {
	AutoHook
	saved []any
}

func (p *posts) InitHooks(h Host) error { return p.Init(h, p) }

func (p *posts) Action_10_3_save_post(id int, post string, update bool) {
	p.saved = append(p.saved, id, post, update)
}

func (p *posts) Filter_query_var(v string) string { return v + "_filtered" }

func (p *posts) Command_greeting(attrs map[string]string, content string) string {
	return "hi " + attrs["name"] + content
}

func (p *posts) Activation() error { return nil }

func (p *posts) Deactivation_20__audit() {}

func (p *posts) Helper() string { return "not a hook" }

func (p *posts) Shorty() {}

func byMethod(ds []Descriptor) map[string]Descriptor {
	m := make(map[string]Descriptor, len(ds))
	for _, d := range ds {
		m[d.Method] = d
	}
	return m
}

func TestInitHooks(t *testing.T) {
	host := newTestHost()
	p := &posts{}

	require.NoError(t, p.InitHooks(host))
	ds := byMethod(p.Descriptors())
	require.Len(t, ds, 5)

	save := ds["Action_10_3_save_post"]
	assert.Equal(t, OpAction, save.Operation)
	assert.Equal(t, "save_post", save.Tag)
	assert.Equal(t, 10, save.Priority)
	assert.Equal(t, 3, save.AcceptedArgs)
	assert.Empty(t, save.Directive)

	query := ds["Filter_query_var"]
	assert.Equal(t, OpFilter, query.Operation)
	assert.Equal(t, "query_var", query.Tag)
	assert.Equal(t, host.priority, query.Priority)
	assert.Equal(t, 1, query.AcceptedArgs)

	assert.Equal(t, OpCommand, ds["Command_greeting"].Operation)

	activation := ds["Activation"]
	assert.Equal(t, "activate_hello/hello.go", activation.Tag)
	assert.Equal(t, 10, activation.Priority)

	deactivation := ds["Deactivation_20__audit"]
	assert.Equal(t, OpDeactivation, deactivation.Operation)
	assert.Equal(t, "deactivate_hello/hello.go", deactivation.Tag)
	assert.Equal(t, 20, deactivation.Priority)
	assert.Equal(t, "audit", deactivation.Directive)

	assert.Len(t, host.seen, 5)
	assert.Equal(t, 10, p.DefaultPriority())

	require.NoError(t, host.bus.DoAction("save_post", 7, "post", true))
	assert.Equal(t, []any{7, "post", true}, p.saved)

	v, err := host.bus.ApplyFilters("query_var", "q")
	require.NoError(t, err)
	assert.Equal(t, "q_filtered", v)

	out, err := host.bus.DoCommand("greeting", map[string]string{"name": "axis"}, "!")
	require.NoError(t, err)
	assert.Equal(t, "hi axis!", out)
}

func TestInitHooksIsIdempotent(t *testing.T) {
	host := newTestHost()
	p := &posts{}

	require.NoError(t, p.InitHooks(host))
	require.NoError(t, p.InitHooks(host))

	assert.Len(t, host.bus.Subscriptions("save_post"), 1)
}

type replaced struct {
	AutoHook
	got []string
}

func (r *replaced) Action_save_post_dynamic() {}
func (r *replaced) Filter_5_the_title_static() {}

func TestReplacements(t *testing.T) {
	host := newTestHost()
	r := &replaced{}

	r.AddReplacement("the_title_static", "the_title")
	r.AddReplacement("ignored_when_empty", "")
	r.AddReplacementFunc("save_post_dynamic", func(search, method string) string {
		r.got = append(r.got, search, method)
		return "save_post_book"
	})

	require.NoError(t, r.Init(host, r))
	ds := byMethod(r.Descriptors())

	assert.Equal(t, "save_post_book", ds["Action_save_post_dynamic"].Tag)
	assert.Equal(t, []string{"save_post_dynamic", "Action_save_post_dynamic"}, r.got)
	assert.Equal(t, "the_title", ds["Filter_5_the_title_static"].Tag)
	assert.True(t, host.bus.HasFilter("the_title"))
}

type blanked struct {
	AutoHook
}

func (b *blanked) Action_save_post_blank() {}

func TestReplacementToEmptyTag(t *testing.T) {
	host := newTestHost()
	b := &blanked{}
	b.AddReplacementFunc("save_post_blank", func(string, string) string { return "" })

	err := b.Init(host, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyTag)
	assert.Contains(t, err.Error(), "Action_save_post_blank")
	assert.False(t, host.bus.HasAction(""))
	assert.Empty(t, host.bus.Tags())
}

type withDirectives struct {
	AutoHook
}

func (w *withDirectives) Action_wp_ajax_vote__allow_nopriv() {}
func (w *withDirectives) Action_admin_post_export__allow_nopriv() {}
func (w *withDirectives) Filter_the_content__allow_nopriv(s string) string { return s }
func (w *withDirectives) Action_init__count_me() {}
func (w *withDirectives) Action_plain_action() {}

func TestDirectives(t *testing.T) {
	host := newTestHost()

	var calls []Descriptor
	require.True(t, AddDirective("Count-Me", func(bus event.Bus, op Operation, d Descriptor) error {
		assert.Equal(t, op, d.Operation)
		calls = append(calls, d)
		return nil
	}))
	defer RemoveDirective("count_me")

	assert.False(t, AddDirective("!!!", func(event.Bus, Operation, Descriptor) error { return nil }))
	assert.False(t, AddDirective("nil_fn", nil))

	w := &withDirectives{}
	require.NoError(t, w.Init(host, w))

	require.Len(t, calls, 1)
	assert.Equal(t, "init", calls[0].Tag)

	assert.True(t, host.bus.HasAction("wp_ajax_nopriv_vote"))
	assert.True(t, host.bus.HasAction("admin_post_nopriv_export"))
	assert.False(t, host.bus.HasAction("the_content_nopriv"))
	assert.Len(t, host.bus.Subscriptions("the_content"), 1)
	assert.Contains(t, Directives(), AllowNopriv)
}

type failingDirective struct {
	AutoHook
}

func (f *failingDirective) Action_init__explode() {}

func TestDirectiveFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	AddDirective("explode", func(event.Bus, Operation, Descriptor) error { return boom })
	defer RemoveDirective("explode")

	f := &failingDirective{}
	err := f.Init(newTestHost(), f)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

type greeter struct {
	prefix string
}

func (g *greeter) Greet(name string) string { return g.prefix + name }

type view struct{}

func (v *view) Dispatch(args ...any) (any, error) { return fmt.Sprint("view:", len(args)), nil }

type virtuals struct {
	AutoHook
}

func (v *virtuals) V_filter_greeting() any {
	return Via("greeter", "Greet", ioc.Params{"prefix": "hello "})
}

func (v *virtuals) V_command_page() any { return `App\View` }

func (v *virtuals) V_action_direct() any {
	return func() error { return nil }
}

func (v *virtuals) V_action_10_broken() any { return Via("missing", "Run") }

func TestVirtualCallbacks(t *testing.T) {
	host := newTestHost()
	host.c.Bind("greeter", func(_ *ioc.Container, p ioc.Params) (any, error) {
		return &greeter{prefix: fmt.Sprint(p["prefix"])}, nil
	}, true)
	require.NoError(t, host.c.Catalog().Register(`App\View`, func() *view { return &view{} }))

	v := &virtuals{}
	require.NoError(t, v.Init(host, v))

	out, err := host.bus.ApplyFilters("greeting", "axis")
	require.NoError(t, err)
	assert.Equal(t, "hello axis", out)

	page, err := host.bus.DoCommand("page", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "view:3", page)

	assert.NoError(t, host.bus.DoAction("direct"))

	// Lenient policy registers a callback that reports the failure when fired.
	err = host.bus.DoAction("broken")
	assert.ErrorIs(t, err, ErrVirtualCallback)

	for _, d := range v.Descriptors() {
		assert.True(t, d.Virtual)
	}
}

func TestVirtualCallbacksStrict(t *testing.T) {
	host := newTestHost()
	host.strict = true

	v := &virtuals{}
	err := v.Init(host, v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ioc.ErrBindingResolution)
	assert.Empty(t, host.bus.Tags(), "nothing is registered when collection fails")
}

func TestResolveVirtualRejectsNonDispatchable(t *testing.T) {
	c := ioc.New(ioc.WithCatalog(ioc.NewCatalog()))
	require.NoError(t, c.Catalog().Register(`App\View`, func() *view { return &view{} }))
	c.Bind(`App\View`, func(*ioc.Container, ioc.Params) (any, error) { return &greeter{}, nil }, false)

	cb, err := ResolveVirtual(c, `App\View`)
	require.Error(t, err)
	assert.Nil(t, cb)
	assert.ErrorIs(t, err, ErrVirtualCallback)
}

type tabled struct {
	AutoHook
	table Table
}

func (t *tabled) HookTable() Table { return t.table }

func TestTableDeclarations(t *testing.T) {
	host := newTestHost()
	var fired int

	ok := &tabled{table: Table{
		{Name: "action_5_2_wp_loaded", Fn: func(a, b int) { fired = a + b }},
		{Name: "init", Fn: func() {}},
		{Name: "_private_helper", Fn: func() {}},
	}}
	require.NoError(t, ok.Init(host, ok))

	ds := ok.Descriptors()
	require.Len(t, ds, 1)
	assert.Equal(t, "wp_loaded", ds[0].Tag)
	assert.Equal(t, 5, ds[0].Priority)
	assert.Equal(t, 2, ds[0].AcceptedArgs)

	require.NoError(t, host.bus.DoAction("wp_loaded", 1, 2, 3))
	assert.Equal(t, 3, fired)

	bad := &tabled{table: Table{{Name: "subscribe_everything", Fn: func() {}}}}
	err := bad.Init(newTestHost(), bad)
	assert.ErrorIs(t, err, ErrInvalidDeclaration)

	nilFn := &tabled{table: Table{{Name: "action_init", Fn: nil}}}
	assert.ErrorIs(t, nilFn.Init(newTestHost(), nilFn), ErrInvalidDeclaration)

	notFunc := &tabled{table: Table{{Name: "action_init", Fn: 42}}}
	assert.Error(t, notFunc.Init(newTestHost(), notFunc))
}
