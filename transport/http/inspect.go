package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/schema"
	"github.com/kochabx/axis/starter"
	"github.com/kochabx/axis/transport/http/response"
)

// ErrStarterNotFound is returned for slugs missing from the pool.
var ErrStarterNotFound = errors.Configuration("starter not found")

// StarterView is the summary of a starter.
type StarterView struct {
	Slug            string `json:"slug"`
	Version         string `json:"version,omitempty"`
	Namespace       string `json:"namespace,omitempty"`
	SourceRoot      string `json:"source_root"`
	Basename        string `json:"basename"`
	DefaultPriority int    `json:"default_priority"`
	Started         bool   `json:"started"`
	Hooks           int    `json:"hooks"`
	Types           int    `json:"types"`
}

// TypeView is a resolved type with its capability names.
type TypeView struct {
	Resolver     string   `json:"resolver"`
	Region       string   `json:"region,omitempty"`
	Component    string   `json:"component"`
	Context      string   `json:"context,omitempty"`
	Name         string   `json:"name"`
	Path         string   `json:"path,omitempty"`
	Capabilities []string `json:"capabilities"`
}

// Inspector serves read-only views of the starters in a pool.
type Inspector struct {
	pool *starter.Pool
}

func NewInspector(pool *starter.Pool) *Inspector {
	return &Inspector{pool: pool}
}

// Register mounts the inspection routes below /starters.
func (i *Inspector) Register(r gin.IRouter) {
	g := r.Group("/starters")
	g.GET("", i.list)
	g.GET("/:slug", i.get)
	g.GET("/:slug/hooks", i.hooks)
	g.GET("/:slug/types", i.types)
	g.GET("/:slug/schema", i.schema)
}

func viewOf(s *starter.Starter) StarterView {
	return StarterView{
		Slug:            s.Slug(),
		Version:         s.Version(),
		Namespace:       s.Namespace(),
		SourceRoot:      s.SourceRoot(),
		Basename:        s.Basename(),
		DefaultPriority: s.DefaultPriority(),
		Started:         s.Started(),
		Hooks:           len(s.Hooks()),
		Types:           len(s.Types()),
	}
}

func (i *Inspector) lookup(c *gin.Context) *starter.Starter {
	slug := c.Param("slug")
	s := i.pool.Get(slug)
	if s == nil {
		response.GinJSONE(c, http.StatusNotFound, ErrStarterNotFound.With("slug", slug))
	}
	return s
}

func (i *Inspector) list(c *gin.Context) {
	starters := i.pool.Starters()
	views := make([]StarterView, 0, len(starters))
	for _, s := range starters {
		views = append(views, viewOf(s))
	}
	response.GinJSON(c, views)
}

func (i *Inspector) get(c *gin.Context) {
	if s := i.lookup(c); s != nil {
		response.GinJSON(c, viewOf(s))
	}
}

// hooks accepts the optional tag and operation query filters.
func (i *Inspector) hooks(c *gin.Context) {
	s := i.lookup(c)
	if s == nil {
		return
	}

	tag, op := c.Query("tag"), c.Query("operation")
	records := make([]starter.HookRecord, 0)
	for _, h := range s.Hooks() {
		if tag != "" && h.Tag != tag {
			continue
		}
		if op != "" && h.Operation.String() != op {
			continue
		}
		records = append(records, h)
	}
	response.GinJSON(c, records)
}

func (i *Inspector) types(c *gin.Context) {
	s := i.lookup(c)
	if s == nil {
		return
	}

	resolverName := c.Query("resolver")
	views := make([]TypeView, 0)
	for _, t := range s.Types() {
		if resolverName != "" && t.Resolver != resolverName {
			continue
		}
		views = append(views, TypeView{
			Resolver:     t.Resolver,
			Region:       t.Region,
			Component:    t.Component,
			Context:      t.Context,
			Name:         t.Name,
			Path:         t.Path,
			Capabilities: t.Caps.Names(),
		})
	}
	response.GinJSON(c, views)
}

func (i *Inspector) schema(c *gin.Context) {
	s := i.lookup(c)
	if s == nil {
		return
	}

	reg := s.Schema()
	if reg == nil {
		response.GinJSON(c, []schema.Declaration{})
		return
	}
	decls, err := reg.Declarations(schema.Kind(c.Query("kind")))
	if err != nil {
		response.GinJSONE(c, http.StatusInternalServerError, err)
		return
	}
	response.GinJSON(c, decls)
}
