package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/axis/log"
	"github.com/kochabx/axis/starter"
	"github.com/kochabx/axis/transport"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

// Meta is the metadata of the server.
type Meta struct {
	Name string
}

type Server struct {
	meta    Meta
	options Options
	server  *http.Server
}

type Option func(*Server)

func WithMeta(meta Meta) Option {
	return func(s *Server) {
		s.meta = meta
	}
}

func WithMetricsOptions(metrics MetricsOption) Option {
	return func(s *Server) {
		metrics.init()
		s.options.Metrics = metrics
	}
}

func WithHealthOptions(health HealthOption) Option {
	return func(s *Server) {
		health.init()
		s.options.Health = health
	}
}

// WithInspection serves the starters of pool.
func WithInspection(pool *starter.Pool) Option {
	return func(s *Server) {
		if pool == nil {
			log.Warn().Str("component", "http").Msg("nil pool, inspection disabled")
			return
		}
		s.options.Inspection = InspectionOption{Enabled: true, Pool: pool}
	}
}

func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	additionalHandlers(s)

	return s
}

func (s *Server) Run() error {
	if s.meta.Name == "" {
		s.meta.Name = defaultName
	}

	addr, ok := transport.AddressOr(s.server.Addr, defaultAddr)
	if !ok {
		log.Warn().Msgf("invalid address %s, using default address: %s", s.server.Addr, defaultAddr)
	}
	s.server.Addr = addr
	log.Info().Msgf("%s server listening on %s", s.meta.Name, s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the handler with the additional routes mounted.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func additionalHandlers(s *Server) {
	if r, ok := s.server.Handler.(*gin.Engine); ok {
		handleMetrics(s, r)
		handleHealth(s, r)
		handleInspection(s, r)
	}
}

func handleMetrics(s *Server, r *gin.Engine) {
	if !s.options.Metrics.Enabled {
		return
	}

	m := s.options.Metrics.Metrics
	switch {
	case m != nil:
	case s.options.Inspection.Enabled:
		m = s.options.Inspection.Pool.Metrics()
	default:
		m = starter.NewMetrics()
	}
	if s.options.Metrics.EnabledGoCollector {
		m.WithGoCollectorRuntimeMetrics()
	}
	if s.options.Metrics.EnabledBuildInfoCollector {
		m.WithBuildInfoCollector()
	}

	r.GET(s.options.Metrics.Path, gin.WrapH(m.Handler()))
}

func handleHealth(s *Server, r *gin.Engine) {
	if s.options.Health.Enabled {
		r.GET(s.options.Health.Path, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}

func handleInspection(s *Server, r *gin.Engine) {
	if s.options.Inspection.Enabled {
		NewInspector(s.options.Inspection.Pool).Register(r)
	}
}
