// Package app runs a starter pool next to the servers exposing it and shuts
// both down on a signal.
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/log"
	"github.com/kochabx/axis/starter"
	"github.com/kochabx/axis/transport"
)

var (
	ErrAlreadyStarted = errors.Configuration("application already started")
	ErrClosePanic     = errors.Configuration("close function panicked")
	ErrNilServer      = errors.Configuration("server cannot be nil")
	ErrNilClose       = errors.Configuration("close function cannot be nil")
)

// Application owns the lifecycle of a starter pool, its servers and the
// close functions run after shutdown.
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	signals         []os.Signal
	pool            *starter.Pool
	servers         []transport.Server
	closeFuncs      []CloseFunc
	closeTimeout    time.Duration
	mu              sync.RWMutex
	started         bool
}

// CloseFunc is a named shutdown step with its own timeout.
type CloseFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

type Option func(*Application)

func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithCloseTimeout sets the timeout of close functions registered without one.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.closeTimeout = timeout
		}
	}
}

func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		if len(signals) > 0 {
			app.signals = make([]os.Signal, len(signals))
			copy(app.signals, signals)
		}
	}
}

// WithPool starts every starter of pool before the servers run. The pool is
// closed after the servers stop.
func WithPool(pool *starter.Pool) Option {
	return func(app *Application) {
		if pool == nil {
			return
		}
		app.pool = pool
		app.closeFuncs = append(app.closeFuncs, CloseFunc{
			Name: "starter-pool",
			Fn: func(context.Context) error {
				return pool.Close()
			},
			Timeout: app.closeTimeout,
		})
	}
}

func WithServer(server transport.Server) Option {
	return func(app *Application) {
		if server != nil {
			app.servers = append(app.servers, server)
		}
	}
}

func WithServers(servers ...transport.Server) Option {
	return func(app *Application) {
		for _, server := range servers {
			if server != nil {
				app.servers = append(app.servers, server)
			}
		}
	}
}

// WithClose registers fn to run during shutdown. A zero timeout selects the
// close timeout.
func WithClose(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn == nil {
			log.Warn().Str("name", name).Msg("nil close function ignored")
			return
		}
		if timeout == 0 {
			timeout = app.closeTimeout
		}
		app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	}
}

func New(options ...Option) *Application {
	app := &Application{
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    30 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
		servers:         make([]transport.Server, 0),
		closeFuncs:      make([]CloseFunc, 0),
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(app)
	}
	return app
}

// AddServer adds a server before Start.
func (app *Application) AddServer(server transport.Server) error {
	if server == nil {
		return ErrNilServer
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.started {
		log.Warn().Msg("attempted to add server after application started")
		return ErrAlreadyStarted
	}
	app.servers = append(app.servers, server)
	return nil
}

func (app *Application) RegisterClose(name string, fn func(context.Context) error, timeout time.Duration) error {
	if fn == nil {
		return ErrNilClose.With("name", name)
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if timeout == 0 {
		timeout = app.closeTimeout
	}
	app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	return nil
}

// Start starts the pool, runs the servers and blocks until the context is
// cancelled or a signal arrives. A pool failure aborts before any server
// runs; close functions still run.
func (app *Application) Start() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	servers := make([]transport.Server, len(app.servers))
	copy(servers, app.servers)
	signals := make([]os.Signal, len(app.signals))
	copy(signals, app.signals)
	pool := app.pool
	app.mu.Unlock()

	if pool != nil {
		if err := pool.StartAll(app.ctx); err != nil {
			log.Error().Err(err).Msg("starter pool failed")
			app.runCloseTasks()
			return err
		}
		log.Info().Strs("starters", pool.Slugs()).Msg("starter pool started")
	}

	if len(servers) == 0 {
		log.Info().Msg("no servers configured, starting signal handler only")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	eg, egCtx := errgroup.WithContext(app.ctx)
	app.startServers(eg, egCtx, servers)

	eg.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			app.cancel()
			return nil
		case <-egCtx.Done():
			if errors.Is(egCtx.Err(), context.Canceled) {
				return nil
			}
			return egCtx.Err()
		}
	})

	err := eg.Wait()
	app.runCloseTasks()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (app *Application) Stop() {
	app.cancel()
}

func (app *Application) startServers(eg *errgroup.Group, ctx context.Context, servers []transport.Server) {
	for _, server := range servers {
		eg.Go(func() error {
			if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		eg.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
}

// runCloseTasks runs every close function concurrently.
func (app *Application) runCloseTasks() {
	app.mu.RLock()
	closeFuncs := make([]CloseFunc, len(app.closeFuncs))
	copy(closeFuncs, app.closeFuncs)
	app.mu.RUnlock()

	if len(closeFuncs) == 0 {
		return
	}

	eg := &errgroup.Group{}
	for _, cf := range closeFuncs {
		eg.Go(func() error {
			return app.runCloseTask(cf)
		})
	}
	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("some close functions failed")
	}
}

func (app *Application) runCloseTask(cf CloseFunc) error {
	timeout := cf.Timeout
	if timeout <= 0 {
		timeout = app.closeTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("close", cf.Name).Msg("close function panicked")
				done <- ErrClosePanic.With("close", cf.Name)
			}
		}()
		done <- cf.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Str("close", cf.Name).Msg("close function failed")
		}
		return err
	case <-ctx.Done():
		log.Warn().Str("close", cf.Name).Msg("close function timed out")
		return ctx.Err()
	}
}

// Info reports the application state.
func (app *Application) Info() ApplicationInfo {
	app.mu.RLock()
	defer app.mu.RUnlock()

	info := ApplicationInfo{
		Started:     app.started,
		ServerCount: len(app.servers),
		CloseCount:  len(app.closeFuncs),
	}
	if app.pool != nil {
		info.Starters = app.pool.Slugs()
	}
	return info
}

type ApplicationInfo struct {
	Started     bool     `json:"started"`
	ServerCount int      `json:"server_count"`
	CloseCount  int      `json:"close_count"`
	Starters    []string `json:"starters,omitempty"`
}
