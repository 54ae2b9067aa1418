package app

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/ioc"
	"github.com/kochabx/axis/starter"
	"github.com/kochabx/axis/transport/http"
)

func newPool(t *testing.T, slugs ...string) *starter.Pool {
	t.Helper()

	pool := starter.NewPool()
	for _, slug := range slugs {
		_, err := starter.Factory(
			starter.Config{MainEntry: "/plugins/" + slug + "/" + slug + ".go"},
			starter.WithCatalog(ioc.NewCatalog()),
			starter.WithFinder(finder.NewSimple()),
			starter.WithPool(pool),
		)
		require.NoError(t, err)
	}
	return pool
}

func TestNew(t *testing.T) {
	app := New(WithServer(http.NewServer("", gin.New())))

	info := app.Info()
	assert.Equal(t, 1, info.ServerCount)
	assert.False(t, info.Started)
	assert.Empty(t, info.Starters)
}

func TestWithPool(t *testing.T) {
	pool := newPool(t, "alpha", "beta")

	ctx, cancel := context.WithCancel(context.Background())
	app := New(WithPool(pool), WithContext(ctx))

	info := app.Info()
	assert.Equal(t, []string{"alpha", "beta"}, info.Starters)
	assert.Equal(t, 1, info.CloseCount)

	done := make(chan error, 1)
	go func() { done <- app.Start() }()

	require.Eventually(t, func() bool {
		return pool.Get("alpha").Started() && pool.Get("beta").Started()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.ErrorIs(t, app.Start(), ErrAlreadyStarted)
}

func TestPoolFailureAbortsStart(t *testing.T) {
	pool := newPool(t, "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var closed atomic.Bool
	app := New(
		WithContext(ctx),
		WithPool(pool),
		WithClose("mark", func(context.Context) error {
			closed.Store(true)
			return nil
		}, time.Second),
	)

	assert.ErrorIs(t, app.Start(), context.Canceled)
	assert.True(t, closed.Load())
	assert.False(t, pool.Get("alpha").Started())
}

func TestStartWithServers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var called atomic.Int32
	app := New(
		WithServers(http.NewServer("127.0.0.1:18931", gin.New())),
		WithShutdownTimeout(5*time.Second),
		WithCloseTimeout(2*time.Second),
		WithClose("test-close", func(context.Context) error {
			called.Add(1)
			return nil
		}, time.Second),
		WithSignals(os.Interrupt, syscall.SIGTERM),
		WithContext(ctx),
	)
	require.NoError(t, app.RegisterClose("late-close", func(context.Context) error {
		called.Add(1)
		return nil
	}, 0))

	err := app.Start()
	if err != nil {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, int32(2), called.Load())
}

func TestNoServers(t *testing.T) {
	app := New()

	go func() {
		time.Sleep(100 * time.Millisecond)
		app.Stop()
	}()

	assert.NoError(t, app.Start())
}

func TestAddServer(t *testing.T) {
	app := New()

	require.NoError(t, app.AddServer(http.NewServer("", gin.New())))
	assert.Equal(t, 1, app.Info().ServerCount)

	assert.ErrorIs(t, app.AddServer(nil), ErrNilServer)

	app.started = true
	assert.ErrorIs(t, app.AddServer(http.NewServer("", gin.New())), ErrAlreadyStarted)
}

func TestRegisterClose(t *testing.T) {
	app := New()

	called := false
	require.NoError(t, app.RegisterClose("test", func(context.Context) error {
		called = true
		return nil
	}, time.Second))
	assert.Equal(t, 1, app.Info().CloseCount)

	app.runCloseTasks()
	assert.True(t, called)

	assert.ErrorIs(t, app.RegisterClose("nil", nil, time.Second), ErrNilClose)
}

func TestCloseFuncPanic(t *testing.T) {
	app := New(WithClose("panic-close", func(context.Context) error {
		panic("test panic")
	}, time.Second))

	assert.ErrorIs(t, app.runCloseTask(app.closeFuncs[0]), ErrClosePanic)
}

func TestCloseFuncTimeout(t *testing.T) {
	app := New(WithClose("slow-close", func(context.Context) error {
		time.Sleep(2 * time.Second)
		return nil
	}, 100*time.Millisecond))

	start := time.Now()
	app.runCloseTasks()
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestNilOptions(t *testing.T) {
	app := New(
		WithServer(nil),
		WithServers(nil),
		WithPool(nil),
		WithClose("nil", nil, 0),
		WithShutdownTimeout(0),
		WithCloseTimeout(0),
	)

	info := app.Info()
	assert.Equal(t, 0, info.ServerCount)
	assert.Equal(t, 0, info.CloseCount)
	assert.Equal(t, 30*time.Second, app.shutdownTimeout)
}
