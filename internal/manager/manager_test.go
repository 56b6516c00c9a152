package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"torchserved/internal/catalog"
)

func TestNew_RequiresCatalogAndLoader(t *testing.T) {
	_, err := New(Config{Loader: newFakeLoader()})
	assert.Error(t, err)
	_, err = New(Config{Catalog: testCatalog(t)})
	assert.Error(t, err)
	_, err = New(Config{Catalog: testCatalog(t), Loader: newFakeLoader(), LoadMode: "eager"})
	assert.Error(t, err)
}

func TestLoad_AsyncReturnsLoadingThenAvailable(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	m, pub := newTestManager(t, loader, nil, "resnet50")

	st, err := m.Load(testCtx(t), "resnet50")
	require.NoError(t, err)
	assert.Equal(t, StateLoading, st)
	assert.False(t, m.Ready(), "not ready while a load is pending")
	assert.Equal(t, 1, m.PendingLoads())

	close(loader.gate)
	waitState(t, m, "resnet50", StateAvailable)
	require.Eventually(t, m.Ready, time.Second, 5*time.Millisecond)

	require.Len(t, pub.Named(EventLoadStart), 1)
	require.Eventually(t, func() bool { return len(pub.Named(EventLoadDone)) == 1 }, time.Second, 5*time.Millisecond)
}

func TestLoad_SyncBlocksUntilAvailable(t *testing.T) {
	m, _ := newTestManager(t, newFakeLoader(), func(c *Config) { c.LoadMode = LoadSync }, "resnet50")
	st, err := m.Load(testCtx(t), "resnet50")
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, st)
}

func TestLoad_UnknownArtifact(t *testing.T) {
	m, _ := newTestManager(t, newFakeLoader(), nil)
	_, err := m.Load(testCtx(t), "nope")
	assert.ErrorIs(t, err, catalog.ErrArtifactNotFound)
	_, err = m.Status("nope")
	assert.True(t, IsNotFound(err), "a failed lookup must not register the name")
}

func TestLoad_EmptyName(t *testing.T) {
	m, _ := newTestManager(t, newFakeLoader(), nil)
	_, err := m.Load(testCtx(t), "")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestLoad_TwiceIsAlreadyExists(t *testing.T) {
	m, _ := newTestManager(t, newFakeLoader(), func(c *Config) { c.LoadMode = LoadSync }, "m")
	_, err := m.Load(testCtx(t), "m")
	require.NoError(t, err)
	_, err = m.Load(testCtx(t), "m")
	assert.True(t, IsAlreadyExists(err))
}

func TestLoad_FailureThenRetry(t *testing.T) {
	loader := newFakeLoader()
	loader.setErr("m", errors.New("corrupt artifact"))
	m, pub := newTestManager(t, loader, func(c *Config) { c.LoadMode = LoadSync }, "m")

	st, err := m.Load(testCtx(t), "m")
	assert.Equal(t, StateFailed, st)
	assert.ErrorIs(t, err, ErrLoadFailure)

	info, err := m.Info("m")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, info.State)
	assert.Equal(t, "corrupt artifact", info.Reason)
	assert.Len(t, pub.Named(EventLoadFailed), 1)

	loader.setErr("m", nil)
	st, err = m.Load(testCtx(t), "m")
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, st)
}

func TestLoad_AsyncFailureVisibleInStatus(t *testing.T) {
	loader := newFakeLoader()
	loader.setErr("m", errBoom)
	m, _ := newTestManager(t, loader, nil, "m")
	_, err := m.Load(testCtx(t), "m")
	require.NoError(t, err)
	waitState(t, m, "m", StateFailed)
}

type panicLoader struct{}

func (panicLoader) Load(context.Context, catalog.Artifact) (Handle, error) { panic("segfault") }

func TestLoad_LoaderPanicFails(t *testing.T) {
	m, _ := newTestManager(t, panicLoader{}, func(c *Config) { c.LoadMode = LoadSync }, "m")
	st, err := m.Load(testCtx(t), "m")
	assert.Equal(t, StateFailed, st)
	assert.ErrorIs(t, err, ErrLoadFailure)
}

func TestLoad_ConcurrencyBounded(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	m, _ := newTestManager(t, loader, func(c *Config) { c.LoadConcurrency = 1 }, "a", "b", "c")

	for _, n := range []string{"a", "b", "c"} {
		_, err := m.Load(testCtx(t), n)
		require.NoError(t, err)
	}
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, loader.maxActive.Load())
	close(loader.gate)
	for _, n := range []string{"a", "b", "c"} {
		waitState(t, m, n, StateAvailable)
	}
	assert.EqualValues(t, 1, loader.maxActive.Load())
}

func TestUnload_DrainsAndCloses(t *testing.T) {
	loader := newFakeLoader()
	m, pub := newTestManager(t, loader, func(c *Config) { c.LoadMode = LoadSync }, "m")
	_, err := m.Load(testCtx(t), "m")
	require.NoError(t, err)

	st, err := m.Unload(testCtx(t), "m")
	require.NoError(t, err)
	assert.Equal(t, StateUnloaded, st)
	assert.EqualValues(t, 1, loader.handle("m").closes.Load())
	assert.Len(t, pub.Named(EventUnloadDone), 1)

	_, err = m.Unload(testCtx(t), "m")
	assert.True(t, IsInvalidTransition(err), "second unload")
}

func TestUnload_Errors(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	defer close(loader.gate)
	m, _ := newTestManager(t, loader, nil, "m")

	_, err := m.Unload(testCtx(t), "nope")
	assert.True(t, IsNotFound(err))

	_, err = m.Load(testCtx(t), "m")
	require.NoError(t, err)
	_, err = m.Unload(testCtx(t), "m")
	assert.True(t, IsInvalidTransition(err), "unload while Loading")
}

func TestUnload_DrainTimeoutLeavesPendingThenCompletes(t *testing.T) {
	loader := newFakeLoader()
	h := &fakeHandle{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	loader.setHandle("m", h)
	m, pub := newTestManager(t, loader, func(c *Config) {
		c.LoadMode = LoadSync
		c.DrainTimeout = 20 * time.Millisecond
	}, "m")
	_, err := m.Load(testCtx(t), "m")
	require.NoError(t, err)

	res := make(chan error, 1)
	go func() {
		_, err := m.Predict(context.Background(), "m", []byte("x"))
		res <- err
	}()
	<-h.entered

	st, err := m.Unload(testCtx(t), "m")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateUnloading, st)
	assert.Len(t, pub.Named(EventUnloadPending), 1)

	_, err = m.Predict(context.Background(), "m", nil)
	assert.True(t, IsModelNotReady(err))

	close(h.gate)
	require.NoError(t, <-res)
	waitState(t, m, "m", StateUnloaded)
	assert.EqualValues(t, 1, h.closes.Load())
}

func TestPredict_ThroughManager(t *testing.T) {
	m, _ := newTestManager(t, newFakeLoader(), func(c *Config) { c.LoadMode = LoadSync }, "m")

	_, err := m.Predict(testCtx(t), "m", nil)
	assert.True(t, IsModelNotReady(err))

	_, err = m.Load(testCtx(t), "m")
	require.NoError(t, err)
	out, err := m.Predict(testCtx(t), "m", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "out:img", string(out))
}

func TestEvict_RemovesTerminal(t *testing.T) {
	m, _ := newTestManager(t, newFakeLoader(), func(c *Config) { c.LoadMode = LoadSync }, "m")
	_, err := m.Load(testCtx(t), "m")
	require.NoError(t, err)
	assert.True(t, IsInvalidTransition(m.Evict("m")))

	_, err = m.Unload(testCtx(t), "m")
	require.NoError(t, err)
	require.NoError(t, m.Evict("m"))
	assert.Empty(t, m.Snapshot())
}

func TestClose_UnloadsEverything(t *testing.T) {
	loader := newFakeLoader()
	pub := NewMemoryPublisher()
	m, err := New(Config{
		Catalog:   testCatalog(t, "a", "b"),
		Loader:    loader,
		Publisher: pub,
		LoadMode:  LoadSync,
	})
	require.NoError(t, err)
	for _, n := range []string{"a", "b"} {
		_, err := m.Load(testCtx(t), n)
		require.NoError(t, err)
	}
	require.NoError(t, m.Close(testCtx(t)))
	for _, n := range []string{"a", "b"} {
		st, _ := m.Status(n)
		assert.Equal(t, StateUnloaded, st)
		assert.EqualValues(t, 1, loader.handle(n).closes.Load())
	}
	assert.False(t, m.Ready())
	_, err = m.Load(testCtx(t), "a")
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, m.Close(testCtx(t)), "second Close is a no-op")
}

func TestClose_CancelsPendingLoads(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	m, err := New(Config{Catalog: testCatalog(t, "m"), Loader: loader})
	require.NoError(t, err)
	_, err = m.Load(testCtx(t), "m")
	require.NoError(t, err)

	require.NoError(t, m.Close(testCtx(t)))
	st, _ := m.Status("m")
	assert.Equal(t, StateFailed, st)
}

func TestClose_WaitsForSyncLoad(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	m, err := New(Config{Catalog: testCatalog(t, "m"), Loader: loader, LoadMode: LoadSync})
	require.NoError(t, err)

	res := make(chan error, 1)
	go func() {
		_, err := m.Load(context.Background(), "m")
		res <- err
	}()
	require.Eventually(t, func() bool { return loader.active.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close(testCtx(t)))
	st, _ := m.Status("m")
	assert.Equal(t, StateFailed, st, "Close cancels and waits for a sync load")
	assert.ErrorIs(t, <-res, ErrLoadFailure)

	_, err = m.Load(testCtx(t), "m")
	assert.ErrorIs(t, err, ErrClosed)
}

// stubbornLoader ignores ctx and returns h once release is closed.
type stubbornLoader struct {
	entered chan struct{}
	release chan struct{}
	h       *fakeHandle
}

func (l *stubbornLoader) Load(context.Context, catalog.Artifact) (Handle, error) {
	close(l.entered)
	<-l.release
	return l.h, nil
}

func TestClose_LateLoadDoesNotLeakHandle(t *testing.T) {
	loader := &stubbornLoader{entered: make(chan struct{}), release: make(chan struct{}), h: &fakeHandle{}}
	m, err := New(Config{Catalog: testCatalog(t, "m"), Loader: loader})
	require.NoError(t, err)
	_, err = m.Load(testCtx(t), "m")
	require.NoError(t, err)
	<-loader.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Close(ctx), "the stuck load outlives the wait")

	close(loader.release)
	require.Eventually(t, func() bool { return loader.h.closes.Load() == 1 }, time.Second, 5*time.Millisecond)
	waitState(t, m, "m", StateFailed)
	assert.Empty(t, m.Registry().Names(StateAvailable))
}

func TestStatusReport(t *testing.T) {
	loader := newFakeLoader()
	loader.setErr("bad", errBoom)
	m, _ := newTestManager(t, loader, func(c *Config) {
		c.LoadMode = LoadSync
		c.Registerer = prometheus.NewRegistry()
	}, "good", "bad")

	_, err := m.Load(testCtx(t), "good")
	require.NoError(t, err)
	_, _ = m.Load(testCtx(t), "bad")

	rep := m.StatusReport()
	require.Len(t, rep.Instances, 2)
	assert.Equal(t, "bad", rep.Instances[0].Name)
	assert.Equal(t, "Failed", rep.Instances[0].State)
	assert.Equal(t, "boom", rep.Instances[0].Reason)
	assert.Equal(t, "Available", rep.Instances[1].State)
	assert.NotZero(t, rep.Instances[1].LoadedAt)
	assert.Equal(t, 1, rep.Counts["Available"])
	assert.Equal(t, 1, rep.Counts["Failed"])
	assert.Equal(t, 0, rep.Counts["Loading"])
	assert.True(t, rep.Ready)

	models := m.ListModels()
	require.Len(t, models, 2)
	assert.Equal(t, "bad", models[0].Name)
	assert.Equal(t, catalog.RuntimeRemote, models[0].Runtime)
}

func TestSanityCheck(t *testing.T) {
	c, err := catalog.New("", []catalog.Artifact{
		{Name: "local", Runtime: catalog.RuntimeLlama, Path: "/definitely/missing.gguf"},
		{Name: "remote", Runtime: catalog.RuntimeRemote, Endpoint: "http://x"},
	}, zerolog.Nop())
	require.NoError(t, err)
	m, err := New(Config{Catalog: c, Loader: newFakeLoader()})
	require.NoError(t, err)

	rep := m.SanityCheck()
	assert.False(t, rep.OK())
	assert.Equal(t, []string{"local"}, rep.Missing)
	assert.Equal(t, LlamaBuilt(), rep.LlamaBuilt)
}
