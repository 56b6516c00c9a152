package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"torchserved/internal/catalog"
)

// fakeHandle is an in-memory model. Predict echoes the input with an "out:"
// prefix unless configured otherwise.
type fakeHandle struct {
	err      error
	panicMsg string
	closeErr error
	// gate, when non-nil, blocks Predict until closed.
	gate chan struct{}
	// entered receives one value per Predict call, if non-nil.
	entered chan struct{}

	closes   atomic.Int32
	calls    atomic.Int32
	mu       sync.Mutex
	lastCtxE error
}

func (h *fakeHandle) Predict(ctx context.Context, input []byte) ([]byte, error) {
	h.calls.Add(1)
	if h.entered != nil {
		h.entered <- struct{}{}
	}
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	h.lastCtxE = ctx.Err()
	h.mu.Unlock()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	if h.err != nil {
		return nil, h.err
	}
	return append([]byte("out:"), input...), nil
}

func (h *fakeHandle) Close() error {
	h.closes.Add(1)
	return h.closeErr
}

func (h *fakeHandle) ctxErrSeen() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastCtxE
}

// fakeLoader hands out fakeHandles. Per-name errors fail the load; gate, when
// non-nil, blocks every Load until closed or ctx is done.
type fakeLoader struct {
	mu      sync.Mutex
	handles map[string]*fakeHandle
	errs    map[string]error
	gate    chan struct{}

	active    atomic.Int32
	maxActive atomic.Int32
	loads     atomic.Int32
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{handles: map[string]*fakeHandle{}, errs: map[string]error{}}
}

func (l *fakeLoader) Load(ctx context.Context, a catalog.Artifact) (Handle, error) {
	l.loads.Add(1)
	n := l.active.Add(1)
	defer l.active.Add(-1)
	for {
		m := l.maxActive.Load()
		if n <= m || l.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs[a.Name]; err != nil {
		return nil, err
	}
	h := l.handles[a.Name]
	if h == nil {
		h = &fakeHandle{}
		l.handles[a.Name] = h
	}
	return h, nil
}

func (l *fakeLoader) setHandle(name string, h *fakeHandle) {
	l.mu.Lock()
	l.handles[name] = h
	l.mu.Unlock()
}

func (l *fakeLoader) setErr(name string, err error) {
	l.mu.Lock()
	if err == nil {
		delete(l.errs, name)
	} else {
		l.errs[name] = err
	}
	l.mu.Unlock()
}

func (l *fakeLoader) handle(name string) *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[name]
}

var errBoom = errors.New("boom")

// testCatalog declares remote artifacts for names; the endpoints are never dialed.
func testCatalog(t *testing.T, names ...string) *catalog.Catalog {
	t.Helper()
	arts := make([]catalog.Artifact, 0, len(names))
	for _, n := range names {
		arts = append(arts, catalog.Artifact{Name: n, Runtime: catalog.RuntimeRemote, Endpoint: "http://fake/" + n})
	}
	c, err := catalog.New("", arts, zerolog.Nop())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func newTestManager(t *testing.T, loader Loader, mutate func(*Config), names ...string) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	cfg := Config{
		Catalog:      testCatalog(t, names...),
		Loader:       loader,
		Publisher:    pub,
		DrainTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	})
	return m, pub
}

// waitState polls until name reaches want or the test times out.
func waitState(t *testing.T, m *Manager, name string, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := m.Status(name)
		if err == nil && st == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("state of %q: got %q (err=%v), want %q", name, st, err, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
