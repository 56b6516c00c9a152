package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, h Handle, timeout time.Duration) (*Executor, *Registry, *Metrics) {
	t.Helper()
	r := availableRegistry(t, "m", h)
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewExecutor(r, timeout, metrics, zerolog.Nop()), r, metrics
}

func refcount(t *testing.T, r *Registry, name string) int {
	t.Helper()
	info, err := r.Info(name)
	require.NoError(t, err)
	return info.Refcount
}

func TestExecutor_PredictSuccess(t *testing.T) {
	h := &fakeHandle{}
	e, r, metrics := newTestExecutor(t, h, 0)

	out, err := e.Predict(context.Background(), "m", []byte("cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "out:cat.jpg", string(out))
	assert.Equal(t, 0, refcount(t, r, "m"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.predicts.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.inflight))
}

func TestExecutor_NotFound(t *testing.T) {
	e, _, metrics := newTestExecutor(t, &fakeHandle{}, 0)
	_, err := e.Predict(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrModelNotReady)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.predicts.WithLabelValues("not_ready")))
}

func TestExecutor_NotAvailableSkipsComputation(t *testing.T) {
	h := &fakeHandle{}
	e, r, _ := newTestExecutor(t, h, 0)
	require.NoError(t, r.Create("loading"))

	_, err := e.Predict(context.Background(), "loading", nil)
	assert.ErrorIs(t, err, ErrModelNotReady)
	assert.ErrorIs(t, err, ErrNotAvailable)

	require.NoError(t, r.BeginUnload("m"))
	_, err = e.Predict(context.Background(), "m", nil)
	assert.ErrorIs(t, err, ErrModelNotReady)
	assert.EqualValues(t, 0, h.calls.Load())
}

func TestExecutor_ComputeErrorReleases(t *testing.T) {
	h := &fakeHandle{err: errBoom}
	e, r, metrics := newTestExecutor(t, h, 0)

	_, err := e.Predict(context.Background(), "m", []byte("x"))
	assert.ErrorIs(t, err, ErrCompute)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, refcount(t, r, "m"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.predicts.WithLabelValues("error")))
}

func TestExecutor_PanicRecoveredAndReleased(t *testing.T) {
	h := &fakeHandle{panicMsg: "tensor shape mismatch"}
	e, r, _ := newTestExecutor(t, h, 0)

	_, err := e.Predict(context.Background(), "m", []byte("x"))
	assert.ErrorIs(t, err, ErrCompute)
	assert.Contains(t, err.Error(), "tensor shape mismatch")
	assert.Equal(t, 0, refcount(t, r, "m"))

	// the model stays usable and unloadable
	require.NoError(t, r.BeginUnload("m"))
	require.NoError(t, r.CompleteUnload(testCtx(t), "m"))
}

func TestExecutor_CallerCancelDuringCompute(t *testing.T) {
	h := &fakeHandle{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	e, r, metrics := newTestExecutor(t, h, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := e.Predict(ctx, "m", []byte("x"))
		done <- err
	}()

	<-h.entered
	assert.Equal(t, 1, refcount(t, r, "m"))
	cancel()
	// the computation keeps its reference until it finishes
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, refcount(t, r, "m"))
	close(h.gate)

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, h.ctxErrSeen(), "computation context must not observe caller cancellation")
	assert.Equal(t, 0, refcount(t, r, "m"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.predicts.WithLabelValues("canceled")))
}

type deadlineHandle struct{ sawDeadline chan bool }

func (h deadlineHandle) Predict(ctx context.Context, _ []byte) ([]byte, error) {
	_, ok := ctx.Deadline()
	h.sawDeadline <- ok
	<-ctx.Done()
	return nil, ctx.Err()
}

func (deadlineHandle) Close() error { return nil }

func TestExecutor_PredictTimeoutBoundsComputation(t *testing.T) {
	h := deadlineHandle{sawDeadline: make(chan bool, 1)}
	e, r, _ := newTestExecutor(t, h, 20*time.Millisecond)

	_, err := e.Predict(context.Background(), "m", nil)
	assert.True(t, <-h.sawDeadline)
	assert.ErrorIs(t, err, ErrCompute)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, refcount(t, r, "m"))
}

func TestExecutor_UnloadWaitsForInflightPredict(t *testing.T) {
	h := &fakeHandle{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	e, r, _ := newTestExecutor(t, h, 0)

	res := make(chan error, 1)
	go func() {
		_, err := e.Predict(context.Background(), "m", []byte("x"))
		res <- err
	}()
	<-h.entered

	require.NoError(t, r.BeginUnload("m"))
	unloaded := make(chan error, 1)
	go func() { unloaded <- r.CompleteUnload(context.Background(), "m") }()

	select {
	case <-unloaded:
		t.Fatalf("unload completed while predict in flight")
	case <-time.After(20 * time.Millisecond):
	}
	close(h.gate)
	require.NoError(t, <-res)
	require.NoError(t, <-unloaded)
	assert.EqualValues(t, 1, h.closes.Load())
}
