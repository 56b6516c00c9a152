package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Manager orchestrates model lifecycles on top of the Registry and runs
// predictions through the Executor.
type Manager struct {
	cfg       Config
	registry  *Registry
	executor  *Executor
	metrics   *Metrics
	publisher EventPublisher
	log       zerolog.Logger

	loadSem *semaphore.Weighted
	// mu orders closed against wg.Add so Close never waits on a group that
	// is still growing.
	mu sync.Mutex
	// loads and unload completions in flight
	wg      sync.WaitGroup
	pending atomic.Int64

	baseCtx   context.Context
	cancel    context.CancelFunc
	closed    atomic.Bool
	startTime time.Time
}

// New constructs a Manager from cfg. Catalog and Loader are required.
func New(cfg Config) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("manager: catalog is required")
	}
	if cfg.Loader == nil {
		return nil, errors.New("manager: loader is required")
	}
	switch cfg.LoadMode {
	case "", LoadAsync, LoadSync:
	default:
		return nil, fmt.Errorf("manager: unknown load mode %q", cfg.LoadMode)
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:       cfg,
		metrics:   NewMetrics(cfg.Registerer),
		publisher: cfg.Publisher,
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		loadSem:   semaphore.NewWeighted(int64(cfg.LoadConcurrency)),
		startTime: time.Now(),
	}
	m.baseCtx, m.cancel = context.WithCancel(context.Background())
	m.registry = NewRegistry(
		WithTransitionHook(m.onTransition),
		WithRegistryLogger(m.log),
	)
	m.executor = NewExecutor(m.registry, cfg.PredictTimeout, m.metrics, m.log)
	return m, nil
}

func (m *Manager) onTransition(t Transition) {
	m.metrics.transition(t)
	m.publisher.Publish(transitionEvent(t))
	ev := m.log.Debug().Str("model", t.Name).Str("from", string(t.From)).Str("to", string(t.To))
	if t.Reason != "" {
		ev = ev.Str("reason", t.Reason)
	}
	ev.Msg("state transition")
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *Registry { return m.registry }

// enter registers one unit of tracked work, or reports false once closed.
func (m *Manager) enter() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return false
	}
	m.wg.Add(1)
	return true
}

// Ready reports whether the manager accepts work and no background load is in flight.
func (m *Manager) Ready() bool {
	return !m.closed.Load() && m.pending.Load() == 0
}

// PendingLoads returns the number of background loads not yet finished.
func (m *Manager) PendingLoads() int { return int(m.pending.Load()) }

// Status returns the state of name.
func (m *Manager) Status(name string) (State, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	return m.registry.Status(name)
}

// Info returns the bookkeeping snapshot of name.
func (m *Manager) Info(name string) (InstanceInfo, error) { return m.registry.Info(name) }

// Predict runs input through the Available model name.
func (m *Manager) Predict(ctx context.Context, name string, input []byte) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrModelNotReady, ErrInvalidName)
	}
	return m.executor.Predict(ctx, name, input)
}

// Evict removes an Unloaded or Failed instance so its name disappears from status.
func (m *Manager) Evict(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	return m.registry.Evict(name)
}

// Close stops accepting loads, cancels in-flight loads and unloads every
// Available model, waiting for drains until ctx is done.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		return nil
	}
	m.closed.Store(true)
	m.mu.Unlock()
	m.cancel()

	var errs []error
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("wait for background work: %w", ctx.Err()))
	}

	for _, name := range m.registry.Names(StateAvailable) {
		if _, err := m.unload(ctx, name, false); err != nil && !IsInvalidTransition(err) {
			errs = append(errs, err)
		}
	}
	// unloads left pending by earlier drain timeouts
	for _, name := range m.registry.Names(StateUnloading) {
		if err := m.registry.CompleteUnload(ctx, name); err != nil && !IsInvalidTransition(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
