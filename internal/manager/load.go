package manager

import (
	"context"
	"fmt"
	"time"

	"torchserved/internal/catalog"
)

// Load registers name as Loading and loads its artifact.
//
// In async mode Load returns StateLoading as soon as the instance exists and
// the artifact is loaded by a background worker; callers poll Status. In
// sync mode Load returns once the instance is Available or Failed.
func (m *Manager) Load(ctx context.Context, name string) (State, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	if !m.enter() {
		return "", ErrClosed
	}
	art, err := m.register(name)
	if err != nil {
		m.wg.Done()
		return "", err
	}

	if m.cfg.LoadMode == LoadSync {
		defer m.wg.Done()
		return m.runLoad(ctx, name, art)
	}
	m.pending.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.pending.Add(-1)
		_, _ = m.runLoad(m.baseCtx, name, art)
	}()
	return StateLoading, nil
}

func (m *Manager) register(name string) (catalog.Artifact, error) {
	art, err := m.cfg.Catalog.Lookup(name)
	if err != nil {
		return catalog.Artifact{}, err
	}
	if err := m.registry.Create(name, WithArtifact(art.Runtime, art.Location())); err != nil {
		return catalog.Artifact{}, err
	}
	m.publisher.Publish(Event{Name: EventLoadStart, Model: name, Fields: map[string]any{
		"runtime":  art.Runtime,
		"artifact": art.Location(),
		"mode":     string(m.cfg.LoadMode),
	}})
	return art, nil
}

// runLoad waits for a loader slot, loads the artifact and publishes the
// handle. Any failure leaves the instance Failed with the reason recorded.
func (m *Manager) runLoad(ctx context.Context, name string, art catalog.Artifact) (State, error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	defer cancelCtx()
	stop := context.AfterFunc(m.baseCtx, cancelCtx)
	defer stop()

	if err := m.loadSem.Acquire(ctx, 1); err != nil {
		return m.loadFailed(name, 0, err)
	}
	defer m.loadSem.Release(1)

	lctx, cancel := context.WithTimeout(ctx, m.cfg.LoadTimeout)
	defer cancel()

	start := time.Now()
	h, err := m.loadArtifact(lctx, art)
	dur := time.Since(start)
	if err != nil {
		return m.loadFailed(name, dur, err)
	}
	if m.closed.Load() {
		// Close has already taken its snapshot of Available models
		m.closeHandle(name, h)
		return m.loadFailed(name, dur, ErrClosed)
	}
	if err := m.registry.MarkAvailable(name, h); err != nil {
		// the instance left Loading underneath us; the handle has no owner
		m.closeHandle(name, h)
		m.metrics.load("discarded", dur)
		return "", err
	}
	m.metrics.load("ok", dur)
	m.publisher.Publish(Event{Name: EventLoadDone, Model: name, Fields: map[string]any{"duration_ms": dur.Milliseconds()}})
	m.log.Info().Str("model", name).Str("runtime", art.Runtime).Dur("dur", dur).Msg("model available")
	return StateAvailable, nil
}

func (m *Manager) closeHandle(name string, h Handle) {
	if err := h.Close(); err != nil {
		m.log.Error().Err(err).Str("model", name).Msg("close orphaned handle")
	}
}

func (m *Manager) loadArtifact(ctx context.Context, art catalog.Artifact) (h Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	h, err = m.cfg.Loader.Load(ctx, art)
	if err == nil && h == nil {
		err = fmt.Errorf("loader returned no handle for %q", art.Name)
	}
	return h, err
}

func (m *Manager) loadFailed(name string, dur time.Duration, cause error) (State, error) {
	if err := m.registry.MarkFailed(name, cause.Error()); err != nil {
		m.log.Warn().Err(err).Str("model", name).Msg("mark failed")
	}
	m.metrics.load("error", dur)
	m.publisher.Publish(Event{Name: EventLoadFailed, Model: name, Fields: map[string]any{"error": cause.Error()}})
	m.log.Error().Err(cause).Str("model", name).Msg("model load failed")
	return StateFailed, fmt.Errorf("%w: %q: %w", ErrLoadFailure, name, cause)
}
