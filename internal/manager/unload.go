package manager

import (
	"context"
	"errors"
)

// Unload drains and releases the Available model name.
//   - New predicts are rejected as soon as the instance is Unloading.
//   - Waits up to the drain timeout (or ctx) for in-flight predicts.
//   - On timeout the unload stays pending: a background waiter finishes it
//     once the last reference is released, and ctx's error is returned.
func (m *Manager) Unload(ctx context.Context, name string) (State, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	return m.unload(ctx, name, true)
}

func (m *Manager) unload(ctx context.Context, name string, handOff bool) (State, error) {
	if err := m.registry.BeginUnload(name); err != nil {
		return "", err
	}
	m.publisher.Publish(Event{Name: EventUnloadStart, Model: name})

	dctx, cancel := context.WithTimeout(ctx, m.cfg.DrainTimeout)
	defer cancel()
	err := m.registry.CompleteUnload(dctx, name)
	switch {
	case err == nil:
		m.metrics.unload("ok")
		m.publisher.Publish(Event{Name: EventUnloadDone, Model: name})
		m.log.Info().Str("model", name).Msg("model unloaded")
		return StateUnloaded, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		m.metrics.unload("pending")
		info, _ := m.registry.Info(name)
		m.publisher.Publish(Event{Name: EventUnloadPending, Model: name, Fields: map[string]any{"refcount": info.Refcount}})
		m.log.Warn().Str("model", name).Int("refcount", info.Refcount).Msg("drain interrupted, unload pending")
		if handOff {
			m.finishUnloadAsync(name)
		}
		return StateUnloading, err
	default:
		m.metrics.unload("error")
		m.log.Error().Err(err).Str("model", name).Msg("unload failed")
		return "", err
	}
}

// finishUnloadAsync completes a pending unload once the instance drains.
// After Close has begun, Close itself completes Unloading instances.
func (m *Manager) finishUnloadAsync(name string) {
	if !m.enter() {
		return
	}
	go func() {
		defer m.wg.Done()
		if err := m.registry.CompleteUnload(m.baseCtx, name); err != nil {
			if !errors.Is(err, context.Canceled) {
				m.log.Error().Err(err).Str("model", name).Msg("complete pending unload")
			}
			return
		}
		m.metrics.unload("ok")
		m.publisher.Publish(Event{Name: EventUnloadDone, Model: name})
		m.log.Info().Str("model", name).Msg("pending unload completed")
	}()
}
