package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TransitionHook observes every state change. It runs with the instance lock
// held so that transitions of one name are seen in order; it must not block
// and must not call back into the Registry.
type TransitionHook func(Transition)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTransitionHook installs a hook invoked on every transition.
func WithTransitionHook(h TransitionHook) RegistryOption {
	return func(r *Registry) { r.hook = h }
}

// WithRegistryLogger sets the logger used for errors that have no caller to
// return to, such as a handle failing to close on the last release.
func WithRegistryLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// CreateOption annotates a new instance.
type CreateOption func(*Instance)

// WithArtifact records which runtime and artifact back the instance.
func WithArtifact(runtime, location string) CreateOption {
	return func(i *Instance) {
		i.runtime = runtime
		i.artifact = location
	}
}

// Registry maps model names to instances. The map is guarded by mu and each
// instance by its own mutex, so operations on different names never contend
// beyond the map lookup. Lock order is registry, then instance.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance

	hook TransitionHook
	log  zerolog.Logger
	now  func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		instances: make(map[string]*Instance),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) emit(name string, from, to State, reason string) {
	if r.hook == nil {
		return
	}
	r.hook(Transition{Name: name, From: from, To: to, Reason: reason, At: r.now()})
}

func (r *Registry) lookup(name string) (*Instance, error) {
	r.mu.RLock()
	inst := r.instances[name]
	r.mu.RUnlock()
	if inst == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return inst, nil
}

func invalidTransition(name string, from, to State) error {
	return fmt.Errorf("%w: %q is %s, cannot move to %s", ErrInvalidTransition, name, from, to)
}

// Create inserts a new Loading instance for name. A name held by an Unloaded
// or Failed instance is replaced; any other state yields ErrAlreadyExists.
func (r *Registry) Create(name string, opts ...CreateOption) error {
	if name == "" {
		return ErrInvalidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev State
	if old := r.instances[name]; old != nil {
		old.mu.Lock()
		prev = old.state
		old.mu.Unlock()
		if !prev.Terminal() {
			return fmt.Errorf("%w: %q is %s", ErrAlreadyExists, name, prev)
		}
	}
	now := r.now()
	inst := &Instance{
		name:      name,
		state:     StateLoading,
		createdAt: now,
		closeErr: func(err error) {
			r.log.Error().Err(err).Str("model", name).Msg("close handle after drain")
		},
	}
	for _, o := range opts {
		o(inst)
	}
	r.instances[name] = inst
	r.emit(name, prev, StateLoading, "")
	return nil
}

// MarkAvailable publishes a loaded handle: Loading -> Available.
func (r *Registry) MarkAvailable(name string, h Handle) error {
	if h == nil {
		return fmt.Errorf("%w: nil handle for %q", ErrInvalidTransition, name)
	}
	inst, err := r.lookup(name)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.state != StateLoading {
		return invalidTransition(name, inst.state, StateAvailable)
	}
	inst.state = StateAvailable
	inst.handle = h
	inst.loadedAt = r.now()
	inst.reason = ""
	r.emit(name, StateLoading, StateAvailable, "")
	return nil
}

// MarkFailed moves a Loading or Unloading instance to Failed. A handle that
// is still being drained is closed by the last release, or now if idle.
func (r *Registry) MarkFailed(name, reason string) error {
	inst, err := r.lookup(name)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	from := inst.state
	if from != StateLoading && from != StateUnloading {
		return invalidTransition(name, from, StateFailed)
	}
	inst.state = StateFailed
	inst.reason = reason
	if inst.retiring != nil {
		if inst.refcount == 0 {
			h := inst.retiring
			inst.retiring = nil
			if cerr := h.Close(); cerr != nil {
				inst.closeErr(cerr)
			}
		} else {
			inst.closeOnDrain = true
		}
	}
	r.emit(name, from, StateFailed, reason)
	return nil
}

// BeginUnload moves an Available instance to Unloading. From this point no
// acquire succeeds; the handle moves to the retiring slot until drained.
func (r *Registry) BeginUnload(name string) error {
	inst, err := r.lookup(name)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.state != StateAvailable {
		return invalidTransition(name, inst.state, StateUnloading)
	}
	inst.state = StateUnloading
	inst.retiring = inst.handle
	inst.handle = nil
	inst.drained = make(chan struct{})
	if inst.refcount == 0 {
		close(inst.drained)
	}
	r.emit(name, StateAvailable, StateUnloading, "")
	return nil
}

// CompleteUnload waits until every outstanding acquire of an Unloading
// instance has been released, closes the handle and moves it to Unloaded. If
// ctx ends first the ctx error is returned and the unload stays pending; a
// later call can finish it. A close error moves the instance to Failed.
func (r *Registry) CompleteUnload(ctx context.Context, name string) error {
	inst, err := r.lookup(name)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	switch inst.state {
	case StateUnloading:
	case StateUnloaded:
		inst.mu.Unlock()
		return nil
	default:
		s := inst.state
		inst.mu.Unlock()
		return invalidTransition(name, s, StateUnloaded)
	}
	drained := inst.drained
	inst.mu.Unlock()

	select {
	case <-drained:
	case <-ctx.Done():
		return fmt.Errorf("unload %q: %w", name, ctx.Err())
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	switch inst.state {
	case StateUnloading:
	case StateUnloaded:
		return nil
	default:
		// failed while we were waiting
		return invalidTransition(name, inst.state, StateUnloaded)
	}
	h := inst.retiring
	inst.retiring = nil
	if h != nil {
		if cerr := h.Close(); cerr != nil {
			inst.state = StateFailed
			inst.reason = cerr.Error()
			r.emit(name, StateUnloading, StateFailed, inst.reason)
			return fmt.Errorf("%w: close %q: %w", ErrUnloadFailure, name, cerr)
		}
	}
	inst.state = StateUnloaded
	r.emit(name, StateUnloading, StateUnloaded, "")
	return nil
}

// AcquireForPredict takes a reference on an Available instance and returns
// its handle with a release func. The release is bound to this instance,
// safe to call more than once, and must be called exactly when the caller
// stops using the handle.
func (r *Registry) AcquireForPredict(name string) (Handle, func(), error) {
	inst, err := r.lookup(name)
	if err != nil {
		return nil, func() {}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.state != StateAvailable {
		return nil, func() {}, fmt.Errorf("%w: %q is %s", ErrNotAvailable, name, inst.state)
	}
	inst.refcount++
	inst.predictions++
	inst.lastUsed = r.now()
	var once sync.Once
	release := func() {
		once.Do(func() {
			inst.mu.Lock()
			inst.releaseLocked()
			inst.mu.Unlock()
		})
	}
	return inst.handle, release, nil
}

// Release drops one reference on the instance currently registered under
// name. Prefer the func returned by AcquireForPredict, which stays bound to
// the acquired instance even if the name is re-created.
func (r *Registry) Release(name string) error {
	inst, err := r.lookup(name)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	inst.releaseLocked()
	inst.mu.Unlock()
	return nil
}

// Status returns the current state of name.
func (r *Registry) Status(name string) (State, error) {
	inst, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state, nil
}

// Info returns a snapshot of one instance.
func (r *Registry) Info(name string) (InstanceInfo, error) {
	inst, err := r.lookup(name)
	if err != nil {
		return InstanceInfo{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.infoLocked(), nil
}

// List returns snapshots of every registered instance sorted by name.
func (r *Registry) List() []InstanceInfo {
	r.mu.RLock()
	insts := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		insts = append(insts, inst)
	}
	r.mu.RUnlock()

	out := make([]InstanceInfo, 0, len(insts))
	for _, inst := range insts {
		inst.mu.Lock()
		out = append(out, inst.infoLocked())
		inst.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the names whose instance is in one of the given states.
func (r *Registry) Names(states ...State) []string {
	var out []string
	for _, info := range r.List() {
		for _, s := range states {
			if info.State == s {
				out = append(out, info.Name)
				break
			}
		}
	}
	return out
}

// Evict removes an Unloaded or Failed instance from the registry.
func (r *Registry) Evict(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst := r.instances[name]
	if inst == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if !inst.state.Terminal() {
		return fmt.Errorf("%w: %q is %s, only Unloaded or Failed can be evicted", ErrInvalidTransition, name, inst.state)
	}
	delete(r.instances, name)
	r.emit(name, inst.state, "", "evicted")
	return nil
}
