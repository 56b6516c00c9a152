package manager

import (
	"sync"
	"time"
)

// Instance is the registry's record for one model name. All fields are
// guarded by mu; the registry lock, when needed, is always taken first.
type Instance struct {
	name string

	mu       sync.Mutex
	state    State
	handle   Handle // non-nil only while Available
	retiring Handle // handle being drained during Unloading
	refcount int
	drained  chan struct{} // closed once refcount reaches zero after BeginUnload
	// closeOnDrain is set when the instance failed while readers still held
	// the retiring handle; the last release closes it.
	closeOnDrain bool
	closeErr     func(error)

	reason      string
	runtime     string
	artifact    string
	createdAt   time.Time
	loadedAt    time.Time
	lastUsed    time.Time
	predictions uint64
}

func (i *Instance) infoLocked() InstanceInfo {
	return InstanceInfo{
		Name:        i.name,
		State:       i.state,
		Reason:      i.reason,
		Runtime:     i.runtime,
		Artifact:    i.artifact,
		Refcount:    i.refcount,
		Predictions: i.predictions,
		CreatedAt:   i.createdAt,
		LoadedAt:    i.loadedAt,
		LastUsed:    i.lastUsed,
	}
}

// releaseLocked drops one reference. It never drives refcount below zero and
// signals a pending unload when the last reference goes away.
func (i *Instance) releaseLocked() {
	if i.refcount == 0 {
		return
	}
	i.refcount--
	if i.refcount > 0 {
		return
	}
	if i.drained != nil {
		select {
		case <-i.drained:
		default:
			close(i.drained)
		}
	}
	if i.closeOnDrain && i.retiring != nil {
		h := i.retiring
		i.retiring = nil
		i.closeOnDrain = false
		if err := h.Close(); err != nil && i.closeErr != nil {
			i.closeErr(err)
		}
	}
}
