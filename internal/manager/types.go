package manager

import "time"

// State is the lifecycle state of a model instance. The values are the
// strings reported on the wire.
type State string

const (
	StateLoading   State = "Loading"
	StateAvailable State = "Available"
	StateUnloading State = "Unloading"
	StateUnloaded  State = "Unloaded"
	StateFailed    State = "Failed"
)

// States lists every state in lifecycle order.
var States = []State{StateLoading, StateAvailable, StateUnloading, StateUnloaded, StateFailed}

func (s State) String() string { return string(s) }

// Terminal reports whether the name may be reused by a new instance.
func (s State) Terminal() bool { return s == StateUnloaded || s == StateFailed }

// InstanceInfo is a point-in-time copy of an instance's bookkeeping.
type InstanceInfo struct {
	Name        string
	State       State
	Reason      string
	Runtime     string
	Artifact    string
	Refcount    int
	Predictions uint64
	CreatedAt   time.Time
	LoadedAt    time.Time
	LastUsed    time.Time
}

// Transition records a state change of a name. From is empty when the name
// was not registered before; To is empty when the name was evicted.
type Transition struct {
	Name   string
	From   State
	To     State
	Reason string
	At     time.Time
}
