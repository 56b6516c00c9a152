package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + model name and optional fields via key/values.
type Event struct {
	Name   string         `json:"name"`
	Model  string         `json:"model"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Event names.
const (
	EventStateChanged  = "state_changed"
	EventLoadStart     = "load_start"
	EventLoadDone      = "load_done"
	EventLoadFailed    = "load_failed"
	EventUnloadStart   = "unload_start"
	EventUnloadDone    = "unload_done"
	EventUnloadPending = "unload_pending"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func transitionEvent(t Transition) Event {
	f := map[string]any{"from": string(t.From), "to": string(t.To)}
	if t.Reason != "" {
		f["reason"] = t.Reason
	}
	return Event{Name: EventStateChanged, Model: t.Name, Fields: f}
}
