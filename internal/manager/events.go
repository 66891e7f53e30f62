package manager

// Lifecycle event names.
const (
	EventLoadStart       = "load_start"
	EventLoadReady       = "load_ready"
	EventLoadFailed      = "load_failed"
	EventEvict           = "evict"
	EventUnload          = "unload"
	EventIdleUnload      = "idle_unload"
	EventDefaultSwitched = "default_switched"
)

// Event represents a manager lifecycle event.
// Minimal and stable: name + model name and optional fields via key/values.
type Event struct {
	Name   string
	Model  string
	Fields map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
