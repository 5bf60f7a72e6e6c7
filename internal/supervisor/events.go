package supervisor

// Event is a supervisor lifecycle event: name, model id and optional fields.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// Event names.
const (
	EventSpawnStart    = "spawn_start"
	EventStartupReady  = "startup_ready"
	EventStartupError  = "startup_error"
	EventHealthOK      = "health_ok"
	EventHealthTimeout = "health_timeout"
	EventServerStopped = "server_stopped"
	EventServerLost    = "server_lost"
)

// EventPublisher receives events. Publish must not block or panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
