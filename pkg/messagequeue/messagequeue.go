package messagequeue

// Publisher defines the interface for publishing messages to a queue.
type Publisher interface {
	Publish(queueName string, body []byte) error
	Close() error
}

// Noop is a Publisher that discards everything. Used when no broker is
// configured.
type Noop struct{}

func (Noop) Publish(string, []byte) error { return nil }

func (Noop) Close() error { return nil }
