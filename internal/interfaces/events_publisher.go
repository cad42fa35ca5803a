package interfaces

// EventPublisher delivers ledger events to an external broker. Publishing
// is best-effort: the engine never fails an operation over a publish error.
type EventPublisher interface {
	Publish(topic string, event any) error
}
