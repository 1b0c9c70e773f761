package publisher

// Publisher publishes ingest events for downstream consumers.
type Publisher interface {
	// Publish publishes a message under a key to the stream
	Publish(key string, message []byte) error

	// Close closes the publisher
	Close() error
}
