package input

// Service is the published representation of one registered line: a group
// of named fields other processes can read. Field paths use a leading
// slash, e.g. "/Count".
type Service interface {
	// Set publishes a field value. Failures are reported but must not be
	// treated as fatal by callers; the bus may be temporarily away.
	Set(path string, value any) error

	// SetText publishes a field value together with its human-readable
	// rendering.
	SetText(path string, value any, text string) error

	// Destroy withdraws the service and all its fields from the bus.
	Destroy() error
}

// Publisher creates per-line services on the IPC bus.
type Publisher interface {
	// Create allocates a service for a line under the given product id
	// segment, e.g. ("pulsemeter", 2) for the second input.
	Create(productID string, instance int) (Service, error)

	// Close disconnects from the bus. Services created earlier become
	// unusable.
	Close() error
}
