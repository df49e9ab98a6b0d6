package input

// Field names one persisted attribute of a line.
type Field string

const (
	FieldFunction  Field = "function"
	FieldInputType Field = "inputtype"
	FieldRate      Field = "rate"
	FieldCount     Field = "count"
	FieldInvert    Field = "invert"
)

// Record is the persisted configuration of one input line.
type Record struct {
	Function  int     // 0 disabled, 1 pulse counter, 2 level sensor
	InputType int     // index into the Types catalog
	Rate      float64 // count to physical quantity multiplier
	Count     uint32  // persisted pulse count
	Inverted  bool
}

// DefaultRecord is the configuration of a line never written to before.
func DefaultRecord() Record {
	return Record{Rate: 0.001}
}

// Change describes one externally-driven field mutation on a line. Old and
// New carry the field's bounded numeric value before and after.
type Change struct {
	Line  int
	Field Field
	Old   float64
	New   float64
}

// Store is the persisted-settings boundary the manager works against. The
// store owns bounding and persistence; implementations deliver every
// external field mutation on the Changes channel.
type Store interface {
	// Record returns the current configuration of a line.
	Record(line int) Record

	// SetCount writes a count checkpoint back into durable storage.
	SetCount(line int, count uint32) error

	// Changes delivers externally-driven field mutations. The channel is
	// closed when the store shuts down.
	Changes() <-chan Change

	// Close stops change delivery and releases resources.
	Close() error
}
