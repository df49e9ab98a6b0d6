// Package input owns the per-line registry and lifecycle state machine of
// the daemon: which function each digital input performs, its published
// representation, and the poll loop that turns edge events into counts and
// level states.
package input

// ProcessName and Version identify the daemon on the published services.
const (
	ProcessName = "digital-inputs"
	Version     = "0.1"
)

// MaxCount is the wrap bound for pulse counters. A count reaching it rolls
// over to zero on the next increment.
const MaxCount = 1<<31 - 1

// Functions a line can perform.
const (
	FunctionDisabled    = 0
	FunctionCounter     = 1
	FunctionLevelSensor = 2
)

// Product identifies the published service flavor of a function.
type Product struct {
	ID   string // service id segment, e.g. "pulsemeter"
	Name string
	Code int // numeric product id
}

var products = map[int]Product{
	FunctionCounter:     {ID: "pulsemeter", Name: "Pulse meter", Code: 0xA163},
	FunctionLevelSensor: {ID: "digitalinput", Name: "Digital input", Code: 0xA164},
}

// ProductFor returns the published product identity for a non-disabled
// function.
func ProductFor(function int) (Product, bool) {
	p, ok := products[function]
	return p, ok
}

// Types is the catalog of level-sensor categories. Only append at the end:
// persisted type indexes refer into it.
var Types = []string{
	"Door alarm",
	"Bilge alarm",
	"Burglar alarm",
	"Smoke alarm",
	"Fire alarm",
	"CO2 alarm",
}

// TypeLabel returns the catalog entry for a type index. Out of range
// indexes clamp to the last entry rather than failing.
func TypeLabel(idx int) string {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(Types) {
		idx = len(Types) - 1
	}
	return Types[idx]
}
