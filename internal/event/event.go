// Package event defines the normalized record every ingestion source
// produces and the static source priority table that orders display.
package event

import "time"

// Type classifies an event for buffer routing.
type Type int

const (
	// Warning is an early-warning message that interrupts the display.
	Warning Type = iota
	// Report is a post-event bulletin shown in round-robin rotation.
	Report
	// Weather is a weather alert; it shares the report rotation but
	// always sorts ahead of earthquake reports.
	Weather
)

// String returns the type name for logging.
func (t Type) String() string {
	switch t {
	case Warning:
		return "warning"
	case Report:
		return "report"
	case Weather:
		return "weather"
	default:
		return "unknown"
	}
}

// Event is a normalized earthquake/tsunami/weather record from one
// source. Adapters produce it; it is immutable once created.
type Event struct {
	Type         Type
	Source       string // feed identifier, the dedup/ownership key
	EventID      string // optional; stable across updates of one occurrence
	Organization string
	PlaceName    string
	Magnitude    float64
	Latitude     float64
	Longitude    float64
	Depth        float64
	ShockTime    string // "2006-01-02 15:04:05" in the display timezone
	Received     time.Time
	Extra        map[string]any // intensity, info_type, cancel/final flags
}

// ShockTimeLayout is the normalized shock time format.
const ShockTimeLayout = "2006-01-02 15:04:05"

// Cancel reports whether this event is an explicit cancellation of a
// previously issued warning.
func (e *Event) Cancel() bool {
	if e.Extra == nil {
		return false
	}
	v, ok := e.Extra["cancel"].(bool)
	return ok && v
}

// Final reports whether the source marked this update as the final one.
func (e *Event) Final() bool {
	if e.Extra == nil {
		return false
	}
	v, ok := e.Extra["final"].(bool)
	return ok && v
}

// Updates returns the report number of this update, defaulting to 1.
func (e *Event) Updates() int {
	if e.Extra == nil {
		return 1
	}
	switch v := e.Extra["updates"].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return 1
}
