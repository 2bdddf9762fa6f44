package alert

import "time"

// Comparison selects how a sample value is judged against its rule.
type Comparison int

const (
	// CompareGreater alerts when the numeric value is strictly greater
	// than the threshold.
	CompareGreater Comparison = iota
	// CompareBinary alerts when the value is the literal string "on".
	CompareBinary
)

// Rule is one resolved threshold rule. Threshold is nil for binary
// rules.
type Rule struct {
	Comparison  Comparison
	Threshold   *float64
	DisplayName string
}

// Event is one notified alert transition. Immutable.
type Event struct {
	SensorID  string    `json:"sensor"`
	Name      string    `json:"name"`
	Value     any       `json:"value"`
	Threshold *float64  `json:"threshold"`
	At        time.Time `json:"-"`
}

// Sink receives alert events. Notify is fire-and-forget: delivery
// failures are the sink's to log and never reach the engine.
type Sink interface {
	Notify(Event)
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Notify(event Event) {
	for _, s := range m {
		s.Notify(event)
	}
}
