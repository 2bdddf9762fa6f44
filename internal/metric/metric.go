// Package metric defines the data contracts shared by collectors,
// the alert engine and the publishers.
package metric

// Sample is a single reading produced by a collector during one tick.
// Value is a scalar: a numeric type, a plain string, or the literal
// "on"/"off" strings for binary conditions. Samples are created fresh
// every tick and never retained.
type Sample struct {
	SensorID   string
	Value      any
	Attributes map[string]any
}

// Descriptor declares a sensor's identity and presentation metadata
// for the one-time discovery publication. Descriptors are computed once
// at startup and are static for the process lifetime.
type Descriptor struct {
	SensorID       string
	Name           string
	Binary         bool
	DeviceClass    string
	StateClass     string
	Unit           string
	Icon           string
	EntityCategory string
	Precision      *int
	WithAttributes bool
}

// P is a convenience helper for Descriptor.Precision literals.
func P(n int) *int {
	return &n
}
