package collector

import (
	"context"

	"codeberg.org/havenmon/sysmond/internal/metric"
)

// Collector produces a batch of samples for one subsystem.
type Collector interface {
	// Name identifies the collector in logs.
	Name() string

	// Available reports whether the collector can run on this host.
	// Called once at startup; unavailable collectors are not registered.
	Available() bool

	// Collect gathers the current samples. A failing collector is
	// skipped for the tick and retried on the next one.
	Collect(ctx context.Context) ([]metric.Sample, error)

	// Descriptors returns the static sensor set this collector may
	// ever produce. Called once at startup; must not fail.
	Descriptors() []metric.Descriptor
}
