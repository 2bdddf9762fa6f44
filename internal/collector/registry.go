package collector

import (
	"context"

	"codeberg.org/havenmon/sysmond/internal/config"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
)

// Registry holds the active collectors and merges their output.
type Registry struct {
	collectors []Collector
}

// NewRegistry instantiates every collector enabled by the configuration
// and keeps the ones that report themselves available.
func NewRegistry(cfg *config.Config) *Registry {
	candidates := []Collector{
		NewCPU(),
		NewMemory(),
		NewDisk(cfg.MonitoredDisks),
		NewSystem(),
		NewNetwork(),
	}

	if cfg.EnableSecurity {
		candidates = append(candidates, NewSecurity())
	}
	if cfg.EnableRPi {
		candidates = append(candidates, NewRPi())
	}
	candidates = append(candidates, NewSupervisor(cfg.Supervisor.Token))

	r := &Registry{}
	for _, c := range candidates {
		if !c.Available() {
			logger.Debug().Str("collector", c.Name()).Msg("Collector not available")
			continue
		}
		r.collectors = append(r.collectors, c)
		logger.Info().Str("collector", c.Name()).Msg("Initialized collector")
	}

	logger.Info().Int("count", len(r.collectors)).Msg("Active collectors")

	return r
}

// Register appends a collector. Used by tests and by callers that bring
// their own collector implementations.
func (r *Registry) Register(c Collector) {
	r.collectors = append(r.collectors, c)
}

// CollectAll gathers samples from every collector in registration order.
// A failing collector is logged and skipped; the batch for the tick is
// the union of everything that succeeded. A collector that fails on one
// tick is retried on the next.
func (r *Registry) CollectAll(ctx context.Context) []metric.Sample {
	var batch []metric.Sample
	for _, c := range r.collectors {
		samples, err := c.Collect(ctx)
		if err != nil {
			logger.Error().Err(err).Str("collector", c.Name()).Msg("Collection failed")
			continue
		}
		batch = append(batch, samples...)
	}

	return batch
}

// Descriptors returns the union of every collector's sensor set in
// registration order. If two collectors reuse a sensor id the last one
// wins downstream; uniqueness is a collector obligation.
func (r *Registry) Descriptors() []metric.Descriptor {
	var descriptors []metric.Descriptor
	for _, c := range r.collectors {
		descriptors = append(descriptors, c.Descriptors()...)
	}

	return descriptors
}

// Count returns the number of active collectors.
func (r *Registry) Count() int {
	return len(r.collectors)
}
