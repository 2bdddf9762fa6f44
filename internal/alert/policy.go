package alert

import (
	"strings"

	"codeberg.org/havenmon/sysmond/internal/config"
)

// Policy maps sensor identities to threshold rules. Built once at
// startup; resolution is exact match first, then the disk-usage
// pattern.
type Policy struct {
	rules         map[string]Rule
	diskThreshold float64
}

// NewPolicy builds the static rule table from the configured
// thresholds.
func NewPolicy(cfg *config.Config) *Policy {
	greater := func(threshold float64, name string) Rule {
		t := threshold
		return Rule{Comparison: CompareGreater, Threshold: &t, DisplayName: name}
	}
	binary := func(name string) Rule {
		return Rule{Comparison: CompareBinary, DisplayName: name}
	}

	return &Policy{
		rules: map[string]Rule{
			"cpu_usage":           greater(cfg.CPUThreshold, "CPU Usage"),
			"memory_usage":        greater(cfg.MemoryThreshold, "Memory Usage"),
			"cpu_temperature":     greater(cfg.TempThreshold, "CPU Temperature"),
			"rpi_gpu_temperature": greater(cfg.TempThreshold, "GPU Temperature"),
			"rpi_under_voltage":   binary("Under Voltage"),
			"rpi_throttled":       binary("Thermal Throttling"),
			"rpi_temp_limited":    binary("Temperature Limited"),
		},
		diskThreshold: cfg.DiskThreshold,
	}
}

// Resolve returns the rule for a sensor id, or false when the sensor
// is not threshold-checked. Disk usage sensors (disk_*_usage) share a
// synthesized rule parametrized by the configured disk threshold.
func (p *Policy) Resolve(sensorID string) (Rule, bool) {
	if rule, ok := p.rules[sensorID]; ok {
		return rule, true
	}

	if strings.HasPrefix(sensorID, "disk_") && strings.HasSuffix(sensorID, "_usage") {
		t := p.diskThreshold
		return Rule{
			Comparison:  CompareGreater,
			Threshold:   &t,
			DisplayName: "Disk Usage (" + sensorID + ")",
		}, true
	}

	return Rule{}, false
}
