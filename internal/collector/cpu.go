package collector

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Thermal zones checked first when picking the CPU temperature reading.
var preferredTempSensors = []string{"coretemp", "cpu_thermal", "cpu-thermal", "k10temp", "zenpower"}

// CPU collects total and per-core usage, temperature and frequency.
type CPU struct {
	coreCount int
	hasTemp   bool
}

func NewCPU() *CPU {
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		count = 1
	}

	// Prime the usage counters so the first tick reports a delta
	// instead of zero.
	_, _ = cpu.Percent(0, false)
	_, _ = cpu.Percent(0, true)

	return &CPU{
		coreCount: count,
		hasTemp:   temperatureAvailable(),
	}
}

func temperatureAvailable() bool {
	temps, err := sensors.SensorsTemperatures()
	return err == nil && len(temps) > 0
}

func (*CPU) Name() string {
	return "cpu"
}

func (*CPU) Available() bool {
	return true
}

func (c *CPU) Collect(ctx context.Context) ([]metric.Sample, error) {
	errFactory := errors.New()

	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(total) == 0 {
		return nil, errFactory.Wrap(ErrCPURead, err)
	}

	samples := []metric.Sample{
		{SensorID: "cpu_usage", Value: round(total[0], 1)},
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err == nil {
		for i, usage := range perCore {
			samples = append(samples, metric.Sample{
				SensorID: fmt.Sprintf("cpu_core_%d_usage", i),
				Value:    round(usage, 1),
			})
		}
	}

	if c.hasTemp {
		if temp, ok := cpuTemperature(); ok {
			samples = append(samples, metric.Sample{
				SensorID: "cpu_temperature",
				Value:    round(temp, 1),
			})
		}
	}

	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 && info[0].Mhz > 0 {
		samples = append(samples, metric.Sample{
			SensorID: "cpu_frequency",
			Value:    round(info[0].Mhz, 0),
		})
	}

	return samples, nil
}

func cpuTemperature() (float64, bool) {
	temps, err := sensors.SensorsTemperatures()
	if err != nil || len(temps) == 0 {
		logger.Debug().Err(err).Msg("Failed to read temperature sensors")
		return 0, false
	}

	for _, preferred := range preferredTempSensors {
		for _, t := range temps {
			if strings.Contains(t.SensorKey, preferred) {
				return t.Temperature, true
			}
		}
	}

	// Fallback to the first reading
	return temps[0].Temperature, true
}

func (c *CPU) Descriptors() []metric.Descriptor {
	descriptors := []metric.Descriptor{
		{
			SensorID:   "cpu_usage",
			Name:       "CPU Usage",
			StateClass: "measurement",
			Unit:       "%",
			Icon:       "mdi:cpu-64-bit",
			Precision:  metric.P(1),
		},
	}

	for i := 0; i < c.coreCount; i++ {
		descriptors = append(descriptors, metric.Descriptor{
			SensorID:       fmt.Sprintf("cpu_core_%d_usage", i),
			Name:           fmt.Sprintf("CPU Core %d Usage", i),
			StateClass:     "measurement",
			Unit:           "%",
			Icon:           "mdi:chip",
			EntityCategory: "diagnostic",
			Precision:      metric.P(1),
		})
	}

	if c.hasTemp {
		descriptors = append(descriptors, metric.Descriptor{
			SensorID:    "cpu_temperature",
			Name:        "CPU Temperature",
			DeviceClass: "temperature",
			StateClass:  "measurement",
			Unit:        "°C",
			Precision:   metric.P(1),
		})
	}

	descriptors = append(descriptors, metric.Descriptor{
		SensorID:    "cpu_frequency",
		Name:        "CPU Frequency",
		DeviceClass: "frequency",
		StateClass:  "measurement",
		Unit:        "MHz",
		Icon:        "mdi:speedometer",
	})

	return descriptors
}
