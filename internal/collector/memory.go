package collector

import (
	"context"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/metric"
	"github.com/shirou/gopsutil/v4/mem"
)

// Memory collects virtual memory and swap usage.
type Memory struct {
	hasSwap bool
}

func NewMemory() *Memory {
	swap, err := mem.SwapMemory()
	return &Memory{
		hasSwap: err == nil && swap.Total > 0,
	}
}

func (*Memory) Name() string {
	return "memory"
}

func (*Memory) Available() bool {
	return true
}

func (m *Memory) Collect(ctx context.Context) ([]metric.Sample, error) {
	errFactory := errors.New()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrMemoryRead, err)
	}

	samples := []metric.Sample{
		{SensorID: "memory_usage", Value: round(vm.UsedPercent, 1)},
		{SensorID: "memory_total", Value: toGB(vm.Total, 2)},
		{SensorID: "memory_used", Value: toGB(vm.Used, 2)},
		{SensorID: "memory_available", Value: toGB(vm.Available, 2)},
	}

	if m.hasSwap {
		swap, err := mem.SwapMemoryWithContext(ctx)
		if err == nil {
			samples = append(samples,
				metric.Sample{SensorID: "swap_usage", Value: round(swap.UsedPercent, 1)},
				metric.Sample{SensorID: "swap_used", Value: toGB(swap.Used, 2)},
				metric.Sample{SensorID: "swap_total", Value: toGB(swap.Total, 2)},
			)
		}
	}

	return samples, nil
}

func (m *Memory) Descriptors() []metric.Descriptor {
	descriptors := []metric.Descriptor{
		{
			SensorID:   "memory_usage",
			Name:       "Memory Usage",
			StateClass: "measurement",
			Unit:       "%",
			Icon:       "mdi:memory",
			Precision:  metric.P(1),
		},
		{
			SensorID:       "memory_total",
			Name:           "Memory Total",
			DeviceClass:    "data_size",
			StateClass:     "measurement",
			Unit:           "GB",
			Icon:           "mdi:memory",
			EntityCategory: "diagnostic",
			Precision:      metric.P(2),
		},
		{
			SensorID:    "memory_used",
			Name:        "Memory Used",
			DeviceClass: "data_size",
			StateClass:  "measurement",
			Unit:        "GB",
			Icon:        "mdi:memory",
			Precision:   metric.P(2),
		},
		{
			SensorID:    "memory_available",
			Name:        "Memory Available",
			DeviceClass: "data_size",
			StateClass:  "measurement",
			Unit:        "GB",
			Icon:        "mdi:memory",
			Precision:   metric.P(2),
		},
	}

	if m.hasSwap {
		descriptors = append(descriptors,
			metric.Descriptor{
				SensorID:       "swap_usage",
				Name:           "Swap Usage",
				StateClass:     "measurement",
				Unit:           "%",
				Icon:           "mdi:harddisk",
				EntityCategory: "diagnostic",
				Precision:      metric.P(1),
			},
			metric.Descriptor{
				SensorID:       "swap_used",
				Name:           "Swap Used",
				DeviceClass:    "data_size",
				StateClass:     "measurement",
				Unit:           "GB",
				Icon:           "mdi:harddisk",
				EntityCategory: "diagnostic",
				Precision:      metric.P(2),
			},
			metric.Descriptor{
				SensorID:       "swap_total",
				Name:           "Swap Total",
				DeviceClass:    "data_size",
				StateClass:     "measurement",
				Unit:           "GB",
				Icon:           "mdi:harddisk",
				EntityCategory: "diagnostic",
				Precision:      metric.P(2),
			},
		)
	}

	return descriptors
}
