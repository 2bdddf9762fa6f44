package collector

import (
	"context"
	"runtime"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/metric"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
)

// System collects uptime, process count, load averages and static host
// information.
type System struct {
	staticInfo map[string]any
	osVersion  string
	hasLoad    bool
}

func NewSystem() *System {
	s := &System{
		osVersion: runtime.GOOS,
	}

	info, err := host.Info()
	if err == nil {
		s.osVersion = info.Platform + " " + info.PlatformVersion
		s.staticInfo = map[string]any{
			"os":         info.OS,
			"os_version": s.osVersion,
			"kernel":     info.KernelVersion,
			"arch":       info.KernelArch,
			"hostname":   info.Hostname,
			"go_version": runtime.Version(),
		}
	} else {
		s.staticInfo = map[string]any{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"go_version": runtime.Version(),
		}
	}

	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		s.staticInfo["cpu_model"] = cpuInfo[0].ModelName
	}

	_, err = load.Avg()
	s.hasLoad = err == nil

	return s
}

func (*System) Name() string {
	return "system"
}

func (*System) Available() bool {
	return true
}

func (s *System) Collect(ctx context.Context) ([]metric.Sample, error) {
	errFactory := errors.New()

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrHostRead, err)
	}

	samples := []metric.Sample{
		{SensorID: "uptime", Value: uptime},
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		samples = append(samples, metric.Sample{SensorID: "process_count", Value: info.Procs})
	}

	if s.hasLoad {
		if avg, err := load.AvgWithContext(ctx); err == nil {
			samples = append(samples,
				metric.Sample{SensorID: "load_1m", Value: round(avg.Load1, 2)},
				metric.Sample{SensorID: "load_5m", Value: round(avg.Load5, 2)},
				metric.Sample{SensorID: "load_15m", Value: round(avg.Load15, 2)},
			)
		}
	}

	samples = append(samples, metric.Sample{
		SensorID:   "system_info",
		Value:      s.osVersion,
		Attributes: s.staticInfo,
	})

	return samples, nil
}

func (s *System) Descriptors() []metric.Descriptor {
	descriptors := []metric.Descriptor{
		{
			SensorID:    "uptime",
			Name:        "System Uptime",
			DeviceClass: "duration",
			StateClass:  "total_increasing",
			Unit:        "s",
			Icon:        "mdi:clock-outline",
		},
		{
			SensorID:       "process_count",
			Name:           "Process Count",
			StateClass:     "measurement",
			Icon:           "mdi:format-list-numbered",
			EntityCategory: "diagnostic",
		},
	}

	if s.hasLoad {
		descriptors = append(descriptors,
			metric.Descriptor{
				SensorID:   "load_1m",
				Name:       "Load Average 1m",
				StateClass: "measurement",
				Icon:       "mdi:gauge",
				Precision:  metric.P(2),
			},
			metric.Descriptor{
				SensorID:       "load_5m",
				Name:           "Load Average 5m",
				StateClass:     "measurement",
				Icon:           "mdi:gauge",
				EntityCategory: "diagnostic",
				Precision:      metric.P(2),
			},
			metric.Descriptor{
				SensorID:       "load_15m",
				Name:           "Load Average 15m",
				StateClass:     "measurement",
				Icon:           "mdi:gauge",
				EntityCategory: "diagnostic",
				Precision:      metric.P(2),
			},
		)
	}

	descriptors = append(descriptors, metric.Descriptor{
		SensorID:       "system_info",
		Name:           "System Info",
		Icon:           "mdi:information",
		EntityCategory: "diagnostic",
		WithAttributes: true,
	})

	return descriptors
}
