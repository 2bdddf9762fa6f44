package collector

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
)

const vcgencmdTimeout = 5 * time.Second

// Bit positions in the vcgencmd get_throttled value.
var throttledFlags = map[string]uint{
	"under_voltage":            0,
	"arm_frequency_capped":     1,
	"throttled":                2,
	"soft_temp_limit":          3,
	"under_voltage_occurred":   16,
	"arm_freq_capped_occurred": 17,
	"throttled_occurred":       18,
	"soft_temp_limit_occurred": 19,
}

// RPi collects Raspberry Pi firmware metrics via vcgencmd.
type RPi struct {
	available bool
}

func NewRPi() *RPi {
	r := &RPi{}

	ctx, cancel := context.WithTimeout(context.Background(), vcgencmdTimeout)
	defer cancel()
	if _, err := runVcgencmd(ctx, "version"); err == nil {
		r.available = true
		logger.Info().Msg("Raspberry Pi detected, enabling RPi sensors")
	}

	return r
}

func runVcgencmd(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "vcgencmd", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (*RPi) Name() string {
	return "rpi"
}

func (r *RPi) Available() bool {
	return r.available
}

func (r *RPi) Collect(ctx context.Context) ([]metric.Sample, error) {
	var samples []metric.Sample

	samples = append(samples, r.collectThrottled(ctx)...)

	if voltage, ok := r.readFloat(ctx, "V", "measure_volts", "core"); ok {
		samples = append(samples, metric.Sample{
			SensorID: "rpi_core_voltage",
			Value:    round(voltage, 4),
		})
	}

	if temp, ok := r.readFloat(ctx, "'C", "measure_temp"); ok {
		samples = append(samples, metric.Sample{
			SensorID: "rpi_gpu_temperature",
			Value:    round(temp, 1),
		})
	}

	return samples, nil
}

func (r *RPi) collectThrottled(ctx context.Context) []metric.Sample {
	callCtx, cancel := context.WithTimeout(ctx, vcgencmdTimeout)
	defer cancel()

	out, err := runVcgencmd(callCtx, "get_throttled")
	if err != nil {
		logger.Debug().Err(err).Msg("vcgencmd get_throttled failed")
		return nil
	}

	// Format: throttled=0x50000
	parts := strings.SplitN(out, "=", 2)
	if len(parts) != 2 {
		logger.Warn().Str("output", out).Msg("Unexpected throttle status format")
		return nil
	}
	value, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to parse throttle status")
		return nil
	}

	flags := make(map[string]any, len(throttledFlags))
	isSet := func(name string) bool {
		return value&(1<<throttledFlags[name]) != 0
	}
	for name := range throttledFlags {
		flags[name] = isSet(name)
	}

	return []metric.Sample{
		{SensorID: "rpi_throttled", Value: onOff(isSet("throttled"))},
		{SensorID: "rpi_under_voltage", Value: onOff(isSet("under_voltage"))},
		{SensorID: "rpi_temp_limited", Value: onOff(isSet("soft_temp_limit"))},
		{SensorID: "rpi_freq_capped", Value: onOff(isSet("arm_frequency_capped"))},
		{
			SensorID:   "rpi_throttle_raw",
			Value:      "0x" + strconv.FormatUint(value, 16),
			Attributes: flags,
		},
	}
}

func (r *RPi) readFloat(ctx context.Context, unitSuffix string, args ...string) (float64, bool) {
	callCtx, cancel := context.WithTimeout(ctx, vcgencmdTimeout)
	defer cancel()

	out, err := runVcgencmd(callCtx, args...)
	if err != nil {
		logger.Debug().Err(err).Strs("args", args).Msg("vcgencmd failed")
		return 0, false
	}

	// Formats: volt=1.2000V, temp=42.0'C
	parts := strings.SplitN(out, "=", 2)
	if len(parts) != 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(parts[1], unitSuffix), 64)
	if err != nil {
		logger.Debug().Err(err).Str("output", out).Msg("Failed to parse vcgencmd value")
		return 0, false
	}

	return value, true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (*RPi) Descriptors() []metric.Descriptor {
	return []metric.Descriptor{
		{
			SensorID:       "rpi_throttled",
			Name:           "RPi Throttled",
			Binary:         true,
			DeviceClass:    "running",
			Icon:           "mdi:speedometer-slow",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "rpi_under_voltage",
			Name:           "RPi Under Voltage",
			Binary:         true,
			DeviceClass:    "problem",
			Icon:           "mdi:flash-alert",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "rpi_temp_limited",
			Name:           "RPi Temperature Limited",
			Binary:         true,
			DeviceClass:    "heat",
			Icon:           "mdi:thermometer-alert",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "rpi_freq_capped",
			Name:           "RPi Frequency Capped",
			Binary:         true,
			DeviceClass:    "running",
			Icon:           "mdi:speedometer-slow",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "rpi_core_voltage",
			Name:           "RPi Core Voltage",
			DeviceClass:    "voltage",
			StateClass:     "measurement",
			Unit:           "V",
			EntityCategory: "diagnostic",
			Precision:      metric.P(4),
		},
		{
			SensorID:    "rpi_gpu_temperature",
			Name:        "RPi GPU Temperature",
			DeviceClass: "temperature",
			StateClass:  "measurement",
			Unit:        "°C",
			Precision:   metric.P(1),
		},
		{
			SensorID:       "rpi_throttle_raw",
			Name:           "RPi Throttle Status",
			Icon:           "mdi:information",
			EntityCategory: "diagnostic",
			WithAttributes: true,
		},
	}
}
