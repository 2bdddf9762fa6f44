package collector

import (
	"context"
	"regexp"
	"strings"

	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
	"github.com/shirou/gopsutil/v4/disk"
)

// Virtual and temporary filesystems are never monitored.
var excludedFstypes = map[string]struct{}{
	"squashfs": {}, "tmpfs": {}, "devtmpfs": {}, "overlay": {}, "aufs": {},
	"proc": {}, "sysfs": {}, "devpts": {}, "cgroup": {}, "cgroup2": {},
	"securityfs": {}, "debugfs": {}, "tracefs": {}, "configfs": {},
	"fusectl": {}, "mqueue": {}, "hugetlbfs": {}, "pstore": {},
	"binfmt_misc": {}, "rpc_pipefs": {}, "nfsd": {}, "autofs": {},
}

var nonSensorChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

type partition struct {
	device     string
	mountpoint string
	sensorID   string
}

// Disk collects usage, free and total space per monitored mountpoint.
type Disk struct {
	partitions []partition
}

// NewDisk resolves the monitored partitions once at startup. When
// monitored is non-empty only those mountpoints are kept; otherwise
// every accessible real filesystem is monitored.
func NewDisk(monitored []string) *Disk {
	wanted := make(map[string]struct{}, len(monitored))
	for _, m := range monitored {
		wanted[m] = struct{}{}
	}

	d := &Disk{}

	parts, err := disk.Partitions(false)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to list disk partitions")
		return d
	}

	for _, p := range parts {
		if _, excluded := excludedFstypes[p.Fstype]; excluded {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[p.Mountpoint]; !ok {
				continue
			}
		}

		usage, err := disk.Usage(p.Mountpoint)
		if err != nil || usage.Total == 0 {
			logger.Debug().Err(err).Str("mountpoint", p.Mountpoint).Msg("Skipping inaccessible partition")
			continue
		}

		d.partitions = append(d.partitions, partition{
			device:     p.Device,
			mountpoint: p.Mountpoint,
			sensorID:   "disk_" + SanitizeMountpoint(p.Mountpoint),
		})
		logger.Debug().Str("mountpoint", p.Mountpoint).Str("device", p.Device).Msg("Monitoring disk")
	}

	logger.Info().Int("count", len(d.partitions)).Msg("Monitoring disk partitions")

	return d
}

// SanitizeMountpoint converts a mount path into a stable sensor id
// fragment. "/" becomes "root".
func SanitizeMountpoint(mountpoint string) string {
	if mountpoint == "/" {
		return "root"
	}

	s := strings.TrimPrefix(mountpoint, "/")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = nonSensorChars.ReplaceAllString(s, "")
	if s == "" {
		return "disk"
	}

	return s
}

func (*Disk) Name() string {
	return "disk"
}

func (d *Disk) Available() bool {
	return len(d.partitions) > 0
}

func (d *Disk) Collect(ctx context.Context) ([]metric.Sample, error) {
	var samples []metric.Sample

	for _, p := range d.partitions {
		usage, err := disk.UsageWithContext(ctx, p.mountpoint)
		if err != nil {
			logger.Debug().Err(err).Str("mountpoint", p.mountpoint).Msg("Failed to read disk usage")
			continue
		}

		samples = append(samples,
			metric.Sample{SensorID: p.sensorID + "_usage", Value: round(usage.UsedPercent, 1)},
			metric.Sample{SensorID: p.sensorID + "_free", Value: toGB(usage.Free, 2)},
			metric.Sample{SensorID: p.sensorID + "_total", Value: toGB(usage.Total, 2)},
		)
	}

	return samples, nil
}

func (d *Disk) Descriptors() []metric.Descriptor {
	var descriptors []metric.Descriptor

	for _, p := range d.partitions {
		suffix := p.mountpoint
		if suffix == "/" {
			suffix = "Root"
		}

		descriptors = append(descriptors,
			metric.Descriptor{
				SensorID:   p.sensorID + "_usage",
				Name:       "Disk Usage " + suffix,
				StateClass: "measurement",
				Unit:       "%",
				Icon:       "mdi:harddisk",
				Precision:  metric.P(1),
			},
			metric.Descriptor{
				SensorID:       p.sensorID + "_free",
				Name:           "Disk Free " + suffix,
				DeviceClass:    "data_size",
				StateClass:     "measurement",
				Unit:           "GB",
				Icon:           "mdi:harddisk",
				EntityCategory: "diagnostic",
				Precision:      metric.P(2),
			},
			metric.Descriptor{
				SensorID:       p.sensorID + "_total",
				Name:           "Disk Total " + suffix,
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
