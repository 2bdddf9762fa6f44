package collector

import (
	"context"
	"strings"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
	gnet "github.com/shirou/gopsutil/v4/net"
)

var excludedInterfaces = map[string]struct{}{
	"lo": {}, "localhost": {},
}

type ifaceInfo struct {
	IPv4 string `json:"ipv4,omitempty"`
	IPv6 string `json:"ipv6,omitempty"`
	MAC  string `json:"mac,omitempty"`
}

// Network collects host-wide traffic counters and interface addresses.
type Network struct {
	interfaces map[string]ifaceInfo
}

func NewNetwork() *Network {
	return &Network{
		interfaces: enumerateInterfaces(),
	}
}

func enumerateInterfaces() map[string]ifaceInfo {
	interfaces := make(map[string]ifaceInfo)

	list, err := gnet.Interfaces()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list network interfaces")
		return interfaces
	}

	for _, iface := range list {
		if _, excluded := excludedInterfaces[strings.ToLower(iface.Name)]; excluded {
			continue
		}
		if !hasFlag(iface.Flags, "up") {
			continue
		}

		info := ifaceInfo{MAC: iface.HardwareAddr}
		for _, addr := range iface.Addrs {
			ip := strings.Split(addr.Addr, "/")[0]
			if strings.Contains(ip, ":") {
				// Skip link-local IPv6
				if !strings.HasPrefix(ip, "fe80") {
					info.IPv6 = ip
				}
			} else {
				info.IPv4 = ip
			}
		}

		if info.IPv4 != "" || info.IPv6 != "" {
			interfaces[iface.Name] = info
			logger.Debug().Str("interface", iface.Name).Str("ipv4", info.IPv4).Msg("Found interface")
		}
	}

	logger.Info().Int("count", len(interfaces)).Msg("Monitoring network interfaces")

	return interfaces
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func (*Network) Name() string {
	return "network"
}

func (*Network) Available() bool {
	return true
}

func (n *Network) Collect(ctx context.Context) ([]metric.Sample, error) {
	errFactory := errors.New()

	counters, err := gnet.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return nil, errFactory.Wrap(ErrNetworkRead, err)
	}
	io := counters[0]

	attributes := make(map[string]any, 1)
	ifaces := make(map[string]any, len(n.interfaces))
	for name, info := range n.interfaces {
		ifaces[name] = info
	}
	attributes["interfaces"] = ifaces

	return []metric.Sample{
		{SensorID: "network_bytes_sent", Value: toGBPrecise(io.BytesSent)},
		{SensorID: "network_bytes_recv", Value: toGBPrecise(io.BytesRecv)},
		{SensorID: "network_packets_sent", Value: io.PacketsSent},
		{SensorID: "network_packets_recv", Value: io.PacketsRecv},
		{SensorID: "network_errors", Value: io.Errin + io.Errout},
		{SensorID: "network_drops", Value: io.Dropin + io.Dropout},
		{SensorID: "network_ip_address", Value: n.primaryIP(), Attributes: attributes},
	}, nil
}

func toGBPrecise(bytes uint64) float64 {
	return toGB(bytes, 3)
}

func (n *Network) primaryIP() string {
	for _, info := range n.interfaces {
		if info.IPv4 != "" && !strings.HasPrefix(info.IPv4, "127.") {
			return info.IPv4
		}
	}
	return "unknown"
}

func (*Network) Descriptors() []metric.Descriptor {
	return []metric.Descriptor{
		{
			SensorID:    "network_bytes_sent",
			Name:        "Network Bytes Sent",
			DeviceClass: "data_size",
			StateClass:  "total_increasing",
			Unit:        "GB",
			Icon:        "mdi:upload-network",
			Precision:   metric.P(3),
		},
		{
			SensorID:    "network_bytes_recv",
			Name:        "Network Bytes Received",
			DeviceClass: "data_size",
			StateClass:  "total_increasing",
			Unit:        "GB",
			Icon:        "mdi:download-network",
			Precision:   metric.P(3),
		},
		{
			SensorID:       "network_packets_sent",
			Name:           "Network Packets Sent",
			StateClass:     "total_increasing",
			Icon:           "mdi:upload-network",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "network_packets_recv",
			Name:           "Network Packets Received",
			StateClass:     "total_increasing",
			Icon:           "mdi:download-network",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "network_errors",
			Name:           "Network Errors",
			StateClass:     "total_increasing",
			Icon:           "mdi:alert-circle",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "network_drops",
			Name:           "Network Drops",
			StateClass:     "total_increasing",
			Icon:           "mdi:alert-circle",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "network_ip_address",
			Name:           "IP Address",
			Icon:           "mdi:ip-network",
			WithAttributes: true,
		},
	}
}
