package collector

import (
	"context"
	"sort"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Listening-port attribute lists are capped so the MQTT payload stays
// reasonable on busy hosts.
const maxPortAttributes = 50

const sockStream = 1 // syscall.SOCK_STREAM

// Security collects listening ports and connection-state statistics.
type Security struct{}

func NewSecurity() *Security {
	return &Security{}
}

func (*Security) Name() string {
	return "security"
}

func (*Security) Available() bool {
	return true
}

type listeningPort struct {
	Port     uint32 `json:"port"`
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Service  string `json:"service"`
	PID      int32  `json:"pid"`
}

func (*Security) Collect(ctx context.Context) ([]metric.Sample, error) {
	errFactory := errors.New()

	connections, err := gnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, errFactory.Wrap(ErrConnRead, err)
	}

	var listening []listeningPort
	states := make(map[string]int)

	for _, conn := range connections {
		if conn.Status != "" {
			states[conn.Status]++
		}
		if conn.Status != "LISTEN" {
			continue
		}

		protocol := "udp"
		if conn.Type == sockStream {
			protocol = "tcp"
		}

		service := "unknown"
		if conn.Pid > 0 {
			if proc, err := process.NewProcessWithContext(ctx, conn.Pid); err == nil {
				if name, err := proc.NameWithContext(ctx); err == nil {
					service = name
				}
			}
		}

		listening = append(listening, listeningPort{
			Port:     conn.Laddr.Port,
			Protocol: protocol,
			Address:  conn.Laddr.IP,
			Service:  service,
			PID:      conn.Pid,
		})
	}

	sort.Slice(listening, func(i, j int) bool { return listening[i].Port < listening[j].Port })

	ports := listening
	if len(ports) > maxPortAttributes {
		ports = ports[:maxPortAttributes]
	}

	stateAttributes := make(map[string]any, len(states))
	total := 0
	for state, count := range states {
		stateAttributes[state] = count
		total += count
	}

	logger.Debug().Int("listening", len(listening)).Int("total", total).Msg("Collected connection stats")

	return []metric.Sample{
		{
			SensorID:   "open_ports",
			Value:      len(listening),
			Attributes: map[string]any{"ports": ports},
		},
		{
			SensorID:   "active_connections",
			Value:      states["ESTABLISHED"],
			Attributes: stateAttributes,
		},
		{SensorID: "total_connections", Value: total},
		{SensorID: "listening_sockets", Value: states["LISTEN"]},
	}, nil
}

func (*Security) Descriptors() []metric.Descriptor {
	return []metric.Descriptor{
		{
			SensorID:       "open_ports",
			Name:           "Open Ports",
			StateClass:     "measurement",
			Icon:           "mdi:lan-connect",
			WithAttributes: true,
		},
		{
			SensorID:       "active_connections",
			Name:           "Active Connections",
			StateClass:     "measurement",
			Icon:           "mdi:lan-pending",
			WithAttributes: true,
		},
		{
			SensorID:       "total_connections",
			Name:           "Total Connections",
			StateClass:     "measurement",
			Icon:           "mdi:lan",
			EntityCategory: "diagnostic",
		},
		{
			SensorID:       "listening_sockets",
			Name:           "Listening Sockets",
			StateClass:     "measurement",
			Icon:           "mdi:server-network",
			EntityCategory: "diagnostic",
		},
	}
}
