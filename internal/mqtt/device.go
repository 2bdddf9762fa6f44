package mqtt

import (
	"os"
	"runtime"
	"strings"
)

const swVersion = "0.3.0"

// Device is the Home Assistant device registry block shared by every
// discovery payload so all sensors group under one device entry.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
	SWVersion    string   `json:"sw_version"`
	HWVersion    string   `json:"hw_version,omitempty"`
}

func newDevice(hostname, uniquePrefix string) Device {
	return Device{
		Identifiers:  []string{uniquePrefix},
		Name:         "System Monitor (" + hostname + ")",
		Model:        hardwareModel(),
		Manufacturer: "sysmond",
		SWVersion:    swVersion,
		HWVersion:    osPrettyName(),
	}
}

// hardwareModel prefers the device-tree model string, which names the
// exact board on SBCs like the Raspberry Pi. Elsewhere it falls back to
// the platform tuple.
func hardwareModel() string {
	if raw, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		model := strings.TrimRight(string(raw), "\x00\n ")
		if model != "" {
			return model
		}
	}
	return runtime.GOOS + "/" + runtime.GOARCH
}

func osPrettyName() string {
	raw, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "PRETTY_NAME=") {
			continue
		}
		return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), `"`)
	}
	return ""
}
