package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/havenmon/sysmond/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "sysmond.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
interval = 30
cpu_threshold = 95.0
memory_threshold = 80.0
disk_threshold = 90.0
temp_threshold = 75.0
enable_alerts = true
alert_cooldown = 120
monitored_disks = ["/", "/mnt/data"]
enable_security_monitoring = false
enable_rpi_monitoring = false
hostname = "test-host"
log_level = "debug"

[mqtt]
host = "broker.local"
port = 1884
username = "monitor"
password = "secret"
topic_prefix = "custom"

[web]
enabled = true
port = 8123

[journal]
enabled = true
database = "/tmp/alerts.db"
`)
	t.Setenv("SYSMOND_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Interval, "Expected Interval 30")
	assert.InDelta(t, 95.0, cfg.CPUThreshold, 0.001)
	assert.InDelta(t, 80.0, cfg.MemoryThreshold, 0.001)
	assert.InDelta(t, 90.0, cfg.DiskThreshold, 0.001)
	assert.InDelta(t, 75.0, cfg.TempThreshold, 0.001)
	assert.True(t, cfg.EnableAlerts, "Expected EnableAlerts true")
	assert.Equal(t, 120, cfg.AlertCooldown, "Expected AlertCooldown 120")
	assert.Equal(t, []string{"/", "/mnt/data"}, cfg.MonitoredDisks)
	assert.False(t, cfg.EnableSecurity, "Expected EnableSecurity false")
	assert.False(t, cfg.EnableRPi, "Expected EnableRPi false")
	assert.Equal(t, "test-host", cfg.Hostname, "Expected Hostname test-host")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")

	assert.Equal(t, "broker.local", cfg.MQTT.Host)
	assert.Equal(t, 1884, cfg.MQTT.Port)
	assert.Equal(t, "monitor", cfg.MQTT.Username)
	assert.Equal(t, "secret", cfg.MQTT.Password)
	assert.Equal(t, "custom", cfg.MQTT.TopicPrefix)

	assert.True(t, cfg.Web.Enabled)
	assert.Equal(t, 8123, cfg.Web.Port)

	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/alerts.db", cfg.Journal.Database)
}

func TestLoadDefaults(t *testing.T) {
	// Point at an empty config file so nothing on the search path leaks
	// into the assertions.
	configPath := writeConfig(t, "")
	t.Setenv("SYSMOND_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 60, cfg.Interval, "Expected default Interval 60")
	assert.InDelta(t, 90.0, cfg.CPUThreshold, 0.001)
	assert.InDelta(t, 85.0, cfg.MemoryThreshold, 0.001)
	assert.InDelta(t, 85.0, cfg.DiskThreshold, 0.001)
	assert.InDelta(t, 80.0, cfg.TempThreshold, 0.001)
	assert.True(t, cfg.EnableAlerts, "Expected default EnableAlerts true")
	assert.Equal(t, 300, cfg.AlertCooldown, "Expected default AlertCooldown 300")
	assert.Empty(t, cfg.MonitoredDisks)
	assert.True(t, cfg.EnableSecurity, "Expected default EnableSecurity true")
	assert.True(t, cfg.EnableRPi, "Expected default EnableRPi true")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.Equal(t, "core-mosquitto", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "sysmond", cfg.MQTT.TopicPrefix)
	assert.True(t, cfg.Web.Enabled)
	assert.Equal(t, 8099, cfg.Web.Port)
	assert.False(t, cfg.Journal.Enabled)
	assert.NotEmpty(t, cfg.Hostname, "Hostname should fall back to the OS hostname")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("SYSMOND_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("SYSMOND_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level")
}

func TestInvalidInterval(t *testing.T) {
	configPath := writeConfig(t, `
interval = 0
`)
	t.Setenv("SYSMOND_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid interval value")
}

func TestInvalidWebPort(t *testing.T) {
	configPath := writeConfig(t, `
[web]
enabled = true
port = 99999
`)
	t.Setenv("SYSMOND_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid web port")
}

func TestHostnameFromEnvironment(t *testing.T) {
	configPath := writeConfig(t, "")
	t.Setenv("SYSMOND_CONFIG", configPath)
	t.Setenv("SYSTEM_HOSTNAME", "env-host")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Hostname)
}

func TestSupervisorTokenFromEnvironment(t *testing.T) {
	configPath := writeConfig(t, "")
	t.Setenv("SYSMOND_CONFIG", configPath)
	t.Setenv("SUPERVISOR_TOKEN", "abc123")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Supervisor.Token)
}

func TestLogLevelFlag(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	configPath := writeConfig(t, "")
	t.Setenv("SYSMOND_CONFIG", configPath)
	os.Args = []string{"cmd", "--log-level", "debug"}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestUniqueIDPrefix(t *testing.T) {
	cfg := &config.Config{Hostname: "Living-Room.local"}
	assert.Equal(t, "sysmond_living_room_local", cfg.UniqueIDPrefix())
}
