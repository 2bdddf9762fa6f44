package config

import (
	"os"
	"strings"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval    = 60
	defaultCooldown    = 300
	defaultWebPort     = 8099
	defaultMQTTPort    = 1883
	defaultTopicPrefix = "sysmond"
)

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// WebConfig holds dashboard server settings.
type WebConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// JournalConfig holds the optional alert journal settings.
type JournalConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Database string `mapstructure:"database"`
}

// SupervisorConfig holds Home Assistant Supervisor API access settings.
type SupervisorConfig struct {
	Token string `mapstructure:"token"`
}

type Config struct {
	Interval        int      `mapstructure:"interval"`
	CPUThreshold    float64  `mapstructure:"cpu_threshold"`
	MemoryThreshold float64  `mapstructure:"memory_threshold"`
	DiskThreshold   float64  `mapstructure:"disk_threshold"`
	TempThreshold   float64  `mapstructure:"temp_threshold"`
	EnableAlerts    bool     `mapstructure:"enable_alerts"`
	AlertCooldown   int      `mapstructure:"alert_cooldown"`
	MonitoredDisks  []string `mapstructure:"monitored_disks"`
	EnableSecurity  bool     `mapstructure:"enable_security_monitoring"`
	EnableRPi       bool     `mapstructure:"enable_rpi_monitoring"`
	Hostname        string   `mapstructure:"hostname"`
	LogLevel        string   `mapstructure:"log_level"`
	Monitor         bool     `mapstructure:"monitor"`
	Debug           bool     `mapstructure:"debug"`
	Verbose         bool     `mapstructure:"verbose"`

	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Web        WebConfig        `mapstructure:"web"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
}

// Load reads configuration from file, environment and flags.
// Precedence: flags > environment > config file > defaults.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("sysmond", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	configPath := flags.String("config", "", "Path to config file")
	flags.Int("interval", defaultInterval, "Seconds between updates")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("monitor", false, "Log metrics without publishing")
	flags.String("log-level", "", "Log level (debug, info, warning, error)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("sysmond")
	v.SetConfigType("toml")
	if path := firstNonEmpty(*configPath, os.Getenv("SYSMOND_CONFIG")); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SYSMOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	}

	bindFlag(v, flags, "interval", "interval")
	bindFlag(v, flags, "debug", "debug")
	bindFlag(v, flags, "verbose", "verbose")
	bindFlag(v, flags, "monitor", "monitor")
	bindFlag(v, flags, "log-level", "log_level")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	applyEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("cpu_threshold", 90.0)
	v.SetDefault("memory_threshold", 85.0)
	v.SetDefault("disk_threshold", 85.0)
	v.SetDefault("temp_threshold", 80.0)
	v.SetDefault("enable_alerts", true)
	v.SetDefault("alert_cooldown", defaultCooldown)
	v.SetDefault("monitored_disks", []string{})
	v.SetDefault("enable_security_monitoring", true)
	v.SetDefault("enable_rpi_monitoring", true)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("mqtt.host", "core-mosquitto")
	v.SetDefault("mqtt.port", defaultMQTTPort)
	v.SetDefault("mqtt.topic_prefix", defaultTopicPrefix)
	v.SetDefault("web.enabled", true)
	v.SetDefault("web.port", defaultWebPort)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.database", "/var/lib/sysmond/alerts.db")
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, flagName, key string) {
	if f := flags.Lookup(flagName); f != nil && f.Changed {
		v.Set(key, f.Value.String())
	}
}

func applyEnvironment(config *Config) {
	if config.Hostname == "" {
		if h := os.Getenv("SYSTEM_HOSTNAME"); h != "" {
			config.Hostname = h
		} else if h, err := os.Hostname(); err == nil {
			config.Hostname = h
		} else {
			config.Hostname = "unknown"
		}
	}

	if config.Supervisor.Token == "" {
		config.Supervisor.Token = os.Getenv("SUPERVISOR_TOKEN")
	}
}

// Validate checks the loaded configuration for invalid values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.AlertCooldown < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "alert_cooldown must be >= 0").WithData(c.AlertCooldown)
	}
	if c.Web.Enabled && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "invalid web port").WithData(c.Web.Port)
	}
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "invalid mqtt port").WithData(c.MQTT.Port)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// UniqueIDPrefix returns the prefix used for sensor unique IDs,
// derived from the sanitized hostname.
func (c *Config) UniqueIDPrefix() string {
	host := strings.ToLower(c.Hostname)
	host = strings.ReplaceAll(host, "-", "_")
	host = strings.ReplaceAll(host, ".", "_")
	return "sysmond_" + host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
