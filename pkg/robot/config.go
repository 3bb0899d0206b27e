package robot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dturobocup/raubot/pkg/plans"
)

// EnvPrefix prefixes environment overrides, e.g. RAUBOT_BASE_PORT.
const EnvPrefix = "RAUBOT"

// Config holds the robot configuration
type Config struct {
	Base    BaseConfig    `json:"base" mapstructure:"base"`
	Loop    LoopConfig    `json:"loop" mapstructure:"loop"`
	Plans   plans.Config  `json:"plans" mapstructure:"plans"`
	Journal JournalConfig `json:"journal" mapstructure:"journal"`
}

// BaseConfig holds configuration for the drive base
type BaseConfig struct {
	Port        string      `json:"port" mapstructure:"port"`
	BaudRate    int         `json:"baud_rate" mapstructure:"baud_rate"`
	TrackWidth  float64     `json:"track_width" mapstructure:"track_width"`
	LineSensor  bool        `json:"line_sensor" mapstructure:"line_sensor"`
	Calibration Calibration `json:"calibration,omitempty" mapstructure:"calibration"`
}

// LoopConfig holds the control loop settings
type LoopConfig struct {
	Hz          int     `json:"hz" mapstructure:"hz"`
	LogInterval float64 `json:"log_interval" mapstructure:"log_interval"` // seconds
	StallTicks  int     `json:"stall_ticks" mapstructure:"stall_ticks"`   // 0 disables stall reports
}

// JournalConfig holds the run journal settings
type JournalConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// Period returns the control loop period.
func (l LoopConfig) Period() time.Duration {
	if l.Hz <= 0 {
		return time.Second / 20
	}
	return time.Second / time.Duration(l.Hz)
}

// IsConfigured returns true if the base has a port and a valid calibration
func (b *BaseConfig) IsConfigured() bool {
	return b.Port != "" && b.Calibration.Validate() == nil
}

// DefaultConfig returns the configuration of the competition robot.
func DefaultConfig() *Config {
	return &Config{
		Base: BaseConfig{
			BaudRate:    1_000_000,
			TrackWidth:  0.22,
			Calibration: DefaultCalibration(),
		},
		Loop: LoopConfig{
			Hz:          20,
			LogInterval: 0.5,
		},
		Plans: plans.DefaultConfig(),
		Journal: JournalConfig{
			Path: "raubot.db",
		},
	}
}

// LoadConfigFrom loads configuration from a specific file. Environment
// variables with the RAUBOT_ prefix override file values.
func LoadConfigFrom(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// LoadConfigOrDefault loads path if it exists and falls back to the defaults
// (plus environment overrides) otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadConfigFrom(path)
	}
	return unmarshal(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("base.port", def.Base.Port)
	v.SetDefault("base.baud_rate", def.Base.BaudRate)
	v.SetDefault("base.track_width", def.Base.TrackWidth)
	v.SetDefault("base.line_sensor", def.Base.LineSensor)
	v.SetDefault("loop.hz", def.Loop.Hz)
	v.SetDefault("loop.log_interval", def.Loop.LogInterval)
	v.SetDefault("loop.stall_ticks", def.Loop.StallTicks)
	v.SetDefault("plans.speed", def.Plans.Speed)
	v.SetDefault("plans.heading_tolerance", def.Plans.HeadingTolerance)
	v.SetDefault("plans.turn_rate", def.Plans.TurnRate)
	v.SetDefault("journal.enabled", def.Journal.Enabled)
	v.SetDefault("journal.path", def.Journal.Path)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Base.Calibration) == 0 {
		cfg.Base.Calibration = DefaultCalibration()
	}
	return &cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
