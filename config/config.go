// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`
	Sim    SimConfig    `yaml:"sim"`
	Web    WebConfig    `yaml:"web"`
	GPX    GPXConfig    `yaml:"gpx"`
	Replay ReplayConfig `yaml:"replay"`
}

type DeviceConfig struct {
	Link     string `yaml:"link"`      // stable symlink to the pty slave, e.g. /dev/ttyGPS0
	Serial   string `yaml:"serial"`    // optional real serial port to mirror frames to
	BaudRate int    `yaml:"baud_rate"` // baud rate for the mirror port
}

type SimConfig struct {
	StartLat   int           `yaml:"start_lat"` // micro-degrees
	StartLon   int           `yaml:"start_lon"` // micro-degrees
	ErrorRate  int           `yaml:"error_rate"`
	SignalLoss bool          `yaml:"signal_loss"`
	Rate       time.Duration `yaml:"rate"`
}

type WebConfig struct {
	Listen string `yaml:"listen"` // settings/status HTTP address; empty disables
}

type GPXConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Enable   bool          `yaml:"enable"`
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
	Loop     bool          `yaml:"loop"`
}

// Default returns the load-time defaults.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Link:     "./ttyGPS0",
			BaudRate: 9600,
		},
		Sim: SimConfig{
			StartLat: -35315075,
			StartLon: 149129404,
			Rate:     time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults. Missing keys
// keep their default values.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Sim.Rate <= 0 {
		cfg.Sim.Rate = time.Second
	}
	if cfg.Device.Serial != "" && cfg.Device.BaudRate <= 0 {
		return Config{}, fmt.Errorf("device.baud_rate must be positive when device.serial is set")
	}
	if cfg.GPX.Enable && cfg.GPX.Path == "" {
		return Config{}, fmt.Errorf("gpx.path is required when gpx.enable is true")
	}
	if cfg.Replay.Enable {
		if cfg.Replay.Path == "" {
			return Config{}, fmt.Errorf("replay.path is required when replay.enable is true")
		}
		if cfg.Replay.Interval <= 0 {
			cfg.Replay.Interval = time.Second
		}
	}

	return cfg, nil
}
