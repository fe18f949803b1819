// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/postura/internal/posture"
)

// Config holds the daemon settings. Fields left out of the YAML file keep
// their defaults; sensitivity and alarm delay may later be overridden by
// values persisted in the settings store.
type Config struct {
	CameraID          int     `yaml:"cameraID"`
	ListenAddr        string  `yaml:"listenAddr"`
	StaticDir         string  `yaml:"staticDir"`
	Sensitivity       int     `yaml:"sensitivity"`
	AlarmDelaySeconds int     `yaml:"alarmDelaySeconds"`
	WakeThreshold     float64 `yaml:"wakeThreshold"`

	Tone   ToneConfig   `yaml:"tone"`
	Notify NotifyConfig `yaml:"notify"`
}

// ToneConfig configures the alarm tone loop.
type ToneConfig struct {
	// Command is the argv used to play one tone pulse. Empty means the
	// platform default player.
	Command    []string `yaml:"command"`
	IntervalMs int      `yaml:"intervalMs"`
}

// NotifyConfig configures the external notification hook.
type NotifyConfig struct {
	// Command is the argv of a program that receives alarm events as JSON
	// on stdin. Empty disables notifications.
	Command   []string `yaml:"command"`
	TimeoutMs int      `yaml:"timeoutMs"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		CameraID:          0,
		ListenAddr:        "127.0.0.1:8484",
		StaticDir:         "",
		Sensitivity:       posture.DefaultSensitivity,
		AlarmDelaySeconds: int(posture.DefaultAlarmDelay.Seconds()),
		WakeThreshold:     1.0,
		Tone: ToneConfig{
			IntervalMs: 700,
		},
		Notify: NotifyConfig{
			TimeoutMs: 5000,
		},
	}
}

// Load reads the configuration from path. A missing file is not an error:
// the defaults are returned so the daemon runs out of the box.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the loaded values against the classifier's accepted
// ranges.
func (c Config) Validate() error {
	if c.Sensitivity < posture.MinSensitivity || c.Sensitivity > posture.MaxSensitivity {
		return fmt.Errorf("sensitivity %d out of range [%d, %d]",
			c.Sensitivity, posture.MinSensitivity, posture.MaxSensitivity)
	}
	if c.AlarmDelaySeconds <= 0 {
		return fmt.Errorf("alarmDelaySeconds must be positive, got %d", c.AlarmDelaySeconds)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr must not be empty")
	}
	if c.Tone.IntervalMs <= 0 {
		return fmt.Errorf("tone.intervalMs must be positive, got %d", c.Tone.IntervalMs)
	}
	if c.Notify.TimeoutMs <= 0 {
		return fmt.Errorf("notify.timeoutMs must be positive, got %d", c.Notify.TimeoutMs)
	}
	return nil
}
