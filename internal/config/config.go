// Package config holds the pipeline defaults and the optional yaml config
// file. Precedence: command-line flags > environment > config file >
// defaults; the flag layer lives in main.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors the species_demarcation option surface.
type Config struct {
	InDir  string `yaml:"in_dir"`
	OutDir string `yaml:"out_dir"`

	FastANI FastANIConfig `yaml:"fastani"`
	MCL     MCLConfig     `yaml:"mcl"`

	ANIThreshold   float64 `yaml:"ani_threshold"`
	KeepSingletons bool    `yaml:"keep_singletons"`

	// ToolTimeout bounds each external tool run, e.g. "2h". Empty or "0"
	// means no limit.
	ToolTimeout string `yaml:"tool_timeout"`
	Debug       bool   `yaml:"debug"`
}

// FastANIConfig carries the pairwise similarity tool parameters.
type FastANIConfig struct {
	Cores       int     `yaml:"cores"`
	Kmer        int     `yaml:"kmer"`
	FragLen     int     `yaml:"fraglen"`
	MinFraction float64 `yaml:"minfraction"`
}

// MCLConfig carries the graph clustering parameters.
type MCLConfig struct {
	Cores     int     `yaml:"cores"`
	Inflation float64 `yaml:"inflation"`
}

// Default returns the stock parameter set: fastANI defaults plus the usual
// MCL inflation of 2.0 and the 95% ANI species boundary.
func Default() Config {
	return Config{
		FastANI: FastANIConfig{
			Cores:       runtime.NumCPU(),
			Kmer:        16,
			FragLen:     3000,
			MinFraction: 0.2,
		},
		MCL: MCLConfig{
			Cores:     runtime.NumCPU(),
			Inflation: 2.0,
		},
		ANIThreshold: 95.0,
	}
}

// Load returns the defaults overlaid with the yaml file at path. An empty
// path yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays PGCF_* environment variables (typically loaded from a
// .env file by main) onto the config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PGCF_IN_DIR"); v != "" {
		c.InDir = v
	}
	if v := os.Getenv("PGCF_OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv("PGCF_ANI_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ANIThreshold = f
		}
	}
	if v := os.Getenv("PGCF_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

// Timeout parses ToolTimeout into a duration; empty means zero.
func (c *Config) Timeout() (time.Duration, error) {
	if c.ToolTimeout == "" || c.ToolTimeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ToolTimeout)
	if err != nil {
		return 0, fmt.Errorf("bad tool_timeout %q: %w", c.ToolTimeout, err)
	}
	return d, nil
}
