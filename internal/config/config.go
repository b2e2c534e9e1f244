// Package config loads blackjackviz settings from an HCL file, with
// environment overrides for the values scripts most often change.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/muesli/termenv"
)

// Environment variable names
const (
	// EnvConfig points at the HCL file to load
	EnvConfig = "BLACKJACKVIZ_CONFIG"

	// EnvSeed overrides the random seed used to pick card symbols
	EnvSeed = "BLACKJACKVIZ_SEED"

	// EnvLogLevel overrides log_level
	EnvLogLevel = "BLACKJACKVIZ_LOG_LEVEL"
)

// DefaultFile is read when no path is given
const DefaultFile = "blackjackviz.hcl"

// Config represents the complete configuration
type Config struct {
	Seed     *int64
	LogLevel string
	Display  DisplaySettings
	Replay   ReplaySettings
	Server   ServerSettings
}

// DisplaySettings controls terminal rendering
type DisplaySettings struct {
	ColorProfile string `hcl:"color_profile,optional"`
	CardWidth    int    `hcl:"card_width,optional"`
}

// ReplaySettings controls the interactive replay viewer
type ReplaySettings struct {
	AutoplayInterval string `hcl:"autoplay_interval,optional"`
}

// ServerSettings controls the HTTP render service
type ServerSettings struct {
	Address string `hcl:"address,optional"`
	Port    int    `hcl:"port,optional"`

	// SessionTTL drops sessions idle this long; "0" keeps them forever
	SessionTTL string `hcl:"session_ttl,optional"`
}

// fileConfig is the HCL schema. Blocks are pointers so a file may omit them.
type fileConfig struct {
	Seed     *int64           `hcl:"seed,optional"`
	LogLevel string           `hcl:"log_level,optional"`
	Display  *DisplaySettings `hcl:"display,block"`
	Replay   *ReplaySettings  `hcl:"replay,block"`
	Server   *ServerSettings  `hcl:"server,block"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Display: DisplaySettings{
			ColorProfile: "auto",
			CardWidth:    7,
		},
		Replay: ReplaySettings{
			AutoplayInterval: "1s",
		},
		Server: ServerSettings{
			Address:    "localhost",
			Port:       8080,
			SessionTTL: "30m",
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Default()
	config.Seed = fc.Seed
	if fc.LogLevel != "" {
		config.LogLevel = fc.LogLevel
	}
	if fc.Display != nil {
		if fc.Display.ColorProfile != "" {
			config.Display.ColorProfile = fc.Display.ColorProfile
		}
		if fc.Display.CardWidth != 0 {
			config.Display.CardWidth = fc.Display.CardWidth
		}
	}
	if fc.Replay != nil && fc.Replay.AutoplayInterval != "" {
		config.Replay.AutoplayInterval = fc.Replay.AutoplayInterval
	}
	if fc.Server != nil {
		if fc.Server.Address != "" {
			config.Server.Address = fc.Server.Address
		}
		if fc.Server.Port != 0 {
			config.Server.Port = fc.Server.Port
		}
		if fc.Server.SessionTTL != "" {
			config.Server.SessionTTL = fc.Server.SessionTTL
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv applies environment overrides on top of the loaded file
func (c *Config) ApplyEnv() error {
	if seedStr := os.Getenv(EnvSeed); seedStr != "" {
		seed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvSeed, err)
		}
		c.Seed = &seed
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	return c.Validate()
}

// Validate checks values that the HCL schema cannot
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Profile(); err != nil {
		errs = append(errs, err)
	}
	if c.Display.CardWidth < 0 {
		errs = append(errs, fmt.Errorf("display.card_width must not be negative, got %d", c.Display.CardWidth))
	}
	if _, err := c.Autoplay(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SessionTTL(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

// Level parses log_level
func (c *Config) Level() (log.Level, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Profile maps color_profile to a termenv profile. "auto" detects the
// profile of stdout.
func (c *Config) Profile() (termenv.Profile, error) {
	switch strings.ToLower(c.Display.ColorProfile) {
	case "", "auto":
		return termenv.EnvColorProfile(), nil
	case "ascii", "none":
		return termenv.Ascii, nil
	case "ansi":
		return termenv.ANSI, nil
	case "ansi256":
		return termenv.ANSI256, nil
	case "truecolor":
		return termenv.TrueColor, nil
	default:
		return termenv.Ascii, fmt.Errorf("display.color_profile: unknown profile %q", c.Display.ColorProfile)
	}
}

// Autoplay parses replay.autoplay_interval
func (c *Config) Autoplay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Replay.AutoplayInterval)
	if err != nil {
		return 0, fmt.Errorf("replay.autoplay_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("replay.autoplay_interval must be positive, got %s", d)
	}
	return d, nil
}

// SessionTTL parses server.session_ttl. Zero disables idle eviction.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("server.session_ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("server.session_ttl must not be negative, got %s", d)
	}
	return d, nil
}

// ListenAddr returns the host:port the HTTP service binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
