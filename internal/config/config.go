// Package config loads and validates nvr-server.yaml.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edirooss/nvr-server/internal/domain/camera"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config is looked up when --config is not given.
const DefaultPath = "nvr-server.yaml"

var ErrNotFound = errors.New("config file not found")

//go:embed nvr-server.example.yaml
var exampleConfig []byte

// System holds the process-wide settings.
type System struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"` // bcrypt hash
	APIKey    string `yaml:"api_key"`  // bcrypt hash
	CookieKey string `yaml:"cookie_key"`

	Address       string `yaml:"address"` // listen host; empty means all interfaces
	InterfacePort int    `yaml:"interface_port"`
	WebRoot       string `yaml:"web_root"` // served under /static when set

	StorageVolume            string `yaml:"storage_volume"`
	FFmpegLocation           string `yaml:"ffmpeg_location"`
	ContinuousSegTimeMinutes int    `yaml:"continuous_seg_time_minutes"`
	SnapshotConcurrency      int    `yaml:"snapshot_concurrency"`

	RedisAddress string `yaml:"redis_address"` // optional segment announcements
	LogLevel     string `yaml:"log_level"`
}

type Config struct {
	System  System      `yaml:"system"`
	Cameras camera.List `yaml:"cameras"`
}

// Load reads path, applies NVR_* environment overrides, fills defaults and
// validates the result. A missing file yields ErrNotFound.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a config document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("NVR_INTERFACE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NVR_INTERFACE_PORT: %w", err)
		}
		c.System.InterfacePort = port
	}
	if v, ok := os.LookupEnv("NVR_ADDRESS"); ok {
		c.System.Address = v
	}
	if v, ok := os.LookupEnv("NVR_LOG_LEVEL"); ok {
		c.System.LogLevel = v
	}
	if v, ok := os.LookupEnv("NVR_REDIS_ADDRESS"); ok {
		c.System.RedisAddress = v
	}
	if v, ok := os.LookupEnv("NVR_STORAGE_VOLUME"); ok {
		c.System.StorageVolume = v
	}
	if v, ok := os.LookupEnv("NVR_FFMPEG_LOCATION"); ok {
		c.System.FFmpegLocation = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	s := &c.System
	if s.InterfacePort == 0 {
		s.InterfacePort = 7878
	}
	if s.FFmpegLocation == "" {
		s.FFmpegLocation = "/usr/bin/ffmpeg"
	}
	if s.ContinuousSegTimeMinutes == 0 {
		s.ContinuousSegTimeMinutes = 15
	}
	if s.SnapshotConcurrency == 0 {
		s.SnapshotConcurrency = 4
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if c.Cameras == nil {
		c.Cameras = camera.List{}
	}
}

// Validate checks the system section and every camera.
func (c *Config) Validate() error {
	s := &c.System

	if s.Username == "" {
		return errors.New("system.username is required")
	}
	if _, err := bcrypt.Cost([]byte(s.Password)); err != nil {
		return fmt.Errorf("system.password must be a bcrypt hash: %w", err)
	}
	if _, err := bcrypt.Cost([]byte(s.APIKey)); err != nil {
		return fmt.Errorf("system.api_key must be a bcrypt hash: %w", err)
	}
	if len(s.CookieKey) < 16 {
		return errors.New("system.cookie_key must be at least 16 characters")
	}
	if s.InterfacePort < 1 || s.InterfacePort > 65535 {
		return fmt.Errorf("system.interface_port %d out of range", s.InterfacePort)
	}
	if s.StorageVolume == "" {
		return errors.New("system.storage_volume is required")
	}
	if !filepath.IsAbs(s.StorageVolume) {
		return fmt.Errorf("system.storage_volume %q must be an absolute path", s.StorageVolume)
	}
	if s.ContinuousSegTimeMinutes < 1 {
		return errors.New("system.continuous_seg_time_minutes must be at least 1")
	}
	if s.SnapshotConcurrency < 1 {
		return errors.New("system.snapshot_concurrency must be at least 1")
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("system.log_level %q is not one of debug, info, warn, error", s.LogLevel)
	}

	if err := c.Cameras.Validate(); err != nil {
		return fmt.Errorf("cameras: %w", err)
	}
	return nil
}

// WriteExample writes the example config to path, refusing to overwrite.
func WriteExample(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create example config: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(exampleConfig); err != nil {
		return fmt.Errorf("write example config: %w", err)
	}
	return nil
}

// CheckExecutable reports whether path is a regular file with an exec bit.
func CheckExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("encoder not found at %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("encoder at %s is not a regular file", path)
	}
	if fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("encoder at %s is not executable", path)
	}
	return nil
}
