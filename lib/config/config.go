// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/objstore/lib/objectid"
	"github.com/bureau-foundation/objstore/transport"
)

// SocketEnvVar names the default daemon socket. Clients fall back to
// it when Connect is called without an explicit address.
const SocketEnvVar = "OBJSTORE_IPC_SOCKET"

// ConfigEnvVar names the configuration file when --config is absent.
const ConfigEnvVar = "OBJSTORE_CONFIG"

// Config is the complete configuration for objstore binaries.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"OBJSTORE_LOG_LEVEL"`

	// Client configures processes that connect to the daemon.
	Client ClientConfig `yaml:"client"`

	// Daemon configures the mock daemon.
	Daemon DaemonConfig `yaml:"daemon"`
}

// ClientConfig configures an IPC client.
type ClientConfig struct {
	// Socket is the daemon socket path. OBJSTORE_IPC_SOCKET, when
	// set, overrides the file.
	Socket string `yaml:"socket" env:"OBJSTORE_IPC_SOCKET"`

	// ConnectTimeout bounds dial plus handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"OBJSTORE_CONNECT_TIMEOUT"`

	// RequestTimeout bounds one metadata round trip.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"OBJSTORE_REQUEST_TIMEOUT"`

	// CacheCapacity bounds the local metadata cache. Zero means
	// unbounded.
	CacheCapacity int `yaml:"cache_capacity" env:"OBJSTORE_CACHE_CAPACITY"`

	// Compression for frames the client sends: none, lz4, zstd.
	Compression string `yaml:"compression" env:"OBJSTORE_COMPRESSION"`
}

// DaemonConfig configures the mock daemon.
type DaemonConfig struct {
	// Socket is the path the daemon listens on.
	Socket string `yaml:"socket"`

	// LockFile guards against two daemons serving one socket. Empty
	// means Socket + ".lock".
	LockFile string `yaml:"lock_file"`

	// Compression for frames the daemon sends.
	Compression string `yaml:"compression"`

	// Seed lists objects loaded into the store at startup.
	Seed []SeedObject `yaml:"seed" env:"-"`
}

// SeedObject is one object preloaded into the mock daemon.
type SeedObject struct {
	// ID in any form objectid.Parse accepts. Empty means the daemon
	// allocates one.
	ID string `yaml:"id"`

	// Meta is the metadata map.
	Meta map[string]any `yaml:"meta"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Client: ClientConfig{
			ConnectTimeout: 5 * time.Second,
			RequestTimeout: 30 * time.Second,
			Compression:    "none",
		},
		Daemon: DaemonConfig{
			Socket:      "${XDG_RUNTIME_DIR:-/tmp}/objstore.sock",
			Compression: "lz4",
		},
	}
}

// Load builds the configuration from defaults, the file at path (or
// $OBJSTORE_CONFIG when path is empty), and the environment. With no
// file named anywhere, defaults and environment alone are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges the file at path into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so once comments and trailing
		// commas are gone the YAML decoder reads it unchanged.
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironment overlays OBJSTORE_* variables. Unset variables
// leave the current value alone.
func (c *Config) applyEnvironment() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("reading OBJSTORE_* environment: %w", err)
	}
	return nil
}

// Environment holds the variables a client consults at connect time.
type Environment struct {
	Socket string `env:"OBJSTORE_IPC_SOCKET"`
}

// ReadEnvironment parses the connect-time variables.
func ReadEnvironment() (Environment, error) {
	var environment Environment
	if err := env.Parse(&environment); err != nil {
		return Environment{}, fmt.Errorf("reading %s: %w", SocketEnvVar, err)
	}
	environment.Socket = expandVars(environment.Socket, nil)
	return environment, nil
}

// DaemonLockFile returns the lock file path, defaulting to the socket
// path plus ".lock".
func (c *Config) DaemonLockFile() string {
	if c.Daemon.LockFile != "" {
		return c.Daemon.LockFile
	}
	return c.Daemon.Socket + ".lock"
}

// SlogLevel converts LogLevel for slog.HandlerOptions.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// expandVariables expands ${VAR} and ${VAR:-default} in paths.
func (c *Config) expandVariables() {
	c.Client.Socket = expandVars(c.Client.Socket, nil)
	c.Daemon.Socket = expandVars(c.Daemon.Socket, nil)
	c.Daemon.LockFile = expandVars(c.Daemon.LockFile, nil)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default}. vars is consulted
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported at once.
func (c *Config) Validate() error {
	var errs []error

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	if _, err := transport.ParseCompression(c.Client.Compression); err != nil {
		errs = append(errs, fmt.Errorf("client.compression: %w", err))
	}
	if _, err := transport.ParseCompression(c.Daemon.Compression); err != nil {
		errs = append(errs, fmt.Errorf("daemon.compression: %w", err))
	}
	if c.Client.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("client.cache_capacity must not be negative, got %d", c.Client.CacheCapacity))
	}
	if c.Client.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("client.connect_timeout must not be negative, got %v", c.Client.ConnectTimeout))
	}
	if c.Client.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("client.request_timeout must not be negative, got %v", c.Client.RequestTimeout))
	}

	seen := make(map[objectid.ObjectID]bool)
	for index, object := range c.Daemon.Seed {
		if object.ID == "" {
			continue
		}
		id, err := objectid.Parse(object.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("daemon.seed[%d]: %w", index, err))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("daemon.seed[%d]: duplicate id %s", index, id))
		}
		seen[id] = true
	}

	return errors.Join(errs...)
}
