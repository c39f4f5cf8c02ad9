// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears every variable Load consults so the host environment
// cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		ConfigEnvVar, SocketEnvVar, "OBJSTORE_LOG_LEVEL", "OBJSTORE_COMPRESSION",
		"OBJSTORE_CACHE_CAPACITY", "OBJSTORE_CONNECT_TIMEOUT", "OBJSTORE_REQUEST_TIMEOUT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate(): %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.Client.RequestTimeout)
	}
	if cfg.Daemon.Socket != "/run/user/1000/objstore.sock" {
		t.Errorf("Daemon.Socket = %q, want expanded XDG path", cfg.Daemon.Socket)
	}
	if cfg.DaemonLockFile() != "/run/user/1000/objstore.sock.lock" {
		t.Errorf("DaemonLockFile = %q", cfg.DaemonLockFile())
	}
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	path := writeFile(t, "objstore.yaml", `
log_level: debug
client:
  socket: /tmp/store.sock
  request_timeout: 250ms
  cache_capacity: 128
  compression: zstd
daemon:
  socket: /tmp/store.sock
  lock_file: /tmp/store.lock
  seed:
    - id: "42"
      meta:
        typename: vineyard::Blob
        nbytes: 4096
        sealed: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Socket != "/tmp/store.sock" {
		t.Errorf("Client.Socket = %q", cfg.Client.Socket)
	}
	if cfg.Client.RequestTimeout != 250*time.Millisecond {
		t.Errorf("RequestTimeout = %v, want 250ms", cfg.Client.RequestTimeout)
	}
	if cfg.Client.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout = %v, want default 5s to survive a partial file", cfg.Client.ConnectTimeout)
	}
	if cfg.Client.CacheCapacity != 128 || cfg.Client.Compression != "zstd" {
		t.Errorf("client = %+v", cfg.Client)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.SlogLevel())
	}
	if len(cfg.Daemon.Seed) != 1 {
		t.Fatalf("seed has %d objects, want 1", len(cfg.Daemon.Seed))
	}
	if cfg.Daemon.Seed[0].Meta["typename"] != "vineyard::Blob" {
		t.Errorf("seed meta = %v", cfg.Daemon.Seed[0].Meta)
	}
}

func TestLoadJSONC(t *testing.T) {
	isolate(t)
	path := writeFile(t, "objstore.jsonc", `{
  // Development daemon.
  "client": {
    "socket": "/tmp/dev.sock",
    "compression": "lz4", /* cheap */
  },
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Socket != "/tmp/dev.sock" || cfg.Client.Compression != "lz4" {
		t.Errorf("client = %+v", cfg.Client)
	}
}

func TestLoadFromConfigEnvVar(t *testing.T) {
	isolate(t)
	path := writeFile(t, "objstore.yaml", "client:\n  socket: /tmp/from-env.sock\n")
	t.Setenv(ConfigEnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Socket != "/tmp/from-env.sock" {
		t.Errorf("Client.Socket = %q, want the file named by %s", cfg.Client.Socket, ConfigEnvVar)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "objstore.yaml", "client:\n  socket: /tmp/file.sock\n  cache_capacity: 10\n")
	t.Setenv(SocketEnvVar, "/tmp/env.sock")
	t.Setenv("OBJSTORE_CACHE_CAPACITY", "99")
	t.Setenv("OBJSTORE_REQUEST_TIMEOUT", "2s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.Socket != "/tmp/env.sock" {
		t.Errorf("Client.Socket = %q, want environment value", cfg.Client.Socket)
	}
	if cfg.Client.CacheCapacity != 99 {
		t.Errorf("CacheCapacity = %d, want 99", cfg.Client.CacheCapacity)
	}
	if cfg.Client.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v, want 2s", cfg.Client.RequestTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolate(t)
	path := writeFile(t, "objstore.yaml", "client:\n  compression: brotli\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "client.compression") {
		t.Fatalf("Load = %v, want client.compression error", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Client.CacheCapacity = -1
	cfg.Client.RequestTimeout = -time.Second
	cfg.Daemon.Compression = "gzip"
	cfg.Daemon.Seed = []SeedObject{{ID: "7"}, {ID: "o0000000000000007"}, {ID: "nope"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate succeeded")
	}
	for _, want := range []string{"log_level", "cache_capacity", "request_timeout", "daemon.compression", "duplicate id", "daemon.seed[2]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate error %q does not mention %s", err, want)
		}
	}
}

func TestReadEnvironment(t *testing.T) {
	isolate(t)
	environment, err := ReadEnvironment()
	if err != nil {
		t.Fatalf("ReadEnvironment: %v", err)
	}
	if environment.Socket != "" {
		t.Errorf("Socket = %q, want empty when unset", environment.Socket)
	}

	t.Setenv("XDG_RUNTIME_DIR", "/run/user/7")
	t.Setenv(SocketEnvVar, "${XDG_RUNTIME_DIR}/vineyard.sock")
	environment, err = ReadEnvironment()
	if err != nil {
		t.Fatalf("ReadEnvironment: %v", err)
	}
	if environment.Socket != "/run/user/7/vineyard.sock" {
		t.Errorf("Socket = %q, want expanded path", environment.Socket)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("OBJSTORE_TEST_DIR", "/srv")
	tests := []struct {
		input string
		want  string
	}{
		{"/plain/path", "/plain/path"},
		{"${OBJSTORE_TEST_DIR}/a.sock", "/srv/a.sock"},
		{"${OBJSTORE_TEST_UNSET:-/fallback}/a.sock", "/fallback/a.sock"},
		{"${OBJSTORE_TEST_UNSET}/a.sock", "/a.sock"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, nil); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
	if got := expandVars("${ROOT}/x", map[string]string{"ROOT": "/given"}); got != "/given/x" {
		t.Errorf("explicit vars not preferred: %q", got)
	}
}
