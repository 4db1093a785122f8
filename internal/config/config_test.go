package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, s string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func validYAML(t *testing.T) string {
	return `
system:
  username: admin
  password: "` + hash(t, "secret") + `"
  api_key: "` + hash(t, "key") + `"
  cookie_key: "0123456789abcdef0123"
  storage_volume: /mnt/nvr
cameras:
  cam1:
    name: Porch
    input: rtsp://cam1
    continuous: true
    input_config:
      rtsp_transport: tcp
    live_config:
      stream_config:
        f: mp4
`
}

func TestParse_defaults(t *testing.T) {
	cfg, err := Parse([]byte(validYAML(t)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	s := cfg.System
	if s.InterfacePort != 7878 || s.FFmpegLocation != "/usr/bin/ffmpeg" ||
		s.ContinuousSegTimeMinutes != 15 || s.SnapshotConcurrency != 4 || s.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", s)
	}
	if len(cfg.Cameras) != 1 || cfg.Cameras[0].ID != "cam1" || !cfg.Cameras[0].Continuous {
		t.Errorf("cameras = %+v", cfg.Cameras)
	}
}

func TestParse_envOverrides(t *testing.T) {
	t.Setenv("NVR_INTERFACE_PORT", "9000")
	t.Setenv("NVR_LOG_LEVEL", "debug")
	t.Setenv("NVR_REDIS_ADDRESS", "redis:6379")

	cfg, err := Parse([]byte(validYAML(t)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.System.InterfacePort != 9000 || cfg.System.LogLevel != "debug" || cfg.System.RedisAddress != "redis:6379" {
		t.Errorf("env overrides not applied: %+v", cfg.System)
	}

	t.Setenv("NVR_INTERFACE_PORT", "abc")
	if _, err := Parse([]byte(validYAML(t))); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestParse_validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{"plain password", func(s string) string {
			return replaceLine(s, "  password:", `  password: "hunter2"`)
		}, "bcrypt"},
		{"short cookie key", func(s string) string {
			return replaceLine(s, "  cookie_key:", `  cookie_key: "short"`)
		}, "cookie_key"},
		{"relative storage", func(s string) string {
			return replaceLine(s, "  storage_volume:", `  storage_volume: data`)
		}, "absolute"},
		{"unknown key", func(s string) string {
			return strings.Replace(s, "system:\n", "system:\n  bogus: 1\n", 1)
		}, "bogus"},
		{"bad camera id", func(s string) string {
			return strings.Replace(s, "  cam1:", "  \"cam 1\":", 1)
		}, "invalid id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(validYAML(t))))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func replaceLine(doc, prefix, with string) string {
	lines := strings.Split(doc, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			lines[i] = with
		}
	}
	return strings.Join(lines, "\n")
}

func TestLoad_missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nvr-server.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "nvr-server.yaml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "storage_volume") {
		t.Fatal("example content missing")
	}
	if err := WriteExample(path); err == nil {
		t.Fatal("WriteExample must not overwrite")
	}

	// The example is syntactically valid but still carries placeholders.
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "bcrypt") {
		t.Fatalf("example must fail validation on placeholders, got %v", err)
	}
}

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := CheckExecutable(exe); err != nil {
		t.Fatalf("CheckExecutable: %v", err)
	}

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckExecutable(plain); err == nil {
		t.Fatal("non-executable file accepted")
	}
	if err := CheckExecutable(dir); err == nil {
		t.Fatal("directory accepted")
	}
	if err := CheckExecutable(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("NVR_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NVR_TEST_DOTENV", "")
	os.Unsetenv("NVR_TEST_DOTENV")

	if err := LoadDotEnv(env, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("NVR_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("NVR_TEST_DOTENV = %q", got)
	}
}
