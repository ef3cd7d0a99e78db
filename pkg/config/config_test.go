package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestNewManager(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested")

	m, err := NewManager(WithConfigDir(tmpDir))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if m.ConfigDir() != tmpDir {
		t.Errorf("expected configDir %s, got %s", tmpDir, m.ConfigDir())
	}
	if _, err := os.Stat(tmpDir); err != nil {
		t.Errorf("expected config directory to be created: %v", err)
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir failed: %v", err)
	}

	switch runtime.GOOS {
	case "darwin":
		if !strings.Contains(dir, filepath.Join("Library", "Application Support", "propshrink")) {
			t.Errorf("macOS config dir should be under Application Support, got %s", dir)
		}
	case "windows":
		if !strings.Contains(dir, "propshrink") {
			t.Errorf("Windows config dir should contain propshrink, got %s", dir)
		}
	default:
		t.Setenv("XDG_CONFIG_HOME", "")
		dir, err = GetConfigDir()
		if err != nil {
			t.Fatalf("GetConfigDir failed: %v", err)
		}
		if !strings.HasSuffix(dir, filepath.Join(".config", "propshrink")) {
			t.Errorf("Linux config dir should end in .config/propshrink, got %s", dir)
		}
	}
}

func TestGetConfigDir_Override(t *testing.T) {
	t.Setenv(EnvConfigDir, "/custom/dir")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir failed: %v", err)
	}
	if dir != "/custom/dir" {
		t.Errorf("expected override to win, got %s", dir)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG applies to Linux and other Unix systems")
	}
	t.Setenv(EnvConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir failed: %v", err)
	}
	if dir != filepath.Join("/xdg", "propshrink") {
		t.Errorf("expected XDG path, got %s", dir)
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.MaxSweeps != 1000 {
		t.Errorf("expected default max_sweeps 1000, got %d", cfg.MaxSweeps)
	}
	if cfg.MaxSteps != 10000 {
		t.Errorf("expected default max_steps 10000, got %d", cfg.MaxSteps)
	}
}

func TestValidate_CollectsEveryIssue(t *testing.T) {
	cfg := &Config{
		Trials:          0,
		MaxSweeps:       -1,
		MaxSteps:        -1,
		MinSize:         -1,
		MaxSize:         -2,
		MaxDiscardRatio: -1,
		LogLevel:        "loud",
		LogFormat:       "xml",
		Color:           "sometimes",
	}

	err := cfg.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Issues) != 9 {
		t.Errorf("expected 9 issues, got %d: %v", len(ve.Issues), ve.Issues)
	}
}

func TestValidate_ZeroCapsAllowed(t *testing.T) {
	cfg := Default()
	cfg.MaxSweeps = 0
	cfg.MaxSteps = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero caps should be valid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := NewManager(WithConfigDir(tmpDir))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trials != 100 {
		t.Errorf("expected default trials, got %d", cfg.Trials)
	}
	if cfg.HistoryPath != filepath.Join(tmpDir, "history.db") {
		t.Errorf("expected default history path, got %s", cfg.HistoryPath)
	}
}

func TestLoad_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "trials: 250\nmax_sweeps: 7\ncolor: never\nhistory_path: /tmp/h.db\n")

	m, err := NewManager(WithConfigDir(tmpDir))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trials != 250 || cfg.MaxSweeps != 7 || cfg.Color != "never" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MaxSteps != 10000 {
		t.Errorf("unset keys should keep defaults, got max_steps %d", cfg.MaxSteps)
	}
	if cfg.HistoryPath != "/tmp/h.db" {
		t.Errorf("expected history path from file, got %s", cfg.HistoryPath)
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.toml"), "trials = 30\nmax_discard_ratio = 2.5\nlog_format = \"json\"\n")

	m, err := NewManager(WithConfigDir(tmpDir))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if !strings.HasSuffix(m.ConfigPath(), "config.toml") {
		t.Errorf("expected toml config path, got %s", m.ConfigPath())
	}

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trials != 30 || cfg.MaxDiscardRatio != 2.5 || cfg.LogFormat != "json" {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestConfigPath_YAMLWins(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "trials: 1\n")
	writeFile(t, filepath.Join(tmpDir, "config.toml"), "trials = 2\n")

	m := &Manager{configDir: tmpDir}
	if !strings.HasSuffix(m.ConfigPath(), "config.yaml") {
		t.Errorf("expected yaml to win, got %s", m.ConfigPath())
	}
}

func TestLoadFile_UnknownKeys(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "config.yaml", "trials: 5\ntrails: 6\n"},
		{"toml", "config.toml", "trials = 5\ntrails = 6\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			writeFile(t, path, tt.content)

			_, err := LoadFile(path)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Path != path {
				t.Errorf("expected path %s, got %s", path, ve.Path)
			}
			if len(ve.Issues) != 1 || !strings.Contains(ve.Issues[0], "trails") {
				t.Errorf("expected one issue naming trails, got %v", ve.Issues)
			}
		})
	}
}

func TestLoadFile_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "trials: 0\ncolor: rainbow\n")

	_, err := LoadFile(path)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Issues) != 2 {
		t.Errorf("expected 2 issues, got %v", ve.Issues)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "trials = = 1\n")

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Errorf("parse errors should not be validation errors")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Trials != 100 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFile_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "history_path: ~/failures.db\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.HistoryPath != filepath.Join(home, "failures.db") {
		t.Errorf("expected expanded path, got %s", cfg.HistoryPath)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			m, err := NewManager(WithConfigDir(t.TempDir()))
			if err != nil {
				t.Fatalf("NewManager failed: %v", err)
			}

			cfg := Default()
			cfg.Trials = 42
			cfg.Seed = 7
			path, err := m.Save(cfg, format)
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if filepath.Ext(path) != "."+string(format) {
				t.Errorf("unexpected file %s", path)
			}

			loaded, err := m.Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Trials != 42 || loaded.Seed != 7 {
				t.Errorf("values not persisted: %+v", loaded)
			}
		})
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	m := &Manager{configDir: t.TempDir()}
	if _, err := m.Save(nil, FormatYAML); err == nil {
		t.Error("expected error for nil config")
	}
	cfg := Default()
	cfg.Trials = 0
	if _, err := m.Save(cfg, FormatYAML); err == nil {
		t.Error("expected validation error")
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Default(), "ini"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Path: "/etc/p.yaml", Issues: []string{"a", "b"}}
	if err.Error() != "invalid /etc/p.yaml: a; b" {
		t.Errorf("unexpected message %q", err.Error())
	}
	err.Path = ""
	if !strings.HasPrefix(err.Error(), "invalid configuration:") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
