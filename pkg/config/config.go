// Package config provides configuration management for propshrink.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "PROPSHRINK_CONFIG_DIR"

const (
	yamlFile    = "config.yaml"
	tomlFile    = "config.toml"
	historyFile = "history.db"
)

// Config holds the settings shared by every command. Flags override them.
type Config struct {
	// Trials is the number of passing tests required before a property is
	// reported as OK.
	Trials int `yaml:"trials" toml:"trials"`

	// Seed fixes the random seed. Zero draws a fresh seed per run.
	Seed int64 `yaml:"seed,omitempty" toml:"seed,omitempty"`

	// MaxSweeps caps the sweeps of one minimization. Zero disables the cap.
	MaxSweeps int `yaml:"max_sweeps" toml:"max_sweeps"`

	// MaxSteps caps the accepted candidates per shrink call. Zero disables
	// the cap.
	MaxSteps int `yaml:"max_steps" toml:"max_steps"`

	// MinSize and MaxSize bound the generator size parameter.
	MinSize int `yaml:"min_size" toml:"min_size"`
	MaxSize int `yaml:"max_size" toml:"max_size"`

	// MaxDiscardRatio is the number of discarded draws tolerated per trial.
	MaxDiscardRatio float64 `yaml:"max_discard_ratio" toml:"max_discard_ratio"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// Color is auto, always or never.
	Color string `yaml:"color" toml:"color"`

	// HistoryPath is the failure history database. Empty selects
	// history.db in the configuration directory.
	HistoryPath string `yaml:"history_path,omitempty" toml:"history_path,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Trials:          100,
		MaxSweeps:       1000,
		MaxSteps:        10000,
		MinSize:         0,
		MaxSize:         100,
		MaxDiscardRatio: 5,
		LogLevel:        "warn",
		LogFormat:       "text",
		Color:           "auto",
	}
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	where := "configuration"
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf("invalid %s: %s", where, strings.Join(e.Issues, "; "))
}

// Validate checks c and returns a *ValidationError naming every issue.
func (c *Config) Validate() error {
	var issues []string
	if c.Trials < 1 {
		issues = append(issues, fmt.Sprintf("trials must be at least 1, got %d", c.Trials))
	}
	if c.MaxSweeps < 0 {
		issues = append(issues, fmt.Sprintf("max_sweeps must not be negative, got %d", c.MaxSweeps))
	}
	if c.MaxSteps < 0 {
		issues = append(issues, fmt.Sprintf("max_steps must not be negative, got %d", c.MaxSteps))
	}
	if c.MinSize < 0 {
		issues = append(issues, fmt.Sprintf("min_size must not be negative, got %d", c.MinSize))
	}
	if c.MaxSize < c.MinSize {
		issues = append(issues, fmt.Sprintf("max_size %d is below min_size %d", c.MaxSize, c.MinSize))
	}
	if c.MaxDiscardRatio < 0 {
		issues = append(issues, fmt.Sprintf("max_discard_ratio must not be negative, got %g", c.MaxDiscardRatio))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("log_level %q is not a log level", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log_format must be text or json, got %q", c.LogFormat))
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		issues = append(issues, fmt.Sprintf("color must be auto, always or never, got %q", c.Color))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Manager handles configuration persistence and retrieval.
type Manager struct {
	configDir string
}

// ManagerOption is a function that configures a Manager.
type ManagerOption func(*Manager)

// WithConfigDir sets a custom configuration directory.
func WithConfigDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.configDir = dir
	}
}

// NewManager creates a new configuration manager.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	m := &Manager{
		configDir: configDir,
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return m, nil
}

// GetConfigDir returns the platform-specific configuration directory.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		// macOS: ~/Library/Application Support/propshrink
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support", "propshrink")

	case "windows":
		// Windows: %APPDATA%\propshrink
		appData := os.Getenv("APPDATA")
		if appData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		baseDir = filepath.Join(appData, "propshrink")

	default:
		// Linux/Unix: ~/.config/propshrink (XDG Base Directory Specification)
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			xdgConfig = filepath.Join(homeDir, ".config")
		}
		baseDir = filepath.Join(xdgConfig, "propshrink")
	}

	return baseDir, nil
}

// ConfigDir returns the configuration directory path.
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// ConfigPath returns the configuration file in use. config.yaml wins over
// config.toml; when neither exists the config.yaml path is returned.
func (m *Manager) ConfigPath() string {
	yamlPath := filepath.Join(m.configDir, yamlFile)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	tomlPath := filepath.Join(m.configDir, tomlFile)
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return yamlPath
}

// DefaultHistoryPath returns the history database used when none is
// configured.
func (m *Manager) DefaultHistoryPath() string {
	return filepath.Join(m.configDir, historyFile)
}

// Load reads the configuration file over the defaults. A missing file is not
// an error.
func (m *Manager) Load() (*Config, error) {
	path := m.ConfigPath()
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = m.DefaultHistoryPath()
	}
	return cfg, nil
}

// LoadFile reads one configuration file over the defaults. The format
// follows the extension: .toml for TOML, anything else for YAML. Unknown
// keys are reported as validation issues.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file '%s': %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	var issues []string
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
		for _, key := range md.Undecoded() {
			issues = append(issues, fmt.Sprintf("unknown key %q", key.String()))
		}
	} else {
		issues, err = decodeYAML(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}

	cfg.HistoryPath = expandHomeDirectory(cfg.HistoryPath)

	if err := cfg.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			issues = append(issues, ve.Issues...)
		}
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Path: path, Issues: issues}
	}
	return cfg, nil
}

// decodeYAML decodes data into cfg. Unknown keys and mistyped values are
// returned as issues rather than errors.
func decodeYAML(data []byte, cfg *Config) ([]string, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	var te *yaml.TypeError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil, nil
	case errors.As(err, &te):
		return te.Errors, nil
	}
	return nil, err
}

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Encode writes cfg in the given format.
func Encode(w io.Writer, cfg *Config, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown config format %q", format)
}

// Save writes cfg to the configuration directory and returns the file path.
func (m *Manager) Save(cfg *Config, format Format) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	name := yamlFile
	if format == FormatTOML {
		name = tomlFile
	}
	configPath := filepath.Join(m.configDir, name)

	var buf bytes.Buffer
	if err := Encode(&buf, cfg, format); err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}

	// Write atomically by writing to temp file first
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save config: %w", err)
	}

	return configPath, nil
}

// expandHomeDirectory expands ~ in the path to the user's home directory.
func expandHomeDirectory(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	return path
}
