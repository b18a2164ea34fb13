package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanchriswhite/winstate/internal/logger"
	"github.com/bryanchriswhite/winstate/internal/window"
	"gopkg.in/yaml.v3"
)

// Backend kinds
const (
	BackendRecorder = "recorder"
	BackendX11      = "x11"
)

// BackendConfig selects and tunes the window backend
type BackendConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// X11Window is the id of an existing X11 window to drive (hex or decimal).
	X11Window string `json:"x11_window,omitempty" yaml:"x11_window,omitempty"`
	TickMS    int    `json:"tick_ms" yaml:"tick_ms"`

	// Recorder settings
	MonitorWidth  uint32  `json:"monitor_width" yaml:"monitor_width"`
	MonitorHeight uint32  `json:"monitor_height" yaml:"monitor_height"`
	ScaleFactor   float64 `json:"scale_factor" yaml:"scale_factor"`
}

// Config represents the application configuration
type Config struct {
	ServerPort int               `json:"server_port" yaml:"server_port"`
	LogLevel   string            `json:"log_level" yaml:"log_level"`
	Backend    BackendConfig     `json:"backend" yaml:"backend"`
	Window     window.Descriptor `json:"window" yaml:"window"`
}

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Backend: BackendConfig{
			Kind:          BackendRecorder,
			TickMS:        16,
			MonitorWidth:  1920,
			MonitorHeight: 1080,
			ScaleFactor:   1.0,
		},
		Window: window.DefaultDescriptor(),
	}
}

// Validate checks values the rest of the program relies on
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server_port %d out of range", c.ServerPort))
	}
	switch c.Backend.Kind {
	case BackendRecorder:
	case BackendX11:
		if c.Backend.X11Window == "" {
			errs = append(errs, errors.New("backend.x11_window is required for the x11 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (use %s or %s)", c.Backend.Kind, BackendRecorder, BackendX11))
	}
	if c.Backend.TickMS <= 0 {
		errs = append(errs, fmt.Errorf("backend.tick_ms must be positive, got %d", c.Backend.TickMS))
	}
	if c.Backend.ScaleFactor <= 0 {
		errs = append(errs, fmt.Errorf("backend.scale_factor must be positive, got %v", c.Backend.ScaleFactor))
	}
	return errors.Join(errs...)
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns ~/.config/winstate/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winstate", "config.yaml"), nil
}

// NewManager loads the config file, creating it with defaults when missing
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		actualConfigPath = p
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	cfg, err := m.read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		m.config = Defaults()
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		m.config = cfg
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("backend", m.config.Backend.Kind).
		Msg("Config loaded")

	return m, nil
}

// ErrEmptyConfig is returned by Reload when the file holds no settings,
// as it does between the truncate and the write of a non-atomic save.
var ErrEmptyConfig = errors.New("config file is empty")

// read parses the config file on top of the defaults
func (m *Manager) read() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Reload re-reads the config file and returns the previous and new values.
// An empty file is rejected with ErrEmptyConfig and the current config kept.
func (m *Manager) Reload() (prev, next *Config, err error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyConfig
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	prev = m.config
	m.config = cfg
	m.mu.Unlock()

	c := *cfg
	return prev, &c, nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = Defaults()
	}

	log := logger.WithComponent("config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		log.Error().Err(err).Str("config_dir", configDir).Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config")
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := writeFileAtomic(m.configPath, data); err != nil {
		log.Error().Err(err).Str("path", m.configPath).Msg("Failed to write config")
		return err
	}

	log.Debug().Str("path", m.configPath).Msg("Config saved")
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never see a truncated file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Update replaces the entire configuration
func (m *Manager) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c := *cfg
	m.mu.Lock()
	m.config = &c
	m.mu.Unlock()
	return m.Save()
}

// SetPort sets the server port
func (m *Manager) SetPort(port int) error {
	return m.Set("server_port", strconv.Itoa(port))
}

// SetLogLevel sets the log level
func (m *Manager) SetLogLevel(level string) error {
	return m.Set("log_level", level)
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Keys lists the dotted keys accepted by Set and Lookup
func Keys() []string {
	return []string{
		"server_port", "log_level",
		"backend.kind", "backend.x11_window", "backend.tick_ms",
		"backend.monitor_width", "backend.monitor_height", "backend.scale_factor",
		"window.width", "window.height", "window.title", "window.vsync",
		"window.resizable", "window.decorations", "window.cursor_visible",
		"window.cursor_locked", "window.mode",
	}
}

// Set parses value for the dotted key and saves the result
func (m *Manager) Set(key, value string) error {
	cfg := m.Get()
	if err := setField(cfg, key, value); err != nil {
		return err
	}
	return m.Update(cfg)
}

// Lookup returns the text form of the dotted key
func (m *Manager) Lookup(key string) (string, error) {
	cfg := m.Get()
	w := cfg.Window
	switch key {
	case "server_port":
		return strconv.Itoa(cfg.ServerPort), nil
	case "log_level":
		return cfg.LogLevel, nil
	case "backend.kind":
		return cfg.Backend.Kind, nil
	case "backend.x11_window":
		return cfg.Backend.X11Window, nil
	case "backend.tick_ms":
		return strconv.Itoa(cfg.Backend.TickMS), nil
	case "backend.monitor_width":
		return strconv.FormatUint(uint64(cfg.Backend.MonitorWidth), 10), nil
	case "backend.monitor_height":
		return strconv.FormatUint(uint64(cfg.Backend.MonitorHeight), 10), nil
	case "backend.scale_factor":
		return strconv.FormatFloat(cfg.Backend.ScaleFactor, 'g', -1, 64), nil
	case "window.width":
		return strconv.FormatFloat(float64(w.Width), 'g', -1, 32), nil
	case "window.height":
		return strconv.FormatFloat(float64(w.Height), 'g', -1, 32), nil
	case "window.title":
		return w.Title, nil
	case "window.vsync":
		return strconv.FormatBool(w.Vsync), nil
	case "window.resizable":
		return strconv.FormatBool(w.Resizable), nil
	case "window.decorations":
		return strconv.FormatBool(w.Decorations), nil
	case "window.cursor_visible":
		return strconv.FormatBool(w.CursorVisible), nil
	case "window.cursor_locked":
		return strconv.FormatBool(w.CursorLocked), nil
	case "window.mode":
		return w.Mode.String(), nil
	}
	return "", fmt.Errorf("configuration key not found: %s", key)
}

func setField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "server_port":
		cfg.ServerPort, err = strconv.Atoi(value)
	case "log_level":
		switch strings.ToLower(value) {
		case "trace", "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", value)
		}
	case "backend.kind":
		cfg.Backend.Kind = value
	case "backend.x11_window":
		cfg.Backend.X11Window = value
	case "backend.tick_ms":
		cfg.Backend.TickMS, err = strconv.Atoi(value)
	case "backend.monitor_width":
		cfg.Backend.MonitorWidth, err = parseUint32(value)
	case "backend.monitor_height":
		cfg.Backend.MonitorHeight, err = parseUint32(value)
	case "backend.scale_factor":
		cfg.Backend.ScaleFactor, err = strconv.ParseFloat(value, 64)
	case "window.width":
		cfg.Window.Width, err = parseFloat32(value)
	case "window.height":
		cfg.Window.Height, err = parseFloat32(value)
	case "window.title":
		cfg.Window.Title = value
	case "window.vsync":
		cfg.Window.Vsync, err = strconv.ParseBool(value)
	case "window.resizable":
		cfg.Window.Resizable, err = strconv.ParseBool(value)
	case "window.decorations":
		cfg.Window.Decorations, err = strconv.ParseBool(value)
	case "window.cursor_visible":
		cfg.Window.CursorVisible, err = strconv.ParseBool(value)
	case "window.cursor_locked":
		cfg.Window.CursorLocked, err = strconv.ParseBool(value)
	case "window.mode":
		cfg.Window.Mode, err = window.ParseMode(value)
	default:
		return fmt.Errorf("configuration key not found: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}
