// Package config provides configuration management for the devinput agent.
package config

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"devinput/internal/keys"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/kataras/golog"
)

var logger = golog.Child("[config]")

// Hotkey action names accepted in the [hotkeys] section.
const (
	HotkeyStop         = "stop"
	HotkeyToggleStream = "toggle_stream"
)

var hotkeyActions = map[string]bool{
	HotkeyStop:         true,
	HotkeyToggleStream: true,
}

// loggerPrefixes lists the package child loggers. Children copy the parent
// level when created, so each needs the level set on its own.
var loggerPrefixes = []string{"[api]", "[config]", "[hotkey]", "[input]", "[network]", "[osutils]"}

// ApplyLogLevel sets level on the default logger and every package logger.
func ApplyLogLevel(level string) {
	golog.SetLevel(level)
	for _, p := range loggerPrefixes {
		golog.Child(p).SetLevel(level)
	}
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Config represents the application configuration
type Config struct {
	Log    LogConfig    `toml:"log"`
	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`

	// Hotkeys maps an action name to the combo that triggers it
	// (e.g. stop = "Ctrl+Alt+Shift+Escape").
	Hotkeys map[string]string `toml:"hotkeys"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
}

// EngineConfig configures the native injection engine.
type EngineConfig struct {
	// DeviceName is the name of the virtual device, where the platform has one
	DeviceName string `toml:"device_name"`

	// KeyDelay is slept between primitive key operations
	KeyDelay Duration `toml:"key_delay"`
}

// ServerConfig configures the agent server.
type ServerConfig struct {
	// Enabled starts the agent server with -serve even without the flag
	Enabled bool `toml:"enabled"`

	// Listen is the TCP address of the HTTP/WebSocket API
	Listen string `toml:"listen"`

	// Token is an optional bearer token for API requests
	Token string `toml:"token,omitempty"`

	// EventPort is the UDP port of the event stream, 0 disables it
	EventPort int `toml:"event_port"`

	// ManageFirewall opens the API and event ports in the host firewall
	// on start (Windows only)
	ManageFirewall bool `toml:"manage_firewall"`
}

// Duration is a time.Duration written as a string ("5ms") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Engine: EngineConfig{
			DeviceName: "devinput virtual device",
			KeyDelay:   Duration{5 * time.Millisecond},
		},
		Server: ServerConfig{
			Enabled:   false,
			Listen:    "0.0.0.0:18080",
			EventPort: 18081,
		},
		Hotkeys: map[string]string{
			HotkeyStop: "Ctrl+Alt+Shift+Escape",
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Hotkeys = make(map[string]string, len(c.Hotkeys))
	for k, v := range c.Hotkeys {
		out.Hotkeys[k] = v
	}
	return &out
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if !logLevels[strings.ToLower(c.Log.Level)] {
		result = multierror.Append(result, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Engine.KeyDelay.Duration < 0 {
		result = multierror.Append(result, fmt.Errorf("engine.key_delay: must not be negative"))
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		result = multierror.Append(result, fmt.Errorf("server.listen: %w", err))
	}
	if c.Server.EventPort < 0 || c.Server.EventPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.event_port: %d out of range", c.Server.EventPort))
	}
	for name, combo := range c.Hotkeys {
		if !hotkeyActions[name] {
			result = multierror.Append(result, fmt.Errorf("hotkeys.%s: unknown action", name))
		}
		if _, err := keys.ParseCombo(combo); err != nil {
			result = multierror.Append(result, fmt.Errorf("hotkeys.%s: %w", name, err))
		}
	}

	return result.ErrorOrNil()
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func(*Config)
}

// NewManager creates a manager for the file at path, or at the per-user
// default location when path is empty.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "devinput")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "devinput")
	default:
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(dir, "devinput")
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Path returns the file the manager reads and writes.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file leaves the current
// configuration in place. An invalid file is rejected as a whole.
func (m *Manager) Load() error {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(m.configPath, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %s: %w", m.configPath, err)
	}

	m.mu.Lock()
	m.config = cfg
	fn := m.onChanged
	m.mu.Unlock()

	logger.Debugf("loaded %s", m.configPath)
	if fn != nil {
		fn(cfg.Clone())
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	cfg := m.config.Clone()
	m.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	logger.Infof("saving configuration to %s (%d bytes)", m.configPath, buf.Len())
	return os.WriteFile(m.configPath, buf.Bytes(), 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Clone()
}

// Set validates and replaces the configuration
func (m *Manager) Set(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg.Clone()
	fn := m.onChanged
	m.mu.Unlock()
	if fn != nil {
		fn(cfg.Clone())
	}
	return nil
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// Watch reloads the file whenever it changes on disk until ctx is done.
// The directory is watched rather than the file so that editors replacing
// the file are followed. Bursts of events are coalesced.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Infof("watching %s", m.configPath)

	const debounce = 200 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	name := filepath.Clean(m.configPath)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			if err := m.Load(); err != nil {
				logger.Errorf("reload failed, keeping previous configuration: %v", err)
			} else {
				logger.Infof("configuration reloaded")
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)
		}
	}
}
