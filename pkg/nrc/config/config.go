package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// StateConfig configures the compile history store.
type StateConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"` // Empty means DefaultStatePath()
	RetentionDays int    `mapstructure:"retention_days"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config represents the application configuration.
type Config struct {
	Exclude        []string      `mapstructure:"exclude"`
	SkipHidden     bool          `mapstructure:"skip_hidden"`
	FollowSymlinks bool          `mapstructure:"follow_symlinks"`
	State          StateConfig   `mapstructure:"state"`
	Logging        LoggingConfig `mapstructure:"logging"`
	Watch          WatchConfig   `mapstructure:"watch"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("skip_hidden", DefaultSkipHidden)
	v.SetDefault("follow_symlinks", DefaultFollowSymlinks)

	v.SetDefault("state.enabled", true)
	v.SetDefault("state.path", "") // Empty means use DefaultStatePath
	v.SetDefault("state.retention_days", DefaultHistoryRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "5MB")
	v.SetDefault("logging.rotation.max_age", 14)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.components", map[string]string{
		"scanner":  "info",
		"compiler": "info",
		"state":    "warn",
		"watcher":  "info",
	})

	v.SetDefault("watch.debounce", DefaultWatchDebounce)
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/nrc/config.yaml
//   - $HOME/.config/nrc/config.yaml
//
// Environment variables are prefixed with NRC_ (e.g., NRC_SKIP_HIDDEN).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, AppName))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", AppName))

	return load(v)
}

// LoadFile loads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("NRC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Config file not found is acceptable; we use defaults
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Decode(v)
}

// Decode unmarshals the settings held by v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.State.Path != "" {
		expanded, err := ExpandPath(cfg.State.Path)
		if err != nil {
			return nil, err
		}
		cfg.State.Path = expanded
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the path of the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	var exclude strings.Builder
	for _, pattern := range SuggestedExclusions {
		fmt.Fprintf(&exclude, "#  - %q\n", pattern)
	}

	defaultConfig := fmt.Sprintf(`# nrc resource compiler configuration

# Glob patterns for resources that are never packed. Every file under the
# resource directory is packed by default; uncomment to drop clutter.
exclude:
%s
# Skip files and directories starting with a dot
skip_hidden: %t

# Descend into symbolic links (loops are reported as errors)
follow_symlinks: %t

# Compile history
state:
  enabled: true
  # Empty means use default: $XDG_DATA_HOME/nrc/state
  path: ""
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/nrc/nrc.log)
  path: ""
  rotation:
    max_size: 5MB
    max_age: 14       # days
    max_backups: 3
  components:
    scanner: info
    compiler: info
    state: warn
    watcher: info

# Watch mode
watch:
  debounce: %s
`, exclude.String(), DefaultSkipHidden, DefaultFollowSymlinks, DefaultHistoryRetentionDays, DefaultWatchDebounce)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/nrc/ for the history store.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/nrc/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultStatePath returns the default compile history store path.
func DefaultStatePath() string {
	return filepath.Join(DataDir(), "state")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "nrc.log")
}

// StatePath returns the configured history store path or the default.
func (c *Config) StatePath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	return DefaultStatePath()
}
