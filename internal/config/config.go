package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/maintenance/internal/task"
)

// Storage backend names.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config represents the complete maintenance configuration
type Config struct {
	// Name identifies the task set; it seeds the default storage key.
	Name     string         `mapstructure:"name"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	// Users lists known owners. When non-empty, start/pause/complete
	// reject owners not in the list.
	Users   []string      `mapstructure:"users"`
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig selects and configures the durable backend
type StorageConfig struct {
	// Backend is one of "file", "sqlite", "postgres", "memory" (default: "file")
	Backend string `mapstructure:"backend"`
	// DataDir holds the JSON document and lock file for the file backend,
	// and the default SQLite database. Supports ~ expansion.
	DataDir string `mapstructure:"data_dir"`
	// Key names the document inside the backend (default: maintenance_db_<name>)
	Key string `mapstructure:"key"`
	// SQLitePath overrides the SQLite database location
	SQLitePath string `mapstructure:"sqlite_path"`
	// PostgresURL is the pgx connection string for the postgres backend
	PostgresURL string `mapstructure:"postgres_url"`
	// Watch reloads the task set when the file backend is changed by
	// another process (serve only, default: true)
	Watch bool `mapstructure:"watch"`
}

// DefaultsConfig holds values applied to requests that omit them
type DefaultsConfig struct {
	// User is the owner used when a command does not name one
	User string `mapstructure:"user"`
	// EstMin is the estimate for new tasks in minutes (default: 15)
	EstMin int `mapstructure:"est_min"`
	// Zone is assigned to tasks created without one (default: "Unsorted")
	Zone string `mapstructure:"zone"`
}

// APIConfig controls the HTTP server started by "serve"
type APIConfig struct {
	// Listen is the address to bind (default: ":8080")
	Listen string `mapstructure:"listen"`
	// Mode is the gin mode: "release", "debug" or "test" (default: "release")
	Mode string `mapstructure:"mode"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where maintenance.log is written; empty logs to stderr.
	// Supports ~ expansion.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size before rotation (default: 5)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Name: "Maintenance",
		Storage: StorageConfig{
			Backend: BackendFile,
			Watch:   true,
		},
		Defaults: DefaultsConfig{
			EstMin: 15,
			Zone:   task.DefaultZone,
		},
		Users: []string{},
		API: APIConfig{
			Listen: ":8080",
			Mode:   "release",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("name", defaults.Name)

	// Storage defaults
	viper.SetDefault("storage.backend", defaults.Storage.Backend)
	viper.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	viper.SetDefault("storage.key", defaults.Storage.Key)
	viper.SetDefault("storage.sqlite_path", defaults.Storage.SQLitePath)
	viper.SetDefault("storage.postgres_url", defaults.Storage.PostgresURL)
	viper.SetDefault("storage.watch", defaults.Storage.Watch)

	// Request defaults
	viper.SetDefault("defaults.user", defaults.Defaults.User)
	viper.SetDefault("defaults.est_min", defaults.Defaults.EstMin)
	viper.SetDefault("defaults.zone", defaults.Defaults.Zone)
	viper.SetDefault("users", defaults.Users)

	// API defaults
	viper.SetDefault("api.listen", defaults.API.Listen)
	viper.SetDefault("api.mode", defaults.API.Mode)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// StorageKey returns the configured document key, or one derived from Name.
func (c *Config) StorageKey() string {
	if c.Storage.Key != "" {
		return c.Storage.Key
	}
	slug := task.DeriveID(c.Name)
	if slug == "" {
		slug = "default"
	}
	return "maintenance_db_" + slug
}

// ResolveDataDir returns the data directory with ~ expanded, defaulting
// to a "data" directory under ConfigDir.
func (s *StorageConfig) ResolveDataDir() string {
	if s.DataDir == "" {
		return filepath.Join(ConfigDir(), "data")
	}
	return expandHome(s.DataDir)
}

// ResolveSQLitePath returns the SQLite database path, defaulting to
// maintenance.db inside the data directory.
func (s *StorageConfig) ResolveSQLitePath() string {
	if s.SQLitePath == "" {
		return filepath.Join(s.ResolveDataDir(), "maintenance.db")
	}
	return expandHome(s.SQLitePath)
}

// ResolveDir returns the log directory with ~ expanded; empty means stderr.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir == "" {
		return ""
	}
	return expandHome(l.Dir)
}

// IsKnownUser reports whether owner may act on tasks. Any owner is allowed
// when no users are configured.
func (c *Config) IsKnownUser(owner string) bool {
	if len(c.Users) == 0 {
		return true
	}
	for _, u := range c.Users {
		if u == owner {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "maintenance")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".maintenance"
	}
	return filepath.Join(home, ".config", "maintenance")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidBackends returns the list of valid storage backend names
func ValidBackends() []string {
	return []string{BackendFile, BackendSQLite, BackendPostgres, BackendMemory}
}
