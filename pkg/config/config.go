package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Supported database drivers. The driver also selects the ranking dialect.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DefaultLegacyTables is the modern host search table set cleared by the
// truncate-legacy migration aid. Older hosts used a three-table layout; the
// set is configurable for that reason.
var DefaultLegacyTables = []string{
	"submission_search_keyword_list",
	"submission_search_objects",
}

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Search   SearchConfig   `toml:"search"`
	Server   ServerConfig   `toml:"server"`
	Files    FilesConfig    `toml:"files"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "mysql".
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type SearchConfig struct {
	// PerPage is the default page size when the caller does not specify one.
	PerPage int `toml:"per_page"`
	// LegacyTables lists the host's standard search tables cleared by the
	// truncate-legacy command.
	LegacyTables []string `toml:"legacy_tables"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type FilesConfig struct {
	// Dir is the base directory holding submission files referenced by the
	// host's file records.
	Dir string `toml:"dir"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverPostgres},
		Search: SearchConfig{
			PerPage:      25,
			LegacyTables: append([]string(nil), DefaultLegacyTables...),
		},
		Server: ServerConfig{Addr: ":8981"},
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Database.Driver == "" {
		config.Database.Driver = DriverPostgres
	}
	if config.Database.Driver != DriverPostgres && config.Database.Driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}
	if config.Search.PerPage <= 0 {
		config.Search.PerPage = 25
	}
	if config.Search.LegacyTables == nil {
		config.Search.LegacyTables = append([]string(nil), DefaultLegacyTables...)
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8981"
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the annotated sample config to configPath.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// GetConfigDir returns the configuration directory for ftsearch.
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "ftsearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
