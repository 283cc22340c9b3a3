package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("default driver: expected %q, got %q", DriverPostgres, cfg.Database.Driver)
	}
	if cfg.Search.PerPage != 25 {
		t.Errorf("default per_page: expected 25, got %d", cfg.Search.PerPage)
	}
	if len(cfg.Search.LegacyTables) != 2 {
		t.Errorf("default legacy tables: expected 2, got %d", len(cfg.Search.LegacyTables))
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
driver = "mysql"
dsn = "user:pass@tcp(localhost:3306)/ojs"

[search]
per_page = 10
legacy_tables = ["a", "b", "c"]

[server]
addr = ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("driver: expected mysql, got %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "user:pass@tcp(localhost:3306)/ojs" {
		t.Errorf("unexpected dsn %q", cfg.Database.DSN)
	}
	if cfg.Search.PerPage != 10 {
		t.Errorf("per_page: expected 10, got %d", cfg.Search.PerPage)
	}
	if len(cfg.Search.LegacyTables) != 3 {
		t.Errorf("legacy tables: expected 3, got %d", len(cfg.Search.LegacyTables))
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr: expected :9000, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[database]\ndriver = \"oracle\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := GetDefaultConfig()
	cfg.Database.DSN = "postgres://x"
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Database.DSN != "postgres://x" {
		t.Errorf("round trip lost DSN, got %q", loaded.Database.DSN)
	}
}
