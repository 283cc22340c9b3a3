package cmd

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/openpress/ftsearch/pkg/config"
	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/index"
	"github.com/openpress/ftsearch/pkg/lifecycle"
	"github.com/openpress/ftsearch/pkg/parser"
	"github.com/openpress/ftsearch/pkg/search"
)

// sqlDriverName maps a configured driver to its database/sql registration.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres:
		return "pgx", nil
	case config.DriverMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// openDB connects to the configured database and picks the matching ranking
// dialect.
func openDB(cfg *config.Config) (*sql.DB, index.Dialect, error) {
	driverName, err := sqlDriverName(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}

	dialect, err := index.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driverName, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, dialect, nil
}

// components bundles the wired core for commands.
type components struct {
	db            *sql.DB
	dao           *index.Dao
	reader        *host.SQLReader
	coordinator   *lifecycle.Coordinator
	searchService *search.Service
	cfg           *config.Config
}

func (c *components) Close() error {
	return c.db.Close()
}

// buildComponents loads the config, connects, and wires the indexing core.
// Schema creation failures leave the Dao in its degraded not-installed state
// rather than aborting, matching activation-time behavior.
func buildComponents(ctx context.Context, configPath string) (*components, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, dialect, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	dao := index.NewDao(db, dialect)
	if err := dao.EnsureSchema(ctx); err != nil {
		// logged inside; index writes no-op until the schema exists
		fmt.Printf("Warning: search index schema unavailable: %v\n", err)
	}

	reader := host.NewSQLReader(db, dialect.Rebind)
	indexer := index.NewIndexer(reader, parser.NewDirParser(cfg.Files.Dir), dao)

	return &components{
		db:            db,
		dao:           dao,
		reader:        reader,
		coordinator:   lifecycle.NewCoordinator(reader, indexer, dao),
		searchService: search.NewService(dao),
		cfg:           cfg,
	}, nil
}
