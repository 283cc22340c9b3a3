package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotInstalled is returned by operations attempted while the index table
// is missing (schema creation failed or never ran).
var ErrNotInstalled = errors.New("index: schema not installed")

// EnsureSchema creates the index table and its full-text indexes if absent.
// On success the Dao flips to installed and stays there. On failure the Dao
// remains uninstalled: writes become no-ops and searches fail, but the
// caller's workflow is never blocked by the error returned here.
func (d *Dao) EnsureSchema(ctx context.Context) error {
	exists, err := d.tableExists(ctx)
	if err != nil {
		d.logger.Errorf("checking for table %s: %v", TableName, err)
		return fmt.Errorf("checking for table %s: %w", TableName, err)
	}
	if exists {
		d.installed.Store(true)
		return nil
	}

	if _, err := d.db.ExecContext(ctx, d.dialect.CreateTableQuery()); err != nil {
		d.logger.Errorf("creating table %s: %v", TableName, err)
		return fmt.Errorf("creating table %s: %w", TableName, err)
	}
	for _, query := range d.dialect.CreateIndexQueries() {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			d.logger.Errorf("creating full-text index: %v", err)
			return fmt.Errorf("creating full-text index: %w", err)
		}
	}

	d.logger.Infof("created %s with %s full-text indexes", TableName, d.dialect.Name())
	d.installed.Store(true)
	return nil
}

// Installed reports whether the index table is usable.
func (d *Dao) Installed() bool {
	return d.installed.Load()
}

func (d *Dao) tableExists(ctx context.Context) (bool, error) {
	query := d.dialect.Rebind(d.dialect.TableExistsQuery())
	var count int
	if err := d.db.QueryRowContext(ctx, query, TableName).Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}
