package index

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/log"
)

// Dao is the single owner of the index table. All reads and writes to
// full_text_search_plugin_index go through it; it holds no caches, so every
// write is immediately visible.
type Dao struct {
	db        *sql.DB
	dialect   Dialect
	installed atomic.Bool
	logger    *log.Logger

	// now is swappable for deterministic timestamps in tests.
	now func() time.Time
}

func NewDao(db *sql.DB, dialect Dialect) *Dao {
	return &Dao{
		db:      db,
		dialect: dialect,
		logger:  log.ForService("dao"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dialect returns the ranking dialect the Dao was built with.
func (d *Dao) Dialect() Dialect {
	return d.dialect
}

// Upsert inserts or updates the record for submissionID. Fields maps column
// names to values; columns absent from the map keep their stored value on
// update and default to null on insert. updated_at always refreshes;
// created_at is set only on insert.
func (d *Dao) Upsert(ctx context.Context, submissionID, contextID int64, fields map[string]string) error {
	if !d.Installed() {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	now := d.now()
	args := []any{submissionID, contextID, now, now}
	for _, col := range cols {
		args = append(args, fields[col])
	}

	query := d.dialect.Rebind(d.dialect.UpsertQuery(cols))
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting submission %d: %w", submissionID, err)
	}
	return nil
}

// DeleteBySubmission removes the record; missing records are not an error.
func (d *Dao) DeleteBySubmission(ctx context.Context, submissionID int64) error {
	if !d.Installed() {
		return nil
	}

	query := d.dialect.Rebind(fmt.Sprintf(
		"DELETE FROM %s WHERE submission_id = ?", TableName))
	if _, err := d.db.ExecContext(ctx, query, submissionID); err != nil {
		return fmt.Errorf("deleting submission %d from index: %w", submissionID, err)
	}
	return nil
}

// ClearGalleyText nulls the stored galley text and refreshes updated_at;
// a missing record is a no-op.
func (d *Dao) ClearGalleyText(ctx context.Context, submissionID int64) error {
	if !d.Installed() {
		return nil
	}

	query := d.dialect.Rebind(fmt.Sprintf(
		"UPDATE %s SET galley_text = NULL, updated_at = ? WHERE submission_id = ?", TableName))
	if _, err := d.db.ExecContext(ctx, query, d.now(), submissionID); err != nil {
		return fmt.Errorf("clearing galley text for submission %d: %w", submissionID, err)
	}
	return nil
}

// PruneUnpublished deletes every record in the given contexts whose
// submission is no longer published. Status is read from the host's
// submissions table, never from the index, since it is authoritative there.
func (d *Dao) PruneUnpublished(ctx context.Context, contextIDs []int64) error {
	if !d.Installed() {
		return nil
	}

	query := d.dialect.Rebind(fmt.Sprintf(`
		DELETE FROM %s
		WHERE context_id = ? AND submission_id IN (
			SELECT submission_id FROM submissions
			WHERE context_id = ? AND status <> ?
		)`, TableName))

	for _, contextID := range contextIDs {
		if contextID == 0 {
			continue
		}
		if _, err := d.db.ExecContext(ctx, query, contextID, contextID, host.StatusPublished); err != nil {
			return fmt.Errorf("pruning unpublished submissions in context %d: %w", contextID, err)
		}
	}
	return nil
}

// ClearLegacyTables deletes all rows from the host's standard search tables.
// The table set is configuration: host API generations disagree on it.
func (d *Dao) ClearLegacyTables(ctx context.Context, tables []string) error {
	for _, table := range tables {
		if _, err := d.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing legacy table %s: %w", table, err)
		}
	}
	return nil
}

// Search executes a planned query and returns the page of submission ids in
// rank order plus the total match count before pagination.
func (d *Dao) Search(ctx context.Context, q Query) ([]int64, int, error) {
	if !d.Installed() {
		return nil, 0, ErrNotInstalled
	}

	p := buildPlan(d.dialect, q)

	var total int
	if err := d.db.QueryRowContext(ctx, p.countSQL, p.countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting search results: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := d.db.QueryContext(ctx, p.idsSQL, p.idsArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying search results: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, 0, fmt.Errorf("scanning search result: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading search results: %w", err)
	}
	return ids, total, nil
}
