package index

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/openpress/ftsearch/pkg/host"
)

// sqliteDialect drives the Dao against in-memory SQLite so its behavior is
// testable without a database server. Upserts reuse the ON CONFLICT form,
// which SQLite shares with PostgreSQL; matching degrades to substring LIKE,
// which is enough to exercise predicate and score plumbing.
type sqliteDialect struct {
	TsVectorDialect
}

func (sqliteDialect) Name() string { return "sqlite-test" }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) CreateTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	context_id INTEGER NOT NULL,
	submission_id INTEGER NOT NULL UNIQUE,
	title TEXT,
	abstract TEXT,
	authors TEXT,
	keywords TEXT,
	subjects TEXT,
	disciplines TEXT,
	coverage TEXT,
	type TEXT,
	galley_text TEXT,
	created_at TIMESTAMP,
	updated_at TIMESTAMP
)`, TableName)
}

func (sqliteDialect) CreateIndexQueries() []string { return nil }

func (sqliteDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (sqliteDialect) MatchPredicate(col string) string {
	return fmt.Sprintf("%s LIKE '%%' || ? || '%%'", col)
}

func (sqliteDialect) RankExpression(col string) string {
	return fmt.Sprintf("(CASE WHEN %s LIKE '%%' || ? || '%%' THEN 1.0 ELSE 0.0 END)", col)
}

func newTestDao(t *testing.T) *Dao {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// single connection so :memory: state survives across queries
	db.SetMaxOpenConns(1)

	dao := NewDao(db, sqliteDialect{})
	if err := dao.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return dao
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	dao := newTestDao(t)
	if !dao.Installed() {
		t.Fatal("dao should be installed after EnsureSchema")
	}
	if err := dao.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema should be a no-op: %v", err)
	}
}

func TestWritesAreNoopsWhenNotInstalled(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dao := NewDao(db, sqliteDialect{})
	ctx := context.Background()

	if err := dao.Upsert(ctx, 1, 1, map[string]string{"title": "x"}); err != nil {
		t.Errorf("upsert should no-op without schema: %v", err)
	}
	if err := dao.DeleteBySubmission(ctx, 1); err != nil {
		t.Errorf("delete should no-op without schema: %v", err)
	}
	if _, _, err := dao.Search(ctx, Query{}); err != ErrNotInstalled {
		t.Errorf("search should fail with ErrNotInstalled, got %v", err)
	}
}

func TestUpsertInsertsAndPartiallyUpdates(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	dao.now = func() time.Time { return t0 }

	err := dao.Upsert(ctx, 42, 7, map[string]string{
		"title":    "Coral Bleaching",
		"abstract": "Thermal stress in reefs",
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// second write touches only galley_text; metadata must survive
	dao.now = func() time.Time { return t1 }
	if err := dao.Upsert(ctx, 42, 7, map[string]string{"galley_text": "full text"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var title, galley string
	var createdAt, updatedAt time.Time
	row := dao.db.QueryRow(
		"SELECT title, galley_text, created_at, updated_at FROM " + TableName + " WHERE submission_id = 42")
	if err := row.Scan(&title, &galley, &createdAt, &updatedAt); err != nil {
		t.Fatalf("reading record back: %v", err)
	}

	if title != "Coral Bleaching" {
		t.Errorf("partial update clobbered title: %q", title)
	}
	if galley != "full text" {
		t.Errorf("galley text not written: %q", galley)
	}
	if !createdAt.Equal(t0) {
		t.Errorf("created_at should keep insert time, got %v", createdAt)
	}
	if !updatedAt.Equal(t1) {
		t.Errorf("updated_at should refresh on update, got %v", updatedAt)
	}

	var count int
	if err := dao.db.QueryRow("SELECT COUNT(*) FROM " + TableName).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("upsert must not duplicate rows, got %d", count)
	}
}

func TestDeleteBySubmission(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	if err := dao.Upsert(ctx, 1, 1, map[string]string{"title": "gone soon"}); err != nil {
		t.Fatal(err)
	}
	if err := dao.DeleteBySubmission(ctx, 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := dao.DeleteBySubmission(ctx, 1); err != nil {
		t.Errorf("deleting a missing record should be a no-op: %v", err)
	}

	var count int
	if err := dao.db.QueryRow("SELECT COUNT(*) FROM " + TableName).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}

func TestClearGalleyText(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	if err := dao.Upsert(ctx, 5, 1, map[string]string{
		"title":       "kept",
		"galley_text": "cleared",
	}); err != nil {
		t.Fatal(err)
	}
	if err := dao.ClearGalleyText(ctx, 5); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	var title string
	var galley sql.NullString
	row := dao.db.QueryRow("SELECT title, galley_text FROM " + TableName + " WHERE submission_id = 5")
	if err := row.Scan(&title, &galley); err != nil {
		t.Fatal(err)
	}
	if title != "kept" {
		t.Errorf("clearing galley text must not touch metadata: %q", title)
	}
	if galley.Valid {
		t.Errorf("expected null galley text, got %q", galley.String)
	}

	if err := dao.ClearGalleyText(ctx, 999); err != nil {
		t.Errorf("clearing a missing record should be a no-op: %v", err)
	}
}

func TestPruneUnpublished(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	mustExec(t, dao.db, `CREATE TABLE submissions (
		submission_id INTEGER PRIMARY KEY,
		context_id INTEGER NOT NULL,
		status INTEGER NOT NULL,
		current_publication_id INTEGER
	)`)
	mustExec(t, dao.db,
		"INSERT INTO submissions (submission_id, context_id, status) VALUES (1, 1, ?), (2, 1, ?), (3, 2, ?)",
		host.StatusPublished, host.StatusDeclined, host.StatusDeclined)

	for _, id := range []int64{1, 2} {
		if err := dao.Upsert(ctx, id, 1, map[string]string{"title": "t"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := dao.Upsert(ctx, 3, 2, map[string]string{"title": "t"}); err != nil {
		t.Fatal(err)
	}

	// prune only context 1; the declined submission in context 2 stays
	if err := dao.PruneUnpublished(ctx, []int64{1, 0}); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	remaining := indexedIDs(t, dao.db)
	if len(remaining) != 2 || remaining[0] != 1 || remaining[1] != 3 {
		t.Errorf("expected submissions [1 3] to remain, got %v", remaining)
	}
}

func TestClearLegacyTables(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	mustExec(t, dao.db, "CREATE TABLE submission_search_objects (id INTEGER)")
	mustExec(t, dao.db, "INSERT INTO submission_search_objects VALUES (1), (2)")

	if err := dao.ClearLegacyTables(ctx, []string{"submission_search_objects"}); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	var count int
	if err := dao.db.QueryRow("SELECT COUNT(*) FROM submission_search_objects").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected legacy table emptied, got %d rows", count)
	}

	if err := dao.ClearLegacyTables(ctx, []string{"no_such_table"}); err == nil {
		t.Error("expected error for missing legacy table")
	}
}

func TestSearchRanksAndPaginates(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	seed := []struct {
		id     int64
		fields map[string]string
	}{
		{1, map[string]string{"title": "whale migration", "abstract": "whale song patterns"}},
		{2, map[string]string{"title": "whale anatomy", "abstract": "bone structure"}},
		{3, map[string]string{"title": "plankton blooms", "abstract": "seasonal cycles"}},
	}
	for _, s := range seed {
		if err := dao.Upsert(ctx, s.id, 1, s.fields); err != nil {
			t.Fatal(err)
		}
	}

	ids, total, err := dao.Search(ctx, Query{
		ContextID: 1,
		Keywords:  map[string]string{"any": "whale"},
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	// submission 1 matches title and abstract, so it scores above 2
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("expected [1 2] in rank order, got %v", ids)
	}
}

func TestSearchFieldScoping(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	if err := dao.Upsert(ctx, 1, 1, map[string]string{"title": "glacier retreat"}); err != nil {
		t.Fatal(err)
	}
	if err := dao.Upsert(ctx, 2, 1, map[string]string{"abstract": "glacier mass balance"}); err != nil {
		t.Fatal(err)
	}

	ids, total, err := dao.Search(ctx, Query{
		Keywords: map[string]string{"title": "glacier"},
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || len(ids) != 1 || ids[0] != 1 {
		t.Errorf("title-scoped search should only hit submission 1, got ids=%v total=%d", ids, total)
	}
}

func TestSearchNoMatches(t *testing.T) {
	dao := newTestDao(t)

	ids, total, err := dao.Search(context.Background(), Query{
		Keywords: map[string]string{"title": "nothing here"},
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 0 || ids != nil {
		t.Errorf("expected empty result, got ids=%v total=%d", ids, total)
	}
}

func TestSearchPagination(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if err := dao.Upsert(ctx, i, 1, map[string]string{"title": "ocean currents"}); err != nil {
			t.Fatal(err)
		}
	}

	ids, total, err := dao.Search(ctx, Query{
		Keywords: map[string]string{"title": "ocean"},
		Page:     2,
		PerPage:  2,
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total should ignore pagination, got %d", total)
	}
	if len(ids) != 2 {
		t.Errorf("expected page of 2, got %v", ids)
	}
}

func TestSearchExcludes(t *testing.T) {
	dao := newTestDao(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if err := dao.Upsert(ctx, i, 1, map[string]string{"title": "soil chemistry"}); err != nil {
			t.Fatal(err)
		}
	}

	ids, total, err := dao.Search(ctx, Query{
		Keywords: map[string]string{"title": "soil"},
		Exclude:  []int64{2},
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	for _, id := range ids {
		if id == 2 {
			t.Errorf("excluded submission returned: %v", ids)
		}
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func indexedIDs(t *testing.T, db *sql.DB) []int64 {
	t.Helper()
	rows, err := db.Query("SELECT submission_id FROM " + TableName + " ORDER BY submission_id")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return ids
}
