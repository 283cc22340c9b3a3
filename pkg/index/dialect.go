// Package index implements the full-text search core: the record store over
// the denormalized index table, the metadata normalizer, the indexer driving
// writes, and the query planner producing ranked, paginated searches across
// two storage-engine dialects.
package index

import (
	"fmt"
	"strings"
)

// TableName is the denormalized index table owned by this module.
const TableName = "full_text_search_plugin_index"

// metadataColumns are the flattened metadata fields written on a full
// reindex. galley_text is written only by file indexing.
var metadataColumns = []string{
	"title", "abstract", "authors", "keywords",
	"subjects", "disciplines", "coverage", "type",
}

// searchColumns are every column reachable by a query, in the order an
// unmapped field tag fans out over them.
var searchColumns = []string{
	"authors", "title", "abstract", "galley_text",
	"disciplines", "subjects", "keywords", "type", "coverage",
}

// fieldColumns maps logical field tags to index columns. Tags not present
// here fall back to the full searchColumns union.
var fieldColumns = map[string]string{
	"author":     "authors",
	"title":      "title",
	"abstract":   "abstract",
	"galley":     "galley_text",
	"discipline": "disciplines",
	"subject":    "subjects",
	"keyword":    "keywords",
	"type":       "type",
	"coverage":   "coverage",
}

// Dialect abstracts the two supported storage engines. The planner and Dao
// are written entirely against this interface; one implementation is picked
// at startup from the configured driver.
type Dialect interface {
	Name() string

	// Rebind rewrites `?` placeholders into the engine's syntax.
	Rebind(query string) string

	// UpsertQuery returns the insert-or-update statement for the index
	// table. Bind order: submission_id, context_id, created_at,
	// updated_at, then cols in the given order. Columns not listed stay
	// untouched on update and default to null on insert.
	UpsertQuery(cols []string) string

	// CreateTableQuery returns the DDL for the index table.
	CreateTableQuery() string

	// CreateIndexQueries returns one full-text index definition per
	// searchable column.
	CreateIndexQueries() []string

	// TableExistsQuery returns a query yielding a count > 0 when the
	// index table exists. One `?` bind: the table name.
	TableExistsQuery() string

	// MatchPredicate returns the full-text match predicate for one
	// qualified column. One `?` bind: the query string.
	MatchPredicate(col string) string

	// RankExpression returns the score term for one qualified column.
	// One `?` bind: the query string.
	RankExpression(col string) string
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return TsVectorDialect{}, nil
	case "mysql":
		return NaturalLanguageDialect{}, nil
	}
	return nil, fmt.Errorf("no ranking dialect for driver %q", driver)
}

// TsVectorDialect ranks with PostgreSQL document vectors: a simple
// (unstemmed, unaccented) tokenizer over each column, plainto_tsquery
// parsing, and ts_rank scoring.
type TsVectorDialect struct{}

func (TsVectorDialect) Name() string { return "tsvector" }

func (TsVectorDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (TsVectorDialect) UpsertQuery(cols []string) string {
	insertCols := append([]string{"submission_id", "context_id", "created_at", "updated_at"}, cols...)
	updates := []string{"context_id = excluded.context_id", "updated_at = excluded.updated_at"}
	for _, col := range cols {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (submission_id) DO UPDATE SET %s",
		TableName,
		strings.Join(insertCols, ", "),
		placeholders(len(insertCols)),
		strings.Join(updates, ", "),
	)
}

func (TsVectorDialect) CreateTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE %s (
	id BIGSERIAL PRIMARY KEY,
	context_id BIGINT NOT NULL,
	submission_id BIGINT NOT NULL UNIQUE,
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

func (d TsVectorDialect) CreateIndexQueries() []string {
	queries := make([]string, 0, len(searchColumns))
	for _, col := range searchColumns {
		queries = append(queries, fmt.Sprintf(
			"CREATE INDEX %s_%s ON %s USING GIN (%s)",
			TableName, col, TableName, tsVector(col),
		))
	}
	return queries
}

func (TsVectorDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
}

func (TsVectorDialect) MatchPredicate(col string) string {
	return fmt.Sprintf("%s @@ plainto_tsquery('simple', ?)", tsVector(col))
}

func (TsVectorDialect) RankExpression(col string) string {
	return fmt.Sprintf("ts_rank(%s, plainto_tsquery('simple', ?))", tsVector(col))
}

func tsVector(col string) string {
	return fmt.Sprintf("to_tsvector('simple', coalesce(%s, ''))", col)
}

// NaturalLanguageDialect ranks with MySQL's built-in natural-language
// relevance, one MATCH per candidate column so predicates OR-combine and
// scores sum the same way as the tsvector dialect.
type NaturalLanguageDialect struct{}

func (NaturalLanguageDialect) Name() string { return "natural-language" }

func (NaturalLanguageDialect) Rebind(query string) string { return query }

func (NaturalLanguageDialect) UpsertQuery(cols []string) string {
	insertCols := append([]string{"submission_id", "context_id", "created_at", "updated_at"}, cols...)
	updates := []string{"context_id = VALUES(context_id)", "updated_at = VALUES(updated_at)"}
	for _, col := range cols {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		TableName,
		strings.Join(insertCols, ", "),
		placeholders(len(insertCols)),
		strings.Join(updates, ", "),
	)
}

func (NaturalLanguageDialect) CreateTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE %s (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	context_id BIGINT NOT NULL,
	submission_id BIGINT NOT NULL UNIQUE,
	title TEXT,
	abstract TEXT,
	authors TEXT,
	keywords TEXT,
	subjects TEXT,
	disciplines TEXT,
	coverage TEXT,
	type TEXT,
	galley_text LONGTEXT,
	created_at TIMESTAMP NULL,
	updated_at TIMESTAMP NULL
)`, TableName)
}

func (NaturalLanguageDialect) CreateIndexQueries() []string {
	queries := make([]string, 0, len(searchColumns))
	for _, col := range searchColumns {
		queries = append(queries, fmt.Sprintf(
			"ALTER TABLE %s ADD FULLTEXT %s_%s (%s)",
			TableName, TableName, col, col,
		))
	}
	return queries
}

func (NaturalLanguageDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

func (NaturalLanguageDialect) MatchPredicate(col string) string {
	return fmt.Sprintf("MATCH(%s) AGAINST (? IN NATURAL LANGUAGE MODE)", col)
}

func (NaturalLanguageDialect) RankExpression(col string) string {
	return fmt.Sprintf("MATCH(%s) AGAINST (? IN NATURAL LANGUAGE MODE)", col)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
