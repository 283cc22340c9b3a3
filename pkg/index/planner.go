package index

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultPerPage is used when a query does not specify a page size.
const DefaultPerPage = 25

// Query describes one ranked search over the index table.
type Query struct {
	// ContextID scopes the search to one context; 0 searches all.
	ContextID int64

	// Keywords maps field tags to query strings. A tag mapping to a known
	// column searches that column; any other tag fans out over every
	// searchable column. Entries AND-combine; the columns of one entry
	// OR-combine. Empty query strings are ignored.
	Keywords map[string]string

	// OrderBy is accepted for interface compatibility; score is the only
	// supported sort key and anything else falls back to it.
	OrderBy  string
	OrderDir string

	// Exclude lists submission ids never to return.
	Exclude []int64

	Page    int
	PerPage int

	// PublishedFrom/PublishedTo bound the current publication's
	// published date (inclusive) when set.
	PublishedFrom *time.Time
	PublishedTo   *time.Time
}

// plan holds the two executable statements derived from a Query: the
// unpaginated count and the paginated, rank-ordered id page.
type plan struct {
	countSQL  string
	countArgs []any
	idsSQL    string
	idsArgs   []any
}

// buildPlan assembles the search SQL for a dialect. The count statement
// shares the full predicate set with the page statement and runs without
// limit/offset, so totals are exact rather than estimated.
func buildPlan(d Dialect, q Query) plan {
	var where []string
	var whereArgs []any
	var scores []string
	var scoreArgs []any

	if q.ContextID != 0 {
		where = append(where, "fts.context_id = ?")
		whereArgs = append(whereArgs, q.ContextID)
	}

	if len(q.Exclude) > 0 {
		where = append(where, fmt.Sprintf(
			"fts.submission_id NOT IN (%s)", placeholders(len(q.Exclude))))
		for _, id := range q.Exclude {
			whereArgs = append(whereArgs, id)
		}
	}

	// Iterate field tags in sorted order so the same query always plans to
	// the same SQL.
	tags := make([]string, 0, len(q.Keywords))
	for tag := range q.Keywords {
		if q.Keywords[tag] != "" {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	for _, tag := range tags {
		text := q.Keywords[tag]
		cols := columnsForTag(tag)

		predicates := make([]string, 0, len(cols))
		for _, col := range cols {
			qualified := "fts." + col
			predicates = append(predicates, d.MatchPredicate(qualified))
			whereArgs = append(whereArgs, text)
			scores = append(scores, d.RankExpression(qualified))
			scoreArgs = append(scoreArgs, text)
		}
		where = append(where, "("+strings.Join(predicates, " OR ")+")")
	}

	scoreExpr := "1"
	if len(scores) > 0 {
		scoreExpr = strings.Join(scores, " + ")
	}

	from := "FROM " + TableName + " fts"
	if q.PublishedFrom != nil || q.PublishedTo != nil {
		from += `
		JOIN submissions s ON s.submission_id = fts.submission_id
		JOIN publications p ON p.publication_id = s.current_publication_id`
		if q.PublishedFrom != nil {
			where = append(where, "p.date_published >= ?")
			whereArgs = append(whereArgs, *q.PublishedFrom)
		}
		if q.PublishedTo != nil {
			where = append(where, "p.date_published <= ?")
			whereArgs = append(whereArgs, *q.PublishedTo)
		}
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	orderDir := "DESC"
	if strings.EqualFold(q.OrderDir, "asc") {
		orderDir = "ASC"
	}

	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	offset := (q.Page - 1) * perPage
	if offset < 0 {
		offset = 0
	}

	countSQL := "SELECT COUNT(*) " + from + whereClause
	idsSQL := fmt.Sprintf(
		"SELECT fts.submission_id, %s AS score %s%s ORDER BY score %s LIMIT ? OFFSET ?",
		scoreExpr, from, whereClause, orderDir,
	)

	idsArgs := make([]any, 0, len(scoreArgs)+len(whereArgs)+2)
	idsArgs = append(idsArgs, scoreArgs...)
	idsArgs = append(idsArgs, whereArgs...)
	idsArgs = append(idsArgs, perPage, offset)

	return plan{
		countSQL:  d.Rebind(countSQL),
		countArgs: whereArgs,
		idsSQL:    d.Rebind(idsSQL),
		idsArgs:   idsArgs,
	}
}

// columnsForTag resolves a field tag to its column, or to every searchable
// column when the tag is unknown (generic searches use an unmapped tag).
func columnsForTag(tag string) []string {
	if col, ok := fieldColumns[tag]; ok {
		return []string{col}
	}
	return searchColumns
}

// FieldTags returns the known field tags in sorted order.
func FieldTags() []string {
	tags := make([]string, 0, len(fieldColumns))
	for tag := range fieldColumns {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
