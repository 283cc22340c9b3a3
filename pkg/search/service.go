// Package search is the read-side boundary: it parses caller search
// parameters into planner queries and converts every internal failure into
// one opaque error so callers never see storage details.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openpress/ftsearch/pkg/index"
	"github.com/openpress/ftsearch/pkg/log"
)

// ErrSearchFailed is the only error callers see when a search cannot run.
// The underlying cause is logged, never returned.
var ErrSearchFailed = errors.New("search failed")

// Result is one page of ranked submission ids plus the total match count
// before pagination.
type Result struct {
	SubmissionIDs []int64 `json:"submission_ids"`
	Total         int     `json:"total"`
	Page          int     `json:"page"`
	PerPage       int     `json:"per_page"`
}

// Service executes searches against the index.
type Service struct {
	dao    *index.Dao
	logger *log.Logger
}

func NewService(dao *index.Dao) *Service {
	return &Service{
		dao:    dao,
		logger: log.ForService("search"),
	}
}

// Search runs q and returns its result page. Failures yield an empty result
// and ErrSearchFailed; the cause goes to the log only.
func (s *Service) Search(ctx context.Context, q index.Query) (Result, error) {
	if q.PerPage < 1 {
		q.PerPage = index.DefaultPerPage
	}
	if q.Page < 1 {
		q.Page = 1
	}

	ids, total, err := s.dao.Search(ctx, q)
	if err != nil {
		s.logger.Errorf("search failed: %v", err)
		return Result{}, ErrSearchFailed
	}

	return Result{
		SubmissionIDs: ids,
		Total:         total,
		Page:          q.Page,
		PerPage:       q.PerPage,
	}, nil
}

// ParseParams builds a query from URL-style parameters:
//
//	q          generic keywords matched across every field
//	title, author, abstract, galley, keyword, subject,
//	discipline, type, coverage
//	           field-scoped keywords
//	context    numeric context id (0 or absent searches all)
//	exclude    submission ids to skip, repeatable or comma-separated
//	page       1-based page number
//	per_page   page size
//	order_dir  asc or desc
//	from, to   published-date bounds, YYYY-MM-DD
func ParseParams(values url.Values, defaultPerPage int) (index.Query, error) {
	if defaultPerPage < 1 {
		defaultPerPage = index.DefaultPerPage
	}

	q := index.Query{
		Keywords: map[string]string{},
		Page:     1,
		PerPage:  defaultPerPage,
		OrderDir: "desc",
	}

	if generic := strings.TrimSpace(values.Get("q")); generic != "" {
		q.Keywords["query"] = generic
	}
	for _, tag := range index.FieldTags() {
		if v := strings.TrimSpace(values.Get(tag)); v != "" {
			q.Keywords[tag] = v
		}
	}

	if v := values.Get("context"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			return index.Query{}, fmt.Errorf("invalid context %q", v)
		}
		q.ContextID = id
	}

	for _, raw := range values["exclude"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return index.Query{}, fmt.Errorf("invalid exclude id %q", part)
			}
			q.Exclude = append(q.Exclude, id)
		}
	}

	if v := values.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			q.Page = page
		}
	}
	if v := values.Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 {
			q.PerPage = perPage
		}
	}
	if v := values.Get("order_dir"); v != "" {
		q.OrderDir = v
	}

	if v := values.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return index.Query{}, fmt.Errorf("invalid from date %q", v)
		}
		q.PublishedFrom = &t
	}
	if v := values.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return index.Query{}, fmt.Errorf("invalid to date %q", v)
		}
		q.PublishedTo = &t
	}

	return q, nil
}
