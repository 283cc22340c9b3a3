package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/openpress/ftsearch/pkg/index"
	"github.com/openpress/ftsearch/pkg/search"
)

var (
	searchTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86")).
				Padding(0, 1)

	searchResultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	searchSummaryStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("32"))

	searchNoDataStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	fieldFlags := make([]cli.Flag, 0, len(index.FieldTags()))
	for _, tag := range index.FieldTags() {
		fieldFlags = append(fieldFlags, &cli.StringFlag{
			Name:  tag,
			Usage: fmt.Sprintf("Keywords matched against the %s field", tag),
		})
	}

	return &cli.Command{
		Name:  "search",
		Usage: "Run a ranked search against the index",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Keywords matched against every field",
			},
			&cli.Int64Flag{
				Name:  "context",
				Usage: "Restrict the search to one context",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Results per page",
			},
			&cli.StringFlag{
				Name:  "order-dir",
				Usage: "Sort direction (asc or desc)",
				Value: "desc",
			},
		}, fieldFlags...),
		Action: func(ctx context.Context, c *cli.Command) error {
			return runSearch(ctx, c)
		},
	}
}

func runSearch(ctx context.Context, c *cli.Command) error {
	comps, err := buildComponents(ctx, c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		_ = comps.Close()
	}()

	values := url.Values{}
	if q := c.String("query"); q != "" {
		values.Set("q", q)
	}
	for _, tag := range index.FieldTags() {
		if v := c.String(tag); v != "" {
			values.Set(tag, v)
		}
	}
	if id := c.Int64("context"); id != 0 {
		values.Set("context", fmt.Sprintf("%d", id))
	}
	values.Set("page", fmt.Sprintf("%d", c.Int("page")))
	if perPage := c.Int("per-page"); perPage > 0 {
		values.Set("per_page", fmt.Sprintf("%d", perPage))
	}
	values.Set("order_dir", c.String("order-dir"))

	query, err := search.ParseParams(values, comps.cfg.Search.PerPage)
	if err != nil {
		return err
	}

	result, err := comps.searchService.Search(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println(searchTitleStyle.Render(describeQuery(query)))
	if result.Total == 0 {
		fmt.Println(searchNoDataStyle.Render("No matching submissions."))
		return nil
	}

	for i, id := range result.SubmissionIDs {
		rank := (result.Page-1)*result.PerPage + i + 1
		fmt.Println(searchResultStyle.Render(fmt.Sprintf("%3d. submission %d", rank, id)))
	}
	fmt.Println(searchSummaryStyle.Render(fmt.Sprintf(
		"%d matches, page %d of %d", result.Total, result.Page, totalPages(result))))
	return nil
}

func describeQuery(q index.Query) string {
	caser := cases.Title(language.English)
	var parts []string
	for _, tag := range index.FieldTags() {
		if text, ok := q.Keywords[tag]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", caser.String(tag), text))
		}
	}
	if text, ok := q.Keywords["query"]; ok {
		parts = append(parts, fmt.Sprintf("All Fields: %s", text))
	}
	if len(parts) == 0 {
		parts = append(parts, "All submissions")
	}
	if q.ContextID != 0 {
		parts = append(parts, fmt.Sprintf("(context %d)", q.ContextID))
	}
	return strings.Join(parts, "  ")
}

func totalPages(r search.Result) int {
	if r.PerPage < 1 {
		return 1
	}
	return (r.Total + r.PerPage - 1) / r.PerPage
}
