package index

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/openpress/ftsearch/pkg/host"
)

// tagPattern matches HTML/XML tags in rich-text metadata (abstracts and
// titles may carry markup from the host's editor).
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CleanText strips markup, decodes entities, collapses whitespace runs to a
// single space, and NFC-normalizes. The index stores only plain text.
func CleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// flattenString joins all locale variants of a value, locales in sorted
// order so the output is stable across runs.
func flattenString(ls host.LocalizedString) string {
	locales := make([]string, 0, len(ls))
	for locale, value := range ls {
		if value != "" {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales)

	parts := make([]string, 0, len(locales))
	for _, locale := range locales {
		if cleaned := CleanText(ls[locale]); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}

// flattenList joins every entry of every locale variant, locales sorted,
// entries kept in host order within a locale.
func flattenList(ll host.LocalizedList) string {
	locales := make([]string, 0, len(ll))
	for locale, values := range ll {
		if len(values) > 0 {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales)

	var parts []string
	for _, locale := range locales {
		for _, value := range ll[locale] {
			if cleaned := CleanText(value); cleaned != "" {
				parts = append(parts, cleaned)
			}
		}
	}
	return strings.Join(parts, " ")
}

// flattenAuthors builds one searchable blob from all authors of a
// publication. Each author contributes their preferred public name where one
// is set, given and family name otherwise, plus affiliation.
func flattenAuthors(authors []host.Author) string {
	var parts []string
	for _, a := range authors {
		if preferred := flattenString(a.PreferredPublicName); preferred != "" {
			parts = append(parts, preferred)
		} else {
			if given := flattenString(a.GivenName); given != "" {
				parts = append(parts, given)
			}
			if family := flattenString(a.FamilyName); family != "" {
				parts = append(parts, family)
			}
		}
		if affiliation := flattenString(a.Affiliation); affiliation != "" {
			parts = append(parts, affiliation)
		}
	}
	return strings.Join(parts, " ")
}

// FlattenPublication maps a publication's localized metadata onto the index
// columns. Every metadata column is present in the result, empty values
// included, so a reindex overwrites stale text.
func FlattenPublication(pub *host.Publication) map[string]string {
	return map[string]string{
		"title":       flattenString(pub.Title),
		"abstract":    flattenString(pub.Abstract),
		"authors":     flattenAuthors(pub.Authors),
		"keywords":    flattenList(pub.Keywords),
		"subjects":    flattenList(pub.Subjects),
		"disciplines": flattenList(pub.Disciplines),
		"coverage":    flattenString(pub.Coverage),
		"type":        flattenString(pub.Type),
	}
}
