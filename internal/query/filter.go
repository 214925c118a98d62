// Package query turns catalog filter requests into parameterized SQL.
//
// Normalization never rejects a cosmetic mistake: unknown sort keys, orders,
// categories and difficulties fall back to defaults, pagination is clamped.
// Caller text only ever reaches the database as a bound argument.
package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prompthero/backend/internal/models"
)

// Pagination and search limits.
const (
	DefaultPage      = 1
	MaxPage          = 1_000_000
	DefaultLimit     = 20
	MinLimit         = 1
	MaxLimit         = 100
	MaxSearchLength  = 200
	MaxSearchTerms   = 8
	MinTermLength    = 2
	CategoryAll      = "all"
	tagForbiddenRune = `{}",\`
)

type Sort string

const (
	SortNewest       Sort = "newest"
	SortOldest       Sort = "oldest"
	SortCreatedAt    Sort = "created_at"
	SortUpdatedAt    Sort = "updated_at"
	SortTitle        Sort = "title"
	SortRating       Sort = "rating"
	SortPopular      Sort = "popular"
	SortUsageCount   Sort = "usage_count"
	SortAlphabetical Sort = "alphabetical"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Request is the raw filter request as bound from the query string.
// Non-numeric page/limit or non-boolean flags fail binding before they get here.
type Request struct {
	Search     string   `form:"search"`
	Category   string   `form:"category"`
	Tags       []string `form:"tags"`
	Difficulty string   `form:"difficulty"`
	Featured   bool     `form:"featured"`
	Trending   bool     `form:"trending"`
	Sort       string   `form:"sort"`
	Order      string   `form:"order"`
	Page       int      `form:"page"`
	Limit      int      `form:"limit"`
}

// Filter is a normalized Request. Empty string fields mean "no filter".
type Filter struct {
	Search     string
	Terms      []string
	Category   string
	Tags       []string
	Difficulty string
	Featured   bool
	Trending   bool
	Sort       Sort
	Order      Order
	Page       int
	Limit      int
}

// Offset is the number of rows skipped before the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Searching reports whether relevance ranking applies.
func (f Filter) Searching() bool {
	return len(f.Terms) > 0
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"for": true, "to": true, "in": true, "on": true, "with": true, "is": true,
	"are": true, "how": true, "do": true, "me": true, "my": true,
	"please": true, "help": true,
}

// Normalize validates and coerces every field of r independently.
func Normalize(r Request) Filter {
	f := Filter{
		Search:     NormalizeSearch(r.Search),
		Category:   normalizeCategory(r.Category),
		Tags:       NormalizeTags(r.Tags),
		Difficulty: normalizeDifficulty(r.Difficulty),
		Featured:   r.Featured,
		Trending:   r.Trending,
		Page:       r.Page,
		Limit:      r.Limit,
	}
	f.Terms = SearchTerms(f.Search)
	f.Sort = ResolveSort(r.Sort, r.Trending)
	f.Order = ResolveOrder(r.Order)

	switch {
	case f.Page < 1:
		f.Page = DefaultPage
	case f.Page > MaxPage:
		f.Page = MaxPage
	}
	switch {
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit < MinLimit:
		f.Limit = MinLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	return f
}

// DefaultSort is newest first, or engagement first for trending listings.
func DefaultSort(trending bool) Sort {
	if trending {
		return SortPopular
	}
	return SortNewest
}

// ResolveSort maps raw onto the allow-list, falling back to DefaultSort.
func ResolveSort(raw string, trending bool) Sort {
	s := Sort(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := sortColumns[s]; ok {
		return s
	}
	return DefaultSort(trending)
}

func ResolveOrder(raw string) Order {
	if Order(strings.ToLower(strings.TrimSpace(raw))) == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}

// NormalizeSearch trims, case-folds, collapses whitespace and caps the text.
func NormalizeSearch(raw string) string {
	s := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if utf8.RuneCountInString(s) > MaxSearchLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxSearchLength]))
	}
	return s
}

// SearchTerms splits normalized search text into match terms. When every word
// is filtered out the whole text is used as a single term.
func SearchTerms(search string) []string {
	if search == "" {
		return nil
	}

	seen := make(map[string]bool)
	var terms []string
	for _, word := range strings.Fields(search) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) && r != '#' && r != '+'
		})
		if utf8.RuneCountInString(word) < MinTermLength || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
		if len(terms) == MaxSearchTerms {
			break
		}
	}

	if len(terms) == 0 {
		return []string{search}
	}
	return terms
}

// NormalizeTags accepts repeated and comma-separated values and returns at
// most models.MaxTags distinct, lower-cased tags.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0, len(raw))
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			tag := NormalizeTag(part)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
			if len(tags) == models.MaxTags {
				return tags
			}
		}
	}
	return tags
}

// NormalizeTag returns the canonical form of a single tag, or "" when the
// tag is empty or longer than models.MaxTagLength.
func NormalizeTag(raw string) string {
	tag := strings.Map(func(r rune) rune {
		if strings.ContainsRune(tagForbiddenRune, r) {
			return -1
		}
		return r
	}, strings.ToLower(raw))
	tag = strings.Join(strings.Fields(tag), "-")
	if utf8.RuneCountInString(tag) > models.MaxTagLength {
		return ""
	}
	return tag
}

func normalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == CategoryAll || !models.IsValidCategory(c) {
		return ""
	}
	return c
}

func normalizeDifficulty(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if !models.IsValidDifficulty(d) {
		return ""
	}
	return d
}
