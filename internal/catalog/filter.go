// Package catalog filters, sorts and pages the style catalog. The pure
// functions back GET /api/styles; Pager keeps the listing state for clients.
package catalog

import (
	"sort"
	"strings"

	"omifemcuts/pkg/domain"
)

// AllCategories is the category selector that disables category filtering.
const AllCategories = "all"

type Sort string

const (
	SortNewest  Sort = "newest"
	SortPopular Sort = "popular"
)

// ParseSort maps a query value to a Sort. Empty input means newest.
func ParseSort(raw string) (Sort, bool) {
	switch Sort(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortNewest:
		return SortNewest, true
	case SortPopular:
		return SortPopular, true
	default:
		return "", false
	}
}

// Filter narrows the catalog. A zero Filter matches everything.
type Filter struct {
	// Category is empty for "all".
	Category domain.Category
	Query    string
}

// ParseFilter builds a Filter from request values, accepting "all" or "" for any category.
func ParseFilter(category, query string) (Filter, bool) {
	f := Filter{Query: strings.TrimSpace(query)}
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		return f, true
	}
	c, ok := domain.ParseCategory(category)
	if !ok {
		return Filter{}, false
	}
	f.Category = c
	return f, true
}

// Active reports whether the filter narrows the set.
func (f Filter) Active() bool {
	return f.Category != "" || strings.TrimSpace(f.Query) != ""
}

// Match reports whether s passes the filter. The query is a case-insensitive
// substring of the title, the description or any tag.
func (f Filter) Match(s domain.Style) bool {
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.Description), q) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Apply returns the styles matching f in the requested order. The input is not modified.
func Apply(styles []domain.Style, f Filter, by Sort) []domain.Style {
	out := make([]domain.Style, 0, len(styles))
	for _, s := range styles {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	Order(out, by)
	return out
}

// Order sorts styles in place. Popular ties fall back to newest first, then id.
func Order(styles []domain.Style, by Sort) {
	sort.SliceStable(styles, func(i, j int) bool {
		a, b := styles[i], styles[j]
		if by == SortPopular && a.LikeCount() != b.LikeCount() {
			return a.LikeCount() > b.LikeCount()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Window returns the first shown items and whether any remain beyond them.
func Window[T any](items []T, shown int) ([]T, bool) {
	return Slice(items, 0, shown)
}

// Slice returns items[offset:offset+limit] clamped to bounds, and whether
// items remain after the slice.
func Slice[T any](items []T, offset, limit int) ([]T, bool) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}, false
	}
	if limit <= 0 {
		return []T{}, true
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], end < len(items)
}
