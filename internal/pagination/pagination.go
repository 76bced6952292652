// Package pagination builds pagination links and sortable table headers for
// list pages.
package pagination

import (
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Link is a previous or next link
type Link struct {
	Text string
	Href string
}

// Item is a numbered page link or an ellipsis
type Item struct {
	Number   int
	Href     string
	Current  bool
	Ellipsis bool
}

// Pagination is what the pagination component renders
type Pagination struct {
	Previous *Link
	Next     *Link
	Items    []Item
}

// IsEmpty reports whether there is nothing to render
func (p Pagination) IsEmpty() bool {
	return len(p.Items) == 0
}

// Build returns the links for page current of total. The first and last pages
// and the neighbours of the current page are always shown; other runs collapse
// into an ellipsis unless the run is a single page.
func Build(current, total int, hrefPrefix string) Pagination {
	if total <= 1 {
		return Pagination{}
	}
	current = min(max(current, 1), total)

	href := func(n int) string { return hrefPrefix + "page=" + strconv.Itoa(n) }

	var p Pagination
	if current > 1 {
		p.Previous = &Link{Text: "Previous", Href: href(current - 1)}
	}
	if current < total {
		p.Next = &Link{Text: "Next", Href: href(current + 1)}
	}

	shown := func(n int) bool {
		return n == 1 || n == total || (n >= current-1 && n <= current+1)
	}

	for n := 1; n <= total; n++ {
		if shown(n) {
			p.Items = append(p.Items, Item{Number: n, Href: href(n), Current: n == current})
			continue
		}
		// a hidden run of one page is shown rather than replaced by an ellipsis
		if shown(n-1) && shown(n+1) {
			p.Items = append(p.Items, Item{Number: n, Href: href(n)})
			continue
		}
		if last := len(p.Items) - 1; last < 0 || !p.Items[last].Ellipsis {
			p.Items = append(p.Items, Item{Ellipsis: true})
		}
	}
	return p
}

// HrefPrefix returns base followed by a query string built from params, ready
// for further parameters to be appended. Empty values are dropped and keys
// are sorted.
func HrefPrefix(base string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('?')
	for _, k := range keys {
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
		b.WriteByte('&')
	}
	return b.String()
}

// Direction is a sort direction
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort is a requested ordering
type Sort struct {
	Field     string
	Direction Direction
}

// ParseSort reads sortBy and sortDirection from a query, falling back to def
// when the field is not allowed
func ParseSort(query url.Values, allowed []string, def Sort) Sort {
	s := def
	if field := query.Get("sortBy"); slices.Contains(allowed, field) {
		s.Field = field
	}
	switch Direction(query.Get("sortDirection")) {
	case Ascending:
		s.Direction = Ascending
	case Descending:
		s.Direction = Descending
	}
	return s
}

// ParsePage reads the page number from a query, defaulting to 1
func ParsePage(query url.Values) int {
	n, err := strconv.Atoi(query.Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Header is a sortable table column heading
type Header struct {
	Text     string
	Href     string
	AriaSort string
}

// SortHeader returns the heading for a column. The column sorted on links to
// the opposite direction; other columns link to ascending.
func SortHeader(text, field string, current Sort, hrefPrefix string) Header {
	h := Header{Text: text, AriaSort: "none"}
	next := Ascending
	if field == current.Field {
		if current.Direction == Descending {
			h.AriaSort = "descending"
		} else {
			h.AriaSort = "ascending"
			next = Descending
		}
	}
	h.Href = hrefPrefix + "sortBy=" + url.QueryEscape(field) + "&sortDirection=" + string(next)
	return h
}
