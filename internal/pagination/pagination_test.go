package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbers(p Pagination) []int {
	var out []int
	for _, it := range p.Items {
		if it.Ellipsis {
			out = append(out, 0)
			continue
		}
		out = append(out, it.Number)
	}
	return out
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int // 0 is an ellipsis
	}{
		{"single page", 1, 1, nil},
		{"few pages", 2, 3, []int{1, 2, 3}},
		{"start of many", 1, 10, []int{1, 2, 0, 10}},
		{"middle of many", 5, 10, []int{1, 0, 4, 5, 6, 0, 10}},
		{"single hidden page is shown", 4, 10, []int{1, 2, 3, 4, 5, 0, 10}},
		{"end of many", 10, 10, []int{1, 0, 9, 10}},
		{"out of range is clamped", 50, 4, []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numbers(Build(tt.current, tt.total, "/x?")))
		})
	}
}

func TestBuildLinks(t *testing.T) {
	p := Build(2, 3, "/premises?sortBy=name&")
	if assert.NotNil(t, p.Previous) {
		assert.Equal(t, "/premises?sortBy=name&page=1", p.Previous.Href)
	}
	if assert.NotNil(t, p.Next) {
		assert.Equal(t, "/premises?sortBy=name&page=3", p.Next.Href)
	}
	assert.True(t, p.Items[1].Current)

	p = Build(1, 2, "/x?")
	assert.Nil(t, p.Previous)
	assert.True(t, Build(1, 1, "/x?").IsEmpty())
}

func TestHrefPrefix(t *testing.T) {
	assert.Equal(t, "/premises?", HrefPrefix("/premises", nil))
	assert.Equal(t, "/premises?area=north+east&crn=X123456&",
		HrefPrefix("/premises", map[string]string{"crn": "X123456", "area": "north east", "empty": ""}))
}

func TestParseSort(t *testing.T) {
	def := Sort{Field: "name", Direction: Ascending}
	allowed := []string{"name", "expectedArrival"}

	assert.Equal(t, def, ParseSort(url.Values{}, allowed, def))
	assert.Equal(t, Sort{Field: "expectedArrival", Direction: Descending},
		ParseSort(url.Values{"sortBy": {"expectedArrival"}, "sortDirection": {"desc"}}, allowed, def))
	assert.Equal(t, def, ParseSort(url.Values{"sortBy": {"password"}, "sortDirection": {"sideways"}}, allowed, def))
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(url.Values{}))
	assert.Equal(t, 1, ParsePage(url.Values{"page": {"-3"}}))
	assert.Equal(t, 4, ParsePage(url.Values{"page": {"4"}}))
}

func TestSortHeader(t *testing.T) {
	current := Sort{Field: "name", Direction: Ascending}

	h := SortHeader("Name", "name", current, "/premises?")
	assert.Equal(t, "ascending", h.AriaSort)
	assert.Equal(t, "/premises?sortBy=name&sortDirection=desc", h.Href)

	h = SortHeader("Name", "name", Sort{Field: "name", Direction: Descending}, "/premises?")
	assert.Equal(t, "descending", h.AriaSort)
	assert.Equal(t, "/premises?sortBy=name&sortDirection=asc", h.Href)

	h = SortHeader("Arrival", "expectedArrival", current, "/premises?")
	assert.Equal(t, "none", h.AriaSort)
	assert.Equal(t, "/premises?sortBy=expectedArrival&sortDirection=asc", h.Href)
}
