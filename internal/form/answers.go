package form

import (
	"fmt"
	"strings"
)

// Answers holds the values submitted for a single page. Values are strings or
// string lists; lists decoded from JSON arrive as []any and are normalised on read.
type Answers map[string]any

// String returns the value under key. Lists yield their first element.
func (a Answers) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []any:
		if len(v) > 0 {
			return fmt.Sprint(v[0])
		}
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
	return ""
}

// Strings returns the non-empty values under key as a list
func (a Answers) Strings(key string) []string {
	var out []string
	switch v := a[key].(type) {
	case string:
		if v != "" {
			out = append(out, v)
		}
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if s := fmt.Sprint(item); item != nil && s != "" {
				out = append(out, s)
			}
		}
	case nil:
	default:
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// Has reports whether key holds a non-empty value
func (a Answers) Has(key string) bool {
	return len(a.Strings(key)) > 0
}

// Clone returns a shallow copy
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// AnswersFromForm converts submitted form values into answers. Single values
// become strings and repeated keys become lists.
func AnswersFromForm(values map[string][]string) Answers {
	out := make(Answers, len(values))
	for k, v := range values {
		k = strings.TrimSuffix(k, "[]")
		switch len(v) {
		case 0:
		case 1:
			out[k] = v[0]
		default:
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Document is the task > page > answers structure held as the "data" of an
// application, assessment or placement application.
type Document map[string]map[string]Answers

// Answers returns the answers stored for a page
func (d Document) Answers(task, page string) (Answers, bool) {
	pages, ok := d[task]
	if !ok {
		return nil, false
	}
	a, ok := pages[page]
	return a, ok
}

// Set stores the answers for a page
func (d Document) Set(task, page string, a Answers) {
	if d[task] == nil {
		d[task] = make(map[string]Answers)
	}
	d[task][page] = a
}

// Clone returns a copy deep enough that Set on the copy leaves d untouched
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for task, pages := range d {
		cp := make(map[string]Answers, len(pages))
		for page, a := range pages {
			cp[page] = a.Clone()
		}
		out[task] = cp
	}
	return out
}

// PageContext is everything a page may consult beyond its own answers
type PageContext struct {
	// Document is the data of the record being edited
	Document Document
	// Related is the data of the record being reviewed, e.g. the application behind an assessment
	Related Document
}
