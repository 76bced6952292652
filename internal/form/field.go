package form

import (
	"fmt"
	"regexp"
	"slices"
)

// FieldType selects how a field is rendered, normalised and validated
type FieldType string

const (
	Text       FieldType = "text"
	TextArea   FieldType = "textarea"
	Number     FieldType = "number"
	Email      FieldType = "email"
	Radios     FieldType = "radios"
	YesNo      FieldType = "yesno"
	Checkboxes FieldType = "checkboxes"
	Select     FieldType = "select"
	Date       FieldType = "date"
)

// IsChoice reports whether values must come from the field's options
func (t FieldType) IsChoice() bool {
	return t == Radios || t == YesNo || t == Checkboxes || t == Select
}

// Option is one of the values a choice field accepts
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
	Hint  string `yaml:"hint,omitempty" json:"hint,omitempty"`
}

var yesNoOptions = []Option{
	{Value: "yes", Label: "Yes"},
	{Value: "no", Label: "No"},
}

// Field describes a single input on a page
type Field struct {
	Name         string            `yaml:"name" json:"name"`
	Type         FieldType         `yaml:"type" json:"type"`
	Label        string            `yaml:"label,omitempty" json:"label,omitempty"`
	Hint         string            `yaml:"hint,omitempty" json:"hint,omitempty"`
	Options      []Option          `yaml:"options,omitempty" json:"options,omitempty"`
	Required     bool              `yaml:"required,omitempty" json:"required,omitempty"`
	RequiredWhen *Condition        `yaml:"required_when,omitempty" json:"requiredWhen,omitempty"`
	ShowWhen     *Condition        `yaml:"show_when,omitempty" json:"showWhen,omitempty"`
	MaxLength    int               `yaml:"max_length,omitempty" json:"maxLength,omitempty"`
	Pattern      string            `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Min          *int              `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *int              `yaml:"max,omitempty" json:"max,omitempty"`
	NotInPast    bool              `yaml:"not_in_past,omitempty" json:"notInPast,omitempty"`
	NotInFuture  bool              `yaml:"not_in_future,omitempty" json:"notInFuture,omitempty"`
	Error        string            `yaml:"error,omitempty" json:"error,omitempty"`
	Errors       map[string]string `yaml:"errors,omitempty" json:"errors,omitempty"`

	pattern *regexp.Regexp
}

// Choices returns the options of a choice field, defaulting yes/no fields
func (f *Field) Choices() []Option {
	if f.Type == YesNo && len(f.Options) == 0 {
		return yesNoOptions
	}
	return f.Options
}

// OptionLabel returns the display label for a value
func (f *Field) OptionLabel(value string) string {
	for _, o := range f.Choices() {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// HasOption reports whether value is one of the field's options
func (f *Field) HasOption(value string) bool {
	return slices.ContainsFunc(f.Choices(), func(o Option) bool { return o.Value == value })
}

// compile prepares the field for use and checks its definition
func (f *Field) compile() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	switch f.Type {
	case "":
		f.Type = Text
	case Text, TextArea, Number, Email, YesNo, Date:
	case Radios, Checkboxes, Select:
		if len(f.Options) == 0 {
			return fmt.Errorf("field %s: %s fields need options", f.Name, f.Type)
		}
	default:
		return fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("field %s: invalid pattern: %w", f.Name, err)
		}
		f.pattern = re
	}
	return nil
}

func (f *Field) message(rule, fallback string) string {
	if msg, ok := f.Errors[rule]; ok && msg != "" {
		return msg
	}
	if rule == "required" && f.Error != "" {
		return f.Error
	}
	return fallback
}

func (f *Field) requiredMessage() string {
	if f.Type.IsChoice() {
		return f.message("required", "You must select an option")
	}
	if f.Type == Date {
		return f.message("required", "You must enter a date")
	}
	return f.message("required", "You must enter a value")
}

// Condition is a predicate over answers stored in the document. Empty task
// and page refer to the page being evaluated. A condition with no predicate
// holds when the field has a value.
type Condition struct {
	Source   string      `yaml:"source,omitempty" json:"source,omitempty"`
	Task     string      `yaml:"task,omitempty" json:"task,omitempty"`
	Page     string      `yaml:"page,omitempty" json:"page,omitempty"`
	Field    string      `yaml:"field,omitempty" json:"field,omitempty"`
	Equals   string      `yaml:"equals,omitempty" json:"equals,omitempty"`
	In       []string    `yaml:"in,omitempty" json:"in,omitempty"`
	Includes string      `yaml:"includes,omitempty" json:"includes,omitempty"`
	NotEmpty bool        `yaml:"not_empty,omitempty" json:"notEmpty,omitempty"`
	Empty    bool        `yaml:"empty,omitempty" json:"empty,omitempty"`
	All      []Condition `yaml:"all,omitempty" json:"all,omitempty"`
	Any      []Condition `yaml:"any,omitempty" json:"any,omitempty"`
}

// SourceRelated points a condition at the related document
const SourceRelated = "related"

// scope is where a condition is evaluated
type scope struct {
	task string
	page string
	body Answers
	ctx  PageContext
}

func (s scope) lookup(c *Condition) Answers {
	if c.Source == SourceRelated {
		a, _ := s.ctx.Related.Answers(c.Task, c.Page)
		return a
	}
	task, page := c.Task, c.Page
	if task == "" {
		task = s.task
	}
	if page == "" {
		page = s.page
	}
	if task == s.task && page == s.page {
		return s.body
	}
	a, _ := s.ctx.Document.Answers(task, page)
	return a
}

// match evaluates the condition
func (c *Condition) match(s scope) bool {
	for i := range c.All {
		if !c.All[i].match(s) {
			return false
		}
	}
	if len(c.Any) > 0 {
		matched := false
		for i := range c.Any {
			if c.Any[i].match(s) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if c.Field == "" {
		return true
	}

	values := s.lookup(c).Strings(c.Field)
	predicate := false

	if c.Equals != "" {
		predicate = true
		if len(values) != 1 || values[0] != c.Equals {
			return false
		}
	}
	if len(c.In) > 0 {
		predicate = true
		if len(values) != 1 || !slices.Contains(c.In, values[0]) {
			return false
		}
	}
	if c.Includes != "" {
		predicate = true
		if !slices.Contains(values, c.Includes) {
			return false
		}
	}
	if c.Empty {
		predicate = true
		if len(values) > 0 {
			return false
		}
	}
	if c.NotEmpty || !predicate {
		if len(values) == 0 {
			return false
		}
	}
	return true
}

// Rule routes to Page when its condition holds. A rule without a condition
// always holds. An empty Page ends the task (next) or returns to the task
// list (previous).
type Rule struct {
	When *Condition `yaml:"when,omitempty" json:"when,omitempty"`
	Page string     `yaml:"page" json:"page"`
}

func resolve(rules []Rule, s scope) (string, bool) {
	for _, r := range rules {
		if r.When == nil || r.When.match(s) {
			return r.Page, true
		}
	}
	return "", false
}
