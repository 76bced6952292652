package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/approved-premises/internal/dates"
)

// Page is a single step of a journey
type Page interface {
	// Name identifies the page within its task
	Name() string
	// Title is the question or heading shown on the page
	Title() string
	// Fields describes the inputs to render
	Fields() []Field
	// Body returns the answers to store, normalised and stripped of unknown keys
	Body() Answers
	// Errors validates the answers
	Errors() FieldErrors
	// Response summarises the answers as question/answer pairs
	Response() []Response
	// Next names the following page, or "" at the end of the task
	Next() string
	// Previous names the preceding page, or "" to go back to the task list
	Previous() string
}

// Response is a question and its human readable answer
type Response struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PageFactory builds a page from its answers
type PageFactory func(body Answers, ctx PageContext) Page

// PageDefinition is the declarative description of a page
type PageDefinition struct {
	Name     string  `yaml:"name" json:"name"`
	Title    string  `yaml:"title" json:"title"`
	Hint     string  `yaml:"hint,omitempty" json:"hint,omitempty"`
	Fields   []Field `yaml:"fields,omitempty" json:"fields,omitempty"`
	Next     []Rule  `yaml:"next,omitempty" json:"next,omitempty"`
	Previous []Rule  `yaml:"previous,omitempty" json:"previous,omitempty"`
}

var validate = validator.New()

// DeclarativePage implements Page from a PageDefinition
type DeclarativePage struct {
	def         *PageDefinition
	task        string
	body        Answers
	ctx         PageContext
	defaultNext string
	previousFn  func() string
}

func newDeclarativePage(def *PageDefinition, task string, body Answers, ctx PageContext, defaultNext string, previousFn func() string) *DeclarativePage {
	p := &DeclarativePage{
		def:         def,
		task:        task,
		ctx:         ctx,
		defaultNext: defaultNext,
		previousFn:  previousFn,
	}
	p.body = p.normalise(body)
	return p
}

func (p *DeclarativePage) scope() scope {
	return scope{task: p.task, page: p.def.Name, body: p.body, ctx: p.ctx}
}

func (p *DeclarativePage) normalise(in Answers) Answers {
	if in == nil {
		in = Answers{}
	}
	out := make(Answers, len(p.def.Fields))
	for i := range p.def.Fields {
		f := &p.def.Fields[i]
		switch f.Type {
		case Checkboxes:
			if values := in.Strings(f.Name); len(values) > 0 {
				out[f.Name] = values
			}
		case Date:
			input := dates.InputFromFields(in.String, f.Name)
			if input.IsEmpty() {
				input = dates.InputFromISO(in.String(f.Name))
			}
			if input.IsEmpty() {
				continue
			}
			out[f.Name+"-day"] = input.Day
			out[f.Name+"-month"] = input.Month
			out[f.Name+"-year"] = input.Year
			if iso := input.ISO(); iso != "" {
				out[f.Name] = iso
			}
		default:
			if v := strings.TrimSpace(in.String(f.Name)); v != "" {
				out[f.Name] = v
			}
		}
	}

	// fields hidden by the answers given are not kept
	s := scope{task: p.task, page: p.def.Name, body: out, ctx: p.ctx}
	for i := range p.def.Fields {
		f := &p.def.Fields[i]
		if f.ShowWhen != nil && !f.ShowWhen.match(s) {
			delete(out, f.Name)
			if f.Type == Date {
				delete(out, f.Name+"-day")
				delete(out, f.Name+"-month")
				delete(out, f.Name+"-year")
			}
		}
	}
	return out
}

func (p *DeclarativePage) Name() string { return p.def.Name }

func (p *DeclarativePage) Title() string { return p.def.Title }

// Hint returns the page level hint
func (p *DeclarativePage) Hint() string { return p.def.Hint }

func (p *DeclarativePage) Fields() []Field {
	return append([]Field(nil), p.def.Fields...)
}

func (p *DeclarativePage) Body() Answers { return p.body.Clone() }

func (p *DeclarativePage) visible(f *Field) bool {
	return f.ShowWhen == nil || f.ShowWhen.match(p.scope())
}

func (p *DeclarativePage) isEmpty(f *Field) bool {
	if f.Type == Date {
		return !p.body.Has(f.Name+"-day") && !p.body.Has(f.Name+"-month") && !p.body.Has(f.Name+"-year")
	}
	return !p.body.Has(f.Name)
}

func (p *DeclarativePage) Errors() FieldErrors {
	var errs FieldErrors
	s := p.scope()

	for i := range p.def.Fields {
		f := &p.def.Fields[i]
		if !p.visible(f) {
			continue
		}

		required := f.Required || (f.RequiredWhen != nil && f.RequiredWhen.match(s))
		if p.isEmpty(f) {
			if required {
				errs.Add(f.Name, f.requiredMessage())
			}
			continue
		}

		if msg := p.checkField(f); msg != "" {
			errs.Add(f.Name, msg)
		}
	}
	return errs
}

func (p *DeclarativePage) checkField(f *Field) string {
	value := p.body.String(f.Name)

	switch f.Type {
	case Date:
		iso := p.body.String(f.Name)
		if iso == "" {
			return f.message("invalid", "Enter a valid date")
		}
		if f.NotInPast && dates.IsInThePast(iso) {
			return f.message("past", "The date must be today or in the future")
		}
		if f.NotInFuture && dates.IsInTheFuture(iso) {
			return f.message("future", "The date must be today or in the past")
		}
		return ""
	case Number:
		if err := validate.Var(value, "numeric"); err != nil {
			return f.message("invalid", "Enter a number")
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return f.message("invalid", "Enter a whole number")
		}
		if f.Min != nil && n < *f.Min {
			return f.message("range", fmt.Sprintf("Enter a number of at least %d", *f.Min))
		}
		if f.Max != nil && n > *f.Max {
			return f.message("range", fmt.Sprintf("Enter a number no greater than %d", *f.Max))
		}
	case Email:
		if err := validate.Var(value, "email"); err != nil {
			return f.message("invalid", "Enter an email address in the correct format")
		}
	case Checkboxes:
		for _, v := range p.body.Strings(f.Name) {
			if !f.HasOption(v) {
				return f.message("invalid", "Select a valid option")
			}
		}
		return ""
	case Radios, YesNo, Select:
		if !f.HasOption(value) {
			return f.message("invalid", "Select a valid option")
		}
		return ""
	}

	if f.MaxLength > 0 {
		if err := validate.Var(value, fmt.Sprintf("max=%d", f.MaxLength)); err != nil {
			return f.message("max_length", fmt.Sprintf("Must be %d characters or fewer", f.MaxLength))
		}
	}
	if f.pattern != nil && !f.pattern.MatchString(value) {
		return f.message("pattern", "Enter a value in the correct format")
	}
	return ""
}

func (p *DeclarativePage) Response() []Response {
	var out []Response
	for i := range p.def.Fields {
		f := &p.def.Fields[i]
		if !p.visible(f) || p.isEmpty(f) {
			continue
		}
		question := f.Label
		if question == "" {
			question = p.def.Title
		}
		out = append(out, Response{Question: question, Answer: p.answerText(f)})
	}
	return out
}

func (p *DeclarativePage) answerText(f *Field) string {
	switch f.Type {
	case Date:
		if iso := p.body.String(f.Name); iso != "" {
			return dates.FormatDate(iso, dates.FormatLong)
		}
		return ""
	case Checkboxes:
		values := p.body.Strings(f.Name)
		labels := make([]string, 0, len(values))
		for _, v := range values {
			labels = append(labels, f.OptionLabel(v))
		}
		return strings.Join(labels, ", ")
	case Radios, YesNo, Select:
		return f.OptionLabel(p.body.String(f.Name))
	default:
		return p.body.String(f.Name)
	}
}

// Next follows the first matching rule. A page with rules ends the task when
// none match; a page without rules goes to the page listed after it.
func (p *DeclarativePage) Next() string {
	if len(p.def.Next) > 0 {
		page, _ := resolve(p.def.Next, p.scope())
		return page
	}
	return p.defaultNext
}

// Previous follows the first matching rule, going back to the task list when
// none match. Without rules it returns the page that led here.
func (p *DeclarativePage) Previous() string {
	if len(p.def.Previous) > 0 {
		page, _ := resolve(p.def.Previous, p.scope())
		return page
	}
	if p.previousFn != nil {
		return p.previousFn()
	}
	return ""
}
