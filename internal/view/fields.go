package view

import (
	"slices"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
)

// Hidden is a field rendered as a hidden input
const Hidden form.FieldType = "hidden"

// OptionView is a radio, checkbox or select option
type OptionView struct {
	Value   string
	Label   string
	Hint    string
	Checked bool
}

// FieldView is a form field with its current value and error
type FieldView struct {
	Name     string
	Type     string
	Label    string
	Hint     string
	Error    string
	Value    string
	Day      string
	Month    string
	Year     string
	Options  []OptionView
	Optional bool
}

// IsChoice reports whether the field renders options
func (f FieldView) IsChoice() bool {
	return form.FieldType(f.Type).IsChoice()
}

// FormPage is a wizard page ready to render
type FormPage struct {
	Title  string
	Hint   string
	Fields []FieldView
}

type hinter interface {
	Hint() string
}

// NewFormPage builds the fields of p, filled in with its answers
func NewFormPage(p form.Page, errs form.FieldErrors) *FormPage {
	out := &FormPage{Title: p.Title()}
	if h, ok := p.(hinter); ok {
		out.Hint = h.Hint()
	}
	body := p.Body()
	for _, f := range p.Fields() {
		out.Fields = append(out.Fields, NewField(f, body, errs))
	}
	return out
}

// NewField builds the view of f from the submitted or stored answers
func NewField(f form.Field, body form.Answers, errs form.FieldErrors) FieldView {
	fv := FieldView{
		Name:     f.Name,
		Type:     string(f.Type),
		Label:    f.Label,
		Hint:     f.Hint,
		Error:    errs.Get(f.Name),
		Optional: !f.Required && f.RequiredWhen == nil,
	}
	if fv.Type == "" {
		fv.Type = string(form.Text)
	}

	switch f.Type {
	case form.Date:
		in := dates.InputFromFields(body.String, f.Name)
		if in.IsEmpty() {
			in = dates.InputFromISO(body.String(f.Name))
		}
		fv.Day, fv.Month, fv.Year = in.Day, in.Month, in.Year
	default:
		fv.Value = body.String(f.Name)
	}

	if f.Type.IsChoice() {
		selected := body.Strings(f.Name)
		for _, o := range f.Choices() {
			fv.Options = append(fv.Options, OptionView{
				Value:   o.Value,
				Label:   o.Label,
				Hint:    o.Hint,
				Checked: slices.Contains(selected, o.Value),
			})
		}
	}
	return fv
}

// Options lists choices with the given value selected
func Options(options []form.Option, selected string) []OptionView {
	out := make([]OptionView, 0, len(options))
	for _, o := range options {
		out = append(out, OptionView{Value: o.Value, Label: o.Label, Hint: o.Hint, Checked: o.Value == selected})
	}
	return out
}

func optionLabel(options []form.Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
