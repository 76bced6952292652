// Package pages holds the wizard pages whose rules do not fit the declarative
// schema. They replace the YAML behaviour of the page with the same name.
package pages

import (
	"fmt"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
)

type registration struct {
	journey string
	task    string
	page    string
	factory form.PageFactory
}

var registrations = []registration{
	{"apply", "basic-information", "release-date", func(body form.Answers, ctx form.PageContext) form.Page {
		return NewReleaseDate(body, ctx)
	}},
	{"apply", "basic-information", "placement-date", func(body form.Answers, ctx form.PageContext) form.Page {
		return NewPlacementDate(body, ctx)
	}},
	{"apply", "basic-information", "placement-duration", func(body form.Answers, ctx form.PageContext) form.Page {
		return NewPlacementDuration(body, ctx)
	}},
	{"assess", "make-a-decision", "make-a-decision", func(body form.Answers, ctx form.PageContext) form.Page {
		return NewMakeADecision(body, ctx)
	}},
}

// Register installs the Go pages that belong to j
func Register(j *form.Journey) error {
	for _, r := range registrations {
		if r.journey != j.Name {
			continue
		}
		if err := j.RegisterPage(r.task, r.page, r.factory); err != nil {
			return fmt.Errorf("register page %s/%s/%s: %w", r.journey, r.task, r.page, err)
		}
	}
	return nil
}

// Registered lists the pages Register installs for a journey as task/page pairs
func Registered(journey string) [][2]string {
	var out [][2]string
	for _, r := range registrations {
		if r.journey == journey {
			out = append(out, [2]string{r.task, r.page})
		}
	}
	return out
}

// base carries what every page has
type base struct {
	name  string
	title string
	body  form.Answers
	ctx   form.PageContext
}

func (b *base) Name() string  { return b.name }
func (b *base) Title() string { return b.title }

func (b *base) related(task, page string) form.Answers {
	a, _ := b.ctx.Document.Answers(task, page)
	return a
}

// dateInput reads a date field from its parts, falling back to the stored ISO value
func dateInput(body form.Answers, key string) dates.Input {
	in := dates.InputFromFields(body.String, key)
	if in.IsEmpty() {
		in = dates.InputFromISO(body.String(key))
	}
	return in
}

func putDate(out form.Answers, key string, in dates.Input) {
	if in.IsEmpty() {
		return
	}
	out[key+"-day"] = in.Day
	out[key+"-month"] = in.Month
	out[key+"-year"] = in.Year
	if iso := in.ISO(); iso != "" {
		out[key] = iso
	}
}

func yesNo(v string) string {
	switch v {
	case "yes":
		return "Yes"
	case "no":
		return "No"
	}
	return v
}

func isYesNo(v string) bool {
	return v == "yes" || v == "no"
}
