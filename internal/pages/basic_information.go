package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
)

const basicInformation = "basic-information"

// ReleaseDate asks whether the release date is known and what it is
type ReleaseDate struct {
	base
	knowReleaseDate string
	releaseDate     dates.Input
}

func NewReleaseDate(body form.Answers, ctx form.PageContext) *ReleaseDate {
	p := &ReleaseDate{
		base: base{
			name:  "release-date",
			title: "Do you know the person's release date?",
			ctx:   ctx,
		},
		knowReleaseDate: strings.TrimSpace(body.String("knowReleaseDate")),
	}
	if p.knowReleaseDate == "yes" {
		p.releaseDate = dateInput(body, "releaseDate")
	}
	p.body = p.buildBody()
	return p
}

func (p *ReleaseDate) buildBody() form.Answers {
	out := form.Answers{}
	if p.knowReleaseDate != "" {
		out["knowReleaseDate"] = p.knowReleaseDate
	}
	putDate(out, "releaseDate", p.releaseDate)
	return out
}

func (p *ReleaseDate) Fields() []form.Field {
	return []form.Field{
		{Name: "knowReleaseDate", Type: form.YesNo, Label: p.title, Required: true},
		{
			Name:     "releaseDate",
			Type:     form.Date,
			Label:    "Release date",
			Hint:     "For example, 27 3 2025",
			ShowWhen: &form.Condition{Field: "knowReleaseDate", Equals: "yes"},
		},
	}
}

func (p *ReleaseDate) Body() form.Answers { return p.body.Clone() }

func (p *ReleaseDate) Errors() form.FieldErrors {
	var errs form.FieldErrors
	if !isYesNo(p.knowReleaseDate) {
		errs.Add("knowReleaseDate", "You must specify if you know the release date")
		return errs
	}
	if p.knowReleaseDate == "yes" {
		switch {
		case p.releaseDate.IsEmpty():
			errs.Add("releaseDate", "You must specify the release date")
		case !p.releaseDate.IsValid():
			errs.Add("releaseDate", "The release date is an invalid date")
		}
	}
	return errs
}

func (p *ReleaseDate) Response() []form.Response {
	out := []form.Response{{Question: p.title, Answer: yesNo(p.knowReleaseDate)}}
	if iso := p.releaseDate.ISO(); p.knowReleaseDate == "yes" && iso != "" {
		out = append(out, form.Response{Question: "Release date", Answer: dates.FormatDate(iso, dates.FormatLong)})
	}
	return out
}

// Next skips to the oral hearing for parole releases
func (p *ReleaseDate) Next() string {
	if p.related(basicInformation, "release-type").String("releaseType") == "parole" {
		return "oral-hearing"
	}
	return "placement-date"
}

func (p *ReleaseDate) Previous() string { return "release-type" }

// PlacementDate asks whether the placement starts on the release date
type PlacementDate struct {
	base
	startDateSameAsReleaseDate string
	startDate                  dates.Input
	releaseDate                string
}

func NewPlacementDate(body form.Answers, ctx form.PageContext) *PlacementDate {
	p := &PlacementDate{base: base{name: "placement-date", ctx: ctx}}
	p.startDateSameAsReleaseDate = strings.TrimSpace(body.String("startDateSameAsReleaseDate"))
	release := p.related(basicInformation, "release-date")
	if release.String("knowReleaseDate") == "yes" {
		p.releaseDate = release.String("releaseDate")
	}

	p.title = "Is the placement start date the same as the release date?"
	if p.releaseDate != "" {
		p.title = fmt.Sprintf("Is %s the date you want the placement to start?", dates.FormatDate(p.releaseDate, dates.FormatLong))
	}

	if p.startDateSameAsReleaseDate == "no" {
		p.startDate = dateInput(body, "startDate")
	}

	p.body = form.Answers{}
	if p.startDateSameAsReleaseDate != "" {
		p.body["startDateSameAsReleaseDate"] = p.startDateSameAsReleaseDate
	}
	putDate(p.body, "startDate", p.startDate)
	return p
}

func (p *PlacementDate) Fields() []form.Field {
	return []form.Field{
		{Name: "startDateSameAsReleaseDate", Type: form.YesNo, Label: p.title, Required: true},
		{
			Name:     "startDate",
			Type:     form.Date,
			Label:    "What date should the placement start?",
			ShowWhen: &form.Condition{Field: "startDateSameAsReleaseDate", Equals: "no"},
		},
	}
}

func (p *PlacementDate) Body() form.Answers { return p.body.Clone() }

func (p *PlacementDate) Errors() form.FieldErrors {
	var errs form.FieldErrors
	if !isYesNo(p.startDateSameAsReleaseDate) {
		errs.Add("startDateSameAsReleaseDate", "You must specify if the start date is the same as the release date")
		return errs
	}
	if p.startDateSameAsReleaseDate == "no" {
		switch {
		case p.startDate.IsEmpty():
			errs.Add("startDate", "You must enter a start date")
		case !p.startDate.IsValid():
			errs.Add("startDate", "The start date is an invalid date")
		}
	}
	return errs
}

// StartDate is the ISO date the placement starts, or "" when unknown
func (p *PlacementDate) StartDate() string {
	if p.startDateSameAsReleaseDate == "yes" {
		return p.releaseDate
	}
	return p.startDate.ISO()
}

func (p *PlacementDate) Response() []form.Response {
	out := []form.Response{{Question: p.title, Answer: yesNo(p.startDateSameAsReleaseDate)}}
	if start := p.StartDate(); start != "" {
		out = append(out, form.Response{Question: "Placement start date", Answer: dates.FormatDate(start, dates.FormatLong)})
	}
	return out
}

func (p *PlacementDate) Next() string { return "placement-duration" }

func (p *PlacementDate) Previous() string {
	if p.related(basicInformation, "release-type").String("releaseType") == "parole" {
		return "oral-hearing"
	}
	return "release-date"
}

// Standard placement lengths by type of AP, in weeks
var standardDurations = map[string]int{
	"normal": 12,
	"pipe":   26,
	"esap":   52,
}

// StandardDuration returns the expected placement length in days for the
// type of AP chosen in the document
func StandardDuration(doc form.Document) int {
	a, _ := doc.Answers("type-of-ap", "ap-type")
	if weeks, ok := standardDurations[a.String("type")]; ok {
		return weeks * 7
	}
	return standardDurations["normal"] * 7
}

// PlacementDuration lets the referrer ask for a non standard placement length
type PlacementDuration struct {
	base
	differentDuration string
	weeks             string
	days              string
	reason            string
}

func NewPlacementDuration(body form.Answers, ctx form.PageContext) *PlacementDuration {
	p := &PlacementDuration{
		base: base{
			name:  "placement-duration",
			title: "Does this application require a different placement duration?",
			ctx:   ctx,
		},
		differentDuration: strings.TrimSpace(body.String("differentDuration")),
	}
	if p.differentDuration == "yes" {
		p.weeks = strings.TrimSpace(body.String("durationWeeks"))
		p.days = strings.TrimSpace(body.String("durationDays"))
		p.reason = strings.TrimSpace(body.String("reason"))
	}

	p.body = form.Answers{}
	for k, v := range map[string]string{
		"differentDuration": p.differentDuration,
		"durationWeeks":     p.weeks,
		"durationDays":      p.days,
		"reason":            p.reason,
	} {
		if v != "" {
			p.body[k] = v
		}
	}
	if total, ok := p.totalDays(); ok && total > 0 {
		p.body["duration"] = strconv.Itoa(total)
	}
	return p
}

func (p *PlacementDuration) Fields() []form.Field {
	shown := &form.Condition{Field: "differentDuration", Equals: "yes"}
	return []form.Field{
		{
			Name:     "differentDuration",
			Type:     form.YesNo,
			Label:    p.title,
			Hint:     "The standard placement duration is " + dates.FormatDuration(StandardDuration(p.ctx.Document)),
			Required: true,
		},
		{Name: "durationWeeks", Type: form.Number, Label: "Weeks", ShowWhen: shown},
		{Name: "durationDays", Type: form.Number, Label: "Days", ShowWhen: shown},
		{Name: "reason", Type: form.TextArea, Label: "Why does this person require a different placement duration?", ShowWhen: shown},
	}
}

func (p *PlacementDuration) Body() form.Answers { return p.body.Clone() }

// Limits of a non standard placement length
const (
	maxDurationWeeks = 104
	maxDurationDays  = 6
)

var (
	errNotWholeNumber = errors.New("not a whole number")
	errOutOfRange     = errors.New("out of range")
)

func parseCount(s string, max int) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errNotWholeNumber
	}
	if n > max {
		return 0, errOutOfRange
	}
	return n, nil
}

func (p *PlacementDuration) totalDays() (int, bool) {
	weeks, err := parseCount(p.weeks, maxDurationWeeks)
	if err != nil {
		return 0, false
	}
	days, err := parseCount(p.days, maxDurationDays)
	if err != nil {
		return 0, false
	}
	return weeks*7 + days, true
}

func (p *PlacementDuration) Errors() form.FieldErrors {
	var errs form.FieldErrors
	if !isYesNo(p.differentDuration) {
		errs.Add("differentDuration", "You must specify if the application requires a different placement duration")
		return errs
	}
	if p.differentDuration == "no" {
		return errs
	}

	switch _, err := parseCount(p.weeks, maxDurationWeeks); err {
	case errNotWholeNumber:
		errs.Add("durationWeeks", "The number of weeks must be a whole number")
	case errOutOfRange:
		errs.Add("durationWeeks", fmt.Sprintf("The number of weeks must be %d or fewer", maxDurationWeeks))
	}
	switch _, err := parseCount(p.days, maxDurationDays); err {
	case errNotWholeNumber:
		errs.Add("durationDays", "The number of days must be a whole number")
	case errOutOfRange:
		errs.Add("durationDays", fmt.Sprintf("The number of days must be %d or fewer", maxDurationDays))
	}
	if total, ok := p.totalDays(); ok && total == 0 {
		errs.Add("duration", "The duration of the placement must be greater than 0")
	}
	if p.reason == "" {
		errs.Add("reason", "You must specify the reason for the different placement duration")
	}
	return errs
}

func (p *PlacementDuration) Response() []form.Response {
	out := []form.Response{{Question: p.title, Answer: yesNo(p.differentDuration)}}
	if p.differentDuration != "yes" {
		return out
	}
	if total, ok := p.totalDays(); ok && total > 0 {
		out = append(out, form.Response{Question: "Placement duration", Answer: dates.FormatDuration(total)})
	}
	if p.reason != "" {
		out = append(out, form.Response{Question: "Why does this person require a different placement duration?", Answer: p.reason})
	}
	return out
}

// Duration is the requested placement length in days, falling back to the
// standard length for the type of AP
func (p *PlacementDuration) Duration() int {
	if p.differentDuration == "yes" {
		if total, ok := p.totalDays(); ok && total > 0 {
			return total
		}
	}
	return StandardDuration(p.ctx.Document)
}

func (p *PlacementDuration) Next() string { return "placement-purpose" }

func (p *PlacementDuration) Previous() string { return "placement-date" }
