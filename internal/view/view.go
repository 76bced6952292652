// Package view turns records and API models into the structures the HTML
// templates render: task lists, summary cards, status tags, form fields and
// error summaries.
package view

import (
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

// Page is the data every template receives. Data holds the view specific part.
type Page struct {
	Title        string
	User         *models.User
	Success      string
	ErrorSummary []ErrorItem
	Errors       map[string]string
	BackLink     string
	Data         any
}

// NewPage builds the page data, moving validation errors into the summary
func NewPage(title string, user *models.User, errs form.FieldErrors, data any) *Page {
	return &Page{
		Title:        title,
		User:         user,
		ErrorSummary: ErrorSummary(errs),
		Errors:       errs.Map(),
		Data:         data,
	}
}

// ErrorItem is a line of the error summary, linking to the field in error
type ErrorItem struct {
	Text string
	Href string
}

// ErrorSummary lists the messages in field order
func ErrorSummary(errs form.FieldErrors) []ErrorItem {
	if len(errs) == 0 {
		return nil
	}
	out := make([]ErrorItem, 0, len(errs))
	for _, e := range errs {
		out = append(out, ErrorItem{Text: e.Message, Href: "#" + e.Field})
	}
	return out
}

// Tag is a coloured status label
type Tag struct {
	Text  string
	Class string
}

const tagClass = "govuk-tag"

func tag(text, colour string) Tag {
	if colour == "" {
		return Tag{Text: text, Class: tagClass}
	}
	return Tag{Text: text, Class: tagClass + " " + tagClass + "--" + colour}
}

// TaskStatusTag labels a task on the task list
func TaskStatusTag(s form.Status) Tag {
	switch s {
	case form.StatusComplete:
		return tag("Completed", "")
	case form.StatusInProgress:
		return tag("In progress", "light-blue")
	case form.StatusNotStarted:
		return tag("Not started", "grey")
	default:
		return tag("Cannot start yet", "grey")
	}
}

// ApplicationStatusTag labels an application
func ApplicationStatusTag(s models.ApplicationStatus) Tag {
	switch s {
	case models.ApplicationStarted:
		return tag(s.Label(), "blue")
	case models.ApplicationRejected, models.ApplicationWithdrawn, models.ApplicationExpired, models.ApplicationInapplicable:
		return tag(s.Label(), "red")
	case models.ApplicationRequestedFurtherInfo:
		return tag(s.Label(), "yellow")
	case models.ApplicationPlacementAllocated:
		return tag(s.Label(), "pink")
	case models.ApplicationAwaitingPlacement, models.ApplicationPendingPlacementRequest:
		return tag(s.Label(), "purple")
	}
	return tag(s.Label(), "grey")
}

// AssessmentStatusTag labels an assessment
func AssessmentStatusTag(s models.AssessmentStatus) Tag {
	switch s {
	case models.AssessmentCompleted:
		return tag(s.Label(), "")
	case models.AssessmentInProgress:
		return tag(s.Label(), "light-blue")
	case models.AssessmentAwaitingResponse:
		return tag(s.Label(), "yellow")
	}
	return tag(s.Label(), "grey")
}

// PlacementRequestStatusTag labels a placement request
func PlacementRequestStatusTag(s models.PlacementRequestStatus) Tag {
	switch s {
	case models.PlacementRequestMatched:
		return tag(s.Label(), "")
	case models.PlacementRequestUnableToMatch:
		return tag(s.Label(), "red")
	}
	return tag(s.Label(), "grey")
}
