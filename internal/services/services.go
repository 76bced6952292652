// Package services sits between the HTTP handlers and the Approved Premises
// API. It builds wizard pages, validates answers, reshapes them into the
// requests the API expects and records what users did.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/metrics"
	"github.com/terra-clan/approved-premises/internal/models"
)

var (
	ErrNotEditable  = errors.New("record can no longer be changed")
	ErrIncomplete   = errors.New("not every task is complete")
	ErrForbidden    = errors.New("not allowed for this user")
	ErrInvalidRange = errors.New("end date is before start date")
)

// Record is a form being filled in: an application, an assessment or a
// placement application
type Record struct {
	Kind        string
	ID          string
	Journey     *form.Journey
	Document    form.Document
	Related     form.Document
	Person      models.Person
	Status      string
	StatusLabel string
	Editable    bool
	// RelatedID is the application an assessment or placement application
	// belongs to
	RelatedID string
	Notes     []models.ClarificationNote
}

// Context is what the pages of the record may consult
func (r *Record) Context() form.PageContext {
	return form.PageContext{Document: r.Document, Related: r.Related}
}

// Page builds a page of the record. A nil input uses the stored answers.
func (r *Record) Page(task, page string, input form.Answers) (form.Page, error) {
	if input == nil {
		input, _ = r.Document.Answers(task, page)
	}
	return r.Journey.Page(task, page, input, r.Context())
}

// SaveResult is the outcome of a saved page
type SaveResult struct {
	Document form.Document
	// Next is the following page of the task, or "" when the task is done
	Next string
}

// FormService is implemented by every service whose records are filled in
// page by page
type FormService interface {
	// Kind names the records in URLs, e.g. "applications"
	Kind() string
	Journey() (*form.Journey, error)
	Load(ctx context.Context, id string) (*Record, error)
	SavePage(ctx context.Context, user *models.User, rec *Record, task, page string, input form.Answers) (*SaveResult, error)
}

var (
	_ FormService = (*ApplicationService)(nil)
	_ FormService = (*AssessmentService)(nil)
	_ FormService = (*PlacementApplicationService)(nil)
)

// formEngine is the part of FormService shared by every record type
type formEngine struct {
	kind     string
	journey  string
	journeys *journeys.Loader
	audit    audit.Repository
	store    func(ctx context.Context, id string, doc form.Document) error
}

func (e *formEngine) Kind() string { return e.kind }

func (e *formEngine) Journey() (*form.Journey, error) {
	return e.journeys.Get(e.journey)
}

// SavePage validates the answers of a page, stores them with the rest of the
// document and works out where the user goes next
func (e *formEngine) SavePage(ctx context.Context, user *models.User, rec *Record, task, page string, input form.Answers) (*SaveResult, error) {
	if !rec.Editable {
		return nil, ErrNotEditable
	}

	p, err := rec.Journey.Page(task, page, input, rec.Context())
	if err != nil {
		return nil, err
	}
	if errs := p.Errors(); len(errs) > 0 {
		metrics.ValidationFailed(rec.Journey.Name, task, page)
		return nil, &form.ValidationError{Errors: errs, UserInput: input}
	}

	doc := rec.Document.Clone()
	doc.Set(task, page, p.Body())

	if err := e.store(ctx, rec.ID, doc); err != nil {
		if verr := validationFromAPI(err, input); verr != nil {
			metrics.ValidationFailed(rec.Journey.Name, task, page)
			return nil, verr
		}
		return nil, fmt.Errorf("save %s %s: %w", e.kind, rec.ID, err)
	}

	recordEvent(ctx, e.audit, user, audit.Event{
		Journey:  rec.Journey.Name,
		RecordID: rec.ID,
		Task:     task,
		Page:     page,
		Action:   audit.ActionPageSaved,
	})

	rec.Document = doc
	next := p.Next()
	if saved, err := rec.Page(task, page, nil); err == nil {
		next = saved.Next()
	}
	return &SaveResult{Document: doc, Next: next}, nil
}

// load fills in the journey of a record
func (e *formEngine) load(rec *Record) (*Record, error) {
	j, err := e.Journey()
	if err != nil {
		return nil, err
	}
	rec.Kind = e.kind
	rec.Journey = j
	if rec.Document == nil {
		rec.Document = form.Document{}
	}
	return rec, nil
}

// summary is the translated document sent when a record is submitted
func summary(rec *Record) []form.TaskSummary {
	return rec.Journey.Summary(rec.Context())
}

func answers(doc form.Document, task, page string) form.Answers {
	a, _ := doc.Answers(task, page)
	if a == nil {
		return form.Answers{}
	}
	return a
}

func recordEvent(ctx context.Context, repo audit.Repository, user *models.User, e audit.Event) {
	if repo == nil {
		return
	}
	if user != nil {
		e.UserID = user.ID
		e.Username = user.DeliusUsername
	}
	if err := repo.Record(ctx, &e); err != nil {
		slog.Error("failed to record audit event",
			"error", err,
			"action", e.Action,
			"record_id", e.RecordID,
		)
	}
}

// upstream wraps an API error with what was being done
func upstream(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, apiclient.ErrNotFound) || errors.Is(err, form.ErrNotFound)
}
