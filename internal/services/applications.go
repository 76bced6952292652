package services

import (
	"context"
	"strings"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/pages"
)

// ApplicationJourney is the journey applications are filled in with
const ApplicationJourney = "apply"

// ApplicationService manages applications for a placement
type ApplicationService struct {
	formEngine
	api *apiclient.Client
}

// NewApplicationService creates an application service
func NewApplicationService(api *apiclient.Client, loader *journeys.Loader, auditRepo audit.Repository) *ApplicationService {
	s := &ApplicationService{api: api}
	s.formEngine = formEngine{
		kind:     "applications",
		journey:  ApplicationJourney,
		journeys: loader,
		audit:    auditRepo,
		store: func(ctx context.Context, id string, doc form.Document) error {
			_, err := api.UpdateApplication(ctx, id, models.UpdateApplication{Type: "CAS1", Data: doc})
			return err
		},
	}
	return s
}

// List returns the applications of the signed in user
func (s *ApplicationService) List(ctx context.Context) ([]models.ApplicationSummary, error) {
	apps, err := s.api.Applications(ctx)
	return apps, upstream("list applications", err)
}

// Get returns an application
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.api.Application(ctx, id)
	return app, upstream("get application "+id, err)
}

// Load returns an application as a form record
func (s *ApplicationService) Load(ctx context.Context, id string) (*Record, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.load(&Record{
		ID:          app.ID,
		Document:    app.Data,
		Person:      app.Person,
		Status:      string(app.Status),
		StatusLabel: app.Status.Label(),
		Editable:    app.Status.IsEditable(),
	})
}

var newApplicationMessages = map[string]string{
	"crn.required": "You must enter a CRN",
	"crn":          "Enter a CRN in the format X123456",
}

// Create starts an application for the person with the given CRN
func (s *ApplicationService) Create(ctx context.Context, user *models.User, crn string) (*models.Application, error) {
	in := models.NewApplication{CRN: strings.ToUpper(strings.TrimSpace(crn))}
	if errs := checkStruct(in, newApplicationMessages); len(errs) > 0 {
		return nil, &form.ValidationError{Errors: errs, UserInput: form.Answers{"crn": crn}}
	}

	app, err := s.api.CreateApplication(ctx, in)
	if err != nil {
		if verr := validationFromAPI(err, form.Answers{"crn": crn}); verr != nil {
			return nil, verr
		}
		return nil, upstream("create application", err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  ApplicationJourney,
		RecordID: app.ID,
		Action:   audit.ActionCreated,
		Detail:   map[string]any{"crn": in.CRN},
	})
	return app, nil
}

// Submission builds the submission of a completed application
func (s *ApplicationService) Submission(rec *Record) models.SubmitApplication {
	doc := rec.Document
	ctx := rec.Context()

	apType := answers(doc, "type-of-ap", "ap-type").String("type")
	if apType == "" {
		apType = "normal"
	}
	basic := func(page, key string) string {
		return answers(doc, "basic-information", page).String(key)
	}

	return models.SubmitApplication{
		Type:           "CAS1",
		Translated:     summary(rec),
		IsPipe:         apType == "pipe",
		IsESAP:         apType == "esap",
		APType:         apType,
		TargetLocation: answers(doc, "location-factors", "describe-location-factors").String("postcodeArea"),
		ReleaseType:    basic("release-type", "releaseType"),
		SentenceType:   basic("sentence-type", "sentenceType"),
		Situation:      basic("situation", "situation"),
		ArrivalDate:    pages.NewPlacementDate(answers(doc, "basic-information", "placement-date"), ctx).StartDate(),
		Duration:       pages.NewPlacementDuration(answers(doc, "basic-information", "placement-duration"), ctx).Duration(),
	}
}

// Submit sends a completed application for assessment
func (s *ApplicationService) Submit(ctx context.Context, user *models.User, rec *Record) error {
	if !rec.Editable {
		return ErrNotEditable
	}
	if !rec.Journey.Completed(rec.Context()) {
		return ErrIncomplete
	}

	if err := s.api.SubmitApplication(ctx, rec.ID, s.Submission(rec)); err != nil {
		return upstream("submit application "+rec.ID, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  ApplicationJourney,
		RecordID: rec.ID,
		Action:   audit.ActionSubmitted,
	})
	return nil
}

var withdrawalMessages = map[string]string{
	"reason":                  "Select a reason for withdrawing the application",
	"otherReason.required_if": "Enter the reason for withdrawing the application",
}

// Withdraw withdraws an application
func (s *ApplicationService) Withdraw(ctx context.Context, user *models.User, id string, in models.WithdrawApplication) error {
	if errs := checkStruct(in, withdrawalMessages); len(errs) > 0 {
		return &form.ValidationError{Errors: errs, UserInput: form.Answers{"reason": in.Reason, "otherReason": in.OtherReason}}
	}

	app, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !app.Status.CanWithdraw() {
		return ErrNotEditable
	}
	if user != nil && app.CreatedByUserID != "" && app.CreatedByUserID != user.ID &&
		!user.HasPermission(models.PermissionApplicationWithdrawAny) {
		return ErrForbidden
	}

	if err := s.api.WithdrawApplication(ctx, id, in); err != nil {
		return upstream("withdraw application "+id, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  ApplicationJourney,
		RecordID: id,
		Action:   audit.ActionWithdrawn,
		Detail:   map[string]any{"reason": in.Reason},
	})
	return nil
}
