package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/models"
)

// PlacementApplicationJourney is the journey placement applications are filled in with
const PlacementApplicationJourney = "placement-application"

// PlacementApplicationService manages requests for further placements on an
// accepted application
type PlacementApplicationService struct {
	formEngine
	api *apiclient.Client
}

// NewPlacementApplicationService creates a placement application service
func NewPlacementApplicationService(api *apiclient.Client, loader *journeys.Loader, auditRepo audit.Repository) *PlacementApplicationService {
	s := &PlacementApplicationService{api: api}
	s.formEngine = formEngine{
		kind:     "placement-applications",
		journey:  PlacementApplicationJourney,
		journeys: loader,
		audit:    auditRepo,
		store: func(ctx context.Context, id string, doc form.Document) error {
			_, err := api.UpdatePlacementApplication(ctx, id, models.UpdatePlacementApplication{Data: doc})
			return err
		},
	}
	return s
}

var newPlacementApplicationMessages = map[string]string{
	"applicationId": "Select an application to request a placement for",
}

// Create starts a placement application for an application
func (s *PlacementApplicationService) Create(ctx context.Context, user *models.User, applicationID string) (*models.PlacementApplication, error) {
	in := models.NewPlacementApplication{ApplicationID: strings.TrimSpace(applicationID)}
	if errs := checkStruct(in, newPlacementApplicationMessages); len(errs) > 0 {
		return nil, &form.ValidationError{Errors: errs, UserInput: form.Answers{"applicationId": applicationID}}
	}

	pa, err := s.api.CreatePlacementApplication(ctx, in)
	if err != nil {
		return nil, upstream("create placement application", err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  PlacementApplicationJourney,
		RecordID: pa.ID,
		Action:   audit.ActionCreated,
		Detail:   map[string]any{"applicationId": in.ApplicationID},
	})
	return pa, nil
}

// Get returns a placement application
func (s *PlacementApplicationService) Get(ctx context.Context, id string) (*models.PlacementApplication, error) {
	pa, err := s.api.PlacementApplication(ctx, id)
	return pa, upstream("get placement application "+id, err)
}

// Load returns a placement application as a form record
func (s *PlacementApplicationService) Load(ctx context.Context, id string) (*Record, error) {
	pa, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		ID:          pa.ID,
		Document:    pa.Data,
		Status:      pa.Status,
		StatusLabel: "In progress",
		Editable:    pa.SubmittedAt == nil,
		RelatedID:   pa.ApplicationID,
	}
	if pa.Person != nil {
		rec.Person = *pa.Person
	}
	if !rec.Editable {
		rec.StatusLabel = "Submitted"
	}
	return s.load(rec)
}

// PlacementSubmission builds the submission of a completed placement application
func PlacementSubmission(rec *Record) models.SubmitPlacementApplication {
	reason := answers(rec.Document, "request-a-placement", "reason-for-placement").String("reason")
	when := answers(rec.Document, "request-a-placement", "dates-of-placement")

	out := models.SubmitPlacementApplication{
		Translated:     summary(rec),
		PlacementType:  reason,
		PlacementDates: []models.PlacementDates{},
	}
	if arrival := when.String("arrivalDate"); arrival != "" {
		stay := dates.Duration{Weeks: count(when.String("durationWeeks")), Days: count(when.String("durationDays"))}
		out.PlacementDates = append(out.PlacementDates, models.PlacementDates{
			ExpectedArrival: arrival,
			Duration:        stay.TotalDays(),
		})
	}
	return out
}

// Submit sends a completed placement application
func (s *PlacementApplicationService) Submit(ctx context.Context, user *models.User, rec *Record) error {
	if !rec.Editable {
		return ErrNotEditable
	}
	if !rec.Journey.Completed(rec.Context()) {
		return ErrIncomplete
	}

	in := PlacementSubmission(rec)
	if err := s.api.SubmitPlacementApplication(ctx, rec.ID, in); err != nil {
		return upstream("submit placement application "+rec.ID, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  PlacementApplicationJourney,
		RecordID: rec.ID,
		Action:   audit.ActionSubmitted,
		Detail:   map[string]any{"placementType": in.PlacementType},
	})
	return nil
}

// count reads a non-negative whole number answer, treating anything else as zero
func count(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
