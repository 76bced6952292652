package services

import (
	"context"
	"slices"
	"strings"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

// OutOfServiceBedService takes beds out of use
type OutOfServiceBedService struct {
	api   *apiclient.Client
	audit audit.Repository
}

// NewOutOfServiceBedService creates an out of service bed service
func NewOutOfServiceBedService(api *apiclient.Client, auditRepo audit.Repository) *OutOfServiceBedService {
	return &OutOfServiceBedService{api: api, audit: auditRepo}
}

// List returns the out of service beds of a premises, soonest first
func (s *OutOfServiceBedService) List(ctx context.Context, premisesID string) ([]models.OutOfServiceBed, error) {
	beds, err := s.api.OutOfServiceBeds(ctx, premisesID)
	if err != nil {
		return nil, upstream("list out of service beds of premises "+premisesID, err)
	}
	slices.SortStableFunc(beds, func(a, b models.OutOfServiceBed) int { return strings.Compare(a.StartDate, b.StartDate) })
	return beds, nil
}

// Beds returns the beds of a premises that can be taken out of service
func (s *OutOfServiceBedService) Beds(ctx context.Context, premisesID string) ([]models.Bed, error) {
	beds, err := s.api.PremisesBeds(ctx, premisesID)
	return beds, upstream("list beds of premises "+premisesID, err)
}

var outOfServiceBedMessages = map[string]string{
	"bedId":               "You must select a bed",
	"startDate.required":  "You must enter a start date",
	"startDate":           "The start date is an invalid date",
	"endDate.required":    "You must enter an end date",
	"endDate":             "The end date is an invalid date",
	"reasonId":            "You must select a reason",
	"referenceNumber.max": "The reference number must be 50 characters or fewer",
	"notes.max":           "The notes must be 2000 characters or fewer",
}

// Create takes a bed out of service for a period
func (s *OutOfServiceBedService) Create(ctx context.Context, user *models.User, premisesID string, in models.NewOutOfServiceBed) (*models.OutOfServiceBed, error) {
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	in.Notes = strings.TrimSpace(in.Notes)
	input := form.Answers{
		"bedId":           in.BedID,
		"startDate":       in.StartDate,
		"endDate":         in.EndDate,
		"reasonId":        in.ReasonID,
		"referenceNumber": in.ReferenceNumber,
		"notes":           in.Notes,
	}

	errs := checkStruct(in, outOfServiceBedMessages)
	if in.ReasonID != "" && !slices.ContainsFunc(models.OutOfServiceBedReasons, func(o form.Option) bool { return o.Value == in.ReasonID }) {
		errs.Add("reasonId", "You must select a reason")
	}
	checkDateOrder(&errs, in.StartDate, in.EndDate, "endDate", "The end date must be on or after the start date")
	if len(errs) > 0 {
		return nil, &form.ValidationError{Errors: errs, UserInput: input}
	}

	bed, err := s.api.CreateOutOfServiceBed(ctx, premisesID, in)
	if err != nil {
		if verr := validationFromAPI(err, input); verr != nil {
			return nil, verr
		}
		return nil, upstream("create out of service bed in premises "+premisesID, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  "premises",
		RecordID: premisesID,
		Action:   audit.ActionBedOutOfService,
		Detail:   map[string]any{"bedId": in.BedID, "outOfServiceBedId": bed.ID},
	})
	return bed, nil
}
