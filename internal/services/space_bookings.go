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

// SpaceBookingService books, reads and cancels spaces in premises
type SpaceBookingService struct {
	api   *apiclient.Client
	audit audit.Repository
}

// NewSpaceBookingService creates a space booking service
func NewSpaceBookingService(api *apiclient.Client, auditRepo audit.Repository) *SpaceBookingService {
	return &SpaceBookingService{api: api, audit: auditRepo}
}

var newSpaceBookingMessages = map[string]string{
	"premisesId":             "You must select a premises",
	"arrivalDate.required":   "You must enter an arrival date",
	"arrivalDate":            "The arrival date is an invalid date",
	"departureDate.required": "You must enter a departure date",
	"departureDate":          "The departure date is an invalid date",
}

// Create books a space for a placement request
func (s *SpaceBookingService) Create(ctx context.Context, user *models.User, placementRequestID string, in models.NewSpaceBooking) (*models.SpaceBooking, error) {
	input := form.Answers{
		"premisesId":      in.PremisesID,
		"arrivalDate":     in.ArrivalDate,
		"departureDate":   in.DepartureDate,
		"characteristics": in.Characteristics,
	}
	errs := checkStruct(in, newSpaceBookingMessages)
	checkDateOrder(&errs, in.ArrivalDate, in.DepartureDate, "departureDate", "The departure date must be after the arrival date")
	if len(errs) > 0 {
		return nil, &form.ValidationError{Errors: errs, UserInput: input}
	}

	booking, err := s.api.CreateSpaceBooking(ctx, placementRequestID, in)
	if err != nil {
		if verr := validationFromAPI(err, input); verr != nil {
			return nil, verr
		}
		return nil, upstream("book space for placement request "+placementRequestID, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  "placement-request",
		RecordID: placementRequestID,
		Action:   audit.ActionSpaceBooked,
		Detail: map[string]any{
			"premisesId":     in.PremisesID,
			"spaceBookingId": booking.ID,
		},
	})
	return booking, nil
}

// Get returns a space booking
func (s *SpaceBookingService) Get(ctx context.Context, premisesID, bookingID string) (*models.SpaceBooking, error) {
	b, err := s.api.SpaceBooking(ctx, premisesID, bookingID)
	return b, upstream("get space booking "+bookingID, err)
}

var cancellationMessages = map[string]string{
	"occurredAt.required": "You must enter the date the booking was withdrawn",
	"occurredAt":          "The withdrawal date is an invalid date",
	"reasonId":            "You must select a reason",
	"reasonNotes.max":     "The notes must be 2000 characters or fewer",
}

// Cancel withdraws a space booking
func (s *SpaceBookingService) Cancel(ctx context.Context, user *models.User, premisesID, bookingID string, in models.NewCancellation) error {
	in.ReasonNotes = strings.TrimSpace(in.ReasonNotes)
	input := form.Answers{"occurredAt": in.OccurredAt, "reasonId": in.ReasonID, "reasonNotes": in.ReasonNotes}

	errs := checkStruct(in, cancellationMessages)
	if in.ReasonID != "" && !slices.ContainsFunc(models.CancellationReasons, func(o form.Option) bool { return o.Value == in.ReasonID }) {
		errs.Add("reasonId", "You must select a reason")
	}
	if in.ReasonID == "other" && in.ReasonNotes == "" && errs.Get("reasonNotes") == "" {
		errs.Add("reasonNotes", "You must explain why the booking was withdrawn")
	}
	if len(errs) > 0 {
		return &form.ValidationError{Errors: errs, UserInput: input}
	}

	booking, err := s.Get(ctx, premisesID, bookingID)
	if err != nil {
		return err
	}
	if booking.IsCancelled() {
		return ErrNotEditable
	}

	if err := s.api.CancelSpaceBooking(ctx, premisesID, bookingID, in); err != nil {
		if verr := validationFromAPI(err, input); verr != nil {
			return verr
		}
		return upstream("cancel space booking "+bookingID, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  "premises",
		RecordID: bookingID,
		Action:   audit.ActionBookingCancelled,
		Detail:   map[string]any{"premisesId": premisesID, "reason": in.ReasonID},
	})
	return nil
}
