package services

import (
	"context"
	"strings"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

// PlacementRequestService reads the placement requests waiting to be matched
type PlacementRequestService struct {
	api   *apiclient.Client
	audit audit.Repository
}

// NewPlacementRequestService creates a placement request service
func NewPlacementRequestService(api *apiclient.Client, auditRepo audit.Repository) *PlacementRequestService {
	return &PlacementRequestService{api: api, audit: auditRepo}
}

// List returns a page of placement requests with the given status
func (s *PlacementRequestService) List(ctx context.Context, status models.PlacementRequestStatus, q apiclient.PageQuery) (*apiclient.Paginated[models.PlacementRequest], error) {
	if status == "" {
		status = models.PlacementRequestNotMatched
	}
	page, err := s.api.PlacementRequests(ctx, status, q)
	return page, upstream("list placement requests", err)
}

// Get returns a placement request
func (s *PlacementRequestService) Get(ctx context.Context, id string) (*models.PlacementRequest, error) {
	pr, err := s.api.PlacementRequest(ctx, id)
	return pr, upstream("get placement request "+id, err)
}

var bookingNotMadeMessages = map[string]string{
	"notes.max": "The notes must be 2000 characters or fewer",
}

// BookingNotMade records that no suitable space could be found
func (s *PlacementRequestService) BookingNotMade(ctx context.Context, user *models.User, id, notes string) error {
	in := models.NewBookingNotMade{Notes: strings.TrimSpace(notes)}
	if errs := checkStruct(in, bookingNotMadeMessages); len(errs) > 0 {
		return &form.ValidationError{Errors: errs, UserInput: form.Answers{"notes": notes}}
	}

	if err := s.api.CreateBookingNotMade(ctx, id, in); err != nil {
		return upstream("record booking not made for "+id, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{Journey: "placement-request", RecordID: id, Action: audit.ActionBookingNotMade})
	return nil
}
