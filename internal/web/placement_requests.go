package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/pagination"
	"github.com/terra-clan/approved-premises/internal/view"
)

var placementRequestTabs = []models.PlacementRequestStatus{
	models.PlacementRequestNotMatched,
	models.PlacementRequestUnableToMatch,
	models.PlacementRequestMatched,
}

// roomCharacteristics can be asked for when booking a space
var roomCharacteristics = []string{
	"isWheelchairDesignated",
	"isSingle",
	"isStepFreeDesignated",
	"isArsonSuitable",
	"isSuitedForSexOffenders",
	"hasEnSuite",
}

var bookingNotMadeField = form.Field{
	Name:  "notes",
	Type:  form.TextArea,
	Label: "Why could a space not be booked?",
}

func (s *Server) handleListPlacementRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := placementRequestTabs[0]
	for _, st := range placementRequestTabs {
		if string(st) == q.Get("status") {
			status = st
		}
	}

	list, err := s.services.PlacementRequests.List(r.Context(), status, apiclient.PageQuery{Page: pagination.ParsePage(q)})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	data := view.PlacementRequestListView{
		Requests: list.Items,
		Current:  status.Label(),
	}
	for _, st := range placementRequestTabs {
		data.Tabs = append(data.Tabs, view.Link{Text: st.Label(), Href: "/placement-requests?status=" + string(st)})
	}
	prefix := pagination.HrefPrefix("/placement-requests", map[string]string{"status": string(status)})
	data.Pagination = pagination.Build(list.PageNumber, list.TotalPages, prefix)

	s.render(w, r, http.StatusOK, "placement-requests/index", newPage(r, "Placement requests", popFlash(r), data))
}

func (s *Server) handleShowPlacementRequest(w http.ResponseWriter, r *http.Request) {
	pr, err := s.services.PlacementRequests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	flash := popFlash(r)
	user := UserFromContext(r.Context())
	base := view.RecordPath("placement-requests", pr.ID)
	data := view.PlacementRequestView{
		Request: pr,
		Status:  view.PlacementRequestStatusTag(pr.Status),
		Person:  view.PersonCard(pr.Person, pr.Risks),
		Details: view.PlacementRequestCard(pr),
	}
	if pr.Status != models.PlacementRequestMatched {
		if user.HasPermission(models.PermissionSpaceBookingCreate) {
			data.BookPath = base + "/space-bookings/new"
		}
		if pr.Status == models.PlacementRequestNotMatched && user.HasPermission(models.PermissionBookingNotMadeRecord) {
			data.Forms = append(data.Forms, view.ActionForm{
				Heading: "Unable to book a space",
				Action:  base + "/booking-not-made",
				Button:  "Mark as unable to match",
				Fields:  []view.FieldView{view.NewField(bookingNotMadeField, flash.UserInput, flash.Errors)},
				Warning: true,
			})
		}
	}

	page := newPage(r, pr.Person.DisplayName(), flash, data)
	page.BackLink = "/placement-requests"
	s.render(w, r, http.StatusOK, "placement-requests/show", page)
}

// spaceBookingFields builds the booking form, listing premises that take
// space bookings
func spaceBookingFields(premises []models.PremisesSummary) []form.Field {
	var sites []form.Option
	for _, p := range premises {
		sites = append(sites, form.Option{Value: p.ID, Label: p.Name})
	}
	var characteristics []form.Option
	for _, c := range roomCharacteristics {
		characteristics = append(characteristics, form.Option{Value: c, Label: view.CriterionLabel(c)})
	}
	return []form.Field{
		{Name: "premisesId", Type: form.Select, Label: "Approved Premises", Required: true, Options: sites},
		{Name: "arrivalDate", Type: form.Date, Label: "Arrival date", Hint: "For example, 27 3 2030", Required: true},
		{Name: "departureDate", Type: form.Date, Label: "Departure date", Hint: "For example, 27 4 2030", Required: true},
		{Name: "characteristics", Type: form.Checkboxes, Label: "Room criteria", Options: characteristics},
	}
}

func (s *Server) handleNewSpaceBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pr, err := s.services.PlacementRequests.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	premises, err := s.services.Premises.List(ctx, "")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	flash := popFlash(r)
	input := flash.UserInput
	if input == nil {
		input = form.Answers{
			"arrivalDate":     pr.ExpectedArrival,
			"departureDate":   pr.ExpectedDeparture(),
			"characteristics": pr.EssentialCriteria,
		}
	}

	base := view.RecordPath("placement-requests", pr.ID)
	data := view.FormView{
		Heading: "Book a space",
		Caption: pr.Person.DisplayName(),
		Cards:   []view.SummaryCard{view.PlacementRequestCard(pr)},
		Form: view.ActionForm{
			Action: base + "/space-bookings/new",
			Button: "Book space",
		},
	}
	for _, f := range spaceBookingFields(premises) {
		data.Form.Fields = append(data.Form.Fields, view.NewField(f, input, flash.Errors))
	}

	page := newPage(r, "Book a space", flash, data)
	page.BackLink = base
	s.render(w, r, http.StatusOK, "form", page)
}

func (s *Server) handleCreateSpaceBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	booking, err := s.services.SpaceBookings.Create(r.Context(), UserFromContext(r.Context()), id, models.NewSpaceBooking{
		PremisesID:      input.String("premisesId"),
		ArrivalDate:     dateAnswer(input, "arrivalDate"),
		DepartureDate:   dateAnswer(input, "departureDate"),
		Characteristics: input.Strings("characteristics"),
	})
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, view.RecordPath("placement-requests", id)+"/space-bookings/new", verr.Errors, input)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}

	to := view.RecordPath("premises", booking.Premises.ID) + "/space-bookings/" + booking.ID
	redirectWithSuccess(w, r, to, "Space booked for "+booking.Person.DisplayName())
}

func (s *Server) handleBookingNotMade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	err = s.services.PlacementRequests.BookingNotMade(r.Context(), UserFromContext(r.Context()), id, input.String("notes"))
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, view.RecordPath("placement-requests", id), verr.Errors, verr.UserInput)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}
	redirectWithSuccess(w, r, "/placement-requests", "The placement request has been marked as unable to match")
}
