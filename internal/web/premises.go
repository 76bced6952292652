package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/overbooking"
	"github.com/terra-clan/approved-premises/internal/pagination"
	"github.com/terra-clan/approved-premises/internal/services"
	"github.com/terra-clan/approved-premises/internal/view"
)

var residencyTabs = []struct{ key, label string }{
	{services.ResidencyUpcoming, "Upcoming"},
	{services.ResidencyCurrent, "Current"},
	{services.ResidencyHistoric, "Historical"},
}

var (
	spaceBookingSortFields  = []string{"personName", "tier", "canonicalArrivalDate", "canonicalDepartureDate"}
	defaultSpaceBookingSort = pagination.Sort{Field: "canonicalArrivalDate", Direction: pagination.Ascending}

	cancellationFields = []form.Field{
		{Name: "occurredAt", Type: form.Date, Label: "When was the booking withdrawn?", Required: true},
		{Name: "reasonId", Type: form.Radios, Label: "Why is the booking being withdrawn?", Required: true, Options: models.CancellationReasons},
		{Name: "reasonNotes", Type: form.TextArea, Label: "Give details"},
	}
	outOfServiceBedFields = []form.Field{
		{Name: "startDate", Type: form.Date, Label: "Start date", Required: true},
		{Name: "endDate", Type: form.Date, Label: "End date", Required: true},
		{Name: "reasonId", Type: form.Radios, Label: "Reason", Required: true, Options: models.OutOfServiceBedReasons},
		{Name: "referenceNumber", Label: "Work order reference number"},
		{Name: "notes", Type: form.TextArea, Label: "Provide detail about why the bed is out of service"},
	}
)

func (s *Server) handleListPremises(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	area := r.URL.Query().Get("area")

	all, err := s.services.Premises.List(ctx, "")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	data := view.PremisesListView{Premises: all}
	if area != "" {
		if data.Premises, err = s.services.Premises.List(ctx, area); err != nil {
			s.handleError(w, r, err)
			return
		}
	}
	for _, a := range services.Areas(all) {
		data.Areas = append(data.Areas, view.OptionView{Value: a.ID, Label: a.Name, Checked: a.ID == area})
	}

	s.render(w, r, http.StatusOK, "premises/index", newPage(r, "Approved Premises", popFlash(r), data))
}

func (s *Server) handleShowPremises(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	sort := pagination.ParseSort(q, spaceBookingSortFields, defaultSpaceBookingSort)

	overview, err := s.services.Premises.Overview(r.Context(), id, q.Get("residency"), apiclient.PageQuery{
		Page:          pagination.ParsePage(q),
		SortBy:        sort.Field,
		SortDirection: string(sort.Direction),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	base := view.RecordPath("premises", id)
	data := view.PremisesView{
		Overview:    overview,
		Overbooking: overbooking.Banner(overview.Capacity.Overbooked),
	}
	for _, t := range residencyTabs {
		data.Tabs = append(data.Tabs, view.Link{Text: t.label, Href: base + "?residency=" + t.key})
		if t.key == overview.Residency {
			data.Current = t.label
		}
	}
	sortPrefix := pagination.HrefPrefix(base, map[string]string{"residency": overview.Residency})
	for _, h := range []struct{ text, field string }{
		{"Name", "personName"},
		{"Tier", "tier"},
		{"Arrival date", "canonicalArrivalDate"},
		{"Departure date", "canonicalDepartureDate"},
	} {
		data.Headers = append(data.Headers, pagination.SortHeader(h.text, h.field, sort, sortPrefix))
	}
	pagePrefix := pagination.HrefPrefix(base, map[string]string{
		"residency":     overview.Residency,
		"sortBy":        sort.Field,
		"sortDirection": string(sort.Direction),
	})
	data.Pagination = pagination.Build(overview.SpaceBookings.PageNumber, overview.SpaceBookings.TotalPages, pagePrefix)
	data.Links = append(data.Links, view.Link{Text: "Manage out of service beds", Href: base + "/out-of-service-beds"})

	page := newPage(r, overview.Premises.Name, popFlash(r), data)
	page.BackLink = "/premises"
	s.render(w, r, http.StatusOK, "premises/show", page)
}

func (s *Server) handleShowSpaceBooking(w http.ResponseWriter, r *http.Request) {
	premisesID, bookingID := chi.URLParam(r, "id"), chi.URLParam(r, "bookingId")
	booking, err := s.services.SpaceBookings.Get(r.Context(), premisesID, bookingID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	flash := popFlash(r)
	data := view.SpaceBookingView{
		Booking: booking,
		Person:  view.PersonCard(booking.Person, nil),
		Details: view.SpaceBookingCard(booking),
	}
	if !booking.IsCancelled() && UserFromContext(r.Context()).HasPermission(models.PermissionSpaceBookingWithdraw) {
		cancel := view.ActionForm{
			Heading: "Withdraw this booking",
			Action:  view.RecordPath("premises", premisesID) + "/space-bookings/" + bookingID + "/cancellations",
			Button:  "Withdraw booking",
			Warning: true,
		}
		for _, f := range cancellationFields {
			cancel.Fields = append(cancel.Fields, view.NewField(f, flash.UserInput, flash.Errors))
		}
		data.Cancel = &cancel
	}

	page := newPage(r, booking.Person.DisplayName(), flash, data)
	page.BackLink = view.RecordPath("premises", premisesID)
	s.render(w, r, http.StatusOK, "space-bookings/show", page)
}

func (s *Server) handleCancelSpaceBooking(w http.ResponseWriter, r *http.Request) {
	premisesID, bookingID := chi.URLParam(r, "id"), chi.URLParam(r, "bookingId")
	bookingPath := view.RecordPath("premises", premisesID) + "/space-bookings/" + bookingID
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	err = s.services.SpaceBookings.Cancel(r.Context(), UserFromContext(r.Context()), premisesID, bookingID, models.NewCancellation{
		OccurredAt:  dateAnswer(input, "occurredAt"),
		ReasonID:    input.String("reasonId"),
		ReasonNotes: input.String("reasonNotes"),
	})
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, bookingPath, verr.Errors, input)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}
	redirectWithSuccess(w, r, bookingPath, "Booking withdrawn")
}

func (s *Server) handleListOutOfServiceBeds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	beds, err := s.services.OutOfServiceBeds.List(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	base := view.RecordPath("premises", id) + "/out-of-service-beds"
	data := view.OutOfServiceBedListView{PremisesID: id, Beds: beds}
	if UserFromContext(r.Context()).HasPermission(models.PermissionOutOfServiceBedCreate) {
		data.NewPath = base + "/new"
	}
	s.render(w, r, http.StatusOK, "out-of-service-beds/index", newPage(r, "Out of service beds", popFlash(r), data))
}

func (s *Server) handleNewOutOfServiceBed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	beds, err := s.services.OutOfServiceBeds.Beds(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var options []form.Option
	for _, b := range beds {
		label := b.Name
		if b.RoomName != "" {
			label = b.RoomName + " - " + b.Name
		}
		options = append(options, form.Option{Value: b.ID, Label: label})
	}
	fields := append([]form.Field{{Name: "bedId", Type: form.Select, Label: "Bed", Required: true, Options: options}}, outOfServiceBedFields...)

	flash := popFlash(r)
	base := view.RecordPath("premises", id) + "/out-of-service-beds"
	data := view.FormView{
		Heading: "Mark a bed as out of service",
		Form:    view.ActionForm{Action: base + "/new", Button: "Save and continue"},
	}
	for _, f := range fields {
		data.Form.Fields = append(data.Form.Fields, view.NewField(f, flash.UserInput, flash.Errors))
	}

	page := newPage(r, "Mark a bed as out of service", flash, data)
	page.BackLink = base
	s.render(w, r, http.StatusOK, "form", page)
}

func (s *Server) handleCreateOutOfServiceBed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	base := view.RecordPath("premises", id) + "/out-of-service-beds"
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	_, err = s.services.OutOfServiceBeds.Create(r.Context(), UserFromContext(r.Context()), id, models.NewOutOfServiceBed{
		BedID:           input.String("bedId"),
		StartDate:       dateAnswer(input, "startDate"),
		EndDate:         dateAnswer(input, "endDate"),
		ReasonID:        input.String("reasonId"),
		ReferenceNumber: input.String("referenceNumber"),
		Notes:           input.String("notes"),
	})
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, base+"/new", verr.Errors, input)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}
	redirectWithSuccess(w, r, base, "The bed has been marked as out of service")
}
