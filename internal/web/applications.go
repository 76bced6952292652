package web

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/session"
	"github.com/terra-clan/approved-premises/internal/view"
)

var (
	crnField = form.Field{
		Name:     "crn",
		Label:    "Enter the person's CRN",
		Hint:     "For example, X123456",
		Required: true,
	}
	withdrawalFields = []form.Field{
		{Name: "reason", Type: form.Radios, Label: "Why is the application being withdrawn?", Required: true, Options: models.WithdrawalReasons},
		{Name: "otherReason", Type: form.TextArea, Label: "Give the reason"},
	}
)

// applicationsAwaitingPlacement may have placements requested against them
var applicationsAwaitingPlacement = []models.ApplicationStatus{
	models.ApplicationAwaitingPlacement,
	models.ApplicationPendingPlacementRequest,
	models.ApplicationPlacementAllocated,
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.services.Applications.List(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	user := UserFromContext(r.Context())
	data := view.ApplicationListView{
		Applications: apps,
		CanCreate:    user.HasPermission(models.PermissionApplicationCreate),
	}
	s.render(w, r, http.StatusOK, "applications/index", newPage(r, "Applications", popFlash(r), data))
}

func (s *Server) handleNewApplication(w http.ResponseWriter, r *http.Request) {
	flash := popFlash(r)
	data := view.FormView{
		Heading: "Start a new application",
		Form: view.ActionForm{
			Action: "/applications",
			Button: "Save and continue",
			Fields: []view.FieldView{view.NewField(crnField, flash.UserInput, flash.Errors)},
		},
	}
	page := newPage(r, "Start a new application", flash, data)
	page.BackLink = "/applications"
	s.render(w, r, http.StatusOK, "form", page)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	app, err := s.services.Applications.Create(r.Context(), UserFromContext(r.Context()), input.String("crn"))
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, "/applications/new", verr.Errors, verr.UserInput)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, view.RecordPath("applications", app.ID), http.StatusSeeOther)
}

func (s *Server) handleShowApplication(w http.ResponseWriter, r *http.Request) {
	rec, err := loadRecord(r, s.services.Applications)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	status := models.ApplicationStatus(rec.Status)
	data, err := recordView(rec, "Apply for an Approved Premises placement", view.ApplicationStatusTag(status))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	flash := popFlash(r)
	user := UserFromContext(r.Context())
	base := view.RecordPath(rec.Kind, rec.ID)
	if rec.Editable && rec.Journey.Completed(rec.Context()) {
		data.SubmitPath = base + "/submission"
		data.SubmitText = "Submit application"
	}
	if user.HasPermission(models.PermissionPlacementAppCreate) && slices.Contains(applicationsAwaitingPlacement, status) {
		data.Forms = append(data.Forms, view.ActionForm{
			Heading: "Request a placement",
			Action:  "/placement-applications",
			Button:  "Request a placement",
			Fields:  []view.FieldView{{Name: "applicationId", Type: string(view.Hidden), Value: rec.ID}},
		})
	}
	if user.HasPermission(models.PermissionApplicationWithdraw) && status.CanWithdraw() {
		withdraw := view.ActionForm{
			Heading: "Withdraw this application",
			Action:  base + "/withdrawal",
			Button:  "Withdraw application",
			Warning: true,
		}
		for _, f := range withdrawalFields {
			withdraw.Fields = append(withdraw.Fields, view.NewField(f, flash.UserInput, flash.Errors))
		}
		data.Forms = append(data.Forms, withdraw)
	}

	s.render(w, r, http.StatusOK, "records/show", newPage(r, rec.Person.DisplayName(), flash, data))
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	rec, err := loadRecord(r, s.services.Applications)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.services.Applications.Submit(r.Context(), UserFromContext(r.Context()), rec); err != nil {
		s.submitFailed(w, r, rec, err)
		return
	}
	forgetRecord(r, rec)
	redirectWithSuccess(w, r, "/applications", "Application submitted")
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	in := models.WithdrawApplication{
		Reason:      input.String("reason"),
		OtherReason: strings.TrimSpace(input.String("otherReason")),
	}
	err = s.services.Applications.Withdraw(r.Context(), UserFromContext(r.Context()), id, in)
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, view.RecordPath("applications", id), verr.Errors, input)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}

	if sess := session.FromContext(r.Context()); sess != nil {
		sess.ClearDocument("applications", id)
	}
	redirectWithSuccess(w, r, "/applications", "Application withdrawn")
}
