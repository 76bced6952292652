package web

import (
	"errors"
	"net/http"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/view"
)

func (s *Server) handleCreatePlacementApplication(w http.ResponseWriter, r *http.Request) {
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}
	applicationID := input.String("applicationId")

	pa, err := s.services.PlacementApplications.Create(r.Context(), UserFromContext(r.Context()), applicationID)
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		back := "/applications"
		if applicationID != "" {
			back = view.RecordPath("applications", applicationID)
		}
		redirectWithErrors(w, r, back, verr.Errors, verr.UserInput)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, view.RecordPath("placement-applications", pa.ID), http.StatusSeeOther)
}

func (s *Server) handleShowPlacementApplication(w http.ResponseWriter, r *http.Request) {
	rec, err := loadRecord(r, s.services.PlacementApplications)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	status := view.Tag{Text: rec.StatusLabel, Class: "govuk-tag govuk-tag--blue"}
	if !rec.Editable {
		status.Class = "govuk-tag"
	}
	data, err := recordView(rec, "Request a placement", status)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if rec.Editable && rec.Journey.Completed(rec.Context()) {
		data.SubmitPath = view.RecordPath(rec.Kind, rec.ID) + "/submission"
		data.SubmitText = "Submit placement request"
	}
	if rec.RelatedID != "" {
		data.Links = append(data.Links, view.Link{Text: "View the application", Href: view.RecordPath("applications", rec.RelatedID)})
	}

	s.render(w, r, http.StatusOK, "records/show", newPage(r, "Request a placement", popFlash(r), data))
}

func (s *Server) handleSubmitPlacementApplication(w http.ResponseWriter, r *http.Request) {
	rec, err := loadRecord(r, s.services.PlacementApplications)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.services.PlacementApplications.Submit(r.Context(), UserFromContext(r.Context()), rec); err != nil {
		s.submitFailed(w, r, rec, err)
		return
	}
	forgetRecord(r, rec)
	redirectWithSuccess(w, r, "/", "Placement request submitted")
}
