package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/pages"
	"github.com/terra-clan/approved-premises/internal/pagination"
	"github.com/terra-clan/approved-premises/internal/view"
)

// assessmentTab is a tab of the assessments list and the statuses it shows
type assessmentTab struct {
	key      string
	label    string
	statuses []models.AssessmentStatus
}

var assessmentTabs = []assessmentTab{
	{"in_progress", "In progress", []models.AssessmentStatus{models.AssessmentNotStarted, models.AssessmentInProgress}},
	{"awaiting_response", "Requested further information", []models.AssessmentStatus{models.AssessmentAwaitingResponse}},
	{"completed", "Completed", []models.AssessmentStatus{models.AssessmentCompleted}},
}

var (
	assessmentSortFields  = []string{"name", "crn", "arrivalDate", "dueAt"}
	defaultAssessmentSort = pagination.Sort{Field: "arrivalDate", Direction: pagination.Ascending}
	clarificationField    = form.Field{
		Name:     "query",
		Type:     form.TextArea,
		Label:    "What information do you need from the applicant?",
		Required: true,
	}
)

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tab := assessmentTabs[0]
	for _, t := range assessmentTabs {
		if t.key == q.Get("status") {
			tab = t
		}
	}
	sort := pagination.ParseSort(q, assessmentSortFields, defaultAssessmentSort)

	list, err := s.services.Assessments.List(r.Context(), tab.statuses, apiclient.PageQuery{
		Page:          pagination.ParsePage(q),
		SortBy:        sort.Field,
		SortDirection: string(sort.Direction),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	data := view.AssessmentListView{
		Assessments: list.Items,
		Current:     tab.label,
	}
	for _, t := range assessmentTabs {
		data.Tabs = append(data.Tabs, view.Link{Text: t.label, Href: "/assessments?status=" + t.key})
	}
	sortPrefix := pagination.HrefPrefix("/assessments", map[string]string{"status": tab.key})
	for _, h := range []struct{ text, field string }{
		{"Name", "name"},
		{"CRN", "crn"},
		{"Arrival date", "arrivalDate"},
		{"Due", "dueAt"},
	} {
		data.Headers = append(data.Headers, pagination.SortHeader(h.text, h.field, sort, sortPrefix))
	}
	pagePrefix := pagination.HrefPrefix("/assessments", map[string]string{
		"status":        tab.key,
		"sortBy":        sort.Field,
		"sortDirection": string(sort.Direction),
	})
	data.Pagination = pagination.Build(list.PageNumber, list.TotalPages, pagePrefix)

	s.render(w, r, http.StatusOK, "assessments/index", newPage(r, "Assessments", popFlash(r), data))
}

func (s *Server) handleShowAssessment(w http.ResponseWriter, r *http.Request) {
	rec, err := loadRecord(r, s.services.Assessments)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	data, err := recordView(rec, "Assess an Approved Premises application", view.AssessmentStatusTag(models.AssessmentStatus(rec.Status)))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	data.Notes = rec.Notes

	flash := popFlash(r)
	user := UserFromContext(r.Context())
	base := view.RecordPath(rec.Kind, rec.ID)
	if rec.Editable && rec.Journey.Completed(rec.Context()) && user.HasPermission(models.PermissionAssessmentSubmit) {
		data.SubmitPath = base + "/submission"
		data.SubmitText = "Submit assessment"
	}
	if rec.Editable {
		data.Forms = append(data.Forms, view.ActionForm{
			Heading: "Request information from the applicant",
			Action:  base + "/clarification-notes",
			Button:  "Send request",
			Fields:  []view.FieldView{view.NewField(clarificationField, flash.UserInput, flash.Errors)},
		})
	}
	data.Links = append(data.Links, view.Link{Text: "View the application", Href: view.RecordPath("applications", rec.RelatedID)})

	s.render(w, r, http.StatusOK, "records/show", newPage(r, rec.Person.DisplayName(), flash, data))
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	rec, err := loadRecord(r, s.services.Assessments)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	outcome, err := s.services.Assessments.Submit(r.Context(), UserFromContext(r.Context()), rec.ID)
	if err != nil {
		s.submitFailed(w, r, rec, err)
		return
	}
	forgetRecord(r, rec)

	message := "Assessment rejected"
	if outcome == pages.OutcomeAccepted {
		message = "Assessment accepted. A placement request has been created."
	}
	redirectWithSuccess(w, r, "/assessments", message)
}

func (s *Server) handleCreateClarificationNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	input, err := postedForm(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
		return
	}

	_, err = s.services.Assessments.CreateClarificationNote(r.Context(), UserFromContext(r.Context()), id, input.String("query"))
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithErrors(w, r, view.RecordPath("assessments", id), verr.Errors, verr.UserInput)
		return
	case err != nil:
		s.handleError(w, r, err)
		return
	}
	redirectWithSuccess(w, r, view.RecordPath("assessments", id), "Your request for information has been sent")
}
