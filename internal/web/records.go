package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/services"
	"github.com/terra-clan/approved-premises/internal/session"
	"github.com/terra-clan/approved-premises/internal/view"
)

// loadRecord loads the record named in the URL. While a record can be edited
// the answers kept in the session are the latest.
func loadRecord(r *http.Request, svc services.FormService) (*services.Record, error) {
	rec, err := svc.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if !rec.Editable {
		return rec, nil
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		if doc, ok := sess.Document(rec.Kind, rec.ID); ok {
			rec.Document = doc
		}
	}
	return rec, nil
}

// forgetRecord drops the answers kept for a record once it is submitted
func forgetRecord(r *http.Request, rec *services.Record) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.ClearDocument(rec.Kind, rec.ID)
	}
}

// recordView builds the task list page shared by every record type
func recordView(rec *services.Record, heading string, status view.Tag) (view.RecordView, error) {
	list, err := view.NewTaskList(rec)
	if err != nil {
		return view.RecordView{}, err
	}
	v := view.RecordView{
		Heading:  heading,
		Status:   status,
		Person:   view.PersonCard(rec.Person, nil),
		TaskList: list,
	}
	if rec.Editable && rec.Journey.Completed(rec.Context()) {
		v.Links = append(v.Links, view.Link{Text: "Check your answers", Href: view.RecordPath(rec.Kind, rec.ID) + "/check-your-answers"})
	}
	return v, nil
}

func (s *Server) handleShowPage(svc services.FormService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := loadRecord(r, svc)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if !rec.Editable {
			http.Redirect(w, r, view.RecordPath(rec.Kind, rec.ID), http.StatusSeeOther)
			return
		}

		task, pageName := chi.URLParam(r, "task"), chi.URLParam(r, "page")
		flash := popFlash(r)
		p, err := rec.Page(task, pageName, flash.UserInput)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		data := view.WizardView{
			Caption: rec.Person.DisplayName(),
			Form:    view.NewFormPage(p, flash.Errors),
			Action:  view.PagePath(rec.Kind, rec.ID, task, pageName),
		}
		if task == view.ReviewTask {
			data.Summary = view.SummaryCards(rec)
		}

		page := newPage(r, p.Title(), flash, data)
		page.BackLink = view.RecordPath(rec.Kind, rec.ID)
		if prev := p.Previous(); prev != "" {
			page.BackLink = view.PagePath(rec.Kind, rec.ID, task, prev)
		}
		s.render(w, r, http.StatusOK, "records/page", page)
	}
}

func (s *Server) handleSavePage(svc services.FormService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := loadRecord(r, svc)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		input, err := postedForm(r)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid_request", "The form could not be read")
			return
		}

		task, pageName := chi.URLParam(r, "task"), chi.URLParam(r, "page")
		result, err := svc.SavePage(r.Context(), UserFromContext(r.Context()), rec, task, pageName, input)
		var verr *form.ValidationError
		switch {
		case errors.As(err, &verr):
			redirectWithErrors(w, r, view.PagePath(rec.Kind, rec.ID, task, pageName), verr.Errors, verr.UserInput)
			return
		case err != nil:
			s.handleError(w, r, err)
			return
		}

		if sess := session.FromContext(r.Context()); sess != nil {
			sess.SetDocument(rec.Kind, rec.ID, result.Document)
		}

		next := view.RecordPath(rec.Kind, rec.ID)
		if result.Next != "" {
			next = view.PagePath(rec.Kind, rec.ID, task, result.Next)
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

func (s *Server) handleCheckYourAnswers(svc services.FormService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := loadRecord(r, svc)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		base := view.RecordPath(rec.Kind, rec.ID)
		data := view.CheckAnswersView{
			Heading:  "Check your answers",
			Cards:    view.SummaryCards(rec),
			Complete: rec.Editable && rec.Journey.Completed(rec.Context()),
			TaskList: base,
		}
		if data.Complete {
			data.SubmitPath = base + "/submission"
		}

		page := newPage(r, "Check your answers", popFlash(r), data)
		page.BackLink = base
		s.render(w, r, http.StatusOK, "records/check-your-answers", page)
	}
}

// submitFailed sends the user back after a submission that could not be made.
// Incomplete records return to the check your answers page.
func (s *Server) submitFailed(w http.ResponseWriter, r *http.Request, rec *services.Record, err error) {
	if errors.Is(err, services.ErrIncomplete) {
		var errs form.FieldErrors
		errs.Add("submission", "You must complete every task before you can submit")
		redirectWithErrors(w, r, view.RecordPath(rec.Kind, rec.ID)+"/check-your-answers", errs, nil)
		return
	}
	s.handleError(w, r, err)
}
