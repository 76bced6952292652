package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/services"
	"github.com/terra-clan/approved-premises/internal/session"
	"github.com/terra-clan/approved-premises/internal/view"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorFields(w, status, code, message, nil)
}

func respondErrorFields(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func isJSONRoute(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

var errorTitles = map[int]string{
	http.StatusBadRequest:          "There is a problem",
	http.StatusUnauthorized:        "Sign in required",
	http.StatusForbidden:           "You do not have permission to view this page",
	http.StatusNotFound:            "Page not found",
	http.StatusConflict:            "This record can no longer be changed",
	http.StatusBadGateway:          "Sorry, there is a problem with the service",
	http.StatusInternalServerError: "Sorry, there is a problem with the service",
}

// fail writes an error page, or the JSON envelope on API routes
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if isJSONRoute(r) {
		respondError(w, status, code, message)
		return
	}

	title, ok := errorTitles[status]
	if !ok {
		title = http.StatusText(status)
	}
	page := view.NewPage(title, UserFromContext(r.Context()), nil, message)
	if err := s.views.Render(w, status, "error", page); err != nil {
		slog.Error("failed to render error page", "error", err, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, message, status)
	}
}

// handleError maps service and upstream errors onto responses
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		if isJSONRoute(r) {
			respondErrorFields(w, http.StatusBadRequest, "validation_error", "The request is invalid", verr.Errors.Map())
			return
		}
		message := "The request is invalid"
		if len(verr.Errors) > 0 {
			message = verr.Errors[0].Message
		}
		s.fail(w, r, http.StatusBadRequest, "validation_error", message)
	case services.IsNotFound(err):
		s.fail(w, r, http.StatusNotFound, "not_found", "The page you were looking for could not be found")
	case errors.Is(err, services.ErrForbidden), errors.Is(err, apiclient.ErrForbidden):
		s.fail(w, r, http.StatusForbidden, "forbidden", "You do not have permission to do this")
	case errors.Is(err, apiclient.ErrUnauthorized):
		s.fail(w, r, http.StatusUnauthorized, "unauthenticated", "Your session has expired. Sign in again.")
	case errors.Is(err, services.ErrNotEditable), errors.Is(err, apiclient.ErrConflict):
		s.fail(w, r, http.StatusConflict, "conflict", "This record can no longer be changed")
	case errors.Is(err, services.ErrInvalidRange):
		s.fail(w, r, http.StatusBadRequest, "invalid_range", "The end date must be after the start date")
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		s.fail(w, r, http.StatusInternalServerError, "internal_error", "Try again later")
	}
}

// popFlash returns the flash left by the previous request
func popFlash(r *http.Request) session.Flash {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess.PopFlash()
	}
	return session.Flash{}
}

// newPage wraps view data with the user and the flashed messages
func newPage(r *http.Request, title string, flash session.Flash, data any) *view.Page {
	page := view.NewPage(title, UserFromContext(r.Context()), flash.Errors, data)
	page.Success = flash.Success
	return page
}

// render writes a view, falling back to a plain error when it fails
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, page *view.Page) {
	if err := s.views.Render(w, status, name, page); err != nil {
		slog.Error("failed to render view", "error", err, "view", name, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// redirectWithErrors sends the user back to a form with its errors and input.
// The input is shown again on the following GET.
func redirectWithErrors(w http.ResponseWriter, r *http.Request, to string, errs form.FieldErrors, input form.Answers) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.SetFlash(session.Flash{Errors: errs, UserInput: input})
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// redirectWithSuccess redirects with a banner shown on the next page
func redirectWithSuccess(w http.ResponseWriter, r *http.Request, to, message string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.SetFlash(session.Flash{Success: message})
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// postedForm parses a form submission into answers
func postedForm(r *http.Request) (form.Answers, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return form.AnswersFromForm(r.PostForm), nil
}

// dateAnswer reads a day/month/year field as an ISO date. Dates that are not
// real are passed on as typed so validation rejects them.
func dateAnswer(a form.Answers, key string) string {
	in := dates.InputFromFields(a.String, key)
	if in.IsEmpty() {
		return ""
	}
	if iso := in.ISO(); iso != "" {
		return iso
	}
	return in.Year + "-" + in.Month + "-" + in.Day
}
