package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/health"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/overbooking"
	"github.com/terra-clan/approved-premises/internal/services"
)

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	status, state := http.StatusOK, "ready"
	if !health.Healthy(results) {
		status, state = http.StatusServiceUnavailable, "not_ready"
	}
	respondJSON(w, status, map[string]any{
		"status": state,
		"checks": checks,
	})
}

// Dashboard

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.services.Dashboard.Get(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", newPage(r, "Approved Premises", popFlash(r), d))
}

// JSON handlers

type personSearchResponse struct {
	Person *models.Person      `json:"person"`
	Risks  *models.PersonRisks `json:"risks,omitempty"`
}

func (s *Server) handleSearchPerson(w http.ResponseWriter, r *http.Request) {
	person, err := s.services.People.Search(r.Context(), r.URL.Query().Get("crn"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := personSearchResponse{Person: person}
	if person.Type == models.PersonTypeFull {
		risks, err := s.services.People.Risks(r.Context(), person.CRN)
		switch {
		case err == nil:
			resp.Risks = risks
		case services.IsNotFound(err):
		default:
			slog.Warn("failed to fetch risks", "error", err, "crn", person.CRN)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type capacityResponse struct {
	*models.PremisesCapacity
	Overbooked []overbooking.Range `json:"overbooked"`
	Banner     []string            `json:"banner"`
}

func (s *Server) handlePremisesCapacity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, key := range []string{"startDate", "endDate"} {
		if v := q.Get(key); v != "" {
			if _, err := dates.ParseISO(v); err != nil {
				respondError(w, http.StatusBadRequest, "validation_error", key+" must be a date in the format YYYY-MM-DD")
				return
			}
		}
	}

	c, err := s.services.Premises.Capacity(r.Context(), chi.URLParam(r, "id"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, capacityResponse{
		PremisesCapacity: c.PremisesCapacity,
		Overbooked:       c.Overbooked,
		Banner:           overbooking.Banner(c.Overbooked),
	})
}
