// Package apistub is an in-process stand-in for the Approved Premises API.
// It keeps records in memory, follows the lifecycle the real API applies on
// submission, acceptance and booking, and is used by handler and service tests.
package apistub

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/models"
)

// PageSize is the number of items in a paginated response
const PageSize = 10

// Failure is a canned error response
type Failure struct {
	Status        int
	Detail        string
	InvalidParams []apiclient.InvalidParam
}

// Stub is a running fake API
type Stub struct {
	mu     sync.Mutex
	server *httptest.Server

	users                 map[string]models.User
	people                map[string]models.Person
	risks                 map[string]models.PersonRisks
	applications          map[string]*models.Application
	assessments           map[string]*models.Assessment
	placementApplications map[string]*models.PlacementApplication
	placementRequests     map[string]*models.PlacementRequest
	premises              map[string]*models.Premises
	beds                  map[string][]models.Bed
	capacity              map[string][]models.CapacityDay
	spaceBookings         map[string]*models.SpaceBooking
	outOfServiceBeds      map[string][]models.OutOfServiceBed
	failures              map[string]Failure

	// requests seen, as "METHOD /path"
	calls []string
	// bodies received by submit style endpoints, keyed by record ID
	submissions          map[string]models.SubmitApplication
	acceptances          map[string]models.AssessmentAcceptance
	rejections           map[string]models.AssessmentRejection
	placementSubmissions map[string]models.SubmitPlacementApplication
	bookingsNotMade      map[string]models.NewBookingNotMade
}

// New starts a stub API
func New() *Stub {
	s := &Stub{
		users:                 make(map[string]models.User),
		people:                make(map[string]models.Person),
		risks:                 make(map[string]models.PersonRisks),
		applications:          make(map[string]*models.Application),
		assessments:           make(map[string]*models.Assessment),
		placementApplications: make(map[string]*models.PlacementApplication),
		placementRequests:     make(map[string]*models.PlacementRequest),
		premises:              make(map[string]*models.Premises),
		beds:                  make(map[string][]models.Bed),
		capacity:              make(map[string][]models.CapacityDay),
		spaceBookings:         make(map[string]*models.SpaceBooking),
		outOfServiceBeds:      make(map[string][]models.OutOfServiceBed),
		failures:              make(map[string]Failure),
		submissions:           make(map[string]models.SubmitApplication),
		acceptances:           make(map[string]models.AssessmentAcceptance),
		rejections:            make(map[string]models.AssessmentRejection),
		placementSubmissions:  make(map[string]models.SubmitPlacementApplication),
		bookingsNotMade:       make(map[string]models.NewBookingNotMade),
	}
	s.server = httptest.NewServer(s.routes())
	return s
}

// URL is the base URL of the stub
func (s *Stub) URL() string { return s.server.URL }

// Close stops the stub
func (s *Stub) Close() { s.server.Close() }

// Client returns an API client pointed at the stub
func (s *Stub) Client(opts ...apiclient.Option) *apiclient.Client {
	return apiclient.New(s.server.URL, opts...)
}

// AddUser makes token authenticate as user
func (s *Stub) AddUser(token string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[token] = user
}

// AddPerson makes a person findable by CRN
func (s *Stub) AddPerson(p models.Person, risks *models.PersonRisks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.CRN] = p
	if risks != nil {
		s.risks[p.CRN] = *risks
	}
}

// AddApplication stores an application as it is
func (s *Stub) AddApplication(app models.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = &app
}

// AddAssessment stores an assessment as it is
func (s *Stub) AddAssessment(a models.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = &a
}

// AddPlacementRequest stores a placement request as it is
func (s *Stub) AddPlacementRequest(pr models.PlacementRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placementRequests[pr.ID] = &pr
}

// AddPremises stores a premises with its beds and capacity
func (s *Stub) AddPremises(p models.Premises, beds []models.Bed, capacity []models.CapacityDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premises[p.ID] = &p
	s.beds[p.ID] = beds
	s.capacity[p.ID] = capacity
}

// AddSpaceBooking stores a space booking as it is
func (s *Stub) AddSpaceBooking(b models.SpaceBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaceBookings[b.ID] = &b
}

// Fail makes every request matching method and path return f
func (s *Stub) Fail(method, path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = f
}

// Application returns a copy of a stored application
func (s *Stub) Application(id string) (models.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return models.Application{}, false
	}
	return *app, true
}

// Assessment returns a copy of a stored assessment
func (s *Stub) Assessment(id string) (models.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return models.Assessment{}, false
	}
	return *a, true
}

// AssessmentFor returns the assessment of an application
func (s *Stub) AssessmentFor(applicationID string) (models.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assessments {
		if a.Application.ID == applicationID {
			return *a, true
		}
	}
	return models.Assessment{}, false
}

// PlacementRequestFor returns the placement request raised by an assessment
func (s *Stub) PlacementRequestFor(assessmentID string) (models.PlacementRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pr := range s.placementRequests {
		if pr.AssessmentID == assessmentID {
			return *pr, true
		}
	}
	return models.PlacementRequest{}, false
}

// SpaceBooking returns a copy of a stored space booking
func (s *Stub) SpaceBooking(id string) (models.SpaceBooking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.spaceBookings[id]
	if !ok {
		return models.SpaceBooking{}, false
	}
	return *b, true
}

// OutOfServiceBeds returns the out of service beds of a premises
func (s *Stub) OutOfServiceBeds(premisesID string) []models.OutOfServiceBed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.outOfServiceBeds[premisesID])
}

// Submission returns the body an application was submitted with
func (s *Stub) Submission(applicationID string) (models.SubmitApplication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.submissions[applicationID]
	return in, ok
}

// Acceptance returns the body an assessment was accepted with
func (s *Stub) Acceptance(assessmentID string) (models.AssessmentAcceptance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.acceptances[assessmentID]
	return in, ok
}

// Rejection returns the body an assessment was rejected with
func (s *Stub) Rejection(assessmentID string) (models.AssessmentRejection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.rejections[assessmentID]
	return in, ok
}

// PlacementSubmission returns the body a placement application was submitted with
func (s *Stub) PlacementSubmission(id string) (models.SubmitPlacementApplication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.placementSubmissions[id]
	return in, ok
}

// BookingNotMade returns the body recorded when no booking could be made
func (s *Stub) BookingNotMade(placementRequestID string) (models.NewBookingNotMade, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.bookingsNotMade[placementRequestID]
	return in, ok
}

// PlacementRequest returns a copy of a stored placement request
func (s *Stub) PlacementRequest(id string) (models.PlacementRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.placementRequests[id]
	if !ok {
		return models.PlacementRequest{}, false
	}
	return *pr, true
}

// Called reports whether the stub has seen a request
func (s *Stub) Called(method, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.calls, method+" "+path)
}

// Calls counts the requests the stub has seen for method and path
func (s *Stub) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

func (s *Stub) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.authenticate)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	r.Get("/profile", s.profile)
	r.Get("/people/search", s.searchPerson)
	r.Get("/people/{crn}/risks", s.personRisks)

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", s.listApplications)
		r.Post("/", s.createApplication)
		r.Get("/{id}", s.getApplication)
		r.Put("/{id}", s.updateApplication)
		r.Post("/{id}/submission", s.submitApplication)
		r.Post("/{id}/withdrawal", s.withdrawApplication)
	})

	r.Route("/assessments", func(r chi.Router) {
		r.Get("/", s.listAssessments)
		r.Get("/{id}", s.getAssessment)
		r.Put("/{id}", s.updateAssessment)
		r.Post("/{id}/acceptance", s.acceptAssessment)
		r.Post("/{id}/rejection", s.rejectAssessment)
		r.Post("/{id}/notes", s.createNote)
	})

	r.Route("/placement-applications", func(r chi.Router) {
		r.Post("/", s.createPlacementApplication)
		r.Get("/{id}", s.getPlacementApplication)
		r.Put("/{id}", s.updatePlacementApplication)
		r.Post("/{id}/submission", s.submitPlacementApplication)
	})

	r.Get("/placement-requests/dashboard", s.listPlacementRequests)
	r.Get("/placement-requests/{id}", s.getPlacementRequest)
	r.Post("/placement-requests/{id}/booking-not-made", s.bookingNotMade)

	r.Route("/cas1", func(r chi.Router) {
		r.Get("/premises/summary", s.listPremises)
		r.Get("/premises/{id}", s.getPremises)
		r.Get("/premises/{id}/beds", s.listBeds)
		r.Get("/premises/{id}/capacity", s.getCapacity)
		r.Get("/premises/{id}/space-bookings", s.listSpaceBookings)
		r.Get("/premises/{id}/space-bookings/{bookingId}", s.getSpaceBooking)
		r.Post("/premises/{id}/space-bookings/{bookingId}/cancellations", s.cancelSpaceBooking)
		r.Get("/premises/{id}/out-of-service-beds", s.listOutOfServiceBeds)
		r.Post("/premises/{id}/out-of-service-beds", s.createOutOfServiceBed)
		r.Post("/placement-requests/{id}/space-bookings", s.createSpaceBooking)
	})
	return r
}

func (s *Stub) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls = append(s.calls, key)
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeProblem(w, f.Status, f.Detail, f.InvalidParams...)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate rejects requests without a known bearer token. The health
// endpoint is open.
func (s *Stub) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.users[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeProblem(w, http.StatusUnauthorized, "Unauthorised")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Stub) user(r *http.Request) models.User {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return s.users[token]
}

// --- People ---

func (s *Stub) profile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.user(r))
}

func (s *Stub) searchPerson(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[r.URL.Query().Get("crn")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No person found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Stub) personRisks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	risks, ok := s.risks[chi.URLParam(r, "crn")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No risks found")
		return
	}
	writeJSON(w, http.StatusOK, risks)
}

// --- Applications ---

func (s *Stub) listApplications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.user(r)
	out := []models.ApplicationSummary{}
	for _, app := range s.applications {
		if app.CreatedByUserID != user.ID {
			continue
		}
		out = append(out, models.ApplicationSummary{
			ID:          app.ID,
			Person:      app.Person,
			CreatedAt:   app.CreatedAt,
			SubmittedAt: app.SubmittedAt,
			ArrivalDate: app.ArrivalDate,
			Status:      app.Status,
			Risks:       app.Risks,
		})
	}
	slices.SortFunc(out, func(a, b models.ApplicationSummary) int { return a.CreatedAt.Compare(b.CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Stub) createApplication(w http.ResponseWriter, r *http.Request) {
	var in models.NewApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	person, ok := s.people[in.CRN]
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid request", apiclient.InvalidParam{PropertyName: "$.crn", ErrorType: "doesNotExist"})
		return
	}
	app := &models.Application{
		ID:              uuid.NewString(),
		Type:            "CAS1",
		Person:          person,
		CreatedByUserID: s.user(r).ID,
		CreatedAt:       time.Now().UTC(),
		Status:          models.ApplicationStarted,
		Data:            form.Document{},
	}
	if risks, ok := s.risks[in.CRN]; ok {
		app.Risks = &risks
	}
	s.applications[app.ID] = app
	writeJSON(w, http.StatusCreated, app)
}

func (s *Stub) getApplication(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No application found")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Stub) updateApplication(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No application found")
		return
	}
	if app.Status != models.ApplicationStarted {
		writeProblem(w, http.StatusBadRequest, "The application has been submitted")
		return
	}
	app.Data = in.Data
	writeJSON(w, http.StatusOK, app)
}

func (s *Stub) submitApplication(w http.ResponseWriter, r *http.Request) {
	var in models.SubmitApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No application found")
		return
	}
	if app.Status != models.ApplicationStarted {
		writeProblem(w, http.StatusBadRequest, "The application has already been submitted")
		return
	}

	now := time.Now().UTC()
	app.SubmittedAt = &now
	app.ArrivalDate = in.ArrivalDate
	app.Status = models.ApplicationAwaitingAssessment
	s.submissions[app.ID] = in

	assessment := &models.Assessment{
		ID:          uuid.NewString(),
		Application: *app,
		Status:      models.AssessmentNotStarted,
		Data:        form.Document{},
		CreatedAt:   now,
	}
	app.AssessmentID = assessment.ID
	assessment.Application.AssessmentID = assessment.ID
	s.assessments[assessment.ID] = assessment
	w.WriteHeader(http.StatusOK)
}

func (s *Stub) withdrawApplication(w http.ResponseWriter, r *http.Request) {
	var in models.WithdrawApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No application found")
		return
	}
	app.Status = models.ApplicationWithdrawn
	w.WriteHeader(http.StatusOK)
}

// --- Assessments ---

func (s *Stub) listAssessments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := r.URL.Query()["statuses"]
	var out []models.AssessmentSummary
	for _, a := range s.assessments {
		if len(statuses) > 0 && !slices.Contains(statuses, string(a.Status)) {
			continue
		}
		out = append(out, models.AssessmentSummary{
			ID:            a.ID,
			ApplicationID: a.Application.ID,
			Person:        a.Application.Person,
			Status:        a.Status,
			ArrivalDate:   a.Application.ArrivalDate,
			CreatedAt:     a.CreatedAt,
			Risks:         a.Application.Risks,
		})
	}
	slices.SortFunc(out, func(a, b models.AssessmentSummary) int { return a.CreatedAt.Compare(b.CreatedAt) })
	writePage(w, r, out)
}

func (s *Stub) getAssessment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No assessment found")
		return
	}
	if app, ok := s.applications[a.Application.ID]; ok {
		a.Application = *app
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Stub) updateAssessment(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateAssessment
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No assessment found")
		return
	}
	if !a.IsEditable() {
		writeProblem(w, http.StatusBadRequest, "The assessment has been completed")
		return
	}
	a.Data = in.Data
	if a.Status == models.AssessmentNotStarted {
		a.Status = models.AssessmentInProgress
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Stub) acceptAssessment(w http.ResponseWriter, r *http.Request) {
	var in models.AssessmentAcceptance
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.completeAssessment(w, chi.URLParam(r, "id"), models.DecisionAccepted)
	if !ok {
		return
	}
	s.acceptances[a.ID] = in

	pr := &models.PlacementRequest{
		ID:                uuid.NewString(),
		Person:            a.Application.Person,
		Risks:             a.Application.Risks,
		ApplicationID:     a.Application.ID,
		AssessmentID:      a.ID,
		ExpectedArrival:   a.Application.ArrivalDate,
		Status:            models.PlacementRequestNotMatched,
		NotesOnPlacement:  in.Notes,
		CreatedAt:         time.Now().UTC(),
		EssentialCriteria: []string{},
		DesirableCriteria: []string{},
	}
	if sub, ok := s.submissions[a.Application.ID]; ok {
		pr.Duration = sub.Duration
	}
	if req := in.Requirements; req != nil {
		pr.Type = req.Type
		pr.Location = req.Location
		pr.Radius = req.Radius
		pr.EssentialCriteria = req.EssentialCriteria
		pr.DesirableCriteria = req.DesirableCriteria
	}
	s.placementRequests[pr.ID] = pr
	if app, ok := s.applications[a.Application.ID]; ok {
		app.Status = models.ApplicationAwaitingPlacement
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Stub) rejectAssessment(w http.ResponseWriter, r *http.Request) {
	var in models.AssessmentRejection
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.completeAssessment(w, chi.URLParam(r, "id"), models.DecisionRejected)
	if !ok {
		return
	}
	a.RejectionRationale = in.RejectionRationale
	s.rejections[a.ID] = in
	if app, ok := s.applications[a.Application.ID]; ok {
		app.Status = models.ApplicationRejected
	}
	w.WriteHeader(http.StatusOK)
}

// completeAssessment records a decision. The caller holds the lock.
func (s *Stub) completeAssessment(w http.ResponseWriter, id string, decision models.AssessmentDecision) (*models.Assessment, bool) {
	a, ok := s.assessments[id]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No assessment found")
		return nil, false
	}
	if !a.IsEditable() {
		writeProblem(w, http.StatusBadRequest, "The assessment has already been completed")
		return nil, false
	}
	now := time.Now().UTC()
	a.Status = models.AssessmentCompleted
	a.Decision = decision
	a.SubmittedAt = &now
	return a, true
}

func (s *Stub) createNote(w http.ResponseWriter, r *http.Request) {
	var in models.NewClarificationNote
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No assessment found")
		return
	}
	note := models.ClarificationNote{
		ID:                     uuid.NewString(),
		Query:                  in.Query,
		CreatedAt:              time.Now().UTC(),
		CreatedByStaffMemberID: s.user(r).ID,
	}
	a.ClarificationNotes = append(a.ClarificationNotes, note)
	a.Status = models.AssessmentAwaitingResponse
	writeJSON(w, http.StatusCreated, note)
}

// --- Placement applications ---

func (s *Stub) createPlacementApplication(w http.ResponseWriter, r *http.Request) {
	var in models.NewPlacementApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[in.ApplicationID]
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid request", apiclient.InvalidParam{PropertyName: "$.applicationId", ErrorType: "doesNotExist"})
		return
	}
	person := app.Person
	pa := &models.PlacementApplication{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Person:        &person,
		Data:          form.Document{},
		Status:        "started",
		CreatedAt:     time.Now().UTC(),
	}
	s.placementApplications[pa.ID] = pa
	writeJSON(w, http.StatusCreated, pa)
}

func (s *Stub) getPlacementApplication(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pa, ok := s.placementApplications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No placement application found")
		return
	}
	writeJSON(w, http.StatusOK, pa)
}

func (s *Stub) updatePlacementApplication(w http.ResponseWriter, r *http.Request) {
	var in models.UpdatePlacementApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pa, ok := s.placementApplications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No placement application found")
		return
	}
	if pa.SubmittedAt != nil {
		writeProblem(w, http.StatusBadRequest, "The placement application has been submitted")
		return
	}
	pa.Data = in.Data
	writeJSON(w, http.StatusOK, pa)
}

func (s *Stub) submitPlacementApplication(w http.ResponseWriter, r *http.Request) {
	var in models.SubmitPlacementApplication
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pa, ok := s.placementApplications[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No placement application found")
		return
	}
	now := time.Now().UTC()
	pa.SubmittedAt = &now
	pa.Status = "submitted"
	s.placementSubmissions[pa.ID] = in
	w.WriteHeader(http.StatusOK)
}

// --- Placement requests ---

func (s *Stub) listPlacementRequests(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := r.URL.Query().Get("status")
	var out []models.PlacementRequest
	for _, pr := range s.placementRequests {
		if status != "" && string(pr.Status) != status {
			continue
		}
		out = append(out, *pr)
	}
	slices.SortFunc(out, func(a, b models.PlacementRequest) int { return strings.Compare(a.ExpectedArrival, b.ExpectedArrival) })
	writePage(w, r, out)
}

func (s *Stub) getPlacementRequest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.placementRequests[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No placement request found")
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (s *Stub) bookingNotMade(w http.ResponseWriter, r *http.Request) {
	var in models.NewBookingNotMade
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.placementRequests[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No placement request found")
		return
	}
	pr.Status = models.PlacementRequestUnableToMatch
	s.bookingsNotMade[pr.ID] = in
	w.WriteHeader(http.StatusOK)
}

// --- Premises ---

func (s *Stub) summary(p *models.Premises) models.PremisesSummary {
	return models.PremisesSummary{
		ID:                   p.ID,
		Name:                 p.Name,
		APCode:               p.APCode,
		Postcode:             p.Postcode,
		BedCount:             p.BedCount,
		AvailableBeds:        p.AvailableBeds,
		OutOfServiceBedCount: len(s.outOfServiceBeds[p.ID]),
		APArea:               p.APArea,
	}
}

func (s *Stub) listPremises(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PremisesSummary{}
	for _, p := range s.premises {
		out = append(out, s.summary(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// withPremises looks up the premises named in the path. The caller holds the lock.
func (s *Stub) withPremises(w http.ResponseWriter, r *http.Request) (*models.Premises, bool) {
	p, ok := s.premises[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No premises found")
	}
	return p, ok
}

func (s *Stub) getPremises(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.withPremises(w, r); ok {
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Stub) listBeds(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.withPremises(w, r); ok {
		writeJSON(w, http.StatusOK, s.beds[p.ID])
	}
}

func (s *Stub) getCapacity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.withPremises(w, r)
	if !ok {
		return
	}
	start, end := r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate")
	if start == "" || end == "" || end < start {
		writeProblem(w, http.StatusBadRequest, "Invalid request", apiclient.InvalidParam{PropertyName: "$.endDate", ErrorType: "shouldBeAfterStartDate"})
		return
	}
	days := []models.CapacityDay{}
	for _, d := range s.capacity[p.ID] {
		if d.Date >= start && d.Date <= end {
			days = append(days, d)
		}
	}
	writeJSON(w, http.StatusOK, models.PremisesCapacity{Premises: s.summary(p), StartDate: start, EndDate: end, Capacity: days})
}

func (s *Stub) listSpaceBookings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.withPremises(w, r)
	if !ok {
		return
	}
	residency := r.URL.Query().Get("residency")
	today := dates.ToISO(dates.Today())

	var out []models.SpaceBookingSummary
	for _, b := range s.spaceBookings {
		if b.Premises.ID != p.ID || b.IsCancelled() {
			continue
		}
		switch residency {
		case "upcoming":
			if b.CanonicalArrivalDate <= today {
				continue
			}
		case "current":
			if b.CanonicalArrivalDate > today || b.CanonicalDepartureDate < today {
				continue
			}
		case "historic":
			if b.CanonicalDepartureDate >= today {
				continue
			}
		}
		out = append(out, models.SpaceBookingSummary{
			ID:                     b.ID,
			Person:                 b.Person,
			CanonicalArrivalDate:   b.CanonicalArrivalDate,
			CanonicalDepartureDate: b.CanonicalDepartureDate,
			Tier:                   b.Tier,
			KeyWorkerName:          b.KeyWorkerName,
			Characteristics:        b.Characteristics,
		})
	}
	slices.SortFunc(out, func(a, b models.SpaceBookingSummary) int {
		return strings.Compare(a.CanonicalArrivalDate, b.CanonicalArrivalDate)
	})
	writePage(w, r, out)
}

func (s *Stub) getSpaceBooking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.spaceBookings[chi.URLParam(r, "bookingId")]
	if !ok || b.Premises.ID != chi.URLParam(r, "id") {
		writeProblem(w, http.StatusNotFound, "No space booking found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Stub) createSpaceBooking(w http.ResponseWriter, r *http.Request) {
	var in models.NewSpaceBooking
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.placementRequests[chi.URLParam(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "No placement request found")
		return
	}
	p, ok := s.premises[in.PremisesID]
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid request", apiclient.InvalidParam{PropertyName: "$.premisesId", ErrorType: "doesNotExist"})
		return
	}
	user := s.user(r)
	b := &models.SpaceBooking{
		ID:                     uuid.NewString(),
		Person:                 pr.Person,
		Premises:               models.NamedRef{ID: p.ID, Name: p.Name},
		ApplicationID:          pr.ApplicationID,
		AssessmentID:           pr.AssessmentID,
		PlacementRequestID:     pr.ID,
		ExpectedArrivalDate:    in.ArrivalDate,
		ExpectedDepartureDate:  in.DepartureDate,
		CanonicalArrivalDate:   in.ArrivalDate,
		CanonicalDepartureDate: in.DepartureDate,
		Characteristics:        in.Characteristics,
		Tier:                   pr.Risks.TierLabel(),
		BookedBy:               &user,
		CreatedAt:              time.Now().UTC(),
	}
	s.spaceBookings[b.ID] = b
	pr.Status = models.PlacementRequestMatched
	pr.SpaceBookings = append(pr.SpaceBookings, models.SpaceBookingSummary{
		ID:                     b.ID,
		Person:                 b.Person,
		CanonicalArrivalDate:   b.CanonicalArrivalDate,
		CanonicalDepartureDate: b.CanonicalDepartureDate,
	})
	if app, ok := s.applications[pr.ApplicationID]; ok {
		app.Status = models.ApplicationPlacementAllocated
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Stub) cancelSpaceBooking(w http.ResponseWriter, r *http.Request) {
	var in models.NewCancellation
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.spaceBookings[chi.URLParam(r, "bookingId")]
	if !ok || b.Premises.ID != chi.URLParam(r, "id") {
		writeProblem(w, http.StatusNotFound, "No space booking found")
		return
	}
	if b.IsCancelled() {
		writeProblem(w, http.StatusConflict, "The booking has already been cancelled")
		return
	}
	b.Cancellation = &models.SpaceBookingCancellation{
		OccurredAt:  in.OccurredAt,
		RecordedAt:  time.Now().UTC(),
		Reason:      in.ReasonID,
		ReasonNotes: in.ReasonNotes,
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Stub) listOutOfServiceBeds(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.withPremises(w, r); ok {
		out := s.outOfServiceBeds[p.ID]
		if out == nil {
			out = []models.OutOfServiceBed{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Stub) createOutOfServiceBed(w http.ResponseWriter, r *http.Request) {
	var in models.NewOutOfServiceBed
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.withPremises(w, r)
	if !ok {
		return
	}
	idx := slices.IndexFunc(s.beds[p.ID], func(b models.Bed) bool { return b.ID == in.BedID })
	if idx < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid request", apiclient.InvalidParam{PropertyName: "$.bedId", ErrorType: "doesNotExist"})
		return
	}
	for _, existing := range s.outOfServiceBeds[p.ID] {
		if existing.Bed.ID == in.BedID && existing.StartDate <= in.EndDate && in.StartDate <= existing.EndDate {
			writeProblem(w, http.StatusBadRequest, "Invalid request", apiclient.InvalidParam{PropertyName: "$.startDate", ErrorType: "conflict"})
			return
		}
	}

	start, _ := dates.ParseISO(in.StartDate)
	end, _ := dates.ParseISO(in.EndDate)
	bed := models.OutOfServiceBed{
		ID:              uuid.NewString(),
		Bed:             s.beds[p.ID][idx],
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Reason:          in.ReasonID,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		DaysLostCount:   dates.Range{Start: start, End: end}.Days(),
		CreatedAt:       time.Now().UTC(),
	}
	s.outOfServiceBeds[p.ID] = append(s.outOfServiceBeds[p.ID], bed)
	writeJSON(w, http.StatusCreated, bed)
}

// --- Encoding ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, detail string, params ...apiclient.InvalidParam) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"title":          http.StatusText(status),
		"status":         status,
		"detail":         detail,
		"invalid-params": params,
	})
}

// writePage writes one page of items with the pagination headers the API sends
func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	total := len(items)
	pages := (total + PageSize - 1) / PageSize
	start := min((page-1)*PageSize, total)
	end := min(start+PageSize, total)

	out := items[start:end]
	if out == nil {
		out = []T{}
	}
	w.Header().Set("X-Pagination-CurrentPage", strconv.Itoa(page))
	w.Header().Set("X-Pagination-TotalPages", strconv.Itoa(pages))
	w.Header().Set("X-Pagination-TotalResults", strconv.Itoa(total))
	w.Header().Set("X-Pagination-PageSize", strconv.Itoa(PageSize))
	writeJSON(w, http.StatusOK, out)
}
