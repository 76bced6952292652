package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/terra-clan/approved-premises/internal/models"
)

// Profile returns the signed in user
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := c.do(ctx, call{name: "profile", method: http.MethodGet, path: "/profile"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchPerson finds a person by CRN
func (c *Client) SearchPerson(ctx context.Context, crn string) (*models.Person, error) {
	var person models.Person
	r := call{name: "people.search", method: http.MethodGet, path: "/people/search", query: url.Values{"crn": {crn}}}
	if _, err := c.do(ctx, r, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// PersonRisks returns the risk summary of a person
func (c *Client) PersonRisks(ctx context.Context, crn string) (*models.PersonRisks, error) {
	var risks models.PersonRisks
	r := call{name: "people.risks", method: http.MethodGet, path: path("/people/%s/risks", crn)}
	if _, err := c.do(ctx, r, &risks); err != nil {
		return nil, err
	}
	return &risks, nil
}

// --- Applications ---

// Applications lists the user's applications
func (c *Client) Applications(ctx context.Context) ([]models.ApplicationSummary, error) {
	var out []models.ApplicationSummary
	if _, err := c.do(ctx, call{name: "applications.list", method: http.MethodGet, path: "/applications"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Application returns an application
func (c *Client) Application(ctx context.Context, id string) (*models.Application, error) {
	var out models.Application
	r := call{name: "applications.get", method: http.MethodGet, path: path("/applications/%s", id)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateApplication starts an application
func (c *Client) CreateApplication(ctx context.Context, in models.NewApplication) (*models.Application, error) {
	var out models.Application
	r := call{
		name:   "applications.create",
		method: http.MethodPost,
		path:   "/applications",
		query:  url.Values{"createWithRisks": {"true"}},
		body:   in,
	}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateApplication stores the answers of an application
func (c *Client) UpdateApplication(ctx context.Context, id string, in models.UpdateApplication) (*models.Application, error) {
	var out models.Application
	r := call{name: "applications.update", method: http.MethodPut, path: path("/applications/%s", id), body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitApplication submits an application
func (c *Client) SubmitApplication(ctx context.Context, id string, in models.SubmitApplication) error {
	r := call{name: "applications.submit", method: http.MethodPost, path: path("/applications/%s/submission", id), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// WithdrawApplication withdraws an application
func (c *Client) WithdrawApplication(ctx context.Context, id string, in models.WithdrawApplication) error {
	r := call{name: "applications.withdraw", method: http.MethodPost, path: path("/applications/%s/withdrawal", id), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// --- Assessments ---

// Assessments lists the assessments allocated to the user
func (c *Client) Assessments(ctx context.Context, statuses []models.AssessmentStatus, q PageQuery) (*Paginated[models.AssessmentSummary], error) {
	query := q.values()
	for _, s := range statuses {
		query.Add("statuses", string(s))
	}
	return getPaginated[models.AssessmentSummary](ctx, c, call{name: "assessments.list", method: http.MethodGet, path: "/assessments", query: query})
}

// Assessment returns an assessment
func (c *Client) Assessment(ctx context.Context, id string) (*models.Assessment, error) {
	var out models.Assessment
	r := call{name: "assessments.get", method: http.MethodGet, path: path("/assessments/%s", id)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAssessment stores the answers of an assessment
func (c *Client) UpdateAssessment(ctx context.Context, id string, in models.UpdateAssessment) (*models.Assessment, error) {
	var out models.Assessment
	r := call{name: "assessments.update", method: http.MethodPut, path: path("/assessments/%s", id), body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptAssessment accepts the application under assessment
func (c *Client) AcceptAssessment(ctx context.Context, id string, in models.AssessmentAcceptance) error {
	r := call{name: "assessments.accept", method: http.MethodPost, path: path("/assessments/%s/acceptance", id), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// RejectAssessment rejects the application under assessment
func (c *Client) RejectAssessment(ctx context.Context, id string, in models.AssessmentRejection) error {
	r := call{name: "assessments.reject", method: http.MethodPost, path: path("/assessments/%s/rejection", id), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// CreateClarificationNote raises a query with the applicant
func (c *Client) CreateClarificationNote(ctx context.Context, id string, in models.NewClarificationNote) (*models.ClarificationNote, error) {
	var out models.ClarificationNote
	r := call{name: "assessments.notes.create", method: http.MethodPost, path: path("/assessments/%s/notes", id), body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Placement applications ---

// CreatePlacementApplication starts a placement application
func (c *Client) CreatePlacementApplication(ctx context.Context, in models.NewPlacementApplication) (*models.PlacementApplication, error) {
	var out models.PlacementApplication
	r := call{name: "placement-applications.create", method: http.MethodPost, path: "/placement-applications", body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlacementApplication returns a placement application
func (c *Client) PlacementApplication(ctx context.Context, id string) (*models.PlacementApplication, error) {
	var out models.PlacementApplication
	r := call{name: "placement-applications.get", method: http.MethodGet, path: path("/placement-applications/%s", id)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlacementApplication stores the answers of a placement application
func (c *Client) UpdatePlacementApplication(ctx context.Context, id string, in models.UpdatePlacementApplication) (*models.PlacementApplication, error) {
	var out models.PlacementApplication
	r := call{name: "placement-applications.update", method: http.MethodPut, path: path("/placement-applications/%s", id), body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitPlacementApplication submits a placement application
func (c *Client) SubmitPlacementApplication(ctx context.Context, id string, in models.SubmitPlacementApplication) error {
	r := call{name: "placement-applications.submit", method: http.MethodPost, path: path("/placement-applications/%s/submission", id), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// --- Placement requests ---

// PlacementRequests lists placement requests in a status
func (c *Client) PlacementRequests(ctx context.Context, status models.PlacementRequestStatus, q PageQuery) (*Paginated[models.PlacementRequest], error) {
	query := q.values()
	if status != "" {
		query.Set("status", string(status))
	}
	return getPaginated[models.PlacementRequest](ctx, c, call{name: "placement-requests.list", method: http.MethodGet, path: "/placement-requests/dashboard", query: query})
}

// PlacementRequest returns a placement request
func (c *Client) PlacementRequest(ctx context.Context, id string) (*models.PlacementRequest, error) {
	var out models.PlacementRequest
	r := call{name: "placement-requests.get", method: http.MethodGet, path: path("/placement-requests/%s", id)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBookingNotMade records that a placement request could not be matched
func (c *Client) CreateBookingNotMade(ctx context.Context, id string, in models.NewBookingNotMade) error {
	r := call{name: "placement-requests.booking-not-made", method: http.MethodPost, path: path("/placement-requests/%s/booking-not-made", id), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// --- Premises ---

// PremisesSummaries lists the Approved Premises
func (c *Client) PremisesSummaries(ctx context.Context) ([]models.PremisesSummary, error) {
	var out []models.PremisesSummary
	if _, err := c.do(ctx, call{name: "premises.list", method: http.MethodGet, path: "/cas1/premises/summary"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Premises returns a premises
func (c *Client) Premises(ctx context.Context, id string) (*models.Premises, error) {
	var out models.Premises
	r := call{name: "premises.get", method: http.MethodGet, path: path("/cas1/premises/%s", id)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PremisesBeds lists the beds of a premises
func (c *Client) PremisesBeds(ctx context.Context, id string) ([]models.Bed, error) {
	var out []models.Bed
	r := call{name: "premises.beds", method: http.MethodGet, path: path("/cas1/premises/%s/beds", id)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PremisesCapacity returns the day by day capacity of a premises between two ISO dates
func (c *Client) PremisesCapacity(ctx context.Context, id, startDate, endDate string) (*models.PremisesCapacity, error) {
	var out models.PremisesCapacity
	r := call{
		name:   "premises.capacity",
		method: http.MethodGet,
		path:   path("/cas1/premises/%s/capacity", id),
		query:  url.Values{"startDate": {startDate}, "endDate": {endDate}},
	}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PremisesSpaceBookings lists the space bookings of a premises. residency is
// one of "upcoming", "current" or "historic".
func (c *Client) PremisesSpaceBookings(ctx context.Context, id, residency string, q PageQuery) (*Paginated[models.SpaceBookingSummary], error) {
	query := q.values()
	if residency != "" {
		query.Set("residency", residency)
	}
	return getPaginated[models.SpaceBookingSummary](ctx, c, call{name: "premises.space-bookings.list", method: http.MethodGet, path: path("/cas1/premises/%s/space-bookings", id), query: query})
}

// SpaceBooking returns a space booking
func (c *Client) SpaceBooking(ctx context.Context, premisesID, bookingID string) (*models.SpaceBooking, error) {
	var out models.SpaceBooking
	r := call{name: "premises.space-bookings.get", method: http.MethodGet, path: path("/cas1/premises/%s/space-bookings/%s", premisesID, bookingID)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSpaceBooking books a space for a placement request
func (c *Client) CreateSpaceBooking(ctx context.Context, placementRequestID string, in models.NewSpaceBooking) (*models.SpaceBooking, error) {
	var out models.SpaceBooking
	r := call{name: "space-bookings.create", method: http.MethodPost, path: path("/cas1/placement-requests/%s/space-bookings", placementRequestID), body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSpaceBooking withdraws a space booking
func (c *Client) CancelSpaceBooking(ctx context.Context, premisesID, bookingID string, in models.NewCancellation) error {
	r := call{name: "space-bookings.cancel", method: http.MethodPost, path: path("/cas1/premises/%s/space-bookings/%s/cancellations", premisesID, bookingID), body: in}
	_, err := c.do(ctx, r, nil)
	return err
}

// OutOfServiceBeds lists the out of service beds of a premises
func (c *Client) OutOfServiceBeds(ctx context.Context, premisesID string) ([]models.OutOfServiceBed, error) {
	var out []models.OutOfServiceBed
	r := call{name: "out-of-service-beds.list", method: http.MethodGet, path: path("/cas1/premises/%s/out-of-service-beds", premisesID)}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOutOfServiceBed takes a bed out of use
func (c *Client) CreateOutOfServiceBed(ctx context.Context, premisesID string, in models.NewOutOfServiceBed) (*models.OutOfServiceBed, error) {
	var out models.OutOfServiceBed
	r := call{name: "out-of-service-beds.create", method: http.MethodPost, path: path("/cas1/premises/%s/out-of-service-beds", premisesID), body: in}
	if _, err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
