package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/apistub"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/pages"
)

const (
	testCRN      = "X320741"
	testPremises = "5e4b8a29-3c2e-4b9a-9d43-0c7a1f0b2c11"
)

type fixture struct {
	stub   *apistub.Stub
	api    *apiclient.Client
	audit  *audit.MemoryRepository
	loader *journeys.Loader
	user   *models.User
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stub := apistub.New()
	t.Cleanup(stub.Close)

	user := &models.User{
		ID:             "3f6a2b10-8c1d-4e5f-9a7b-2c3d4e5f6a7b",
		Name:           "Jane Smith",
		DeliusUsername: "JSMITH",
		IsActive:       true,
		Permissions:    []string{"cas1_*"},
	}
	stub.AddUser("token", *user)
	stub.AddPerson(models.Person{CRN: testCRN, Type: models.PersonTypeFull, Name: "Aadland Bertrand"}, &models.PersonRisks{CRN: testCRN})

	loader := journeys.NewLoader()
	require.NoError(t, loader.LoadFromFS(journeys.Defaults()))

	return &fixture{
		stub:   stub,
		api:    stub.Client(),
		audit:  audit.NewMemoryRepository(),
		loader: loader,
		user:   user,
		ctx:    apiclient.ContextWithToken(context.Background(), "token"),
	}
}

type step struct {
	task, page string
	answers    form.Answers
}

// fill saves each page in turn, reloading the record between saves as a
// browser session would
func fill(t *testing.T, f *fixture, svc FormService, id string, steps []step) {
	t.Helper()
	for _, s := range steps {
		rec, err := svc.Load(f.ctx, id)
		require.NoError(t, err)
		_, err = svc.SavePage(f.ctx, f.user, rec, s.task, s.page, s.answers)
		require.NoError(t, err, "%s/%s", s.task, s.page)
	}
}

var applicationSteps = []step{
	{"basic-information", "sentence-type", form.Answers{"sentenceType": "standardDeterminate"}},
	{"basic-information", "release-type", form.Answers{"releaseType": "licence"}},
	{"basic-information", "release-date", form.Answers{"knowReleaseDate": "yes", "releaseDate": "2030-06-03"}},
	{"basic-information", "placement-date", form.Answers{"startDateSameAsReleaseDate": "yes"}},
	{"basic-information", "placement-duration", form.Answers{"differentDuration": "no"}},
	{"basic-information", "placement-purpose", form.Answers{"placementPurposes": []string{"publicProtection"}}},
	{"type-of-ap", "ap-type", form.Answers{"type": "pipe"}},
	{"type-of-ap", "pipe-referral", form.Answers{"opdPathway": "no"}},
	{"risk-management-features", "risk-management-features", form.Answers{"manageRiskDetails": "Needs 24 hour staffing"}},
	{"risk-management-features", "convicted-offences", form.Answers{"response": "no"}},
	{"risk-management-features", "rehabilitative-interventions", form.Answers{"rehabilitativeInterventions": []string{"accommodation"}}},
	{"location-factors", "describe-location-factors", form.Answers{
		"postcodeArea":              "LS1",
		"positiveFactors":           "Close to family",
		"restrictions":              "no",
		"alternativeRadiusAccepted": "yes",
	}},
	{"access-and-healthcare", "access-needs", form.Answers{
		"additionalNeeds":            []string{"mobility"},
		"religiousOrCulturalNeeds":   "no",
		"careActAssessmentCompleted": "yes",
	}},
	{"access-and-healthcare", "access-needs-mobility", form.Answers{"needsWheelchair": "yes"}},
	{"access-and-healthcare", "covid", form.Answers{"fullyVaccinated": "yes", "highRisk": "no"}},
	{"further-considerations", "room-sharing", form.Answers{"riskToStaff": "yes", "riskToStaffDetail": "Assaulted staff", "sharingConcerns": "no"}},
	{"further-considerations", "vulnerability", form.Answers{"exploitable": "no"}},
	{"further-considerations", "previous-placements", form.Answers{"previousPlacement": "no"}},
	{"move-on", "relocation-region", form.Answers{"postcodeArea": "LS2"}},
	{"move-on", "plans-in-place", form.Answers{"arePlansInPlace": "no"}},
	{"check-your-answers", "review", form.Answers{"reviewed": []string{"1"}}},
}

func assessmentSteps(decision form.Answers) []step {
	steps := []step{
		{"review-application", "review", form.Answers{"reviewed": "yes"}},
		{"sufficient-information", "sufficient-information", form.Answers{"sufficientInformation": "yes"}},
		{"suitability-assessment", "suitability-assessment", form.Answers{
			"riskFactors": "yes", "riskManagement": "yes", "locationOfPlacement": "no", "moveOnPlan": "yes",
		}},
		{"suitability-assessment", "pipe-suitability", form.Answers{"pipeSuitable": "yes"}},
		{"required-actions", "required-actions", form.Answers{"additionalActions": "no", "curfewsOrSignIns": "no"}},
		{"make-a-decision", "make-a-decision", decision},
	}
	if decision.String("decision") == "accept" {
		steps = append(steps, step{"matching-information", "matching-information", form.Answers{
			"apType": "pipe", "lengthOfStayAgreed": "yes", "cruInformation": "Prefers a ground floor room",
		}})
	}
	return append(steps, step{"check-your-answers", "review", form.Answers{"reviewed": []string{"1"}}})
}

func submittedApplication(t *testing.T, f *fixture) *models.Application {
	t.Helper()
	apps := NewApplicationService(f.api, f.loader, f.audit)
	app, err := apps.Create(f.ctx, f.user, testCRN)
	require.NoError(t, err)
	fill(t, f, apps, app.ID, applicationSteps)

	rec, err := apps.Load(f.ctx, app.ID)
	require.NoError(t, err)
	require.NoError(t, apps.Submit(f.ctx, f.user, rec))
	return app
}

func actions(events []audit.Event) []audit.Action {
	out := make([]audit.Action, 0, len(events))
	for _, e := range events {
		if e.Action != audit.ActionPageSaved {
			out = append(out, e.Action)
		}
	}
	return out
}

func TestPlacementJourney(t *testing.T) {
	f := newFixture(t)
	app := submittedApplication(t, f)

	t.Run("application submission", func(t *testing.T) {
		sub, ok := f.stub.Submission(app.ID)
		require.True(t, ok)
		assert.Equal(t, "CAS1", sub.Type)
		assert.Equal(t, "pipe", sub.APType)
		assert.True(t, sub.IsPipe)
		assert.False(t, sub.IsESAP)
		assert.Equal(t, "LS1", sub.TargetLocation)
		assert.Equal(t, "licence", sub.ReleaseType)
		assert.Equal(t, "standardDeterminate", sub.SentenceType)
		assert.Equal(t, "2030-06-03", sub.ArrivalDate)
		assert.Equal(t, 26*7, sub.Duration)
		require.NotEmpty(t, sub.Translated)
		assert.Equal(t, "basic-information", sub.Translated[0].Name)

		stored, _ := f.stub.Application(app.ID)
		assert.Equal(t, models.ApplicationAwaitingAssessment, stored.Status)
	})

	assessments := NewAssessmentService(f.api, f.loader, f.audit)
	assessment, ok := f.stub.AssessmentFor(app.ID)
	require.True(t, ok)

	t.Run("assessment acceptance", func(t *testing.T) {
		rec, err := assessments.Load(f.ctx, assessment.ID)
		require.NoError(t, err)
		p, err := rec.Page("suitability-assessment", "suitability-assessment", form.Answers{
			"riskFactors": "yes", "riskManagement": "yes", "locationOfPlacement": "no", "moveOnPlan": "yes",
		})
		require.NoError(t, err)
		assert.Equal(t, "pipe-suitability", p.Next(), "the application's answers route the assessment")

		fill(t, f, assessments, assessment.ID, assessmentSteps(form.Answers{"decision": "accept"}))

		outcome, err := assessments.Submit(f.ctx, f.user, assessment.ID)
		require.NoError(t, err)
		assert.Equal(t, pages.OutcomeAccepted, outcome)

		acceptance, ok := f.stub.Acceptance(assessment.ID)
		require.True(t, ok)
		require.NotNil(t, acceptance.Requirements)
		assert.Equal(t, "pipe", acceptance.Requirements.Type)
		assert.Equal(t, "LS1", acceptance.Requirements.Location)
		assert.Equal(t, 70, acceptance.Requirements.Radius)
		assert.Equal(t, []string{"isPIPE", "isWheelchairDesignated"}, acceptance.Requirements.EssentialCriteria)
		assert.Equal(t, []string{"isSingle"}, acceptance.Requirements.DesirableCriteria)
		assert.Equal(t, "Prefers a ground floor room", acceptance.Notes)

		_, err = assessments.Submit(f.ctx, f.user, assessment.ID)
		assert.ErrorIs(t, err, ErrNotEditable)
	})

	pr, ok := f.stub.PlacementRequestFor(assessment.ID)
	require.True(t, ok)

	t.Run("placement request", func(t *testing.T) {
		requests := NewPlacementRequestService(f.api, f.audit)
		page, err := requests.List(f.ctx, "", apiclient.PageQuery{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 1, page.TotalResults)

		got, err := requests.Get(f.ctx, pr.ID)
		require.NoError(t, err)
		assert.Equal(t, "2030-06-03", got.ExpectedArrival)
		assert.Equal(t, 182, got.Duration)
		assert.Equal(t, "2030-12-02", got.ExpectedDeparture())
	})

	f.stub.AddPremises(models.Premises{ID: testPremises, Name: "Hope House", BedCount: 20}, nil, nil)
	bookings := NewSpaceBookingService(f.api, f.audit)
	var booking *models.SpaceBooking

	t.Run("space booking", func(t *testing.T) {
		var err error
		booking, err = bookings.Create(f.ctx, f.user, pr.ID, models.NewSpaceBooking{
			PremisesID:    testPremises,
			ArrivalDate:   "2030-06-03",
			DepartureDate: "2030-12-02",
		})
		require.NoError(t, err)
		assert.Equal(t, "Hope House", booking.Premises.Name)

		matched, _ := f.stub.PlacementRequest(pr.ID)
		assert.Equal(t, models.PlacementRequestMatched, matched.Status)
		stored, _ := f.stub.Application(app.ID)
		assert.Equal(t, models.ApplicationPlacementAllocated, stored.Status)
	})

	t.Run("cancellation", func(t *testing.T) {
		require.NotNil(t, booking)
		in := models.NewCancellation{OccurredAt: "2030-05-01", ReasonID: "withdrawn_by_pp"}
		require.NoError(t, bookings.Cancel(f.ctx, f.user, testPremises, booking.ID, in))

		stored, _ := f.stub.SpaceBooking(booking.ID)
		require.NotNil(t, stored.Cancellation)
		assert.Equal(t, "withdrawn_by_pp", stored.Cancellation.Reason)

		err := bookings.Cancel(f.ctx, f.user, testPremises, booking.ID, in)
		assert.ErrorIs(t, err, ErrNotEditable)
	})

	t.Run("placement application", func(t *testing.T) {
		svc := NewPlacementApplicationService(f.api, f.loader, f.audit)
		pa, err := svc.Create(f.ctx, f.user, app.ID)
		require.NoError(t, err)

		fill(t, f, svc, pa.ID, []step{
			{"request-a-placement", "reason-for-placement", form.Answers{"reason": "rotl"}},
			{"request-a-placement", "dates-of-placement", form.Answers{"arrivalDate": "2031-01-06", "durationWeeks": "2", "durationDays": "3"}},
			{"request-a-placement", "additional-documents", form.Answers{"documents": []string{"licence"}}},
			{"check-your-answers", "review", form.Answers{"reviewed": []string{"1"}}},
		})

		rec, err := svc.Load(f.ctx, pa.ID)
		require.NoError(t, err)
		require.NoError(t, svc.Submit(f.ctx, f.user, rec))

		sub, ok := f.stub.PlacementSubmission(pa.ID)
		require.True(t, ok)
		assert.Equal(t, "rotl", sub.PlacementType)
		assert.Equal(t, []models.PlacementDates{{ExpectedArrival: "2031-01-06", Duration: 17}}, sub.PlacementDates)

		rec, err = svc.Load(f.ctx, pa.ID)
		require.NoError(t, err)
		assert.False(t, rec.Editable)
		assert.Equal(t, "Submitted", rec.StatusLabel)
	})

	assert.Equal(t, []audit.Action{
		audit.ActionCreated,
		audit.ActionSubmitted,
		audit.ActionAccepted,
		audit.ActionSpaceBooked,
		audit.ActionBookingCancelled,
		audit.ActionCreated,
		audit.ActionSubmitted,
	}, actions(f.audit.Events()))
}

func TestSavePage(t *testing.T) {
	f := newFixture(t)
	apps := NewApplicationService(f.api, f.loader, f.audit)
	app, err := apps.Create(f.ctx, f.user, testCRN)
	require.NoError(t, err)

	t.Run("invalid answers are not stored", func(t *testing.T) {
		rec, err := apps.Load(f.ctx, app.ID)
		require.NoError(t, err)

		_, err = apps.SavePage(f.ctx, f.user, rec, "basic-information", "sentence-type", form.Answers{})
		var verr *form.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "You must choose a sentence type", verr.Errors.Get("sentenceType"))
		assert.False(t, f.stub.Called("PUT", "/applications/"+app.ID))
	})

	t.Run("next page follows the answers", func(t *testing.T) {
		rec, err := apps.Load(f.ctx, app.ID)
		require.NoError(t, err)

		res, err := apps.SavePage(f.ctx, f.user, rec, "basic-information", "sentence-type", form.Answers{"sentenceType": "communityOrder"})
		require.NoError(t, err)
		assert.Equal(t, "situation", res.Next)

		stored, _ := f.stub.Application(app.ID)
		answers, ok := stored.Data.Answers("basic-information", "sentence-type")
		require.True(t, ok)
		assert.Equal(t, "communityOrder", answers.String("sentenceType"))

		events, err := f.audit.ListForRecord(f.ctx, app.ID, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionPageSaved, events[0].Action)
		assert.Equal(t, "sentence-type", events[0].Page)
		assert.Equal(t, "JSMITH", events[0].Username)
	})

	t.Run("unknown page", func(t *testing.T) {
		rec, err := apps.Load(f.ctx, app.ID)
		require.NoError(t, err)
		_, err = apps.SavePage(f.ctx, f.user, rec, "basic-information", "nope", form.Answers{})
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejected by the API", func(t *testing.T) {
		f.stub.Fail("PUT", "/applications/"+app.ID, apistub.Failure{
			Status:        400,
			InvalidParams: []apiclient.InvalidParam{{PropertyName: "$.sentenceType", ErrorType: "empty"}},
		})
		rec, err := apps.Load(f.ctx, app.ID)
		require.NoError(t, err)

		_, err = apps.SavePage(f.ctx, f.user, rec, "basic-information", "sentence-type", form.Answers{"sentenceType": "life"})
		var verr *form.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "You must enter the sentence type", verr.Errors.Get("sentenceType"))
		assert.Equal(t, "life", verr.UserInput.String("sentenceType"))
	})
}

func TestSubmittedApplicationsAreReadOnly(t *testing.T) {
	f := newFixture(t)
	app := submittedApplication(t, f)
	apps := NewApplicationService(f.api, f.loader, f.audit)

	rec, err := apps.Load(f.ctx, app.ID)
	require.NoError(t, err)
	assert.False(t, rec.Editable)
	assert.Equal(t, "Awaiting assessment", rec.StatusLabel)

	_, err = apps.SavePage(f.ctx, f.user, rec, "basic-information", "sentence-type", form.Answers{"sentenceType": "life"})
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.ErrorIs(t, apps.Submit(f.ctx, f.user, rec), ErrNotEditable)
}

func TestSubmitIncompleteApplication(t *testing.T) {
	f := newFixture(t)
	apps := NewApplicationService(f.api, f.loader, f.audit)
	app, err := apps.Create(f.ctx, f.user, testCRN)
	require.NoError(t, err)
	fill(t, f, apps, app.ID, applicationSteps[:6])

	rec, err := apps.Load(f.ctx, app.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, apps.Submit(f.ctx, f.user, rec), ErrIncomplete)
	_, submitted := f.stub.Submission(app.ID)
	assert.False(t, submitted)
}

func TestCreateApplication(t *testing.T) {
	f := newFixture(t)
	apps := NewApplicationService(f.api, f.loader, f.audit)

	tests := []struct {
		name    string
		crn     string
		message string
	}{
		{"empty", " ", "You must enter a CRN"},
		{"wrong format", "X32-741", "Enter a CRN in the format X123456"},
		{"unknown person", "Z999999", "The crn is not valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := apps.Create(f.ctx, f.user, tt.crn)
			var verr *form.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Errors.Get("crn"))
			assert.Equal(t, tt.crn, verr.UserInput.String("crn"))
		})
	}

	app, err := apps.Create(f.ctx, f.user, " x320741 ")
	require.NoError(t, err)
	assert.Equal(t, testCRN, app.Person.CRN)
	assert.Equal(t, models.ApplicationStarted, app.Status)

	list, err := apps.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, app.ID, list[0].ID)
}

func TestWithdrawApplication(t *testing.T) {
	f := newFixture(t)
	apps := NewApplicationService(f.api, f.loader, f.audit)
	app, err := apps.Create(f.ctx, f.user, testCRN)
	require.NoError(t, err)

	t.Run("reason required", func(t *testing.T) {
		err := apps.Withdraw(f.ctx, f.user, app.ID, models.WithdrawApplication{})
		var verr *form.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Select a reason for withdrawing the application", verr.Errors.Get("reason"))
	})

	t.Run("other reason needs detail", func(t *testing.T) {
		err := apps.Withdraw(f.ctx, f.user, app.ID, models.WithdrawApplication{Reason: "other"})
		var verr *form.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Enter the reason for withdrawing the application", verr.Errors.Get("otherReason"))
	})

	t.Run("someone else's application", func(t *testing.T) {
		other := &models.User{ID: "someone-else", IsActive: true, Permissions: []string{models.PermissionApplicationWithdraw}}
		err := apps.Withdraw(f.ctx, other, app.ID, models.WithdrawApplication{Reason: "duplicate_application"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("withdrawn", func(t *testing.T) {
		require.NoError(t, apps.Withdraw(f.ctx, f.user, app.ID, models.WithdrawApplication{Reason: "duplicate_application"}))
		stored, _ := f.stub.Application(app.ID)
		assert.Equal(t, models.ApplicationWithdrawn, stored.Status)

		err := apps.Withdraw(f.ctx, f.user, app.ID, models.WithdrawApplication{Reason: "duplicate_application"})
		assert.ErrorIs(t, err, ErrNotEditable)
	})
}

func TestRejectAssessment(t *testing.T) {
	f := newFixture(t)
	app := submittedApplication(t, f)
	assessment, ok := f.stub.AssessmentFor(app.ID)
	require.True(t, ok)
	assessments := NewAssessmentService(f.api, f.loader, f.audit)

	steps := assessmentSteps(form.Answers{"decision": "riskTooLow"})
	fill(t, f, assessments, assessment.ID, steps[:5])

	rec, err := assessments.Load(f.ctx, assessment.ID)
	require.NoError(t, err)
	_, err = assessments.SavePage(f.ctx, f.user, rec, "make-a-decision", "make-a-decision", form.Answers{"decision": "riskTooLow"})
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "You must provide a rationale for rejecting the application", verr.Errors.Get("decisionRationale"))

	fill(t, f, assessments, assessment.ID, []step{
		{"make-a-decision", "make-a-decision", form.Answers{"decision": "riskTooLow", "decisionRationale": "Risk is managed in the community"}},
		{"check-your-answers", "review", form.Answers{"reviewed": []string{"1"}}},
	})

	outcome, err := assessments.Submit(f.ctx, f.user, assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, pages.OutcomeRejected, outcome)

	rejection, ok := f.stub.Rejection(assessment.ID)
	require.True(t, ok)
	assert.Equal(t, "Risk is managed in the community", rejection.RejectionRationale)
	for _, ts := range rejection.Document {
		assert.NotEqual(t, "matching-information", ts.Name)
	}

	stored, _ := f.stub.Application(app.ID)
	assert.Equal(t, models.ApplicationRejected, stored.Status)
	_, raised := f.stub.PlacementRequestFor(assessment.ID)
	assert.False(t, raised)
}

func TestSubmitAssessment(t *testing.T) {
	f := newFixture(t)
	app := submittedApplication(t, f)
	assessment, ok := f.stub.AssessmentFor(app.ID)
	require.True(t, ok)
	assessments := NewAssessmentService(f.api, f.loader, f.audit)

	t.Run("incomplete", func(t *testing.T) {
		_, err := assessments.Submit(f.ctx, f.user, assessment.ID)
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("allocated to someone else", func(t *testing.T) {
		allocated := assessment
		allocated.ID = "a0c1e2f3-0000-4000-8000-000000000001"
		allocated.AllocatedTo = &models.User{ID: "someone-else"}
		f.stub.AddAssessment(allocated)

		_, err := assessments.Submit(f.ctx, f.user, allocated.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := assessments.Submit(f.ctx, f.user, "missing")
		assert.True(t, IsNotFound(err))
	})

	t.Run("list by status", func(t *testing.T) {
		page, err := assessments.List(f.ctx, []models.AssessmentStatus{models.AssessmentNotStarted}, apiclient.PageQuery{})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)

		page, err = assessments.List(f.ctx, []models.AssessmentStatus{models.AssessmentCompleted}, apiclient.PageQuery{})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}

func TestClarificationNote(t *testing.T) {
	f := newFixture(t)
	app := submittedApplication(t, f)
	assessment, _ := f.stub.AssessmentFor(app.ID)
	assessments := NewAssessmentService(f.api, f.loader, f.audit)

	_, err := assessments.CreateClarificationNote(f.ctx, f.user, assessment.ID, "   ")
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "You must enter a question for the applicant", verr.Errors.Get("query"))

	note, err := assessments.CreateClarificationNote(f.ctx, f.user, assessment.ID, "Is there a licence condition?")
	require.NoError(t, err)
	assert.Equal(t, "Is there a licence condition?", note.Query)

	stored, _ := f.stub.Assessment(assessment.ID)
	require.Len(t, stored.ClarificationNotes, 1)
	assert.Equal(t, models.AssessmentAwaitingResponse, stored.Status)
}

func TestPlacementApplicationNeedsAnApplication(t *testing.T) {
	f := newFixture(t)
	svc := NewPlacementApplicationService(f.api, f.loader, f.audit)

	_, err := svc.Create(f.ctx, f.user, "not-a-uuid")
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Select an application to request a placement for", verr.Errors.Get("applicationId"))
	assert.False(t, f.stub.Called("POST", "/placement-applications"))
}

func TestBookingNotMade(t *testing.T) {
	f := newFixture(t)
	f.stub.AddPlacementRequest(models.PlacementRequest{ID: "pr-1", Status: models.PlacementRequestNotMatched})
	svc := NewPlacementRequestService(f.api, f.audit)

	require.NoError(t, svc.BookingNotMade(f.ctx, f.user, "pr-1", "  No PIPE beds in the region  "))

	in, ok := f.stub.BookingNotMade("pr-1")
	require.True(t, ok)
	assert.Equal(t, "No PIPE beds in the region", in.Notes)
	pr, _ := f.stub.PlacementRequest("pr-1")
	assert.Equal(t, models.PlacementRequestUnableToMatch, pr.Status)

	page, err := svc.List(f.ctx, models.PlacementRequestUnableToMatch, apiclient.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	err = svc.BookingNotMade(f.ctx, f.user, "missing", "")
	assert.True(t, IsNotFound(err))
}

func TestSpaceBookingValidation(t *testing.T) {
	f := newFixture(t)
	f.stub.AddPlacementRequest(models.PlacementRequest{ID: "pr-1"})
	svc := NewSpaceBookingService(f.api, f.audit)

	_, err := svc.Create(f.ctx, f.user, "pr-1", models.NewSpaceBooking{
		PremisesID:    testPremises,
		ArrivalDate:   "2030-06-03",
		DepartureDate: "2030-06-01",
	})
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The departure date must be after the arrival date", verr.Errors.Get("departureDate"))

	_, err = svc.Create(f.ctx, f.user, "pr-1", models.NewSpaceBooking{ArrivalDate: "2030-02-31"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"premisesId":    "You must select a premises",
		"arrivalDate":   "The arrival date is an invalid date",
		"departureDate": "You must enter a departure date",
	}, verr.Errors.Map())

	_, err = svc.Create(f.ctx, f.user, "pr-1", models.NewSpaceBooking{
		PremisesID:    testPremises,
		ArrivalDate:   "2030-06-03",
		DepartureDate: "2030-09-01",
	})
	require.ErrorAs(t, err, &verr, "unknown premises come back as invalid params")
	assert.NotEmpty(t, verr.Errors.Get("premisesId"))

	err = svc.Cancel(f.ctx, f.user, testPremises, "b-1", models.NewCancellation{OccurredAt: "2030-06-01", ReasonID: "other"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "You must explain why the booking was withdrawn", verr.Errors.Get("reasonNotes"))

	err = svc.Cancel(f.ctx, f.user, testPremises, "b-1", models.NewCancellation{OccurredAt: "2030-06-01", ReasonID: "bored"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "You must select a reason", verr.Errors.Get("reasonId"))
}

func TestPersonSearch(t *testing.T) {
	f := newFixture(t)
	people := NewPersonService(f.api)

	p, err := people.Search(f.ctx, "x320741")
	require.NoError(t, err)
	assert.Equal(t, "Aadland Bertrand", p.Name)

	for crn, message := range map[string]string{
		"":        "You must enter a CRN",
		"1234567": "Enter a CRN in the format X123456",
		"Z999999": "No person with a CRN of Z999999 was found",
	} {
		_, err := people.Search(f.ctx, crn)
		var verr *form.ValidationError
		require.ErrorAs(t, err, &verr, crn)
		assert.Equal(t, message, verr.Errors.Get("crn"))
	}

	risks, err := people.Risks(f.ctx, testCRN)
	require.NoError(t, err)
	assert.Equal(t, testCRN, risks.CRN)

	profile, err := NewUserService(f.api).Profile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "JSMITH", profile.DeliusUsername)

	_, err = NewUserService(f.api).Profile(context.Background())
	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	submittedApplication(t, f)
	svc := NewDashboardService(f.api)

	d, err := svc.Get(f.ctx, f.user)
	require.NoError(t, err)
	assert.Len(t, d.Applications, 1)
	assert.Len(t, d.Assessments, 1)
	assert.Empty(t, d.PlacementRequests)

	applicant := &models.User{ID: f.user.ID, IsActive: true, Permissions: []string{models.PermissionApplicationCreate}}
	d, err = svc.Get(f.ctx, applicant)
	require.NoError(t, err)
	assert.Len(t, d.Applications, 1)
	assert.Nil(t, d.Assessments)
	assert.Nil(t, d.PlacementRequests)

	f.stub.Fail("GET", "/assessments", apistub.Failure{Status: 500, Detail: "boom"})
	_, err = svc.Get(f.ctx, f.user)
	assert.ErrorContains(t, err, "list assessments")
}
