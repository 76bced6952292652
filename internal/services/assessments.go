package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/pages"
)

// AssessmentJourney is the journey assessments are filled in with
const AssessmentJourney = "assess"

// AssessmentService manages the assessment of submitted applications
type AssessmentService struct {
	formEngine
	api *apiclient.Client
}

// NewAssessmentService creates an assessment service
func NewAssessmentService(api *apiclient.Client, loader *journeys.Loader, auditRepo audit.Repository) *AssessmentService {
	s := &AssessmentService{api: api}
	s.formEngine = formEngine{
		kind:     "assessments",
		journey:  AssessmentJourney,
		journeys: loader,
		audit:    auditRepo,
		store: func(ctx context.Context, id string, doc form.Document) error {
			_, err := api.UpdateAssessment(ctx, id, models.UpdateAssessment{Data: doc})
			return err
		},
	}
	return s
}

// List returns a page of the assessments allocated to the user
func (s *AssessmentService) List(ctx context.Context, statuses []models.AssessmentStatus, q apiclient.PageQuery) (*apiclient.Paginated[models.AssessmentSummary], error) {
	page, err := s.api.Assessments(ctx, statuses, q)
	return page, upstream("list assessments", err)
}

// Get returns an assessment
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.Assessment, error) {
	a, err := s.api.Assessment(ctx, id)
	return a, upstream("get assessment "+id, err)
}

// Load returns an assessment as a form record. The application being assessed
// is the related document its pages consult.
func (s *AssessmentService) Load(ctx context.Context, id string) (*Record, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.load(&Record{
		ID:          a.ID,
		Document:    a.Data,
		Related:     a.Application.Data,
		Person:      a.Application.Person,
		Status:      string(a.Status),
		StatusLabel: a.Status.Label(),
		Editable:    a.IsEditable(),
		RelatedID:   a.Application.ID,
		Notes:       a.ClarificationNotes,
	})
}

// Decision returns the outcome recorded on the make a decision page
func Decision(rec *Record) pages.Outcome {
	return pages.NewMakeADecision(answers(rec.Document, "make-a-decision", "make-a-decision"), rec.Context()).Outcome()
}

// Requirements builds the placement requirements of an accepted assessment
// from the matching information and the application
func Requirements(rec *Record) *models.PlacementRequirements {
	matching := answers(rec.Document, "matching-information", "matching-information")

	apType := matching.String("apType")
	if apType == "" {
		apType = answers(rec.Related, "type-of-ap", "ap-type").String("type")
	}
	location := answers(rec.Related, "location-factors", "describe-location-factors")

	req := &models.PlacementRequirements{
		Type:              apType,
		Location:          strings.ToUpper(location.String("postcodeArea")),
		Radius:            50,
		EssentialCriteria: []string{},
		DesirableCriteria: []string{},
	}
	if location.String("alternativeRadiusAccepted") == "yes" {
		req.Radius = 70
	}
	switch apType {
	case "pipe":
		req.EssentialCriteria = append(req.EssentialCriteria, "isPIPE")
	case "esap":
		req.EssentialCriteria = append(req.EssentialCriteria, "isESAP")
	}

	access := answers(rec.Related, "access-and-healthcare", "access-needs-mobility")
	if access.String("needsWheelchair") == "yes" {
		req.EssentialCriteria = append(req.EssentialCriteria, "isWheelchairDesignated")
	}
	rooms := answers(rec.Related, "further-considerations", "room-sharing")
	if rooms.String("riskToStaff") == "yes" {
		req.DesirableCriteria = append(req.DesirableCriteria, "isSingle")
	}
	return req
}

// Submit records the decision of a completed assessment: acceptance with the
// placement requirements, or rejection with the rationale
func (s *AssessmentService) Submit(ctx context.Context, user *models.User, id string) (pages.Outcome, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return pages.OutcomeNone, err
	}
	if !a.IsEditable() {
		return pages.OutcomeNone, ErrNotEditable
	}
	if user != nil && a.AllocatedTo != nil && a.AllocatedTo.ID != user.ID {
		return pages.OutcomeNone, ErrForbidden
	}

	rec, err := s.load(&Record{ID: a.ID, Document: a.Data, Related: a.Application.Data, Editable: true})
	if err != nil {
		return pages.OutcomeNone, err
	}
	if !rec.Journey.Completed(rec.Context()) {
		return pages.OutcomeNone, ErrIncomplete
	}

	decision := answers(rec.Document, "make-a-decision", "make-a-decision")
	outcome := Decision(rec)
	document := summary(rec)

	switch outcome {
	case pages.OutcomeAccepted:
		acceptance := models.AssessmentAcceptance{
			Document:     document,
			Requirements: Requirements(rec),
			Notes:        answers(rec.Document, "matching-information", "matching-information").String("cruInformation"),
		}
		if err := s.api.AcceptAssessment(ctx, id, acceptance); err != nil {
			return pages.OutcomeNone, upstream("accept assessment "+id, err)
		}
		recordEvent(ctx, s.audit, user, audit.Event{Journey: AssessmentJourney, RecordID: id, Action: audit.ActionAccepted})
	case pages.OutcomeRejected:
		rejection := models.AssessmentRejection{
			Document:           document,
			RejectionRationale: decision.String("decisionRationale"),
		}
		if err := s.api.RejectAssessment(ctx, id, rejection); err != nil {
			return pages.OutcomeNone, upstream("reject assessment "+id, err)
		}
		recordEvent(ctx, s.audit, user, audit.Event{
			Journey:  AssessmentJourney,
			RecordID: id,
			Action:   audit.ActionRejected,
			Detail:   map[string]any{"decision": decision.String("decision")},
		})
	default:
		return pages.OutcomeNone, ErrIncomplete
	}
	return outcome, nil
}

var clarificationNoteMessages = map[string]string{
	"query.required": "You must enter a question for the applicant",
	"query.max":      "The question must be 4000 characters or fewer",
}

// CreateClarificationNote sends a question about the application to the applicant
func (s *AssessmentService) CreateClarificationNote(ctx context.Context, user *models.User, id, query string) (*models.ClarificationNote, error) {
	in := models.NewClarificationNote{Query: strings.TrimSpace(query)}
	if errs := checkStruct(in, clarificationNoteMessages); len(errs) > 0 {
		return nil, &form.ValidationError{Errors: errs, UserInput: form.Answers{"query": query}}
	}

	note, err := s.api.CreateClarificationNote(ctx, id, in)
	if err != nil {
		return nil, upstream("create clarification note on "+id, err)
	}

	recordEvent(ctx, s.audit, user, audit.Event{
		Journey:  AssessmentJourney,
		RecordID: id,
		Action:   audit.ActionClarificationNote,
		Detail:   map[string]any{"noteId": note.ID, "length": strconv.Itoa(len(in.Query))},
	})
	return note, nil
}
