package models

import (
	"time"

	"github.com/terra-clan/approved-premises/internal/form"
)

// AssessmentStatus is the state of an assessment
type AssessmentStatus string

const (
	AssessmentNotStarted       AssessmentStatus = "not_started"
	AssessmentInProgress       AssessmentStatus = "in_progress"
	AssessmentAwaitingResponse AssessmentStatus = "awaiting_response"
	AssessmentCompleted        AssessmentStatus = "completed"
	AssessmentReallocated      AssessmentStatus = "reallocated"
)

// Label returns the human readable status
func (s AssessmentStatus) Label() string {
	switch s {
	case AssessmentNotStarted:
		return "Not started"
	case AssessmentInProgress:
		return "In progress"
	case AssessmentAwaitingResponse:
		return "Information requested"
	case AssessmentCompleted:
		return "Completed"
	case AssessmentReallocated:
		return "Reallocated"
	}
	return string(s)
}

// AssessmentDecision is the recorded outcome
type AssessmentDecision string

const (
	DecisionAccepted AssessmentDecision = "accepted"
	DecisionRejected AssessmentDecision = "rejected"
)

// ClarificationNote is a query raised with the applicant and its answer
type ClarificationNote struct {
	ID                     string    `json:"id"`
	Query                  string    `json:"query"`
	Response               string    `json:"response,omitempty"`
	ResponseReceivedOn     string    `json:"responseReceivedOn,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	CreatedByStaffMemberID string    `json:"createdByStaffMemberId"`
}

// Assessment is the review of a submitted application
type Assessment struct {
	ID                 string              `json:"id"`
	Application        Application         `json:"application"`
	AllocatedAt        *time.Time          `json:"allocatedAt,omitempty"`
	AllocatedTo        *User               `json:"allocatedToStaffMember,omitempty"`
	Status             AssessmentStatus    `json:"status"`
	Decision           AssessmentDecision  `json:"decision,omitempty"`
	RejectionRationale string              `json:"rejectionRationale,omitempty"`
	Data               form.Document       `json:"data"`
	ClarificationNotes []ClarificationNote `json:"clarificationNotes"`
	CreatedAt          time.Time           `json:"createdAt"`
	SubmittedAt        *time.Time          `json:"submittedAt,omitempty"`
}

// IsEditable reports whether the assessment can still be worked on
func (a *Assessment) IsEditable() bool {
	return a.Status != AssessmentCompleted && a.Status != AssessmentReallocated
}

// AssessmentSummary is the list view of an assessment
type AssessmentSummary struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"applicationId"`
	Person        Person           `json:"person"`
	Status        AssessmentStatus `json:"status"`
	ArrivalDate   string           `json:"arrivalDate,omitempty"`
	DueAt         string           `json:"dueAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	Risks         *PersonRisks     `json:"risks,omitempty"`
}

// PlacementRequirements is what matching needs from an accepted assessment
type PlacementRequirements struct {
	Type              string   `json:"type"`
	Location          string   `json:"location"`
	Radius            int      `json:"radius"`
	EssentialCriteria []string `json:"essentialCriteria"`
	DesirableCriteria []string `json:"desirableCriteria"`
}

// AssessmentAcceptance accepts the application
type AssessmentAcceptance struct {
	Document     []form.TaskSummary     `json:"document"`
	Requirements *PlacementRequirements `json:"requirements,omitempty"`
	Notes        string                 `json:"notes,omitempty"`
}

// AssessmentRejection rejects the application
type AssessmentRejection struct {
	Document           []form.TaskSummary `json:"document"`
	RejectionRationale string             `json:"rejectionRationale"`
}

// UpdateAssessment replaces the stored answers
type UpdateAssessment struct {
	Data form.Document `json:"data"`
}

// NewClarificationNote raises a query with the applicant
type NewClarificationNote struct {
	Query string `json:"query" validate:"required,max=4000"`
}
