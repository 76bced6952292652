package models

import (
	"time"

	"github.com/terra-clan/approved-premises/internal/form"
)

// ApplicationStatus is the lifecycle state of an application, owned by the API
type ApplicationStatus string

const (
	ApplicationStarted                 ApplicationStatus = "started"
	ApplicationSubmitted               ApplicationStatus = "submitted"
	ApplicationAwaitingAssessment      ApplicationStatus = "awaitingAssesment"
	ApplicationUnallocatedAssessment   ApplicationStatus = "unallocatedAssesment"
	ApplicationAssessmentInProgress    ApplicationStatus = "assesmentInProgress"
	ApplicationRequestedFurtherInfo    ApplicationStatus = "requestedFurtherInformation"
	ApplicationAwaitingPlacement       ApplicationStatus = "awaitingPlacement"
	ApplicationPendingPlacementRequest ApplicationStatus = "pendingPlacementRequest"
	ApplicationPlacementAllocated      ApplicationStatus = "placementAllocated"
	ApplicationRejected                ApplicationStatus = "rejected"
	ApplicationWithdrawn               ApplicationStatus = "withdrawn"
	ApplicationExpired                 ApplicationStatus = "expired"
	ApplicationInapplicable            ApplicationStatus = "inapplicable"
)

var applicationStatusLabels = map[ApplicationStatus]string{
	ApplicationStarted:                 "In progress",
	ApplicationSubmitted:               "Submitted",
	ApplicationAwaitingAssessment:      "Awaiting assessment",
	ApplicationUnallocatedAssessment:   "Unallocated assessment",
	ApplicationAssessmentInProgress:    "Assessment in progress",
	ApplicationRequestedFurtherInfo:    "Further information requested",
	ApplicationAwaitingPlacement:       "Awaiting placement",
	ApplicationPendingPlacementRequest: "Pending placement request",
	ApplicationPlacementAllocated:      "Placement allocated",
	ApplicationRejected:                "Application rejected",
	ApplicationWithdrawn:               "Application withdrawn",
	ApplicationExpired:                 "Expired application",
	ApplicationInapplicable:            "Inapplicable",
}

// Label returns the human readable status
func (s ApplicationStatus) Label() string {
	if l, ok := applicationStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsEditable reports whether the application can still be changed by its author
func (s ApplicationStatus) IsEditable() bool {
	return s == ApplicationStarted
}

// CanWithdraw reports whether the application may be withdrawn
func (s ApplicationStatus) CanWithdraw() bool {
	switch s {
	case ApplicationWithdrawn, ApplicationRejected, ApplicationExpired, ApplicationInapplicable:
		return false
	}
	return true
}

// Application is a request for an Approved Premises placement
type Application struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Person          Person            `json:"person"`
	CreatedByUserID string            `json:"createdByUserId"`
	CreatedAt       time.Time         `json:"createdAt"`
	SubmittedAt     *time.Time        `json:"submittedAt,omitempty"`
	ArrivalDate     string            `json:"arrivalDate,omitempty"`
	Status          ApplicationStatus `json:"status"`
	Risks           *PersonRisks      `json:"risks,omitempty"`
	Data            form.Document     `json:"data"`
	Document        any               `json:"document,omitempty"`
	AssessmentID    string            `json:"assessmentId,omitempty"`
}

// ApplicationSummary is the list view of an application
type ApplicationSummary struct {
	ID          string            `json:"id"`
	Person      Person            `json:"person"`
	CreatedAt   time.Time         `json:"createdAt"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
	ArrivalDate string            `json:"arrivalDate,omitempty"`
	Status      ApplicationStatus `json:"status"`
	Tier        string            `json:"tier,omitempty"`
	Risks       *PersonRisks      `json:"risks,omitempty"`
}

// NewApplication starts an application for a person
type NewApplication struct {
	CRN          string `json:"crn" validate:"required,alphanum,len=7"`
	ConvictionID int    `json:"convictionId,omitempty"`
	OffenceID    string `json:"offenceId,omitempty"`
}

// UpdateApplication replaces the stored answers
type UpdateApplication struct {
	Type string        `json:"type"`
	Data form.Document `json:"data"`
}

// SubmitApplication submits a completed application. Translated is the
// question/answer view of the answers.
type SubmitApplication struct {
	Type           string             `json:"type"`
	Translated     []form.TaskSummary `json:"translatedDocument"`
	IsPipe         bool               `json:"isPipeApplication"`
	IsESAP         bool               `json:"isEsapApplication"`
	APType         string             `json:"apType"`
	TargetLocation string             `json:"targetLocation"`
	ReleaseType    string             `json:"releaseType,omitempty"`
	SentenceType   string             `json:"sentenceType,omitempty"`
	Situation      string             `json:"situation,omitempty"`
	ArrivalDate    string             `json:"arrivalDate,omitempty"`
	Duration       int                `json:"duration,omitempty"`
}

// WithdrawApplication withdraws an application
type WithdrawApplication struct {
	Reason      string `json:"reason" validate:"required,oneof=change_in_circumstances_new_application_to_be_submitted error_in_application duplicate_application death other"`
	OtherReason string `json:"otherReason,omitempty" validate:"required_if=Reason other"`
}

// WithdrawalReasons are the reasons offered when withdrawing an application
var WithdrawalReasons = []form.Option{
	{Value: "change_in_circumstances_new_application_to_be_submitted", Label: "A new application will be submitted due to a change in circumstances"},
	{Value: "error_in_application", Label: "The application was submitted in error"},
	{Value: "duplicate_application", Label: "The application is a duplicate"},
	{Value: "death", Label: "The person has died"},
	{Value: "other", Label: "Other"},
}
