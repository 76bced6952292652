package view

import (
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/pagination"
	"github.com/terra-clan/approved-premises/internal/services"
)

// ActionForm is a form posting to Action, e.g. a withdrawal or a booking
type ActionForm struct {
	Heading string
	Action  string
	Button  string
	Fields  []FieldView
	// Warning marks forms that end something, e.g. a withdrawal
	Warning bool
}

// FormView is a page holding a single action form with context above it
type FormView struct {
	Heading string
	Caption string
	Cards   []SummaryCard
	Form    ActionForm
}

// RecordView is the task list page of an application, assessment or
// placement application
type RecordView struct {
	Heading    string
	Status     Tag
	Person     SummaryCard
	TaskList   *TaskList
	SubmitPath string
	SubmitText string
	Notes      []models.ClarificationNote
	Forms      []ActionForm
	Links      []Link
}

// Link is a plain link shown alongside a record
type Link struct {
	Text string
	Href string
}

// WizardView is a page of a journey
type WizardView struct {
	Caption string
	Form    *FormPage
	Action  string
	Summary []SummaryCard
}

// CheckAnswersView lists every answer of a record before it is submitted
type CheckAnswersView struct {
	Heading    string
	Cards      []SummaryCard
	Complete   bool
	SubmitPath string
	TaskList   string
}

// ApplicationListView lists the user's applications
type ApplicationListView struct {
	Applications []models.ApplicationSummary
	CanCreate    bool
}

// AssessmentListView is a page of assessments
type AssessmentListView struct {
	Assessments []models.AssessmentSummary
	Tabs        []Link
	Current     string
	Headers     []pagination.Header
	Pagination  pagination.Pagination
}

// PlacementRequestListView is a page of placement requests
type PlacementRequestListView struct {
	Requests   []models.PlacementRequest
	Tabs       []Link
	Current    string
	Pagination pagination.Pagination
}

// PlacementRequestView is a single placement request
type PlacementRequestView struct {
	Request  *models.PlacementRequest
	Status   Tag
	Person   SummaryCard
	Details  SummaryCard
	BookPath string
	Forms    []ActionForm
}

// PremisesListView lists premises, optionally filtered by area
type PremisesListView struct {
	Premises []models.PremisesSummary
	Areas    []OptionView
}

// PremisesView is the overview of a premises
type PremisesView struct {
	Overview    *services.Overview
	Overbooking []string
	Tabs        []Link
	Current     string
	Headers     []pagination.Header
	Pagination  pagination.Pagination
	Links       []Link
}

// SpaceBookingView is a single space booking
type SpaceBookingView struct {
	Booking *models.SpaceBooking
	Person  SummaryCard
	Details SummaryCard
	Cancel  *ActionForm
}

// OutOfServiceBedListView lists the out of service beds of a premises
type OutOfServiceBedListView struct {
	PremisesID string
	Beds       []models.OutOfServiceBed
	NewPath    string
}
