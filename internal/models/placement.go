package models

import (
	"time"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
)

// PlacementApplication asks for a further placement on an accepted application
type PlacementApplication struct {
	ID            string        `json:"id"`
	ApplicationID string        `json:"applicationId"`
	Person        *Person       `json:"person,omitempty"`
	Data          form.Document `json:"data"`
	Status        string        `json:"status,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	SubmittedAt   *time.Time    `json:"submittedAt,omitempty"`
}

// NewPlacementApplication starts a placement application
type NewPlacementApplication struct {
	ApplicationID string `json:"applicationId" validate:"required,uuid"`
}

// UpdatePlacementApplication replaces the stored answers
type UpdatePlacementApplication struct {
	Data form.Document `json:"data"`
}

// PlacementDates is a requested arrival and length of stay in days
type PlacementDates struct {
	ExpectedArrival string `json:"expectedArrival"`
	Duration        int    `json:"duration"`
}

// SubmitPlacementApplication submits a completed placement application
type SubmitPlacementApplication struct {
	Translated     []form.TaskSummary `json:"translatedDocument"`
	PlacementType  string             `json:"placementType"`
	PlacementDates []PlacementDates   `json:"placementDates"`
}

// PlacementRequestStatus is the matching state of a placement request
type PlacementRequestStatus string

const (
	PlacementRequestNotMatched    PlacementRequestStatus = "notMatched"
	PlacementRequestUnableToMatch PlacementRequestStatus = "unableToMatch"
	PlacementRequestMatched       PlacementRequestStatus = "matched"
)

// Label returns the human readable status
func (s PlacementRequestStatus) Label() string {
	switch s {
	case PlacementRequestNotMatched:
		return "Not matched"
	case PlacementRequestUnableToMatch:
		return "Unable to match"
	case PlacementRequestMatched:
		return "Matched"
	}
	return string(s)
}

// PlacementRequest is an approved need for a placement, waiting to be matched
type PlacementRequest struct {
	ID                string                 `json:"id"`
	Person            Person                 `json:"person"`
	Risks             *PersonRisks           `json:"risks,omitempty"`
	ApplicationID     string                 `json:"applicationId"`
	AssessmentID      string                 `json:"assessmentId"`
	ExpectedArrival   string                 `json:"expectedArrival"`
	Duration          int                    `json:"duration"`
	Status            PlacementRequestStatus `json:"status"`
	Type              string                 `json:"type"`
	Location          string                 `json:"location"`
	Radius            int                    `json:"radius"`
	EssentialCriteria []string               `json:"essentialCriteria"`
	DesirableCriteria []string               `json:"desirableCriteria"`
	NotesOnPlacement  string                 `json:"notes,omitempty"`
	IsParole          bool                   `json:"isParole"`
	SpaceBookings     []SpaceBookingSummary  `json:"spaceBookings,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
}

// ExpectedDeparture is the arrival date plus the duration
func (p *PlacementRequest) ExpectedDeparture() string {
	departure, err := dates.AddDays(p.ExpectedArrival, p.Duration)
	if err != nil {
		return ""
	}
	return departure
}

// NewBookingNotMade records that no space could be found
type NewBookingNotMade struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}
