package models

import (
	"time"

	"github.com/terra-clan/approved-premises/internal/form"
)

// APArea is the geographical area an AP belongs to
type APArea struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PremisesSummary is the list view of an Approved Premises
type PremisesSummary struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	APCode               string `json:"apCode"`
	Postcode             string `json:"postcode"`
	BedCount             int    `json:"bedCount"`
	AvailableBeds        int    `json:"availableBeds"`
	OutOfServiceBedCount int    `json:"outOfServiceBeds"`
	APArea               APArea `json:"apArea"`
}

// Premises is a single Approved Premises
type Premises struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	APCode                string   `json:"apCode"`
	FullAddress           string   `json:"fullAddress"`
	Postcode              string   `json:"postcode"`
	BedCount              int      `json:"bedCount"`
	AvailableBeds         int      `json:"availableBeds"`
	OutOfServiceBedCount  int      `json:"outOfServiceBeds"`
	SupportsSpaceBookings bool     `json:"supportsSpaceBookings"`
	ManagerDetails        string   `json:"managerDetails,omitempty"`
	Characteristics       []string `json:"characteristics,omitempty"`
	APArea                APArea   `json:"apArea"`
}

// NamedRef is a reference to another record with its display name
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bed is a bed within a premises
type Bed struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoomName string `json:"roomName,omitempty"`
}

// CharacteristicAvailability is the capacity of beds with a characteristic on a day
type CharacteristicAvailability struct {
	Characteristic     string `json:"characteristic"`
	AvailableBedsCount int    `json:"availableBedsCount"`
	BookingsCount      int    `json:"bookingsCount"`
}

// IsOverbooked reports whether bookings needing the characteristic exceed the beds with it
func (c CharacteristicAvailability) IsOverbooked() bool {
	return c.BookingsCount > c.AvailableBedsCount
}

// CapacityDay is the capacity of a premises on a day
type CapacityDay struct {
	Date                       string                       `json:"date"`
	TotalBedCount              int                          `json:"totalBedCount"`
	AvailableBedCount          int                          `json:"availableBedCount"`
	BookingCount               int                          `json:"bookingCount"`
	CharacteristicAvailability []CharacteristicAvailability `json:"characteristicAvailability,omitempty"`
}

// IsOverbooked reports whether bookings exceed the beds available
func (d CapacityDay) IsOverbooked() bool {
	return d.BookingCount > d.AvailableBedCount
}

// PremisesCapacity is the day by day capacity of a premises over a period
type PremisesCapacity struct {
	Premises  PremisesSummary `json:"premise"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Capacity  []CapacityDay   `json:"capacity"`
}

// SpaceBookingCancellation records why a booking was withdrawn
type SpaceBookingCancellation struct {
	OccurredAt  string    `json:"occurredAt"`
	RecordedAt  time.Time `json:"recordedAt"`
	Reason      string    `json:"reason"`
	ReasonNotes string    `json:"reasonNotes,omitempty"`
}

// SpaceBooking is a space reserved in a premises for a person
type SpaceBooking struct {
	ID                     string                    `json:"id"`
	Person                 Person                    `json:"person"`
	Premises               NamedRef                  `json:"premises"`
	ApplicationID          string                    `json:"applicationId"`
	AssessmentID           string                    `json:"assessmentId,omitempty"`
	PlacementRequestID     string                    `json:"placementRequestId,omitempty"`
	ExpectedArrivalDate    string                    `json:"expectedArrivalDate"`
	ExpectedDepartureDate  string                    `json:"expectedDepartureDate"`
	ActualArrivalDate      string                    `json:"actualArrivalDate,omitempty"`
	ActualDepartureDate    string                    `json:"actualDepartureDate,omitempty"`
	CanonicalArrivalDate   string                    `json:"canonicalArrivalDate"`
	CanonicalDepartureDate string                    `json:"canonicalDepartureDate"`
	KeyWorkerName          string                    `json:"keyWorkerName,omitempty"`
	Characteristics        []string                  `json:"characteristics,omitempty"`
	Tier                   string                    `json:"tier,omitempty"`
	BookedBy               *User                     `json:"createdBy,omitempty"`
	CreatedAt              time.Time                 `json:"createdAt"`
	Cancellation           *SpaceBookingCancellation `json:"cancellation,omitempty"`
}

// IsCancelled reports whether the booking has been withdrawn
func (b *SpaceBooking) IsCancelled() bool {
	return b.Cancellation != nil
}

// SpaceBookingSummary is the list view of a space booking
type SpaceBookingSummary struct {
	ID                     string   `json:"id"`
	Person                 Person   `json:"person"`
	CanonicalArrivalDate   string   `json:"canonicalArrivalDate"`
	CanonicalDepartureDate string   `json:"canonicalDepartureDate"`
	Tier                   string   `json:"tier,omitempty"`
	KeyWorkerName          string   `json:"keyWorkerName,omitempty"`
	Characteristics        []string `json:"characteristics,omitempty"`
}

// NewSpaceBooking books a space for a placement request
type NewSpaceBooking struct {
	PremisesID      string   `json:"premisesId" validate:"required,uuid"`
	ArrivalDate     string   `json:"arrivalDate" validate:"required,datetime=2006-01-02"`
	DepartureDate   string   `json:"departureDate" validate:"required,datetime=2006-01-02"`
	Characteristics []string `json:"characteristics,omitempty" validate:"dive,required"`
}

// NewCancellation withdraws a space booking
type NewCancellation struct {
	OccurredAt  string `json:"occurredAt" validate:"required,datetime=2006-01-02"`
	ReasonID    string `json:"reasonId" validate:"required"`
	ReasonNotes string `json:"reasonNotes,omitempty" validate:"max=2000"`
}

// CancellationReasons are the reasons offered when withdrawing a space booking
var CancellationReasons = []form.Option{
	{Value: "error_in_booking", Label: "Error in booking details"},
	{Value: "withdrawn_by_pp", Label: "Withdrawn by probation practitioner"},
	{Value: "death", Label: "Death of the person"},
	{Value: "other", Label: "Other"},
}

// OutOfServiceBed is a bed taken out of use for a period
type OutOfServiceBed struct {
	ID              string    `json:"id"`
	Bed             Bed       `json:"bed"`
	StartDate       string    `json:"startDate"`
	EndDate         string    `json:"endDate"`
	Reason          string    `json:"reason"`
	ReferenceNumber string    `json:"referenceNumber,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	DaysLostCount   int       `json:"daysLostCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewOutOfServiceBed takes a bed out of use
type NewOutOfServiceBed struct {
	BedID           string `json:"bedId" validate:"required"`
	StartDate       string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string `json:"endDate" validate:"required,datetime=2006-01-02"`
	ReasonID        string `json:"reasonId" validate:"required"`
	ReferenceNumber string `json:"referenceNumber,omitempty" validate:"max=50"`
	Notes           string `json:"notes,omitempty" validate:"max=2000"`
}

// OutOfServiceBedReasons are the reasons offered when taking a bed out of use
var OutOfServiceBedReasons = []form.Option{
	{Value: "maintenance", Label: "Planned refurbishment"},
	{Value: "repairs", Label: "Repairs"},
	{Value: "staff_shortage", Label: "Staff shortage"},
	{Value: "other", Label: "Other"},
}
