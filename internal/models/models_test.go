package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		required string
		want     bool
	}{
		{"nil user", nil, PermissionPremisesView, false},
		{"inactive user", &User{Permissions: []string{"*"}}, PermissionPremisesView, false},
		{"exact", &User{IsActive: true, Permissions: []string{PermissionPremisesView}}, PermissionPremisesView, true},
		{"prefix wildcard", &User{IsActive: true, Permissions: []string{"cas1_space_booking_*"}}, PermissionSpaceBookingCreate, true},
		{"wildcard other prefix", &User{IsActive: true, Permissions: []string{"cas1_space_booking_*"}}, PermissionPremisesView, false},
		{"global wildcard", &User{IsActive: true, Permissions: []string{"*"}}, PermissionOutOfServiceBedCreate, true},
		{"missing", &User{IsActive: true, Permissions: []string{PermissionPremisesView}}, PermissionSpaceBookingCreate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasPermission(tt.required))
		})
	}
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Awaiting assessment", ApplicationAwaitingAssessment.Label())
	assert.Equal(t, "somethingNew", ApplicationStatus("somethingNew").Label())
	assert.True(t, ApplicationStarted.IsEditable())
	assert.False(t, ApplicationSubmitted.IsEditable())
	assert.False(t, ApplicationWithdrawn.CanWithdraw())
	assert.Equal(t, "Information requested", AssessmentAwaitingResponse.Label())
	assert.Equal(t, "Unable to match", PlacementRequestUnableToMatch.Label())
}

func TestPlacementRequestExpectedDeparture(t *testing.T) {
	p := &PlacementRequest{ExpectedArrival: "2024-01-30", Duration: 3}
	assert.Equal(t, "2024-02-02", p.ExpectedDeparture())

	p.ExpectedArrival = "not a date"
	assert.Equal(t, "", p.ExpectedDeparture())
}

func TestPersonDisplayName(t *testing.T) {
	assert.Equal(t, "Ann Smith", Person{Type: PersonTypeFull, Name: "Ann Smith"}.DisplayName())
	assert.Equal(t, "Limited access offender", Person{Type: PersonTypeRestricted, Name: "Hidden"}.DisplayName())
}

func TestRisksAccessors(t *testing.T) {
	var missing *PersonRisks
	assert.Equal(t, "", missing.TierLabel())

	r := &PersonRisks{
		Tier:      Tier{Status: RiskRetrieved, Value: &TierLevel{Level: "A1"}},
		RoshRisks: RoshRisks{Status: RiskRetrieved, Value: &RoshLevels{OverallRisk: "High"}},
	}
	assert.Equal(t, "A1", r.TierLabel())
	assert.Equal(t, "High", r.OverallRisk())
}

func TestCapacityOverbooking(t *testing.T) {
	assert.True(t, CapacityDay{AvailableBedCount: 2, BookingCount: 3}.IsOverbooked())
	assert.False(t, CapacityDay{AvailableBedCount: 3, BookingCount: 3}.IsOverbooked())
	assert.True(t, CharacteristicAvailability{AvailableBedsCount: 0, BookingsCount: 1}.IsOverbooked())
}
