package models

import (
	"strings"
)

// ProbationRegion is the region a user works in
type ProbationRegion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is the signed in caseworker, as returned by the profile endpoint
type User struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DeliusUsername  string          `json:"deliusUsername"`
	Email           string          `json:"email,omitempty"`
	TelephoneNumber string          `json:"telephoneNumber,omitempty"`
	IsActive        bool            `json:"isActive"`
	Region          ProbationRegion `json:"region"`
	Roles           []string        `json:"roles"`
	Permissions     []string        `json:"permissions"`
}

// HasPermission checks if the user holds a permission.
// Supports wildcard permissions like "cas1_space_booking_*" and "*".
func (u *User) HasPermission(required string) bool {
	if u == nil || !u.IsActive {
		return false
	}

	for _, perm := range u.Permissions {
		if perm == required || perm == "*" {
			return true
		}
		if strings.HasSuffix(perm, "*") && strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
			return true
		}
	}
	return false
}

// HasRole checks if the user holds a role
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Permissions checked by the web tier
const (
	PermissionApplicationCreate      = "cas1_application_create"
	PermissionApplicationWithdraw    = "cas1_application_withdraw_own"
	PermissionApplicationWithdrawAny = "cas1_application_withdraw_others"
	PermissionAssessmentView         = "cas1_view_assessments"
	PermissionAssessmentSubmit       = "cas1_assess_application"
	PermissionPlacementRequestView   = "cas1_view_manage_tasks"
	PermissionSpaceBookingCreate     = "cas1_space_booking_create"
	PermissionSpaceBookingWithdraw   = "cas1_space_booking_withdraw"
	PermissionPremisesView           = "cas1_premises_view"
	PermissionOutOfServiceBedCreate  = "cas1_out_of_service_bed_create"
	PermissionPlacementAppCreate     = "cas1_placement_application_create"
	PermissionBookingNotMadeRecord   = "cas1_booking_not_made_create"
	PermissionPersonSearch           = "cas1_search_people"
	PermissionPremisesCapacityReport = "cas1_premises_capacity_report_view"
)
