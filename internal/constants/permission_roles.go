package constants

// PermissionRoles maps each permission to the roles allowed to perform it.
// Volunteer applicants keep donor self-service rights: applying does not
// revoke the ability to donate or see one's own donations.
var PermissionRoles = map[string][]string{
	SubmitDonation:   {Donor, Reviewer, NGOPartner, Admin, VolunteerApplicant},
	ViewOwnDonations: {Donor, Reviewer, NGOPartner, Admin, VolunteerApplicant},
	VerifyDonation:   {Reviewer, Admin},
	MarkCollected:    {Reviewer, Admin},
	MarkDistributed:  {Reviewer, Admin},
	RecallDonation:   {Admin},
	BrowseInventory:  {NGOPartner, Admin},
	ReserveDonation:  {NGOPartner, Admin},
	ReleaseDonation:  {NGOPartner, Admin},
	ApplyVolunteer:   {Donor, Reviewer, NGOPartner, Admin, VolunteerApplicant},
	AssignRole:       {Admin},
	QueryAuditLog:    {Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
