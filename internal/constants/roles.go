package constants

const (
	Donor              = "donor"
	Reviewer           = "reviewer"
	NGOPartner         = "ngo_partner"
	Admin              = "admin"
	VolunteerApplicant = "volunteer_applicant"
)

// ValidRoles is the set of allowed values for users.role.
var ValidRoles = []string{Donor, Reviewer, NGOPartner, Admin, VolunteerApplicant}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
