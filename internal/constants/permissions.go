package constants

const (
	SubmitDonation   = "submit_donation"
	ViewOwnDonations = "view_own_donations"
	VerifyDonation   = "verify_donation"
	MarkCollected    = "mark_collected"
	MarkDistributed  = "mark_distributed"
	RecallDonation   = "recall_donation"
	BrowseInventory  = "browse_inventory"
	ReserveDonation  = "reserve_donation"
	ReleaseDonation  = "release_donation"
	ApplyVolunteer   = "apply_volunteer"
	AssignRole       = "assign_role"
	QueryAuditLog    = "query_audit_log"
)
