package middleware

import (
	"net/http/httptest"
	"testing"

	"vitamend-backend/internal/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditor struct {
	actorID    string
	permission string
	calls      int
}

func (f *fakeAuditor) LogAccessDenied(c *fiber.Ctx, actorID, permission string) {
	f.actorID = actorID
	f.permission = permission
	f.calls++
}

func permissionApp(permission string, auditor AccessAuditor, role string) *fiber.App {
	app := fiber.New()
	if role != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user", map[string]interface{}{
				"user_id": "u-1",
				"role":    role,
			})
			return c.Next()
		})
	}
	app.Get("/t", AuthorizePermission(permission, auditor), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

// TestAuthorizePermission_Allowed passes the request through.
func TestAuthorizePermission_Allowed(t *testing.T) {
	app := permissionApp(constants.VerifyDonation, nil, constants.Reviewer)
	resp, err := app.Test(httptest.NewRequest("GET", "/t", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

// TestAuthorizePermission_Denied returns 403 and audits the violation.
func TestAuthorizePermission_Denied(t *testing.T) {
	auditor := &fakeAuditor{}
	app := permissionApp(constants.RecallDonation, auditor, constants.Reviewer)
	resp, err := app.Test(httptest.NewRequest("GET", "/t", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, auditor.calls)
	assert.Equal(t, "u-1", auditor.actorID)
	assert.Equal(t, constants.RecallDonation, auditor.permission)
}

// TestAuthorizePermission_NoSession returns 401 without touching the auditor.
func TestAuthorizePermission_NoSession(t *testing.T) {
	auditor := &fakeAuditor{}
	app := permissionApp(constants.VerifyDonation, auditor, "")
	resp, err := app.Test(httptest.NewRequest("GET", "/t", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, auditor.calls)
}

// TestAuthorizePermission_Unconfigured is a server error, not an open door.
func TestAuthorizePermission_Unconfigured(t *testing.T) {
	app := permissionApp("no_such_permission", nil, constants.Admin)
	resp, err := app.Test(httptest.NewRequest("GET", "/t", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

// TestPermissionMatrix pins the role grants for the sensitive permissions.
func TestPermissionMatrix(t *testing.T) {
	assert.True(t, constants.AllowedRole(constants.SubmitDonation, constants.VolunteerApplicant))
	assert.True(t, constants.AllowedRole(constants.ViewOwnDonations, constants.Donor))
	assert.False(t, constants.AllowedRole(constants.VerifyDonation, constants.Donor))
	assert.False(t, constants.AllowedRole(constants.BrowseInventory, constants.Donor))
	assert.True(t, constants.AllowedRole(constants.BrowseInventory, constants.NGOPartner))
	assert.False(t, constants.AllowedRole(constants.ReserveDonation, constants.Reviewer))
	assert.False(t, constants.AllowedRole(constants.RecallDonation, constants.Reviewer))
	assert.True(t, constants.AllowedRole(constants.RecallDonation, constants.Admin))
	assert.False(t, constants.AllowedRole(constants.QueryAuditLog, constants.Reviewer))
	assert.False(t, constants.AllowedRole(constants.AssignRole, constants.NGOPartner))
}
