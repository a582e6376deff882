package middleware

import (
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccessAuditor records access-control violations. Implemented by the audit
// service; nil disables denial auditing (tests).
type AccessAuditor interface {
	LogAccessDenied(c *fiber.Ctx, actorID, permission string)
}

// AuthorizePermission returns a handler that checks the session user's role
// against the permission matrix. Denials are audited at critical severity.
// Unconfigured permission -> 500 "Permission configuration error".
func AuthorizePermission(permission string, auditor AccessAuditor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		role := GetUserRole(c)
		if role == "" {
			return response.Error(c, "Authorization error", fiber.StatusInternalServerError, nil)
		}
		roles, ok := constants.PermissionRoles[permission]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !constants.AllowedRole(permission, role) {
			if auditor != nil {
				auditor.LogAccessDenied(c, GetUserID(c), permission)
			}
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}
