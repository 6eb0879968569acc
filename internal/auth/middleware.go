package auth

import (
	"strings"

	"stockgate/internal/apperrors"
	"stockgate/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserEmailKey = "user_email"
	CtxUserRoleKey  = "user_role"
)

// Identity is what the gate attaches to an authorized request.
type Identity struct {
	UserID string
	Email  string
	Role   models.UserRole
}

// JWTMiddleware rejects requests without a bearer token with 401 and requests
// whose token fails verification with 403.
func JWTMiddleware(tokens *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.New(apperrors.ErrUnauthenticated, "authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			return apperrors.New(apperrors.ErrUnauthenticated, "authorization must be 'Bearer <token>'")
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.New(apperrors.ErrForbidden, err.Error())
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserEmailKey, claims.Email)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

// RequireRole lets the request through only when the verified role is one of
// allowedRoles.
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return apperrors.New(apperrors.ErrForbidden, "role information unavailable")
		}
		if Allowed(identity.Role, allowedRoles...) {
			return c.Next()
		}
		return apperrors.New(apperrors.ErrForbidden, "insufficient role for this operation")
	}
}

// Allowed is the authorization predicate used by RequireRole.
func Allowed(role models.UserRole, allowedRoles ...models.UserRole) bool {
	for _, r := range allowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Identity{}, false
	}
	id, _ := c.Locals(CtxUserIDKey).(string)
	email, _ := c.Locals(CtxUserEmailKey).(string)
	return Identity{UserID: id, Email: email, Role: role}, true
}
