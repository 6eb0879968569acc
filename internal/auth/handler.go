package auth

import (
	"stockgate/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

// POST /api/auth/register
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		user, err := svc.Register(c.UserContext(), body.Email, body.Password, body.Role)
		if err != nil {
			return err
		}

		token, err := svc.Tokens().Issue(user.ID, user.Email, user.Role)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "user registered",
			"token":   token,
			"user":    toUserResponse(user),
		})
	}
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		user, token, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"message": "login successful",
			"token":   token,
			"user":    toUserResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}

		// Fall back to the token claims when the user row is gone.
		user, err := svc.User(c.UserContext(), identity.UserID)
		if err != nil {
			return c.JSON(fiber.Map{
				"user_id": identity.UserID,
				"email":   identity.Email,
				"role":    identity.Role,
			})
		}

		return c.JSON(fiber.Map{
			"user_id":    user.ID,
			"email":      user.Email,
			"role":       user.Role,
			"created_at": user.CreatedAt,
		})
	}
}
