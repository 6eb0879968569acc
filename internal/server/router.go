package server

import (
	"errors"
	"log/slog"
	"strings"

	"stockgate/internal/apperrors"
	"stockgate/internal/audit"
	"stockgate/internal/auth"
	"stockgate/internal/inventory"
	"stockgate/internal/logging"
	"stockgate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Deps struct {
	Auth        *auth.Service
	Inventory   *inventory.Service
	Audit       *audit.Recorder
	Logger      *slog.Logger
	CORSOrigins string
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

// New builds the fiber application with every route mounted.
func New(d Deps) *fiber.App {
	logger := logging.Resolve(d.Logger)
	if d.Audit == nil {
		d.Audit = audit.NewRecorder(logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      "stockgate",
		UnescapePath: true,
		ErrorHandler: ErrorHandler(logger),
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(fiberlogger.New())
	}
	if d.CORSOrigins != "" {
		origins := strings.Split(d.CORSOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(origins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(d.Auth))
	api.Post("/auth/login", auth.LoginHandler(d.Auth))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(d.Auth.Tokens()))
	adminOnly := auth.RequireRole(models.RoleAdmin)
	anyRole := auth.RequireRole(models.RoleUser, models.RoleAdmin)

	protected.Get("/auth/me", auth.MeHandler(d.Auth))

	// Static paths before /inventory/:id
	protected.Get("/inventory", anyRole, inventory.ListItemsHandler(d.Inventory))
	protected.Get("/inventory/summary", anyRole, inventory.SummaryHandler(d.Inventory))
	protected.Get("/inventory/export", anyRole, inventory.ExportHandler(d.Inventory))
	protected.Get("/inventory/tag/:tag", anyRole, inventory.GetByTagHandler(d.Inventory))
	protected.Put("/inventory/tag/:tag/stock", adminOnly, inventory.AdjustStockHandler(d.Inventory, d.Audit))
	protected.Get("/inventory/:id", anyRole, inventory.GetItemHandler(d.Inventory))
	protected.Post("/inventory", adminOnly, inventory.CreateItemHandler(d.Inventory, d.Audit))
	protected.Put("/inventory/:id", adminOnly, inventory.UpdateItemHandler(d.Inventory, d.Audit))
	protected.Delete("/inventory/:id", adminOnly, inventory.DeleteItemHandler(d.Inventory, d.Audit))

	return app
}

// ErrorHandler renders every failure as {"error": ..., "code": ...}. Errors
// outside the taxonomy are logged and hidden behind a generic 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
				"code":  apperrors.CodeForStatus(fe.Code),
			})
		}

		status, code, message, ok := apperrors.Describe(err)
		if !ok {
			logger.Error("unexpected error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return c.Status(status).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}
}
