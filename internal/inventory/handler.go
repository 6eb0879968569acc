package inventory

import (
	"strconv"
	"time"

	"stockgate/internal/audit"
	"stockgate/internal/auth"
	"stockgate/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entityType = "inventory_item"

type ItemResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	SKU          string    `json:"sku"`
	MinimumStock int       `json:"minimumStock"`
	Tag          *string   `json:"tag"`
	LowStock     bool      `json:"lowStock"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ItemRequest struct {
	Name         string  `json:"name"`
	Quantity     *int    `json:"quantity"`
	SKU          string  `json:"sku"`
	MinimumStock *int    `json:"minimumStock"`
	Tag          *string `json:"tag"`
}

type StockAdjustRequest struct {
	Delta *int `json:"delta"`
}

func toItemResponse(item models.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Quantity:     item.Quantity,
		SKU:          item.SKU,
		MinimumStock: item.MinimumStock,
		Tag:          item.Tag,
		LowStock:     item.LowStock(),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func (r ItemRequest) input() ItemInput {
	return ItemInput{
		Name:         r.Name,
		Quantity:     r.Quantity,
		SKU:          r.SKU,
		MinimumStock: r.MinimumStock,
		Tag:          r.Tag,
	}
}

func parseItemID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}
	return uint(id), nil
}

func writeAudit(c *fiber.Ctx, rec *audit.Recorder, opts audit.LogOptions) {
	if identity, ok := auth.IdentityFrom(c); ok {
		opts.UserID = identity.UserID
		opts.UserEmail = identity.Email
	}
	opts.EntityType = entityType
	rec.WriteLog(opts)
}

// GET /api/inventory?lowStock=true&q=widget
func ListItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := ListFilter{
			LowStockOnly: c.QueryBool("lowStock", false),
			Search:       c.Query("q"),
		}
		items, err := svc.List(c.UserContext(), filter)
		if err != nil {
			return err
		}

		res := make([]ItemResponse, 0, len(items))
		for _, item := range items {
			res = append(res, toItemResponse(item))
		}
		return c.JSON(res)
	}
}

// GET /api/inventory/summary
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}

// GET /api/inventory/:id
func GetItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseItemID(c)
		if err != nil {
			return err
		}
		item, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(*item))
	}
}

// POST /api/inventory (admin)
func CreateItemHandler(svc *Service, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		item, err := svc.Create(c.UserContext(), body.input())
		if err != nil {
			return err
		}

		res := toItemResponse(*item)
		writeAudit(c, rec, audit.LogOptions{EntityID: item.ID, Action: audit.ActionCreate, After: res})
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// PUT /api/inventory/:id (admin)
func UpdateItemHandler(svc *Service, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseItemID(c)
		if err != nil {
			return err
		}

		var body ItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		item, err := svc.Update(c.UserContext(), id, body.input())
		if err != nil {
			return err
		}

		res := toItemResponse(*item)
		writeAudit(c, rec, audit.LogOptions{EntityID: item.ID, Action: audit.ActionUpdate, After: res})
		return c.JSON(res)
	}
}

// DELETE /api/inventory/:id (admin)
func DeleteItemHandler(svc *Service, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseItemID(c)
		if err != nil {
			return err
		}

		item, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		res := toItemResponse(*item)
		writeAudit(c, rec, audit.LogOptions{EntityID: item.ID, Action: audit.ActionDelete, Before: res})
		return c.JSON(fiber.Map{
			"message": "item deleted",
			"item":    res,
		})
	}
}

// GET /api/inventory/tag/:tag
func GetByTagHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := svc.Resolve(c.UserContext(), c.Params("tag"))
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(*item))
	}
}

// PUT /api/inventory/tag/:tag/stock (admin)
func AdjustStockHandler(svc *Service, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockAdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "delta must be an integer")
		}
		if body.Delta == nil {
			return fiber.NewError(fiber.StatusBadRequest, "delta is required")
		}

		adj, err := svc.AdjustStock(c.UserContext(), c.Params("tag"), *body.Delta)
		if err != nil {
			return err
		}

		message := "stock updated"
		if adj.Clamped {
			message = "stock updated; quantity clamped at 0"
		}

		res := toItemResponse(adj.Item)
		writeAudit(c, rec, audit.LogOptions{
			EntityID:    adj.Item.ID,
			Action:      audit.ActionStockAdjust,
			Description: message,
			Before:      fiber.Map{"quantity": adj.PreviousQuantity},
			After:       fiber.Map{"quantity": adj.Item.Quantity, "delta": adj.Delta},
		})
		return c.JSON(fiber.Map{
			"message":          message,
			"item":             res,
			"previousQuantity": adj.PreviousQuantity,
			"clamped":          adj.Clamped,
		})
	}
}
