package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"stockgate/internal/apperrors"
	"stockgate/internal/logging"
	"stockgate/internal/models"
)

const resolveAttempts = 3

// errStaleResolution is returned from inside the row lock when the locked item
// no longer answers to the scanned identifier.
var errStaleResolution = errors.New("identifier moved to another item")

// ItemInput is the raw create/update payload. Pointers distinguish a missing
// number from zero.
type ItemInput struct {
	Name         string
	Quantity     *int
	SKU          string
	MinimumStock *int
	Tag          *string
}

// ListFilter narrows List. Zero value lists everything.
type ListFilter struct {
	LowStockOnly bool
	Search       string
}

type Summary struct {
	TotalItems          int `json:"totalItems"`
	TotalUnits          int `json:"totalUnits"`
	LowStockItems       int `json:"lowStockItems"`
	AverageMinimumStock int `json:"averageMinimumStock"`
}

// Adjustment is the outcome of AdjustStock.
type Adjustment struct {
	Item             models.InventoryItem
	PreviousQuantity int
	Delta            int
	// Clamped is set when current+delta was negative and zero was stored instead.
	Clamped bool
}

type Service struct {
	repo     Repository
	resolver *Resolver
	logger   *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: NewResolver(repo),
		logger:   logging.Resolve(logger),
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal("list items", err)
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if !filter.LowStockOnly && search == "" {
		return items, nil
	}

	out := make([]models.InventoryItem, 0, len(items))
	for _, item := range items {
		if filter.LowStockOnly && !item.LowStock() {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func matchesSearch(item models.InventoryItem, search string) bool {
	if strings.Contains(strings.ToLower(item.Name), search) || strings.Contains(strings.ToLower(item.SKU), search) {
		return true
	}
	return item.Tag != nil && strings.Contains(strings.ToLower(*item.Tag), search)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, s.internal("summarize items", err)
	}
	var sum Summary
	minTotal := 0
	for _, item := range items {
		sum.TotalItems++
		sum.TotalUnits += item.Quantity
		minTotal += item.MinimumStock
		if item.LowStock() {
			sum.LowStockItems++
		}
	}
	if sum.TotalItems > 0 {
		sum.AverageMinimumStock = int(math.Round(float64(minTotal) / float64(sum.TotalItems)))
	}
	return sum, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.translate("get item", err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, input ItemInput) (*models.InventoryItem, error) {
	fields, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, s.translate("create item", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id uint, input ItemInput) (*models.InventoryItem, error) {
	fields, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, s.translate("update item", err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id uint) (*models.InventoryItem, error) {
	item, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, s.translate("delete item", err)
	}
	return item, nil
}

// Resolve looks an item up by RFID tag, falling back to SKU.
func (s *Service) Resolve(ctx context.Context, identifier string) (*models.InventoryItem, error) {
	item, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, s.translate("resolve identifier", err)
	}
	return item, nil
}

// AdjustStock applies delta to the item identified by tag (RFID tag, else SKU)
// under that item's row lock. A negative delta on an item already at zero is
// rejected with ErrInsufficientStock; otherwise the result is clamped at zero.
func (s *Service) AdjustStock(ctx context.Context, identifier string, delta int) (*Adjustment, error) {
	if delta == 0 {
		return nil, apperrors.Validation("delta must be a non-zero integer")
	}
	code := NormalizeCode(identifier)

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		target, err := s.resolver.Resolve(ctx, code)
		if err != nil {
			return nil, s.translate("resolve identifier", err)
		}

		viaTag := target.HasTag(code)

		var adj Adjustment
		item, err := s.repo.ModifyQuantity(ctx, target.ID, func(locked models.InventoryItem, byTag TagLookup) (int, error) {
			if viaTag && !locked.HasTag(code) {
				return 0, errStaleResolution
			}
			if !viaTag {
				if locked.SKU != code {
					return 0, errStaleResolution
				}
				// A tag match appearing since resolution takes priority.
				_, err := byTag(code)
				if err == nil {
					return 0, errStaleResolution
				}
				if !errors.Is(err, ErrItemNotFound) {
					return 0, err
				}
			}
			next, clamped, err := applyDelta(locked.Quantity, delta)
			if err != nil {
				return 0, err
			}
			adj = Adjustment{PreviousQuantity: locked.Quantity, Delta: delta, Clamped: clamped}
			return next, nil
		})
		if errors.Is(err, errStaleResolution) || errors.Is(err, ErrItemNotFound) {
			s.logger.Debug("stock adjustment target changed, resolving again", "identifier", code, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, s.translate("adjust stock", err)
		}

		adj.Item = *item
		return &adj, nil
	}
	return nil, apperrors.NotFound("no item with RFID tag or SKU " + code)
}

// applyDelta computes the stored quantity for current+delta.
func applyDelta(current, delta int) (next int, clamped bool, err error) {
	if delta < 0 && current == 0 {
		return 0, false, apperrors.New(apperrors.ErrInsufficientStock, "insufficient stock: quantity is already 0")
	}
	if delta > 0 && current > math.MaxInt32-delta {
		return 0, false, apperrors.Validation("delta would overflow the stored quantity")
	}
	next = current + delta
	if next < 0 {
		return 0, true, nil
	}
	return next, false, nil
}

func validateInput(in ItemInput) (ItemFields, error) {
	name := strings.TrimSpace(in.Name)
	sku := NormalizeCode(in.SKU)
	if name == "" || sku == "" || in.Quantity == nil || in.MinimumStock == nil {
		return ItemFields{}, apperrors.Validation("name, quantity, sku and minimumStock are required")
	}
	if *in.Quantity < 0 || *in.MinimumStock < 0 {
		return ItemFields{}, apperrors.Validation("quantity and minimumStock must be 0 or greater")
	}
	if *in.Quantity > math.MaxInt32 || *in.MinimumStock > math.MaxInt32 {
		return ItemFields{}, apperrors.Validation("quantity and minimumStock are out of range")
	}
	if len(name) > 255 || len(sku) > 64 {
		return ItemFields{}, apperrors.Validation("name or sku is too long")
	}

	fields := ItemFields{
		Name:         name,
		Quantity:     *in.Quantity,
		SKU:          sku,
		MinimumStock: *in.MinimumStock,
	}
	if in.Tag != nil {
		if tag := NormalizeCode(*in.Tag); tag != "" {
			if len(tag) > 128 {
				return ItemFields{}, apperrors.Validation("tag is too long")
			}
			fields.Tag = &tag
		}
	}
	return fields, nil
}

// translate maps repository errors into the API taxonomy. Anything unknown is
// logged here and passed on as an internal error.
func (s *Service) translate(op string, err error) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, ErrItemNotFound):
		return apperrors.NotFound("item not found")
	case errors.Is(err, ErrDuplicateSKU):
		return apperrors.Conflict("sku already exists")
	case errors.Is(err, ErrDuplicateTag):
		return apperrors.Conflict("rfid tag already exists")
	case errors.Is(err, ErrQuantityOutOfRange):
		return apperrors.Validation("quantity and minimumStock must be 0 or greater")
	default:
		return s.internal(op, err)
	}
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("inventory storage failure", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}
