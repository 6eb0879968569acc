package inventory

import (
	"context"
	"errors"

	"stockgate/internal/models"
)

var (
	ErrItemNotFound = errors.New("inventory item not found")
	ErrDuplicateSKU = errors.New("sku already exists")
	ErrDuplicateTag = errors.New("rfid tag already exists")

	// ErrQuantityOutOfRange reports a write rejected by a storage range constraint.
	ErrQuantityOutOfRange = errors.New("quantity out of range")
)

// ItemFields is the full, already validated and normalized set of writable
// fields of an item.
type ItemFields struct {
	Name         string
	Quantity     int
	SKU          string
	MinimumStock int
	Tag          *string
}

func (f ItemFields) apply(item *models.InventoryItem) {
	item.Name = f.Name
	item.Quantity = f.Quantity
	item.SKU = f.SKU
	item.MinimumStock = f.MinimumStock
	item.Tag = f.Tag
}

// TagLookup finds the item carrying a normalized tag, reading in the same
// transaction as the held row lock. Missing tags give ErrItemNotFound.
type TagLookup func(tag string) (*models.InventoryItem, error)

// QuantityFunc receives the locked item and returns the quantity to store.
// Returning an error aborts the write.
type QuantityFunc func(item models.InventoryItem, byTag TagLookup) (int, error)

// Repository stores inventory items. Implementations enforce SKU and tag
// uniqueness at the storage layer (ErrDuplicateSKU, ErrDuplicateTag) and
// report missing rows as ErrItemNotFound.
type Repository interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	Get(ctx context.Context, id uint) (*models.InventoryItem, error)
	FindByTag(ctx context.Context, tag string) (*models.InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)
	Create(ctx context.Context, fields ItemFields) (*models.InventoryItem, error)
	// Update replaces all writable fields while holding the item's lock.
	Update(ctx context.Context, id uint, fields ItemFields) (*models.InventoryItem, error)
	Delete(ctx context.Context, id uint) (*models.InventoryItem, error)
	// ModifyQuantity holds an exclusive lock on one item for the whole
	// read-modify-write; other items are not blocked.
	ModifyQuantity(ctx context.Context, id uint, fn QuantityFunc) (*models.InventoryItem, error)
}
