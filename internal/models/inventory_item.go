package models

import "time"

// InventoryItem is a stock keeping record. SKU and Tag are stored upper-cased.
type InventoryItem struct {
	ID           uint    `gorm:"primaryKey"`
	Name         string  `gorm:"size:255;not null"`
	Quantity     int     `gorm:"not null;default:0;check:chk_inventory_items_quantity,quantity >= 0"`
	SKU          string  `gorm:"column:sku;size:64;not null;uniqueIndex:idx_inventory_items_sku"`
	MinimumStock int     `gorm:"column:minimum_stock;not null;default:0;check:chk_inventory_items_minimum_stock,minimum_stock >= 0"`
	Tag          *string `gorm:"column:rfid_tag;size:128;uniqueIndex:idx_inventory_items_rfid_tag"` // NULLs never collide
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LowStock is derived, never stored.
func (i InventoryItem) LowStock() bool {
	return i.Quantity < i.MinimumStock
}

// HasTag reports whether the item carries the given normalized tag.
func (i InventoryItem) HasTag(tag string) bool {
	return i.Tag != nil && *i.Tag == tag
}
