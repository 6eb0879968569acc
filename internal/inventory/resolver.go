package inventory

import (
	"context"
	"errors"
	"strings"

	"stockgate/internal/apperrors"
	"stockgate/internal/models"
)

// NormalizeCode trims and upper-cases a SKU or RFID tag.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolver maps a scanned identifier to exactly one item: an RFID tag match
// first, a SKU match only when no tag matches.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) Resolve(ctx context.Context, identifier string) (*models.InventoryItem, error) {
	code := NormalizeCode(identifier)
	if code == "" {
		return nil, apperrors.Validation("tag is required")
	}

	item, err := r.repo.FindByTag(ctx, code)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}

	item, err = r.repo.FindBySKU(ctx, code)
	if err == nil {
		return item, nil
	}
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NotFound("no item with RFID tag or SKU " + code)
	}
	return nil, err
}
