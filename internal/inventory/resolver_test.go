package inventory

import (
	"context"
	"errors"
	"testing"

	"stockgate/internal/apperrors"
	"stockgate/internal/models"
)

func TestResolver(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	tagA := "SHARED"
	a, _ := repo.Create(ctx, ItemFields{Name: "A", SKU: "A-1", Tag: &tagA})
	_, _ = repo.Create(ctx, ItemFields{Name: "B", SKU: "SHARED"})
	tagC := "RF-C"
	c, _ := repo.Create(ctx, ItemFields{Name: "C", SKU: "C-1", Tag: &tagC})

	r := NewResolver(repo)
	tests := []struct {
		name   string
		input  string
		wantID uint
	}{
		{"tag wins over another item's sku", "shared", a.ID},
		{"tag", " rf-c ", c.ID},
		{"sku fallback", "c-1", c.ID},
		{"sku only", "A-1", a.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				item, err := r.Resolve(ctx, tt.input)
				if err != nil {
					t.Fatalf("resolve %q: %v", tt.input, err)
				}
				if item.ID != tt.wantID {
					t.Fatalf("resolve %q = item %d, want %d", tt.input, item.ID, tt.wantID)
				}
			}
		})
	}

	if _, err := r.Resolve(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := r.Resolve(ctx, "   "); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type failingRepo struct {
	Repository
	err error
}

func (f failingRepo) FindByTag(context.Context, string) (*models.InventoryItem, error) {
	return nil, f.err
}

func TestResolverPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(failingRepo{Repository: NewMemoryRepository(), err: boom})
	if _, err := r.Resolve(context.Background(), "X"); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
