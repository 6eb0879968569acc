package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"stockgate/internal/database"
	"stockgate/internal/logging"
	"stockgate/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresRepository connects to TEST_DATABASE_DSN and empties the
// inventory table. Tests using it are skipped when the variable is unset.
func newPostgresRepository(t *testing.T) *GormRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec("TRUNCATE inventory_items RESTART IDENTITY").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormRepository(db, logging.Discard())
}

func TestGormRepositoryUniqueness(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	tag := "RF-1"
	if _, err := repo.Create(ctx, ItemFields{Name: "A", SKU: "A-1", Tag: &tag}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, ItemFields{Name: "B", SKU: "A-1"}); !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}
	if _, err := repo.Create(ctx, ItemFields{Name: "C", SKU: "C-1", Tag: &tag}); !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("expected ErrDuplicateTag, got %v", err)
	}
	// Untagged items do not collide with each other.
	if _, err := repo.Create(ctx, ItemFields{Name: "D", SKU: "D-1"}); err != nil {
		t.Fatalf("create untagged: %v", err)
	}
	if _, err := repo.Create(ctx, ItemFields{Name: "E", SKU: "E-1"}); err != nil {
		t.Fatalf("create second untagged: %v", err)
	}
}

func TestGormRepositoryDeleteReturnsRow(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	item, err := repo.Create(ctx, ItemFields{Name: "Gone", SKU: "G-1", Quantity: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	deleted, err := repo.Delete(ctx, item.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.SKU != "G-1" || deleted.Quantity != 4 {
		t.Fatalf("unexpected deleted row: %+v", deleted)
	}
	if _, err := repo.Delete(ctx, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestGormRepositoryConcurrentModifyQuantity(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	item, err := repo.Create(ctx, ItemFields{Name: "Counter", SKU: "CNT-1", Quantity: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ModifyQuantity(ctx, item.ID, func(locked models.InventoryItem, _ TagLookup) (int, error) {
				return locked.Quantity + 1, nil
			})
			if err != nil {
				t.Errorf("modify: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := repo.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Quantity != 5+workers {
		t.Fatalf("expected %d, got %d", 5+workers, stored.Quantity)
	}
}

func TestGormRepositoryUpdate(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	tag := "RF-A"
	a, err := repo.Create(ctx, ItemFields{Name: "A", SKU: "A-1", Quantity: 1, Tag: &tag})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := repo.Create(ctx, ItemFields{Name: "B", SKU: "B-1", Quantity: 2})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if _, err := repo.Update(ctx, b.ID, ItemFields{Name: "B", SKU: "A-1", Quantity: 2}); !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}
	if _, err := repo.Update(ctx, b.ID, ItemFields{Name: "B", SKU: "B-1", Quantity: 2, Tag: &tag}); !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("expected ErrDuplicateTag, got %v", err)
	}
	if _, err := repo.Update(ctx, 999999, ItemFields{Name: "Z", SKU: "Z-1"}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	// Rewriting an item with its own SKU and tag is not a conflict.
	updated, err := repo.Update(ctx, a.ID, ItemFields{Name: "A2", SKU: "A-1", Quantity: 7, MinimumStock: 3, Tag: &tag})
	if err != nil {
		t.Fatalf("update a: %v", err)
	}
	if updated.Name != "A2" || updated.Quantity != 7 || !updated.HasTag("RF-A") {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	stored, err := repo.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if stored.SKU != "B-1" || stored.Tag != nil {
		t.Fatalf("failed updates changed b: %+v", stored)
	}
}

func TestTranslateWriteError(t *testing.T) {
	var buf bytes.Buffer
	repo := NewGormRepository(nil, logging.NewWithWriter(&buf, "debug"))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"tag index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_inventory_items_rfid_tag"}, ErrDuplicateTag},
		{"sku index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_inventory_items_sku"}, ErrDuplicateSKU},
		{"wrapped", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_inventory_items_rfid_tag"}), ErrDuplicateTag},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "chk_inventory_items_quantity"}, ErrQuantityOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repo.translateWriteError("update", tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	other := errors.New("connection reset")
	if got := repo.translateWriteError("update", other); got != other {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
	if !strings.Contains(buf.String(), "idx_inventory_items_rfid_tag") {
		t.Fatalf("expected the constraint name in the debug log, got %s", buf.String())
	}
}
