package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"stockgate/internal/database"
	"stockgate/internal/logging"
	"stockgate/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGormRepository(db *gorm.DB, logger *slog.Logger) *GormRepository {
	return &GormRepository{db: db, logger: logging.Resolve(logger)}
}

func (r *GormRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *GormRepository) FindByTag(ctx context.Context, tag string) (*models.InventoryItem, error) {
	return r.first(r.db.WithContext(ctx), "rfid_tag = ?", tag)
}

func (r *GormRepository) FindBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	return r.first(r.db.WithContext(ctx), "sku = ?", sku)
}

func (r *GormRepository) Create(ctx context.Context, fields ItemFields) (*models.InventoryItem, error) {
	var item models.InventoryItem
	fields.apply(&item)
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, r.translateWriteError("create", err)
	}
	return &item, nil
}

func (r *GormRepository) Update(ctx context.Context, id uint, fields ItemFields) (*models.InventoryItem, error) {
	var updated *models.InventoryItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := r.lockedFirst(tx, id)
		if err != nil {
			return err
		}
		fields.apply(item)
		if err := tx.Save(item).Error; err != nil {
			return r.translateWriteError("update", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormRepository) Delete(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var deleted models.InventoryItem
	res := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Delete(&deleted)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return &deleted, nil
}

// ModifyQuantity runs SELECT ... FOR UPDATE on the row, so concurrent
// adjusters of the same item queue on the row lock while other rows stay free.
func (r *GormRepository) ModifyQuantity(ctx context.Context, id uint, fn QuantityFunc) (*models.InventoryItem, error) {
	var updated *models.InventoryItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := r.lockedFirst(tx, id)
		if err != nil {
			return err
		}
		byTag := func(tag string) (*models.InventoryItem, error) {
			return r.first(tx, "rfid_tag = ?", tag)
		}
		next, err := fn(*item, byTag)
		if err != nil {
			return err
		}
		if next == item.Quantity {
			updated = item
			return nil
		}
		item.Quantity = next
		if err := tx.Model(item).Update("quantity", next).Error; err != nil {
			return r.translateWriteError("modify quantity", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormRepository) lockedFirst(tx *gorm.DB, id uint) (*models.InventoryItem, error) {
	return r.first(tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), "id = ?", id)
}

func (r *GormRepository) first(q *gorm.DB, query string, args ...any) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := q.Where(query, args...).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// translateWriteError maps constraint violations to repository sentinels and
// passes everything else through.
func (r *GormRepository) translateWriteError(op string, err error) error {
	var constraint string
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		constraint = pgErr.ConstraintName
	}

	var out error
	switch {
	case database.IsCheckViolation(err):
		out = ErrQuantityOutOfRange
	case !database.IsUniqueViolation(err):
		return err
	case strings.Contains(constraint, "rfid_tag"):
		out = ErrDuplicateTag
	default:
		out = ErrDuplicateSKU
	}
	r.logger.Debug("inventory write rejected by constraint", "op", op, "constraint", constraint, "error", out)
	return out
}
