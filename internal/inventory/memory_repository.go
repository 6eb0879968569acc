package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockgate/internal/models"
)

// MemoryRepository is an in-process Repository. Index maps are only changed
// under mu together with the row they point at; per-item mutexes give the
// row lock that ModifyQuantity and Update need. Lock order is item lock, then mu.
type MemoryRepository struct {
	mu     sync.RWMutex
	items  map[uint]models.InventoryItem
	bySKU  map[string]uint
	byTag  map[string]uint
	nextID uint

	rowLocks sync.Map // uint -> *sync.Mutex
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[uint]models.InventoryItem),
		bySKU: make(map[string]uint),
		byTag: make(map[string]uint),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) rowLock(id uint) *sync.Mutex {
	l, _ := r.rowLocks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, cloneItem(item))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(id)
}

func (r *MemoryRepository) FindByTag(ctx context.Context, tag string) (*models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTag[tag]
	if !ok {
		return nil, ErrItemNotFound
	}
	return r.getLocked(id)
}

func (r *MemoryRepository) FindBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySKU[sku]
	if !ok {
		return nil, ErrItemNotFound
	}
	return r.getLocked(id)
}

func (r *MemoryRepository) Create(ctx context.Context, fields ItemFields) (*models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniqueLocked(0, fields); err != nil {
		return nil, err
	}

	r.nextID++
	now := r.now()
	item := models.InventoryItem{ID: r.nextID, CreatedAt: now, UpdatedAt: now}
	fields.apply(&item)
	item = cloneItem(item)

	r.items[item.ID] = item
	r.indexLocked(item)
	out := cloneItem(item)
	return &out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uint, fields ItemFields) (*models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.rowLock(id)
	row.Lock()
	defer row.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	if err := r.checkUniqueLocked(id, fields); err != nil {
		return nil, err
	}

	r.unindexLocked(current)
	updated := current
	fields.apply(&updated)
	updated = cloneItem(updated)
	updated.UpdatedAt = r.now()
	r.items[id] = updated
	r.indexLocked(updated)

	out := cloneItem(updated)
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uint) (*models.InventoryItem, error) {
	row := r.rowLock(id)
	row.Lock()
	defer row.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	delete(r.items, id)
	r.unindexLocked(item)
	// ids are never reused, so a goroutine still waiting on the old mutex
	// will find the row gone.
	r.rowLocks.Delete(id)

	out := cloneItem(item)
	return &out, nil
}

func (r *MemoryRepository) ModifyQuantity(ctx context.Context, id uint, fn QuantityFunc) (*models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.rowLock(id)
	row.Lock()
	defer row.Unlock()

	r.mu.RLock()
	current, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrItemNotFound
	}

	byTag := func(tag string) (*models.InventoryItem, error) { return r.FindByTag(ctx, tag) }
	next, err := fn(cloneItem(current), byTag)
	if err != nil {
		return nil, err
	}
	if next == current.Quantity {
		out := cloneItem(current)
		return &out, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	stored.Quantity = next
	stored.UpdatedAt = r.now()
	r.items[id] = stored

	out := cloneItem(stored)
	return &out, nil
}

func (r *MemoryRepository) getLocked(id uint) (*models.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	out := cloneItem(item)
	return &out, nil
}

// checkUniqueLocked ignores collisions with the item being updated (selfID).
func (r *MemoryRepository) checkUniqueLocked(selfID uint, fields ItemFields) error {
	if id, ok := r.bySKU[fields.SKU]; ok && id != selfID {
		return ErrDuplicateSKU
	}
	if fields.Tag != nil {
		if id, ok := r.byTag[*fields.Tag]; ok && id != selfID {
			return ErrDuplicateTag
		}
	}
	return nil
}

func (r *MemoryRepository) indexLocked(item models.InventoryItem) {
	r.bySKU[item.SKU] = item.ID
	if item.Tag != nil {
		r.byTag[*item.Tag] = item.ID
	}
}

func (r *MemoryRepository) unindexLocked(item models.InventoryItem) {
	delete(r.bySKU, item.SKU)
	if item.Tag != nil {
		delete(r.byTag, *item.Tag)
	}
}

func cloneItem(item models.InventoryItem) models.InventoryItem {
	if item.Tag != nil {
		tag := *item.Tag
		item.Tag = &tag
	}
	return item
}
