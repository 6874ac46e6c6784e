package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

// Repository implements theatre.Repository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*theatre.Item
	meta   map[uuid.UUID]theatre.Metadata
	seq    map[uuid.UUID]int64 // insertion order, breaks created_at ties
	next   int64
	bySlug map[string]uuid.UUID // "kind:slug" -> item_id
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		items:  make(map[uuid.UUID]*theatre.Item),
		meta:   make(map[uuid.UUID]theatre.Metadata),
		seq:    make(map[uuid.UUID]int64),
		bySlug: make(map[string]uuid.UUID),
	}
}

func slugKey(kind theatre.Kind, slug string) string {
	return fmt.Sprintf("%s:%s", kind, slug)
}

func copyItem(item *theatre.Item) *theatre.Item {
	c := *item
	if item.ThumbnailID != nil {
		thumb := *item.ThumbnailID
		c.ThumbnailID = &thumb
	}
	return &c
}

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *theatre.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("item %s already exists", item.ID)
	}
	key := slugKey(item.Kind, item.Slug)
	if _, taken := r.bySlug[key]; taken && item.Slug != "" {
		return fmt.Errorf("slug %q already used by another %s", item.Slug, item.Kind)
	}

	r.items[item.ID] = copyItem(item)
	r.next++
	r.seq[item.ID] = r.next
	if item.Slug != "" {
		r.bySlug[key] = item.ID
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*theatre.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, theatre.ErrNotFound
	}
	return copyItem(item), nil
}

func (r *Repository) GetItemBySlug(ctx context.Context, kind theatre.Kind, slug string) (*theatre.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.bySlug[slugKey(kind, slug)]
	if !exists {
		return nil, theatre.ErrNotFound
	}
	return copyItem(r.items[id]), nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *theatre.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.items[item.ID]
	if !exists {
		return theatre.ErrNotFound
	}
	if existing.Slug != item.Slug || existing.Kind != item.Kind {
		key := slugKey(item.Kind, item.Slug)
		if owner, taken := r.bySlug[key]; taken && owner != item.ID {
			return fmt.Errorf("slug %q already used by another %s", item.Slug, item.Kind)
		}
		delete(r.bySlug, slugKey(existing.Kind, existing.Slug))
		r.bySlug[key] = item.ID
	}
	r.items[item.ID] = copyItem(item)
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return theatre.ErrNotFound
	}
	delete(r.bySlug, slugKey(item.Kind, item.Slug))
	delete(r.items, id)
	delete(r.meta, id)
	delete(r.seq, id)
	return nil
}

func (r *Repository) ListItems(ctx context.Context, query theatre.ItemQuery) ([]*theatre.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*theatre.Item
	for id, item := range r.items {
		if len(query.Kinds) > 0 && !slices.Contains(query.Kinds, item.Kind) {
			continue
		}
		if len(query.Statuses) > 0 && !slices.Contains(query.Statuses, item.Status) {
			continue
		}
		if query.Slug != "" && item.Slug != query.Slug {
			continue
		}
		if query.MetaKey != "" && !slices.Contains(r.meta[id].Values(query.MetaKey), query.MetaValue) {
			continue
		}
		result = append(result, copyItem(item))
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.seq[a.ID] > r.seq[b.ID]
	})

	if query.Offset > 0 {
		if query.Offset >= len(result) {
			return []*theatre.Item{}, nil
		}
		result = result[query.Offset:]
	}
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

// Metadata operations

func (r *Repository) AddMeta(ctx context.Context, itemID uuid.UUID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[itemID]; !exists {
		return theatre.ErrNotFound
	}
	r.meta[itemID] = append(r.meta[itemID], theatre.MetaEntry{Key: key, Value: value})
	return nil
}

func (r *Repository) SetMeta(ctx context.Context, itemID uuid.UUID, key string, values ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[itemID]; !exists {
		return theatre.ErrNotFound
	}
	kept := slices.DeleteFunc(slices.Clone(r.meta[itemID]), func(e theatre.MetaEntry) bool {
		return e.Key == key
	})
	for _, v := range values {
		kept = append(kept, theatre.MetaEntry{Key: key, Value: v})
	}
	r.meta[itemID] = kept
	return nil
}

func (r *Repository) GetMeta(ctx context.Context, itemID uuid.UUID) (theatre.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.items[itemID]; !exists {
		return nil, theatre.ErrNotFound
	}
	return append(theatre.Metadata{}, r.meta[itemID]...), nil
}

var _ theatre.Repository = (*Repository)(nil)
