package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository is an in-process Repository and ImageStore. Documents
// are kept JSON-encoded so callers never share row slices with the store.
type MemoryRepository struct {
	mu     sync.RWMutex
	sheets map[string][]byte
	images map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sheets: make(map[string][]byte),
		images: make(map[string][]byte),
	}
}

func (r *MemoryRepository) Load(_ context.Context, id string) (SheetData, error) {
	r.mu.RLock()
	raw, ok := r.sheets[id]
	r.mu.RUnlock()
	if !ok {
		return SheetData{}, ErrNotFound
	}
	var s SheetData
	if err := json.Unmarshal(raw, &s); err != nil {
		return SheetData{}, fmt.Errorf("decode sheet %s: %w", id, err)
	}
	return s, nil
}

func (r *MemoryRepository) Save(_ context.Context, s SheetData) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sheet %s: %w", s.ID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var stored int64
	prev, ok := r.sheets[s.ID]
	if !ok && s.Version != 1 {
		return ErrNotFound
	}
	if ok {
		var head struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(prev, &head); err != nil {
			return fmt.Errorf("decode sheet %s: %w", s.ID, err)
		}
		stored = head.Version
	}
	if stored != s.Version-1 {
		return &ConflictError{SheetID: s.ID, Reason: fmt.Sprintf("stale version %d, stored %d", s.Version-1, stored)}
	}
	r.sheets[s.ID] = raw
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sheets[id]; !ok {
		return ErrNotFound
	}
	delete(r.sheets, id)
	for key := range r.images {
		if len(key) > len(id) && key[:len(id)+1] == id+"/" {
			delete(r.images, key)
		}
	}
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]SheetData, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sheets))
	for id := range r.sheets {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	out := make([]SheetData, 0, len(ids))
	for _, id := range ids {
		s, err := r.Load(ctx, id)
		if err != nil {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *MemoryRepository) PutImage(_ context.Context, sheetID string, meta CapturedImage, blob []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sheets[sheetID]; !ok {
		return ErrNotFound
	}
	r.images[sheetID+"/"+meta.ID] = append([]byte(nil), blob...)
	return nil
}

func (r *MemoryRepository) DeleteImage(_ context.Context, sheetID, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, sheetID+"/"+imageID)
	return nil
}

// Image returns stored evidence bytes.
func (r *MemoryRepository) Image(sheetID, imageID string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.images[sheetID+"/"+imageID]
	return b, ok
}
