package docstore

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
)

// MemoryStore implementa Store en memoria. Los valores se normalizan a su
// representación JSON, de modo que la igualdad de RemoveFromArray replica
// la coincidencia por valor completo del almacén real.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore crea un almacén vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func (m *MemoryStore) Get(ctx context.Context, path string, out any) error {
	if _, _, err := SplitPath(path); err != nil {
		return err
	}

	m.mu.RLock()
	doc, ok := m.docs[path]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *MemoryStore) Set(ctx context.Context, path string, value any) error {
	if _, _, err := SplitPath(path); err != nil {
		return err
	}

	norm, err := normalize(value)
	if err != nil {
		return err
	}
	doc, ok := norm.(map[string]any)
	if !ok {
		doc = map[string]any{}
	}

	m.mu.Lock()
	m.docs[path] = doc
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		return ErrNotFound
	}
	for key, value := range fields {
		norm, err := normalize(value)
		if err != nil {
			return err
		}
		doc[key] = norm
	}
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, path string) (bool, error) {
	if _, _, err := SplitPath(path); err != nil {
		return false, err
	}

	m.mu.RLock()
	_, ok := m.docs[path]
	m.mu.RUnlock()
	return ok, nil
}

func (m *MemoryStore) AddToArray(ctx context.Context, path, field string, value any) error {
	norm, err := normalize(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		return ErrNotFound
	}
	arr, _ := doc[field].([]any)
	doc[field] = append(arr, norm)
	return nil
}

func (m *MemoryStore) RemoveFromArray(ctx context.Context, path, field string, value any) (bool, error) {
	norm, err := normalize(value)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		return false, ErrNotFound
	}
	arr, _ := doc[field].([]any)

	removed := false
	kept := arr[:0]
	for _, elem := range arr {
		if !removed && reflect.DeepEqual(elem, norm) {
			removed = true
			continue
		}
		kept = append(kept, elem)
	}
	doc[field] = kept
	return removed, nil
}

// normalize reduce cualquier valor a mapas, slices y escalares JSON.
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
