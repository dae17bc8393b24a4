package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process document store used in tests and for local
// development without external dependencies.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]json.RawMessage)}
}

// Put stores the document at path.
func (m *Memory) Put(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("store put", err)
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return wrapErr("store put", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = doc
	return nil
}

// PutIfAbsent stores the document at path unless one already exists.
func (m *Memory) PutIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, wrapErr("store put", err)
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return false, wrapErr("store put", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[path]; ok {
		return false, nil
	}
	m.docs[path] = doc
	return true, nil
}

// Get fetches the document at path into out.
func (m *Memory) Get(ctx context.Context, path string, out any) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("store get", err)
	}
	m.mu.RLock()
	doc, ok := m.docs[path]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return wrapErr("store get", json.Unmarshal(doc, out))
}

// Delete removes the document at path.
func (m *Memory) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("store delete", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	return nil
}

// List decodes documents directly under prefix into out.
func (m *Memory) List(ctx context.Context, prefix string, out any) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("store list", err)
	}
	m.mu.RLock()
	var paths []string
	for path := range m.docs {
		if strings.HasPrefix(path, prefix+"/") {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	docs := make([]json.RawMessage, 0, len(paths))
	for _, path := range paths {
		docs = append(docs, m.docs[path])
	}
	m.mu.RUnlock()
	return decodeList(docs, out)
}

// Ping always succeeds.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (m *Memory) Close() {}
