// Package memory реализует store.Store в памяти процесса.
// Используется в тестах и при локальном запуске без PostgreSQL.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/magabrotheeeer/coach-portal/internal/store"
)

// Storage хранит документы в карте коллекция → идентификатор → поля.
type Storage struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{docs: make(map[string]map[string]map[string]any)}
}

// Get читает документ.
func (s *Storage) Get(ctx context.Context, p store.Path) (store.Document, error) {
	const op = "memory.Get"
	if err := check(ctx, p); err != nil {
		return store.Document{}, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[p.Collection()][p.ID()]
	if !ok {
		return store.Document{}, fmt.Errorf("%s: %s: %w", op, p, store.ErrNotFound)
	}
	return store.Document{Path: clonePath(p), Data: clone(data)}, nil
}

// Set записывает документ целиком.
func (s *Storage) Set(ctx context.Context, p store.Path, data map[string]any) error {
	return s.Commit(ctx, store.SetWrite(p, data))
}

// Merge сливает поля верхнего уровня.
func (s *Storage) Merge(ctx context.Context, p store.Path, data map[string]any) error {
	return s.Commit(ctx, store.MergeWrite(p, data))
}

// Delete удаляет документ.
func (s *Storage) Delete(ctx context.Context, p store.Path) error {
	return s.Commit(ctx, store.DeleteWrite(p))
}

// Query читает документы коллекции.
func (s *Storage) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	const op = "memory.Query"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	coll := s.docs[q.Collection]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	docs := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, store.Document{
			Path: splitCollection(q.Collection, id),
			Data: clone(coll[id]),
		})
	}
	s.mu.RUnlock()

	return q.Apply(docs), nil
}

// Commit применяет записи под одной блокировкой: либо все, либо ни одной.
func (s *Storage) Commit(ctx context.Context, writes ...store.Write) error {
	const op = "memory.Commit"
	for _, w := range writes {
		if err := check(ctx, w.Path); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	prepared := make([]map[string]any, len(writes))
	for i, w := range writes {
		if w.Kind == store.WriteDelete {
			continue
		}
		data, err := encode(w.Data)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", op, w.Path, err)
		}
		prepared[i] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range writes {
		coll, id := w.Path.Collection(), w.Path.ID()
		switch w.Kind {
		case store.WriteDelete:
			delete(s.docs[coll], id)
		case store.WriteSet:
			s.collection(coll)[id] = prepared[i]
		case store.WriteMerge:
			existing, ok := s.collection(coll)[id]
			if !ok {
				existing = make(map[string]any, len(prepared[i]))
			}
			for k, v := range prepared[i] {
				existing[k] = v
			}
			s.docs[coll][id] = existing
		}
	}
	return nil
}

func (s *Storage) collection(name string) map[string]map[string]any {
	coll, ok := s.docs[name]
	if !ok {
		coll = make(map[string]map[string]any)
		s.docs[name] = coll
	}
	return coll
}

func check(ctx context.Context, p store.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.Valid() {
		return fmt.Errorf("%q: %w", p.String(), store.ErrInvalidPath)
	}
	return nil
}

// clone копирует уже сохранённые данные.
func clone(data map[string]any) map[string]any {
	out, err := encode(data)
	if err != nil {
		return map[string]any{}
	}
	return out
}

// encode копирует данные через JSON, чтобы вызывающий код не делил
// состояние с хранилищем и видел те же типы, что и после PostgreSQL.
func encode(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func clonePath(p store.Path) store.Path {
	return append(store.Path(nil), p...)
}

func splitCollection(collection, id string) store.Path {
	return append(store.Path(strings.Split(collection, "/")), id)
}
