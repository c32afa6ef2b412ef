// Package store описывает документное хранилище записей портала.
//
// Документ адресуется путём из чередующихся сегментов коллекция/документ,
// например clients/c1/payments/p1. Хранилище поддерживает чтение по пути,
// запись и слияние полей, удаление, запросы по коллекции с фильтрами,
// сортировкой и лимитом, а также пакетную запись Commit.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound возвращается, если документ по пути отсутствует.
var ErrNotFound = errors.New("document not found")

// ErrInvalidPath возвращается для пути с нечётным числом сегментов.
var ErrInvalidPath = errors.New("invalid document path")

// Path - путь документа.
type Path []string

// Doc собирает путь документа из сегментов.
func Doc(segments ...string) Path {
	return Path(segments)
}

// Valid проверяет, что путь указывает на документ.
func (p Path) Valid() bool {
	if len(p) == 0 || len(p)%2 != 0 {
		return false
	}
	for _, s := range p {
		if s == "" || strings.Contains(s, "/") {
			return false
		}
	}
	return true
}

// Collection возвращает путь коллекции, которой принадлежит документ.
func (p Path) Collection() string {
	if len(p) == 0 {
		return ""
	}
	return strings.Join(p[:len(p)-1], "/")
}

// ID возвращает идентификатор документа.
func (p Path) ID() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Child возвращает путь документа во вложенной коллекции.
func (p Path) Child(collection, id string) Path {
	out := make(Path, 0, len(p)+2)
	out = append(out, p...)
	return append(out, collection, id)
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Collection собирает путь коллекции из сегментов.
func Collection(segments ...string) string {
	return strings.Join(segments, "/")
}

// Document - прочитанный документ.
type Document struct {
	Path Path
	Data map[string]any
}

// ID возвращает идентификатор документа.
func (d Document) ID() string {
	return d.Path.ID()
}

// Decode раскладывает данные документа в структуру.
func (d Document) Decode(v any) error {
	const op = "store.Document.Decode"
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %s: %w", op, d.Path, err)
	}
	return nil
}

// Encode превращает структуру в набор полей документа.
func Encode(v any) (map[string]any, error) {
	const op = "store.Encode"
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// WriteKind вид операции в пакетной записи.
type WriteKind int

const (
	// WriteSet полностью заменяет документ.
	WriteSet WriteKind = iota
	// WriteMerge сливает поля верхнего уровня с существующим документом.
	WriteMerge
	// WriteDelete удаляет документ.
	WriteDelete
)

// Write - одна операция пакетной записи.
type Write struct {
	Kind WriteKind
	Path Path
	Data map[string]any
}

// SetWrite заменяет документ целиком.
func SetWrite(p Path, data map[string]any) Write {
	return Write{Kind: WriteSet, Path: p, Data: data}
}

// MergeWrite сливает поля с документом, создавая его при отсутствии.
func MergeWrite(p Path, data map[string]any) Write {
	return Write{Kind: WriteMerge, Path: p, Data: data}
}

// DeleteWrite удаляет документ.
func DeleteWrite(p Path) Write {
	return Write{Kind: WriteDelete, Path: p}
}

// Store - документное хранилище.
type Store interface {
	// Get читает документ; ErrNotFound, если его нет.
	Get(ctx context.Context, p Path) (Document, error)
	// Set записывает документ целиком.
	Set(ctx context.Context, p Path, data map[string]any) error
	// Merge сливает поля верхнего уровня с документом.
	Merge(ctx context.Context, p Path, data map[string]any) error
	// Delete удаляет документ. Отсутствие документа ошибкой не считается.
	Delete(ctx context.Context, p Path) error
	// Query читает документы коллекции.
	Query(ctx context.Context, q Query) ([]Document, error)
	// Commit применяет набор записей; атомарно, если бэкенд это поддерживает.
	Commit(ctx context.Context, writes ...Write) error
}
