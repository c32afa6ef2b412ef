// Package postgres реализует store.Store поверх PostgreSQL.
//
// Все документы лежат в одной таблице documents(collection, doc_id, data jsonb).
// Фильтры равенства выполняются в базе через оператор @>, диапазоны и
// сортировка - на стороне приложения, потому что даты в документах хранятся
// в разных представлениях и единого SQL-выражения для их упорядочивания нет.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/magabrotheeeer/coach-portal/internal/store"
)

const (
	querySet = `INSERT INTO documents (collection, doc_id, data, updated_at)
			  VALUES ($1, $2, $3::jsonb, NOW())
			  ON CONFLICT (collection, doc_id)
			  DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	queryMerge = `INSERT INTO documents (collection, doc_id, data, updated_at)
			  VALUES ($1, $2, $3::jsonb, NOW())
			  ON CONFLICT (collection, doc_id)
			  DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	queryDelete = `DELETE FROM documents WHERE collection = $1 AND doc_id = $2`
)

// Storage хранит пул соединений с PostgreSQL.
type Storage struct {
	pool *pgxpool.Pool
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// New подключается к PostgreSQL и проверяет соединение.
func New(ctx context.Context, connString string) (*Storage, error) {
	const op = "postgres.New"

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{pool: pool}, nil
}

// Pool возвращает пул соединений, например для миграций.
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает пул.
func (s *Storage) Close() {
	s.pool.Close()
}

// Get читает документ по пути.
func (s *Storage) Get(ctx context.Context, p store.Path) (store.Document, error) {
	const op = "postgres.Get"
	if !p.Valid() {
		return store.Document{}, fmt.Errorf("%s: %q: %w", op, p.String(), store.ErrInvalidPath)
	}

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND doc_id = $2`,
		p.Collection(), p.ID()).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Document{}, fmt.Errorf("%s: %s: %w", op, p, store.ErrNotFound)
		}
		return store.Document{}, fmt.Errorf("%s: %w", op, err)
	}
	data, err := decode(raw)
	if err != nil {
		return store.Document{}, fmt.Errorf("%s: %s: %w", op, p, err)
	}
	return store.Document{Path: p, Data: data}, nil
}

// Set записывает документ целиком.
func (s *Storage) Set(ctx context.Context, p store.Path, data map[string]any) error {
	const op = "postgres.Set"
	if err := apply(ctx, s.pool, store.SetWrite(p, data)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Merge сливает поля верхнего уровня с документом.
func (s *Storage) Merge(ctx context.Context, p store.Path, data map[string]any) error {
	const op = "postgres.Merge"
	if err := apply(ctx, s.pool, store.MergeWrite(p, data)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет документ.
func (s *Storage) Delete(ctx context.Context, p store.Path) error {
	const op = "postgres.Delete"
	if err := apply(ctx, s.pool, store.DeleteWrite(p)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Query читает документы коллекции.
func (s *Storage) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	const op = "postgres.Query"

	sql := `SELECT doc_id, data FROM documents WHERE collection = $1`
	args := []any{q.Collection}

	eq := make(map[string]any)
	for _, f := range q.Filters {
		if f.Op == store.OpEq {
			eq[f.Field] = f.Value
		}
	}
	if len(eq) > 0 {
		contains, err := containment(eq)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sql += ` AND data @> $2::jsonb`
		args = append(args, contains)
	}
	sql += ` ORDER BY doc_id`

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		data, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %s/%s: %w", op, q.Collection, id, err)
		}
		docs = append(docs, store.Document{Path: docPath(q.Collection, id), Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return q.Apply(docs), nil
}

// Commit применяет записи в одной транзакции.
func (s *Storage) Commit(ctx context.Context, writes ...store.Write) (err error) {
	const op = "postgres.Commit"

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, w := range writes {
		if err = apply(ctx, tx, w); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func apply(ctx context.Context, db execer, w store.Write) error {
	if !w.Path.Valid() {
		return fmt.Errorf("%q: %w", w.Path.String(), store.ErrInvalidPath)
	}
	if w.Kind == store.WriteDelete {
		_, err := db.Exec(ctx, queryDelete, w.Path.Collection(), w.Path.ID())
		return err
	}

	data := w.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%s: %w", w.Path, err)
	}
	query := querySet
	if w.Kind == store.WriteMerge {
		query = queryMerge
	}
	_, err = db.Exec(ctx, query, w.Path.Collection(), w.Path.ID(), string(raw))
	return err
}

// containment строит JSON для оператора @> с учётом вложенных полей.
func containment(eq map[string]any) (string, error) {
	root := make(map[string]any)
	for field, value := range eq {
		cur := root
		parts := strings.Split(field, ".")
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = value
	}
	raw, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decode(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func docPath(collection, id string) store.Path {
	return append(store.Path(strings.Split(collection, "/")), id)
}
