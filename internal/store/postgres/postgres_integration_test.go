package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/coach-portal/internal/migrations"
	"github.com/magabrotheeeer/coach-portal/internal/store"
)

func setupStorage(t *testing.T) *Storage {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("portal"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.RunPool(s.Pool(), path))
	return s
}

func TestStorage_Integration(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()
	client := store.Doc("clients", "c1")

	require.NoError(t, s.Ping(ctx))

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, store.Doc("clients", "nope"))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set and merge", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, client, map[string]any{"name": "Ana", "isPaymentExempt": false}))
		require.NoError(t, s.Merge(ctx, client, map[string]any{"status": "pending"}))

		doc, err := s.Get(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, "Ana", doc.Data["name"])
		assert.Equal(t, "pending", doc.Data["status"])
	})

	t.Run("commit is atomic", func(t *testing.T) {
		err := s.Commit(ctx,
			store.SetWrite(client.Child("payments", "p1"), map[string]any{"date": "2024-01-01"}),
			store.SetWrite(store.Doc("broken"), map[string]any{}),
		)
		require.Error(t, err)

		_, err = s.Get(ctx, client.Child("payments", "p1"))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("query with equality and ordering", func(t *testing.T) {
		require.NoError(t, s.Commit(ctx,
			store.SetWrite(store.Doc("feedback", "f1"), map[string]any{"clientId": "c1", "date": "2024-03-02"}),
			store.SetWrite(store.Doc("feedback", "f2"), map[string]any{"clientId": "c1", "date": map[string]any{"seconds": 1709251200, "nanoseconds": 0}}),
			store.SetWrite(store.Doc("feedback", "f3"), map[string]any{"clientId": "c2", "date": "2024-01-01"}),
		))

		docs, err := s.Query(ctx, store.Query{
			Collection: "feedback",
			Filters:    []store.Filter{store.Eq("clientId", "c1")},
			OrderBy:    "date",
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "f2", docs[0].ID())
		assert.Equal(t, "f1", docs[1].ID())
		assert.Equal(t, store.Doc("feedback", "f2"), docs[0].Path)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, store.Doc("feedback", "f3")))
		_, err := s.Get(ctx, store.Doc("feedback", "f3"))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
