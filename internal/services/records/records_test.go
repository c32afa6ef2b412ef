package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/store"
	"github.com/magabrotheeeer/coach-portal/internal/store/memory"
)

var testLoc = time.FixedZone("UTC-3", -3*3600)

// flakyStore не отдаёт документы клиентов из списка broken.
type flakyStore struct {
	*memory.Storage
	broken map[string]bool
}

func (f flakyStore) Get(ctx context.Context, p store.Path) (store.Document, error) {
	if p.Collection() == "clients" && f.broken[p.ID()] {
		return store.Document{}, errors.New("permission denied")
	}
	return f.Storage.Get(ctx, p)
}

func rec(id, exercise, value string) map[string]any {
	return map[string]any{"id": id, "exercise": exercise, "value": value, "date": float64(1709251200000)}
}

func seed(t *testing.T) *memory.Storage {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.Commit(context.Background(),
		store.SetWrite(store.Doc("clients", "me"), map[string]any{"name": "Me"}),
		store.SetWrite(store.Doc("clients", "ana"), map[string]any{"name": "Ana"}),
		store.SetWrite(store.Doc("clients", "bob"), map[string]any{"name": "Bob"}),
		store.SetWrite(store.Doc(collection, "me"), map[string]any{
			"rms": []any{rec("m1", "Back Squat", "200kg")},
			"prs": []any{},
		}),
		store.SetWrite(store.Doc(collection, "ana"), map[string]any{
			"rms": []any{
				rec("a1", "back   squat", "80kg"),
				rec("a2", "  Back Squat ", "100kg"),
				rec("a3", "Back Squat", "120kg"),
			},
			"prs": []any{rec("a4", "Run 5k", "20:00")},
		}),
		store.SetWrite(store.Doc(collection, "bob"), map[string]any{
			"rms": []any{rec("b1", "Deadlift", "300kg"), rec("b2", "back squat", "failed")},
			"prs": []any{rec("b3", "run 5K", "30:00")},
		}),
		// Клиент без документа в clients.
		store.SetWrite(store.Doc(collection, "ghost"), map[string]any{
			"rms": []any{rec("g1", "Back squat", "95kg")},
		}),
		store.SetWrite(store.Doc(collection, "broken"), map[string]any{
			"rms": "not-an-array",
		}),
	))
	return st
}

func newService(st Store) *Service {
	svc := NewService(st, daykey.Keyer{
		Location: testLoc,
		Now:      func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, testLoc) },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
	return svc
}

func TestCompareAgainstPeers_RM(t *testing.T) {
	svc := newService(seed(t))

	got, err := svc.CompareAgainstPeers(context.Background(), "me",
		models.PersonalRecord{Exercise: "BACK SQUAT", Value: "90kg"}, models.KindRM)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "ana", got[0].ClientID)
	assert.Equal(t, "Ana", got[0].ClientName)
	// Берётся первая подходящая запись, а не лучшая.
	assert.Equal(t, "a2", got[0].Record.ID)
	assert.Equal(t, "ghost", got[1].ClientID)
	assert.Equal(t, "", got[1].ClientName)
}

func TestCompareAgainstPeers_PR(t *testing.T) {
	svc := newService(seed(t))

	got, err := svc.CompareAgainstPeers(context.Background(), "me",
		models.PersonalRecord{Exercise: "run 5k", Value: "25:00"}, models.KindPR)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana", got[0].ClientID)
	assert.Equal(t, "20:00", got[0].Record.Value)
}

func TestCompareAgainstPeers_Edges(t *testing.T) {
	ctx := context.Background()
	svc := newService(seed(t))

	t.Run("no numeric token", func(t *testing.T) {
		got, err := svc.CompareAgainstPeers(ctx, "me", models.PersonalRecord{Exercise: "back squat", Value: "failed"}, models.KindRM)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unparsable time", func(t *testing.T) {
		got, err := svc.CompareAgainstPeers(ctx, "me", models.PersonalRecord{Exercise: "run 5k", Value: "fast"}, models.KindPR)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("nobody better", func(t *testing.T) {
		got, err := svc.CompareAgainstPeers(ctx, "me", models.PersonalRecord{Exercise: "back squat", Value: "150kg"}, models.KindRM)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("own records excluded", func(t *testing.T) {
		got, err := svc.CompareAgainstPeers(ctx, "ana", models.PersonalRecord{Exercise: "back squat", Value: "100kg"}, models.KindRM)
		require.NoError(t, err)
		for _, c := range got {
			assert.NotEqual(t, "ana", c.ClientID)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.CompareAgainstPeers(ctx, "me", models.PersonalRecord{Value: "1"}, models.RecordKind("WOD"))
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestCompareAgainstPeers_SkipsUnreadablePeer(t *testing.T) {
	st := flakyStore{Storage: seed(t), broken: map[string]bool{"ana": true}}
	svc := newService(st)

	got, err := svc.CompareAgainstPeers(context.Background(), "me",
		models.PersonalRecord{Exercise: "back squat", Value: "90kg"}, models.KindRM)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ghost", got[0].ClientID)
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("advisory blocks without force", func(t *testing.T) {
		st := seed(t)
		svc := newService(st)
		res, err := svc.Save(ctx, "me", models.KindPR, models.RecordInput{Exercise: "Run 5K", Value: "25:00"}, false)
		require.NoError(t, err)
		assert.False(t, res.Saved)
		require.Len(t, res.Peers, 1)

		recs, err := svc.List(ctx, "me")
		require.NoError(t, err)
		assert.Empty(t, recs.PRs)
	})

	t.Run("force saves anyway", func(t *testing.T) {
		st := seed(t)
		svc := newService(st)
		res, err := svc.Save(ctx, "me", models.KindPR, models.RecordInput{Exercise: " Run 5K ", Value: "25:00", Date: "2024-03-10"}, true)
		require.NoError(t, err)
		assert.True(t, res.Saved)
		assert.Equal(t, "r1", res.Record.ID)
		assert.Equal(t, "Run 5K", res.Record.Exercise)

		recs, err := svc.List(ctx, "me")
		require.NoError(t, err)
		require.Len(t, recs.PRs, 1)
		assert.Equal(t, "2024-03-10", daykey.Keyer{Location: testLoc}.Key(recs.PRs[0].Date))
		require.Len(t, recs.RMs, 1, "rms untouched")
	})

	t.Run("clear record saved and replaced by id", func(t *testing.T) {
		st := seed(t)
		svc := newService(st)
		res, err := svc.Save(ctx, "me", models.KindRM, models.RecordInput{ID: "m1", Exercise: "Back Squat", Value: "210kg"}, false)
		require.NoError(t, err)
		assert.True(t, res.Saved)

		recs, err := svc.List(ctx, "me")
		require.NoError(t, err)
		require.Len(t, recs.RMs, 1)
		assert.Equal(t, "210kg", recs.RMs[0].Value)

		// Без даты в запросе остаётся дата исходной записи.
		stored, ok := recs.RMs[0].Date.Local(time.UTC)
		require.True(t, ok)
		assert.Equal(t, int64(1709251200000), stored.UnixMilli())
		got, ok := res.Record.Date.Local(time.UTC)
		require.True(t, ok)
		assert.Equal(t, int64(1709251200000), got.UnixMilli())
	})

	t.Run("replace by id with new date", func(t *testing.T) {
		svc := newService(seed(t))
		_, err := svc.Save(ctx, "me", models.KindRM, models.RecordInput{ID: "m1", Exercise: "Back Squat", Value: "210kg", Date: "2024-03-10"}, true)
		require.NoError(t, err)

		recs, err := svc.List(ctx, "me")
		require.NoError(t, err)
		require.Len(t, recs.RMs, 1)
		stored, ok := recs.RMs[0].Date.Local(testLoc)
		require.True(t, ok)
		assert.Equal(t, "2024-03-10", stored.Format("2006-01-02"))
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := newService(seed(t))
		_, err := svc.Save(ctx, "me", models.KindRM, models.RecordInput{ID: "nope", Exercise: "Clean", Value: "1kg"}, true)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("first record for new client", func(t *testing.T) {
		svc := newService(seed(t))
		res, err := svc.Save(ctx, "newbie", models.KindRM, models.RecordInput{Exercise: "Snatch", Value: "40kg"}, false)
		require.NoError(t, err)
		assert.True(t, res.Saved)

		recs, err := svc.List(ctx, "newbie")
		require.NoError(t, err)
		assert.Len(t, recs.RMs, 1)
		assert.Empty(t, recs.PRs)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newService(seed(t))

	require.NoError(t, svc.Delete(ctx, "ana", models.KindRM, "a2"))
	recs, err := svc.List(ctx, "ana")
	require.NoError(t, err)
	assert.Len(t, recs.RMs, 2)
	assert.Len(t, recs.PRs, 1)

	assert.ErrorIs(t, svc.Delete(ctx, "ana", models.KindRM, "a2"), ErrRecordNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ana", models.RecordKind("x"), "a1"), ErrUnknownKind)
}
