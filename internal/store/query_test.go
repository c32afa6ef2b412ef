package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID())
	}
	return out
}

func TestQuery_Apply(t *testing.T) {
	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	docs := []Document{
		{Path: Doc("feedback", "a"), Data: map[string]any{"clientId": "c1", "date": map[string]any{"seconds": float64(mar.Unix()), "nanoseconds": float64(0)}}},
		{Path: Doc("feedback", "b"), Data: map[string]any{"clientId": "c1", "date": float64(jan.UnixMilli())}},
		{Path: Doc("feedback", "c"), Data: map[string]any{"clientId": "c2", "date": "2024-01-05"}},
		{Path: Doc("feedback", "d"), Data: map[string]any{"clientId": "c1", "date": "2024-02-10T09:00:00Z"}},
		{Path: Doc("feedback", "e"), Data: map[string]any{"clientId": "c1"}},
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{name: "no filters keeps id order", q: Query{}, want: []string{"a", "b", "c", "d", "e"}},
		{name: "equality", q: Query{Filters: []Filter{Eq("clientId", "c1")}}, want: []string{"a", "b", "d", "e"}},
		{name: "order by mixed dates excludes missing", q: Query{Filters: []Filter{Eq("clientId", "c1")}, OrderBy: "date"}, want: []string{"b", "d", "a"}},
		{name: "descending with limit", q: Query{Filters: []Filter{Eq("clientId", "c1")}, OrderBy: "date", Desc: true, Limit: 2}, want: []string{"a", "d"}},
		{name: "range", q: Query{Filters: []Filter{Gte("date", float64(feb.UnixMilli())), Lte("date", float64(mar.UnixMilli()))}}, want: []string{"a", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.q.Apply(docs)))
		})
	}
}

func TestPath(t *testing.T) {
	p := Doc("clients", "c1").Child("payments", "p1")
	assert.True(t, p.Valid())
	assert.Equal(t, "clients/c1/payments", p.Collection())
	assert.Equal(t, "p1", p.ID())
	assert.Equal(t, "clients/c1/payments/p1", p.String())
	assert.False(t, Doc("clients").Valid())
	assert.False(t, Doc("clients", "").Valid())
	assert.False(t, Doc("clients", "a/b").Valid())
}

func TestEncodeDecode(t *testing.T) {
	type payment struct {
		ID     string   `json:"id"`
		Amount *float64 `json:"amount,omitempty"`
	}
	amount := 1500.0
	data, err := Encode(payment{ID: "p1", Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, data["amount"])

	var got payment
	require.NoError(t, Document{Path: Doc("payments", "p1"), Data: data}.Decode(&got))
	assert.Equal(t, "p1", got.ID)
	require.NotNil(t, got.Amount)

	err = Document{Path: Doc("payments", "p1"), Data: map[string]any{"id": 42}}.Decode(&got)
	assert.Error(t, err)
}
