package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
)

type record struct {
	Name     string    `bson:"name"`
	Quantity int       `bson:"quantity"`
	Date     time.Time `bson:"date"`
	Extra    string    `bson:"extra,omitempty"`
}

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	col := store.EventsCollection("n1", "b1")
	require.NoError(t, s.Put(ctx, store.Join(col, "a"), record{Name: "a", Quantity: 30, Date: day(3)}, store.PutOptions{}))
	require.NoError(t, s.Put(ctx, store.Join(col, "b"), record{Name: "b", Quantity: 10, Date: day(1)}, store.PutOptions{}))
	require.NoError(t, s.Put(ctx, store.Join(col, "c"), record{Name: "c", Quantity: 20, Date: day(2)}, store.PutOptions{}))
	require.NoError(t, s.Put(ctx, store.Join(store.EventsCollection("n1", "b2"), "x"), record{Name: "x", Date: day(2)}, store.PutOptions{}))
}

func names(t *testing.T, docs []store.Document) []string {
	t.Helper()
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		var r record
		require.NoError(t, d.Decode(&r))
		out = append(out, r.Name)
	}
	return out
}

func TestGetAndNotFound(t *testing.T) {
	t.Parallel()
	s := NewStore(10)
	seed(t, s)

	doc, err := s.Get(context.Background(), store.EventPath("n1", "b1", "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", doc.ID())

	_, err = s.Get(context.Background(), store.EventPath("n1", "b1", "zz"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListOrderingRangeAndLimit(t *testing.T) {
	t.Parallel()
	s := NewStore(10)
	seed(t, s)
	ctx := context.Background()
	col := store.EventsCollection("n1", "b1")

	docs, err := s.List(ctx, col, store.Query{OrderBy: "date", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, names(t, docs))

	docs, err = s.List(ctx, col, store.Query{OrderBy: "quantity"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, names(t, docs))

	from, to := day(2), day(3)
	docs, err = s.List(ctx, col, store.Query{OrderBy: "date", Range: &store.Range{Field: "date", From: &from, To: &to}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, names(t, docs), "range bounds are inclusive")

	docs, err = s.List(ctx, col, store.Query{OrderBy: "date", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(t, docs))
}

func TestPutMergeKeepsOtherFields(t *testing.T) {
	t.Parallel()
	s := NewStore(10)
	ctx := context.Background()
	path := store.BedPath("n1", "b1")

	require.NoError(t, s.Put(ctx, path, record{Name: "bed", Quantity: 5, Extra: "keep"}, store.PutOptions{}))
	require.NoError(t, s.Put(ctx, path, map[string]any{"quantity": 9}, store.PutOptions{Merge: true}))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	var r record
	require.NoError(t, doc.Decode(&r))
	assert.Equal(t, "bed", r.Name)
	assert.Equal(t, 9, r.Quantity)
	assert.Equal(t, "keep", r.Extra)

	err = s.Put(ctx, store.BedPath("n1", "missing"), map[string]any{"quantity": 1}, store.PutOptions{Merge: true})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, s.Len(), "merge never creates documents")

	require.NoError(t, s.Put(ctx, path, record{Name: "replaced"}, store.PutOptions{}))
	doc, err = s.Get(ctx, path)
	require.NoError(t, err)
	r = record{}
	require.NoError(t, doc.Decode(&r))
	assert.Equal(t, "replaced", r.Name)
	assert.Empty(t, r.Extra)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := NewStore(10)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, store.EventPath("n1", "b1", "a")))
	assert.ErrorIs(t, s.Delete(ctx, store.EventPath("n1", "b1", "a")), store.ErrNotFound)
}

func TestBatchWriteBound(t *testing.T) {
	t.Parallel()
	s := NewStore(2)
	ctx := context.Background()

	writes := []store.Write{
		{Path: "nurseries/a", Record: record{Name: "a"}},
		{Path: "nurseries/b", Record: record{Name: "b"}},
		{Path: "nurseries/c", Record: record{Name: "c"}},
	}
	err := s.BatchWrite(ctx, writes)
	require.ErrorIs(t, err, store.ErrBatchTooLarge)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.BatchWrite(ctx, writes[:2]))
	assert.Equal(t, 2, s.Len())
}
