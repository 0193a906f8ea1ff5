// Package memory provides an in-process implementation of the document store
// adapter. It backs local development (STORE_DRIVER=memory) and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
)

// Store keeps documents as encoded BSON keyed by path. Reads return copies.
type Store struct {
	mu       sync.RWMutex
	docs     map[string]bson.Raw
	maxBatch int
}

// NewStore creates an empty store accepting batches up to maxBatch writes.
func NewStore(maxBatch int) *Store {
	if maxBatch <= 0 {
		maxBatch = 500
	}
	return &Store{docs: map[string]bson.Raw{}, maxBatch: maxBatch}
}

var _ store.Store = (*Store)(nil)

// MaxBatchSize reports the batch bound.
func (s *Store) MaxBatchSize() int {
	return s.maxBatch
}

// Get returns the document at path.
func (s *Store) Get(ctx context.Context, path string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.docs[path]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{Path: path, Data: clone(raw)}, nil
}

// List returns the direct children of collection shaped by q.
func (s *Store) List(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	docs := make([]store.Document, 0)
	for path, raw := range s.docs {
		if store.Parent(path) != collection {
			continue
		}
		if q.Range != nil && !inRange(raw, q.Range) {
			continue
		}
		docs = append(docs, store.Document{Path: path, Data: clone(raw)})
	}
	s.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareField(docs[i].Data, docs[j].Data, q.OrderBy)
			if c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return docs[i].Path < docs[j].Path
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// Put writes record at path, replacing or merging per opts.
func (s *Store) Put(ctx context.Context, path string, record any, opts store.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := bson.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.Merge {
		existing, ok := s.docs[path]
		if !ok {
			return store.ErrNotFound
		}
		merged, err := merge(existing, raw)
		if err != nil {
			return fmt.Errorf("merge %s: %w", path, err)
		}
		raw = merged
	}
	s.docs[path] = raw
	return nil
}

// Delete removes the document at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[path]; !ok {
		return store.ErrNotFound
	}
	delete(s.docs, path)
	return nil
}

// BatchWrite encodes every record first and only then applies them, so an
// encoding failure leaves the store untouched.
func (s *Store) BatchWrite(ctx context.Context, writes []store.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(writes) > s.maxBatch {
		return fmt.Errorf("%w: %d > %d", store.ErrBatchTooLarge, len(writes), s.maxBatch)
	}

	encoded := make([]bson.Raw, len(writes))
	for i, w := range writes {
		raw, err := bson.Marshal(w.Record)
		if err != nil {
			return fmt.Errorf("encode %s: %w", w.Path, err)
		}
		encoded[i] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range writes {
		s.docs[w.Path] = encoded[i]
	}
	return nil
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func clone(raw bson.Raw) bson.Raw {
	return bson.Raw(bytes.Clone(raw))
}

func merge(existing, update bson.Raw) (bson.Raw, error) {
	var base, patch bson.D
	if err := bson.Unmarshal(existing, &base); err != nil {
		return nil, err
	}
	if err := bson.Unmarshal(update, &patch); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(base))
	for i, e := range base {
		index[e.Key] = i
	}
	for _, e := range patch {
		if i, ok := index[e.Key]; ok {
			base[i].Value = e.Value
			continue
		}
		base = append(base, e)
	}
	return bson.Marshal(base)
}

func inRange(raw bson.Raw, r *store.Range) bool {
	value, err := raw.LookupErr(r.Field)
	if err != nil || value.Type != bsontype.DateTime {
		return false
	}
	t := value.Time()
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// compareField orders documents by a top-level field. Missing fields sort first.
func compareField(a, b bson.Raw, field string) int {
	av, aerr := a.LookupErr(field)
	bv, berr := b.LookupErr(field)
	switch {
	case aerr != nil && berr != nil:
		return 0
	case aerr != nil:
		return -1
	case berr != nil:
		return 1
	}

	if an, ok := number(av); ok {
		if bn, ok := number(bv); ok {
			return compareFloat(an, bn)
		}
	}
	if av.Type == bsontype.DateTime && bv.Type == bsontype.DateTime {
		return compareTime(av.Time(), bv.Time())
	}
	if av.Type == bsontype.String && bv.Type == bsontype.String {
		return strings.Compare(av.StringValue(), bv.StringValue())
	}
	return 0
}

func number(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bsontype.Int32:
		return float64(v.Int32()), true
	case bsontype.Int64:
		return float64(v.Int64()), true
	case bsontype.Double:
		return v.Double(), true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
