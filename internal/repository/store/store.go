// Package store defines the hierarchical document store consumed by the
// analytics core. Documents are addressed by slash separated paths such as
// nurseries/{nurseryId}/beds/{bedId}/events/{eventId}; a collection path is
// the path of a document minus its last segment.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned when the addressed document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// Document is one stored record and the path it lives at.
type Document struct {
	Path string
	Data bson.Raw
}

// ID returns the last path segment.
func (d Document) ID() string {
	return LastSegment(d.Path)
}

// Decode unmarshals the record into v.
func (d Document) Decode(v any) error {
	return bson.Unmarshal(d.Data, v)
}

// Range restricts a listing to documents whose field lies in [From, To].
// Nil bounds are open.
type Range struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// Query shapes a collection listing. Results are ordered by OrderBy (ties by
// path); an empty OrderBy orders by path only. Limit <= 0 means unbounded.
type Query struct {
	OrderBy    string
	Descending bool
	Range      *Range
	Limit      int
}

// PutOptions controls Put. With Merge the record's top-level fields are
// written over an existing document and a missing path yields ErrNotFound;
// otherwise the document is replaced or created.
type PutOptions struct {
	Merge bool
}

// Write is one element of a batch.
type Write struct {
	Path   string
	Record any
}

// Store is the document store adapter.
type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Put(ctx context.Context, path string, record any, opts PutOptions) error
	Delete(ctx context.Context, path string) error
	// BatchWrite persists all writes atomically or none of them.
	BatchWrite(ctx context.Context, writes []Write) error
	MaxBatchSize() int
}

// Collection names.
const (
	NurseriesCollection = "nurseries"
	bedsSegment         = "beds"
	eventsSegment       = "events"
)

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// NurseryPath addresses a nursery.
func NurseryPath(nurseryID string) string {
	return Join(NurseriesCollection, nurseryID)
}

// BedsCollection addresses the beds of a nursery.
func BedsCollection(nurseryID string) string {
	return Join(NurseriesCollection, nurseryID, bedsSegment)
}

// BedPath addresses a bed.
func BedPath(nurseryID, bedID string) string {
	return Join(BedsCollection(nurseryID), bedID)
}

// EventsCollection addresses the events of a bed.
func EventsCollection(nurseryID, bedID string) string {
	return Join(BedPath(nurseryID, bedID), eventsSegment)
}

// EventPath addresses one event.
func EventPath(nurseryID, bedID, eventID string) string {
	return Join(EventsCollection(nurseryID, bedID), eventID)
}

// Parent returns the collection path containing path.
func Parent(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// LastSegment returns the final segment of path.
func LastSegment(path string) string {
	return path[strings.LastIndexByte(path, '/')+1:]
}
