// Package repository maps nurseries, beds and cutting events onto the document
// store paths and translates store failures into domain error kinds.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
)

// Repository is the typed view over a store.Store.
type Repository struct {
	store store.Store
}

// New wraps s.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// MaxBatchSize exposes the store's batch bound.
func (r *Repository) MaxBatchSize() int {
	return r.store.MaxBatchSize()
}

// GetNursery loads one nursery.
func (r *Repository) GetNursery(ctx context.Context, nurseryID string) (models.Nursery, error) {
	var n models.Nursery
	if err := r.get(ctx, store.NurseryPath(nurseryID), &n, "nursery "+nurseryID); err != nil {
		return models.Nursery{}, err
	}
	n.ID = nurseryID
	return n, nil
}

// ListNurseries returns every nursery ordered by id.
func (r *Repository) ListNurseries(ctx context.Context) ([]models.Nursery, error) {
	docs, err := r.store.List(ctx, store.NurseriesCollection, store.Query{})
	if err != nil {
		return nil, models.WrapStoreUnavailable("list nurseries", err)
	}
	out := make([]models.Nursery, 0, len(docs))
	for _, doc := range docs {
		var n models.Nursery
		if err := doc.Decode(&n); err != nil {
			return nil, fmt.Errorf("decode nursery %s: %w", doc.ID(), err)
		}
		n.ID = doc.ID()
		out = append(out, n)
	}
	return out, nil
}

// PutNursery upserts a nursery record.
func (r *Repository) PutNursery(ctx context.Context, n models.Nursery) error {
	if err := r.store.Put(ctx, store.NurseryPath(n.ID), n, store.PutOptions{}); err != nil {
		return models.WrapStoreUnavailable("save nursery "+n.ID, err)
	}
	return nil
}

// GetBed loads one bed.
func (r *Repository) GetBed(ctx context.Context, nurseryID, bedID string) (models.GrowBed, error) {
	var b models.GrowBed
	if err := r.get(ctx, store.BedPath(nurseryID, bedID), &b, fmt.Sprintf("bed %s/%s", nurseryID, bedID)); err != nil {
		return models.GrowBed{}, err
	}
	b.ID, b.NurseryID = bedID, nurseryID
	return b, nil
}

// ListBeds returns every bed of a nursery ordered by id.
func (r *Repository) ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error) {
	docs, err := r.store.List(ctx, store.BedsCollection(nurseryID), store.Query{})
	if err != nil {
		return nil, models.WrapStoreUnavailable("list beds of "+nurseryID, err)
	}
	out := make([]models.GrowBed, 0, len(docs))
	for _, doc := range docs {
		var b models.GrowBed
		if err := doc.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode bed %s: %w", doc.Path, err)
		}
		b.ID, b.NurseryID = doc.ID(), nurseryID
		out = append(out, b)
	}
	return out, nil
}

// PutBed replaces the whole bed record, statistics included.
func (r *Repository) PutBed(ctx context.Context, b models.GrowBed) error {
	if err := r.store.Put(ctx, store.BedPath(b.NurseryID, b.ID), b, store.PutOptions{}); err != nil {
		return models.WrapStoreUnavailable(fmt.Sprintf("save bed %s/%s", b.NurseryID, b.ID), err)
	}
	return nil
}

// SaveStatistics replaces the statistics field of an existing bed as a whole.
func (r *Repository) SaveStatistics(ctx context.Context, nurseryID, bedID string, stats models.Statistics) error {
	patch := bson.D{{Key: "statistics", Value: stats}}
	err := r.store.Put(ctx, store.BedPath(nurseryID, bedID), patch, store.PutOptions{Merge: true})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.NewNotFound("bed %s/%s not found", nurseryID, bedID)
	case err != nil:
		return models.WrapStoreUnavailable(fmt.Sprintf("save statistics of %s/%s", nurseryID, bedID), err)
	}
	return nil
}

// GetEvent loads one cutting event.
func (r *Repository) GetEvent(ctx context.Context, nurseryID, bedID, eventID string) (models.CuttingEvent, error) {
	var ev models.CuttingEvent
	if err := r.get(ctx, store.EventPath(nurseryID, bedID, eventID), &ev, "event "+eventID); err != nil {
		return models.CuttingEvent{}, err
	}
	ev.ID, ev.NurseryID, ev.BedID = eventID, nurseryID, bedID
	return ev, nil
}

// ListEvents lists the events of one bed.
func (r *Repository) ListEvents(ctx context.Context, nurseryID, bedID string, q store.Query) ([]models.CuttingEvent, error) {
	docs, err := r.store.List(ctx, store.EventsCollection(nurseryID, bedID), q)
	if err != nil {
		return nil, models.WrapStoreUnavailable(fmt.Sprintf("list events of %s/%s", nurseryID, bedID), err)
	}
	out := make([]models.CuttingEvent, 0, len(docs))
	for _, doc := range docs {
		var ev models.CuttingEvent
		if err := doc.Decode(&ev); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", doc.Path, err)
		}
		ev.ID, ev.NurseryID, ev.BedID = doc.ID(), nurseryID, bedID
		out = append(out, ev)
	}
	return out, nil
}

// PutEvent writes a full event record.
func (r *Repository) PutEvent(ctx context.Context, nurseryID, bedID string, ev models.CuttingEvent) error {
	if err := r.store.Put(ctx, store.EventPath(nurseryID, bedID, ev.ID), ev, store.PutOptions{}); err != nil {
		return models.WrapStoreUnavailable("save event "+ev.ID, err)
	}
	return nil
}

// MergeEvent writes the given top-level fields onto an existing event.
func (r *Repository) MergeEvent(ctx context.Context, nurseryID, bedID, eventID string, fields bson.D) error {
	err := r.store.Put(ctx, store.EventPath(nurseryID, bedID, eventID), fields, store.PutOptions{Merge: true})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.NewNotFound("event %s not found", eventID)
	case err != nil:
		return models.WrapStoreUnavailable("update event "+eventID, err)
	}
	return nil
}

// DeleteEvent removes one event.
func (r *Repository) DeleteEvent(ctx context.Context, nurseryID, bedID, eventID string) error {
	err := r.store.Delete(ctx, store.EventPath(nurseryID, bedID, eventID))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.NewNotFound("event %s not found", eventID)
	case err != nil:
		return models.WrapStoreUnavailable("delete event "+eventID, err)
	}
	return nil
}

// BatchPutEvents writes all events in one atomic batch.
func (r *Repository) BatchPutEvents(ctx context.Context, nurseryID, bedID string, events []models.CuttingEvent) error {
	writes := make([]store.Write, 0, len(events))
	for _, ev := range events {
		writes = append(writes, store.Write{Path: store.EventPath(nurseryID, bedID, ev.ID), Record: ev})
	}
	err := r.store.BatchWrite(ctx, writes)
	switch {
	case errors.Is(err, store.ErrBatchTooLarge):
		return &models.Error{Kind: models.KindInvalidInput, Message: "batch too large", Err: err}
	case err != nil:
		return models.WrapStoreUnavailable(fmt.Sprintf("batch write %d events", len(events)), err)
	}
	return nil
}

func (r *Repository) get(ctx context.Context, path string, v any, what string) error {
	doc, err := r.store.Get(ctx, path)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.NewNotFound("%s not found", what)
	case err != nil:
		return models.WrapStoreUnavailable("load "+what, err)
	}
	if err := doc.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
