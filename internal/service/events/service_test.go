package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/repository"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/memory"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
)

var fixedNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

// flakyStore fails listings of the given collections.
type flakyStore struct {
	*memory.Store
	failing map[string]bool
}

func (f *flakyStore) List(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if f.failing[collection] {
		return nil, errors.New("connection reset")
	}
	return f.Store.List(ctx, collection, q)
}

func newTestService(t *testing.T, s store.Store) (*Service, *repository.Repository) {
	t.Helper()
	repo := repository.New(s)
	ctx := context.Background()

	require.NoError(t, repo.PutNursery(ctx, models.Nursery{ID: "vivero-norte", Name: "Vivero Norte"}))
	for _, bed := range []string{"c1", "c2", "c3"} {
		require.NoError(t, repo.PutBed(ctx, models.GrowBed{ID: bed, NurseryID: "vivero-norte", PlantType: "pothos", State: models.BedStateActive}))
	}

	svc := NewService(repo, nil, 4, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService(t, memory.NewStore(50))
	ctx := context.Background()

	id, err := svc.CreateEvent(ctx, "vivero-norte", "c1", models.EventInput{Date: "2026-10-10", Quantity: 25, Notes: " buen corte ", Responsible: "Ana"}, "admin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "20261010_"), id)

	ev, err := repo.GetEvent(ctx, "vivero-norte", "c1", id)
	require.NoError(t, err)
	assert.Equal(t, 25, ev.Quantity)
	assert.Equal(t, "buen corte", ev.Notes)
	assert.Equal(t, "admin", ev.CreatedBy)
	assert.True(t, ev.Date.Equal(time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC)))
}

func TestCreateEventRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input models.EventInput
	}{
		{name: "zero quantity", input: models.EventInput{Date: "2026-10-10", Quantity: 0}},
		{name: "negative quantity", input: models.EventInput{Date: "2026-10-10", Quantity: -3}},
		{name: "future date", input: models.EventInput{Date: "2026-10-17", Quantity: 5}},
		{name: "future timestamp", input: models.EventInput{Date: "2026-10-16T13:00:00Z", Quantity: 5}},
		{name: "malformed date", input: models.EventInput{Date: "10/10/2026", Quantity: 5}},
		{name: "missing date", input: models.EventInput{Quantity: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo := newTestService(t, memory.NewStore(50))
			ctx := context.Background()

			_, err := svc.CreateEvent(ctx, "vivero-norte", "c1", tt.input, "admin")
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.KindInvalidInput), err.Error())

			events, err := repo.ListEvents(ctx, "vivero-norte", "c1", store.Query{})
			require.NoError(t, err)
			assert.Empty(t, events, "nothing persisted")
		})
	}
}

func TestCreateEventTodayIsAllowed(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, memory.NewStore(50))

	_, err := svc.CreateEvent(context.Background(), "vivero-norte", "c1", models.EventInput{Date: "2026-10-16", Quantity: 1}, "admin")
	assert.NoError(t, err)
}

func TestCreateEventMissingBed(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, memory.NewStore(50))

	_, err := svc.CreateEvent(context.Background(), "vivero-norte", "nope", models.EventInput{Date: "2026-10-10", Quantity: 0}, "admin")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound), "bed existence is checked before input")
}

func seedEvents(t *testing.T, svc *Service, bed string, days []int, quantities []int) []string {
	t.Helper()
	ids := make([]string, 0, len(days))
	for i, d := range days {
		id, err := svc.CreateEvent(context.Background(), "vivero-norte", bed, models.EventInput{
			Date:        time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Quantity:    quantities[i],
			Responsible: "Ana",
		}, "admin")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func quantitiesOf(events []models.CuttingEvent) []int {
	out := make([]int, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Quantity)
	}
	return out
}

func TestListEventsForBed(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, memory.NewStore(50))
	ctx := context.Background()
	seedEvents(t, svc, "c1", []int{1, 5, 3, 9}, []int{10, 50, 30, 90})

	events, err := svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{90, 50, 30, 10}, quantitiesOf(events), "default is date descending")

	events, err = svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{Direction: models.SortAsc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, quantitiesOf(events))

	from := time.Date(2026, time.October, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC)
	events, err = svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 30}, quantitiesOf(events), "range is inclusive")

	events, err = svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{OrderBy: "quantity", Direction: models.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30, 50, 90}, quantitiesOf(events))

	_, err = svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{OrderBy: "notes"})
	assert.True(t, models.IsKind(err, models.KindInvalidInput))

	_, err = svc.ListEventsForBed(ctx, "vivero-norte", "zz", models.EventListOptions{})
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestListEventsForNursery(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, memory.NewStore(50))
	ctx := context.Background()
	seedEvents(t, svc, "c1", []int{1, 7}, []int{1, 7})
	seedEvents(t, svc, "c2", []int{3, 9}, []int{3, 9})
	_, err := svc.CreateEvent(ctx, "vivero-norte", "c3", models.EventInput{Date: "2026-10-05", Quantity: 5, Responsible: "Luis"}, "admin")
	require.NoError(t, err)

	res, err := svc.ListEventsForNursery(ctx, "vivero-norte", models.NurseryEventListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 7, 5, 3, 1}, quantitiesOf(res.Events))
	assert.False(t, res.Partial())
	assert.Equal(t, "c2", res.Events[0].BedID)

	res, err = svc.ListEventsForNursery(ctx, "vivero-norte", models.NurseryEventListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 7}, quantitiesOf(res.Events))

	res, err = svc.ListEventsForNursery(ctx, "vivero-norte", models.NurseryEventListOptions{ResponsibleFilter: "luis"})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, quantitiesOf(res.Events))

	_, err = svc.ListEventsForNursery(ctx, "missing", models.NurseryEventListOptions{})
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestListEventsForNurserySkipsFailingBed(t *testing.T) {
	t.Parallel()
	flaky := &flakyStore{Store: memory.NewStore(50), failing: map[string]bool{}}
	svc, _ := newTestService(t, flaky)
	seedEvents(t, svc, "c1", []int{1}, []int{4})
	seedEvents(t, svc, "c2", []int{2}, []int{6})
	flaky.failing[store.EventsCollection("vivero-norte", "c2")] = true

	res, err := svc.ListEventsForNursery(context.Background(), "vivero-norte", models.NurseryEventListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, quantitiesOf(res.Events))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "c2", res.Skipped[0].BedID)
	assert.Contains(t, res.Skipped[0].Reason, "connection reset")
}

func TestUpdateEvent(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService(t, memory.NewStore(50))
	ctx := context.Background()
	ids := seedEvents(t, svc, "c1", []int{4}, []int{10})

	qty := 15
	notes := "recount"
	require.NoError(t, svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{Quantity: &qty, Notes: &notes}, "editor"))

	ev, err := repo.GetEvent(ctx, "vivero-norte", "c1", ids[0])
	require.NoError(t, err)
	assert.Equal(t, 15, ev.Quantity)
	assert.Equal(t, "recount", ev.Notes)
	assert.Equal(t, "admin", ev.CreatedBy)
	assert.Equal(t, "editor", ev.UpdatedBy)
	require.NotNil(t, ev.UpdatedAt)

	zero := 0
	err = svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{Quantity: &zero}, "editor")
	assert.True(t, models.IsKind(err, models.KindInvalidInput))

	future := "2026-12-01"
	err = svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{Date: &future}, "editor")
	assert.True(t, models.IsKind(err, models.KindInvalidInput))

	newID := "other"
	err = svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{ID: &newID}, "editor")
	assert.True(t, models.IsKind(err, models.KindInvalidInput))

	author := "mallory"
	err = svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{CreatedBy: &author}, "editor")
	assert.True(t, models.IsKind(err, models.KindInvalidInput))

	err = svc.UpdateEvent(ctx, "vivero-norte", "c1", "missing", models.EventUpdate{Quantity: &qty}, "editor")
	assert.True(t, models.IsKind(err, models.KindNotFound))

	err = svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{}, "editor")
	assert.True(t, models.IsKind(err, models.KindInvalidInput))
}

// vanishingStore deletes an event right after it has been read, as a
// concurrent delete would.
type vanishingStore struct {
	*memory.Store
}

func (v *vanishingStore) Get(ctx context.Context, path string) (store.Document, error) {
	doc, err := v.Store.Get(ctx, path)
	if err == nil && strings.Contains(path, "/events/") {
		_ = v.Store.Delete(ctx, path)
	}
	return doc, err
}

func TestUpdateEventDeletedConcurrently(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService(t, &vanishingStore{Store: memory.NewStore(50)})
	ctx := context.Background()
	ids := seedEvents(t, svc, "c1", []int{4}, []int{10})

	notes := "late edit"
	err := svc.UpdateEvent(ctx, "vivero-norte", "c1", ids[0], models.EventUpdate{Notes: &notes}, "editor")
	assert.True(t, models.IsKind(err, models.KindNotFound))

	events, err := repo.ListEvents(ctx, "vivero-norte", "c1", store.Query{})
	require.NoError(t, err)
	assert.Empty(t, events, "a merge never recreates a deleted event")
}

func TestDeleteEvent(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService(t, memory.NewStore(50))
	ctx := context.Background()
	ids := seedEvents(t, svc, "c1", []int{4}, []int{10})

	require.NoError(t, svc.DeleteEvent(ctx, "vivero-norte", "c1", ids[0]))
	_, err := repo.GetEvent(ctx, "vivero-norte", "c1", ids[0])
	assert.True(t, models.IsKind(err, models.KindNotFound))

	err = svc.DeleteEvent(ctx, "vivero-norte", "c1", ids[0])
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestCreateEventsBatchMixed(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, memory.NewStore(50))
	ctx := context.Background()

	inputs := []models.EventInput{
		{Date: "2026-10-01", Quantity: 10},
		{Date: "2026-10-02", Quantity: 0},
		{Date: "2026-10-03", Quantity: 30},
		{Date: "2027-01-01", Quantity: 5},
		{Date: "2026-10-04", Quantity: 40},
	}

	res, err := svc.CreateEventsBatch(ctx, "vivero-norte", "c1", inputs, "admin")
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalRequested)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].Index)
	assert.Equal(t, 4, res.Errors[1].Index)
	assert.Len(t, res.CreatedIDs, 3)

	events, err := svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{Direction: models.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30, 40}, quantitiesOf(events))

	seen := map[string]bool{}
	for _, id := range res.CreatedIDs {
		assert.False(t, seen[id], "ids are unique")
		seen[id] = true
	}
}

func TestCreateEventsBatchBounds(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, memory.NewStore(2))
	ctx := context.Background()

	inputs := []models.EventInput{
		{Date: "2026-10-01", Quantity: 1},
		{Date: "2026-10-02", Quantity: 2},
		{Date: "2026-10-03", Quantity: 3},
	}
	_, err := svc.CreateEventsBatch(ctx, "vivero-norte", "c1", inputs, "admin")
	assert.True(t, models.IsKind(err, models.KindInvalidInput))

	events, err := svc.ListEventsForBed(ctx, "vivero-norte", "c1", models.EventListOptions{})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = svc.CreateEventsBatch(ctx, "vivero-norte", "missing", inputs[:1], "admin")
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestParseEventDate(t *testing.T) {
	t.Parallel()

	got, err := ParseEventDate("2026-10-16T08:30:00-03:00", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 11, got.Hour())

	_, err = ParseEventDate("2026-10-16T09:30:01-03:00", fixedNow.Add(-time.Hour))
	assert.True(t, models.IsKind(err, models.KindInvalidInput))
}
