package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/observability/metrics"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
	"github.com/OlmanCE/agro-track-sub000/pkg/fanout"
)

const (
	dateLayout     = "2006-01-02"
	idDateLayout   = "20060102"
	defaultOrderBy = "date"
)

// Orderable event fields.
var orderableFields = map[string]bool{
	"date":      true,
	"quantity":  true,
	"createdAt": true,
}

// Repository is the persistence surface the service needs.
type Repository interface {
	GetNursery(ctx context.Context, nurseryID string) (models.Nursery, error)
	GetBed(ctx context.Context, nurseryID, bedID string) (models.GrowBed, error)
	ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error)
	GetEvent(ctx context.Context, nurseryID, bedID, eventID string) (models.CuttingEvent, error)
	ListEvents(ctx context.Context, nurseryID, bedID string, q store.Query) ([]models.CuttingEvent, error)
	PutEvent(ctx context.Context, nurseryID, bedID string, ev models.CuttingEvent) error
	MergeEvent(ctx context.Context, nurseryID, bedID, eventID string, fields bson.D) error
	DeleteEvent(ctx context.Context, nurseryID, bedID, eventID string) error
	BatchPutEvents(ctx context.Context, nurseryID, bedID string, events []models.CuttingEvent) error
	MaxBatchSize() int
}

// Service validates, persists and lists cutting events. It never recomputes
// statistics; callers trigger that explicitly.
type Service struct {
	repo        Repository
	metrics     *metrics.Metrics
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
	suffix      func() string
}

// NewService wires a new event service instance.
func NewService(repo Repository, m *metrics.Metrics, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		repo:        repo,
		metrics:     m,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
		suffix:      randomSuffix,
	}
}

// CreateEvent validates and persists one event and returns its id.
func (s *Service) CreateEvent(ctx context.Context, nurseryID, bedID string, input models.EventInput, author string) (string, error) {
	if err := requireIDs(nurseryID, bedID); err != nil {
		return "", err
	}
	if _, err := s.repo.GetBed(ctx, nurseryID, bedID); err != nil {
		return "", err
	}

	now := s.now().UTC()
	ev, err := s.buildEvent(input, author, now)
	if err != nil {
		return "", err
	}

	if err := s.repo.PutEvent(ctx, nurseryID, bedID, ev); err != nil {
		return "", err
	}

	s.metrics.RecordEventWrites("create", 1)
	s.logger.Info("cutting event created",
		zap.String("nursery_id", nurseryID),
		zap.String("bed_id", bedID),
		zap.String("event_id", ev.ID),
		zap.Int("quantity", ev.Quantity))
	return ev.ID, nil
}

// ListEventsForBed returns the events of a bed, by default newest first.
func (s *Service) ListEventsForBed(ctx context.Context, nurseryID, bedID string, opts models.EventListOptions) ([]models.CuttingEvent, error) {
	if err := requireIDs(nurseryID, bedID); err != nil {
		return nil, err
	}
	q, err := buildQuery(opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBed(ctx, nurseryID, bedID); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, nurseryID, bedID, q)
}

// ListEventsForNursery concatenates the events of every bed, newest first.
// Beds whose events cannot be read are skipped and reported.
func (s *Service) ListEventsForNursery(ctx context.Context, nurseryID string, opts models.NurseryEventListOptions) (models.NurseryEvents, error) {
	start := time.Now()
	if strings.TrimSpace(nurseryID) == "" {
		return models.NurseryEvents{}, models.NewInvalidInput("nursery id is required")
	}
	if opts.Limit < 0 {
		return models.NurseryEvents{}, models.NewInvalidInput("limit must not be negative")
	}
	if _, err := s.repo.GetNursery(ctx, nurseryID); err != nil {
		return models.NurseryEvents{}, err
	}

	beds, err := s.repo.ListBeds(ctx, nurseryID)
	if err != nil {
		return models.NurseryEvents{}, err
	}

	responsible := strings.TrimSpace(opts.ResponsibleFilter)
	q := store.Query{OrderBy: defaultOrderBy, Descending: true, Range: dateRange(opts.DateFrom, opts.DateTo)}
	if responsible == "" {
		// The global top-N is contained in the union of per-bed top-N.
		q.Limit = opts.Limit
	}

	perBed := make([][]models.CuttingEvent, len(beds))
	errs := fanout.Run(ctx, len(beds), s.concurrency, func(ctx context.Context, i int) error {
		events, err := s.repo.ListEvents(ctx, nurseryID, beds[i].ID, q)
		if err != nil {
			return err
		}
		perBed[i] = events
		return nil
	})

	result := models.NurseryEvents{Events: make([]models.CuttingEvent, 0)}
	for i, err := range errs {
		if err != nil {
			s.logger.Warn("skipping bed in nursery event listing",
				zap.String("nursery_id", nurseryID),
				zap.String("bed_id", beds[i].ID),
				zap.Error(err))
			result.Skipped = append(result.Skipped, models.SkippedUnit{NurseryID: nurseryID, BedID: beds[i].ID, Reason: err.Error()})
			continue
		}
		for _, ev := range perBed[i] {
			if responsible != "" && !strings.EqualFold(strings.TrimSpace(ev.Responsible), responsible) {
				continue
			}
			result.Events = append(result.Events, ev)
		}
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Date.After(result.Events[j].Date)
	})
	if opts.Limit > 0 && len(result.Events) > opts.Limit {
		result.Events = result.Events[:opts.Limit]
	}

	s.metrics.ObserveAggregate("nursery_events", start, len(result.Skipped))
	return result, nil
}

// UpdateEvent applies a partial update to an existing event.
func (s *Service) UpdateEvent(ctx context.Context, nurseryID, bedID, eventID string, update models.EventUpdate, editor string) error {
	if err := requireIDs(nurseryID, bedID); err != nil {
		return err
	}
	if strings.TrimSpace(eventID) == "" {
		return models.NewInvalidInput("event id is required")
	}
	switch {
	case update.ID != nil:
		return models.NewInvalidInput("event id is immutable")
	case update.CreatedBy != nil:
		return models.NewInvalidInput("event author is immutable")
	case update.CreatedAt != nil:
		return models.NewInvalidInput("event creation time is immutable")
	}

	if _, err := s.repo.GetEvent(ctx, nurseryID, bedID, eventID); err != nil {
		return err
	}

	now := s.now().UTC()
	fields := bson.D{}
	if update.Date != nil {
		date, err := ParseEventDate(*update.Date, now)
		if err != nil {
			return err
		}
		fields = append(fields, bson.E{Key: "date", Value: date})
	}
	if update.Quantity != nil {
		if *update.Quantity <= 0 {
			return models.NewInvalidInput("quantity must be greater than zero")
		}
		fields = append(fields, bson.E{Key: "quantity", Value: *update.Quantity})
	}
	if update.Notes != nil {
		fields = append(fields, bson.E{Key: "notes", Value: strings.TrimSpace(*update.Notes)})
	}
	if update.Responsible != nil {
		fields = append(fields, bson.E{Key: "responsible", Value: strings.TrimSpace(*update.Responsible)})
	}
	if len(fields) == 0 {
		return models.NewInvalidInput("no fields to update")
	}
	fields = append(fields,
		bson.E{Key: "updatedBy", Value: editor},
		bson.E{Key: "updatedAt", Value: now},
	)

	if err := s.repo.MergeEvent(ctx, nurseryID, bedID, eventID, fields); err != nil {
		return err
	}
	s.metrics.RecordEventWrites("update", 1)
	s.logger.Info("cutting event updated", zap.String("nursery_id", nurseryID), zap.String("bed_id", bedID), zap.String("event_id", eventID))
	return nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, nurseryID, bedID, eventID string) error {
	if err := requireIDs(nurseryID, bedID); err != nil {
		return err
	}
	if strings.TrimSpace(eventID) == "" {
		return models.NewInvalidInput("event id is required")
	}
	if err := s.repo.DeleteEvent(ctx, nurseryID, bedID, eventID); err != nil {
		return err
	}
	s.metrics.RecordEventWrites("delete", 1)
	s.logger.Info("cutting event deleted", zap.String("nursery_id", nurseryID), zap.String("bed_id", bedID), zap.String("event_id", eventID))
	return nil
}

// CreateEventsBatch validates every item independently and writes the valid
// ones in a single atomic batch. Invalid items are reported, not raised.
func (s *Service) CreateEventsBatch(ctx context.Context, nurseryID, bedID string, inputs []models.EventInput, author string) (models.BatchResult, error) {
	if err := requireIDs(nurseryID, bedID); err != nil {
		return models.BatchResult{}, err
	}
	if _, err := s.repo.GetBed(ctx, nurseryID, bedID); err != nil {
		return models.BatchResult{}, err
	}

	result := models.BatchResult{
		TotalRequested: len(inputs),
		CreatedIDs:     make([]string, 0, len(inputs)),
		Errors:         make([]models.BatchItemError, 0),
	}

	now := s.now().UTC()
	valid := make([]models.CuttingEvent, 0, len(inputs))
	for i, input := range inputs {
		ev, err := s.buildEvent(input, author, now)
		if err != nil {
			result.Errors = append(result.Errors, models.BatchItemError{Index: i + 1, Message: err.Error()})
			continue
		}
		valid = append(valid, ev)
	}
	result.Failed = len(result.Errors)

	if len(valid) > s.repo.MaxBatchSize() {
		return models.BatchResult{}, models.NewInvalidInput("batch of %d valid events exceeds the maximum of %d", len(valid), s.repo.MaxBatchSize())
	}

	if len(valid) > 0 {
		if err := s.repo.BatchPutEvents(ctx, nurseryID, bedID, valid); err != nil {
			return models.BatchResult{}, err
		}
	}

	for _, ev := range valid {
		result.CreatedIDs = append(result.CreatedIDs, ev.ID)
	}
	result.Succeeded = len(valid)

	s.metrics.RecordEventWrites("batch", len(valid))
	s.logger.Info("cutting event batch processed",
		zap.String("nursery_id", nurseryID),
		zap.String("bed_id", bedID),
		zap.Int("requested", result.TotalRequested),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) buildEvent(input models.EventInput, author string, now time.Time) (models.CuttingEvent, error) {
	if input.Quantity <= 0 {
		return models.CuttingEvent{}, models.NewInvalidInput("quantity must be greater than zero")
	}
	date, err := ParseEventDate(input.Date, now)
	if err != nil {
		return models.CuttingEvent{}, err
	}
	return models.CuttingEvent{
		ID:          fmt.Sprintf("%s_%d_%s", date.Format(idDateLayout), now.UnixMilli(), s.suffix()),
		Date:        date,
		Quantity:    input.Quantity,
		Notes:       strings.TrimSpace(input.Notes),
		Responsible: strings.TrimSpace(input.Responsible),
		CreatedBy:   author,
		CreatedAt:   now,
	}, nil
}

// ParseEventDate accepts YYYY-MM-DD (stored at 00:00 UTC) or RFC3339 and
// rejects dates after now.
func ParseEventDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, models.NewInvalidInput("date is required")
	}

	date, err := time.Parse(dateLayout, value)
	if err != nil {
		date, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, models.NewInvalidInput("date %q is not YYYY-MM-DD or RFC3339", value)
		}
	}
	date = date.UTC()

	if date.After(now) {
		return time.Time{}, models.NewInvalidInput("date %s is in the future", value)
	}
	return date, nil
}

func buildQuery(opts models.EventListOptions) (store.Query, error) {
	if opts.Limit < 0 {
		return store.Query{}, models.NewInvalidInput("limit must not be negative")
	}
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = defaultOrderBy
	}
	if !orderableFields[orderBy] {
		return store.Query{}, models.NewInvalidInput("cannot order events by %q", orderBy)
	}

	descending := true
	switch opts.Direction {
	case "", models.SortDesc:
	case models.SortAsc:
		descending = false
	default:
		return store.Query{}, models.NewInvalidInput("unknown direction %q", opts.Direction)
	}

	if opts.DateFrom != nil && opts.DateTo != nil && opts.DateFrom.After(*opts.DateTo) {
		return store.Query{}, models.NewInvalidInput("dateFrom is after dateTo")
	}

	return store.Query{
		OrderBy:    orderBy,
		Descending: descending,
		Range:      dateRange(opts.DateFrom, opts.DateTo),
		Limit:      opts.Limit,
	}, nil
}

func dateRange(from, to *time.Time) *store.Range {
	if from == nil && to == nil {
		return nil
	}
	return &store.Range{Field: "date", From: from, To: to}
}

func requireIDs(nurseryID, bedID string) error {
	if strings.TrimSpace(nurseryID) == "" {
		return models.NewInvalidInput("nursery id is required")
	}
	if strings.TrimSpace(bedID) == "" {
		return models.NewInvalidInput("bed id is required")
	}
	return nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
