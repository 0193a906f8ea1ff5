package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
)

const dataField = "data"

// envelope is the stored shape of every document: the path is the _id and the
// parent collection path is indexed alongside the record.
type envelope struct {
	ID     string   `bson:"_id"`
	Parent string   `bson:"parent"`
	Data   bson.Raw `bson:"data"`
}

// MongoDBRepository implements store.Store on a single MongoDB collection.
type MongoDBRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	maxBatch   int
	logger     *zap.Logger
}

var _ store.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri, dbName, collection string, maxBatch int, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:     client,
		collection: client.Database(dbName).Collection(collection),
		maxBatch:   maxBatch,
		logger:     logger,
	}, nil
}

// MaxBatchSize reports the batch bound.
func (r *MongoDBRepository) MaxBatchSize() int {
	return r.maxBatch
}

// Get returns the document stored at path.
func (r *MongoDBRepository) Get(ctx context.Context, path string) (store.Document, error) {
	var env envelope
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: path}}).Decode(&env)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("find %s: %w", path, err)
	}
	return store.Document{Path: env.ID, Data: env.Data}, nil
}

// List returns the direct children of collection.
func (r *MongoDBRepository) List(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	filter, findOpts := buildListQuery(collection, q)

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	var envs []envelope
	if err := cursor.All(ctx, &envs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	docs := make([]store.Document, 0, len(envs))
	for _, env := range envs {
		docs = append(docs, store.Document{Path: env.ID, Data: env.Data})
	}
	r.logger.Debug("listed collection", zap.String("collection", collection), zap.Int("count", len(docs)))
	return docs, nil
}

// Put replaces the document at path, or with opts.Merge sets only the record's
// top-level fields of an existing document.
func (r *MongoDBRepository) Put(ctx context.Context, path string, record any, opts store.PutOptions) error {
	raw, err := bson.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if !opts.Merge {
		env := envelope{ID: path, Parent: store.Parent(path), Data: raw}
		_, err := r.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: path}}, env, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("replace %s: %w", path, err)
		}
		return nil
	}

	update, err := mergeUpdate(path, raw)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: path}}, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the document at path.
func (r *MongoDBRepository) Delete(ctx context.Context, path string) error {
	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: path}})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// BatchWrite upserts all writes inside one transaction. Transactions need a
// replica set or sharded cluster.
func (r *MongoDBRepository) BatchWrite(ctx context.Context, writes []store.Write) error {
	if len(writes) > r.maxBatch {
		return fmt.Errorf("%w: %d > %d", store.ErrBatchTooLarge, len(writes), r.maxBatch)
	}
	if len(writes) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(writes))
	for _, w := range writes {
		raw, err := bson.Marshal(w.Record)
		if err != nil {
			return fmt.Errorf("encode %s: %w", w.Path, err)
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: w.Path}}).
			SetReplacement(envelope{ID: w.Path, Parent: store.Parent(w.Path), Data: raw}).
			SetUpsert(true))
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.collection.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		return fmt.Errorf("batch write %d documents: %w", len(writes), err)
	}
	r.logger.Debug("batch committed", zap.Int("documents", len(writes)))
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func buildListQuery(collection string, q store.Query) (bson.D, *options.FindOptions) {
	filter := bson.D{{Key: "parent", Value: collection}}
	if q.Range != nil {
		bounds := bson.D{}
		if q.Range.From != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *q.Range.From})
		}
		if q.Range.To != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *q.Range.To})
		}
		if len(bounds) > 0 {
			filter = append(filter, bson.E{Key: dataField + "." + q.Range.Field, Value: bounds})
		}
	}

	sort := bson.D{}
	if q.OrderBy != "" {
		direction := 1
		if q.Descending {
			direction = -1
		}
		sort = append(sort, bson.E{Key: dataField + "." + q.OrderBy, Value: direction})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	findOpts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}
	return filter, findOpts
}

func mergeUpdate(path string, raw bson.Raw) (bson.D, error) {
	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	set := bson.D{{Key: "parent", Value: store.Parent(path)}}
	for _, f := range fields {
		set = append(set, bson.E{Key: dataField + "." + f.Key, Value: f.Value})
	}
	return bson.D{{Key: "$set", Value: set}}, nil
}
