package mongodb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

// MongoDBRepository implements docstore.Store on top of MongoDB. Live queries
// use change streams and fall back to polling on deployments without them.
type MongoDBRepository struct {
	client       *mongo.Client
	dbName       string
	pollInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri, dbName string, pollInterval time.Duration, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
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
		client:       client,
		dbName:       dbName,
		pollInterval: pollInterval,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// Create inserts a document under a generated string identifier.
func (r *MongoDBRepository) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	id := uuid.NewString()
	payload := toBSON(doc.ResolveTimestamps(r.now().UTC()))
	payload["_id"] = id

	if _, err := r.collection(collection).InsertOne(ctx, payload); err != nil {
		return "", docstore.NewWriteError("create", collection, "", fmt.Errorf("failed to insert document: %w", err))
	}
	return id, nil
}

// Set creates or replaces the document with the given identifier.
func (r *MongoDBRepository) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	payload := toBSON(doc.ResolveTimestamps(r.now().UTC()))
	payload["_id"] = id

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, payload, opts); err != nil {
		return docstore.NewWriteError("set", collection, id, fmt.Errorf("failed to replace document: %w", err))
	}
	return nil
}

// Get reads a single document.
func (r *MongoDBRepository) Get(ctx context.Context, collection, id string) (docstore.Record, error) {
	var raw bson.M
	err := r.collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Record{}, fmt.Errorf("get %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Record{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

// IncrementField applies $inc, which is atomic on the server.
func (r *MongoDBRepository) IncrementField(ctx context.Context, collection, id, field string, delta int64) error {
	res, err := r.collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return docstore.NewWriteError("increment", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return docstore.NewWriteError("increment", collection, id, docstore.ErrNotFound)
	}
	return nil
}

// Update applies $set with the given fields.
func (r *MongoDBRepository) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	res, err := r.collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(fields.ResolveTimestamps(r.now().UTC()))})
	if err != nil {
		return docstore.NewWriteError("update", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return docstore.NewWriteError("update", collection, id, docstore.ErrNotFound)
	}
	return nil
}

// Subscribe runs q once, then re-runs it whenever the collection changes.
func (r *MongoDBRepository) Subscribe(ctx context.Context, collection string, q docstore.Query, onUpdate func([]docstore.Record)) (docstore.Unsubscribe, error) {
	coll := r.collection(collection)
	filter, findOpts := buildFind(q)

	initial, err := r.find(ctx, coll, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	go func() {
		onUpdate(initial)
		r.follow(subCtx, coll, filter, findOpts, initial, onUpdate)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
		})
	}, nil
}

func (r *MongoDBRepository) follow(ctx context.Context, coll *mongo.Collection, filter bson.D, findOpts *options.FindOptions, last []docstore.Record, onUpdate func([]docstore.Record)) {
	logger := r.logger.With(zap.String("collection", coll.Name()))

	stream, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("change streams unavailable, polling instead", zap.Error(err), zap.Duration("interval", r.pollInterval))
		r.poll(ctx, coll, filter, findOpts, last, onUpdate)
		return
	}
	defer func() { _ = stream.Close(context.Background()) }()

	for stream.Next(ctx) {
		records, err := r.find(ctx, coll, filter, findOpts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("failed to refresh live query", zap.Error(err))
			continue
		}
		if reflect.DeepEqual(records, last) {
			continue
		}
		last = records
		if ctx.Err() != nil {
			return
		}
		onUpdate(records)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		logger.Warn("change stream ended, polling instead", zap.Error(err))
		r.poll(ctx, coll, filter, findOpts, last, onUpdate)
	}
}

func (r *MongoDBRepository) poll(ctx context.Context, coll *mongo.Collection, filter bson.D, findOpts *options.FindOptions, last []docstore.Record, onUpdate func([]docstore.Record)) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := r.find(ctx, coll, filter, findOpts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Debug("poll failed", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		if reflect.DeepEqual(records, last) {
			continue
		}
		last = records
		if ctx.Err() != nil {
			return
		}
		onUpdate(records)
	}
}

func (r *MongoDBRepository) find(ctx context.Context, coll *mongo.Collection, filter bson.D, opts *options.FindOptions) ([]docstore.Record, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	records := make([]docstore.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, fromBSON(raw))
	}
	return records, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func fieldName(field string) string {
	if field == docstore.FieldID {
		return "_id"
	}
	return field
}

func buildFind(q docstore.Query) (bson.D, *options.FindOptions) {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: fieldName(f.Field), Value: f.Value})
	}

	sort := bson.D{}
	for _, o := range q.OrderBy {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: fieldName(o.Field), Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}

func toBSON(doc docstore.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func fromBSON(raw bson.M) docstore.Record {
	rec := docstore.Record{Data: make(docstore.Document, len(raw))}
	for k, v := range raw {
		if k == "_id" {
			switch id := v.(type) {
			case string:
				rec.ID = id
			case primitive.ObjectID:
				rec.ID = id.Hex()
			default:
				rec.ID = fmt.Sprint(id)
			}
			continue
		}
		rec.Data[k] = normalizeBSON(v)
	}
	return rec
}

func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.Decimal128:
		return t.String()
	default:
		return docstore.Normalize(v)
	}
}
