package firestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gcfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

// Store implements docstore.Store with Cloud Firestore realtime listeners.
type Store struct {
	client *gcfirestore.Client
	logger *zap.Logger
}

// NewApp initializes the Firebase app shared by Firestore and Cloud Messaging.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}

// NewStore opens a Firestore client from the Firebase app.
func NewStore(ctx context.Context, app *firebase.App, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	return &Store{client: client, logger: logger}, nil
}

// Create adds a document with a Firestore generated identifier.
func (s *Store) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestore(doc))
	if err != nil {
		return "", docstore.NewWriteError("create", collection, "", err)
	}
	return ref.ID, nil
}

// Set creates or replaces a document.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestore(doc)); err != nil {
		return docstore.NewWriteError("set", collection, id, err)
	}
	return nil
}

// Get reads a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Record, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return docstore.Record{}, fmt.Errorf("get %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Record{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return fromSnapshot(snap), nil
}

// IncrementField uses the server-side increment transform.
func (s *Store) IncrementField(ctx context.Context, collection, id, field string, delta int64) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, []gcfirestore.Update{
		{Path: field, Value: gcfirestore.Increment(delta)},
	})
	return mapWriteError("increment", collection, id, err)
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	updates := make([]gcfirestore.Update, 0, len(fields))
	for k, v := range toFirestore(fields) {
		updates = append(updates, gcfirestore.Update{Path: k, Value: v})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapWriteError("update", collection, id, err)
}

// Subscribe attaches a snapshot listener. Single-document queries listen on the
// document itself so a missing document yields an empty snapshot.
func (s *Store) Subscribe(ctx context.Context, collection string, q docstore.Query, onUpdate func([]docstore.Record)) (docstore.Unsubscribe, error) {
	if onUpdate == nil {
		return nil, fmt.Errorf("subscribe %s: nil callback", collection)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	logger := s.logger.With(zap.String("collection", collection))

	if id, ok := q.SingleID(); ok {
		it := s.client.Collection(collection).Doc(id).Snapshots(subCtx)
		go func() {
			defer it.Stop()
			for {
				snap, err := it.Next()
				if err != nil {
					logListenerEnd(logger, subCtx, err)
					return
				}
				var records []docstore.Record
				if snap.Exists() {
					records = append(records, fromSnapshot(snap))
				}
				if subCtx.Err() != nil {
					return
				}
				onUpdate(records)
			}
		}()
		return unsubscribeOnce(cancel), nil
	}

	it := buildQuery(s.client.Collection(collection), q).Snapshots(subCtx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				logListenerEnd(logger, subCtx, err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Warn("failed to read snapshot documents", zap.Error(err))
				continue
			}
			records := make([]docstore.Record, 0, len(docs))
			for _, d := range docs {
				records = append(records, fromSnapshot(d))
			}
			if subCtx.Err() != nil {
				return
			}
			onUpdate(records)
		}
	}()
	return unsubscribeOnce(cancel), nil
}

// Close releases the Firestore client.
func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

func buildQuery(coll *gcfirestore.CollectionRef, q docstore.Query) gcfirestore.Query {
	query := coll.Query
	for _, f := range q.Filters {
		if f.Field == docstore.FieldID {
			if id, ok := f.Value.(string); ok {
				query = query.Where(gcfirestore.DocumentID, "==", coll.Doc(id))
				continue
			}
		}
		query = query.Where(f.Field, "==", f.Value)
	}
	for _, o := range q.OrderBy {
		dir := gcfirestore.Asc
		if o.Desc {
			dir = gcfirestore.Desc
		}
		query = query.OrderBy(fieldPath(o.Field), dir)
	}
	query = query.OrderBy(gcfirestore.DocumentID, gcfirestore.Asc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func fieldPath(field string) string {
	if field == docstore.FieldID {
		return gcfirestore.DocumentID
	}
	return field
}

func toFirestore(doc docstore.Document) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if v == docstore.ServerTimestamp {
			out[k] = gcfirestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

func fromSnapshot(snap *gcfirestore.DocumentSnapshot) docstore.Record {
	data := snap.Data()
	rec := docstore.Record{ID: snap.Ref.ID, Data: make(docstore.Document, len(data))}
	for k, v := range data {
		rec.Data[k] = docstore.Normalize(v)
	}
	return rec
}

func mapWriteError(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return docstore.NewWriteError(op, collection, id, docstore.ErrNotFound)
	}
	return docstore.NewWriteError(op, collection, id, err)
}

func logListenerEnd(logger *zap.Logger, ctx context.Context, err error) {
	if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
		return
	}
	logger.Warn("snapshot listener stopped", zap.Error(err))
}

func unsubscribeOnce(cancel context.CancelFunc) docstore.Unsubscribe {
	var once sync.Once
	return func() { once.Do(cancel) }
}
