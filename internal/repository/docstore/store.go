// Package docstore defines the realtime document store capability set the board
// relies on, and an in-memory implementation of it.
//
// Backends push full result sets (not deltas) to subscribers: once right after
// subscribing and again after every write that touches a document matching
// the subscription's filter, before or after the write.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// FieldID is a pseudo-field addressing the document identifier in filters and orderings.
const FieldID = "__name__"

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a flat field map. Values are limited to string, bool, int64,
// float64, time.Time and nil, plus the ServerTimestamp sentinel on writes.
type Document map[string]any

// Record is a stored document together with its identifier.
type Record struct {
	ID   string
	Data Document
}

type serverTimestamp struct{}

// ServerTimestamp asks the backend to stamp the field with its own clock at write time.
var ServerTimestamp any = serverTimestamp{}

// Filter is an equality predicate on a single field.
type Filter struct {
	Field string
	Value any
}

// Order sorts a result set by a field.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a live subscription: all filters must match, results are
// sorted by OrderBy with ties broken by identifier, and capped at Limit when positive.
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
}

// Where returns a copy of q with an additional equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Sort returns a copy of q with an additional ordering.
func (q Query) Sort(field string, desc bool) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Desc: desc})
	return q
}

// Take returns a copy of q limited to n results.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// ByID is a query matching the single document id.
func ByID(id string) Query {
	return Query{Filters: []Filter{{Field: FieldID, Value: id}}}
}

// SingleID reports whether q addresses exactly one document by id.
func (q Query) SingleID() (string, bool) {
	if len(q.Filters) != 1 || q.Filters[0].Field != FieldID {
		return "", false
	}
	id, ok := q.Filters[0].Value.(string)
	return id, ok
}

// Unsubscribe tears a subscription down. It is safe to call more than once.
// A callback already in flight may still complete; no new one starts afterwards.
type Unsubscribe func()

// Store is the capability set required from the realtime document store.
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Get(ctx context.Context, collection, id string) (Record, error)
	Subscribe(ctx context.Context, collection string, q Query, onUpdate func([]Record)) (Unsubscribe, error)
	IncrementField(ctx context.Context, collection, id, field string, delta int64) error
	Update(ctx context.Context, collection, id string, fields Document) error
	Close(ctx context.Context) error
}

// WriteError reports a rejected create, update or increment.
type WriteError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewWriteError wraps err unless it is nil.
func NewWriteError(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	return &WriteError{Op: op, Collection: collection, ID: id, Err: err}
}
