package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Each subscription owns a goroutine that
// delivers snapshots in commit order, so callbacks may write back to the store.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
	subs        map[string]map[uint64]*memorySub
	nextSub     uint64
	closed      bool

	now   func() time.Time
	newID func() string
}

// MemoryOption customizes a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the clock used for ServerTimestamp.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen func() string) MemoryOption {
	return func(m *Memory) { m.newID = gen }
}

// NewMemory builds an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		collections: make(map[string]map[string]Document),
		subs:        make(map[string]map[uint64]*memorySub),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create inserts doc under a generated identifier.
func (m *Memory) Create(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewWriteError("create", collection, "", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", NewWriteError("create", collection, "", errStoreClosed)
	}

	id := m.newID()
	m.writeLocked(collection, id, doc.ResolveTimestamps(m.now().UTC()))
	return id, nil
}

// Set creates or replaces the document with the given identifier.
func (m *Memory) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return NewWriteError("set", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return NewWriteError("set", collection, id, errStoreClosed)
	}

	m.writeLocked(collection, id, doc.ResolveTimestamps(m.now().UTC()))
	return nil
}

// Get reads a single document.
func (m *Memory) Get(ctx context.Context, collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	return Record{ID: id, Data: doc.Clone()}, nil
}

// IncrementField atomically adds delta to a numeric field, creating it at zero when absent.
func (m *Memory) IncrementField(ctx context.Context, collection, id, field string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return NewWriteError("increment", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return NewWriteError("increment", collection, id, ErrNotFound)
	}

	next := doc.Clone()
	switch cur := Normalize(next[field]).(type) {
	case float64:
		next[field] = cur + float64(delta)
	case int64:
		next[field] = cur + delta
	default:
		next[field] = delta
	}
	m.writeLocked(collection, id, next)
	return nil
}

// Update merges fields into an existing document, last write wins.
func (m *Memory) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return NewWriteError("update", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return NewWriteError("update", collection, id, ErrNotFound)
	}

	next := doc.Clone()
	for k, v := range fields.ResolveTimestamps(m.now().UTC()) {
		next[k] = v
	}
	m.writeLocked(collection, id, next)
	return nil
}

// Subscribe registers a live query. The first snapshot is queued immediately.
func (m *Memory) Subscribe(ctx context.Context, collection string, q Query, onUpdate func([]Record)) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	if onUpdate == nil {
		return nil, fmt.Errorf("subscribe %s: nil callback", collection)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", collection, errStoreClosed)
	}

	m.nextSub++
	id := m.nextSub
	sub := newMemorySub(q, onUpdate)
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[uint64]*memorySub)
	}
	m.subs[collection][id] = sub
	sub.enqueue(m.queryLocked(collection, q))
	m.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[collection], id)
			m.mu.Unlock()
			sub.stop()
		})
	}, nil
}

// Close stops every subscription and rejects further writes.
func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	m.closed = true
	var subs []*memorySub
	for _, byID := range m.subs {
		for _, s := range byID {
			subs = append(subs, s)
		}
	}
	m.subs = make(map[string]map[uint64]*memorySub)
	m.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	return nil
}

var errStoreClosed = fmt.Errorf("store closed")

// writeLocked stores doc and notifies subscriptions whose filter matched the
// document before or after the write.
func (m *Memory) writeLocked(collection, id string, doc Document) {
	coll := m.collections[collection]
	if coll == nil {
		coll = make(map[string]Document)
		m.collections[collection] = coll
	}

	before, existed := coll[id]
	coll[id] = doc

	for _, sub := range m.subs[collection] {
		touched := sub.query.Matches(Record{ID: id, Data: doc})
		if !touched && existed {
			touched = sub.query.Matches(Record{ID: id, Data: before})
		}
		if touched {
			sub.enqueue(m.queryLocked(collection, sub.query))
		}
	}
}

func (m *Memory) queryLocked(collection string, q Query) []Record {
	var out []Record
	for id, doc := range m.collections[collection] {
		r := Record{ID: id, Data: doc}
		if q.Matches(r) {
			out = append(out, Record{ID: id, Data: doc.Clone()})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return q.Less(out[i], out[j]) })

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// memorySub is an unbounded, ordered mailbox feeding one callback.
type memorySub struct {
	query    Query
	onUpdate func([]Record)

	mu     sync.Mutex
	queue  [][]Record
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newMemorySub(q Query, onUpdate func([]Record)) *memorySub {
	return &memorySub{
		query:    q,
		onUpdate: onUpdate,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *memorySub) enqueue(snapshot []Record) {
	s.mu.Lock()
	s.queue = append(s.queue, snapshot)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *memorySub) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.onUpdate(next)
		}
	}
}

// stop ends delivery. It does not wait when called from the callback itself.
func (s *memorySub) stop() {
	s.once.Do(func() { close(s.done) })
}
