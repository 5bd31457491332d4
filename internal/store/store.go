// Package store owns the authoritative, ordered transaction collection and
// writes it to durable storage after every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tracker/internal/core"
	"tracker/internal/events"
	"tracker/internal/log"
	"tracker/internal/metrics"
	"tracker/internal/storage"
)

// ErrPersistence matches every *PersistenceError.
var ErrPersistence = errors.New("persistence failed")

// PersistenceError reports a durable write (or read) that failed. When it
// is returned from a mutation the in-memory state already reflects it.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s (%s): %v", e.Key, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Store is the single source of truth for transactions.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	items   []core.Transaction
	ids     map[string]struct{}
	version uint64

	newID     func() string
	publisher events.Publisher
	metrics   *metrics.Recorder
	logger    *log.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithPublisher sends change events after every mutation.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithMetrics records mutations on the given recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// NewID returns a time-ordered UUID string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load reads the persisted collection from kv. A missing key yields an
// empty store; unreadable data is an error rather than silent data loss.
// Records whose type is neither income nor expense are kept as stored and
// logged, and count toward no total.
func Load(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:        kv,
		ids:       make(map[string]struct{}),
		newID:     NewID,
		publisher: events.Nop{},
		logger:    log.Default(log.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, found, err := kv.Get(ctx, storage.KeyTransactions)
	if err != nil {
		return nil, &PersistenceError{Op: log.OpLoad, Key: storage.KeyTransactions, Err: err}
	}
	if found && raw != "" {
		var items []core.Transaction
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("decode stored transactions: %w", err)
		}
		for _, t := range items {
			if t.ID == "" {
				t.ID = s.freshID()
			}
			if !t.Type.IsValid() {
				s.logger.WarnContext(ctx, "Stored transaction has unknown type",
					log.FieldTxID, t.ID, "type", string(t.Type))
			}
			s.items = append(s.items, t)
			s.ids[t.ID] = struct{}{}
		}
	}

	s.metrics.SetTransactions(len(s.items))
	s.logger.InfoContext(ctx, "Transactions loaded", log.FieldCount, len(s.items), log.FieldKey, storage.KeyTransactions)
	return s, nil
}

// freshID returns an id not used by any transaction. Callers hold s.mu.
func (s *Store) freshID() string {
	for {
		id := s.newID()
		if _, taken := s.ids[id]; !taken {
			return id
		}
	}
}

// Add validates input and appends a new transaction. Invalid input leaves
// the store untouched and returns a *core.ValidationError.
func (s *Store) Add(ctx context.Context, in core.Input) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := core.NewTransaction(s.freshID(), in)
	if err != nil {
		s.metrics.Mutation(log.OpCreate, "invalid")
		return core.Transaction{}, err
	}

	s.items = append(s.items, t)
	s.ids[t.ID] = struct{}{}
	s.version++

	s.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().WithTransaction(t.ID, string(t.Type), t.Category, t.Amount.String()).ToSlice()...)

	err = s.persist(ctx, log.OpCreate)
	s.publish(ctx, events.NewEvent(events.KindAdded, t.ID))
	return t, err
}

// Remove deletes the transaction with id. Unknown ids are a no-op and
// nothing is written.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.items {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.version++
	// ids stays in s.ids so it is never handed out again.

	s.logger.InfoContext(ctx, "Transaction removed", log.FieldTxID, id)

	err := s.persist(ctx, log.OpDelete)
	s.publish(ctx, events.NewEvent(events.KindRemoved, id))
	return err
}

// Append validates every input and appends them all, each with a fresh id.
// If any input is invalid nothing is appended.
func (s *Store) Append(ctx context.Context, inputs []core.Input) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]core.Transaction, 0, len(inputs))
	reserved := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		var id string
		for {
			id = s.freshID()
			if _, dup := reserved[id]; !dup {
				break
			}
		}
		reserved[id] = struct{}{}

		t, err := core.NewTransaction(id, in)
		if err != nil {
			s.metrics.Mutation(log.OpImport, "invalid")
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		added = append(added, t)
	}
	if len(added) == 0 {
		return added, nil
	}

	ids := make([]string, len(added))
	for i, t := range added {
		s.ids[t.ID] = struct{}{}
		ids[i] = t.ID
	}
	s.items = append(s.items, added...)
	s.version++

	s.logger.InfoContext(ctx, "Transactions imported", log.FieldCount, len(added))

	err := s.persist(ctx, log.OpImport)
	s.publish(ctx, events.NewEvent(events.KindImported, ids...))
	return added, err
}

// ReplaceAll swaps the whole collection. Records without an id, or whose
// id repeats within records, get a fresh one. Every record must pass the
// same validation as Add; if one does not, nothing is replaced.
func (s *Store) ReplaceAll(ctx context.Context, records []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range records {
		if _, err := core.NewTransaction(t.ID, t.Input()); err != nil {
			s.metrics.Mutation(log.OpReplace, "invalid")
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	for _, t := range records {
		if t.ID != "" {
			s.ids[t.ID] = struct{}{}
		}
	}
	seen := make(map[string]struct{}, len(records))
	items := make([]core.Transaction, 0, len(records))
	for _, t := range records {
		if _, dup := seen[t.ID]; t.ID == "" || dup {
			t.ID = s.freshID()
			s.ids[t.ID] = struct{}{}
		}
		seen[t.ID] = struct{}{}
		items = append(items, t)
	}
	s.items = items
	s.version++

	s.logger.InfoContext(ctx, "Transactions replaced", log.FieldCount, len(items))

	err := s.persist(ctx, log.OpReplace)
	s.publish(ctx, events.NewEvent(events.KindReplaced))
	return err
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

// Snapshot returns a copy of the collection together with its version.
func (s *Store) Snapshot() ([]core.Transaction, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), s.version
}

// Categories returns the distinct categories currently in use, sorted.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Categories(s.items)
}

// Len returns the number of transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Version increases on every mutation and identifies a collection state.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// persist writes the collection. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, op string) error {
	s.metrics.SetTransactions(len(s.items))

	items := s.items
	if items == nil {
		items = []core.Transaction{}
	}
	body, err := json.Marshal(items)
	if err == nil {
		err = s.kv.Set(ctx, storage.KeyTransactions, string(body))
	}
	if err != nil {
		s.metrics.Mutation(op, "persist_error")
		s.logger.ErrorContext(ctx, "Failed to persist transactions",
			log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
		return &PersistenceError{Op: op, Key: storage.KeyTransactions, Err: err}
	}
	s.metrics.Mutation(op, "ok")
	return nil
}

func (s *Store) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		// The mutation stands; listeners simply miss this notice.
		s.logger.WarnContext(ctx, "Failed to publish change event", "kind", e.Kind, log.FieldError, err)
	}
}
