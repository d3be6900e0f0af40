package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

type entry struct {
	seq    uint64
	fields records.Fields
}

// Store keeps partitions in process memory. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	seq        uint64
	partitions map[string]map[string]entry
}

func New() *Store {
	return &Store{partitions: map[string]map[string]entry{}}
}

func (s *Store) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", records.Wrap("memory insert", err)
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.partitions[partition]
	if !ok {
		docs = map[string]entry{}
		s.partitions[partition] = docs
	}
	s.seq++
	docs[id] = entry{seq: s.seq, fields: normalize(fields)}
	return id, nil
}

func (s *Store) Get(ctx context.Context, partition, id string) (records.Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, records.Wrap("memory get", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.partitions[partition][id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return doc.fields.Clone(), nil
}

func (s *Store) Update(ctx context.Context, partition, id string, fields records.Fields) error {
	if err := ctx.Err(); err != nil {
		return records.Wrap("memory update", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.partitions[partition][id]
	if !ok {
		return records.ErrNotFound
	}
	merged := doc.fields.Clone()
	for key, value := range normalize(fields) {
		merged[key] = value
	}
	s.partitions[partition][id] = entry{seq: doc.seq, fields: merged}
	return nil
}

func (s *Store) Delete(ctx context.Context, partition, id string) error {
	if err := ctx.Err(); err != nil {
		return records.Wrap("memory delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partitions[partition][id]; !ok {
		return records.ErrNotFound
	}
	delete(s.partitions[partition], id)
	return nil
}

func (s *Store) QueryEquals(ctx context.Context, partition, field string, value any) ([]records.Document, error) {
	want := normalizeValue(value)
	return s.filter(ctx, partition, func(fields records.Fields) bool {
		got, ok := fields[field]
		if !ok {
			return false
		}
		cmp, comparable := compare(got, want)
		return comparable && cmp == 0
	})
}

func (s *Store) QueryRange(ctx context.Context, partition, field string, low, high any) ([]records.Document, error) {
	low, high = normalizeValue(low), normalizeValue(high)
	return s.filter(ctx, partition, func(fields records.Fields) bool {
		got, ok := fields[field]
		if !ok {
			return false
		}
		lowCmp, okLow := compare(got, low)
		highCmp, okHigh := compare(got, high)
		return okLow && okHigh && lowCmp >= 0 && highCmp < 0
	})
}

func (s *Store) ListAll(ctx context.Context, partition string) ([]records.Document, error) {
	return s.filter(ctx, partition, func(records.Fields) bool { return true })
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// filter returns matches in insertion order.
func (s *Store) filter(ctx context.Context, partition string, match func(records.Fields) bool) ([]records.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, records.Wrap("memory query", err)
	}
	s.mu.RLock()
	type hit struct {
		seq uint64
		doc records.Document
	}
	hits := make([]hit, 0)
	for id, doc := range s.partitions[partition] {
		if match(doc.fields) {
			hits = append(hits, hit{seq: doc.seq, doc: records.Document{ID: id, Fields: doc.fields.Clone()}})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	out := make([]records.Document, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out, nil
}

func normalize(fields records.Fields) records.Fields {
	out := make(records.Fields, len(fields))
	for key, value := range fields {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC()
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC()
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}

// compare orders two normalized values of the same type.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok || av != bv {
			return 1, ok
		}
		return 0, true
	case nil:
		return 0, b == nil
	default:
		return 0, false
	}
}
