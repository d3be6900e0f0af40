package records

import (
	"context"
	"time"
)

// Fields is the flat key/value body of a stored document. Instants are
// time.Time in UTC.
type Fields map[string]any

// Document is a stored record with its store-assigned id.
type Document struct {
	ID     string
	Fields Fields
}

// Store is the document store the attendance core depends on. Partitions are
// created on first insert.
type Store interface {
	// Insert writes a new document and returns its id.
	Insert(ctx context.Context, partition string, fields Fields) (string, error)
	// Get returns ErrNotFound when id is unknown in partition.
	Get(ctx context.Context, partition, id string) (Fields, error)
	// Update merges fields into an existing document in one write. Fields not
	// named keep their value. Returns ErrNotFound when id is unknown.
	Update(ctx context.Context, partition, id string, fields Fields) error
	// Delete removes a document. Returns ErrNotFound when id is unknown.
	Delete(ctx context.Context, partition, id string) error
	QueryEquals(ctx context.Context, partition, field string, value any) ([]Document, error)
	// QueryRange returns documents with low <= field < high.
	QueryRange(ctx context.Context, partition, field string, low, high any) ([]Document, error)
	ListAll(ctx context.Context, partition string) ([]Document, error)
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for key, value := range f {
		out[key] = value
	}
	return out
}

// String returns the field as a string, or "" when absent or not a string.
func (f Fields) String(key string) string {
	value, _ := f[key].(string)
	return value
}

// Time returns the field as an instant. Only time.Time and *time.Time values
// are recognized.
func (f Fields) Time(key string) (time.Time, bool) {
	switch value := f[key].(type) {
	case time.Time:
		return value, !value.IsZero()
	case *time.Time:
		if value == nil {
			return time.Time{}, false
		}
		return *value, !value.IsZero()
	default:
		return time.Time{}, false
	}
}

// Has reports whether key is present with a non-nil value.
func (f Fields) Has(key string) bool {
	value, ok := f[key]
	return ok && value != nil
}
