package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/platform/querier"
)

// Store keeps every partition in the documents table as JSONB.
type Store struct {
	DB querier.Querier
}

func New(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return "", records.Wrap("postgres insert", err)
	}
	id := uuid.NewString()
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO documents (partition, id, fields)
    VALUES ($1, $2, $3::jsonb)
  `, partition, id, string(payload)); err != nil {
		return "", records.Wrap("postgres insert", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, partition, id string) (records.Fields, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, records.ErrNotFound
	}
	var raw []byte
	err := s.DB.QueryRow(ctx, `
    SELECT fields FROM documents WHERE partition = $1 AND id = $2
  `, partition, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, records.Wrap("postgres get", err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, records.Wrap("postgres get", err)
	}
	return fields, nil
}

func (s *Store) Update(ctx context.Context, partition, id string, fields records.Fields) error {
	if _, err := uuid.Parse(id); err != nil {
		return records.ErrNotFound
	}
	payload, err := encodeFields(fields)
	if err != nil {
		return records.Wrap("postgres update", err)
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE documents
    SET fields = fields || $3::jsonb, updated_at = now()
    WHERE partition = $1 AND id = $2
  `, partition, id, string(payload))
	if err != nil {
		return records.Wrap("postgres update", err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partition, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return records.ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM documents WHERE partition = $1 AND id = $2
  `, partition, id)
	if err != nil {
		return records.Wrap("postgres delete", err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) QueryEquals(ctx context.Context, partition, field string, value any) ([]records.Document, error) {
	payload, err := json.Marshal(encodeValue(value))
	if err != nil {
		return nil, records.Wrap("postgres query", err)
	}
	return s.query(ctx, `
    SELECT id::text, fields FROM documents
    WHERE partition = $1 AND fields -> $2 = $3::jsonb
    ORDER BY seq
  `, partition, field, string(payload))
}

func (s *Store) QueryRange(ctx context.Context, partition, field string, low, high any) ([]records.Document, error) {
	predicate, lowArg, highArg, err := rangePredicate(low, high)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `
    SELECT id::text, fields FROM documents
    WHERE partition = $1 AND `+predicate+`
    ORDER BY seq
  `, partition, field, lowArg, highArg)
}

func (s *Store) ListAll(ctx context.Context, partition string) ([]records.Document, error) {
	return s.query(ctx, `
    SELECT id::text, fields FROM documents WHERE partition = $1 ORDER BY seq
  `, partition)
}

func (s *Store) Ping(ctx context.Context) error {
	if pinger, ok := s.DB.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	_, err := s.DB.Exec(ctx, "SELECT 1")
	return err
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]records.Document, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, records.Wrap("postgres query", err)
	}
	defer rows.Close()

	out := make([]records.Document, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, records.Wrap("postgres scan", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, records.Wrap("postgres decode", err)
		}
		out = append(out, records.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, records.Wrap("postgres query", err)
	}
	return out, nil
}

// rangePredicate compares $2-named field against $3 and $4. Both bounds must
// share a type.
func rangePredicate(low, high any) (string, any, any, error) {
	lowTime, lowIsTime := asTime(low)
	highTime, highIsTime := asTime(high)
	if lowIsTime && highIsTime {
		return `fields -> $2 ->> '$date' >= $3 AND fields -> $2 ->> '$date' < $4`,
			lowTime.UTC().Format(dateLayout), highTime.UTC().Format(dateLayout), nil
	}

	lowNum, lowIsNum := asFloat(low)
	highNum, highIsNum := asFloat(high)
	if lowIsNum && highIsNum {
		return `CASE WHEN jsonb_typeof(fields -> $2) = 'number' THEN (fields ->> $2)::numeric END >= $3
      AND CASE WHEN jsonb_typeof(fields -> $2) = 'number' THEN (fields ->> $2)::numeric END < $4`,
			lowNum, highNum, nil
	}

	lowStr, lowIsStr := low.(string)
	highStr, highIsStr := high.(string)
	if lowIsStr && highIsStr {
		return `jsonb_typeof(fields -> $2) = 'string'
      AND (fields ->> $2) COLLATE "C" >= $3 AND (fields ->> $2) COLLATE "C" < $4`,
			lowStr, highStr, nil
	}

	return "", nil, nil, records.Invalid("range", fmt.Sprintf("unsupported bounds %T and %T", low, high))
}

func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	}
	return time.Time{}, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
