package postgres

import (
	"testing"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

func TestEncodeDecodeKeepsInstants(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 59, 500, time.FixedZone("BRT", -3*3600))
	raw, err := encodeFields(records.Fields{"dataAprovacao": at, "status": "Aprovado"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := fields.Time("dataAprovacao")
	if !ok || !got.Equal(at) {
		t.Fatalf("expected %s, got %v", at, fields["dataAprovacao"])
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC instant, got %s", got.Location())
	}
	if fields.String("status") != "Aprovado" {
		t.Fatalf("unexpected status %v", fields["status"])
	}
}

func TestDateLayoutOrdersAsText(t *testing.T) {
	earlier := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC).Format(dateLayout)
	later := time.Date(2024, 12, 31, 23, 59, 59, 500_000_000, time.UTC).Format(dateLayout)
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
	if len(earlier) != len(later) {
		t.Fatalf("expected fixed width, got %d and %d", len(earlier), len(later))
	}
}

func TestDecodeLeavesUnrelatedObjects(t *testing.T) {
	fields, err := decodeFields([]byte(`{"meta":{"$date":"not a date"},"other":{"a":1,"b":2}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := fields.Time("meta"); ok {
		t.Fatal("malformed date must not decode as an instant")
	}
	if _, ok := fields["other"].(map[string]any); !ok {
		t.Fatalf("expected plain object, got %T", fields["other"])
	}
}

func TestRangePredicateRejectsMixedBounds(t *testing.T) {
	if _, _, _, err := rangePredicate("a", 3); records.KindOf(err) != records.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, low, high, err := rangePredicate(
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low != "2024-12-01T00:00:00.000000000Z" || high != "2025-01-01T00:00:00.000000000Z" {
		t.Fatalf("unexpected bounds %v %v", low, high)
	}
}
