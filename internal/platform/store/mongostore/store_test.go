package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/records/recordstest"
)

func TestBSONRoundTripOfInstants(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	oid := primitive.NewObjectID()
	doc := toBSON(records.Fields{"dataAprovacao": at, "status": "Aprovado"})
	doc["_id"] = oid

	id, fields := fromBSON(doc)
	if id != oid.Hex() {
		t.Fatalf("expected id %s, got %s", oid.Hex(), id)
	}
	if _, ok := fields["_id"]; ok {
		t.Fatal("_id must not leak into fields")
	}
	got, ok := fields.Time("dataAprovacao")
	if !ok || !got.Equal(at) {
		t.Fatalf("expected %s, got %v", at, fields["dataAprovacao"])
	}
}

func TestFromBSONNormalizesScalars(t *testing.T) {
	_, fields := fromBSON(bson.M{"_id": "legacy-id", "n": int32(7), "ref": primitive.NilObjectID})
	if fields["n"] != int64(7) {
		t.Fatalf("expected int64, got %T", fields["n"])
	}
	if fields["ref"] != primitive.NilObjectID.Hex() {
		t.Fatalf("expected hex id, got %v", fields["ref"])
	}
}

func TestStoreContractIntegration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("apontamento_test_%d", time.Now().UnixNano())
	store, err := Connect(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() {
		_ = store.db.Drop(ctx)
		_ = store.Close(ctx)
	}()

	n := 0
	recordstest.Run(t, store, func() string {
		n++
		return fmt.Sprintf("partition_%d", n)
	})
}
