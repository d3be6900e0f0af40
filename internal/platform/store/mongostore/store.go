package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

// Store maps each partition to a collection of the same name.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	id := primitive.NewObjectID()
	doc := toBSON(fields)
	doc["_id"] = id
	if _, err := s.db.Collection(partition).InsertOne(ctx, doc); err != nil {
		return "", wrap("mongo insert", err)
	}
	return id.Hex(), nil
}

func (s *Store) Get(ctx context.Context, partition, id string) (records.Fields, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, records.ErrNotFound
	}
	var doc bson.M
	err = s.db.Collection(partition).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, wrap("mongo get", err)
	}
	_, fields := fromBSON(doc)
	return fields, nil
}

func (s *Store) Update(ctx context.Context, partition, id string, fields records.Fields) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return records.ErrNotFound
	}
	res, err := s.db.Collection(partition).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": toBSON(fields)})
	if err != nil {
		return wrap("mongo update", err)
	}
	if res.MatchedCount == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partition, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return records.ErrNotFound
	}
	res, err := s.db.Collection(partition).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrap("mongo delete", err)
	}
	if res.DeletedCount == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) QueryEquals(ctx context.Context, partition, field string, value any) ([]records.Document, error) {
	return s.find(ctx, partition, bson.M{field: toBSONValue(value)})
}

func (s *Store) QueryRange(ctx context.Context, partition, field string, low, high any) ([]records.Document, error) {
	return s.find(ctx, partition, bson.M{field: bson.M{"$gte": toBSONValue(low), "$lt": toBSONValue(high)}})
}

func (s *Store) ListAll(ctx context.Context, partition string) ([]records.Document, error) {
	return s.find(ctx, partition, bson.M{})
}

func (s *Store) find(ctx context.Context, partition string, filter bson.M) ([]records.Document, error) {
	cursor, err := s.db.Collection(partition).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrap("mongo find", err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrap("mongo find", err)
	}
	out := make([]records.Document, 0, len(docs))
	for _, doc := range docs {
		id, fields := fromBSON(doc)
		out = append(out, records.Document{ID: id, Fields: fields})
	}
	return out, nil
}

func wrap(op string, err error) error {
	if mongo.IsTimeout(err) {
		return records.Wrap(op, records.ErrTimeout)
	}
	return records.Wrap(op, err)
}

func toBSON(fields records.Fields) bson.M {
	doc := make(bson.M, len(fields))
	for key, value := range fields {
		doc[key] = toBSONValue(value)
	}
	return doc
}

func toBSONValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return primitive.NewDateTimeFromTime(v)
	case *time.Time:
		if v == nil {
			return nil
		}
		return primitive.NewDateTimeFromTime(*v)
	default:
		return value
	}
}

func fromBSON(doc bson.M) (string, records.Fields) {
	id := ""
	fields := make(records.Fields, len(doc))
	for key, value := range doc {
		if key == "_id" {
			switch oid := value.(type) {
			case primitive.ObjectID:
				id = oid.Hex()
			case string:
				id = oid
			}
			continue
		}
		fields[key] = fromBSONValue(value)
	}
	return id, fields
}

func fromBSONValue(value any) any {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	case primitive.ObjectID:
		return v.Hex()
	case int32:
		return int64(v)
	default:
		return value
	}
}
