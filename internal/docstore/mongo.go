package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Store = (*MongoStore)(nil)

// MongoStore keeps every document in one collection. A document with id X
// is stored as {_id: X, X: <body>}, so field paths are addressed as "X.a.b".
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type MongoParams struct {
	URI        string
	Database   string
	Collection string
}

func NewMongoStore(ctx context.Context, params MongoParams) (*MongoStore, error) {
	if params.URI == "" {
		return nil, fmt.Errorf("no mongo uri configured")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(params.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			log.Warnf("mongo disconnect after failed ping: %s", dErr)
		}
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Debugf("connected to mongo, db [%s], collection [%s]", params.Database, params.Collection)

	return &MongoStore{
		client:     client,
		collection: client.Database(params.Database).Collection(params.Collection),
	}, nil
}

func (s *MongoStore) Fetch(ctx context.Context, ids ...string) (_ map[string]Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.mongo.fetch")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.StringSlice("ids", ids))

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer func() {
		if cErr := cursor.Close(ctx); cErr != nil {
			log.Warnf("close mongo cursor: %s", cErr)
		}
	}()

	docs := make(map[string]Document, len(ids))
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		id, ok := raw["_id"].(string)
		if !ok {
			continue
		}
		body, _ := plainBSON(raw[id]).(map[string]any)
		if body == nil {
			body = map[string]any{}
		}
		docs[id] = body
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

func (s *MongoStore) SetPath(ctx context.Context, id string, path []string, value any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.mongo.setpath")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ValidatePath(path); err != nil {
		return err
	}
	plain, err := PlainValue(value)
	if err != nil {
		return err
	}

	field := id + "." + strings.Join(path, ".")
	span.SetAttributes(attribute.String("field", field))

	_, err = s.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: plain}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

func (s *MongoStore) Ensure(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		_, err := s.collection.UpdateOne(
			ctx,
			bson.M{"_id": id},
			bson.M{"$setOnInsert": bson.M{id: bson.M{}}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("ensure document %s: %w", id, err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// plainBSON turns decoded bson values into the plain shapes used by
// Document: maps, slices, float64 numbers.
func plainBSON(v any) any {
	switch typed := v.(type) {
	case bson.M:
		return plainMap(typed)
	case map[string]any:
		return plainMap(typed)
	case bson.D:
		m := make(map[string]any, len(typed))
		for _, e := range typed {
			m[e.Key] = plainBSON(e.Value)
		}
		return m
	case bson.A:
		return plainSlice(typed)
	case []any:
		return plainSlice(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	plain := make(map[string]any, len(m))
	for k, v := range m {
		plain[k] = plainBSON(v)
	}
	return plain
}

func plainSlice(s []any) []any {
	plain := make([]any, len(s))
	for i := range s {
		plain[i] = plainBSON(s[i])
	}
	return plain
}
