package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps each document as a hash: one field per leaf path
// ("2025-W1.Monday.0"), the value JSON encoded. HSET on a single field is
// atomic, so writes to different leaves never interfere.
// Setting a path drops the fields below it. On read, a path that is a prefix
// of another one is resolved in favour of the longer.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
}

func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		rdb:       rdb,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

func (s *RedisStore) Fetch(ctx context.Context, ids ...string) (_ map[string]Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.redis.fetch")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	docs := make(map[string]Document, len(ids))
	for _, id := range ids {
		fields, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		docs[id] = decodeFields(id, fields)
	}
	return docs, nil
}

func decodeFields(id string, fields map[string]string) Document {
	// shorter paths first, so deeper leaves win on conflicts
	paths := make([]string, 0, len(fields))
	for field := range fields {
		paths = append(paths, field)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "."), strings.Count(paths[j], ".")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})

	doc := Document{}
	for _, field := range paths {
		var value any
		if err := json.Unmarshal([]byte(fields[field]), &value); err != nil {
			log.Warnf("redis doc [%s], skipping field [%s]: %s", id, field, err)
			continue
		}
		SetIn(doc, strings.Split(field, "."), value)
	}
	return doc
}

func (s *RedisStore) SetPath(ctx context.Context, id string, path []string, value any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.redis.setpath")
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
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	key := s.key(id)
	field := strings.Join(path, ".")

	// leaves below field belong to the subtree being replaced
	fields, err := s.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("hkeys %s: %w", id, err)
	}
	var stale []string
	for _, f := range fields {
		if strings.HasPrefix(f, field+".") {
			stale = append(stale, f)
		}
	}

	if len(stale) == 0 {
		if err := s.rdb.HSet(ctx, key, field, string(encoded)).Err(); err != nil {
			return fmt.Errorf("hset %s %s: %w", id, field, err)
		}
		return nil
	}

	if _, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, stale...)
		pipe.HSet(ctx, key, field, string(encoded))
		return nil
	}); err != nil {
		return fmt.Errorf("replace %s %s: %w", id, field, err)
	}
	return nil
}

// Ensure is a no-op: an empty hash does not exist in redis, and a missing
// document already reads as empty.
func (s *RedisStore) Ensure(_ context.Context, _ ...string) error {
	return nil
}

// Close leaves the client open, it is shared with the rate limiter and
// closed by the server.
func (s *RedisStore) Close(_ context.Context) error {
	return nil
}
