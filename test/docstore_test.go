package test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/docstore"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeConformance runs the path-set contract against a freshly created,
// empty store.
func storeConformance(t *testing.T, store docstore.Store) {
	ctx := context.Background()

	docs, err := store.Fetch(ctx, docstore.StatusDocID)
	require.NoError(t, err)
	assert.Empty(t, docs[docstore.StatusDocID])

	require.NoError(t, store.Ensure(ctx, docstore.StatusDocID, docstore.WeightsDocID))
	require.NoError(t, store.Ensure(ctx, docstore.StatusDocID, docstore.WeightsDocID))

	require.NoError(t, store.SetPath(ctx, docstore.StatusDocID, []string{"2025-W9", "Monday", "0"}, true))
	require.NoError(t, store.SetPath(ctx, docstore.StatusDocID, []string{"2025-W9", "Monday", "1"}, true))
	require.NoError(t, store.SetPath(ctx, docstore.StatusDocID, []string{"2025-W9", "Monday", "1"}, true))
	require.NoError(t, store.SetPath(ctx, docstore.StatusDocID, []string{"2025-W9", "Monday", "0"}, false))
	require.NoError(t, store.SetPath(ctx, docstore.WeightsDocID, []string{"Monday", "squat"}, map[string]string{
		"Andy": "20", "Petronela": "10",
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.SetPath(ctx, docstore.StatusDocID, []string{"2025-W10", "Friday", fmt.Sprint(i)}, true))
		}(i)
	}
	wg.Wait()

	docs, err = store.Fetch(ctx, docstore.StatusDocID, docstore.WeightsDocID)
	require.NoError(t, err)

	status := docs[docstore.StatusDocID]
	assert.Equal(t, map[string]any{"Monday": map[string]any{"0": false, "1": true}}, status["2025-W9"])
	assert.Len(t, status["2025-W10"].(map[string]any)["Friday"], 8)
	assert.Equal(t, docstore.Document{
		"Monday": map[string]any{"squat": map[string]any{"Andy": "20", "Petronela": "10"}},
	}, docs[docstore.WeightsDocID])

	assert.ErrorIs(t, store.SetPath(ctx, docstore.StatusDocID, []string{"a.b"}, true), docstore.ErrInvalidPath)
}

func (s *IntegrationTestSuite) TestDocstoreMongo() {
	ctx := context.Background()
	store, err := docstore.NewMongoStore(ctx, docstore.MongoParams{
		URI:        s.mongoURI,
		Database:   testDBName,
		Collection: "conformance",
	})
	require.NoError(s.T(), err)
	defer func() {
		assert.NoError(s.T(), store.Close(ctx))
	}()

	storeConformance(s.T(), store)
}

func (s *IntegrationTestSuite) TestDocstorePostgres() {
	ctx := context.Background()
	t := s.T()

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: "localhost",
		DBPort: s.postgresPort,
		DBName: testDBName,
	})
	require.NoError(t, err)

	store, err := docstore.NewPostgresStore(ctx, pool)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, store.Close(ctx))
	}()

	storeConformance(t, store)

	// rows are plain jsonb, readable with any client
	var body string
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT body->'2025-W9'->'Monday'->>'1' FROM fittrack_document WHERE id = $1`,
		docstore.StatusDocID,
	).Scan(&body))
	assert.Equal(t, "true", body)
}

func (s *IntegrationTestSuite) TestDocstoreRedis() {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: net.JoinHostPort("localhost", s.redisPort)})
	defer rdb.Close()

	store := docstore.NewRedisStore(rdb, "conformance:")
	defer func() {
		assert.NoError(s.T(), store.Close(ctx))
	}()

	storeConformance(s.T(), store)

	fields, err := rdb.HGetAll(ctx, "conformance:"+docstore.StatusDocID).Result()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "true", fields["2025-W9.Monday.1"])
}
