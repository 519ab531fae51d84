package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Store = (*PostgresStore)(nil)

const createDocumentTable = `
	CREATE TABLE IF NOT EXISTS fittrack_document (
		id         TEXT PRIMARY KEY,
		body       JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresStore keeps one JSONB row per document. A path set locks the row
// for the duration of a short transaction, so concurrent writes to the same
// document are applied one after another and never lose sibling fields.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates the document table if missing. The pool is owned
// by the store and closed with it.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, createDocumentTable); err != nil {
		return nil, fmt.Errorf("create document table: %w", err)
	}
	return &PostgresStore{
		db: db,
	}, nil
}

func (s *PostgresStore) Fetch(ctx context.Context, ids ...string) (_ map[string]Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.postgres.fetch")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.StringSlice("ids", ids))

	rows, err := s.db.Query(ctx, `
		SELECT id, body
		FROM fittrack_document
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]Document, len(ids))
	for rows.Next() {
		var (
			id   string
			body map[string]any
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if body == nil {
			body = map[string]any{}
		}
		docs[id] = body
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

func (s *PostgresStore) SetPath(ctx context.Context, id string, path []string, value any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.postgres.setpath")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("id", id), attribute.StringSlice("path", path))

	if err := ValidatePath(path); err != nil {
		return err
	}
	plain, err := PlainValue(value)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO fittrack_document (id, body)
		VALUES ($1, '{}'::jsonb)
		ON CONFLICT (id) DO NOTHING
	`, id); err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}

	var body map[string]any
	if err = tx.QueryRow(ctx, `
		SELECT body
		FROM fittrack_document
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&body); err != nil {
		return fmt.Errorf("lock document %s: %w", id, err)
	}
	if body == nil {
		body = map[string]any{}
	}

	SetIn(body, path, plain)

	updated, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", id, err)
	}
	if _, err = tx.Exec(ctx, `
		UPDATE fittrack_document
		SET body = $2::jsonb, updated_at = now()
		WHERE id = $1
	`, id, string(updated)); err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}

	return nil
}

func (s *PostgresStore) Ensure(ctx context.Context, ids ...string) error {
	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(`
			INSERT INTO fittrack_document (id, body)
			VALUES ($1, '{}'::jsonb)
			ON CONFLICT (id) DO NOTHING
		`, id)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("ensure documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(_ context.Context) error {
	s.db.Close()
	return nil
}
