package docstore

import (
	"context"
	"errors"
)

// Fixed document ids used by the tracker.
const (
	StatusDocID  = "status"
	WeightsDocID = "weights"
)

var (
	ErrInvalidPath = errors.New("invalid document path")
	ErrClosed      = errors.New("document store closed")
)

// Document is the body of one stored document: string keys mapping to
// nested documents or leaf values. Values are always plain JSON-like Go
// values (map[string]any, []any, string, float64, bool, nil).
type Document map[string]any

// Store keeps documents addressed by id.
type Store interface {
	// Fetch returns the requested documents. Ids without a stored document
	// are absent from the result, which is not an error.
	Fetch(ctx context.Context, ids ...string) (map[string]Document, error)
	// SetPath sets one nested field, creating the document and every
	// missing container on the way. Sibling fields are left untouched.
	SetPath(ctx context.Context, id string, path []string, value any) error
	// Ensure creates the documents with an empty body if they do not exist.
	Ensure(ctx context.Context, ids ...string) error
	Close(ctx context.Context) error
}
