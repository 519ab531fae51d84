package docstore

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

var _ Store = (*Handle)(nil)

// Opener connects to the underlying store.
type Opener func(ctx context.Context) (Store, error)

// Handle owns the store connection. The connection is opened on first use
// and reused afterwards; the documents in ensureIDs are created right after
// connecting so that path upserts always find their document.
// A failed open is not cached, the next call tries again.
type Handle struct {
	open      Opener
	ensureIDs []string

	mutex  sync.Mutex
	store  Store
	closed bool
}

func NewHandle(open Opener, ensureIDs ...string) *Handle {
	return &Handle{
		open:      open,
		ensureIDs: ensureIDs,
	}
}

func (h *Handle) get(ctx context.Context) (Store, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if h.store != nil {
		return h.store, nil
	}

	store, err := h.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	if len(h.ensureIDs) > 0 {
		if err := store.Ensure(ctx, h.ensureIDs...); err != nil {
			if closeErr := store.Close(ctx); closeErr != nil {
				log.Warnf("close document store after failed ensure: %s", closeErr)
			}
			return nil, fmt.Errorf("ensure documents %v: %w", h.ensureIDs, err)
		}
	}

	log.Debugf("document store connected, ensured docs: %v", h.ensureIDs)
	h.store = store
	return store, nil
}

func (h *Handle) Fetch(ctx context.Context, ids ...string) (map[string]Document, error) {
	store, err := h.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.Fetch(ctx, ids...)
}

func (h *Handle) SetPath(ctx context.Context, id string, path []string, value any) error {
	store, err := h.get(ctx)
	if err != nil {
		return err
	}
	return store.SetPath(ctx, id, path, value)
}

func (h *Handle) Ensure(ctx context.Context, ids ...string) error {
	store, err := h.get(ctx)
	if err != nil {
		return err
	}
	return store.Ensure(ctx, ids...)
}

// Close closes the underlying store if it was ever opened. The handle can't
// be used afterwards.
func (h *Handle) Close(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.closed = true
	if h.store == nil {
		return nil
	}
	err := h.store.Close(ctx)
	h.store = nil
	return err
}
