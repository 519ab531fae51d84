package docstore

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps documents in process memory. Used for local development
// and tests.
type MemoryStore struct {
	docs   map[string]Document
	closed bool
	mutex  sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
	}
}

func (s *MemoryStore) Fetch(_ context.Context, ids ...string) (map[string]Document, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	docs := make(map[string]Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			docs[id] = cloneDocument(doc)
		}
	}
	return docs, nil
}

func (s *MemoryStore) SetPath(_ context.Context, id string, path []string, value any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	plain, err := PlainValue(value)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}

	doc, ok := s.docs[id]
	if !ok {
		doc = Document{}
		s.docs[id] = doc
	}
	SetIn(doc, path, plain)
	return nil
}

func (s *MemoryStore) Ensure(_ context.Context, ids ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}

	for _, id := range ids {
		if _, ok := s.docs[id]; !ok {
			s.docs[id] = Document{}
		}
	}
	return nil
}

// Put replaces a whole document. It is meant for seeding test data, for
// example weights in the legacy per-week shape.
func (s *MemoryStore) Put(id string, doc Document) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.docs[id] = cloneDocument(doc)
}

func (s *MemoryStore) Close(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}
