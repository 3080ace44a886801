package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
)

type memoryEntry struct {
	doc       domain.Document
	revisions []domain.Revision
	remarks   []domain.Remark
}

// MemoryStore keeps everything in process. Entries are never removed and
// ledgers only grow, so ids and sequence numbers stay stable.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	order   []string
	docNos  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		docNos:  make(map[string]string),
	}
}

func (s *MemoryStore) CreateDocument(_ context.Context, doc domain.Document, initial *domain.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[doc.ID]; ok {
		return fmt.Errorf("%w: document %s already exists", domain.ErrConflict, doc.ID)
	}
	key := docNoKey(doc.ProjectCode, doc.DocumentNo)
	if _, ok := s.docNos[key]; ok {
		return fmt.Errorf("%w: document number %s already used in project %s", domain.ErrConflict, doc.DocumentNo, doc.ProjectCode)
	}

	e := &memoryEntry{doc: doc}
	if initial != nil {
		e.revisions = append(e.revisions, *initial)
	}
	s.entries[doc.ID] = e
	s.order = append(s.order, doc.ID)
	s.docNos[key] = doc.ID
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	doc := e.doc
	return &doc, nil
}

func (s *MemoryStore) UpdateDocument(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[doc.ID]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}

	oldKey := docNoKey(e.doc.ProjectCode, e.doc.DocumentNo)
	newKey := docNoKey(doc.ProjectCode, doc.DocumentNo)
	if newKey != oldKey {
		if _, taken := s.docNos[newKey]; taken {
			return fmt.Errorf("%w: document number %s already used in project %s", domain.ErrConflict, doc.DocumentNo, doc.ProjectCode)
		}
		delete(s.docNos, oldKey)
		s.docNos[newKey] = doc.ID
	}
	e.doc = doc
	return nil
}

func (s *MemoryStore) AppendRevision(_ context.Context, doc domain.Document, rev domain.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[doc.ID]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	for _, r := range e.revisions {
		if r.RevisionNo == rev.RevisionNo {
			return fmt.Errorf("%w: revision %d already exists", domain.ErrConflict, rev.RevisionNo)
		}
	}
	e.revisions = append(e.revisions, rev)
	e.doc = doc
	return nil
}

func (s *MemoryStore) ListRevisions(_ context.Context, documentID string) ([]domain.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return append([]domain.Revision{}, e.revisions...), nil
}

func (s *MemoryStore) AppendRemark(_ context.Context, doc domain.Document, rem domain.Remark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[doc.ID]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	e.remarks = append(e.remarks, rem)
	e.doc = doc
	return nil
}

func (s *MemoryStore) ListRemarks(_ context.Context, documentID string) ([]domain.Remark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return append([]domain.Remark{}, e.remarks...), nil
}

func (s *MemoryStore) Snapshot(_ context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	snap := e.snapshot()
	return &snap, nil
}

func (s *MemoryStore) Snapshots(_ context.Context) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Snapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].snapshot())
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func (e *memoryEntry) snapshot() domain.Snapshot {
	return domain.Snapshot{
		Document:  e.doc,
		Revisions: append([]domain.Revision{}, e.revisions...),
		Remarks:   append([]domain.Remark{}, e.remarks...),
	}
}
