package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix    = "docreg:doc:"      // Document JSON: docreg:doc:{id}
	docNoKeyPrefix  = "docreg:docno:"    // Uniqueness index: docreg:docno:{len(project)}:{project}|{documentNo} -> id
	documentListKey = "docreg:documents" // Document ids in creation order
	eventChannel    = "docreg:events"    // Pub/Sub channel for document change events
	maxTxRetries    = 5
)

// storedDocument is the persisted form of a document. The manual approval
// override is kept here; it never appears in API responses.
type storedDocument struct {
	domain.Document
	ApprovalOverride domain.ApprovalStatus `json:"approvalOverride,omitempty"`
}

func encodeDocument(doc domain.Document) ([]byte, error) {
	return json.Marshal(storedDocument{Document: doc, ApprovalOverride: doc.ApprovalOverride})
}

func decodeDocument(data []byte) (domain.Document, error) {
	var sd storedDocument
	if err := json.Unmarshal(data, &sd); err != nil {
		return domain.Document{}, err
	}
	doc := sd.Document
	doc.ApprovalOverride = sd.ApprovalOverride
	return doc, nil
}

// DocumentEvent is published on EventChannel after every committed mutation
// for subscribers outside this service. Delivery is fire-and-forget.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId"`
	RevisionNo int       `json:"revisionNo,omitempty"`
	At         time.Time `json:"at"`
}

// RedisStore keeps documents as JSON strings and ledgers as Redis lists.
// Mutations run in WATCH/MULTI transactions.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// EventChannel is the Pub/Sub channel document events are published on.
func (s *RedisStore) EventChannel() string { return eventChannel }

func (s *RedisStore) CreateDocument(ctx context.Context, doc domain.Document, initial *domain.Revision) error {
	docKey := s.docKey(doc.ID)
	noKey := s.docNoKey(doc.ProjectCode, doc.DocumentNo)

	docData, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	var revData []byte
	if initial != nil {
		if revData, err = json.Marshal(initial); err != nil {
			return fmt.Errorf("failed to marshal revision: %w", err)
		}
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, docKey, noKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: document number %s already used in project %s", domain.ErrConflict, doc.DocumentNo, doc.ProjectCode)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, docKey, docData, 0)
			pipe.Set(ctx, noKey, doc.ID, 0)
			pipe.RPush(ctx, documentListKey, doc.ID)
			if revData != nil {
				pipe.RPush(ctx, s.revisionsKey(doc.ID), revData)
			}
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, docKey, noKey); err != nil {
		return err
	}
	s.publish(ctx, DocumentEvent{Type: "document.created", DocumentID: doc.ID, RevisionNo: doc.CurrentRevision})
	return nil
}

func (s *RedisStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

func (s *RedisStore) UpdateDocument(ctx context.Context, doc domain.Document) error {
	docKey := s.docKey(doc.ID)
	newNoKey := s.docNoKey(doc.ProjectCode, doc.DocumentNo)

	docData, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	for i := 0; i < maxTxRetries; i++ {
		existing, err := s.GetDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		oldNoKey := s.docNoKey(existing.ProjectCode, existing.DocumentNo)

		txf := func(tx *redis.Tx) error {
			// the watched document must still carry the number we indexed
			current, err := tx.Get(ctx, docKey).Bytes()
			if err != nil {
				return err
			}
			cur, err := decodeDocument(current)
			if err != nil {
				return fmt.Errorf("failed to unmarshal document: %w", err)
			}
			if s.docNoKey(cur.ProjectCode, cur.DocumentNo) != oldNoKey {
				return redis.TxFailedErr
			}
			if newNoKey != oldNoKey {
				n, err := tx.Exists(ctx, newNoKey).Result()
				if err != nil {
					return err
				}
				if n > 0 {
					return fmt.Errorf("%w: document number %s already used in project %s", domain.ErrConflict, doc.DocumentNo, doc.ProjectCode)
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, docKey, docData, 0)
				if newNoKey != oldNoKey {
					pipe.Del(ctx, oldNoKey)
					pipe.Set(ctx, newNoKey, doc.ID, 0)
				}
				return nil
			})
			return err
		}

		err = s.client.Watch(ctx, txf, docKey, oldNoKey, newNoKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err == redis.Nil {
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
		}
		if err != nil {
			return txError(err)
		}
		s.publish(ctx, DocumentEvent{Type: "document.updated", DocumentID: doc.ID})
		return nil
	}
	return fmt.Errorf("%w: too much contention on document %s", domain.ErrConflict, doc.ID)
}

func (s *RedisStore) AppendRevision(ctx context.Context, doc domain.Document, rev domain.Revision) error {
	docKey := s.docKey(doc.ID)
	revKey := s.revisionsKey(doc.ID)

	docData, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	revData, err := json.Marshal(rev)
	if err != nil {
		return fmt.Errorf("failed to marshal revision: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, docKey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
		}
		last, err := tx.LIndex(ctx, revKey, -1).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var prev domain.Revision
			if err := json.Unmarshal(last, &prev); err != nil {
				return fmt.Errorf("failed to unmarshal revision: %w", err)
			}
			if prev.RevisionNo >= rev.RevisionNo {
				return fmt.Errorf("%w: revision %d already exists", domain.ErrConflict, rev.RevisionNo)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, revKey, revData)
			pipe.Set(ctx, docKey, docData, 0)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, docKey, revKey); err != nil {
		return err
	}
	s.publish(ctx, DocumentEvent{Type: "revision.appended", DocumentID: doc.ID, RevisionNo: rev.RevisionNo})
	return nil
}

func (s *RedisStore) ListRevisions(ctx context.Context, documentID string) ([]domain.Revision, error) {
	snap, err := s.Snapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return snap.Revisions, nil
}

func (s *RedisStore) AppendRemark(ctx context.Context, doc domain.Document, rem domain.Remark) error {
	docKey := s.docKey(doc.ID)
	remKey := s.remarksKey(doc.ID)

	docData, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	remData, err := json.Marshal(rem)
	if err != nil {
		return fmt.Errorf("failed to marshal remark: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, docKey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, remKey, remData)
			pipe.Set(ctx, docKey, docData, 0)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, docKey, remKey); err != nil {
		return err
	}
	s.publish(ctx, DocumentEvent{Type: "remark.posted", DocumentID: doc.ID, RevisionNo: rem.RevisionNo})
	return nil
}

func (s *RedisStore) ListRemarks(ctx context.Context, documentID string) ([]domain.Remark, error) {
	snap, err := s.Snapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return snap.Remarks, nil
}

// snapshotCmds are the queued reads for one document inside a MULTI block.
type snapshotCmds struct {
	id        string
	doc       *redis.StringCmd
	revisions *redis.StringSliceCmd
	remarks   *redis.StringSliceCmd
}

func (s *RedisStore) queueSnapshot(ctx context.Context, pipe redis.Pipeliner, id string) snapshotCmds {
	return snapshotCmds{
		id:        id,
		doc:       pipe.Get(ctx, s.docKey(id)),
		revisions: pipe.LRange(ctx, s.revisionsKey(id), 0, -1),
		remarks:   pipe.LRange(ctx, s.remarksKey(id), 0, -1),
	}
}

func (s *RedisStore) Snapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	var cmds snapshotCmds
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		cmds = s.queueSnapshot(ctx, pipe, id)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return decodeSnapshot(cmds)
}

func (s *RedisStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	ids, err := s.client.LRange(ctx, documentListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Snapshot{}, nil
	}

	all := make([]snapshotCmds, 0, len(ids))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			all = append(all, s.queueSnapshot(ctx, pipe, id))
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	out := make([]domain.Snapshot, 0, len(all))
	for _, cmds := range all {
		snap, err := decodeSnapshot(cmds)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeSnapshot(cmds snapshotCmds) (*domain.Snapshot, error) {
	data, err := cmds.doc.Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, cmds.id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var snap domain.Snapshot
	if snap.Document, err = decodeDocument(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", cmds.id, err)
	}

	snap.Revisions = make([]domain.Revision, 0, len(cmds.revisions.Val()))
	for _, raw := range cmds.revisions.Val() {
		var r domain.Revision
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal revision of %s: %w", cmds.id, err)
		}
		snap.Revisions = append(snap.Revisions, r)
	}

	snap.Remarks = make([]domain.Remark, 0, len(cmds.remarks.Val()))
	for _, raw := range cmds.remarks.Val() {
		var r domain.Remark
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal remark of %s: %w", cmds.id, err)
		}
		snap.Remarks = append(snap.Remarks, r)
	}
	return &snap, nil
}

// watch runs txf under WATCH, retrying when a watched key changes underneath.
func (s *RedisStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return txError(err)
	}
	return fmt.Errorf("%w: too much contention on %v", domain.ErrConflict, keys)
}

func txError(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	return fmt.Errorf("redis transaction failed: %w", err)
}

func (s *RedisStore) publish(ctx context.Context, ev DocumentEvent) {
	ev.At = time.Now().UTC()
	data, err := json.Marshal(ev)
	if err == nil {
		s.client.Publish(ctx, eventChannel, data)
	}
}

// Helper methods for key generation
func (s *RedisStore) docKey(id string) string {
	return fmt.Sprintf("%s%s", docKeyPrefix, id)
}

// docNoKey length-prefixes the project code so no separator inside either
// part can make two distinct pairs share a key.
func (s *RedisStore) docNoKey(projectCode, documentNo string) string {
	return fmt.Sprintf("%s%d:%s|%s", docNoKeyPrefix, len(projectCode), projectCode, documentNo)
}

func (s *RedisStore) revisionsKey(id string) string {
	return fmt.Sprintf("%s%s:revisions", docKeyPrefix, id)
}

func (s *RedisStore) remarksKey(id string) string {
	return fmt.Sprintf("%s%s:remarks", docKeyPrefix, id)
}
