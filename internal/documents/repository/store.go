package repository

import (
	"context"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
)

// Store persists documents, revisions and remarks as separate collections
// keyed by document id. Revisions and remarks are append-only.
//
// Every mutating call commits atomically: either all of its writes become
// visible or none do. Callers serialize mutations of one document; stores
// still reject a duplicate revision number with domain.ErrConflict.
type Store interface {
	// CreateDocument inserts doc and, when initial is non-nil, its first revision.
	// A documentNo already used in the same project yields domain.ErrConflict.
	CreateDocument(ctx context.Context, doc domain.Document, initial *domain.Revision) error

	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// UpdateDocument replaces the descriptive fields of an existing document.
	UpdateDocument(ctx context.Context, doc domain.Document) error

	// AppendRevision records rev and writes doc in one commit.
	AppendRevision(ctx context.Context, doc domain.Document, rev domain.Revision) error
	ListRevisions(ctx context.Context, documentID string) ([]domain.Revision, error)

	// AppendRemark records rem and writes doc in one commit.
	AppendRemark(ctx context.Context, doc domain.Document, rem domain.Remark) error
	ListRemarks(ctx context.Context, documentID string) ([]domain.Remark, error)

	// Snapshot reads one document with its revisions and remarks atomically.
	Snapshot(ctx context.Context, id string) (*domain.Snapshot, error)

	// Snapshots returns every document in creation order. Each snapshot is
	// internally consistent; the set as a whole need not be.
	Snapshots(ctx context.Context) ([]domain.Snapshot, error)

	Close() error
}

func docNoKey(projectCode, documentNo string) string {
	return projectCode + "\x00" + documentNo
}
