package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const documentColumns = `id, project_code, type, document_no, title, contract_date, status,
		       description, created_by, created_at, updated_at, current_revision, approval_override`

// PostgresStore handles PostgreSQL persistence of the register
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc domain.Document, initial *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (
			id, project_code, type, document_no, title, contract_date, status,
			description, created_by, created_at, updated_at, current_revision, approval_override
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		doc.ID, doc.ProjectCode, doc.Type, doc.DocumentNo, doc.Title, doc.ContractDate.Time, string(doc.Status),
		doc.Description, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt, doc.CurrentRevision, string(doc.ApprovalOverride),
	)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return fmt.Errorf("%w: document number %s already used in project %s", domain.ErrConflict, doc.DocumentNo, doc.ProjectCode)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if initial != nil {
		if err := insertRevision(ctx, tx, *initial); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc domain.Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			project_code = $2, type = $3, title = $4, contract_date = $5, status = $6,
			description = $7, updated_at = $8, approval_override = $9
		WHERE id = $1
	`,
		doc.ID, doc.ProjectCode, doc.Type, doc.Title, doc.ContractDate.Time, string(doc.Status),
		doc.Description, doc.UpdatedAt, string(doc.ApprovalOverride),
	)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return fmt.Errorf("%w: document number %s already used in project %s", domain.ErrConflict, doc.DocumentNo, doc.ProjectCode)
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	return nil
}

func (s *PostgresStore) AppendRevision(ctx context.Context, doc domain.Document, rev domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRevision(ctx, tx, rev); err != nil {
		return err
	}
	if err := updateLedgerFields(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit revision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRevisions(ctx context.Context, documentID string) ([]domain.Revision, error) {
	snap, err := s.Snapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return snap.Revisions, nil
}

func (s *PostgresStore) AppendRemark(ctx context.Context, doc domain.Document, rem domain.Remark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_remarks (
			id, document_id, seq, role, content, created_by, created_at, revision_no
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rem.ID, rem.DocumentID, rem.Seq, string(rem.Role), rem.Content, rem.CreatedBy, rem.CreatedAt, rem.RevisionNo)
	if err != nil {
		switch {
		case isPQCode(err, pqForeignKeyViolation):
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, rem.DocumentID)
		case isPQCode(err, pqUniqueViolation):
			return fmt.Errorf("%w: remark %d already exists", domain.ErrConflict, rem.Seq)
		}
		return fmt.Errorf("failed to insert remark: %w", err)
	}
	if err := updateLedgerFields(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit remark: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRemarks(ctx context.Context, documentID string) ([]domain.Remark, error) {
	snap, err := s.Snapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return snap.Remarks, nil
}

var snapshotTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (s *PostgresStore) Snapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	doc, err := scanDocument(tx.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	revs, err := queryRevisions(ctx, tx, `WHERE document_id = $1`, id)
	if err != nil {
		return nil, err
	}
	remarks, err := queryRemarks(ctx, tx, `WHERE document_id = $1`, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return &domain.Snapshot{Document: *doc, Revisions: revs, Remarks: remarks}, nil
}

func (s *PostgresStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	out := make([]domain.Snapshot, 0, 64)
	index := make(map[string]int)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		index[doc.ID] = len(out)
		out = append(out, domain.Snapshot{Document: *doc, Revisions: []domain.Revision{}, Remarks: []domain.Remark{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	revs, err := queryRevisions(ctx, tx, ``)
	if err != nil {
		return nil, err
	}
	for _, r := range revs {
		if i, ok := index[r.DocumentID]; ok {
			out[i].Revisions = append(out[i].Revisions, r)
		}
	}

	remarks, err := queryRemarks(ctx, tx, ``)
	if err != nil {
		return nil, err
	}
	for _, r := range remarks {
		if i, ok := index[r.DocumentID]; ok {
			out[i].Remarks = append(out[i].Remarks, r)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func insertRevision(ctx context.Context, tx *sql.Tx, rev domain.Revision) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO document_revisions (
			document_id, revision_no, uploaded_at, uploaded_by, notes, file_path
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rev.DocumentID, rev.RevisionNo, rev.UploadedAt, rev.UploadedBy, rev.Notes, rev.FilePath)
	if err != nil {
		switch {
		case isPQCode(err, pqUniqueViolation):
			return fmt.Errorf("%w: revision %d already exists", domain.ErrConflict, rev.RevisionNo)
		case isPQCode(err, pqForeignKeyViolation):
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, rev.DocumentID)
		}
		return fmt.Errorf("failed to insert revision: %w", err)
	}
	return nil
}

// updateLedgerFields writes the document fields a ledger or remark event changes.
func updateLedgerFields(ctx context.Context, tx *sql.Tx, doc domain.Document) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE documents SET
			status = $2, current_revision = $3, approval_override = $4, updated_at = $5
		WHERE id = $1
	`, doc.ID, string(doc.Status), doc.CurrentRevision, string(doc.ApprovalOverride), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	return nil
}

func queryRevisions(ctx context.Context, tx *sql.Tx, where string, args ...any) ([]domain.Revision, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT document_id, revision_no, uploaded_at, uploaded_by, notes, file_path
		FROM document_revisions `+where+`
		ORDER BY document_id, revision_no
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Revision, 0, 8)
	for rows.Next() {
		var r domain.Revision
		if err := rows.Scan(&r.DocumentID, &r.RevisionNo, &r.UploadedAt, &r.UploadedBy, &r.Notes, &r.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryRemarks(ctx context.Context, tx *sql.Tx, where string, args ...any) ([]domain.Remark, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, document_id, seq, role, content, created_by, created_at, revision_no
		FROM document_remarks `+where+`
		ORDER BY document_id, seq
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query remarks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Remark, 0, 8)
	for rows.Next() {
		var r domain.Remark
		var role string
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Seq, &role, &r.Content, &r.CreatedBy, &r.CreatedAt, &r.RevisionNo); err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		r.Role = domain.Role(role)
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var contractDate time.Time
	var status, override string
	err := row.Scan(
		&doc.ID,
		&doc.ProjectCode,
		&doc.Type,
		&doc.DocumentNo,
		&doc.Title,
		&contractDate,
		&status,
		&doc.Description,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.CurrentRevision,
		&override,
	)
	if err != nil {
		return nil, err
	}
	doc.ContractDate = domain.DateOf(contractDate)
	doc.Status = domain.Status(status)
	doc.ApprovalOverride = domain.ApprovalStatus(override)
	return &doc, nil
}

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
