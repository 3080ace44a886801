package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/engdocs/docregister-backend/internal/documents/lifecycle"
	"github.com/engdocs/docregister-backend/internal/documents/repository"
	"github.com/engdocs/docregister-backend/internal/documents/summary"
	"github.com/engdocs/docregister-backend/internal/storage/files"
	"github.com/google/uuid"
)

const initialRevisionNotes = "Initial revision"

// DocumentService applies register operations. Mutations of one document are
// serialized; reads work on store snapshots.
type DocumentService struct {
	store  repository.Store
	files  files.Storage
	engine *lifecycle.Engine
	locks  *keyedMutex
	now    func() time.Time
	newID  func() string
}

func NewDocumentService(store repository.Store, fs files.Storage, engine *lifecycle.Engine) *DocumentService {
	if engine == nil {
		engine = lifecycle.NewEngine(nil, lifecycle.OverrideRetain)
	}
	return &DocumentService{
		store:  store,
		files:  fs,
		engine: engine,
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *DocumentService) CreateDocument(ctx context.Context, req domain.CreateDocumentRequest) (*domain.DocumentDetail, error) {
	logger := NewLogger(ctx)

	doc := domain.Document{
		ID:           s.newID(),
		ProjectCode:  strings.TrimSpace(req.ProjectCode),
		Type:         strings.TrimSpace(req.Type),
		DocumentNo:   strings.TrimSpace(req.DocumentNo),
		Title:        strings.TrimSpace(req.Title),
		ContractDate: req.ContractDate,
		Status:       domain.StatusDataEntered,
		Description:  req.Description,
		CreatedBy:    strings.TrimSpace(req.CreatedBy),
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	var initial *domain.Revision
	if req.File != nil {
		ref, err := s.saveFile(ctx, req.File)
		if err != nil {
			logger.LogError("create_document", err)
			return nil, err
		}
		notes := strings.TrimSpace(req.Notes)
		if notes == "" {
			notes = initialRevisionNotes
		}
		initial = &domain.Revision{
			DocumentID: doc.ID,
			RevisionNo: 1,
			UploadedAt: now,
			UploadedBy: doc.CreatedBy,
			Notes:      notes,
			FilePath:   ref,
		}
		doc.Status = lifecycle.StatusAfterAppend(doc.Status)
		doc.CurrentRevision = 1
	}

	if err := s.store.CreateDocument(ctx, doc, initial); err != nil {
		if initial != nil {
			s.discardFile(ctx, logger, initial.FilePath)
		}
		s.recordError(err)
		return nil, err
	}
	recordCounter(&globalMetrics.DocumentsCreated)
	logger.LogInfof("create_document", "document_id=%s project=%s document_no=%s", doc.ID, doc.ProjectCode, doc.DocumentNo)

	snap := domain.Snapshot{Document: doc}
	if initial != nil {
		snap.Revisions = []domain.Revision{*initial}
	}
	detail := s.engine.Detail(snap)
	return &detail, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.DocumentDetail, error) {
	snap, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := s.engine.Detail(*snap)
	return &detail, nil
}

// ListDocuments returns documents in creation order, narrowed by filter.
func (s *DocumentService) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.DocumentView, error) {
	snaps, err := s.store.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	m := newMatcher(filter)
	out := make([]domain.DocumentView, 0, len(snaps))
	for _, snap := range snaps {
		if m.match(snap.Document) {
			out = append(out, s.engine.View(snap))
		}
	}
	return out, nil
}

// Facets lists the distinct project codes and types in use.
func (s *DocumentService) Facets(ctx context.Context) (*domain.Facets, error) {
	snaps, err := s.store.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	projects := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, snap := range snaps {
		projects[snap.Document.ProjectCode] = struct{}{}
		types[snap.Document.Type] = struct{}{}
	}
	return &domain.Facets{Projects: sortedKeys(projects), Types: sortedKeys(types)}, nil
}

func (s *DocumentService) AppendRevision(ctx context.Context, id string, req domain.AppendRevisionRequest) (*domain.Revision, error) {
	logger := NewLogger(ctx)

	uploadedBy := strings.TrimSpace(req.UploadedBy)
	notes := strings.TrimSpace(req.Notes)
	if uploadedBy == "" {
		return nil, fmt.Errorf("%w: uploadedBy is required", domain.ErrInvalidInput)
	}
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are required", domain.ErrInvalidInput)
	}
	if req.File == nil && strings.TrimSpace(req.FileRef) == "" {
		return nil, fmt.Errorf("%w: a file or fileRef is required", domain.ErrInvalidInput)
	}
	if req.ExpectedRevisionNo != nil && *req.ExpectedRevisionNo < 1 {
		return nil, fmt.Errorf("%w: revision numbers start at 1", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	snap, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.NextRevisionNo(snap.Revisions)
	if err != nil {
		logger.LogError("append_revision", err)
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	if req.ExpectedRevisionNo != nil && *req.ExpectedRevisionNo != next {
		return nil, fmt.Errorf("%w: revision %d requested but next revision is %d", domain.ErrInvalidInput, *req.ExpectedRevisionNo, next)
	}

	ref, uploaded, err := s.resolveFile(ctx, req)
	if err != nil {
		logger.LogError("append_revision", err)
		return nil, err
	}

	now := s.now()
	rev := domain.Revision{
		DocumentID: id,
		RevisionNo: next,
		UploadedAt: now,
		UploadedBy: uploadedBy,
		Notes:      notes,
		FilePath:   ref,
	}
	doc := snap.Document
	doc.Status = lifecycle.StatusAfterAppend(doc.Status)
	doc.CurrentRevision = next
	doc.ApprovalOverride = ""
	doc.UpdatedAt = now

	if err := s.store.AppendRevision(ctx, doc, rev); err != nil {
		if uploaded {
			s.discardFile(ctx, logger, ref)
		}
		s.recordError(err)
		return nil, err
	}
	recordCounter(&globalMetrics.RevisionsAppended)
	logger.LogInfof("append_revision", "document_id=%s revision_no=%d status=%s", id, next, doc.Status)
	return &rev, nil
}

func (s *DocumentService) PostRemark(ctx context.Context, id string, req domain.PostRemarkRequest) (*domain.Remark, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		return nil, fmt.Errorf("%w: createdBy is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	snap, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	createdAt := now
	// keep createdAt order equal to append order
	for _, r := range snap.Remarks {
		if r.CreatedAt.After(createdAt) {
			createdAt = r.CreatedAt
		}
	}
	rem := domain.Remark{
		ID:         s.newID(),
		DocumentID: id,
		Role:       role,
		Content:    content,
		CreatedBy:  createdBy,
		CreatedAt:  createdAt,
		Seq:        len(snap.Remarks) + 1,
		RevisionNo: lifecycle.CurrentRevision(snap.Revisions),
	}
	doc := snap.Document
	doc.ApprovalOverride = ""
	doc.UpdatedAt = now

	if err := s.store.AppendRemark(ctx, doc, rem); err != nil {
		s.recordError(err)
		return nil, err
	}
	recordCounter(&globalMetrics.RemarksPosted)
	NewLogger(ctx).LogInfof("post_remark", "document_id=%s role=%s seq=%d", id, role, rem.Seq)
	return &rem, nil
}

// ListRemarks returns a document's remarks ordered by createdAt.
func (s *DocumentService) ListRemarks(ctx context.Context, id string) ([]domain.Remark, error) {
	remarks, err := s.store.ListRemarks(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(remarks, func(i, j int) bool {
		if !remarks[i].CreatedAt.Equal(remarks[j].CreatedAt) {
			return remarks[i].CreatedAt.Before(remarks[j].CreatedAt)
		}
		return remarks[i].Seq < remarks[j].Seq
	})
	return remarks, nil
}

// UpdateFields applies a manual correction. A written approvalStatus is kept
// or ignored depending on the engine's override mode.
func (s *DocumentService) UpdateFields(ctx context.Context, id string, req domain.UpdateDocumentRequest) (*domain.DocumentView, error) {
	logger := NewLogger(ctx)

	unlock := s.locks.Lock(id)
	defer unlock()

	snap, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := snap.Document

	if req.ProjectCode != nil {
		doc.ProjectCode = strings.TrimSpace(*req.ProjectCode)
	}
	if req.Type != nil {
		doc.Type = strings.TrimSpace(*req.Type)
	}
	if req.Title != nil {
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.ContractDate != nil {
		doc.ContractDate = *req.ContractDate
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	if req.Status != nil {
		to, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if err := lifecycle.CheckStatusChange(doc.Status, to, len(snap.Revisions)); err != nil {
			return nil, err
		}
		doc.Status = to
	}

	if req.ApprovalStatus != nil {
		approval, err := domain.ParseApprovalStatus(*req.ApprovalStatus)
		if err != nil {
			return nil, err
		}
		if s.engine.Mode() == lifecycle.OverrideRetain {
			doc.ApprovalOverride = approval
		} else {
			logger.LogInfof("update_fields", "document_id=%s manual approvalStatus=%s ignored in %s mode", id, approval, s.engine.Mode())
		}
	}

	doc.UpdatedAt = s.now()
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		s.recordError(err)
		return nil, err
	}
	recordCounter(&globalMetrics.FieldUpdates)
	logger.LogInfof("update_fields", "document_id=%s", id)

	snap.Document = doc
	view := s.engine.View(*snap)
	return &view, nil
}

// Summaries aggregates all projects, or only project when it is non-empty.
func (s *DocumentService) Summaries(ctx context.Context, now time.Time, project string) (*domain.SummaryReport, error) {
	logger := NewLogger(ctx)
	start := time.Now()

	snaps, err := s.store.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	project = strings.TrimSpace(project)
	views := make([]domain.DocumentView, 0, len(snaps))
	for _, snap := range snaps {
		if project != "" && snap.Document.ProjectCode != project {
			continue
		}
		views = append(views, s.engine.View(snap))
	}
	if project != "" && len(views) == 0 {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, project)
	}

	report, err := summary.Summarize(ctx, views, now)
	if err != nil {
		return nil, err
	}
	for _, d := range report.Degraded {
		logger.LogWarnf("summarize", "document_id=%s project=%s degraded=%q", d.DocumentID, d.ProjectCode, d.Reason)
	}
	recordSummary(time.Since(start), len(report.Degraded))
	return &report, nil
}

// OpenRevisionFile opens the stored artifact of one revision.
func (s *DocumentService) OpenRevisionFile(ctx context.Context, id string, revisionNo int) (io.ReadCloser, *domain.Revision, error) {
	revs, err := s.store.ListRevisions(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var rev *domain.Revision
	for i := range revs {
		if revs[i].RevisionNo == revisionNo {
			rev = &revs[i]
			break
		}
	}
	if rev == nil {
		return nil, nil, fmt.Errorf("%w: revision %d of document %s", domain.ErrNotFound, revisionNo, id)
	}

	rc, err := s.files.Open(ctx, rev.FilePath)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: file of revision %d", domain.ErrNotFound, revisionNo)
		}
		recordCounter(&globalMetrics.StorageFailures)
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return rc, rev, nil
}

// resolveFile uploads the request's file or checks that its fileRef exists.
// uploaded reports whether a new object was written.
func (s *DocumentService) resolveFile(ctx context.Context, req domain.AppendRevisionRequest) (ref string, uploaded bool, err error) {
	if req.File != nil {
		ref, err = s.saveFile(ctx, req.File)
		return ref, err == nil, err
	}

	ref = strings.TrimSpace(req.FileRef)
	rc, err := s.files.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			return "", false, fmt.Errorf("%w: fileRef %q does not resolve to a stored file", domain.ErrInvalidInput, ref)
		}
		recordCounter(&globalMetrics.StorageFailures)
		return "", false, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	rc.Close()
	return ref, false, nil
}

func (s *DocumentService) saveFile(ctx context.Context, f *domain.FileUpload) (string, error) {
	if strings.TrimSpace(f.Name) == "" || f.Content == nil {
		return "", fmt.Errorf("%w: file name and content are required", domain.ErrInvalidInput)
	}
	ref, err := s.files.Save(ctx, f.Name, f.Content)
	if err != nil {
		recordCounter(&globalMetrics.StorageFailures)
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return ref, nil
}

// discardFile removes an upload whose revision was not committed.
func (s *DocumentService) discardFile(ctx context.Context, logger *Logger, ref string) {
	if err := s.files.Delete(context.WithoutCancel(ctx), ref); err != nil {
		logger.LogError("discard_file", err)
	}
}

func (s *DocumentService) recordError(err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		recordCounter(&globalMetrics.Conflicts)
	case errors.Is(err, domain.ErrStorageFailure):
		recordCounter(&globalMetrics.StorageFailures)
	}
}

func validateDocument(doc domain.Document) error {
	switch {
	case doc.ProjectCode == "":
		return fmt.Errorf("%w: projectCode is required", domain.ErrInvalidInput)
	case doc.Type == "":
		return fmt.Errorf("%w: type is required", domain.ErrInvalidInput)
	case doc.DocumentNo == "":
		return fmt.Errorf("%w: documentNo is required", domain.ErrInvalidInput)
	case doc.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case doc.ContractDate.IsZero():
		return fmt.Errorf("%w: contractDate is required", domain.ErrInvalidInput)
	case doc.CreatedBy == "":
		return fmt.Errorf("%w: createdBy is required", domain.ErrInvalidInput)
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
