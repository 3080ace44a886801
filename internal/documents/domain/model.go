package domain

import (
	"io"
	"time"
)

// Document is the persisted register entry. The reported approval status is
// not stored; see DocumentView.
type Document struct {
	ID           string    `json:"id"`
	ProjectCode  string    `json:"projectCode"`
	Type         string    `json:"type"`
	DocumentNo   string    `json:"documentNo"`
	Title        string    `json:"title"`
	ContractDate Date      `json:"contractDate"`
	Status       Status    `json:"status"`
	Description  string    `json:"description,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// CurrentRevision mirrors the maximum revisionNo of the ledger, 0 if empty.
	CurrentRevision int `json:"currentRevision"`

	// ApprovalOverride holds a manual approvalStatus write until the next
	// ledger or remark event. Empty means no override. Stores persist it;
	// responses only carry the derived approvalStatus.
	ApprovalOverride ApprovalStatus `json:"-"`
}

// Revision is an immutable ledger entry.
type Revision struct {
	DocumentID string    `json:"documentId"`
	RevisionNo int       `json:"revisionNo"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy"`
	Notes      string    `json:"notes"`
	FilePath   string    `json:"filePath"`
}

// Remark is an immutable role-scoped comment.
type Remark struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`

	// Seq is the 1-based append position within the document.
	Seq int `json:"seq"`
	// RevisionNo is the document's current revision when the remark was posted.
	RevisionNo int `json:"revisionNo"`
}

// Snapshot is one document read atomically together with its ledger and remarks.
type Snapshot struct {
	Document  Document
	Revisions []Revision
	Remarks   []Remark
}

// DocumentView is a document with its derived approval status.
type DocumentView struct {
	Document
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
}

// DocumentDetail is a document together with its full revision ledger.
type DocumentDetail struct {
	DocumentView
	Revisions []Revision `json:"revisions"`
}

// ProjectSummaryRow is recomputed on demand and never persisted.
type ProjectSummaryRow struct {
	ProjectCode  string `json:"projectCode"`
	DataGirilmis int    `json:"dataGirilmis"`
	Yayinlanmis  int    `json:"yayinlanmis"`
	KlassOnayli  int    `json:"klassOnayli"`
	BayrakOnayli int    `json:"bayrakOnayli"`
	Onayda       int    `json:"onayda"`
	Gecikmis     int    `json:"gecikmis"`
	Toplam       int    `json:"toplam"`
}

// DegradedDocument is a document skipped by the aggregator.
type DegradedDocument struct {
	DocumentID  string `json:"documentId"`
	ProjectCode string `json:"projectCode,omitempty"`
	Reason      string `json:"reason"`
}

type SummaryReport struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Rows        []ProjectSummaryRow `json:"rows"`
	Degraded    []DegradedDocument  `json:"degraded,omitempty"`
}

// FileUpload is the byte stream handed to the storage collaborator.
type FileUpload struct {
	Name    string
	Content io.Reader
}

type CreateDocumentRequest struct {
	ProjectCode  string
	Type         string
	DocumentNo   string
	Title        string
	ContractDate Date
	Description  string
	CreatedBy    string

	// Optional initial file; when present revision 1 is appended with the document.
	File  *FileUpload
	Notes string
}

type AppendRevisionRequest struct {
	UploadedBy string
	Notes      string
	File       *FileUpload

	// FileRef reuses an already stored artifact instead of uploading File.
	FileRef string

	// ExpectedRevisionNo, when set, must equal the number the ledger assigns.
	ExpectedRevisionNo *int
}

type PostRemarkRequest struct {
	Role      string
	Content   string
	CreatedBy string
}

// UpdateDocumentRequest is a partial update; nil fields are left unchanged.
type UpdateDocumentRequest struct {
	ProjectCode    *string
	Type           *string
	Title          *string
	Status         *string
	ApprovalStatus *string
	Description    *string
	ContractDate   *Date
}

// DocumentFilter selects documents; empty fields match everything.
type DocumentFilter struct {
	ProjectCode string
	Status      Status
	Type        string
	Search      string
}

type Facets struct {
	Projects []string `json:"projects"`
	Types    []string `json:"types"`
}
