package http

import (
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/service"
)

// Handler bundles the dependencies for document register endpoints.
type Handler struct {
	svc *service.DocumentService
	now func() time.Time
}

func New(svc *service.DocumentService) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

type createDocumentReq struct {
	ProjectCode  string `json:"projectCode" form:"projectCode"`
	Type         string `json:"type" form:"type"`
	DocumentNo   string `json:"documentNo" form:"documentNo"`
	Title        string `json:"title" form:"title"`
	ContractDate string `json:"contractDate" form:"contractDate"`
	Description  string `json:"description" form:"description"`
	CreatedBy    string `json:"createdBy" form:"createdBy"`
	Notes        string `json:"notes" form:"notes"`
}

type updateDocumentReq struct {
	ProjectCode    *string `json:"projectCode"`
	Type           *string `json:"type"`
	Title          *string `json:"title"`
	Status         *string `json:"status"`
	ApprovalStatus *string `json:"approvalStatus"`
	Description    *string `json:"description"`
	ContractDate   *string `json:"contractDate"`
}

type appendRevisionReq struct {
	UploadedBy string `json:"uploadedBy" form:"uploadedBy"`
	Notes      string `json:"notes" form:"notes"`
	FileRef    string `json:"fileRef" form:"fileRef"`
	RevisionNo *int   `json:"revisionNo" form:"revisionNo"`
}

type postRemarkReq struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy"`
}
