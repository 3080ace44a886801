package http

import (
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createDocument(c *gin.Context) {
	var req createDocumentReq
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	contractDate, err := domain.ParseDate(req.ContractDate)
	if err != nil {
		writeError(c, err)
		return
	}

	in := domain.CreateDocumentRequest{
		ProjectCode:  req.ProjectCode,
		Type:         req.Type,
		DocumentNo:   req.DocumentNo,
		Title:        req.Title,
		ContractDate: contractDate,
		Description:  req.Description,
		CreatedBy:    req.CreatedBy,
		Notes:        req.Notes,
	}

	file, closeFile, err := formFile(c)
	if err != nil {
		badRequest(c, "invalid file")
		return
	}
	defer closeFile()
	in.File = file

	d, err := h.svc.CreateDocument(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "document": d})
}

func (h *Handler) listDocuments(c *gin.Context) {
	filter := domain.DocumentFilter{
		ProjectCode: strings.TrimSpace(c.Query("project")),
		Type:        strings.TrimSpace(c.Query("type")),
		Search:      strings.TrimSpace(c.Query("q")),
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			writeError(c, err)
			return
		}
		filter.Status = status
	}

	items, err := h.svc.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "documents": items})
}

func (h *Handler) facets(c *gin.Context) {
	f, err := h.svc.Facets(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": f.Projects, "types": f.Types})
}

func (h *Handler) getDocument(c *gin.Context) {
	d, err := h.svc.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": d})
}

func (h *Handler) updateDocument(c *gin.Context) {
	var req updateDocumentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	in := domain.UpdateDocumentRequest{
		ProjectCode:    req.ProjectCode,
		Type:           req.Type,
		Title:          req.Title,
		Status:         req.Status,
		ApprovalStatus: req.ApprovalStatus,
		Description:    req.Description,
	}
	if req.ContractDate != nil {
		d, err := domain.ParseDate(*req.ContractDate)
		if err != nil {
			writeError(c, err)
			return
		}
		in.ContractDate = &d
	}

	d, err := h.svc.UpdateFields(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": d})
}

func (h *Handler) appendRevision(c *gin.Context) {
	var req appendRevisionReq
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	file, closeFile, err := formFile(c)
	if err != nil {
		badRequest(c, "invalid file")
		return
	}
	defer closeFile()

	rev, err := h.svc.AppendRevision(c.Request.Context(), c.Param("id"), domain.AppendRevisionRequest{
		UploadedBy:         req.UploadedBy,
		Notes:              req.Notes,
		File:               file,
		FileRef:            req.FileRef,
		ExpectedRevisionNo: req.RevisionNo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "revision": rev})
}

func (h *Handler) downloadRevision(c *gin.Context) {
	no, err := strconv.Atoi(c.Param("no"))
	if err != nil || no < 1 {
		badRequest(c, "invalid revision number")
		return
	}

	rc, rev, err := h.svc.OpenRevisionFile(c.Request.Context(), c.Param("id"), no)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + downloadName(rev.FilePath) + `"`,
	})
}

func (h *Handler) postRemark(c *gin.Context) {
	var req postRemarkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	rem, err := h.svc.PostRemark(c.Request.Context(), c.Param("id"), domain.PostRemarkRequest{
		Role:      req.Role,
		Content:   req.Content,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "remark": rem})
}

func (h *Handler) listRemarks(c *gin.Context) {
	items, err := h.svc.ListRemarks(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "remarks": items})
}

func (h *Handler) projectSummary(c *gin.Context) {
	now := h.now().UTC()
	if s := strings.TrimSpace(c.Query("now")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			badRequest(c, "now must be an RFC3339 timestamp")
			return
		}
		now = t
	}

	report, err := h.svc.Summaries(c.Request.Context(), now, c.Query("project"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"generatedAt": report.GeneratedAt,
		"rows":        report.Rows,
		"degraded":    report.Degraded,
	})
}

// formFile returns the optional "file" part of a multipart request.
func formFile(c *gin.Context) (*domain.FileUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop, nil
	}
	fh, err := c.FormFile("file")
	if err == http.ErrMissingFile {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*domain.FileUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &domain.FileUpload{Name: fh.Filename, Content: f}, func() { f.Close() }, nil
}

// downloadName strips the storage prefix from a stored object name.
func downloadName(ref string) string {
	base := path.Base(ref)
	// refs are "<uuid>-<original name>"
	if len(base) > 37 && base[36] == '-' {
		base = base[37:]
	}
	return strings.ReplaceAll(base, `"`, "'")
}
