package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/lifecycle"
	"github.com/engdocs/docregister-backend/internal/documents/repository"
	"github.com/engdocs/docregister-backend/internal/documents/service"
	"github.com/engdocs/docregister-backend/internal/storage/files"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	fs, err := files.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := service.NewDocumentService(repository.NewMemoryStore(), fs, lifecycle.NewEngine(nil, lifecycle.OverrideRetain))

	h := New(svc)
	h.now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }

	r := gin.New()
	h.Register(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doMultipart(t *testing.T, r http.Handler, path string, fields map[string]string, fileName, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createDoc(t *testing.T, r http.Handler, project, no string) string {
	w := doJSON(r, http.MethodPost, "/api/v1/documents", map[string]any{
		"projectCode":  project,
		"type":         "Drawing",
		"documentNo":   no,
		"title":        "General arrangement",
		"contractDate": "2025-05-01",
		"createdBy":    "ayse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode(t, w)["document"].(map[string]any)
	return doc["id"].(string)
}

func TestDocumentRoutes(t *testing.T) {
	r := setupRouter(t)

	t.Run("create returns the document with derived state", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/documents", map[string]any{
			"projectCode":  "NB-101",
			"type":         "Drawing",
			"documentNo":   "GA-001",
			"title":        "General arrangement",
			"contractDate": "2025-05-01",
			"createdBy":    "ayse",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		doc := decode(t, w)["document"].(map[string]any)
		assert.Equal(t, "DataEntered", doc["status"])
		assert.Equal(t, "Pending", doc["approvalStatus"])
		assert.Equal(t, "2025-05-01", doc["contractDate"])
	})

	t.Run("duplicate documentNo is a 400 conflict", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/documents", map[string]any{
			"projectCode": "NB-101", "type": "Drawing", "documentNo": "GA-001",
			"title": "Again", "contractDate": "2025-05-01", "createdBy": "ayse",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "conflict", body["code"])
	})

	t.Run("bad contract date is rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/documents", map[string]any{
			"projectCode": "NB-101", "type": "Drawing", "documentNo": "GA-009",
			"title": "x", "contractDate": "01/05/2025", "createdBy": "ayse",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("multipart create stores the initial revision", func(t *testing.T) {
		w := doMultipart(t, r, "/api/v1/documents", map[string]string{
			"projectCode": "NB-102", "type": "Drawing", "documentNo": "GA-001",
			"title": "Hull", "contractDate": "2025-05-01", "createdBy": "ayse",
		}, "hull.pdf", "hull drawing")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		doc := decode(t, w)["document"].(map[string]any)
		assert.Equal(t, "Published", doc["status"])
		assert.Equal(t, float64(1), doc["currentRevision"])
		assert.Len(t, doc["revisions"], 1)
	})

	t.Run("unknown document is 404", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/documents/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list filters and rejects unknown status", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/documents?project=NB-102", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["documents"], 1)

		w = doJSON(r, http.MethodGet, "/api/v1/documents?status=Yay%C4%B1nlanm%C4%B1%C5%9F", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["documents"], 1)

		w = doJSON(r, http.MethodGet, "/api/v1/documents?status=Archived", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("facets", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/documents/facets", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, []any{"NB-101", "NB-102"}, body["projects"])
		assert.Equal(t, []any{"Drawing"}, body["types"])
	})
}

func TestRevisionAndRemarkRoutes(t *testing.T) {
	r := setupRouter(t)
	id := createDoc(t, r, "NB-101", "GA-001")
	base := "/api/v1/documents/" + id

	t.Run("append revision via multipart", func(t *testing.T) {
		w := doMultipart(t, r, base+"/revisions", map[string]string{
			"uploadedBy": "ayse", "notes": "issued for approval",
		}, "ga-001 rev A.pdf", "rev A bytes")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		rev := decode(t, w)["revision"].(map[string]any)
		assert.Equal(t, float64(1), rev["revisionNo"])
	})

	t.Run("append without notes is rejected", func(t *testing.T) {
		w := doMultipart(t, r, base+"/revisions", map[string]string{"uploadedBy": "ayse"}, "x.pdf", "x")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("explicit wrong revision number is rejected", func(t *testing.T) {
		w := doMultipart(t, r, base+"/revisions", map[string]string{
			"uploadedBy": "ayse", "notes": "skip", "revisionNo": "5",
		}, "x.pdf", "x")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("download revision file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, base+"/revisions/1/file", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rev A bytes", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="ga-001 rev A.pdf"`)

		w = doJSON(r, http.MethodGet, base+"/revisions/7/file", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(r, http.MethodGet, base+"/revisions/zero/file", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("remarks drive approval", func(t *testing.T) {
		for _, rm := range []map[string]any{
			{"role": "Class", "content": "APPROVED", "createdBy": "loyd"},
			{"role": "Flag", "content": "Onaylandı", "createdBy": "flag state"},
		} {
			w := doJSON(r, http.MethodPost, base+"/remarks", rm)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		w := doJSON(r, http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, w.Code)
		doc := decode(t, w)["document"].(map[string]any)
		assert.Equal(t, "FullyApproved", doc["approvalStatus"])

		w = doJSON(r, http.MethodGet, base+"/remarks", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["remarks"], 2)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, base+"/remarks", map[string]any{"role": "Captain", "content": "hi", "createdBy": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update applies and reports manual approval", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, base, map[string]any{"approvalStatus": "ClassApproved", "contractDate": "2025-07-01"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		doc := decode(t, w)["document"].(map[string]any)
		assert.Equal(t, "ClassApproved", doc["approvalStatus"])
		assert.Equal(t, "2025-07-01", doc["contractDate"])

		w = doJSON(r, http.MethodPut, base, map[string]any{"status": "DataEntered"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProjectSummaryRoute(t *testing.T) {
	r := setupRouter(t)
	createDoc(t, r, "NB-102", "GA-001")
	createDoc(t, r, "NB-101", "GA-001")

	t.Run("all projects sorted by code", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/projects/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode(t, w)["rows"].([]any)
		require.Len(t, rows, 2)
		first := rows[0].(map[string]any)
		assert.Equal(t, "NB-101", first["projectCode"])
		assert.Equal(t, float64(1), first["dataGirilmis"])
		assert.Equal(t, float64(1), first["gecikmis"])
		assert.Equal(t, float64(1), first["toplam"])
	})

	t.Run("explicit now before the contract date", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/projects/summary?project=NB-101&now=2025-04-01T00:00:00Z", nil)
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode(t, w)["rows"].([]any)
		require.Len(t, rows, 1)
		assert.Equal(t, float64(0), rows[0].(map[string]any)["gecikmis"])
	})

	t.Run("unknown project and bad now", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/projects/summary?project=NB-999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(r, http.MethodGet, "/api/v1/projects/summary?now=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "plan.pdf", downloadName("2025/05/0d6c3f0e-5d1b-4d8e-9a55-8c7a4f6a9b21-plan.pdf"))
	assert.Equal(t, "short.pdf", downloadName("short.pdf"))
	assert.True(t, strings.HasSuffix(downloadName(`2025/05/0d6c3f0e-5d1b-4d8e-9a55-8c7a4f6a9b21-a"b.pdf`), "a'b.pdf"))
}
