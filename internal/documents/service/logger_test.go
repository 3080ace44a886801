package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/engdocs/docregister-backend/internal/api/http/middleware"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	out, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
	})
	return &buf
}

func TestLogger(t *testing.T) {
	t.Run("binds the request id", func(t *testing.T) {
		buf := captureLog(t)
		logger := NewLogger(middleware.WithRequestID(context.Background(), "req-1"))

		logger.LogInfof("post_remark", "document_id=%s role=%s", "d1", "Class")
		logger.LogWarnf("summaries", "degraded=%d", 2)
		logger.LogError("append_revision", errors.New("boom"))

		assert.Equal(t,
			"[info] request_id=req-1 operation=post_remark document_id=d1 role=Class\n"+
				"[warn] request_id=req-1 operation=summaries degraded=2\n"+
				"[error] request_id=req-1 operation=append_revision error=boom\n",
			buf.String())
	})

	t.Run("falls back to background", func(t *testing.T) {
		buf := captureLog(t)
		NewLogger(context.Background()).LogInfof("overdue_report", "projects=%d", 0)
		assert.Equal(t, "[info] request_id=background operation=overdue_report projects=0\n", buf.String())
	})
}
