package http

import (
	"errors"
	"net/http"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrConflict):
		status, code = http.StatusBadRequest, "conflict"
	case errors.Is(err, domain.ErrStorageFailure):
		status, code = http.StatusBadGateway, "storage_failure"
	}
	c.JSON(status, gin.H{"ok": false, "code": code, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "invalid_input", "error": msg})
}
