package service

import (
	"strings"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/engdocs/docregister-backend/internal/documents/lifecycle"
)

// matcher is a DocumentFilter with the search text folded once.
type matcher struct {
	filter domain.DocumentFilter
	search string
}

func newMatcher(f domain.DocumentFilter) matcher {
	return matcher{filter: f, search: lifecycle.Fold(f.Search)}
}

func (m matcher) match(doc domain.Document) bool {
	if m.filter.ProjectCode != "" && doc.ProjectCode != m.filter.ProjectCode {
		return false
	}
	if m.filter.Status != "" && doc.Status != m.filter.Status {
		return false
	}
	if m.filter.Type != "" && !strings.EqualFold(doc.Type, m.filter.Type) {
		return false
	}
	if m.search == "" {
		return true
	}
	return strings.Contains(lifecycle.Fold(doc.Title), m.search) ||
		strings.Contains(lifecycle.Fold(doc.DocumentNo), m.search)
}
