package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"golang.org/x/sync/errgroup"
)

// maxWorkers bounds the goroutines used to aggregate projects in parallel.
const maxWorkers = 8

// Classify adds one document to a row. The caller has validated the document.
func Classify(row *domain.ProjectSummaryRow, doc domain.DocumentView, today domain.Date) {
	row.Toplam++

	switch doc.Status {
	case domain.StatusDataEntered:
		row.DataGirilmis++
	case domain.StatusPublished:
		row.Yayinlanmis++
	}

	switch doc.ApprovalStatus {
	case domain.ApprovalClassApproved:
		row.KlassOnayli++
	case domain.ApprovalFlagApproved:
		row.BayrakOnayli++
	case domain.ApprovalFullyApproved:
		row.KlassOnayli++
		row.BayrakOnayli++
	case domain.ApprovalPending, domain.ApprovalOwnerApproved:
		row.Onayda++
	}

	if IsOverdue(doc, today) {
		row.Gecikmis++
	}
}

// IsOverdue reports whether a document missed its contract date without
// reaching full approval. A document due today is not overdue.
func IsOverdue(doc domain.DocumentView, today domain.Date) bool {
	return doc.ApprovalStatus != domain.ApprovalFullyApproved && doc.ContractDate.Before(today)
}

func validate(doc domain.DocumentView) error {
	switch {
	case strings.TrimSpace(doc.ProjectCode) == "":
		return fmt.Errorf("missing project code")
	case !doc.Status.Valid():
		return fmt.Errorf("unknown status %q", doc.Status)
	case !doc.ApprovalStatus.Valid():
		return fmt.Errorf("unknown approval status %q", doc.ApprovalStatus)
	case doc.ContractDate.IsZero():
		return fmt.Errorf("missing contract date")
	}
	return nil
}

// Summarize builds one row per project code, sorted by project code.
// Malformed documents are skipped and listed in the report's Degraded field.
// The result depends only on docs and now.
func Summarize(ctx context.Context, docs []domain.DocumentView, now time.Time) (domain.SummaryReport, error) {
	report := domain.SummaryReport{GeneratedAt: now.UTC(), Rows: []domain.ProjectSummaryRow{}}

	byProject := make(map[string][]domain.DocumentView)
	for _, d := range docs {
		if err := validate(d); err != nil {
			report.Degraded = append(report.Degraded, domain.DegradedDocument{
				DocumentID:  d.ID,
				ProjectCode: d.ProjectCode,
				Reason:      err.Error(),
			})
			continue
		}
		byProject[d.ProjectCode] = append(byProject[d.ProjectCode], d)
	}

	codes := make([]string, 0, len(byProject))
	for code := range byProject {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	today := domain.DateOf(now)
	rows := make([]domain.ProjectSummaryRow, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := domain.ProjectSummaryRow{ProjectCode: code}
			for _, d := range byProject[code] {
				Classify(&row, d, today)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SummaryReport{}, err
	}

	report.Rows = rows
	return report, nil
}
