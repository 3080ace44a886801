package lifecycle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
)

// OverrideMode decides what happens to a manual approvalStatus write.
type OverrideMode string

const (
	// OverrideRetain reports the manual value until the next revision or remark.
	OverrideRetain OverrideMode = "retain"
	// OverrideRecompute ignores manual values; the status is always derived.
	OverrideRecompute OverrideMode = "recompute"
)

func ParseOverrideMode(s string) (OverrideMode, error) {
	switch OverrideMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverrideRetain:
		return OverrideRetain, nil
	case OverrideRecompute:
		return OverrideRecompute, nil
	}
	return "", fmt.Errorf("%w: unknown approval override mode %q", domain.ErrInvalidInput, s)
}

// Facts are the per-role approval facts for the current revision.
type Facts struct {
	OwnerRemarked bool
	Class         bool
	Flag          bool
}

// Status collapses the facts into the reported enum.
func (f Facts) Status() domain.ApprovalStatus {
	switch {
	case f.Class && f.Flag:
		return domain.ApprovalFullyApproved
	case f.Class:
		return domain.ApprovalClassApproved
	case f.Flag:
		return domain.ApprovalFlagApproved
	case f.OwnerRemarked:
		return domain.ApprovalOwnerApproved
	}
	return domain.ApprovalPending
}

// CurrentRevision is the highest revisionNo in the ledger, 0 if empty.
func CurrentRevision(revs []domain.Revision) int {
	n := 0
	for _, r := range revs {
		if r.RevisionNo > n {
			n = r.RevisionNo
		}
	}
	return n
}

// ResetPoint is the lowest revision a remark must have been posted against
// to count. The first revision does not reset review.
func ResetPoint(currentRevision int) int {
	if currentRevision > 1 {
		return currentRevision
	}
	return 0
}

// LatestByRole indexes the latest remark per role among remarks posted at or
// after the given revision. Ties on createdAt go to the later append.
func LatestByRole(remarks []domain.Remark, since int) map[domain.Role]domain.Remark {
	idx := make(map[domain.Role]domain.Remark, len(domain.Roles))
	for _, r := range remarks {
		if r.RevisionNo < since {
			continue
		}
		cur, ok := idx[r.Role]
		if !ok || r.CreatedAt.After(cur.CreatedAt) || (r.CreatedAt.Equal(cur.CreatedAt) && r.Seq > cur.Seq) {
			idx[r.Role] = r
		}
	}
	return idx
}

// Engine derives approval state from ledger and remark evidence.
type Engine struct {
	policy ApprovalPolicy
	mode   OverrideMode
}

func NewEngine(policy ApprovalPolicy, mode OverrideMode) *Engine {
	if policy == nil {
		policy = NewMarkerPolicy()
	}
	if mode == "" {
		mode = OverrideRetain
	}
	return &Engine{policy: policy, mode: mode}
}

func (e *Engine) Mode() OverrideMode { return e.mode }

// Facts evaluates the approval facts of a snapshot.
func (e *Engine) Facts(snap domain.Snapshot) Facts {
	latest := LatestByRole(snap.Remarks, ResetPoint(CurrentRevision(snap.Revisions)))

	var f Facts
	_, f.OwnerRemarked = latest[domain.RoleOwner]
	if r, ok := latest[domain.RoleClass]; ok {
		f.Class = e.policy.IsApproval(r.Content)
	}
	if r, ok := latest[domain.RoleFlag]; ok {
		f.Flag = e.policy.IsApproval(r.Content)
	}
	return f
}

// ApprovalStatus is the reported status, honouring a retained manual override.
func (e *Engine) ApprovalStatus(snap domain.Snapshot) domain.ApprovalStatus {
	if e.mode == OverrideRetain && snap.Document.ApprovalOverride.Valid() {
		return snap.Document.ApprovalOverride
	}
	return e.Facts(snap).Status()
}

func (e *Engine) View(snap domain.Snapshot) domain.DocumentView {
	doc := snap.Document
	doc.CurrentRevision = CurrentRevision(snap.Revisions)
	return domain.DocumentView{Document: doc, ApprovalStatus: e.ApprovalStatus(snap)}
}

func (e *Engine) Detail(snap domain.Snapshot) domain.DocumentDetail {
	revs := append([]domain.Revision(nil), snap.Revisions...)
	sort.Slice(revs, func(i, j int) bool { return revs[i].RevisionNo < revs[j].RevisionNo })
	return domain.DocumentDetail{DocumentView: e.View(snap), Revisions: revs}
}

// NextRevisionNo validates the ledger and returns the number for a new entry.
func NextRevisionNo(revs []domain.Revision) (int, error) {
	seen := make(map[int]bool, len(revs))
	for _, r := range revs {
		if r.RevisionNo < 1 || seen[r.RevisionNo] {
			return 0, fmt.Errorf("revision ledger corrupt at revision %d", r.RevisionNo)
		}
		seen[r.RevisionNo] = true
	}
	cur := CurrentRevision(revs)
	if cur != len(revs) {
		return 0, fmt.Errorf("revision ledger has gaps: %d entries, highest %d", len(revs), cur)
	}
	return cur + 1, nil
}

// StatusAfterAppend is the document status once a revision is added.
func StatusAfterAppend(current domain.Status) domain.Status {
	if current == domain.StatusDataEntered {
		return domain.StatusPublished
	}
	return current
}

// CheckStatusChange validates a manual status write. Status is one-way.
func CheckStatusChange(from, to domain.Status, revisions int) error {
	if from == to {
		return nil
	}
	if from == domain.StatusPublished {
		return fmt.Errorf("%w: a published document cannot be unpublished", domain.ErrInvalidInput)
	}
	if to == domain.StatusPublished && revisions == 0 {
		return fmt.Errorf("%w: a document needs a revision before it can be published", domain.ErrInvalidInput)
	}
	return nil
}
