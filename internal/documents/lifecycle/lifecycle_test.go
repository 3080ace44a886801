package lifecycle

import (
	"testing"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)

func rev(no int) domain.Revision {
	return domain.Revision{DocumentID: "doc-1", RevisionNo: no, UploadedBy: "ayse", Notes: "upload"}
}

func remark(seq int, role domain.Role, content string, revNo int) domain.Remark {
	return domain.Remark{
		DocumentID: "doc-1",
		Role:       role,
		Content:    content,
		CreatedBy:  "reviewer",
		CreatedAt:  t0.Add(time.Duration(seq) * time.Minute),
		Seq:        seq,
		RevisionNo: revNo,
	}
}

func snapshot(revs []domain.Revision, remarks ...domain.Remark) domain.Snapshot {
	return domain.Snapshot{
		Document:  domain.Document{ID: "doc-1", Status: domain.StatusPublished},
		Revisions: revs,
		Remarks:   remarks,
	}
}

func TestMarkerPolicy(t *testing.T) {
	p := NewMarkerPolicy()

	cases := map[string]bool{
		"APPROVED":                       true,
		"approved, no further notes":     true,
		"Onaylandı":                      true,
		"onaylandi - rev B uygun":        true,
		"ONAYLANDI.":                     true,
		"Onaysız, düzeltme gerekli":      false,
		"Onay bekleniyor":                false,
		"Onay verilmedi":                 false,
		"Onay geri çekildi":              false,
		"ONAY":                           false,
		"Approved? No, revise section 3": false,
		"approved2":                      false,
		"not approved":                   false,
		"please review section 4":        false,
		"":                               false,
	}
	for content, want := range cases {
		assert.Equal(t, want, p.IsApproval(content), "content %q", content)
	}
}

func TestMarkerPolicy_CustomMarkers(t *testing.T) {
	p := NewMarkerPolicy("ok", " ")
	assert.True(t, p.IsApproval("OK for construction"))
	assert.False(t, p.IsApproval("okay"))
	assert.False(t, p.IsApproval("APPROVED"))
}

func TestFacts_Status(t *testing.T) {
	assert.Equal(t, domain.ApprovalPending, Facts{}.Status())
	assert.Equal(t, domain.ApprovalOwnerApproved, Facts{OwnerRemarked: true}.Status())
	assert.Equal(t, domain.ApprovalClassApproved, Facts{OwnerRemarked: true, Class: true}.Status())
	assert.Equal(t, domain.ApprovalFlagApproved, Facts{Flag: true}.Status())
	assert.Equal(t, domain.ApprovalFullyApproved, Facts{Class: true, Flag: true}.Status())
}

func TestEngine_ApprovalStatus(t *testing.T) {
	e := NewEngine(NewMarkerPolicy(), OverrideRetain)
	one := []domain.Revision{rev(1)}

	t.Run("no remarks is pending", func(t *testing.T) {
		assert.Equal(t, domain.ApprovalPending, e.ApprovalStatus(snapshot(one)))
	})

	t.Run("owner or design discussion", func(t *testing.T) {
		assert.Equal(t, domain.ApprovalOwnerApproved,
			e.ApprovalStatus(snapshot(one, remark(1, domain.RoleOwner, "looks fine", 1))))
		assert.Equal(t, domain.ApprovalPending,
			e.ApprovalStatus(snapshot(one, remark(1, domain.RoleDesign, "APPROVED", 1))))
	})

	t.Run("class then flag approval in either order", func(t *testing.T) {
		s := snapshot(one,
			remark(1, domain.RoleClass, "APPROVED", 1),
		)
		assert.Equal(t, domain.ApprovalClassApproved, e.ApprovalStatus(s))

		s.Remarks = append(s.Remarks, remark(2, domain.RoleFlag, "Onaylandı", 1))
		assert.Equal(t, domain.ApprovalFullyApproved, e.ApprovalStatus(s))

		s = snapshot(one,
			remark(1, domain.RoleFlag, "APPROVED", 1),
			remark(2, domain.RoleClass, "APPROVED", 1),
		)
		assert.Equal(t, domain.ApprovalFullyApproved, e.ApprovalStatus(s))
	})

	t.Run("later non-approving remark retracts", func(t *testing.T) {
		s := snapshot(one,
			remark(1, domain.RoleClass, "APPROVED", 1),
			remark(2, domain.RoleFlag, "APPROVED", 1),
			remark(3, domain.RoleFlag, "withdrawn, drawing 3 is wrong", 1),
		)
		assert.Equal(t, domain.ApprovalClassApproved, e.ApprovalStatus(s))
	})

	t.Run("latest remark is chosen by createdAt, not slice order", func(t *testing.T) {
		late := remark(5, domain.RoleClass, "APPROVED", 1)
		early := remark(2, domain.RoleClass, "needs work", 1)
		s := snapshot(one, late, early)
		assert.Equal(t, domain.ApprovalClassApproved, e.ApprovalStatus(s))
	})

	t.Run("new revision resets approvals", func(t *testing.T) {
		s := snapshot([]domain.Revision{rev(1), rev(2)},
			remark(1, domain.RoleClass, "APPROVED", 1),
			remark(2, domain.RoleFlag, "APPROVED", 1),
			remark(3, domain.RoleOwner, "ok", 1),
		)
		assert.Equal(t, domain.ApprovalPending, e.ApprovalStatus(s))

		s.Remarks = append(s.Remarks, remark(4, domain.RoleClass, "APPROVED", 2))
		assert.Equal(t, domain.ApprovalClassApproved, e.ApprovalStatus(s))
	})

	t.Run("first revision keeps remarks posted before it", func(t *testing.T) {
		s := snapshot(one, remark(1, domain.RoleClass, "APPROVED", 0))
		assert.Equal(t, domain.ApprovalClassApproved, e.ApprovalStatus(s))
	})
}

func TestEngine_Override(t *testing.T) {
	s := snapshot([]domain.Revision{rev(1)})
	s.Document.ApprovalOverride = domain.ApprovalFullyApproved

	retain := NewEngine(NewMarkerPolicy(), OverrideRetain)
	assert.Equal(t, domain.ApprovalFullyApproved, retain.ApprovalStatus(s))

	recompute := NewEngine(NewMarkerPolicy(), OverrideRecompute)
	assert.Equal(t, domain.ApprovalPending, recompute.ApprovalStatus(s))
}

func TestEngine_InjectedPolicy(t *testing.T) {
	yes := ApprovalFunc(func(string) bool { return true })
	e := NewEngine(yes, OverrideRetain)
	s := snapshot([]domain.Revision{rev(1)},
		remark(1, domain.RoleClass, "anything", 1),
		remark(2, domain.RoleFlag, "anything", 1),
	)
	assert.Equal(t, domain.ApprovalFullyApproved, e.ApprovalStatus(s))
}

func TestEngine_Detail(t *testing.T) {
	e := NewEngine(nil, "")
	d := e.Detail(snapshot([]domain.Revision{rev(2), rev(1)}))
	require.Len(t, d.Revisions, 2)
	assert.Equal(t, 1, d.Revisions[0].RevisionNo)
	assert.Equal(t, 2, d.CurrentRevision)
}

func TestNextRevisionNo(t *testing.T) {
	n, err := NextRevisionNo(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = NextRevisionNo([]domain.Revision{rev(1), rev(2), rev(3)})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = NextRevisionNo([]domain.Revision{rev(1), rev(1)})
	assert.Error(t, err)

	_, err = NextRevisionNo([]domain.Revision{rev(1), rev(3)})
	assert.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	assert.Equal(t, domain.StatusPublished, StatusAfterAppend(domain.StatusDataEntered))
	assert.Equal(t, domain.StatusPublished, StatusAfterAppend(domain.StatusPublished))

	assert.NoError(t, CheckStatusChange(domain.StatusDataEntered, domain.StatusPublished, 1))
	assert.ErrorIs(t, CheckStatusChange(domain.StatusDataEntered, domain.StatusPublished, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, CheckStatusChange(domain.StatusPublished, domain.StatusDataEntered, 3), domain.ErrInvalidInput)
	assert.NoError(t, CheckStatusChange(domain.StatusPublished, domain.StatusPublished, 3))
}

func TestParseOverrideMode(t *testing.T) {
	m, err := ParseOverrideMode("")
	require.NoError(t, err)
	assert.Equal(t, OverrideRetain, m)

	m, err = ParseOverrideMode("Recompute")
	require.NoError(t, err)
	assert.Equal(t, OverrideRecompute, m)

	_, err = ParseOverrideMode("sometimes")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
