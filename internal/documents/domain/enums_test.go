package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Run("accepts canonical names", func(t *testing.T) {
		s, err := ParseStatus("Published")
		require.NoError(t, err)
		assert.Equal(t, StatusPublished, s)
	})

	t.Run("accepts original labels", func(t *testing.T) {
		s, err := ParseStatus("Data Girilmiş")
		require.NoError(t, err)
		assert.Equal(t, StatusDataEntered, s)

		s, err = ParseStatus(" Yayınlanmış ")
		require.NoError(t, err)
		assert.Equal(t, StatusPublished, s)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := ParseStatus("Archived")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("class")
	require.NoError(t, err)
	assert.Equal(t, RoleClass, r)

	_, err = ParseRole("Reviewer")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseApprovalStatus(t *testing.T) {
	a, err := ParseApprovalStatus("FullyApproved")
	require.NoError(t, err)
	assert.Equal(t, ApprovalFullyApproved, a)

	_, err = ParseApprovalStatus("Onaylı")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDate(t *testing.T) {
	t.Run("parses plain dates and timestamps", func(t *testing.T) {
		d, err := ParseDate("2024-03-15")
		require.NoError(t, err)
		assert.Equal(t, NewDate(2024, time.March, 15), d)

		d, err = ParseDate("2024-03-15T22:30:00+03:00")
		require.NoError(t, err)
		assert.Equal(t, NewDate(2024, time.March, 15), d)
	})

	t.Run("timestamps keep their local calendar day", func(t *testing.T) {
		d, err := ParseDate("2024-03-15T01:00:00+03:00")
		require.NoError(t, err)
		assert.Equal(t, NewDate(2024, time.March, 15), d)

		d, err = ParseDate("2024-03-15T23:30:00-05:00")
		require.NoError(t, err)
		assert.Equal(t, NewDate(2024, time.March, 15), d)
	})

	t.Run("round trips through json", func(t *testing.T) {
		var doc Document
		require.NoError(t, json.Unmarshal([]byte(`{"contractDate":"2025-01-02"}`), &doc))
		assert.Equal(t, NewDate(2025, time.January, 2), doc.ContractDate)

		out, err := json.Marshal(doc.ContractDate)
		require.NoError(t, err)
		assert.JSONEq(t, `"2025-01-02"`, string(out))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseDate("15/03/2024")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("orders calendar days", func(t *testing.T) {
		assert.True(t, NewDate(2024, 1, 1).Before(NewDate(2024, 1, 2)))
		assert.False(t, NewDate(2024, 1, 2).Before(NewDate(2024, 1, 2)))
	})
}

func TestDocumentView_JSON(t *testing.T) {
	v := DocumentView{
		Document: Document{
			ID:               "d1",
			ProjectCode:      "NB-101",
			Status:           StatusPublished,
			ApprovalOverride: ApprovalFullyApproved,
		},
		ApprovalStatus: ApprovalFullyApproved,
	}

	out, err := json.Marshal(v)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "FullyApproved", fields["approvalStatus"])
	assert.NotContains(t, fields, "approvalOverride")
}
