package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusPending},
		{"approved", StatusApproved},
		{"approve", StatusApproved},
		{" Approved ", StatusApproved},
		{"rejected", StatusRejected},
		{"reject", StatusRejected},
		{"قيد المراجعة", StatusPending},
		{"في الانتظار", StatusPending},
		{"", StatusPending},
		{"published", StatusPending},
		{"APPROVED!", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestParseStatusReportsUnknown(t *testing.T) {
	_, ok := ParseStatus("archived")
	assert.False(t, ok)

	s, ok := ParseStatus("approve")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, s)
}

func TestStatusAliasesRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		aliases := StatusAliases(s)
		assert.Contains(t, aliases, string(s))
		for _, a := range aliases {
			assert.Equal(t, s, NormalizeStatus(a), a)
		}
	}
	assert.ElementsMatch(t, []string{"approve", "approved"}, StatusAliases(StatusApproved))
}
