package model

import (
	"slices"
	"strings"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// statusLiterals lists every raw value producers have written, keyed by the
// lowercased trimmed literal.
var statusLiterals = map[string]Status{
	"pending":      StatusPending,
	"قيد المراجعة": StatusPending,
	"قيد الانتظار": StatusPending,
	"في الانتظار":  StatusPending,
	"معلق":         StatusPending,
	"approved":     StatusApproved,
	"approve":      StatusApproved,
	"rejected":     StatusRejected,
	"reject":       StatusRejected,
}

// ParseStatus maps a raw status literal to its canonical value and reports
// whether the literal is known.
func ParseStatus(raw string) (Status, bool) {
	s, ok := statusLiterals[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// NormalizeStatus is the single place raw status strings are compared.
// Unknown values are treated as pending so they never become public.
func NormalizeStatus(raw string) Status {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return StatusPending
}

// StatusAliases returns every stored literal that normalizes to s, for use in
// store-side filters. Unknown literals are not included; callers filtering on
// pending should exclude the approved and rejected aliases instead.
func StatusAliases(s Status) []string {
	var out []string
	for raw, st := range statusLiterals {
		if st == s {
			out = append(out, raw)
		}
	}
	// keys are lowercase; filters compare against LOWER(TRIM(status))
	slices.Sort(out)
	return out
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

