package auth

import (
	"context"
	"strings"
)

// Authorizer decides whether a signed-in caller may use the moderation
// surface.
type Authorizer interface {
	IsAuthorized(ctx context.Context, email string) bool
}

// EmailAllowlist authorizes a fixed set of addresses, compared case-insensitively.
type EmailAllowlist struct {
	emails map[string]struct{}
}

func NewEmailAllowlist(emails []string) *EmailAllowlist {
	m := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = normalize(e); e != "" {
			m[e] = struct{}{}
		}
	}
	return &EmailAllowlist{emails: m}
}

func (a *EmailAllowlist) IsAuthorized(_ context.Context, email string) bool {
	email = normalize(email)
	if email == "" {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

func (a *EmailAllowlist) Len() int {
	return len(a.emails)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
