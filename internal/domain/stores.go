package domain

import (
	"context"
)

// CredentialStore persists one credential per tenant domain. Implementations
// must enforce domain uniqueness and return store.ErrNotFound for missing rows.
type CredentialStore interface {
	// Get returns the credential for domain regardless of status.
	Get(ctx context.Context, domain string) (*Credential, error)
	// UpsertActive replaces any record for domain with a new active one.
	UpsertActive(ctx context.Context, domain, accessToken, refreshToken string, expiresIn int) (*Credential, error)
	// UpdateTokens rotates tokens of the active record in place.
	UpdateTokens(ctx context.Context, domain, accessToken, refreshToken string, expiresIn int) (*Credential, error)
	// MarkInvalid flips the record to invalid, keeping its tokens.
	MarkInvalid(ctx context.Context, domain string) error
	Ping(ctx context.Context) error
}
