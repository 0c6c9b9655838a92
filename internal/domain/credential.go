package domain

import (
	"time"

	"github.com/google/uuid"
)

type CredentialStatus string

const (
	CredentialActive  CredentialStatus = "active"
	CredentialInvalid CredentialStatus = "invalid"
)

// Credential is the OAuth grant held for one tenant domain.
// ExpiresAt is computed by the store from ExpiresIn at write time.
type Credential struct {
	ID           uuid.UUID        `json:"id"`
	Domain       string           `json:"domain"`
	AccessToken  string           `json:"-"`
	RefreshToken string           `json:"-"`
	ExpiresIn    int              `json:"expires_in"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Status       CredentialStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Active reports whether the credential may authorize remote calls.
func (c *Credential) Active() bool {
	return c != nil && c.Status == CredentialActive
}

// Expired reports whether now is at or past ExpiresAt.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
