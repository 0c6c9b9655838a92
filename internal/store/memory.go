package store

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/google/uuid"
)

// MemoryCredentialStore keeps credentials in process memory. It is used when
// no database is configured and in tests.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds map[string]domain.Credential
	now   func() time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]domain.Credential), now: time.Now}
}

// WithClock overrides the time source used to derive ExpiresAt.
func (s *MemoryCredentialStore) WithClock(now func() time.Time) *MemoryCredentialStore {
	s.now = now
	return s
}

func (s *MemoryCredentialStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryCredentialStore) Get(ctx context.Context, domainName string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[domainName]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryCredentialStore) UpsertActive(ctx context.Context, domainName, accessToken, refreshToken string, expiresIn int) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := domain.Credential{
		ID:           uuid.New(),
		Domain:       domainName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
		Status:       domain.CredentialActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.creds[domainName] = c
	return &c, nil
}

func (s *MemoryCredentialStore) UpdateTokens(ctx context.Context, domainName, accessToken, refreshToken string, expiresIn int) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[domainName]
	if !ok || c.Status != domain.CredentialActive {
		return nil, ErrNotFound
	}
	now := s.now()
	c.AccessToken = accessToken
	c.RefreshToken = refreshToken
	c.ExpiresIn = expiresIn
	c.ExpiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	c.UpdatedAt = now
	s.creds[domainName] = c
	return &c, nil
}

func (s *MemoryCredentialStore) MarkInvalid(ctx context.Context, domainName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[domainName]
	if !ok {
		return ErrNotFound
	}
	c.Status = domain.CredentialInvalid
	c.UpdatedAt = s.now()
	s.creds[domainName] = c
	return nil
}
