package store

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const credentialColumns = `id, domain, access_token, refresh_token, expires_in, expires_at, status, created_at, updated_at`

type CredentialStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewCredentialStore(db *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{db: db, now: time.Now}
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *CredentialStore) Get(ctx context.Context, domainName string) (*domain.Credential, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE domain = $1`,
		domainName,
	)
	return scanCredential(row)
}

// UpsertActive replaces the domain's row in a single statement so that
// concurrent installs cannot leave two rows behind. The unique index on
// domain is the backstop.
func (s *CredentialStore) UpsertActive(ctx context.Context, domainName, accessToken, refreshToken string, expiresIn int) (*domain.Credential, error) {
	expiresAt := s.now().Add(time.Duration(expiresIn) * time.Second)
	row := s.db.QueryRow(ctx,
		`INSERT INTO credentials (domain, access_token, refresh_token, expires_in, expires_at, status)
		 VALUES ($1, $2, $3, $4, $5, 'active')
		 ON CONFLICT (domain) DO UPDATE SET
		     id = gen_random_uuid(),
		     access_token = EXCLUDED.access_token,
		     refresh_token = EXCLUDED.refresh_token,
		     expires_in = EXCLUDED.expires_in,
		     expires_at = EXCLUDED.expires_at,
		     status = 'active',
		     created_at = NOW(),
		     updated_at = NOW()
		 RETURNING `+credentialColumns,
		domainName, accessToken, refreshToken, expiresIn, expiresAt,
	)
	c, err := scanCredential(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}
	return c, nil
}

func (s *CredentialStore) UpdateTokens(ctx context.Context, domainName, accessToken, refreshToken string, expiresIn int) (*domain.Credential, error) {
	expiresAt := s.now().Add(time.Duration(expiresIn) * time.Second)
	row := s.db.QueryRow(ctx,
		`UPDATE credentials
		 SET access_token = $2, refresh_token = $3, expires_in = $4, expires_at = $5, updated_at = NOW()
		 WHERE domain = $1 AND status = 'active'
		 RETURNING `+credentialColumns,
		domainName, accessToken, refreshToken, expiresIn, expiresAt,
	)
	return scanCredential(row)
}

func (s *CredentialStore) MarkInvalid(ctx context.Context, domainName string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE credentials SET status = 'invalid', updated_at = NOW() WHERE domain = $1`,
		domainName,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	c := &domain.Credential{}
	var status string
	err := row.Scan(&c.ID, &c.Domain, &c.AccessToken, &c.RefreshToken, &c.ExpiresIn, &c.ExpiresAt, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Status = domain.CredentialStatus(status)
	return c, nil
}
