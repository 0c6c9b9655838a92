package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/lock"
	"github.com/Harshitk-cp/crmgate/internal/oauth"
	"github.com/Harshitk-cp/crmgate/internal/store"
	"github.com/Harshitk-cp/crmgate/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Install values longer than this, or prefixed "local.", are access tokens
// handed over directly by the portal rather than authorization codes.
const (
	tokenShapedMinLen = 50
	tokenShapedPrefix = "local."
)

const (
	msgNoActiveToken  = "No active token found for this domain"
	msgNoTokenRefresh = "No token found to refresh"
	msgRefreshFailed  = "Failed to refresh token"
	msgMissingConfig  = "OAuth configuration is missing. Please check CLIENT_ID, CLIENT_SECRET, and REDIRECT_URI environment variables."
	msgMissingRefresh = "Missing OAuth configuration for refresh"
	msgInstalled      = "App installed successfully"
)

// TokenExchanger is the remote token endpoint.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, portal, code string) (*oauth.Token, error)
	Refresh(ctx context.Context, portal, refreshToken string) (*oauth.Token, error)
	Settings() oauth.Settings
}

// CredentialService owns the credential lifecycle of every portal:
// none -> active on install, active -> active on refresh, active -> invalid
// when a refresh fails. Invalid is terminal until the next install.
type CredentialService struct {
	store    domain.CredentialStore
	exchange TokenExchanger
	locker   lock.Locker
	group    singleflight.Group
	now      func() time.Time
	logger   *zap.Logger

	refreshTimeout time.Duration
}

type CredentialOption func(*CredentialService)

// WithLocker serializes refreshes across processes.
func WithLocker(l lock.Locker) CredentialOption {
	return func(s *CredentialService) { s.locker = l }
}

func WithClock(now func() time.Time) CredentialOption {
	return func(s *CredentialService) { s.now = now }
}

// WithRefreshTimeout bounds one refresh, from the credential re-read to the
// token write.
func WithRefreshTimeout(d time.Duration) CredentialOption {
	return func(s *CredentialService) { s.refreshTimeout = d }
}

func NewCredentialService(s domain.CredentialStore, ex TokenExchanger, logger *zap.Logger, opts ...CredentialOption) *CredentialService {
	svc := &CredentialService{
		store:    s,
		exchange: ex,
		now:      time.Now,
		logger:   logger,

		refreshTimeout: transport.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SettingsView is the non-secret part of the OAuth configuration.
type SettingsView struct {
	ClientID        string `json:"client_id"`
	RedirectURI     string `json:"redirect_uri"`
	HasClientSecret bool   `json:"has_client_secret"`
}

func (s *CredentialService) Settings() SettingsView {
	st := s.exchange.Settings()
	return SettingsView{
		ClientID:        st.ClientID,
		RedirectURI:     st.RedirectURI,
		HasClientSecret: st.ClientSecret != "",
	}
}

// Install handles the portal's install callback. A token-shaped code is
// stored as the access token with a one hour lifetime; anything else is
// exchanged at the token endpoint.
func (s *CredentialService) Install(ctx context.Context, code, portal string) (*domain.InstallResult, error) {
	if code == "" {
		return nil, domain.NewError(domain.ErrValidation, "Authorization code is required")
	}
	if portal == "" {
		return nil, domain.NewError(domain.ErrValidation, "Domain is required")
	}
	if strings.HasPrefix(code, tokenShapedPrefix) || len(code) > tokenShapedMinLen {
		s.logger.Warn("install code looks like an access token, storing it without exchange",
			zap.String("domain", portal))
		return s.InstallFromToken(ctx, portal, code, code, oauth.DefaultExpiresIn)
	}
	return s.InstallFromCode(ctx, portal, code)
}

// InstallFromCode exchanges an authorization code and stores the result.
func (s *CredentialService) InstallFromCode(ctx context.Context, portal, code string) (*domain.InstallResult, error) {
	if err := s.validateInstall(portal); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, domain.NewError(domain.ErrValidation, "Authorization code is required")
	}
	if len(s.exchange.Settings().MissingForExchange()) > 0 {
		return nil, domain.NewError(domain.ErrConfiguration, msgMissingConfig)
	}

	tok, err := s.exchange.ExchangeCode(ctx, portal, code)
	if err != nil {
		s.logger.Error("token exchange failed", zap.String("domain", portal), zap.Error(err))
		return nil, err
	}
	return s.save(ctx, portal, tok.AccessToken, tok.RefreshToken, tok.Lifetime())
}

// InstallFromToken stores a token pair the portal delivered directly.
func (s *CredentialService) InstallFromToken(ctx context.Context, portal, accessToken, refreshToken string, expiresIn int) (*domain.InstallResult, error) {
	if err := s.validateInstall(portal); err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, domain.NewError(domain.ErrValidation, "Access token is required")
	}
	if refreshToken == "" {
		refreshToken = accessToken
	}
	if expiresIn <= 0 {
		expiresIn = oauth.DefaultExpiresIn
	}
	return s.save(ctx, portal, accessToken, refreshToken, expiresIn)
}

func (s *CredentialService) validateInstall(portal string) error {
	if portal == "" {
		return domain.NewError(domain.ErrValidation, "Domain is required")
	}
	if !strings.Contains(portal, ".bitrix24.") {
		s.logger.Warn("domain format might be incorrect", zap.String("domain", portal))
	}
	return nil
}

func (s *CredentialService) save(ctx context.Context, portal, accessToken, refreshToken string, expiresIn int) (*domain.InstallResult, error) {
	if _, err := s.store.UpsertActive(ctx, portal, accessToken, refreshToken, expiresIn); err != nil {
		s.logger.Error("save credential failed", zap.String("domain", portal), zap.Error(err))
		return nil, domain.WrapError(domain.ErrInternal, err, "Failed to save token")
	}
	s.logger.Info("app installed", zap.String("domain", portal), zap.Int("expires_in", expiresIn))
	return &domain.InstallResult{Success: true, Message: msgInstalled}, nil
}

// EnsureValidToken returns a usable access token for the portal, refreshing
// it first when it has expired.
func (s *CredentialService) EnsureValidToken(ctx context.Context, portal string) (string, error) {
	cred, err := s.active(ctx, portal, msgNoActiveToken)
	if err != nil {
		return "", err
	}
	if !cred.Expired(s.now()) {
		return cred.AccessToken, nil
	}

	s.logger.Info("token expired, refreshing", zap.String("domain", portal))
	cred, err = s.collapse(ctx, portal, true)
	if err != nil {
		return "", err
	}
	if !cred.Active() {
		return "", domain.NewError(domain.ErrRefreshFailed, msgRefreshFailed)
	}
	return cred.AccessToken, nil
}

// Refresh rotates the portal's tokens unconditionally. Any remote failure
// invalidates the credential.
func (s *CredentialService) Refresh(ctx context.Context, portal string) error {
	_, err := s.collapse(ctx, portal, false)
	return err
}

// collapse joins concurrent refreshes of one portal into a single call.
// The refresh is detached from the caller: a cancelled request must not
// abort a token rotation that every waiter shares, nor invalidate the
// credential. It is bounded by refreshTimeout instead.
func (s *CredentialService) collapse(ctx context.Context, portal string, onlyIfExpired bool) (*domain.Credential, error) {
	key := portal
	if onlyIfExpired {
		key += "|expired"
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), portal, onlyIfExpired)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Credential), nil
}

func (s *CredentialService) refresh(ctx context.Context, portal string, onlyIfExpired bool) (*domain.Credential, error) {
	if s.locker != nil {
		h, err := s.locker.Acquire(ctx, portal, lock.DefaultTTL)
		if err != nil {
			s.logger.Warn("refresh lock not acquired", zap.String("domain", portal), zap.Error(err))
			return nil, domain.WrapError(domain.ErrRefreshFailed, err, msgRefreshFailed)
		}
		defer func(ctx context.Context) {
			if err := h.Unlock(ctx); err != nil {
				s.logger.Warn("refresh lock release failed", zap.String("domain", portal), zap.Error(err))
			}
		}(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	// Re-read under the lock: another caller may have refreshed already.
	cred, err := s.active(ctx, portal, msgNoTokenRefresh)
	if err != nil {
		return nil, err
	}
	if onlyIfExpired && !cred.Expired(s.now()) {
		return cred, nil
	}

	if len(s.exchange.Settings().MissingForRefresh()) > 0 {
		return nil, domain.NewError(domain.ErrConfiguration, msgMissingRefresh)
	}

	tok, err := s.exchange.Refresh(ctx, portal, cred.RefreshToken)
	if err != nil {
		s.logger.Error("token refresh failed", zap.String("domain", portal), zap.Error(err))
		// The refresh deadline may be what failed the call.
		if markErr := s.store.MarkInvalid(context.WithoutCancel(ctx), portal); markErr != nil {
			s.logger.Error("mark credential invalid failed", zap.String("domain", portal), zap.Error(markErr))
		}
		return nil, domain.WrapError(domain.ErrRefreshFailed, err, msgRefreshFailed)
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}
	updated, err := s.store.UpdateTokens(ctx, portal, tok.AccessToken, refreshToken, tok.Lifetime())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.NewError(domain.ErrRefreshFailed, msgRefreshFailed)
		}
		s.logger.Error("store refreshed token failed", zap.String("domain", portal), zap.Error(err))
		return nil, domain.WrapError(domain.ErrInternal, err, "Failed to save refreshed token")
	}
	s.logger.Info("token refreshed", zap.String("domain", portal))
	return updated, nil
}

// active returns the portal's credential if it may authorize calls.
func (s *CredentialService) active(ctx context.Context, portal, missingMsg string) (*domain.Credential, error) {
	if portal == "" {
		return nil, domain.NewError(domain.ErrValidation, "Domain is required")
	}
	cred, err := s.lookup(ctx, portal)
	if err != nil {
		return nil, err
	}
	if !cred.Active() {
		return nil, domain.NewError(domain.ErrNoCredential, "%s", missingMsg)
	}
	return cred, nil
}

// lookup returns nil without error when the portal has no credential.
func (s *CredentialService) lookup(ctx context.Context, portal string) (*domain.Credential, error) {
	cred, err := s.store.Get(ctx, portal)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrInternal, err, "Failed to load token")
	}
	return cred, nil
}
