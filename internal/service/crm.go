package service

import (
	"context"

	"github.com/Harshitk-cp/crmgate/internal/bitrix"
)

// Lookups are the read-only CRM methods exposed for connection checks.
type Lookups interface {
	Contacts(ctx context.Context, portal string, filter map[string]any) (*bitrix.Response, error)
	CurrentUser(ctx context.Context, portal string) (*bitrix.Response, error)
	Deals(ctx context.Context, portal string, filter map[string]any) (*bitrix.Response, error)
	Leads(ctx context.Context, portal string, filter map[string]any) (*bitrix.Response, error)
}

type LookupService struct {
	api Lookups
}

func NewLookupService(api Lookups) *LookupService {
	return &LookupService{api: api}
}

func (s *LookupService) Contacts(ctx context.Context, portal string) (*bitrix.Response, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}
	return s.api.Contacts(ctx, portal, nil)
}

func (s *LookupService) CurrentUser(ctx context.Context, portal string) (*bitrix.Response, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}
	return s.api.CurrentUser(ctx, portal)
}

func (s *LookupService) Deals(ctx context.Context, portal string) (*bitrix.Response, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}
	return s.api.Deals(ctx, portal, nil)
}

func (s *LookupService) Leads(ctx context.Context, portal string) (*bitrix.Response, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}
	return s.api.Leads(ctx, portal, nil)
}
