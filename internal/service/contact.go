package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/crmgate/internal/bitrix"
	"github.com/Harshitk-cp/crmgate/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// bankLookupLimit bounds concurrent requisite lookups when listing contacts.
const bankLookupLimit = 8

var contactListFields = []string{"ID", "NAME", "LAST_NAME", "PHONE", "EMAIL", "WEB", "ADDRESS", "DATE_CREATE", "DATE_MODIFY"}

// Caller issues one authenticated REST call.
type Caller interface {
	Call(ctx context.Context, portal, method string, payload any) (*bitrix.Response, error)
}

// ContactService composes contacts with their bank requisite. Contact calls
// are authoritative and their errors propagate. Requisite calls are best
// effort: failures are logged and the contact is returned without bank info.
type ContactService struct {
	api    Caller
	logger *zap.Logger
}

func NewContactService(api Caller, logger *zap.Logger) *ContactService {
	return &ContactService{api: api, logger: logger}
}

func (s *ContactService) List(ctx context.Context, portal string, f domain.ContactFilter) ([]domain.Contact, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}

	filter := map[string]any{}
	if f.Name != "" {
		filter["%NAME"] = f.Name
	}
	if f.Email != "" {
		filter["%EMAIL"] = f.Email
	}

	resp, err := s.api.Call(ctx, portal, bitrix.MethodContactList, map[string]any{
		"select": contactListFields,
		"filter": filter,
		"start":  0,
	})
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	var raw []bitrix.Contact
	if !resp.IsNull() {
		if err := resp.Decode(&raw); err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
	}

	out := make([]domain.Contact, len(raw))
	var g errgroup.Group
	g.SetLimit(bankLookupLimit)
	for i := range raw {
		g.Go(func() error {
			out[i] = *toContact(raw[i], s.bankInfo(ctx, portal, raw[i].ID.String()))
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func (s *ContactService) Get(ctx context.Context, portal, id string) (*domain.Contact, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.NewError(domain.ErrValidation, "Contact ID is required")
	}

	resp, err := s.api.Call(ctx, portal, bitrix.MethodContactGet, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get contact %s: %w", id, err)
	}
	if resp.IsNull() {
		return nil, domain.NewError(domain.ErrNotFound, "Contact with ID %s not found", id)
	}

	var raw bitrix.Contact
	if err := resp.Decode(&raw); err != nil {
		return nil, fmt.Errorf("get contact %s: %w", id, err)
	}
	if raw.ID == "" {
		raw.ID = bitrix.ID(id)
	}
	return toContact(raw, s.bankInfo(ctx, portal, id)), nil
}

func (s *ContactService) Create(ctx context.Context, portal string, in domain.ContactInput) (*domain.Contact, error) {
	if err := requireDomain(portal); err != nil {
		return nil, err
	}
	if err := validateInput(in, true); err != nil {
		return nil, err
	}

	resp, err := s.api.Call(ctx, portal, bitrix.MethodContactAdd, map[string]any{"fields": contactFields(in)})
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	var id bitrix.ID
	if err := resp.Decode(&id); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	if id == "" {
		return nil, domain.NewError(domain.ErrUpstreamAPI, "Bitrix24 API error: contact id missing from add result")
	}

	if in.BankInfo != nil {
		s.addBankInfo(ctx, portal, id.String(), *in.BankInfo)
	}
	return s.Get(ctx, portal, id.String())
}

func (s *ContactService) Update(ctx context.Context, portal, id string, in domain.ContactInput) (*domain.Contact, error) {
	if err := validateInput(in, false); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, portal, id); err != nil {
		return nil, err
	}

	_, err := s.api.Call(ctx, portal, bitrix.MethodContactUpdate, map[string]any{
		"id":     id,
		"fields": contactFields(in),
	})
	if err != nil {
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}

	if in.BankInfo != nil {
		s.upsertBankInfo(ctx, portal, id, *in.BankInfo)
	}
	return s.Get(ctx, portal, id)
}

func (s *ContactService) Delete(ctx context.Context, portal, id string) (*domain.DeleteResult, error) {
	if _, err := s.Get(ctx, portal, id); err != nil {
		return nil, err
	}

	s.deleteBankInfo(ctx, portal, id)

	if _, err := s.api.Call(ctx, portal, bitrix.MethodContactDelete, map[string]any{"id": id}); err != nil {
		return nil, fmt.Errorf("delete contact %s: %w", id, err)
	}
	return &domain.DeleteResult{Message: fmt.Sprintf("Contact %s deleted successfully", id)}, nil
}

func requisiteFilter(contactID string) map[string]any {
	return map[string]any{"ENTITY_ID": contactID, "ENTITY_TYPE_ID": bitrix.EntityTypeContact}
}

func (s *ContactService) requisites(ctx context.Context, portal, contactID string, fields ...string) ([]bitrix.Requisite, error) {
	resp, err := s.api.Call(ctx, portal, bitrix.MethodRequisiteList, map[string]any{
		"filter": requisiteFilter(contactID),
		"select": fields,
	})
	if err != nil {
		return nil, err
	}
	if resp.IsNull() {
		return nil, nil
	}
	var out []bitrix.Requisite
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// bankInfo returns the first requisite's bank fields, or nil.
func (s *ContactService) bankInfo(ctx context.Context, portal, contactID string) *domain.BankInfo {
	reqs, err := s.requisites(ctx, portal, contactID, "ID", "RQ_BANK_NAME", "RQ_ACC_NUM")
	if err != nil {
		s.warnBank("get", portal, contactID, err)
		return nil
	}
	if len(reqs) == 0 {
		return nil
	}
	return &domain.BankInfo{BankName: reqs[0].BankName, AccountNumber: reqs[0].AccountNum}
}

func (s *ContactService) addBankInfo(ctx context.Context, portal, contactID string, b domain.BankInfo) {
	_, err := s.api.Call(ctx, portal, bitrix.MethodRequisiteAdd, map[string]any{
		"fields": map[string]any{
			"ENTITY_ID":      contactID,
			"ENTITY_TYPE_ID": bitrix.EntityTypeContact,
			"RQ_BANK_NAME":   b.BankName,
			"RQ_ACC_NUM":     b.AccountNumber,
		},
	})
	if err != nil {
		s.warnBank("create", portal, contactID, err)
	}
}

func (s *ContactService) upsertBankInfo(ctx context.Context, portal, contactID string, b domain.BankInfo) {
	reqs, err := s.requisites(ctx, portal, contactID, "ID")
	if err != nil {
		s.warnBank("update", portal, contactID, err)
		return
	}
	if len(reqs) == 0 {
		s.addBankInfo(ctx, portal, contactID, b)
		return
	}
	_, err = s.api.Call(ctx, portal, bitrix.MethodRequisiteUpd, map[string]any{
		"id": reqs[0].ID,
		"fields": map[string]any{
			"RQ_BANK_NAME": b.BankName,
			"RQ_ACC_NUM":   b.AccountNumber,
		},
	})
	if err != nil {
		s.warnBank("update", portal, contactID, err)
	}
}

// deleteBankInfo removes every requisite of the contact, continuing past
// individual failures.
func (s *ContactService) deleteBankInfo(ctx context.Context, portal, contactID string) {
	reqs, err := s.requisites(ctx, portal, contactID, "ID")
	if err != nil {
		s.warnBank("delete", portal, contactID, err)
		return
	}
	for _, r := range reqs {
		if _, err := s.api.Call(ctx, portal, bitrix.MethodRequisiteDel, map[string]any{"id": r.ID}); err != nil {
			s.warnBank("delete", portal, contactID, err)
		}
	}
}

func (s *ContactService) warnBank(op, portal, contactID string, err error) {
	s.logger.Warn("bank info "+op+" failed",
		zap.String("domain", portal),
		zap.String("contact_id", contactID),
		zap.Error(err),
	)
}

func requireDomain(portal string) error {
	if portal == "" {
		return domain.NewError(domain.ErrValidation, "Domain parameter is required")
	}
	return nil
}
