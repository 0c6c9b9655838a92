package service

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/crmgate/internal/bitrix"
	"github.com/Harshitk-cp/crmgate/internal/domain"
)

const addressSep = ", "

// JoinAddress renders an address as "ward, district, city".
func JoinAddress(a domain.Address) string {
	return a.Ward + addressSep + a.District + addressSep + a.City
}

// SplitAddress parses "ward, district, city". It returns nil when the value
// has fewer than three parts; parts past the third are dropped.
func SplitAddress(s string) *domain.Address {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, addressSep)
	if len(parts) < 3 {
		return nil
	}
	return &domain.Address{Ward: parts[0], District: parts[1], City: parts[2]}
}

func contactFields(in domain.ContactInput) map[string]any {
	fields := map[string]any{}
	if in.Name != "" {
		fields["NAME"] = in.Name
	}
	if in.Phone != "" {
		fields["PHONE"] = bitrix.WorkValue(in.Phone)
	}
	if in.Email != "" {
		fields["EMAIL"] = bitrix.WorkValue(in.Email)
	}
	if in.Website != "" {
		fields["WEB"] = bitrix.WorkValue(in.Website)
	}
	if in.Address != nil {
		fields["ADDRESS"] = JoinAddress(*in.Address)
	}
	return fields
}

func toContact(c bitrix.Contact, bank *domain.BankInfo) *domain.Contact {
	return &domain.Contact{
		ID:        c.ID.String(),
		Name:      c.Name,
		Address:   SplitAddress(c.Address),
		Phone:     bitrix.FirstValue(c.Phone),
		Email:     bitrix.FirstValue(c.Email),
		Website:   bitrix.FirstValue(c.Web),
		BankInfo:  bank,
		CreatedAt: c.DateCreate,
		UpdatedAt: c.DateModify,
	}
}

// validateInput checks a contact payload. Name is only required on create.
func validateInput(in domain.ContactInput, create bool) error {
	if create && strings.TrimSpace(in.Name) == "" {
		return domain.NewError(domain.ErrValidation, "Name is required")
	}
	if a := in.Address; a != nil {
		parts := []struct{ field, value string }{{"ward", a.Ward}, {"district", a.District}, {"city", a.City}}
		for _, p := range parts {
			if strings.TrimSpace(p.value) == "" {
				return domain.NewError(domain.ErrValidation, "address.%s is required", p.field)
			}
		}
	}
	if b := in.BankInfo; b != nil {
		if strings.TrimSpace(b.BankName) == "" {
			return domain.NewError(domain.ErrValidation, "bankInfo.bankName is required")
		}
		if strings.TrimSpace(b.AccountNumber) == "" {
			return domain.NewError(domain.ErrValidation, "bankInfo.accountNumber is required")
		}
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return domain.NewError(domain.ErrValidation, "email must be a valid email address")
		}
	}
	if in.Website != "" {
		u, err := url.ParseRequestURI(in.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return domain.NewError(domain.ErrValidation, "website must be a valid URL")
		}
	}
	return nil
}
