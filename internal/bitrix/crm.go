package bitrix

import "context"

// Method names.
const (
	MethodContactList   = "crm.contact.list"
	MethodContactGet    = "crm.contact.get"
	MethodContactAdd    = "crm.contact.add"
	MethodContactUpdate = "crm.contact.update"
	MethodContactDelete = "crm.contact.delete"
	MethodRequisiteList = "crm.requisite.list"
	MethodRequisiteAdd  = "crm.requisite.add"
	MethodRequisiteUpd  = "crm.requisite.update"
	MethodRequisiteDel  = "crm.requisite.delete"
	MethodUserCurrent   = "user.current"
	MethodDealList      = "crm.deal.list"
	MethodLeadList      = "crm.lead.list"
)

type listPayload struct {
	Select []string       `json:"select"`
	Filter map[string]any `json:"filter"`
	Start  int            `json:"start"`
}

func newList(filter map[string]any, fields ...string) listPayload {
	if filter == nil {
		filter = map[string]any{}
	}
	return listPayload{Select: fields, Filter: filter, Start: 0}
}

// Contacts runs the lightweight crm.contact.list lookup.
func (c *Client) Contacts(ctx context.Context, portal string, filter map[string]any) (*Response, error) {
	return c.Call(ctx, portal, MethodContactList, newList(filter, "ID", "NAME", "LAST_NAME", "EMAIL", "PHONE"))
}

func (c *Client) CurrentUser(ctx context.Context, portal string) (*Response, error) {
	return c.Call(ctx, portal, MethodUserCurrent, nil)
}

func (c *Client) Deals(ctx context.Context, portal string, filter map[string]any) (*Response, error) {
	return c.Call(ctx, portal, MethodDealList, newList(filter, "ID", "TITLE", "STAGE_ID", "OPPORTUNITY", "CURRENCY_ID"))
}

func (c *Client) Leads(ctx context.Context, portal string, filter map[string]any) (*Response, error) {
	return c.Call(ctx, portal, MethodLeadList, newList(filter, "ID", "TITLE", "STATUS_ID", "SOURCE_ID", "OPPORTUNITY"))
}
