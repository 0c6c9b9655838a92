package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/Harshitk-cp/crmgate/internal/bitrix"
	"github.com/Harshitk-cp/crmgate/internal/domain"
)

// fakeCRM is an in-memory stand-in for the contact and requisite REST methods.
type fakeCRM struct {
	mu         sync.Mutex
	nextID     int
	contacts   map[string]map[string]any
	requisites map[string]map[string]any
	fail       map[string]error
	calls      []string
	nullGet    bool
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		nextID:     100,
		contacts:   make(map[string]map[string]any),
		requisites: make(map[string]map[string]any),
		fail:       make(map[string]error),
	}
}

func (f *fakeCRM) failOn(method string) {
	f.fail[method] = domain.NewError(domain.ErrUpstreamAPI, "Bitrix24 API error: %s unavailable", method)
}

func (f *fakeCRM) methodCalls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeCRM) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func result(v any) (*bitrix.Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &bitrix.Response{Result: b}, nil
}

func decodePayload(payload any) map[string]any {
	b, _ := json.Marshal(payload)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func (f *fakeCRM) Call(ctx context.Context, portal, method string, payload any) (*bitrix.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	if err, ok := f.fail[method]; ok {
		return nil, err
	}
	p := decodePayload(payload)
	id := fmt.Sprint(p["id"])

	switch method {
	case bitrix.MethodContactAdd:
		newID := f.id()
		fields := p["fields"].(map[string]any)
		fields["ID"] = newID
		fields["DATE_CREATE"] = "2024-05-01T09:00:00+00:00"
		fields["DATE_MODIFY"] = "2024-05-01T09:00:00+00:00"
		f.contacts[newID] = fields
		n, _ := strconv.Atoi(newID)
		return result(n)
	case bitrix.MethodContactGet:
		c, ok := f.contacts[id]
		if !ok || f.nullGet {
			return result(nil)
		}
		return result(c)
	case bitrix.MethodContactList:
		out := []map[string]any{}
		for _, c := range f.contacts {
			out = append(out, c)
		}
		return result(out)
	case bitrix.MethodContactUpdate:
		c := f.contacts[id]
		for k, v := range p["fields"].(map[string]any) {
			c[k] = v
		}
		return result(true)
	case bitrix.MethodContactDelete:
		delete(f.contacts, id)
		return result(true)
	case bitrix.MethodRequisiteList:
		filter := p["filter"].(map[string]any)
		out := []map[string]any{}
		for _, r := range f.requisites {
			if r["ENTITY_ID"] == filter["ENTITY_ID"] && r["ENTITY_TYPE_ID"] == filter["ENTITY_TYPE_ID"] {
				out = append(out, r)
			}
		}
		return result(out)
	case bitrix.MethodRequisiteAdd:
		newID := f.id()
		fields := p["fields"].(map[string]any)
		fields["ID"] = newID
		f.requisites[newID] = fields
		return result(newID)
	case bitrix.MethodRequisiteUpd:
		r := f.requisites[id]
		for k, v := range p["fields"].(map[string]any) {
			r[k] = v
		}
		return result(true)
	case bitrix.MethodRequisiteDel:
		delete(f.requisites, id)
		return result(true)
	}
	return nil, domain.NewError(domain.ErrUpstreamAPI, "Bitrix24 API error: unknown method %s", method)
}
