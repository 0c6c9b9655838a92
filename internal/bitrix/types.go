package bitrix

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Entity type ids used by crm.requisite.
const EntityTypeContact = 4

// ID decodes from either a JSON string or a JSON number; the REST API uses both.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Int returns the numeric id, or 0 when it is not numeric.
func (id ID) Int() int64 {
	n, _ := strconv.ParseInt(string(id), 10, 64)
	return n
}

// Multifield is one entry of PHONE, EMAIL or WEB.
type Multifield struct {
	ID        ID     `json:"ID,omitempty"`
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

// FirstValue returns the first entry's value, or "".
func FirstValue(fields []Multifield) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[0].Value
}

// WorkValue wraps a single value the way contact writes expect it.
func WorkValue(v string) []Multifield {
	return []Multifield{{Value: v, ValueType: "WORK"}}
}

// Contact is the crm.contact wire shape.
type Contact struct {
	ID         ID           `json:"ID"`
	Name       string       `json:"NAME"`
	LastName   string       `json:"LAST_NAME,omitempty"`
	Phone      []Multifield `json:"PHONE,omitempty"`
	Email      []Multifield `json:"EMAIL,omitempty"`
	Web        []Multifield `json:"WEB,omitempty"`
	Address    string       `json:"ADDRESS,omitempty"`
	DateCreate string       `json:"DATE_CREATE,omitempty"`
	DateModify string       `json:"DATE_MODIFY,omitempty"`
}

// Requisite is the crm.requisite wire shape, limited to bank fields.
type Requisite struct {
	ID           ID     `json:"ID"`
	EntityTypeID ID     `json:"ENTITY_TYPE_ID,omitempty"`
	EntityID     ID     `json:"ENTITY_ID,omitempty"`
	BankName     string `json:"RQ_BANK_NAME"`
	AccountNum   string `json:"RQ_ACC_NUM"`
}
