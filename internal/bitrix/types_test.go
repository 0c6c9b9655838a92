package bitrix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalStringOrNumber(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12","b":34,"c":null}`), &v))
	assert.Equal(t, ID("12"), v.A)
	assert.Equal(t, ID("34"), v.B)
	assert.Equal(t, ID(""), v.C)
	assert.Equal(t, int64(34), v.B.Int())
}

func TestID_RejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestFirstValue(t *testing.T) {
	assert.Equal(t, "", FirstValue(nil))
	assert.Equal(t, "a@x.io", FirstValue([]Multifield{{Value: "a@x.io"}, {Value: "b@x.io"}}))
}

func TestWorkValue(t *testing.T) {
	b, err := json.Marshal(WorkValue("+84 1"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"VALUE":"+84 1","VALUE_TYPE":"WORK"}]`, string(b))
}
