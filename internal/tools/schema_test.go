package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

var testParams = []Param{
	str("order_id", true, ""),
	intDefault("start", 0, ""),
	floatDefault("item_value", 100, ""),
	str("note", false, ""),
	{Name: "stops", Type: domain.ParamList},
}

func TestResolveAppliesDefaults(t *testing.T) {
	args, err := resolve(testParams, map[string]any{"order_id": "123"})
	require.NoError(t, err)
	assert.Equal(t, "123", args.String("order_id"))
	assert.Equal(t, 0, args.Int("start"))
	assert.Equal(t, 100.0, args.Float("item_value"))
	_, hasNote := args["note"]
	assert.False(t, hasNote, "optional params without default are omitted")
}

func TestResolveCoercesTypes(t *testing.T) {
	args, err := resolve(testParams, map[string]any{
		"order_id":   json.Number("987654321"),
		"start":      float64(20),
		"item_value": "12.5",
		"stops":      []map[string]string{{"rec_name": "A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "987654321", args.String("order_id"))
	assert.Equal(t, 20, args.Int("start"))
	assert.Equal(t, 12.5, args.Float("item_value"))
	require.Len(t, args.List("stops"), 1)
	assert.Equal(t, "A", args.List("stops")[0].(map[string]any)["rec_name"])
}

func TestResolveRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"missing required", map[string]any{}, `missing required parameter "order_id"`},
		{"blank required", map[string]any{"order_id": "  "}, `missing required parameter "order_id"`},
		{"unknown key", map[string]any{"order_id": "1", "bogus": 1}, `unknown parameter "bogus"`},
		{"non-integral int", map[string]any{"order_id": "1", "start": 1.5}, "expected integer"},
		{"wrong type", map[string]any{"order_id": "1", "start": []any{}}, "expected int"},
		{"list type", map[string]any{"order_id": "1", "stops": "x"}, "expected list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(testParams, tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckParams(t *testing.T) {
	assert.NoError(t, checkParams(testParams))
	assert.ErrorContains(t, checkParams([]Param{str("a", false, ""), str("a", false, "")}), "duplicate")
	assert.ErrorContains(t, checkParams([]Param{{Type: domain.ParamString}}), "name is required")
	assert.ErrorContains(t, checkParams([]Param{{Name: "n", Type: domain.ParamInt, Default: "x"}}), "default")
}
