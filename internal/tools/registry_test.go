package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/deliveryagent/internal/delivery"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/tests/helpers"
)

func TestDeliveryRegistryCatalog(t *testing.T) {
	r := NewDeliveryRegistry(nil)
	defs := r.ListDefinitions()

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"confirm_dropoff",
		"confirm_pickup",
		"get_driver_location",
		"get_dropoff_quote",
		"get_order_by_token",
		"get_order_list",
		"get_pickup_quote",
		"get_route_details",
		"ping",
		"set_delivery_ready",
		"set_dropoff_received",
		"set_laboratory_ready",
		"track_order_by_access_key",
		"track_order_by_id",
	}, names)

	def, ok := r.Lookup("track_order")
	require.True(t, ok)
	assert.Equal(t, "track_order_by_id", def.Name)

	assert.Len(t, r.Names(), 15)
	assert.Contains(t, r.Names(), "track_order")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	bind := func(context.Context, *delivery.Client, Args) (string, bool) { return "", true }
	require.NoError(t, r.Register(Definition{Name: "a", Bind: bind}))
	assert.Error(t, r.Register(Definition{Name: "a", Bind: bind}))
	assert.Error(t, r.Register(Definition{Name: "b"}))
	assert.Error(t, r.Register(Definition{Name: "c", Bind: bind, Params: []Param{str("x", false, ""), str("x", false, "")}}))
	assert.Error(t, r.Alias("z", "missing"))
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewDeliveryRegistry(nil)
	assert.Equal(t, `Error: unknown tool "nope"`, r.Invoke(context.Background(), "nope", nil))
}

func TestInvokeWithoutCredentialsMakesNoCall(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	r := NewDeliveryRegistry(upstream.UnconfiguredClient())

	for _, name := range []string{"get_dropoff_quote", "track_order", "set_delivery_ready", "get_order_list"} {
		res := r.Execute(context.Background(), name, map[string]any{"order_id": "12345"})
		assert.Contains(t, res.Text, "credentials", name)
		assert.Equal(t, observability.OutcomeError, res.Outcome)
	}
	assert.Equal(t, 0, upstream.Hits())
}

func TestPingNeedsNoCredentials(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	r := NewDeliveryRegistry(upstream.UnconfiguredClient())

	res := r.Execute(context.Background(), "ping", map[string]any{})
	assert.Contains(t, res.Text, "pong")
	assert.Equal(t, observability.OutcomeSuccess, res.Outcome)
	assert.Empty(t, res.Arguments)
	assert.Equal(t, 0, upstream.Hits())
}

func TestInvokeValidationFailureMakesNoCall(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	r := NewDeliveryRegistry(upstream.Client(0))

	text := r.Invoke(context.Background(), "track_order_by_id", map[string]any{})
	assert.Equal(t, `Error: invalid arguments for track_order_by_id: missing required parameter "order_id"`, text)
	assert.Equal(t, 0, upstream.Hits())
}

func TestInvokeRecoversPanics(t *testing.T) {
	metrics := observability.NewMetrics()
	r := NewRegistry(nil, WithMetrics(metrics))
	r.MustRegister(Definition{
		Name: "boom",
		Bind: func(context.Context, *delivery.Client, Args) (string, bool) { panic("kaboom") },
	})

	var res Result
	require.NotPanics(t, func() {
		res = r.Execute(context.Background(), "boom", nil)
	})
	assert.Equal(t, "Error: tool boom failed: kaboom", res.Text)
	assert.Equal(t, observability.OutcomeError, res.Outcome)
}

func TestExecuteReturnsResolvedArguments(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond("GET", "/order-list", 200, `{"code":"0","data":[]}`)
	r := NewDeliveryRegistry(upstream.Client(0))

	res := r.Execute(context.Background(), "get_order_list", map[string]any{})
	assert.Equal(t, "No orders found.", res.Text)
	assert.Equal(t, map[string]any{"start": 0}, res.Arguments)
}
