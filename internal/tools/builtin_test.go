package tools

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/tests/helpers"
)

func quoteArgs() map[string]any {
	return map[string]any{
		"user_email":     "demo@example.com",
		"user_name":      "Demo User",
		"pickup_addr":    "123 Market St, San Francisco, CA",
		"dropoff_addr":   "456 Main St, Los Angeles, CA",
		"recipient_name": "John Doe",
	}
}

func TestGetDropoffQuote(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodPost, "/orders/dropoff/quote", 200,
		`{"code":"0","data":{"price":25.5,"distance":12,"duration":35,"token":"tok-abc"}}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	res := r.Execute(context.Background(), "get_dropoff_quote", quoteArgs())
	assert.Equal(t, observability.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "Senpex Delivery Quote:\n"+
		"Order: Delivery Order\n"+
		"Pickup: 123 Market St, San Francisco, CA\n"+
		"Dropoff: 456 Main St, Los Angeles, CA\n"+
		"\n"+
		"Price: $25.5\n"+
		"Distance: 12 miles\n"+
		"Estimated Duration: 35 mins\n"+
		"Quote Token: tok-abc\n", res.Text)

	reqs := upstream.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "test-client", reqs[0].Header.Get("clientid"))
	assert.Equal(t, "test-secret", reqs[0].Header.Get("secretid"))
	assert.Equal(t, "US", reqs[0].Header.Get("Country"))
	body := reqs[0].Body
	assert.Equal(t, "demo@example.com", body["email"])
	assert.Equal(t, "123 Market St, San Francisco, CA", body["pack_from_text"])
	assert.Equal(t, float64(1), body["transport_id"])
	assert.Equal(t, float64(100), body["item_value"])
	routes := body["routes"].([]any)
	require.Len(t, routes, 1)
	assert.Equal(t, "John Doe", routes[0].(map[string]any)["rec_name"])
	assert.Equal(t, "+1234567890", routes[0].(map[string]any)["rec_phone"])
}

func TestGetDropoffQuoteBusinessFailure(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodPost, "/orders/dropoff/quote", 200, `{"code": "3", "msg": "address not found"}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	res := r.Execute(context.Background(), "get_dropoff_quote", quoteArgs())
	assert.Equal(t, `Quote response: {"code":"3","msg":"address not found"}`, res.Text)
	assert.Equal(t, observability.OutcomeError, res.Outcome)
}

func TestUpstreamHTTPError(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodGet, "/points/dropoff/track/555555", 500, `internal`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "track_order", map[string]any{"order_id": "555555"})
	assert.Equal(t, "Error: HTTP 500 - internal", text)
}

func TestUpstreamTimeoutIsSoft(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.RespondSlow(http.MethodGet, "/points/dropoff/track/777777", time.Second)
	r := NewDeliveryRegistry(upstream.Client(50 * time.Millisecond))

	var text string
	require.NotPanics(t, func() {
		text = r.Invoke(context.Background(), "track_order_by_id", map[string]any{"order_id": "777777"})
	})
	assert.Contains(t, text, "Error tracking order:")
	assert.Equal(t, 1, upstream.Hits())
}

func TestGetPickupQuote(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodPost, "/orders/pickup/quote", 200, `{
		"code": "0",
		"order_price": 40,
		"original_order_price": 50,
		"order_discount": 10,
		"distance_miles": 8.2,
		"distance_time_seconds": 1260,
		"api_token": "pk-1",
		"routes_json": [{"route_to_text": "1 A St", "route_rec_name": "Ann", "route_rec_phone": "+1", "route_distance": 3}]
	}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "get_pickup_quote", map[string]any{
		"user_email":              "a@b.c",
		"order_name":              "Returns",
		"dropoff_addr":            "9 Z St",
		"dropoff_recipient_name":  "Warehouse",
		"dropoff_recipient_phone": "+2",
		"pickup_addresses":        []any{map[string]any{"route_to_text": "1 A St", "rec_name": "Ann", "rec_phone": "+1"}},
		"promo_code":              "SAVE10",
	})
	assert.Contains(t, text, "Senpex Pickup Quote:\nOrder: Returns\nDropoff: 9 Z St\nPickup Locations: 1\n")
	assert.Contains(t, text, "Price: $40\nOriginal Price: $50\nDiscount: $10\n")
	assert.Contains(t, text, "Estimated Duration: 1260 seconds (21 minutes)\n")
	assert.Contains(t, text, "API Token: pk-1\nToken Expires In: 60 minutes\n")
	assert.Contains(t, text, "  1. 1 A St\n     Recipient: Ann (+1)\n     Distance: 3 miles\n")

	body := upstream.Requests()[0].Body
	assert.Equal(t, "SAVE10", body["promo_code"])
	assert.NotContains(t, body, "schedule_date_local")
	assert.Equal(t, "Warehouse", body["rec_name"])
}

func TestGetPickupQuotePreconditions(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	r := NewDeliveryRegistry(upstream.Client(time.Second))
	base := map[string]any{
		"user_email":              "a@b.c",
		"order_name":              "Returns",
		"dropoff_addr":            "9 Z St",
		"dropoff_recipient_name":  "Warehouse",
		"dropoff_recipient_phone": "+2",
		"pickup_addresses":        []any{map[string]any{"route_to_text": "1 A St"}},
		"taken_asap":              0,
	}

	text := r.Invoke(context.Background(), "get_pickup_quote", base)
	assert.Equal(t, "Error: schedule_date_local is required when taken_asap=0 (scheduled delivery)", text)

	base["taken_asap"] = 1
	base["pickup_addresses"] = []any{}
	text = r.Invoke(context.Background(), "get_pickup_quote", base)
	assert.Contains(t, text, "pickup_addresses")
	assert.Equal(t, 0, upstream.Hits())
}

func TestConfirmDropoff(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodPut, "/orders/dropoff", 200,
		`{"code":"0","inserted_id":98765,"distance":12,"distance_time":1800}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "confirm_dropoff", map[string]any{
		"api_token":      "tok-abc",
		"user_email":     "a@b.c",
		"tip_amount":     5,
		"recipient_name": "Jane",
	})
	assert.Equal(t, "Order Confirmed Successfully!\n\n"+
		"Order ID: 98765\n"+
		"Distance: 12 miles\n"+
		"Estimated Time: 1800 seconds (30 minutes)\n"+
		"Tip Added: $5.00\n"+
		"\nYour order has been created and the system is now searching for a courier.", text)

	body := upstream.Requests()[0].Body
	assert.Equal(t, "tok-abc", body["api_token"])
	assert.Equal(t, float64(3), body["payment_type"])
	assert.NotContains(t, body, "sender_name")
	assert.Equal(t, []any{map[string]any{"rec_name": "Jane"}}, body["routes"])
}

func TestConfirmPickupWaitsForManualAssignment(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodPut, "/orders/pickup", 200, `{"code":"0","inserted_id":1}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "confirm_pickup", map[string]any{
		"api_token":      "pk-1",
		"user_email":     "a@b.c",
		"search_courier": 0,
		"pickup_updates": []any{map[string]any{"rec_phone": "+9"}, map[string]any{}},
	})
	assert.Contains(t, text, "Pickup Order Confirmed Successfully!")
	assert.Contains(t, text, "is waiting for manual courier assignment.")
	assert.Equal(t, []any{map[string]any{"rec_phone": "+9"}}, upstream.Requests()[0].Body["routes"])
}

func TestGetOrderList(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodGet, "/order-list", 200, `{"code":"0","data":[
		{"id": 11, "order_name": "Lab", "order_status_text": "Active", "pack_status": 2, "courier_name": "Bob", "courier_surname": "R", "courier_cell": "+3"}
	]}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "get_order_list", map[string]any{"start": 20})
	assert.Contains(t, text, "Orders List (starting from row 20):")
	assert.Contains(t, text, "Order ID: 11\n  Name: Lab\n  Status: Active (ID: 2)\n")
	assert.Contains(t, text, "  Courier: Bob R (+3)\n")
	assert.Equal(t, "start=20", upstream.Requests()[0].Query)
}

func TestGetRouteDetailsAndOrderByToken(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodGet, "/orders/routes/r-1", 200,
		`{"code":"0","data":[{"route_to_text":"1 A St","route_to_lat":1.5,"route_to_lng":2.5,"rec_name":"Ann"}]}`)
	upstream.Respond(http.MethodGet, "/orders/tokens/tok-1", 200, `{"code":"0","data":[]}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "get_route_details", map[string]any{"route_id": "r-1"})
	assert.Contains(t, text, "Route Details (ID: r-1):\n\nAddress: 1 A St\nLocation: (1.5, 2.5)\nRecipient: Ann\n")

	text = r.Invoke(context.Background(), "get_order_by_token", map[string]any{"api_token": "tok-1"})
	assert.Equal(t, "No order found with this token.", text)
}

func TestTrackOrderByAccessKey(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodGet, "/points/dropoff/track/access_key/key-9", 200, `{"code":"0","data":[
		{"id": 5, "rec_name": "Ann", "courier_name": "Bob", "courier_surname": "R", "courier_cell": "+3",
		 "last_lat": 37.7, "last_lng": -122.4, "last_location_date": "2024-05-01 12:00", "tracking_code": "TRK"}
	]}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "track_order_by_access_key", map[string]any{"access_key": "key-9"})
	assert.Contains(t, text, "Order Tracking (Access Key: key-9):")
	assert.Contains(t, text, "Courier Information:\n  Name: Bob R\n  Phone: +3\n")
	assert.Contains(t, text, "  Coordinates: (37.7, -122.4)\n  Updated: 2024-05-01 12:00\n")
	assert.Contains(t, text, "Tracking Code: TRK\n")
}

func TestGetDriverLocation(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodGet, "/orders/111/driver-location/", 200, `{"code":"0","data":null}`)
	upstream.Respond(http.MethodGet, "/orders/222/driver-location/", 200, `{"code":"0","data":{
		"pack_status": 4, "courier_name": "Bob", "courier_surname": "R", "courier_phone_number": "+3",
		"last_lat": 1, "last_lng": 2, "last_timezone": "PST",
		"snpx_email": 1, "snpx_nots": 0, "snpx_sms": 1
	}}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))

	text := r.Invoke(context.Background(), "get_driver_location", map[string]any{"order_id": "111"})
	assert.Equal(t, "No driver assigned to order 111 yet.", text)

	text = r.Invoke(context.Background(), "get_driver_location", map[string]any{"order_id": "222"})
	assert.Contains(t, text, "Package Status: 4\n")
	assert.Contains(t, text, "Driver: Bob R\nPhone: +3\n")
	assert.Contains(t, text, "  GPS Coordinates: (1, 2)\n  Timezone: PST\n")
	assert.Contains(t, text, "  Email: Enabled\n  Push Notifications: Disabled\n  SMS: Enabled\n  Instant Notifications: Disabled\n")
}

func TestStatusTransitions(t *testing.T) {
	upstream := helpers.NewFakeUpstream(t)
	upstream.Respond(http.MethodPut, "/points/dropoff-delivery-ready", 200, `{"code":"0","inserted_id":-1}`)
	upstream.Respond(http.MethodPut, "/points/dropoff-laboratory-ready", 200, `{"code":"0","inserted_id":7}`)
	upstream.Respond(http.MethodPut, "/points/dropoff-received", 200, `{"code":"9","msg":"wrong status"}`)
	r := NewDeliveryRegistry(upstream.Client(time.Second))
	ctx := context.Background()
	args := map[string]any{"order_id": "4242"}

	assert.Equal(t, "Success: Order 4242 marked as ready for delivery.", r.Invoke(ctx, "set_delivery_ready", args))
	assert.Equal(t, `Order status updated. Response: {"code":"0","inserted_id":7}`, r.Invoke(ctx, "set_laboratory_ready", args))
	assert.Equal(t, `Error response: {"code":"9","msg":"wrong status"}`, r.Invoke(ctx, "set_dropoff_received", args))

	for _, req := range upstream.Requests() {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, map[string]any{"id": "4242"}, req.Body)
	}
}

func TestFormatConfirmationTitleIsLiteral(t *testing.T) {
	out := formatConfirmation("100% Confirmed", "Distance", "order", Args{}, map[string]any{"inserted_id": 42})
	assert.True(t, strings.HasPrefix(out, "100% Confirmed\n\nOrder ID: 42\n"), out)
}
