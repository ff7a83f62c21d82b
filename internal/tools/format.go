package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// text builds multi-line tool results.
type text struct {
	strings.Builder
}

func (t *text) line(format string, args ...any) {
	fmt.Fprintf(&t.Builder, format, args...)
	t.WriteByte('\n')
}

func (t *text) blank() {
	t.WriteByte('\n')
}

// field renders a payload value for display. Missing values render as N/A.
func field(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return "N/A"
	}
	return display(v)
}

func display(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
	return fmt.Sprint(v)
}

// truthy mirrors how the upstream marks optional fields: absent, null,
// empty strings and zero numbers count as unset.
func truthy(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case bool:
		return t
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func number(m map[string]any, key string) (float64, bool) {
	switch t := m[key].(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// seconds renders a duration field as "N seconds (M minutes)".
func seconds(m map[string]any, key string) string {
	s := field(m, key) + " seconds"
	if f, ok := number(m, key); ok {
		s += fmt.Sprintf(" (%d minutes)", int(f/60))
	}
	return s
}

func enabled(m map[string]any, key string) string {
	if f, ok := number(m, key); ok && f == 1 {
		return "Enabled"
	}
	return "Disabled"
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func formatDropoffQuote(args Args, data map[string]any) string {
	var t text
	t.line("Senpex Delivery Quote:")
	t.line("Order: %s", args.String("order_name"))
	t.line("Pickup: %s", args.String("pickup_addr"))
	t.line("Dropoff: %s", args.String("dropoff_addr"))
	t.blank()
	if _, ok := data["price"]; ok {
		t.line("Price: $%s", field(data, "price"))
	}
	if _, ok := data["distance"]; ok {
		t.line("Distance: %s miles", field(data, "distance"))
	}
	if _, ok := data["duration"]; ok {
		t.line("Estimated Duration: %s mins", field(data, "duration"))
	}
	if _, ok := data["token"]; ok {
		t.line("Quote Token: %s", field(data, "token"))
	}
	return t.String()
}

func formatPickupQuote(args Args, data map[string]any) string {
	var t text
	t.line("Senpex Pickup Quote:")
	t.line("Order: %s", args.String("order_name"))
	t.line("Dropoff: %s", args.String("dropoff_addr"))
	t.line("Pickup Locations: %d", len(args.List("pickup_addresses")))
	t.blank()
	if _, ok := data["order_price"]; ok {
		t.line("Price: $%s", field(data, "order_price"))
	}
	if discount, ok := number(data, "order_discount"); ok && discount > 0 {
		if _, ok := data["original_order_price"]; ok {
			t.line("Original Price: $%s", field(data, "original_order_price"))
			t.line("Discount: $%s", field(data, "order_discount"))
		}
	}
	if _, ok := data["distance_miles"]; ok {
		t.line("Distance: %s miles", field(data, "distance_miles"))
	}
	if _, ok := data["distance_time_seconds"]; ok {
		t.line("Estimated Duration: %s", seconds(data, "distance_time_seconds"))
	}
	if _, ok := data["tariff_duration_mins"]; ok {
		t.line("Tariff Duration: %s minutes", field(data, "tariff_duration_mins"))
	}
	if _, ok := data["api_token"]; ok {
		t.blank()
		t.line("API Token: %s", field(data, "api_token"))
		expire := "60"
		if _, ok := data["expire_mins"]; ok {
			expire = field(data, "expire_mins")
		}
		t.line("Token Expires In: %s minutes", expire)
	}
	if truthy(data, "promo_code_info") {
		t.line("Promo Code Applied: %s", field(data, "promo_code_info"))
	}
	if routes, ok := data["routes_json"]; ok {
		t.blank()
		t.line("Pickup Routes:")
		for i, route := range asList(routes) {
			t.line("  %d. %s", i+1, field(route, "route_to_text"))
			t.line("     Recipient: %s (%s)", field(route, "route_rec_name"), field(route, "route_rec_phone"))
			if truthy(route, "route_distance") {
				t.line("     Distance: %s miles", field(route, "route_distance"))
			}
		}
	}
	return t.String()
}

func formatConfirmation(title, distanceLabel, kind string, args Args, data map[string]any) string {
	var t text
	t.line("%s", title)
	t.blank()
	if _, ok := data["inserted_id"]; ok {
		t.line("Order ID: %s", field(data, "inserted_id"))
	}
	if _, ok := data["distance"]; ok {
		t.line("%s: %s miles", distanceLabel, field(data, "distance"))
	}
	if _, ok := data["distance_time"]; ok {
		t.line("Estimated Time: %s", seconds(data, "distance_time"))
	}
	if tip := args.Float("tip_amount"); tip > 0 {
		t.line("Tip Added: $%.2f", tip)
	}
	t.blank()
	t.WriteString("Your " + kind + " has been created and ")
	if args.Int("search_courier") == 1 {
		t.WriteString("the system is now searching for a courier.")
	} else {
		t.WriteString("is waiting for manual courier assignment.")
	}
	return t.String()
}

func formatOrderList(start int, orders []map[string]any) string {
	if len(orders) == 0 {
		return "No orders found."
	}
	var t text
	t.line("Orders List (starting from row %d):", start)
	t.blank()
	for _, o := range orders {
		t.line("Order ID: %s", field(o, "id"))
		t.line("  Name: %s", field(o, "order_name"))
		t.line("  Status: %s (ID: %s)", field(o, "order_status_text"), field(o, "pack_status"))
		t.line("  From: %s", field(o, "pack_from_text"))
		t.line("  To: %s", field(o, "last_pack_to_text"))
		t.line("  Recipient: %s (%s)", field(o, "last_receiver_name"), field(o, "last_receiver_phone_number"))
		t.line("  Price: $%s", field(o, "pack_price"))
		t.line("  Distance: %s miles", field(o, "distance_miles"))
		if truthy(o, "courier_name") {
			t.line("  Courier: %s %s (%s)", field(o, "courier_name"), field(o, "courier_surname"), field(o, "courier_cell"))
		}
		t.blank()
	}
	return t.String()
}

func formatRouteDetails(routeID string, routes []map[string]any) string {
	if len(routes) == 0 {
		return "No route details found."
	}
	var t text
	t.line("Route Details (ID: %s):", routeID)
	t.blank()
	for _, r := range routes {
		t.line("Address: %s", field(r, "route_to_text"))
		t.line("Location: (%s, %s)", field(r, "route_to_lat"), field(r, "route_to_lng"))
		t.line("Recipient: %s", field(r, "rec_name"))
		t.line("Phone: %s", field(r, "rec_phone"))
		t.line("Status: %s", field(r, "route_status"))
		t.line("Distance: %s miles", field(r, "route_distance"))
		t.line("Travel Time: %s seconds", field(r, "route_distance_time"))
		if truthy(r, "route_delivery_date") {
			t.line("Delivery Date: %s", field(r, "route_delivery_date"))
		}
		t.blank()
	}
	return t.String()
}

func formatOrderByToken(token string, orders []map[string]any) string {
	if len(orders) == 0 {
		return "No order found with this token."
	}
	o := orders[0]
	var t text
	t.line("Order Details (Token: %s):", token)
	t.blank()
	t.line("Order ID: %s", field(o, "pack_id"))
	t.line("Order Name: %s", field(o, "order_name"))
	t.line("Price: $%s", field(o, "order_price"))
	t.line("Original Price: $%s", field(o, "original_order_price"))
	t.line("Discount: $%s", field(o, "order_discount"))
	t.line("Tariff: %s - %s", field(o, "tariff_name"), field(o, "tariff_desc"))
	t.line("From: %s", field(o, "pack_from_text"))
	t.line("Distance: %s miles", field(o, "distance_miles"))
	t.line("Duration: %s seconds", field(o, "distance_time_seconds"))
	t.line("Route Count: %s", field(o, "route_count"))
	t.line("Package Size: %s", field(o, "pack_size_id"))
	t.line("Transport: %s", field(o, "transport_id"))
	t.line("Item Value: $%s", field(o, "item_value"))
	t.line("Schedule Date: %s", field(o, "schedule_date"))
	t.line("Expires: %s", field(o, "expires_date"))
	if truthy(o, "routes_json") {
		t.blank()
		t.line("Routes:")
		for i, r := range asList(o["routes_json"]) {
			t.line("  %d. %s", i+1, field(r, "route_to_text"))
			t.line("     Recipient: %s (%s)", field(r, "rec_name"), field(r, "rec_phone"))
		}
	}
	return t.String()
}

func formatTracking(label string, items []map[string]any) string {
	if len(items) == 0 {
		return "No tracking information found."
	}
	var t text
	t.line("Order Tracking (%s):", label)
	t.blank()
	for _, item := range items {
		t.line("Delivery ID: %s", field(item, "id"))
		t.line("Address: %s", field(item, "rec_address"))
		t.line("Recipient: %s", field(item, "rec_name"))
		t.line("Phone: %s", field(item, "rec_phone"))
		t.line("Pack Status: %s", field(item, "pack_status"))
		t.line("Route Status: %s", field(item, "route_status"))
		if truthy(item, "courier_name") {
			t.blank()
			t.line("Courier Information:")
			t.line("  Name: %s %s", field(item, "courier_name"), field(item, "courier_surname"))
			t.line("  Phone: %s", field(item, "courier_cell"))
		}
		if truthy(item, "last_lat") && truthy(item, "last_lng") {
			t.blank()
			t.line("Last Known Location:")
			t.line("  Coordinates: (%s, %s)", field(item, "last_lat"), field(item, "last_lng"))
			t.line("  Updated: %s", field(item, "last_location_date"))
		}
		if truthy(item, "tracking_code") {
			t.blank()
			t.line("Tracking Code: %s", field(item, "tracking_code"))
		}
		t.blank()
	}
	return t.String()
}

func formatDriverLocation(orderID string, d map[string]any) string {
	var t text
	t.line("Driver Details for Order %s:", orderID)
	t.blank()
	if _, ok := d["pack_status"]; ok {
		t.line("Package Status: %s", field(d, "pack_status"))
	}
	if _, ok := d["order_status"]; ok {
		t.line("Order Status: %s", field(d, "order_status"))
	}
	t.blank()
	if truthy(d, "courier_name") || truthy(d, "courier_surname") {
		name, _ := d["courier_name"].(string)
		surname, _ := d["courier_surname"].(string)
		t.line("Driver: %s %s", name, surname)
	}
	if truthy(d, "courier_phone_number") {
		t.line("Phone: %s", field(d, "courier_phone_number"))
	}
	t.blank()
	if truthy(d, "last_lat") && truthy(d, "last_lng") {
		t.line("Current Location:")
		t.line("  GPS Coordinates: (%s, %s)", field(d, "last_lat"), field(d, "last_lng"))
		if truthy(d, "last_timezone") {
			t.line("  Timezone: %s", field(d, "last_timezone"))
		}
		if truthy(d, "last_location_date") {
			t.line("  Location Updated: %s (UTC)", field(d, "last_location_date"))
		}
		if truthy(d, "last_seen_date") {
			t.line("  Last Seen: %s (UTC)", field(d, "last_seen_date"))
		}
	} else {
		t.line("Location: Not available yet")
	}
	t.blank()
	t.line("Notification Settings:")
	t.line("  Email: %s", enabled(d, "snpx_email"))
	t.line("  Push Notifications: %s", enabled(d, "snpx_nots"))
	t.line("  SMS: %s", enabled(d, "snpx_sms"))
	t.line("  Instant Notifications: %s", enabled(d, "snpx_instant_not"))
	if truthy(d, "instant_not_url") {
		t.line("  Instant Notification URL: %s", field(d, "instant_not_url"))
	}
	return t.String()
}
