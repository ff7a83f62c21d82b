package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/gogo/deliveryagent/internal/delivery"
	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// NewDeliveryRegistry returns a registry holding the full delivery catalog.
func NewDeliveryRegistry(client *delivery.Client, opts ...Option) *Registry {
	r := NewRegistry(client, opts...)
	for _, def := range deliveryTools() {
		r.MustRegister(def)
	}
	if err := r.Alias("track_order", "track_order_by_id"); err != nil {
		panic(err)
	}
	return r
}

func str(name string, required bool, desc string) Param {
	return Param{Name: name, Type: domain.ParamString, Required: required, Description: desc}
}

func strDefault(name, def, desc string) Param {
	return Param{Name: name, Type: domain.ParamString, Default: def, Description: desc}
}

func intDefault(name string, def int, desc string) Param {
	return Param{Name: name, Type: domain.ParamInt, Default: def, Description: desc}
}

func floatDefault(name string, def float64, desc string) Param {
	return Param{Name: name, Type: domain.ParamFloat, Default: def, Description: desc}
}

func deliveryTools() []Definition {
	return []Definition{
		{
			Name:        "ping",
			Description: "Check that the agent is reachable.",
			Bind: func(ctx context.Context, _ *delivery.Client, _ Args) (string, bool) {
				return "pong (server time " + time.Now().UTC().Format(time.RFC3339) + ")", true
			},
		},
		{
			Name:        "get_dropoff_quote",
			Description: "Get a price quote for one pickup and one dropoff.",
			Method:      http.MethodPost,
			Path:        "/orders/dropoff/quote",
			Params: []Param{
				str("user_email", true, "email of the requesting user"),
				str("user_name", true, "name of the requesting user"),
				str("pickup_addr", true, "pickup address"),
				str("dropoff_addr", true, "dropoff address"),
				strDefault("recipient_name", "Recipient", "recipient name"),
				strDefault("recipient_phone", "+1234567890", "recipient phone with country code"),
				strDefault("order_name", "Delivery Order", "order title"),
				intDefault("transport_id", 1, "transport type (1=Car, 3=SUV, 8=Pickup Truck, 9=Large Van)"),
				intDefault("pack_size_id", 1, "package size (1=Small, 2=Medium, 3=Large, 4=Heavy)"),
				floatDefault("item_value", 100.0, "declared value in USD"),
				intDefault("taken_asap", 1, "1 for immediate, 0 for scheduled"),
				intDefault("payment_type", 5, "payment type"),
				strDefault("order_desc", "Package delivery", "package description"),
				str("pickup_instructions", false, "pickup notes"),
				str("dropoff_instructions", false, "dropoff notes"),
			},
			Bind: getDropoffQuote,
		},
		{
			Name:        "get_pickup_quote",
			Description: "Get a price quote for several pickups delivered to one dropoff.",
			Method:      http.MethodPost,
			Path:        "/orders/pickup/quote",
			Params: []Param{
				str("user_email", true, "email of the requesting user"),
				str("order_name", true, "order title"),
				str("dropoff_addr", true, "final destination"),
				str("dropoff_recipient_name", true, "recipient at the dropoff"),
				str("dropoff_recipient_phone", true, "recipient phone at the dropoff"),
				{Name: "pickup_addresses", Type: domain.ParamList, Required: true, Description: "pickup locations with route_to_text, rec_name, rec_phone, route_desc"},
				intDefault("transport_id", 1, "transport type"),
				intDefault("pack_size_id", 1, "package size"),
				floatDefault("item_value", 100.0, "declared value in USD"),
				intDefault("taken_asap", 1, "1 for immediate, 0 for scheduled"),
				str("schedule_date_local", false, `schedule date "YYYY-MM-DD HH:MM", required when taken_asap=0`),
				strDefault("order_desc", "Package pickup and delivery", "general delivery notes"),
				str("dropoff_instructions", false, "dropoff notes"),
				intDefault("show_one_price", 0, "1 to show a single price"),
				str("promo_code", false, "promo code"),
			},
			Check: func(args Args) error {
				if args.Int("taken_asap") == 0 && args.String("schedule_date_local") == "" {
					return errors.New("schedule_date_local is required when taken_asap=0 (scheduled delivery)")
				}
				if len(args.List("pickup_addresses")) == 0 {
					return errors.New("at least one pickup address is required")
				}
				return nil
			},
			Bind: getPickupQuote,
		},
		{
			Name:        "confirm_dropoff",
			Description: "Create an order from a dropoff quote token.",
			Method:      http.MethodPut,
			Path:        "/orders/dropoff",
			Params: append([]Param{
				str("api_token", true, "token from get_dropoff_quote"),
				str("user_email", true, "email of the API account owner"),
				intDefault("payment_type", 3, "payment type"),
				floatDefault("tip_amount", 0, "tip amount"),
				str("sender_name", false, "sender or store name"),
				str("sender_cell", false, "sender phone"),
				str("sender_desc", false, "sender notes"),
				str("order_desc", false, "delivery notes"),
				str("recipient_name", false, "receiver name override"),
				str("recipient_phone", false, "receiver phone override"),
			}, notificationParams()...),
			Bind: confirmDropoff,
		},
		{
			Name:        "confirm_pickup",
			Description: "Create an order from a pickup quote token.",
			Method:      http.MethodPut,
			Path:        "/orders/pickup",
			Params: append([]Param{
				str("api_token", true, "token from get_pickup_quote"),
				str("user_email", true, "email of the API account owner"),
				floatDefault("tip_amount", 0, "tip amount"),
				str("sender_name", false, "sender or store name"),
				str("sender_cell", false, "sender phone"),
				str("sender_desc", false, "sender notes"),
				str("order_desc", false, "delivery notes"),
				{Name: "pickup_updates", Type: domain.ParamList, Description: "per-pickup rec_name and rec_phone overrides"},
			}, notificationParams()...),
			Bind: confirmPickup,
		},
		{
			Name:        "get_order_list",
			Description: "List orders of the account.",
			Method:      http.MethodGet,
			Path:        "/order-list",
			Params:      []Param{intDefault("start", 0, "first row to return")},
			Bind:        getOrderList,
		},
		{
			Name:        "get_route_details",
			Description: "Get details of one route.",
			Method:      http.MethodGet,
			Path:        "/orders/routes/{route_id}",
			Params:      []Param{str("route_id", true, "route id")},
			Bind:        getRouteDetails,
		},
		{
			Name:        "get_order_by_token",
			Description: "Get order details by API token.",
			Method:      http.MethodGet,
			Path:        "/orders/tokens/{api_token}",
			Params:      []Param{str("api_token", true, "order API token")},
			Bind:        getOrderByToken,
		},
		{
			Name:        "track_order_by_id",
			Description: "Track an order by id.",
			Method:      http.MethodGet,
			Path:        "/points/dropoff/track/{order_id}",
			Params:      []Param{str("order_id", true, "order id")},
			Bind:        trackOrder("/points/dropoff/track/{order_id}", "order_id", "ID"),
		},
		{
			Name:        "track_order_by_access_key",
			Description: "Track an order by access key.",
			Method:      http.MethodGet,
			Path:        "/points/dropoff/track/access_key/{access_key}",
			Params:      []Param{str("access_key", true, "order access key")},
			Bind:        trackOrder("/points/dropoff/track/access_key/{access_key}", "access_key", "Access Key"),
		},
		{
			Name:        "get_driver_location",
			Description: "Get the assigned courier and their location.",
			Method:      http.MethodGet,
			Path:        "/orders/{order_id}/driver-location/",
			Params:      []Param{str("order_id", true, "order id")},
			Bind:        getDriverLocation,
		},
		statusTransition("set_delivery_ready", "/points/dropoff-delivery-ready",
			"Mark an order as ready for delivery.", "ready for delivery", "setting delivery ready"),
		statusTransition("set_laboratory_ready", "/points/dropoff-laboratory-ready",
			"Move a delivered order to ready for pick-up.", "ready for pick-up from laboratory", "setting laboratory ready"),
		statusTransition("set_dropoff_received", "/points/dropoff-received",
			"Mark an order as received at the drop-off location.", "received at drop-off location", "setting dropoff received"),
	}
}

func notificationParams() []Param {
	return []Param{
		intDefault("snpx_user_email", 0, "1 to email a password to new users"),
		intDefault("snpx_order_email", 1, "1 to send order emails"),
		intDefault("snpx_order_not", 1, "1 to send push notifications"),
		intDefault("search_courier", 1, "1 to start the courier search immediately"),
	}
}

// expand fills {param} placeholders of path with escaped argument values.
func expand(path string, args Args, names ...string) string {
	for _, name := range names {
		path = strings.Replace(path, "{"+name+"}", url.PathEscape(args.String(name)), 1)
	}
	return path
}

// setIf adds key to body when the string argument is non-empty.
func setIf(body map[string]any, args Args, name, key string) {
	if v := args.String(name); v != "" {
		body[key] = v
	}
}

func getDropoffQuote(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	body := map[string]any{
		"email":          args.String("user_email"),
		"order_name":     args.String("order_name"),
		"pack_from_text": args.String("pickup_addr"),
		"transport_id":   args.Int("transport_id"),
		"item_value":     args.Float("item_value"),
		"pack_size_id":   args.Int("pack_size_id"),
		"taken_asap":     args.Int("taken_asap"),
		"payment_type":   args.Int("payment_type"),
		"order_desc":     args.String("order_desc"),
		"route_desc":     args.String("pickup_instructions"),
		"routes": []map[string]any{{
			"route_to_text": args.String("dropoff_addr"),
			"route_desc":    args.String("dropoff_instructions"),
			"rec_name":      args.String("recipient_name"),
			"rec_phone":     args.String("recipient_phone"),
		}},
	}
	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodPost, Path: "/orders/dropoff/quote", Body: body, Quote: true})
	if err != nil {
		return upstreamFailure("getting quote", err), false
	}
	data, ok := asMap(resp.Data["data"])
	if !resp.Success() || !ok {
		return "Quote response: " + resp.Compact(), false
	}
	return formatDropoffQuote(args, data), true
}

func getPickupQuote(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	pickups := args.List("pickup_addresses")
	routes := make([]map[string]any, 0, len(pickups))
	for _, p := range pickups {
		m, _ := p.(map[string]any)
		routes = append(routes, map[string]any{
			"route_to_text": stringOf(m, "route_to_text"),
			"rec_name":      stringOf(m, "rec_name"),
			"rec_phone":     stringOf(m, "rec_phone"),
			"route_desc":    stringOf(m, "route_desc"),
		})
	}
	body := map[string]any{
		"email":          args.String("user_email"),
		"order_name":     args.String("order_name"),
		"transport_id":   args.Int("transport_id"),
		"item_value":     args.Float("item_value"),
		"pack_size_id":   args.Int("pack_size_id"),
		"taken_asap":     args.Int("taken_asap"),
		"order_desc":     args.String("order_desc"),
		"route_desc":     args.String("dropoff_instructions"),
		"rec_name":       args.String("dropoff_recipient_name"),
		"rec_phone":      args.String("dropoff_recipient_phone"),
		"routes":         routes,
		"show_one_price": args.Int("show_one_price"),
	}
	setIf(body, args, "schedule_date_local", "schedule_date_local")
	setIf(body, args, "promo_code", "promo_code")

	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodPost, Path: "/orders/pickup/quote", Body: body, Quote: true})
	if err != nil {
		return upstreamFailure("getting pickup quote", err), false
	}
	if !resp.Success() {
		return "Quote response: " + resp.Compact(), false
	}
	return formatPickupQuote(args, resp.Data), true
}

func confirmBody(args Args) map[string]any {
	body := map[string]any{
		"api_token":        args.String("api_token"),
		"email":            args.String("user_email"),
		"tip_amount":       args.Float("tip_amount"),
		"snpx_user_email":  args.Int("snpx_user_email"),
		"snpx_order_email": args.Int("snpx_order_email"),
		"snpx_order_not":   args.Int("snpx_order_not"),
		"search_courier":   args.Int("search_courier"),
	}
	setIf(body, args, "sender_name", "sender_name")
	setIf(body, args, "sender_cell", "sender_cell")
	setIf(body, args, "sender_desc", "sender_desc")
	setIf(body, args, "order_desc", "order_desc")
	return body
}

func confirmDropoff(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	body := confirmBody(args)
	body["payment_type"] = args.Int("payment_type")
	route := map[string]any{}
	setIf(route, args, "recipient_name", "rec_name")
	setIf(route, args, "recipient_phone", "rec_phone")
	if len(route) > 0 {
		body["routes"] = []map[string]any{route}
	}

	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodPut, Path: "/orders/dropoff", Body: body})
	if err != nil {
		return upstreamFailure("confirming order", err), false
	}
	if !resp.Success() {
		return "Order creation response: " + resp.Compact(), false
	}
	return formatConfirmation("Order Confirmed Successfully!", "Distance", "order", args, resp.Data), true
}

func confirmPickup(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	body := confirmBody(args)
	var routes []map[string]any
	for _, u := range args.List("pickup_updates") {
		m, _ := u.(map[string]any)
		route := map[string]any{}
		if v, ok := m["rec_name"]; ok {
			route["rec_name"] = v
		}
		if v, ok := m["rec_phone"]; ok {
			route["rec_phone"] = v
		}
		if len(route) > 0 {
			routes = append(routes, route)
		}
	}
	if len(routes) > 0 {
		body["routes"] = routes
	}

	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodPut, Path: "/orders/pickup", Body: body})
	if err != nil {
		return upstreamFailure("confirming pickup order", err), false
	}
	if !resp.Success() {
		return "Order creation response: " + resp.Compact(), false
	}
	return formatConfirmation("Pickup Order Confirmed Successfully!", "Total Distance", "pickup order", args, resp.Data), true
}

func getOrderList(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	start := args.Int("start")
	req := delivery.Request{Method: http.MethodGet, Path: "/order-list"}
	if start > 0 {
		req.Query = url.Values{"start": {strconv.Itoa(start)}}
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return upstreamFailure("getting order list", err), false
	}
	if _, ok := resp.Data["data"]; !resp.Success() || !ok {
		return "Response: " + resp.Compact(), false
	}
	return formatOrderList(start, asList(resp.Data["data"])), true
}

func getRouteDetails(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	path := expand("/orders/routes/{route_id}", args, "route_id")
	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return upstreamFailure("getting route details", err), false
	}
	if _, ok := resp.Data["data"]; !resp.Success() || !ok {
		return "Response: " + resp.Compact(), false
	}
	return formatRouteDetails(args.String("route_id"), asList(resp.Data["data"])), true
}

func getOrderByToken(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	path := expand("/orders/tokens/{api_token}", args, "api_token")
	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return upstreamFailure("getting order by token", err), false
	}
	if _, ok := resp.Data["data"]; !resp.Success() || !ok {
		return "Response: " + resp.Compact(), false
	}
	return formatOrderByToken(args.String("api_token"), asList(resp.Data["data"])), true
}

func trackOrder(template, param, label string) BindFunc {
	return func(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
		path := expand(template, args, param)
		resp, err := c.Do(ctx, delivery.Request{Method: http.MethodGet, Path: path})
		if err != nil {
			return upstreamFailure("tracking order", err), false
		}
		if _, ok := resp.Data["data"]; !resp.Success() || !ok {
			return "Response: " + resp.Compact(), false
		}
		return formatTracking(label+": "+args.String(param), asList(resp.Data["data"])), true
	}
}

func getDriverLocation(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
	orderID := args.String("order_id")
	path := expand("/orders/{order_id}/driver-location/", args, "order_id")
	resp, err := c.Do(ctx, delivery.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return upstreamFailure("getting driver location", err), false
	}
	if !resp.Success() {
		return "Response: " + resp.Compact(), false
	}
	driver, ok := asMap(resp.Data["data"])
	if !ok || len(driver) == 0 {
		return fmt.Sprintf("No driver assigned to order %s yet.", orderID), true
	}
	return formatDriverLocation(orderID, driver), true
}

// statusTransition builds a one-way status update tool. Legality of the
// transition is enforced upstream.
func statusTransition(name, path, desc, done, doing string) Definition {
	return Definition{
		Name:        name,
		Description: desc,
		Method:      http.MethodPut,
		Path:        path,
		Params:      []Param{str("order_id", true, "order id")},
		Bind: func(ctx context.Context, c *delivery.Client, args Args) (string, bool) {
			orderID := args.String("order_id")
			resp, err := c.Do(ctx, delivery.Request{
				Method: http.MethodPut,
				Path:   path,
				Body:   map[string]any{"id": orderID},
			})
			if err != nil {
				return upstreamFailure(doing, err), false
			}
			if !resp.Success() {
				return "Error response: " + resp.Compact(), false
			}
			if id, ok := number(resp.Data, "inserted_id"); ok && id == -1 {
				return fmt.Sprintf("Success: Order %s marked as %s.", orderID, done), true
			}
			return "Order status updated. Response: " + resp.Compact(), true
		},
	}
}

func stringOf(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
