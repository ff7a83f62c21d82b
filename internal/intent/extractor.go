package intent

import "regexp"

var orderIDPattern = regexp.MustCompile(`\b\d{5,}\b`)

// FallbackOrderID is used when a tracking message carries no order number.
const FallbackOrderID = "12345"

// Extractor builds tool arguments from message text. It is pure and total.
type Extractor struct{}

// NewExtractor creates the argument extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the argument set for toolName. Quote arguments are fixed
// demo values; nothing is parsed from the message for them.
func (Extractor) Extract(toolName, text string) map[string]any {
	switch toolName {
	case "get_dropoff_quote":
		return map[string]any{
			"user_email":      "demo@example.com",
			"user_name":       "Demo User",
			"pickup_addr":     "123 Market St, San Francisco, CA",
			"dropoff_addr":    "456 Main St, Los Angeles, CA",
			"recipient_name":  "John Doe",
			"recipient_phone": "+1234567890",
		}
	case "track_order", "track_order_by_id", "get_driver_location":
		orderID := orderIDPattern.FindString(text)
		if orderID == "" {
			orderID = FallbackOrderID
		}
		return map[string]any{"order_id": orderID}
	default:
		return map[string]any{}
	}
}
