package repository

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tool arguments are kept in their JSON form by every store. Decoding turns
// integral numbers into int and any other number into float64, so a record
// reads back the same regardless of the store behind it.

func encodeArgs(args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to marshal arguments: %w", err)
	}
	return string(raw), nil
}

func decodeArgs(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	args := map[string]any{}
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	for k, v := range args {
		args[k] = plainNumbers(v)
	}
	return args, nil
}

// storedArgs round-trips args through the stored form.
func storedArgs(args map[string]any) (map[string]any, error) {
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return decodeArgs(raw)
}

func plainNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = plainNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = plainNumbers(item)
		}
		return val
	default:
		return v
	}
}
