package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// Param declares one tool argument.
type Param struct {
	Name        string
	Type        domain.ParamType
	Required    bool
	Default     any
	Description string
}

// Args are validated, typed tool arguments.
type Args map[string]any

// String returns a string argument or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an int argument or 0.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Float returns a float argument or 0.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// List returns a list argument or nil.
func (a Args) List(name string) []any {
	l, _ := a[name].([]any)
	return l
}

// resolve validates raw against params, coerces types and applies defaults.
func resolve(params []Param, raw map[string]any) (Args, error) {
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.Name] = true
	}
	var unknown []string
	for k := range raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown parameter %q", unknown[0])
	}

	out := make(Args, len(params))
	for _, p := range params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("missing required parameter %q", p.Name)
			}
			if p.Default != nil {
				out[p.Name], _ = coerce(p.Type, p.Default)
			}
			continue
		}
		coerced, err := coerce(p.Type, v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		if p.Required && isEmpty(coerced) {
			return nil, fmt.Errorf("missing required parameter %q", p.Name)
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func coerce(typ domain.ParamType, v any) (any, error) {
	switch typ {
	case domain.ParamString:
		switch t := v.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		case int:
			return strconv.Itoa(t), nil
		case int64:
			return strconv.FormatInt(t, 10), nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		}
	case domain.ParamInt:
		f, ok := toFloat(v)
		if !ok {
			break
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		return int(f), nil
	case domain.ParamFloat:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case domain.ParamList:
		switch t := v.(type) {
		case []any:
			return t, nil
		case []map[string]any:
			out := make([]any, len(t))
			for i := range t {
				out[i] = t[i]
			}
			return out, nil
		case []map[string]string:
			out := make([]any, len(t))
			for i, m := range t {
				item := make(map[string]any, len(m))
				for k, s := range m {
					item[k] = s
				}
				out[i] = item
			}
			return out, nil
		}
	default:
		return nil, fmt.Errorf("unsupported type %q", typ)
	}
	return nil, fmt.Errorf("expected %s, got %T", typ, v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// checkParams rejects duplicate or unnamed parameters.
func checkParams(params []Param) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("parameter name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if p.Default != nil {
			if _, err := coerce(p.Type, p.Default); err != nil {
				return fmt.Errorf("default for %q: %w", p.Name, err)
			}
		}
	}
	return nil
}
