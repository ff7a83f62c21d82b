package domain

import "time"

// ToolInvocation is an audit record of one tool call. Records are immutable
// and outlive the session they belong to.
type ToolInvocation struct {
	ID        string         `json:"id"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
}

// ToolParamInfo describes one tool parameter for catalog listings.
type ToolParamInfo struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ToolInfo describes a registered tool for catalog listings.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Method      string          `json:"method,omitempty"`
	Path        string          `json:"path,omitempty"`
	Params      []ToolParamInfo `json:"params"`
}

// CloneArgs returns a deep copy of a tool argument mapping. Nested maps and
// slices produced by JSON decoding are copied as well.
func CloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneArgs(val)
	case map[string]string:
		cp := make(map[string]string, len(val))
		for k, s := range val {
			cp[k] = s
		}
		return cp
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneValue(item)
		}
		return cp
	case []map[string]any:
		cp := make([]map[string]any, len(val))
		for i, item := range val {
			cp[i] = CloneArgs(item)
		}
		return cp
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
