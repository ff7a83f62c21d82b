package domain

// IntentResult is the classifier verdict for one message. Tool is empty when
// no tool should be invoked.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Tool       string  `json:"tool,omitempty"`
	Confidence float64 `json:"confidence"`
}

// HasTool reports whether the verdict selects a tool.
func (r IntentResult) HasTool() bool {
	return r.Tool != ""
}
