// Package domain defines the core domain models for the delivery agent.
package domain

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known transcript role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Intent labels produced by the classifiers.
const (
	IntentGetQuote   = "get_quote"
	IntentTrackOrder = "track_order"
	IntentTest       = "test"
	IntentGeneral    = "general"
)

// ParamType is the semantic type of a tool parameter.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
	ParamList   ParamType = "list"
)

// DefaultUserID is assigned to sessions created without a user id.
const DefaultUserID = "anonymous"
