package domain

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or deleted session ids.
	// Callers treat it as an expired session and never retry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrToolNotFound is returned when a tool name is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArgument marks malformed inbound requests.
	ErrInvalidArgument = errors.New("invalid argument")
)
