package domain

import "errors"

// Error taxonomy shared across adapters and the conversation loop.
// Adapters wrap these sentinels with fmt.Errorf("...: %w", ...) so the
// orchestrator can branch with errors.Is while keeping the cause.
var (
	// ErrUpstreamTimeout is returned when a model, catalog or speech
	// call exceeds its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamUnavailable is returned when an upstream answers with
	// a non-success status or the transport fails outright.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrToolNotFound is returned when the model requests a tool name
	// outside the registered set.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolLoopExceeded is returned when a single turn chains more
	// tool round-trips than the configured cap.
	ErrToolLoopExceeded = errors.New("tool loop exceeded")

	// ErrNotFound is returned by delete/remove operations on an
	// unknown identifier.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when model-supplied tool arguments do
	// not match the declared parameter schema.
	ErrValidation = errors.New("invalid tool arguments")

	// ErrSessionBusy is returned when a second turn arrives for a
	// session that already has one in flight.
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)
