package events

import "time"

// Type discriminates event payloads.
type Type string

// Event types published by the engine.
const (
	// TypePropertyChanged carries a PropertyChange payload.
	TypePropertyChanged Type = "property_changed"

	// TypeCapabilityChanged carries a CapabilityChange payload.
	TypeCapabilityChanged Type = "capability_changed"

	// TypeLifecycleChanged carries a LifecycleChange payload.
	TypeLifecycleChanged Type = "lifecycle_changed"

	// TypeOperationFailed carries an OperationFailure payload.
	TypeOperationFailed Type = "operation_failed"
)

// Event is one notification from a device session.
type Event struct {
	// ID is a unique event identifier (UUID).
	ID string `json:"id"`

	// Type selects the payload shape.
	Type Type `json:"type"`

	// Device is the session identifier the event belongs to.
	Device string `json:"device"`

	// Timestamp is when the event was observed.
	Timestamp time.Time `json:"timestamp"`

	// Payload is one of PropertyChange, CapabilityChange,
	// LifecycleChange, or OperationFailure.
	Payload any `json:"payload"`
}

// PropertyChange reports a new value for one property.
type PropertyChange struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// CapabilityChange reports a property's supported state flipping.
type CapabilityChange struct {
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
}

// LifecycleChange reports a session state transition.
type LifecycleChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// OperationFailure reports a failed caller-invoked operation or an
// escalated refresh failure.
type OperationFailure struct {
	// Name is the property or command involved, empty for device-wide
	// failures.
	Name string `json:"name,omitempty"`

	// Kind classifies the error (transport, protocol, unsupported,
	// mode, lifecycle).
	Kind string `json:"kind"`

	// Message is the human-readable error text.
	Message string `json:"message"`
}
