package engine

import (
	"context"

	"github.com/altair-obs/altair-core/internal/alpaca"
)

// Transport is the wire access the engine needs from the protocol client.
// *alpaca.Client satisfies it; tests substitute a scripted fake.
type Transport interface {
	// Read fetches one member's current value.
	Read(ctx context.Context, dev alpaca.Descriptor, member string) (any, error)

	// Write sets a member. Params hold the wire parameter names and
	// formatted values; transaction identity is added by the transport.
	Write(ctx context.Context, dev alpaca.Descriptor, member string, params map[string]string) error

	// State fetches the consolidated device state snapshot, keyed by
	// lower-cased member name.
	State(ctx context.Context, dev alpaca.Descriptor) (map[string]any, error)
}
