package alpaca

import "fmt"

// Descriptor is the immutable identity of one device endpoint.
//
// Descriptors are handed to the core by the discovery collaborator (or static
// configuration) and are never modified. The core uses them purely as a
// read-only routing key.
type Descriptor struct {
	// Type is the protocol device type as it appears in the URL path
	// (e.g. "camera", "telescope", "filterwheel").
	Type string

	// Number is the zero-based device instance number on the server.
	Number int

	// Addr is the host:port of the device's protocol server.
	Addr string

	// Name is an optional caller-assigned identifier. When empty, ID()
	// derives a stable identifier from type, number, and address.
	Name string
}

// ID returns the stable identifier used to key sessions and events.
func (d Descriptor) ID() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("%s-%d@%s", d.Type, d.Number, d.Addr)
}

// String implements fmt.Stringer for log output.
func (d Descriptor) String() string {
	return d.ID()
}
