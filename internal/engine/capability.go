package engine

import "sync"

// SupportState is the tri-state support status of a catalog member on a
// concrete device.
type SupportState int

// Support states. Every member starts Unknown and is promoted or demoted
// by observed behavior; Unsupported is permanent for the session.
const (
	Unknown SupportState = iota
	Supported
	Unsupported
)

func (s SupportState) String() string {
	switch s {
	case Supported:
		return "supported"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

type capEntry struct {
	state    SupportState
	failures int
}

// capabilityRegistry tracks per-member support for one device session.
// Demotion happens after threshold consecutive failures, or immediately
// on an explicit not-implemented protocol error.
//
// Thread Safety: all methods are safe for concurrent use. The onChange
// callback is invoked outside the registry lock.
type capabilityRegistry struct {
	mu        sync.Mutex
	entries   map[string]*capEntry
	threshold int

	// onChange is called when a member's support state settles or flips.
	onChange func(name string, supported bool)
}

func newCapabilityRegistry(threshold int, onChange func(name string, supported bool)) *capabilityRegistry {
	return &capabilityRegistry{
		entries:   make(map[string]*capEntry),
		threshold: threshold,
		onChange:  onChange,
	}
}

func (r *capabilityRegistry) entry(name string) *capEntry {
	e, ok := r.entries[name]
	if !ok {
		e = &capEntry{}
		r.entries[name] = e
	}
	return e
}

// seed fixes a member's support from a capability flag read at connect
// time. A seeded supported member is still subject to demotion if it
// fails once probing starts; the flag only spares it the initial
// learning phase.
func (r *capabilityRegistry) seed(name string, supported bool) {
	r.mu.Lock()
	e := r.entry(name)
	if supported {
		e.state = Supported
	} else {
		e.state = Unsupported
	}
	r.mu.Unlock()
}

// shouldAttempt reports whether a wire call for the member is worth
// making. Unknown members are always attempted.
func (r *capabilityRegistry) shouldAttempt(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(name).state != Unsupported
}

// recordSuccess marks the member Supported and resets its failure count.
func (r *capabilityRegistry) recordSuccess(name string) {
	r.mu.Lock()
	e := r.entry(name)
	wasUnknown := e.state == Unknown
	e.state = Supported
	e.failures = 0
	r.mu.Unlock()

	if wasUnknown && r.onChange != nil {
		r.onChange(name, true)
	}
}

// recordFailure counts a failed access. A permanent failure (the device
// said not-implemented) demotes immediately; otherwise demotion waits
// for threshold consecutive failures.
func (r *capabilityRegistry) recordFailure(name string, permanent bool) {
	r.mu.Lock()
	e := r.entry(name)
	if e.state == Unsupported {
		r.mu.Unlock()
		return
	}
	demoted := false
	if permanent {
		e.state = Unsupported
		demoted = true
	} else {
		e.failures++
		if e.failures >= r.threshold {
			e.state = Unsupported
			demoted = true
		}
	}
	r.mu.Unlock()

	if demoted && r.onChange != nil {
		r.onChange(name, false)
	}
}

// supportOf returns the current support state of a member.
func (r *capabilityRegistry) supportOf(name string) SupportState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return e.state
	}
	return Unknown
}

// snapshot returns a copy of all decided (non-unknown) member states.
func (r *capabilityRegistry) snapshot() map[string]SupportState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]SupportState, len(r.entries))
	for name, e := range r.entries {
		if e.state != Unknown {
			out[name] = e.state
		}
	}
	return out
}
