package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/catalog"
)

// Value sources recorded per cache entry.
const (
	sourceConsolidated = "devicestate"
	sourceProperty     = "property"
)

// Entry is one cached property value with its provenance.
type Entry struct {
	Value     any
	Timestamp time.Time
	Source    string
}

// StateDiff maps property names to their new values for one refresh
// cycle. Only changed (or newly seen) properties appear.
type StateDiff map[string]any

// stateCache holds the last known value of every readable property of one
// device and arbitrates between the consolidated snapshot endpoint and
// per-property fetches.
//
// The consolidated endpoint is tried once per TTL window. The first time
// it fails or returns nothing it is pinned unsupported for the session
// and all refreshes fall back to per-property fetches. On success every
// property the snapshot carries is merged, not just the refreshing
// cadence group's; properties the snapshot omits are fetched
// individually in the same cycle.
//
// Thread Safety: refreshes are serialized by the owning session; the
// entry map itself is locked so snapshots may read it concurrently.
type stateCache struct {
	dev    alpaca.Descriptor
	schema *catalog.Schema
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]Entry

	consolidated     SupportState
	lastConsolidated time.Time

	now func() time.Time
}

func newStateCache(dev alpaca.Descriptor, schema *catalog.Schema, ttl time.Duration) *stateCache {
	return &stateCache{
		dev:     dev,
		schema:  schema,
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// fresh reports whether the named entry exists and is younger than the
// TTL.
func (c *stateCache) fresh(name string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	return ok && now.Sub(e.Timestamp) < c.ttl
}

// store records a value and reports whether it differs from the previous
// one (or is new).
func (c *stateCache) store(name string, value any, source string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, had := c.entries[name]
	c.entries[name] = Entry{Value: value, Timestamp: now, Source: source}
	return !had || !reflect.DeepEqual(prev.Value, value)
}

// refresh brings the named properties up to date, preferring one
// consolidated fetch over many individual ones. It returns the diff of
// changed values, the number of properties a fetch was attempted for and
// the number whose fetch failed.
func (c *stateCache) refresh(ctx context.Context, names []string, caps *capabilityRegistry, tr Transport) (StateDiff, int, int) {
	now := c.now()
	diff := make(StateDiff)

	// Drop names that are unsupported or still fresh.
	pending := make([]string, 0, len(names))
	for _, name := range names {
		if !caps.shouldAttempt(name) || c.fresh(name, now) {
			continue
		}
		pending = append(pending, name)
	}
	if len(pending) == 0 {
		return diff, 0, 0
	}

	attempted, failed := 0, 0

	if c.consolidated != Unsupported && now.Sub(c.lastConsolidated) >= c.ttl {
		c.lastConsolidated = now
		snapshot, err := tr.State(ctx, c.dev)
		switch {
		case err != nil, len(snapshot) == 0:
			// One failure or empty answer pins the endpoint off for
			// the whole session.
			c.consolidated = Unsupported
		default:
			c.consolidated = Supported
			// Merge everything the snapshot carries, not just this
			// cadence group; the other group then finds its values
			// fresh instead of re-fetching what the bulk call already
			// delivered.
			for name, v := range snapshot {
				if _, known := c.schema.Property(name); known {
					caps.recordSuccess(name)
				}
				if c.store(name, v, sourceConsolidated, now) {
					diff[name] = v
				}
			}
			remaining := pending[:0]
			for _, name := range pending {
				if _, ok := snapshot[name]; ok {
					attempted++
					continue
				}
				remaining = append(remaining, name)
			}
			pending = remaining
		}
	}

	for _, name := range pending {
		attempted++
		v, err := tr.Read(ctx, c.dev, name)
		if err != nil {
			failed++
			caps.recordFailure(name, isNotImplemented(err))
			continue
		}
		caps.recordSuccess(name)
		if c.store(name, v, sourceProperty, now) {
			diff[name] = v
		}
	}

	return diff, attempted, failed
}

// get returns the cached entry for a property.
func (c *stateCache) get(name string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	return e, ok
}

// values returns a copy of all cached values.
func (c *stateCache) values() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.entries))
	for name, e := range c.entries {
		out[name] = e.Value
	}
	return out
}

func isNotImplemented(err error) bool {
	var pe *alpaca.ProtocolError
	return errors.As(err, &pe) && pe.IsNotImplemented()
}
