package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/catalog"
)

func testDescriptor() alpaca.Descriptor {
	return alpaca.Descriptor{Type: "camera", Number: 0, Addr: "127.0.0.1:11111", Name: "cam1"}
}

// clock drives the cache's notion of time so TTL behavior is exact.
type clock struct{ t time.Time }

func newClock() *clock                   { return &clock{t: time.Unix(1000, 0)} }
func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration) (*stateCache, *clock) {
	schema, ok := catalog.Lookup(catalog.Camera)
	if !ok {
		panic("camera schema missing")
	}
	c := newStateCache(testDescriptor(), schema, ttl)
	clk := newClock()
	c.now = clk.now
	return c, clk
}

func TestCacheConsolidatedMergesPartialAndFallsBack(t *testing.T) {
	tr := newFakeTransport()
	tr.setState(map[string]any{"camerastate": 0.0, "imageready": false}, nil)
	tr.set("ccdtemperature", -10.5)

	cache, _ := newTestCache(500 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	diff, attempted, failed := cache.refresh(context.Background(),
		[]string{"camerastate", "imageready", "ccdtemperature"}, caps, tr)

	if attempted != 3 || failed != 0 {
		t.Fatalf("attempted=%d failed=%d, want 3/0", attempted, failed)
	}
	if tr.stateCalls() != 1 {
		t.Fatalf("state calls = %d, want 1", tr.stateCalls())
	}
	if tr.reads("camerastate") != 0 || tr.reads("imageready") != 0 {
		t.Fatal("snapshot-covered properties were fetched individually")
	}
	if tr.reads("ccdtemperature") != 1 {
		t.Fatalf("ccdtemperature reads = %d, want 1", tr.reads("ccdtemperature"))
	}
	if len(diff) != 3 {
		t.Fatalf("diff = %v, want three entries", diff)
	}

	e, ok := cache.get("camerastate")
	if !ok || e.Source != sourceConsolidated {
		t.Fatalf("camerastate entry = %+v, want consolidated source", e)
	}
	e, ok = cache.get("ccdtemperature")
	if !ok || e.Source != sourceProperty {
		t.Fatalf("ccdtemperature entry = %+v, want property source", e)
	}
}

func TestCacheConsolidatedMergesWholeSnapshot(t *testing.T) {
	tr := newFakeTransport()
	// The snapshot carries more than the refreshing group asked for: a
	// member from the other cadence group and a vendor extra outside the
	// catalog.
	tr.setState(map[string]any{
		"camerastate":    0.0,
		"ccdtemperature": -10.5,
		"vendorhumidity": 55.0,
	}, nil)
	tr.set("ccdtemperature", -10.5)

	cache, _ := newTestCache(500 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	cache.refresh(context.Background(), []string{"camerastate"}, caps, tr)

	e, ok := cache.get("ccdtemperature")
	if !ok || e.Source != sourceConsolidated {
		t.Fatalf("ccdtemperature entry = %+v, want consolidated source", e)
	}
	if caps.supportOf("ccdtemperature") != Supported {
		t.Fatal("snapshot delivery did not mark the member supported")
	}
	if e, ok := cache.get("vendorhumidity"); !ok || e.Value != 55.0 {
		t.Fatalf("vendorhumidity entry = %+v, want stored snapshot value", e)
	}
	if caps.supportOf("vendorhumidity") != Unknown {
		t.Fatal("non-catalog snapshot name must not gain a capability record")
	}

	// The other group's refresh finds its value fresh and skips the
	// individual fetch the snapshot already paid for.
	_, attempted, _ := cache.refresh(context.Background(), []string{"ccdtemperature"}, caps, tr)
	if attempted != 0 {
		t.Fatalf("attempted = %d, want 0 (value delivered by snapshot)", attempted)
	}
	if tr.reads("ccdtemperature") != 0 {
		t.Fatalf("ccdtemperature reads = %d, want 0", tr.reads("ccdtemperature"))
	}
}

func TestCacheConsolidatedFailurePinsPermanently(t *testing.T) {
	tr := newFakeTransport()
	tr.setState(nil, errors.New("boom"))
	tr.set("camerastate", 0.0)

	cache, clk := newTestCache(500 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	cache.refresh(context.Background(), []string{"camerastate"}, caps, tr)
	if tr.stateCalls() != 1 {
		t.Fatalf("state calls = %d, want 1", tr.stateCalls())
	}

	// Even after the endpoint starts working, it stays pinned off.
	tr.setState(map[string]any{"camerastate": 1.0}, nil)
	clk.advance(time.Second)
	cache.refresh(context.Background(), []string{"camerastate"}, caps, tr)

	if tr.stateCalls() != 1 {
		t.Fatalf("state calls = %d after pin, want 1", tr.stateCalls())
	}
	if tr.reads("camerastate") != 2 {
		t.Fatalf("individual reads = %d, want 2", tr.reads("camerastate"))
	}
}

func TestCacheEmptyConsolidatedTreatedAsUnsupported(t *testing.T) {
	tr := newFakeTransport()
	tr.setState(map[string]any{}, nil)
	tr.set("position", 3.0)

	cache, clk := newTestCache(500 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	cache.refresh(context.Background(), []string{"position"}, caps, tr)
	clk.advance(time.Second)
	cache.refresh(context.Background(), []string{"position"}, caps, tr)

	if tr.stateCalls() != 1 {
		t.Fatalf("state calls = %d, want 1 (empty answer should pin)", tr.stateCalls())
	}
	if tr.reads("position") != 2 {
		t.Fatalf("individual reads = %d, want 2", tr.reads("position"))
	}
}

func TestCacheSkipsFreshEntries(t *testing.T) {
	tr := newFakeTransport()
	tr.setState(nil, errors.New("unsupported"))
	tr.set("position", 3.0)

	cache, clk := newTestCache(500 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	cache.refresh(context.Background(), []string{"position"}, caps, tr)

	// Within the TTL nothing is re-fetched.
	clk.advance(100 * time.Millisecond)
	_, attempted, _ := cache.refresh(context.Background(), []string{"position"}, caps, tr)
	if attempted != 0 {
		t.Fatalf("attempted = %d within TTL, want 0", attempted)
	}
	if tr.reads("position") != 1 {
		t.Fatalf("reads = %d, want 1", tr.reads("position"))
	}

	clk.advance(500 * time.Millisecond)
	_, attempted, _ = cache.refresh(context.Background(), []string{"position"}, caps, tr)
	if attempted != 1 || tr.reads("position") != 2 {
		t.Fatalf("expired entry not re-fetched: attempted=%d reads=%d", attempted, tr.reads("position"))
	}
}

func TestCacheDiffOnlyOnChange(t *testing.T) {
	tr := newFakeTransport()
	tr.setState(nil, errors.New("unsupported"))
	tr.set("position", 3.0)

	cache, clk := newTestCache(100 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	diff, _, _ := cache.refresh(context.Background(), []string{"position"}, caps, tr)
	if diff["position"] != 3.0 {
		t.Fatalf("first diff = %v, want position=3", diff)
	}

	clk.advance(time.Second)
	diff, _, _ = cache.refresh(context.Background(), []string{"position"}, caps, tr)
	if len(diff) != 0 {
		t.Fatalf("unchanged value produced diff %v", diff)
	}

	tr.set("position", 4.0)
	clk.advance(time.Second)
	diff, _, _ = cache.refresh(context.Background(), []string{"position"}, caps, tr)
	if diff["position"] != 4.0 {
		t.Fatalf("changed value diff = %v, want position=4", diff)
	}
}

func TestCacheSkipsUnsupportedMembers(t *testing.T) {
	tr := newFakeTransport()
	tr.setState(nil, errors.New("unsupported"))
	// "gains" is absent from the fake's value map, so reads answer with a
	// not-implemented protocol error.
	tr.set("gain", 1.0)

	cache, clk := newTestCache(100 * time.Millisecond)
	caps := newCapabilityRegistry(3, nil)

	_, attempted, failed := cache.refresh(context.Background(), []string{"gain", "gains"}, caps, tr)
	if attempted != 2 || failed != 1 {
		t.Fatalf("attempted=%d failed=%d, want 2/1", attempted, failed)
	}
	if caps.supportOf("gains") != Unsupported {
		t.Fatal("not-implemented response did not demote the member")
	}

	clk.advance(time.Second)
	_, attempted, _ = cache.refresh(context.Background(), []string{"gain", "gains"}, caps, tr)
	if attempted != 1 {
		t.Fatalf("attempted = %d, want 1 (unsupported member must be skipped)", attempted)
	}
	if tr.reads("gains") != 1 {
		t.Fatalf("gains reads = %d, want 1", tr.reads("gains"))
	}
}
