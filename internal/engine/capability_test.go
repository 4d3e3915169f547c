package engine

import "testing"

func TestCapabilityDemotesAfterThreshold(t *testing.T) {
	var changes []string
	r := newCapabilityRegistry(3, func(name string, supported bool) {
		changes = append(changes, name)
		if supported {
			t.Fatalf("expected demotion callback, got promotion for %s", name)
		}
	})

	r.recordFailure("gain", false)
	r.recordFailure("gain", false)
	if !r.shouldAttempt("gain") {
		t.Fatal("member demoted before threshold")
	}

	r.recordFailure("gain", false)
	if r.shouldAttempt("gain") {
		t.Fatal("member still attempted after threshold failures")
	}
	if len(changes) != 1 || changes[0] != "gain" {
		t.Fatalf("expected one demotion callback for gain, got %v", changes)
	}
}

func TestCapabilitySuccessResetsFailureCount(t *testing.T) {
	r := newCapabilityRegistry(3, nil)

	r.recordFailure("position", false)
	r.recordFailure("position", false)
	r.recordSuccess("position")
	r.recordFailure("position", false)
	r.recordFailure("position", false)

	if !r.shouldAttempt("position") {
		t.Fatal("success did not reset the failure count")
	}
}

func TestCapabilityPermanentFailureDemotesImmediately(t *testing.T) {
	r := newCapabilityRegistry(3, nil)

	r.recordFailure("cooleron", true)

	if r.shouldAttempt("cooleron") {
		t.Fatal("not-implemented response did not demote immediately")
	}
	if got := r.supportOf("cooleron"); got != Unsupported {
		t.Fatalf("supportOf = %v, want Unsupported", got)
	}
}

func TestCapabilitySeededSupportDemotesAtThreshold(t *testing.T) {
	r := newCapabilityRegistry(2, nil)
	r.seed("park", true)
	if r.supportOf("park") != Supported {
		t.Fatal("seed did not mark the member supported")
	}

	// The flag spares the learning phase, not the failure accounting: a
	// flagged member that keeps failing demotes like any other.
	r.recordFailure("park", false)
	if !r.shouldAttempt("park") {
		t.Fatal("seeded member demoted below the threshold")
	}
	r.recordFailure("park", false)
	if r.shouldAttempt("park") {
		t.Fatal("seeded member exempt from threshold demotion")
	}
}

func TestCapabilitySeededSupportPermanentFailureWins(t *testing.T) {
	r := newCapabilityRegistry(5, nil)
	r.seed("park", true)

	r.recordFailure("park", true)
	if r.shouldAttempt("park") {
		t.Fatal("seeded member survived a permanent failure")
	}
}

func TestCapabilitySeedUnsupported(t *testing.T) {
	r := newCapabilityRegistry(3, nil)
	r.seed("closeshutter", false)

	if r.shouldAttempt("closeshutter") {
		t.Fatal("flag-disabled member should not be attempted")
	}
}

func TestCapabilityFirstSuccessNotifies(t *testing.T) {
	var got []bool
	r := newCapabilityRegistry(3, func(name string, supported bool) {
		got = append(got, supported)
	})

	r.recordSuccess("gain")
	r.recordSuccess("gain")

	if len(got) != 1 || !got[0] {
		t.Fatalf("expected one promotion callback, got %v", got)
	}
}

func TestCapabilitySnapshotOmitsUnknown(t *testing.T) {
	r := newCapabilityRegistry(3, nil)
	r.recordSuccess("gain")
	r.recordFailure("offset", true)
	r.recordFailure("park", false) // still unknown, below threshold

	snap := r.snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2: %v", len(snap), snap)
	}
	if snap["gain"] != Supported || snap["offset"] != Unsupported {
		t.Fatalf("unexpected snapshot %v", snap)
	}
}
