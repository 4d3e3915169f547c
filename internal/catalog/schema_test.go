package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		input   string
		want    DeviceType
		wantErr bool
	}{
		{"camera", Camera, false},
		{"Camera", Camera, false},
		{"TELESCOPE", Telescope, false},
		{"filterwheel", FilterWheel, false},
		{"spectrograph", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDeviceType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDeviceType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDeviceType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLookup_AllTypesHaveSchemas(t *testing.T) {
	for _, dt := range Types() {
		s, ok := Lookup(dt)
		if !ok {
			t.Errorf("Lookup(%q) missing schema", dt)
			continue
		}
		if s.Type != dt {
			t.Errorf("schema type = %q, want %q", s.Type, dt)
		}
		if len(s.Readable(Fast)) == 0 {
			t.Errorf("%q: no fast-cadence readable properties", dt)
		}
	}
}

func TestCameraSchema_GainModePair(t *testing.T) {
	s, _ := Lookup(Camera)

	mp, ok := s.ModePair("gain")
	if !ok {
		t.Fatal("camera schema missing gain mode pair")
	}

	want := ModePair{Name: "gain", List: "gains", Min: "gainmin", Max: "gainmax"}
	if diff := cmp.Diff(want, mp); diff != "" {
		t.Errorf("gain mode pair mismatch (-want +got):\n%s", diff)
	}

	// Every member the pair references must exist in the table.
	for _, name := range []string{mp.Name, mp.List, mp.Min, mp.Max} {
		if _, ok := s.Property(name); !ok {
			t.Errorf("mode pair references unknown property %q", name)
		}
	}

	if _, ok := s.ModePair("offset"); !ok {
		t.Error("camera schema missing offset mode pair")
	}
}

func TestSchema_FlagsReferenceRealProperties(t *testing.T) {
	for _, dt := range Types() {
		s, _ := Lookup(dt)
		for _, flag := range s.CapabilityFlags() {
			p, ok := s.Property(flag)
			if !ok {
				t.Errorf("%q: capability flag %q is not in the table", dt, flag)
				continue
			}
			if p.Kind != Bool || p.Direction != Read {
				t.Errorf("%q: capability flag %q must be a readable bool", dt, flag)
			}
			if len(s.FlagTargets(flag)) == 0 {
				t.Errorf("%q: capability flag %q has no targets", dt, flag)
			}
		}
	}
}

func TestSchema_ReadableExcludesActions(t *testing.T) {
	s, _ := Lookup(Telescope)

	for _, c := range []Cadence{Fast, Slow} {
		for _, name := range s.Readable(c) {
			p, _ := s.Property(name)
			if p.Direction == Action || p.Direction == Write {
				t.Errorf("Readable(%v) includes non-readable member %q", c, name)
			}
		}
	}
}

func TestSchema_PropertyLookupIsCaseInsensitive(t *testing.T) {
	s, _ := Lookup(Camera)

	if _, ok := s.Property("CameraState"); !ok {
		t.Error("Property() should accept mixed-case names")
	}
	if _, ok := s.Property("nonexistent"); ok {
		t.Error("Property() returned true for unknown member")
	}
}

func TestDomeSchema_ShutterCommandsShareFlag(t *testing.T) {
	s, _ := Lookup(Dome)

	got := s.FlagTargets("cansetshutter")
	want := []string{"closeshutter", "openshutter", "shutterstatus"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FlagTargets(cansetshutter) mismatch (-want +got):\n%s", diff)
	}
}
