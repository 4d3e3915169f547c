package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// DeviceType identifies a protocol device category. The value doubles as
// the path segment in device endpoint URLs.
type DeviceType string

// Supported device types.
const (
	Camera      DeviceType = "camera"
	Telescope   DeviceType = "telescope"
	FilterWheel DeviceType = "filterwheel"
	Dome        DeviceType = "dome"
	Focuser     DeviceType = "focuser"
	Rotator     DeviceType = "rotator"
)

// Types returns all supported device types.
func Types() []DeviceType {
	return []DeviceType{Camera, Telescope, FilterWheel, Dome, Focuser, Rotator}
}

// ParseDeviceType converts a configuration string to a DeviceType.
func ParseDeviceType(s string) (DeviceType, error) {
	t := DeviceType(strings.ToLower(s))
	if _, ok := schemas[t]; !ok {
		return "", fmt.Errorf("catalog: unknown device type %q", s)
	}
	return t, nil
}

// Direction describes how a member may be accessed.
type Direction int

// Direction values.
const (
	Read      Direction = iota // GET only
	Write                      // PUT only
	ReadWrite                  // GET and PUT
	Action                     // PUT-only command with no stored value
)

// Kind is the value type a readable member yields.
type Kind int

// Kind values.
const (
	Number Kind = iota
	Integer
	Bool
	String
	StringList
	NumberList
	None // actions carry no value
)

// Cadence assigns a member to a polling group.
type Cadence int

// Cadence groups. Fast members change during normal operation (positions,
// states, temperatures); slow members are near-static configuration.
const (
	Fast Cadence = iota
	Slow
)

func (c Cadence) String() string {
	if c == Fast {
		return "fast"
	}
	return "slow"
}

// Property is one catalog entry: a property or command of a device type.
type Property struct {
	// Name is the lower-case protocol member name.
	Name string

	// Direction is the allowed access pattern.
	Direction Direction

	// Kind is the value type for readable members, None for actions.
	Kind Kind

	// Cadence selects the polling group for readable members.
	Cadence Cadence

	// Optional marks members that are commonly absent on real hardware.
	// The capability registry still probes them, but their failures are
	// expected and logged at a lower level.
	Optional bool

	// Flag names the boolean capability property that pre-seeds support
	// for this member (e.g. "canpark" for the park action). Empty when
	// support can only be learned by probing.
	Flag string

	// Param is the wire parameter name used when writing the member.
	// The protocol's parameter casing is not derivable from the member
	// name (binx is written as BinX), so writable entries carry it
	// explicitly.
	Param string
}

// ParamName returns the wire parameter name for a write, falling back to
// the member name with its first letter upper-cased.
func (p Property) ParamName() string {
	if p.Param != "" {
		return p.Param
	}
	if p.Name == "" {
		return ""
	}
	return strings.ToUpper(p.Name[:1]) + p.Name[1:]
}

// ModePair describes a control that operates either as a selectable option
// list or as a bounded numeric value, resolved at connect time from
// auxiliary properties. The defining examples are camera gain and offset.
type ModePair struct {
	// Name is the caller-facing control name and the writable target
	// member ("gain").
	Name string

	// List is the member holding the ordered option names ("gains").
	// Non-empty list ⇒ list mode.
	List string

	// Min and Max are the members holding the numeric bounds
	// ("gainmin"/"gainmax"). Both present and valid ⇒ value mode.
	Min string
	Max string
}

// Schema is the full property table for one device type.
type Schema struct {
	Type       DeviceType
	properties map[string]Property
	modePairs  []ModePair
}

// Property looks up a catalog entry by member name.
func (s *Schema) Property(name string) (Property, bool) {
	p, ok := s.properties[strings.ToLower(name)]
	return p, ok
}

// Readable returns the sorted member names of the given cadence group that
// can be read (direction Read or ReadWrite).
func (s *Schema) Readable(c Cadence) []string {
	var names []string
	for _, p := range s.properties {
		if p.Cadence != c {
			continue
		}
		if p.Direction == Read || p.Direction == ReadWrite {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// CapabilityFlags returns the sorted, de-duplicated names of the boolean
// capability properties referenced by this schema. The engine reads these
// once at connect time to pre-seed the capability registry.
func (s *Schema) CapabilityFlags() []string {
	set := make(map[string]struct{})
	for _, p := range s.properties {
		if p.Flag != "" {
			set[p.Flag] = struct{}{}
		}
	}
	flags := make([]string, 0, len(set))
	for f := range set {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return flags
}

// FlagTargets returns the sorted member names whose support is pre-seeded
// by the given capability flag.
func (s *Schema) FlagTargets(flag string) []string {
	var names []string
	for _, p := range s.properties {
		if p.Flag == flag {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ModePairs returns the mode-dependent control pairs of this device type.
func (s *Schema) ModePairs() []ModePair {
	return s.modePairs
}

// ModePair looks up a mode pair by control name.
func (s *Schema) ModePair(name string) (ModePair, bool) {
	for _, mp := range s.modePairs {
		if mp.Name == strings.ToLower(name) {
			return mp, true
		}
	}
	return ModePair{}, false
}

// Lookup returns the schema for a device type.
func Lookup(t DeviceType) (*Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// newSchema builds a schema from a property list, indexing by name.
func newSchema(t DeviceType, pairs []ModePair, props []Property) *Schema {
	m := make(map[string]Property, len(props))
	for _, p := range props {
		m[p.Name] = p
	}
	return &Schema{Type: t, properties: m, modePairs: pairs}
}
