package engine

import (
	"fmt"
	"math"
	"strconv"
)

// ControlMode is the resolved operating mode of a list-or-value control.
type ControlMode int

// Control modes.
const (
	// ModeUnresolved: neither the option list nor the bounds could be
	// read; writes to the control are rejected.
	ModeUnresolved ControlMode = iota

	// ModeList: the control selects an index into a named option list.
	ModeList

	// ModeValue: the control accepts a number within [Min, Max].
	ModeValue
)

func (m ControlMode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeValue:
		return "value"
	default:
		return "unresolved"
	}
}

// ModeRecord is the resolved mode of one list-or-value control, fixed at
// connect time for the life of the session.
type ModeRecord struct {
	Control string
	Mode    ControlMode

	// Options holds the ordered option names in list mode. The wire value
	// for a selection is its index in this slice.
	Options []string

	// Min and Max bound accepted numbers in value mode.
	Min float64
	Max float64
}

// resolveMode decides a control's mode from its auxiliary values. A
// non-empty option list wins over bounds; valid bounds (min <= max) give
// value mode; anything else leaves the control unresolved.
func resolveMode(control string, options []string, min, max float64, haveBounds bool) ModeRecord {
	if len(options) > 0 {
		return ModeRecord{Control: control, Mode: ModeList, Options: options}
	}
	if haveBounds && min <= max {
		return ModeRecord{Control: control, Mode: ModeValue, Min: min, Max: max}
	}
	return ModeRecord{Control: control, Mode: ModeUnresolved}
}

// Translate converts caller intent into the numeric wire value for the
// control. In list mode intent may be an exact option name or an index;
// in value mode it must be a number (or numeric string) within bounds.
// Out-of-range input is an error, never clamped.
func (m ModeRecord) Translate(intent any) (float64, error) {
	switch m.Mode {
	case ModeList:
		return m.translateList(intent)
	case ModeValue:
		return m.translateValue(intent)
	default:
		return 0, &ModeError{
			Control: m.Control,
			Kind:    ModeUndetermined,
			Detail:  "control mode could not be determined at connect time",
		}
	}
}

func (m ModeRecord) translateList(intent any) (float64, error) {
	if s, ok := intent.(string); ok {
		// Option names match exactly; the options are device-reported and
		// the caller is expected to echo them back verbatim.
		for i, opt := range m.Options {
			if opt == s {
				return float64(i), nil
			}
		}
		return 0, &ModeError{
			Control: m.Control,
			Kind:    UnknownOptionName,
			Detail:  fmt.Sprintf("no option named %q", s),
		}
	}

	n, ok := toFloat(intent)
	if !ok {
		return 0, &ModeError{
			Control: m.Control,
			Kind:    NotANumber,
			Detail:  fmt.Sprintf("want option name or index, got %T", intent),
		}
	}
	idx := int(n)
	if float64(idx) != n || idx < 0 || idx >= len(m.Options) {
		return 0, &ModeError{
			Control: m.Control,
			Kind:    IndexOutOfRange,
			Detail:  fmt.Sprintf("index %v outside 0..%d", n, len(m.Options)-1),
		}
	}
	return float64(idx), nil
}

func (m ModeRecord) translateValue(intent any) (float64, error) {
	n, ok := toFloat(intent)
	if !ok {
		return 0, &ModeError{
			Control: m.Control,
			Kind:    NotANumber,
			Detail:  fmt.Sprintf("want number, got %T", intent),
		}
	}
	if math.IsNaN(n) || n < m.Min || n > m.Max {
		return 0, &ModeError{
			Control: m.Control,
			Kind:    OutOfRange,
			Detail:  fmt.Sprintf("%v outside %v..%v", n, m.Min, m.Max),
		}
	}
	return n, nil
}

// toFloat accepts the numeric shapes seen from JSON decoding and API
// callers. Strings are parsed, so a form-encoded "42" counts as a
// number.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
