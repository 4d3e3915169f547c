package engine

import (
	"errors"
	"fmt"

	"github.com/altair-obs/altair-core/internal/alpaca"
)

// Sentinel errors for the engine package, checked with errors.Is().
var (
	// ErrSessionExists is returned when selecting a device that already
	// has a session.
	ErrSessionExists = errors.New("engine: device already selected")

	// ErrSessionNotFound is returned when operating on a device that has
	// no session.
	ErrSessionNotFound = errors.New("engine: device not selected")

	// ErrUnknownProperty is returned when a member name is not in the
	// device type's catalog.
	ErrUnknownProperty = errors.New("engine: property not in catalog")

	// ErrNotWritable is returned when writing a read-only member.
	ErrNotWritable = errors.New("engine: property is not writable")

	// ErrNotCommand is returned when invoking a member that is not a
	// command.
	ErrNotCommand = errors.New("engine: member is not a command")

	// ErrNotFaulted is returned when reconnecting a device that is not
	// in the faulted state.
	ErrNotFaulted = errors.New("engine: device is not faulted")
)

// LifecycleError indicates an operation was attempted in a state that
// forbids it (e.g. writing while disconnecting).
type LifecycleError struct {
	Op    string
	State State
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("engine: %s not allowed while %s", e.Op, e.State)
}

// UnsupportedError indicates the capability registry has demoted the
// member; no wire call was attempted.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("engine: property %q is not supported by this device", e.Name)
}

// ModeErrorKind classifies intent translation failures.
type ModeErrorKind int

// Mode error kinds.
const (
	UnknownOptionName ModeErrorKind = iota
	IndexOutOfRange
	NotANumber
	OutOfRange
	ModeUndetermined
)

func (k ModeErrorKind) String() string {
	switch k {
	case UnknownOptionName:
		return "unknown_option_name"
	case IndexOutOfRange:
		return "index_out_of_range"
	case NotANumber:
		return "not_a_number"
	case OutOfRange:
		return "out_of_range"
	case ModeUndetermined:
		return "mode_undetermined"
	default:
		return "unknown"
	}
}

// ModeError indicates caller intent could not be translated to a wire
// value. No transport call is made when translation fails.
type ModeError struct {
	Control string
	Kind    ModeErrorKind
	Detail  string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("engine: %s: %s: %s", e.Control, e.Kind, e.Detail)
}

// errorKind maps an error to the classification reported in
// operation_failed events.
func errorKind(err error) string {
	var (
		modeErr        *ModeError
		unsupportedErr *UnsupportedError
		lifecycleErr   *LifecycleError
		protocolErr    *alpaca.ProtocolError
		transportErr   *alpaca.TransportError
	)
	switch {
	case errors.As(err, &modeErr):
		return modeErr.Kind.String()
	case errors.As(err, &unsupportedErr):
		return "unsupported"
	case errors.As(err, &lifecycleErr):
		return "lifecycle"
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "internal"
	}
}
