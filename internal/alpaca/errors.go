package alpaca

import "fmt"

// Device-side error codes defined by the protocol. The envelope carries
// these in ErrorNumber independent of the HTTP status.
const (
	CodeNotImplemented       = 0x400
	CodeInvalidValue         = 0x401
	CodeValueNotSet          = 0x402
	CodeNotConnected         = 0x407
	CodeInvalidWhileParked   = 0x408
	CodeInvalidWhileSlaved   = 0x409
	CodeInvalidOperation     = 0x40B
	CodeActionNotImplemented = 0x40C
)

// TransportError indicates the HTTP call itself failed: timeout, connection
// refused, unexpected status, or a response that could not be decoded.
// These are potentially transient.
type TransportError struct {
	Op     string // "GET" or "PUT"
	Member string // property or command name
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("alpaca: %s %s: %v", e.Op, e.Member, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the device answered the call but reported a
// semantic error in the response envelope. These are usually not retried
// automatically.
type ProtocolError struct {
	Member  string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("alpaca: %s: device error 0x%x: %s", e.Member, e.Code, e.Message)
}

// IsNotImplemented reports whether the device declared the member
// unimplemented. The capability registry treats this as a permanent
// demotion signal rather than a transient failure.
func (e *ProtocolError) IsNotImplemented() bool {
	return e.Code == CodeNotImplemented || e.Code == CodeActionNotImplemented
}
