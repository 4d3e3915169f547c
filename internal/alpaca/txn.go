package alpaca

import (
	"math/rand"
	"sync/atomic"
)

// TxnSource issues the identifiers the protocol requires on every call:
// a client identifier generated once per process and reused for all calls,
// and a monotonically increasing transaction number.
//
// A single TxnSource is created at startup and passed to every Client.
// It is never ambient global state.
//
// Thread Safety: Next uses an atomic increment and is safe from any
// goroutine; ClientID is read-only after construction.
type TxnSource struct {
	clientID uint32
	next     atomic.Uint32
}

// maxClientID bounds the generated client identifier. The protocol treats
// the value as an opaque uint32; a small range keeps server logs readable.
const maxClientID = 65535

// NewTxnSource creates a TxnSource with a freshly generated client ID.
func NewTxnSource() *TxnSource {
	return &TxnSource{
		//nolint:gosec // identifier, not a secret; crypto strength not needed
		clientID: uint32(rand.Intn(maxClientID)) + 1,
	}
}

// ClientID returns the process-wide client identifier.
func (t *TxnSource) ClientID() uint32 {
	return t.clientID
}

// Next returns the next transaction number. Numbers start at 1 and are
// unique across all devices for the life of the process.
func (t *TxnSource) Next() uint32 {
	return t.next.Add(1)
}
