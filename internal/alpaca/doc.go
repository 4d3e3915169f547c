// Package alpaca implements the wire transport for the Alpaca-style device
// protocol: stateless HTTP GET/PUT calls against per-device REST endpoints.
//
// The transport is deliberately dumb. It attaches the process-wide client
// identifier and a monotonically increasing transaction number to every call,
// decodes the value-or-error response envelope, and maps failures to typed
// errors. It never touches caches, capability records, or lifecycle state;
// those belong to the engine package.
//
// Error taxonomy:
//   - *TransportError: the HTTP call itself failed (timeout, refused,
//     malformed response, unexpected status).
//   - *ProtocolError: the device answered but reported a non-zero error
//     code in the envelope (e.g. property not implemented).
//
// Thread Safety: a Client is safe for concurrent use; the shared TxnSource
// uses an atomic counter.
package alpaca
