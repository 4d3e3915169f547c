// Package api provides the HTTP REST API and WebSocket server for
// Altair Core.
//
// It exposes device session control (connect, release, reconnect),
// property writes and command invocation, cached state reads, and a
// WebSocket feed of engine events to observatory control UIs.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
