// Package engine is the device synchronization core. It turns the
// stateless, possibly-partial REST endpoints of protocol devices into a
// consistent, typed, low-latency view of current device state.
//
// Per selected device the engine runs one session owning:
//
//   - a capability registry tracking which catalog members the concrete
//     device actually supports, demoting members after repeated failures;
//   - mode records resolving list-vs-value controls (gain/offset) and
//     translating caller intent into the single numeric wire parameter;
//   - a state cache arbitrating between the consolidated devicestate
//     fetch and per-property fetches under a TTL policy;
//   - a poller driving fast/slow cadence groups with optional burst mode;
//   - a lifecycle state machine gating transport calls and polling.
//
// Sessions for different devices are fully independent; within one device
// refreshes are serialized and at most one is in flight. Change
// notifications leave the engine via the events bus only.
package engine
