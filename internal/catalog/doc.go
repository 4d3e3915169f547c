// Package catalog holds the static, per-device-type tables of protocol
// properties and commands: name, direction, value kind, polling cadence
// group, and whether the member is commonly optional on real hardware.
//
// The catalog says what a device type *can* expose; whether a concrete
// device instance actually supports a member is tracked at runtime by the
// engine's capability registry. Device-type differences are expressed only
// as data here — the engine has a single code path for every type.
//
// All tables are built once at init and never mutated; every accessor is
// safe for concurrent use.
package catalog
