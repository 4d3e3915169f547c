// Package events carries change notifications out of the synchronization
// engine to external subscribers: the WebSocket hub, the optional MQTT
// feed, and logging.
//
// Subscribers receive events over buffered channels and never participate
// in synchronization logic. Publishing is non-blocking: a subscriber that
// cannot keep up loses events (with a warning) rather than stalling a
// device's refresh path.
package events
