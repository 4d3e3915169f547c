// Package mqtt provides the optional MQTT state feed.
//
// When enabled, Altair mirrors its device state onto retained MQTT topics
// so observatory dashboards and automation rules can consume it without
// speaking the device protocol themselves. The feed is one-directional:
// Altair publishes, it never accepts commands over MQTT.
//
// Topic layout:
//
//	altair/system/status                  service online/offline (retained, LWT)
//	altair/state/{device}/{property}      latest property value (retained)
//	altair/capability/{device}/{property} supported flag (retained)
//	altair/lifecycle/{device}             session state (retained)
//	altair/events/{device}                operation failures (not retained)
package mqtt
