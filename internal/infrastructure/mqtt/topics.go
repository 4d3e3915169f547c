package mqtt

import "fmt"

// Topics builds the feed's topic strings. A struct rather than free
// functions so callers can pass it around as a namespace.
type Topics struct{}

// SystemStatus is the service online/offline topic.
func (Topics) SystemStatus() string {
	return "altair/system/status"
}

// DeviceState is the retained per-property value topic.
func (Topics) DeviceState(device, property string) string {
	return fmt.Sprintf("altair/state/%s/%s", device, property)
}

// DeviceCapability is the retained per-property support topic.
func (Topics) DeviceCapability(device, property string) string {
	return fmt.Sprintf("altair/capability/%s/%s", device, property)
}

// DeviceLifecycle is the retained session state topic.
func (Topics) DeviceLifecycle(device string) string {
	return "altair/lifecycle/" + device
}

// DeviceEvents is the non-retained failure event topic.
func (Topics) DeviceEvents(device string) string {
	return "altair/events/" + device
}
