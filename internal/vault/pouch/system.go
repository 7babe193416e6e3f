package pouch

// System holds device/runtime state that is cheap to rediscover: the last
// USB enumeration snapshot and the host's network adapter names. These
// fields are advisory caches, not authoritative state. No code path writes
// them: internal/usbdevice.Reader.Enumerate results are not stored here.
type System struct {
	USBDevices      []USBDeviceConfig `json:"usbDevices,omitempty"`
	NetworkAdapters []string          `json:"networkAdapters,omitempty"`
}

// NewSystem returns an empty System pouch.
func NewSystem() *System {
	return &System{}
}
