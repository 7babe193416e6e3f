package usbdevice

// Mock returns a fixed device list, for tests that resolve USB passthrough
// requirements without a real sysfs tree.
type Mock struct {
	Devices []Device
	Err     error
}

func (m *Mock) Enumerate() ([]Device, error) {
	return m.Devices, m.Err
}

var _ Reader = (*Mock)(nil)
