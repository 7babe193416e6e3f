// Package usbdevice enumerates host USB devices so the instance engine can
// resolve a manifest's USB passthrough requirement to a concrete bus/device
// pair. Device discovery is interfaced so tests never touch /sys.
package usbdevice

// Device is one enumerated host USB device.
type Device struct {
	Port    string
	Bus     string
	Device  string
	Vendor  string
	Product string
}

// Reader enumerates the USB devices currently attached to the host.
type Reader interface {
	Enumerate() ([]Device, error)
}
