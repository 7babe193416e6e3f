package usbdevice

import (
	"os"
	"path/filepath"
	"strings"
)

// SysfsReader enumerates USB devices from /sys/bus/usb/devices, the
// convention Linux exposes the topology under. Entries without a non-empty
// busnum/devnum pair (interfaces, root hubs without an assigned address)
// are skipped; a missing or unreadable sysfs tree yields an empty list
// rather than an error, since USB passthrough is an optional capability.
type SysfsReader struct {
	Root string
}

// NewSysfsReader returns a reader rooted at the standard sysfs USB path.
func NewSysfsReader() *SysfsReader {
	return &SysfsReader{Root: "/sys/bus/usb/devices"}
}

func (r *SysfsReader) readTrim(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Enumerate implements Reader.
func (r *SysfsReader) Enumerate() ([]Device, error) {
	entries, err := os.ReadDir(r.Root)
	if err != nil {
		return nil, nil
	}

	var devices []Device
	for _, entry := range entries {
		devDir := filepath.Join(r.Root, entry.Name())
		bus := r.readTrim(filepath.Join(devDir, "busnum"))
		dev := r.readTrim(filepath.Join(devDir, "devnum"))
		if bus == "" || dev == "" {
			continue
		}
		devices = append(devices, Device{
			Port:    entry.Name(),
			Bus:     bus,
			Device:  dev,
			Vendor:  r.readTrim(filepath.Join(devDir, "idVendor")),
			Product: r.readTrim(filepath.Join(devDir, "idProduct")),
		})
	}
	return devices, nil
}

var _ Reader = (*SysfsReader)(nil)
