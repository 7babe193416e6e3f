package usbdevice

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSysfsReaderEnumerate(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "1-1")
	writeFile(t, filepath.Join(dev, "busnum"), "1\n")
	writeFile(t, filepath.Join(dev, "devnum"), "4\n")
	writeFile(t, filepath.Join(dev, "idVendor"), "1d6b\n")
	writeFile(t, filepath.Join(dev, "idProduct"), "0002\n")

	// Interface-only entry, no busnum/devnum: must be skipped.
	if err := os.MkdirAll(filepath.Join(root, "1-1:1.0"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := &SysfsReader{Root: root}
	devices, err := r.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Enumerate() = %v, want 1 device", devices)
	}
	if devices[0].Bus != "1" || devices[0].Device != "4" {
		t.Errorf("device = %+v, want bus=1 device=4", devices[0])
	}
}

func TestSysfsReaderMissingRootReturnsEmpty(t *testing.T) {
	r := &SysfsReader{Root: filepath.Join(t.TempDir(), "does-not-exist")}
	devices, err := r.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("Enumerate() = %v, want empty", devices)
	}
}
