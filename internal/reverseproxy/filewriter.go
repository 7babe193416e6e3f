package reverseproxy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"flecsd/internal/vault/pouch"
)

// FileWriter renders one JSON routing document per instance under Dir,
// the way a sidecar proxy process would pick up its target list. Editor
// ports and the additional-locations table are kept as two files per
// instance so either can be deleted independently per spec.
type FileWriter struct {
	Dir string
}

type instanceDocument struct {
	Entries map[int]EntryConfig `json:"entries"`
}

func (w *FileWriter) instancePath(id pouch.InstanceId) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s.json", id.Hex()))
}

func (w *FileWriter) locationsPath(id pouch.InstanceId) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s.locations.json", id.Hex()))
}

func (w *FileWriter) readDocument(id pouch.InstanceId) (instanceDocument, error) {
	doc := instanceDocument{Entries: make(map[int]EntryConfig)}
	data, err := os.ReadFile(w.instancePath(id))
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("reverseproxy: read %s: %w", w.instancePath(id), err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("reverseproxy: decode %s: %w", w.instancePath(id), err)
	}
	return doc, nil
}

func (w *FileWriter) writeDocument(id pouch.InstanceId, doc instanceDocument) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("reverseproxy: mkdir %s: %w", w.Dir, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("reverseproxy: encode: %w", err)
	}
	return os.WriteFile(w.instancePath(id), data, 0o644)
}

// AddInstanceConfig implements ReverseProxy.
func (w *FileWriter) AddInstanceConfig(id pouch.InstanceId, entry EntryConfig) error {
	doc, err := w.readDocument(id)
	if err != nil {
		return err
	}
	doc.Entries[entry.Port] = entry
	return w.writeDocument(id, doc)
}

// DeleteInstanceConfig implements ReverseProxy.
func (w *FileWriter) DeleteInstanceConfig(id pouch.InstanceId, port int) error {
	doc, err := w.readDocument(id)
	if err != nil {
		return err
	}
	if len(doc.Entries) == 0 {
		return nil
	}
	delete(doc.Entries, port)
	if len(doc.Entries) == 0 {
		if err := os.Remove(w.instancePath(id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reverseproxy: remove %s: %w", w.instancePath(id), err)
		}
		return nil
	}
	return w.writeDocument(id, doc)
}

// AddAdditionalLocations implements ReverseProxy.
func (w *FileWriter) AddAdditionalLocations(id pouch.InstanceId, prefixes map[string]string) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("reverseproxy: mkdir %s: %w", w.Dir, err)
	}
	data, err := json.MarshalIndent(prefixes, "", "  ")
	if err != nil {
		return fmt.Errorf("reverseproxy: encode locations: %w", err)
	}
	return os.WriteFile(w.locationsPath(id), data, 0o644)
}

// DeleteAdditionalLocations implements ReverseProxy.
func (w *FileWriter) DeleteAdditionalLocations(id pouch.InstanceId) error {
	if err := os.Remove(w.locationsPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reverseproxy: remove %s: %w", w.locationsPath(id), err)
	}
	return nil
}

var _ ReverseProxy = (*FileWriter)(nil)
