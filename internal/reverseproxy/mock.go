package reverseproxy

import "flecsd/internal/vault/pouch"

// Mock is a test double that forwards each call to its *Func field; it
// records nothing itself, and each *Func field left nil falls back to a
// no-op success.
type Mock struct {
	AddInstanceConfigFunc        func(pouch.InstanceId, EntryConfig) error
	DeleteInstanceConfigFunc     func(pouch.InstanceId, int) error
	AddAdditionalLocationsFunc   func(pouch.InstanceId, map[string]string) error
	DeleteAdditionalLocationsFunc func(pouch.InstanceId) error
}

func (m *Mock) AddInstanceConfig(id pouch.InstanceId, entry EntryConfig) error {
	if m.AddInstanceConfigFunc != nil {
		return m.AddInstanceConfigFunc(id, entry)
	}
	return nil
}

func (m *Mock) DeleteInstanceConfig(id pouch.InstanceId, port int) error {
	if m.DeleteInstanceConfigFunc != nil {
		return m.DeleteInstanceConfigFunc(id, port)
	}
	return nil
}

func (m *Mock) AddAdditionalLocations(id pouch.InstanceId, prefixes map[string]string) error {
	if m.AddAdditionalLocationsFunc != nil {
		return m.AddAdditionalLocationsFunc(id, prefixes)
	}
	return nil
}

func (m *Mock) DeleteAdditionalLocations(id pouch.InstanceId) error {
	if m.DeleteAdditionalLocationsFunc != nil {
		return m.DeleteAdditionalLocationsFunc(id)
	}
	return nil
}

var _ ReverseProxy = (*Mock)(nil)
