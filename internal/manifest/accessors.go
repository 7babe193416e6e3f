package manifest

import "encoding/json"

// Provides returns the feature->JSON-value map a manifest declares it
// satisfies, regardless of variant.
func Provides(m Manifest) map[FeatureKey]json.RawMessage {
	switch v := m.(type) {
	case *Single:
		return v.Provides
	case *Multi:
		return v.Provides
	default:
		return nil
	}
}

// Depends returns the dependency declarations of a manifest, regardless of
// variant.
func Depends(m Manifest) map[DependencyKey]DependencyConfig {
	switch v := m.(type) {
	case *Single:
		return v.Depends
	case *Multi:
		return v.Depends
	default:
		return nil
	}
}

// DeclaresDependency reports whether a manifest declares dep among its
// dependencies.
func DeclaresDependency(m Manifest, dep DependencyKey) bool {
	_, ok := Depends(m)[dep]
	return ok
}
