package provider

import (
	"fmt"
	"strconv"
)

// splitEscaped splits input on unescaped '|', treating '\' as an escape
// for a literal following character (so "\|" yields a literal "|" and
// "\\" yields a literal "\"). A trailing lone backslash is kept as-is.
func splitEscaped(input string) []string {
	var out []string
	var cur []rune
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '\\':
			if i+1 < len(runes) {
				i++
				cur = append(cur, runes[i])
			} else {
				cur = append(cur, '\\')
			}
		case '|':
			out = append(out, string(cur))
			cur = nil
		default:
			cur = append(cur, c)
		}
	}
	out = append(out, string(cur))
	return out
}

// configStrMatches checks one literal string (produced by splitting a
// dependency's alternation) against a provider-side JSON value.
func configStrMatches(providerConfig interface{}, dependencyStr string) error {
	switch v := providerConfig.(type) {
	case nil:
		return fmt.Errorf("expected %s, found null", dependencyStr)
	case bool:
		expected, err := strconv.ParseBool(dependencyStr)
		if err != nil || expected != v {
			return fmt.Errorf("expected %s, found %v", dependencyStr, v)
		}
		return nil
	case float64:
		expected, err := strconv.ParseFloat(dependencyStr, 64)
		if err != nil || expected != v {
			return fmt.Errorf("expected %s, found %v", dependencyStr, v)
		}
		return nil
	case string:
		if v != dependencyStr {
			return fmt.Errorf("expected %s, found %s", dependencyStr, v)
		}
		return nil
	case []interface{}:
		for _, elem := range v {
			if configStrMatches(elem, dependencyStr) == nil {
				return nil
			}
		}
		return fmt.Errorf("found no match for %s in %v", dependencyStr, v)
	case map[string]interface{}:
		if _, ok := v[dependencyStr]; !ok {
			return fmt.Errorf("found no match for %s in %v", dependencyStr, v)
		}
		return nil
	default:
		return fmt.Errorf("unsupported provider value type %T", v)
	}
}

// configMatches decides whether providerConfig satisfies
// dependencyConfig, per spec §4.5's matching rules.
func configMatches(providerConfig, dependencyConfig interface{}) error {
	switch dv := dependencyConfig.(type) {
	case nil:
		return nil
	case bool:
		pv, ok := providerConfig.(bool)
		if !ok || pv != dv {
			return fmt.Errorf("expected %v, found %v", dv, providerConfig)
		}
		return nil
	case float64:
		pv, ok := providerConfig.(float64)
		if !ok || pv != dv {
			return fmt.Errorf("expected %v, found %v", dv, providerConfig)
		}
		return nil
	case string:
		for _, alt := range splitEscaped(dv) {
			if configStrMatches(providerConfig, alt) == nil {
				return nil
			}
		}
		return fmt.Errorf("could not find a match for any value in %s, in %v", dv, providerConfig)
	case []interface{}:
		pArr, ok := providerConfig.([]interface{})
		if !ok {
			return fmt.Errorf("expected array %v, found %v", dv, providerConfig)
		}
		for _, depElem := range dv {
			found := false
			for _, provElem := range pArr {
				if configMatches(provElem, depElem) == nil {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("could not find a match for %v, in %v", depElem, pArr)
			}
		}
		return nil
	case map[string]interface{}:
		pObj, ok := providerConfig.(map[string]interface{})
		if !ok {
			return fmt.Errorf("expected properties %v, found %v", dv, providerConfig)
		}
		for key, depProp := range dv {
			provProp, ok := pObj[key]
			if !ok {
				return fmt.Errorf("expected property %s", key)
			}
			if err := configMatches(provProp, depProp); err != nil {
				return fmt.Errorf(".%s: %w", key, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported dependency value type %T", dv)
	}
}
