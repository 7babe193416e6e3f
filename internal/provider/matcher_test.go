package provider

import (
	"encoding/json"
	"testing"
)

func jsonValue(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", s, err)
	}
	return v
}

func TestSplitEscaped(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"a|b", []string{"a", "b"}},
		{"a||b", []string{"a", "", "b"}},
		{"a|||b", []string{"a", "", "", "b"}},
		{"\\\\", []string{"\\"}},
		{"\\a", []string{"a"}},
		{"a\\|b", []string{"a|b"}},
		{"1234\\", []string{"1234\\"}},
	}
	for _, c := range cases {
		got := splitEscaped(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("splitEscaped(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitEscaped(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestConfigStrMatches(t *testing.T) {
	if configStrMatches(nil, "null") == nil {
		t.Error("null provider config should never match")
	}
	if configStrMatches(true, "true") != nil {
		t.Error("bool true should match string true")
	}
	if configStrMatches(true, "false") == nil {
		t.Error("bool true should not match string false")
	}
	if configStrMatches(12.7, "12.7") != nil {
		t.Error("number should match its string form")
	}
	if configStrMatches("oehjoina", "oehjoina") != nil {
		t.Error("exact string match expected")
	}
	arr := jsonValue(t, `["123", "oehjoina", "124"]`)
	if configStrMatches(arr, "oehjoina") != nil {
		t.Error("array should match contained element")
	}
	if configStrMatches(arr, "125") == nil {
		t.Error("array should not match absent element")
	}
	obj := jsonValue(t, `{"oehjoina": 100}`)
	if configStrMatches(obj, "oehjoina") != nil {
		t.Error("object should match key")
	}
}

func TestConfigMatchesNullDependencyIsUniversal(t *testing.T) {
	for _, pv := range []interface{}{nil, true, "string", 12.0, jsonValue(t, `[1,"44",null]`), jsonValue(t, `{"some":10}`)} {
		if configMatches(pv, nil) != nil {
			t.Errorf("nil dependency should match %v", pv)
		}
	}
}

func TestConfigMatchesString(t *testing.T) {
	if configMatches("oehjoina", "oehjoina") != nil {
		t.Error("exact string match expected")
	}
	if configMatches(-120.0, "-120") != nil {
		t.Error("number vs numeric string expected to match")
	}
	if configMatches(1.0, "2|4|1") != nil {
		t.Error("alternation should match one branch")
	}
	if configMatches("1", "2|3|4") == nil {
		t.Error("no branch should match")
	}
}

func TestConfigMatchesArray(t *testing.T) {
	dep := jsonValue(t, `["123","124"]`)
	prov := jsonValue(t, `["123","oehjoina","124"]`)
	if configMatches(prov, dep) != nil {
		t.Error("every dependency element should find a match")
	}
	dep2 := jsonValue(t, `["123","124","125"]`)
	if configMatches(prov, dep2) == nil {
		t.Error("missing element should fail")
	}
}

func TestConfigMatchesObject(t *testing.T) {
	prov := jsonValue(t, `{"a":1,"b":2,"c":3}`)
	dep := jsonValue(t, `{"b":2,"c":3}`)
	if configMatches(prov, dep) != nil {
		t.Error("subset of matching keys should match, extra provider keys allowed")
	}
	dep2 := jsonValue(t, `{"a":1,"b":2,"c":3,"d":4}`)
	if configMatches(prov, dep2) == nil {
		t.Error("dependency key missing from provider should fail")
	}
}

func TestConfigMatchesReflexive(t *testing.T) {
	values := []string{`true`, `12.5`, `"s"`, `["a","b"]`, `{"x":1}`, `null`}
	for _, s := range values {
		v := jsonValue(t, s)
		if configMatches(v, v) != nil {
			t.Errorf("configMatches(%s, %s) should be reflexive", s, s)
		}
	}
}
