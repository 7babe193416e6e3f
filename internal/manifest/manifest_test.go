package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.2", "1.10", 1}, // lexicographic, not numeric: "2" > "10"
		{"1.0", "1.0.1", -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CompareVersions(c.a, c.b), "%s vs %s", c.a, c.b)
	}
}

func TestDependencyKeyFeatures(t *testing.T) {
	k := DependencyKey("http|https")
	assert.Equal(t, []FeatureKey{"http", "https"}, k.Features())
	assert.True(t, k.Contains("https"))
	assert.False(t, k.Contains("ftp"))
}

func TestValidateSingleRejectsBadEditorPort(t *testing.T) {
	s := &Single{
		AppKey: AppKey{Name: "tech.flecs.app", Version: "1.0.0"},
		Image:  "registry/app:1.0",
		Editors: []Editor{
			{Name: "E", Port: 99999},
		},
	}
	err := Validate(s)
	require.Error(t, err)
}

func TestValidateSingleAcceptsWellFormed(t *testing.T) {
	s := &Single{
		AppKey: AppKey{Name: "tech.flecs.app", Version: "1.0.0"},
		Image:  "registry/app:1.0",
		Editors: []Editor{
			{Name: "E", Port: 8080, SupportsReverseProxy: true},
		},
		ConfigFiles: []ConfigFile{
			{HostPath: "etc/app.conf", ContainerPath: "/etc/app.conf"},
		},
		Depends: map[DependencyKey]DependencyConfig{
			"http": {One: json.RawMessage(`{"port":80}`)},
		},
	}
	assert.NoError(t, Validate(s))
}

func TestValidateRejectsEmptyFeatureInDependencyKey(t *testing.T) {
	s := &Single{
		AppKey: AppKey{Name: "tech.flecs.app", Version: "1.0.0"},
		Image:  "registry/app:1.0",
		Depends: map[DependencyKey]DependencyConfig{
			"http|": {One: json.RawMessage(`{}`)},
		},
	}
	assert.Error(t, Validate(s))
}

func TestValidateMultiRequiresComposeDocument(t *testing.T) {
	m := &Multi{AppKey: AppKey{Name: "tech.flecs.stack", Version: "2.0.0"}}
	assert.Error(t, Validate(m))

	m.ComposeYAML = "services:\n  app:\n    image: registry/app:1.0\n"
	assert.NoError(t, Validate(m))
}

func TestDependencyConfigForFeature(t *testing.T) {
	d := DependencyConfig{OneOf: map[FeatureKey]json.RawMessage{
		"http":  json.RawMessage(`{"port":80}`),
		"https": json.RawMessage(`{"port":443}`),
	}}
	assert.JSONEq(t, `{"port":80}`, string(d.ForFeature("http")))
	assert.Nil(t, d.ForFeature("ftp"))

	single := DependencyConfig{One: json.RawMessage(`{"port":80}`)}
	assert.JSONEq(t, `{"port":80}`, string(single.ForFeature("anything")))
}
