package coordinate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/coordinate"
)

func TestParseComponent(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		expected coordinate.Component
		err      assert.ErrorAssertionFunc
	}{
		{
			name:     "valid",
			in:       "com.x:lib:1.0",
			expected: coordinate.NewComponent("com.x", "lib", "1.0"),
			err:      assert.NoError,
		},
		{name: "missing version", in: "com.x:lib", err: assert.Error},
		{name: "empty version", in: "com.x:lib:", err: assert.Error},
		{name: "empty group", in: ":lib:1.0", err: assert.Error},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := coordinate.ParseComponent(tc.in)
			if !tc.err(t, err) {
				return
			}
			if err == nil {
				assert.Equal(t, tc.expected, c)
				assert.Equal(t, tc.in, c.String())
			}
		})
	}
}

func TestParseSelector(t *testing.T) {
	s, err := coordinate.ParseSelector("com.x:lib:[1.0,2.0)")
	require.NoError(t, err)
	assert.Equal(t, coordinate.NewModule("com.x", "lib"), s.Module)
	assert.Equal(t, "[1.0,2.0)", s.Version)

	_, err = coordinate.ParseSelector("com.x:lib")
	assert.Error(t, err)
}

func TestArtifactFileName(t *testing.T) {
	a := coordinate.Artifact{
		Component:  coordinate.NewComponent("com.x", "lib", "1.0"),
		Name:       "lib",
		Type:       "jar",
		Classifier: "sources",
	}
	assert.Equal(t, "lib-1.0-sources.jar", a.FileName())

	a.Extension = "zip"
	a.Classifier = ""
	assert.Equal(t, "lib-1.0.zip", a.FileName())
}
