package metadata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

func sample() *metadata.Metadata {
	return &metadata.Metadata{
		ID:         coordinate.NewComponent("com.x", "lib", "1.0"),
		Status:     "release",
		Attributes: map[string]string{"os": "linux"},
		Artifacts: []metadata.Artifact{
			{Name: "lib", Type: "jar"},
			{Name: "lib", Type: "jar", Classifier: "sources"},
			{Name: "lib", Type: "pom"},
		},
	}
}

func TestSources(t *testing.T) {
	repo := metadata.RepositorySource{RepositoryID: "a", RepositoryName: "A"}
	hash := metadata.DescriptorHashSource{Hash: digest.FromString("x")}

	sources := metadata.NewSources(repo, hash)
	assert.Equal(t, 2, sources.Len())

	found, ok := metadata.Find[metadata.RepositorySource](sources)
	require.True(t, ok)
	assert.Equal(t, "a", found.RepositoryID)

	changing := sources.With(metadata.DescriptorHashSource{Hash: hash.Hash, Changing: true})
	assert.Equal(t, 2, changing.Len(), "a source of the same kind is replaced")
	h, ok := metadata.Find[metadata.DescriptorHashSource](changing)
	require.True(t, ok)
	assert.True(t, h.Changing)

	original, _ := metadata.Find[metadata.DescriptorHashSource](sources)
	assert.False(t, original.Changing, "the original collection is not modified")

	_, ok = metadata.Find[metadata.RepositorySource](metadata.Sources{})
	assert.False(t, ok)
}

func TestMetadataCopies(t *testing.T) {
	m := sample()
	tagged := m.WithSource(metadata.RepositorySource{RepositoryID: "a"})
	assert.Zero(t, m.Sources.Len())
	assert.Equal(t, 1, tagged.Sources.Len())

	tagged.Attributes["os"] = "windows"
	assert.Equal(t, "linux", m.Attributes["os"])

	assert.True(t, m.WithChanging().Changing)
	assert.False(t, m.Changing)
}

func TestArtifacts(t *testing.T) {
	m := sample()
	jars := m.ArtifactsOfType("jar")
	assert.Len(t, jars, 2)

	id := m.ArtifactID(jars[1])
	assert.Equal(t, "lib-1.0-sources.jar", id.FileName())
	found, ok := m.FindArtifact(id)
	require.True(t, ok)
	assert.Equal(t, "sources", found.Classifier)
}

func TestDescriptorHash(t *testing.T) {
	a, err := metadata.DescriptorHash(sample())
	require.NoError(t, err)
	b, err := metadata.DescriptorHash(sample().WithSource(metadata.RepositorySource{RepositoryID: "a"}))
	require.NoError(t, err)
	assert.Equal(t, a, b, "sources are not part of the hash")

	changed := sample()
	changed.Status = "integration"
	c, err := metadata.DescriptorHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestRuleProcessor(t *testing.T) {
	ctx := t.Context()
	p := metadata.NewProcessor(metadata.Rule{
		Name: "promote",
		Apply: func(_ context.Context, m *metadata.Metadata) error {
			m.Status = "milestone"
			m.ID.Version = "changed"
			return nil
		},
	})
	m := sample()
	processed, err := p.Process(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "milestone", processed.Status)
	assert.Equal(t, "1.0", processed.ID.Version)
	assert.Equal(t, "release", m.Status)

	other := metadata.NewProcessor(metadata.Rule{Name: "promote", Params: map[string]string{"to": "x"}})
	assert.NotEqual(t, p.RulesHash(), other.RulesHash())
	assert.Equal(t, p.RulesHash(), metadata.NewProcessor(metadata.Rule{Name: "promote"}).RulesHash())

	failing := metadata.NewProcessor(metadata.Rule{
		Name:  "broken",
		Apply: func(context.Context, *metadata.Metadata) error { return errors.New("boom") },
	})
	_, err = failing.Process(ctx, m)
	assert.ErrorContains(t, err, "boom")
}

func TestComponentArtifacts(t *testing.T) {
	m := sample()
	m.Artifacts[0].Digest = "sha256:abc"
	jars := m.ComponentArtifacts("jar")
	require.Len(t, jars, 2)
	assert.Equal(t, "sha256:abc", jars[0].Digest)
	assert.Equal(t, m.ID, jars[0].ID.Component)
	assert.Len(t, m.ComponentArtifacts(""), 3)
	assert.Empty(t, m.ComponentArtifacts("zip"))
}
