package layout_test

import (
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/layout"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

const descriptor = `
status: release
attributes:
  org.gradle.usage: java-api
dependencies:
- component: com.x:core:1.0
  dynamicConstraintVersion: 1.+
artifacts:
- name: lib
  type: jar
- name: lib
  type: jar
  classifier: sources
ivy:
  branch: main
`

func newLayout(t *testing.T, files map[string]string) (*layout.Repository, *cache.FileStore) {
	t.Helper()
	fsys := memoryfs.New()
	for name, content := range files {
		file := vfs.Join(fsys, "/repo", name)
		require.NoError(t, fsys.MkdirAll(vfs.Dir(fsys, file), 0o755))
		require.NoError(t, vfs.WriteFile(fsys, file, []byte(content), 0o644))
	}
	store := cache.NewFileStore(fsys, "/cache")
	return layout.New("repo-1", "repo", layout.NewFileSystemTransport(fsys, "/repo"), store), store
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "com/x/lib", layout.ModuleDir(coordinate.NewModule("com.x", "lib")))
	assert.Equal(t, "com/x/lib/1.0", layout.ComponentDir(coordinate.NewComponent("com.x", "lib", "1.0")))
}

func TestListModuleVersions(t *testing.T) {
	repo, _ := newLayout(t, map[string]string{
		"com/x/lib/versions.yaml":   "versions: [\"1.0\", \"1.1\"]\n",
		"com/x/empty/versions.yaml": "{}\n",
		"com/x/bad/versions.yaml":   "versions: {\n",
	})
	ctx := t.Context()
	list := func(module string) repository.VersionListResult {
		m, err := coordinate.ParseModule(module)
		require.NoError(t, err)
		return repo.Remote().ListModuleVersions(ctx, coordinate.Selector{Module: m, Version: "1.+"}, repository.Override{})
	}

	result := list("com.x:lib")
	require.Equal(t, repository.StateListed, result.State())
	assert.Equal(t, []string{"1.0", "1.1"}, result.Value())

	result = list("com.x:empty")
	require.Equal(t, repository.StateListed, result.State())
	assert.Empty(t, result.Value())

	result = list("com.x:other")
	require.Equal(t, repository.StateMissing, result.State())
	assert.Equal(t, []string{"/repo/com/x/other/versions.yaml"}, result.Attempted())

	assert.Equal(t, repository.StateFailed, list("com.x:bad").State())

	assert.Equal(t, repository.StateUnknown, repo.Local().ListModuleVersions(ctx, coordinate.Selector{}, repository.Override{}).State())
}

func TestResolveComponentMetadata(t *testing.T) {
	repo, _ := newLayout(t, map[string]string{
		"com/x/lib/1.0/descriptor.yaml": descriptor,
		"com/x/lib/1.1/lib-1.1.jar":     "jar",
		"com/x/lib/1.2/descriptor.yaml": "dependencies:\n- component: invalid\n",
	})
	ctx := t.Context()

	result := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "1.0"), repository.Override{})
	require.Equal(t, repository.StateResolved, result.State())
	m := result.Value()
	assert.Equal(t, "release", m.Status)
	assert.False(t, m.Missing)
	assert.False(t, m.Changing)
	assert.Equal(t, map[string]string{"org.gradle.usage": "java-api"}, m.Attributes)
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, "com.x:core:1.0", m.Dependencies[0].Selector.String())
	assert.Equal(t, "1.+", m.Dependencies[0].DynamicConstraintVersion)
	assert.Len(t, m.Artifacts, 2)
	require.NotNil(t, m.Ivy)
	assert.Equal(t, "main", m.Ivy.Branch)

	changing := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "1.0"), repository.Override{Changing: true})
	assert.True(t, changing.Value().Changing)

	t.Run("without descriptor", func(t *testing.T) {
		result := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "1.1"), repository.Override{})
		require.Equal(t, repository.StateResolved, result.State())
		assert.True(t, result.Value().Missing)
		assert.Equal(t, []metadata.Artifact{{Name: "lib", Type: "jar"}}, result.Value().Artifacts)
	})

	t.Run("missing", func(t *testing.T) {
		result := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "2.0"), repository.Override{})
		require.Equal(t, repository.StateMissing, result.State())
		assert.Equal(t, []string{"/repo/com/x/lib/2.0/descriptor.yaml", "/repo/com/x/lib/2.0/lib-2.0.jar"}, result.Attempted())
	})

	t.Run("invalid", func(t *testing.T) {
		result := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "1.2"), repository.Override{})
		require.Equal(t, repository.StateFailed, result.State())
		assert.ErrorContains(t, result.Err(), "invalid dependency 0 of com.x:lib:1.2")
	})
}

func TestResolveArtifact(t *testing.T) {
	repo, store := newLayout(t, map[string]string{
		"com/x/lib/1.0/descriptor.yaml":     descriptor,
		"com/x/lib/1.0/lib-1.0.jar":         "classes",
		"com/x/lib/1.0/lib-1.0-sources.jar": "sources",
	})
	ctx := t.Context()
	m := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "1.0"), repository.Override{}).Value()

	set := repo.Remote().ResolveArtifactsWithType(ctx, m, "jar")
	require.Equal(t, repository.StateResolved, set.State())
	require.Len(t, set.Value(), 2)

	for i, content := range []string{"classes", "sources"} {
		result := repo.Remote().ResolveArtifact(ctx, set.Value()[i], m.Sources)
		require.Equal(t, repository.StateResolved, result.State())
		assert.True(t, store.Exists(result.Value()))
		data, err := vfs.ReadFile(store.FileSystem(), result.Value())
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}

	absent := metadata.ComponentArtifact{ID: m.ArtifactID(metadata.Artifact{Name: "lib", Type: "pom"})}
	result := repo.Remote().ResolveArtifact(ctx, absent, m.Sources)
	require.Equal(t, repository.StateMissing, result.State())
	assert.Equal(t, []string{"/repo/com/x/lib/1.0/lib-1.0.pom"}, result.Attempted())

	assert.Equal(t, repository.CostCheap, repo.Remote().EstimateMetadataFetchingCost(ctx, m.ID))
}
