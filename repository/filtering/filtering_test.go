package filtering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/internal/repositorytest"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/repository/filtering"
)

func TestBlockedModulesNeverReachDelegate(t *testing.T) {
	ctx := t.Context()
	blocked := coordinate.NewModule("com.blocked", "lib")
	base := repositorytest.NewRepository("a")
	base.LocalAccess.WithVersions(blocked, "1.0")
	base.RemoteAccess.WithVersions(blocked, "1.0")
	filter, err := filtering.NewContentDescriptor(nil, []string{"com.blocked:*"})
	require.NoError(t, err)
	repo := filtering.New(base, filter)

	for _, a := range []repository.Access{repo.Local(), repo.Remote()} {
		list := a.ListModuleVersions(ctx, coordinate.Selector{Module: blocked, Version: "1.+"}, repository.Override{})
		require.Equal(t, repository.StateListed, list.State())
		assert.Empty(t, list.Value())

		id := coordinate.Component{Module: blocked, Version: "1.0"}
		assert.Equal(t, repository.StateMissing, a.ResolveComponentMetadata(ctx, id, repository.Override{}).State())
		assert.Equal(t, repository.CostCheap, a.EstimateMetadataFetchingCost(ctx, id))

		m := &metadata.Metadata{ID: id, Artifacts: []metadata.Artifact{{Name: "lib", Type: "jar"}}}
		set := a.ResolveArtifactsWithType(ctx, m, "jar")
		require.Equal(t, repository.StateResolved, set.State())
		assert.Empty(t, set.Value())
		assert.Equal(t, repository.StateMissing, a.ResolveArtifact(ctx, m.ComponentArtifacts("jar")[0], metadata.Sources{}).State())
	}
	assert.Zero(t, base.LocalAccess.TotalCalls())
	assert.Zero(t, base.RemoteAccess.TotalCalls())
	assert.Zero(t, base.LocalAccess.Calls(repositorytest.OpEstimateCost))
}

func TestAllowedModulesAreDelegated(t *testing.T) {
	allowed := coordinate.NewModule("com.x", "lib")
	base := repositorytest.NewRepository("a")
	base.RemoteAccess.WithVersions(allowed, "1.0", "1.1")
	filter, err := filtering.NewContentDescriptor(nil, []string{"com.blocked:*"})
	require.NoError(t, err)
	repo := filtering.New(base, filter)

	list := repo.Remote().ListModuleVersions(t.Context(), coordinate.Selector{Module: allowed, Version: "1.+"}, repository.Override{})
	require.Equal(t, repository.StateListed, list.State())
	assert.ElementsMatch(t, []string{"1.0", "1.1"}, list.Value())
	assert.Equal(t, 1, base.RemoteAccess.Calls(repositorytest.OpListVersions))
}

func TestContentFilterIsDiscoverable(t *testing.T) {
	filter, err := filtering.NewContentDescriptor([]string{"com.x"}, nil)
	require.NoError(t, err)
	repo := filtering.New(repositorytest.NewRepository("a"), filter)

	found, ok := repository.ContentFilterOf(repo)
	require.True(t, ok)
	assert.Same(t, filter, found)

	_, ok = repository.ContentFilterOf(repositorytest.NewRepository("b"))
	assert.False(t, ok)

	base := repositorytest.NewRepository("c")
	assert.Same(t, repository.Repository(base), filtering.New(base, nil), "no filter, no decorator")
}

func TestContentDescriptor(t *testing.T) {
	tests := []struct {
		name               string
		includes, excludes []string
		id                 coordinate.Component
		module, component  bool
	}{
		{
			name:     "excluded module",
			excludes: []string{"com.blocked:*"},
			id:       coordinate.NewComponent("com.blocked", "lib", "1.0"),
		},
		{
			name:     "excluded group",
			excludes: []string{"com.blocked"},
			id:       coordinate.NewComponent("com.blocked", "lib", "1.0"),
		},
		{
			name:      "unrelated exclusion",
			excludes:  []string{"com.blocked:*"},
			id:        coordinate.NewComponent("com.x", "lib", "1.0"),
			module:    true,
			component: true,
		},
		{
			name:     "excluded version",
			excludes: []string{"com.x:lib:*-SNAPSHOT"},
			id:       coordinate.NewComponent("com.x", "lib", "1.0-SNAPSHOT"),
			module:   true,
		},
		{
			name:      "version exclusion does not match release",
			excludes:  []string{"com.x:lib:*-SNAPSHOT"},
			id:        coordinate.NewComponent("com.x", "lib", "1.0"),
			module:    true,
			component: true,
		},
		{
			name:      "included group glob",
			includes:  []string{"com.x*"},
			id:        coordinate.NewComponent("com.xyz", "lib", "1.0"),
			module:    true,
			component: true,
		},
		{
			name:     "not included",
			includes: []string{"com.x"},
			id:       coordinate.NewComponent("org.y", "lib", "1.0"),
		},
		{
			name:     "exclusion wins over inclusion",
			includes: []string{"com.x"},
			excludes: []string{"com.x:internal"},
			id:       coordinate.NewComponent("com.x", "internal", "1.0"),
		},
		{
			name:     "included version range",
			includes: []string{"com.x:lib:1.*"},
			id:       coordinate.NewComponent("com.x", "lib", "2.0"),
			module:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := filtering.NewContentDescriptor(tt.includes, tt.excludes)
			require.NoError(t, err)
			assert.Equal(t, tt.module, d.AllowsModule(tt.id.Module), "module")
			assert.Equal(t, tt.component, d.AllowsComponent(tt.id), "component")
		})
	}
}

func TestInvalidPatterns(t *testing.T) {
	for _, p := range []string{"", "a:b:c:d", ":lib"} {
		_, err := filtering.NewContentDescriptor([]string{p}, nil)
		assert.Error(t, err, p)
	}
}
