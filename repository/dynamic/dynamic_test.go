package dynamic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/internal/repositorytest"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/repository/dynamic"
)

var (
	app10 = coordinate.NewComponent("com.x", "app", "1.0")
	lib   = coordinate.NewModule("com.x", "lib")
	util  = coordinate.NewModule("com.x", "util")
)

func TestIvyDependenciesUseDynamicConstraint(t *testing.T) {
	original := &metadata.Metadata{
		ID:  app10,
		Ivy: &metadata.IvyDescriptor{},
		Dependencies: []metadata.Dependency{
			{Selector: coordinate.Selector{Module: lib, Version: "1.3"}, DynamicConstraintVersion: "1.+"},
			{Selector: coordinate.Selector{Module: util, Version: "2.0"}},
		},
	}
	base := repositorytest.NewRepository("a")
	base.RemoteAccess.WithComponent(original)
	repo := dynamic.New(base)

	result := repo.Remote().ResolveComponentMetadata(t.Context(), app10, repository.Override{})
	require.Equal(t, repository.StateResolved, result.State())
	deps := result.Value().Dependencies
	require.Len(t, deps, 2)
	assert.Equal(t, "1.+", deps[0].Selector.Version)
	assert.Equal(t, "2.0", deps[1].Selector.Version)
	assert.Equal(t, "1.3", original.Dependencies[0].Selector.Version, "resolved metadata is not modified")
}

func TestNonIvyMetadataIsUnchanged(t *testing.T) {
	original := &metadata.Metadata{
		ID: app10,
		Dependencies: []metadata.Dependency{
			{Selector: coordinate.Selector{Module: lib, Version: "1.3"}, DynamicConstraintVersion: "1.+"},
		},
	}
	base := repositorytest.NewRepository("a")
	base.RemoteAccess.WithComponent(original)

	result := dynamic.New(base).Remote().ResolveComponentMetadata(t.Context(), app10, repository.Override{})
	require.Equal(t, repository.StateResolved, result.State())
	assert.Same(t, original, result.Value())
}
