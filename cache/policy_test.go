package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
)

func TestDefaultPolicy(t *testing.T) {
	artifact := coordinate.Artifact{Component: id, Name: "lib", Type: "jar"}

	t.Run("version lists expire after a day", func(t *testing.T) {
		p := cache.NewDefaultPolicy()
		assert.False(t, p.VersionListExpiry(module, nil, time.Hour).MustCheck)
		assert.Equal(t, 23*time.Hour, p.VersionListExpiry(module, nil, time.Hour).KeepFor)
		assert.True(t, p.VersionListExpiry(module, nil, 25*time.Hour).MustCheck)
	})

	t.Run("regular modules never expire", func(t *testing.T) {
		p := cache.NewDefaultPolicy()
		e := p.ModuleExpiry(id, 1000*time.Hour)
		assert.False(t, e.MustCheck)
		assert.Equal(t, cache.Forever, e.KeepFor)
	})

	t.Run("changing and missing modules expire", func(t *testing.T) {
		p := cache.NewDefaultPolicy()
		assert.True(t, p.ChangingModuleExpiry(id, 25*time.Hour).MustCheck)
		assert.True(t, p.MissingModuleExpiry(id, 25*time.Hour).MustCheck)
		assert.False(t, p.MissingModuleExpiry(id, time.Hour).MustCheck)
	})

	t.Run("artifacts", func(t *testing.T) {
		p := cache.NewDefaultPolicy()
		assert.False(t, p.ArtifactExpiry(artifact, "/file", 1000*time.Hour, false, true).MustCheck)
		assert.True(t, p.ArtifactExpiry(artifact, "/file", 0, false, false).MustCheck, "descriptor changed")
		assert.True(t, p.ArtifactExpiry(artifact, "/file", 25*time.Hour, true, true).MustCheck)
		assert.True(t, p.ArtifactExpiry(artifact, "", 25*time.Hour, false, true).MustCheck, "missing artifacts")
		assert.True(t, p.ModuleArtifactsExpiry(id, nil, 0, true, false).MustCheck)
		assert.False(t, p.ModuleArtifactsExpiry(id, nil, time.Hour, true, true).MustCheck)
	})

	t.Run("refresh only accepts entries of the current session", func(t *testing.T) {
		p := cache.NewDefaultPolicy()
		p.Refresh = true
		assert.False(t, p.ModuleExpiry(id, 0).MustCheck)
		assert.True(t, p.ModuleExpiry(id, time.Second).MustCheck)
		assert.True(t, p.VersionListExpiry(module, nil, time.Second).MustCheck)
	})

	t.Run("offline accepts everything", func(t *testing.T) {
		p := cache.NewDefaultPolicy()
		p.Offline = true
		assert.False(t, p.VersionListExpiry(module, nil, 1000*time.Hour).MustCheck)
		assert.False(t, p.ArtifactExpiry(artifact, "/file", 1000*time.Hour, true, false).MustCheck)
	})
}
