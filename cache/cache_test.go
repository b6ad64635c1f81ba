package cache_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

var (
	start  = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	module = coordinate.NewModule("com.x", "lib")
	id     = coordinate.NewComponent("com.x", "lib", "1.0")
)

func TestAge(t *testing.T) {
	tp := cache.NewBuildCommenced(start)
	assert.Zero(t, cache.Age(tp, start))
	assert.Equal(t, time.Hour, cache.Age(tp, start.Add(-time.Hour)))
	assert.Zero(t, cache.Age(tp, start.Add(time.Hour)), "age is never negative")
}

func TestPersistentCachesSurviveSessions(t *testing.T) {
	fs := memoryfs.New()

	first := cache.New(cache.NewBuildCommenced(start), cache.WithFileSystem(fs, "/cache"))
	first.Versions.Cache("repo", module, []string{"1.0", "1.1"})
	m := &metadata.Metadata{ID: id, Status: "release"}
	m = m.WithSource(metadata.DescriptorHashSource{Hash: digest.FromString("descriptor")})
	first.Metadata.CacheMetadata("repo", id, m)
	first.Metadata.CacheMissing("repo", coordinate.NewComponent("com.x", "lib", "2.0"))

	file, err := first.FileStore.Put("repo/com.x/lib/1.0/lib-1.0.jar", strings.NewReader("content"))
	require.NoError(t, err)
	artifactID := coordinate.Artifact{Component: id, Name: "lib", Type: "jar"}
	first.Files.Store("repo", artifactID, file, digest.FromString("descriptor"))

	later := start.Add(2 * time.Hour)
	second := cache.New(cache.NewBuildCommenced(later), cache.WithFileSystem(fs, "/cache"))

	versions, ok := second.Versions.Get("repo", module)
	require.True(t, ok)
	assert.Equal(t, []string{"1.0", "1.1"}, versions.Versions)
	assert.Equal(t, 2*time.Hour, cache.Age(cache.NewBuildCommenced(later), versions.CachedAt))

	_, ok = second.Versions.Get("other", module)
	assert.False(t, ok, "entries are scoped by repository")

	cached, ok := second.Metadata.Get("repo", id)
	require.True(t, ok)
	assert.Equal(t, "release", cached.Metadata.Status)
	assert.Equal(t, digest.FromString("descriptor"), cached.DescriptorHash)
	assert.Zero(t, cached.Metadata.Sources.Len())

	missing, ok := second.Metadata.Get("repo", coordinate.NewComponent("com.x", "lib", "2.0"))
	require.True(t, ok)
	assert.True(t, missing.Missing)

	artifactEntry, ok := second.Files.Get("repo", artifactID)
	require.True(t, ok)
	assert.Equal(t, file, artifactEntry.File)
}

func TestArtifactCacheIgnoresVanishedFiles(t *testing.T) {
	caches := cache.New(cache.NewBuildCommenced(start))
	artifactID := coordinate.Artifact{Component: id, Name: "lib", Type: "jar"}

	caches.Files.Store("repo", artifactID, "/does/not/exist", "")
	_, ok := caches.Files.Get("repo", artifactID)
	assert.False(t, ok)

	caches.Files.StoreMissing("repo", artifactID, []string{"https://example.com/lib-1.0.jar"}, "")
	entry, ok := caches.Files.Get("repo", artifactID)
	require.True(t, ok)
	assert.True(t, entry.Missing)
	assert.Equal(t, []string{"https://example.com/lib-1.0.jar"}, entry.Attempted)
}

func TestProcessedMetadata(t *testing.T) {
	caches := cache.New(cache.NewBuildCommenced(start))
	entry := caches.Metadata.CacheMetadata("repo", id, &metadata.Metadata{ID: id})

	_, ok := entry.ProcessedMetadata("hash")
	assert.False(t, ok)
	processed := &metadata.Metadata{ID: id, Status: "milestone"}
	entry.PutProcessedMetadata("hash", processed)

	again, ok := caches.Metadata.Get("repo", id)
	require.True(t, ok)
	got, ok := again.ProcessedMetadata("hash")
	require.True(t, ok)
	assert.Same(t, processed, got)
}
