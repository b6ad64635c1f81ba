// Package cache implements the caches consulted by the caching repository decorator,
// together with the expiry policy deciding whether cached entries may be used.
//
// All caches are keyed by repository id so that different repositories never share
// entries. Entries record the time they were cached at; their age is computed against
// a TimeProvider at read time and passed to the Policy, entries are never invalidated
// proactively.
package cache

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/opencontainers/go-digest"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

var logger = slog.With(slog.String("realm", "resolution"))

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

// Caches bundles all caches used by the caching decorator.
type Caches struct {
	Versions  *ModuleVersionsCache
	Metadata  *ModuleMetadataCache
	Artifacts *ModuleArtifactsCache
	Files     *ArtifactCache
	FileStore *FileStore
}

// Options configures New.
type Options struct {
	// FileSystem persists cache entries and artifact files. Defaults to an in-memory file system
	// for artifact files without persisting entries.
	FileSystem vfs.FileSystem
	// Dir is the root directory of the cache within FileSystem.
	Dir string
}

// Option modifies Options.
type Option func(*Options)

// WithFileSystem persists the caches in dir on the given file system.
func WithFileSystem(fs vfs.FileSystem, dir string) Option {
	return func(o *Options) {
		o.FileSystem = fs
		o.Dir = dir
	}
}

// New creates the caches. Entries are stamped with the time of tp.
func New(tp TimeProvider, opts ...Option) *Caches {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	entriesFS := options.FileSystem
	filesFS := options.FileSystem
	dir := options.Dir
	if filesFS == nil {
		filesFS = memoryfs.New()
		dir = "/"
	}
	metadataDir := vfs.Join(filesFS, dir, "metadata")

	files := NewFileStore(filesFS, vfs.Join(filesFS, dir, "files"))
	return &Caches{
		Versions: &ModuleVersionsCache{
			time:  tp,
			store: NewStore[CachedVersionList]("versions", entriesFS, metadataDir),
		},
		Metadata: &ModuleMetadataCache{
			time:  tp,
			store: NewStore[*CachedMetadata]("descriptors", entriesFS, metadataDir),
		},
		Artifacts: &ModuleArtifactsCache{
			time:  tp,
			store: NewStore[CachedArtifacts]("artifact-sets", entriesFS, metadataDir),
		},
		Files: &ArtifactCache{
			time:  tp,
			store: NewStore[CachedArtifact]("artifacts", entriesFS, metadataDir),
			files: files,
		},
		FileStore: files,
	}
}

// CachedVersionList is a cached version listing.
type CachedVersionList struct {
	Versions []string  `json:"versions"`
	CachedAt time.Time `json:"cachedAt"`
}

// ModuleVersionsCache caches version listings per repository and module.
type ModuleVersionsCache struct {
	time  TimeProvider
	store *Store[CachedVersionList]
}

func (c *ModuleVersionsCache) Cache(repositoryID string, module coordinate.Module, versions []string) {
	c.store.Put(key(repositoryID, module.String()), CachedVersionList{
		Versions: slices.Clone(versions),
		CachedAt: c.time.Now(),
	})
}

func (c *ModuleVersionsCache) Get(repositoryID string, module coordinate.Module) (CachedVersionList, bool) {
	return c.store.Get(key(repositoryID, module.String()))
}

// CachedMetadata is a cached metadata lookup, either metadata or a missing marker.
type CachedMetadata struct {
	Metadata       *metadata.Metadata `json:"metadata,omitempty"`
	Missing        bool               `json:"missing,omitempty"`
	DescriptorHash digest.Digest      `json:"descriptorHash,omitempty"`
	CachedAt       time.Time          `json:"cachedAt"`

	// processed holds metadata with component metadata rules applied, keyed by rules hash.
	processed sync.Map
}

// ProcessedMetadata returns the metadata processed with the rules identified by rulesHash.
func (c *CachedMetadata) ProcessedMetadata(rulesHash string) (*metadata.Metadata, bool) {
	v, ok := c.processed.Load(rulesHash)
	if !ok {
		return nil, false
	}
	return v.(*metadata.Metadata), true
}

// PutProcessedMetadata memoizes metadata processed with the rules identified by rulesHash.
func (c *CachedMetadata) PutProcessedMetadata(rulesHash string, m *metadata.Metadata) {
	c.processed.Store(rulesHash, m)
}

// ModuleMetadataCache caches metadata per repository and component.
type ModuleMetadataCache struct {
	time  TimeProvider
	store *Store[*CachedMetadata]
}

// CacheMissing records that the component does not exist in the repository.
func (c *ModuleMetadataCache) CacheMissing(repositoryID string, id coordinate.Component) *CachedMetadata {
	entry := &CachedMetadata{Missing: true, CachedAt: c.time.Now()}
	c.store.Put(key(repositoryID, id.String()), entry)
	return entry
}

// CacheMetadata records metadata read from the repository. Sources are not cached,
// except for the descriptor hash.
func (c *ModuleMetadataCache) CacheMetadata(repositoryID string, id coordinate.Component, m *metadata.Metadata) *CachedMetadata {
	entry := &CachedMetadata{Metadata: m.WithSources(metadata.Sources{}), CachedAt: c.time.Now()}
	if hash, ok := metadata.Find[metadata.DescriptorHashSource](m.Sources); ok {
		entry.DescriptorHash = hash.Hash
	}
	c.store.Put(key(repositoryID, id.String()), entry)
	return entry
}

func (c *ModuleMetadataCache) Get(repositoryID string, id coordinate.Component) (*CachedMetadata, bool) {
	return c.store.Get(key(repositoryID, id.String()))
}

// CachedArtifacts is a cached artifact set of a component.
type CachedArtifacts struct {
	Artifacts      []metadata.ComponentArtifact `json:"artifacts"`
	DescriptorHash digest.Digest                `json:"descriptorHash,omitempty"`
	CachedAt       time.Time                    `json:"cachedAt"`
}

// ModuleArtifactsCache caches artifact sets per repository, component and context,
// e.g. "artifacts:sources".
type ModuleArtifactsCache struct {
	time  TimeProvider
	store *Store[CachedArtifacts]
}

func (c *ModuleArtifactsCache) Cache(repositoryID string, id coordinate.Component, context string, artifacts []metadata.ComponentArtifact, descriptorHash digest.Digest) {
	c.store.Put(key(repositoryID, id.String(), context), CachedArtifacts{
		Artifacts:      slices.Clone(artifacts),
		DescriptorHash: descriptorHash,
		CachedAt:       c.time.Now(),
	})
}

func (c *ModuleArtifactsCache) Get(repositoryID string, id coordinate.Component, context string) (CachedArtifacts, bool) {
	return c.store.Get(key(repositoryID, id.String(), context))
}

// CachedArtifact is a cached artifact lookup, either a file or a missing marker.
type CachedArtifact struct {
	File           string        `json:"file,omitempty"`
	Missing        bool          `json:"missing,omitempty"`
	Attempted      []string      `json:"attempted,omitempty"`
	DescriptorHash digest.Digest `json:"descriptorHash,omitempty"`
	CachedAt       time.Time     `json:"cachedAt"`
}

// ArtifactCache caches artifact files per repository and artifact.
type ArtifactCache struct {
	time  TimeProvider
	store *Store[CachedArtifact]
	files *FileStore
}

func artifactKey(repositoryID string, id coordinate.Artifact) string {
	return key(repositoryID, id.Component.String(), id.Name, id.Type, id.Extension, id.Classifier)
}

// Store records the location of a fetched artifact.
func (c *ArtifactCache) Store(repositoryID string, id coordinate.Artifact, file string, descriptorHash digest.Digest) {
	c.store.Put(artifactKey(repositoryID, id), CachedArtifact{
		File:           file,
		DescriptorHash: descriptorHash,
		CachedAt:       c.time.Now(),
	})
}

// StoreMissing records that the artifact does not exist in the repository.
func (c *ArtifactCache) StoreMissing(repositoryID string, id coordinate.Artifact, attempted []string, descriptorHash digest.Digest) {
	c.store.Put(artifactKey(repositoryID, id), CachedArtifact{
		Missing:        true,
		Attempted:      slices.Clone(attempted),
		DescriptorHash: descriptorHash,
		CachedAt:       c.time.Now(),
	})
}

// Get returns the cached lookup. Entries whose file disappeared from the file store are ignored.
func (c *ArtifactCache) Get(repositoryID string, id coordinate.Artifact) (CachedArtifact, bool) {
	entry, ok := c.store.Get(artifactKey(repositoryID, id))
	if !ok {
		return entry, false
	}
	if !entry.Missing && !c.files.Exists(entry.File) {
		return CachedArtifact{}, false
	}
	return entry, true
}
