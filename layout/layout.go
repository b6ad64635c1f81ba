// Package layout provides the base repository resolving components from a file layout.
//
// A layout stores the files of a module below the group path, i.e. the group with dots
// replaced by slashes, followed by the module name:
//
//	com/example/lib/versions.yaml
//	com/example/lib/1.0/descriptor.yaml
//	com/example/lib/1.0/lib-1.0.jar
//
// The layout can be read from a file system or over HTTP, see Transport.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// ModuleDir is the directory of a module within a layout.
func ModuleDir(module coordinate.Module) string {
	return path.Join(strings.ReplaceAll(module.Group, ".", "/"), module.Name)
}

// ComponentDir is the directory of a component version within a layout.
func ComponentDir(id coordinate.Component) string {
	return path.Join(ModuleDir(id.Module), id.Version)
}

// Repository is a repository without local state reading a layout through a Transport.
// Downloaded artifacts are stored in a FileStore.
type Repository struct {
	id        string
	name      string
	transport Transport
	files     *cache.FileStore
	remote    *access
}

var _ repository.Repository = (*Repository)(nil)

// New creates a repository. id must be unique for the transport location within a session.
func New(id, name string, transport Transport, files *cache.FileStore) *Repository {
	r := &Repository{id: id, name: name, transport: transport, files: files}
	r.remote = &access{Repository: r}
	return r
}

func (r *Repository) ID() string   { return r.id }
func (r *Repository) Name() string { return r.name }

// Local has no state to answer from.
func (r *Repository) Local() repository.Access  { return repository.UnknownAccess{} }
func (r *Repository) Remote() repository.Access { return r.remote }

func (r *Repository) log(ctx context.Context) *slog.Logger {
	return slogcontext.FromCtx(ctx).With(slog.String("realm", "resolution"), slog.String("repository", r.name))
}

type access struct {
	*Repository
}

func (a *access) read(ctx context.Context, file string) (data []byte, err error) {
	rc, err := a.transport.Open(ctx, file)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()
	return io.ReadAll(rc)
}

func (a *access) exists(ctx context.Context, file string) (bool, error) {
	rc, err := a.transport.Open(ctx, file)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, rc.Close()
}

func (a *access) ListModuleVersions(ctx context.Context, selector coordinate.Selector, _ repository.Override) repository.VersionListResult {
	file := path.Join(ModuleDir(selector.Module), VersionsFileName)
	location := a.transport.Location(file)

	data, err := a.read(ctx, file)
	if errors.Is(err, fs.ErrNotExist) {
		return repository.Missing[[]string]().WithAttempted(location)
	}
	if err != nil {
		return repository.Failed[[]string](fmt.Errorf("could not list versions of %s from %s: %w", selector.Module, location, err))
	}
	versions, err := DecodeVersionList(data)
	if err != nil {
		return repository.Failed[[]string](fmt.Errorf("could not list versions of %s from %s: %w", selector.Module, location, err))
	}
	a.log(ctx).DebugContext(ctx, "listed versions", slog.String("module", selector.Module.String()), slog.Int("versions", len(versions)))
	return repository.Listed(versions).WithAttempted(location)
}

func (a *access) ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override repository.Override) repository.MetadataResult {
	file := path.Join(ComponentDir(id), DescriptorFileName)
	location := a.transport.Location(file)

	data, err := a.read(ctx, file)
	if errors.Is(err, fs.ErrNotExist) {
		return a.resolveWithoutDescriptor(ctx, id, override, location)
	}
	if err != nil {
		return repository.Failed[*metadata.Metadata](fmt.Errorf("could not resolve %s from %s: %w", id, location, err))
	}
	m, err := DecodeDescriptor(id, data)
	if err != nil {
		return repository.Failed[*metadata.Metadata](fmt.Errorf("could not resolve %s from %s: %w", id, location, err))
	}
	if override.Changing {
		m.Changing = true
	}
	return repository.Resolved(m).WithAttempted(location)
}

// resolveWithoutDescriptor synthesizes metadata flagged as missing if the default
// artifact of the component exists.
func (a *access) resolveWithoutDescriptor(ctx context.Context, id coordinate.Component, override repository.Override, descriptorLocation string) repository.MetadataResult {
	artifact := defaultArtifact(id)
	file := path.Join(ComponentDir(id), (&metadata.Metadata{ID: id}).ArtifactID(artifact).FileName())
	location := a.transport.Location(file)

	ok, err := a.exists(ctx, file)
	if err != nil {
		return repository.Failed[*metadata.Metadata](fmt.Errorf("could not resolve %s from %s: %w", id, location, err))
	}
	if !ok {
		return repository.Missing[*metadata.Metadata]().WithAttempted(descriptorLocation, location)
	}
	a.log(ctx).DebugContext(ctx, "component has no descriptor", slog.String("component", id.String()))
	return repository.Resolved(&metadata.Metadata{
		ID:        id,
		Missing:   true,
		Changing:  override.Changing,
		Artifacts: []metadata.Artifact{artifact},
	}).WithAttempted(descriptorLocation, location)
}

func (a *access) ResolveArtifactsWithType(_ context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	return repository.Resolved(component.ComponentArtifacts(artifactType))
}

func (a *access) ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, _ metadata.Sources) repository.ArtifactResult {
	file := path.Join(ComponentDir(artifact.ID.Component), artifact.ID.FileName())
	location := a.transport.Location(file)

	stored, err := a.download(ctx, file)
	if errors.Is(err, fs.ErrNotExist) {
		return repository.Missing[string]().WithAttempted(location)
	}
	if err != nil {
		return repository.Failed[string](fmt.Errorf("could not download %s from %s: %w", artifact.ID.FileName(), location, err))
	}
	a.log(ctx).DebugContext(ctx, "downloaded artifact", slog.String("artifact", artifact.ID.String()), slog.String("file", stored))
	return repository.Resolved(stored).WithAttempted(location)
}

func (a *access) download(ctx context.Context, file string) (stored string, err error) {
	rc, err := a.transport.Open(ctx, file)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()
	return a.files.Put(path.Join(a.id, file), rc)
}

func (a *access) EstimateMetadataFetchingCost(context.Context, coordinate.Component) repository.Cost {
	return a.transport.Cost()
}
