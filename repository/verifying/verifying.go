// Package verifying provides the repository decorator running resolved artifacts
// through a verifier before they are handed out.
package verifying

import (
	"context"
	"log/slog"
	"sync"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/verification"
)

// SignatureExtension is appended to the extension of an artifact to find its signature.
const SignatureExtension = "asc"

// Repository is the verifying decorator.
type Repository struct {
	delegate repository.Repository
	local    *access
	remote   *access
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Wrapper    = (*Repository)(nil)
)

// New wraps delegate. A nil verifier returns delegate unchanged.
func New(delegate repository.Repository, verifier verification.Verifier) repository.Repository {
	if verifier == nil {
		return delegate
	}
	r := &Repository{delegate: delegate}
	r.local = &access{Access: delegate.Local(), repo: delegate, verifier: verifier}
	r.remote = &access{Access: delegate.Remote(), repo: delegate, verifier: verifier}
	return r
}

func (r *Repository) ID() string                    { return r.delegate.ID() }
func (r *Repository) Name() string                  { return r.delegate.Name() }
func (r *Repository) Local() repository.Access      { return r.local }
func (r *Repository) Remote() repository.Access     { return r.remote }
func (r *Repository) Unwrap() repository.Repository { return r.delegate }

type access struct {
	repository.Access
	repo     repository.Repository
	verifier verification.Verifier
}

func (a *access) ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, sources metadata.Sources) repository.ArtifactResult {
	result := a.Access.ResolveArtifact(ctx, artifact, sources)
	if result.State() != repository.StateResolved {
		return result
	}
	if err := a.verifier.Verify(ctx, artifact, result.Value(), a.signature(artifact, sources)); err != nil {
		slogcontext.FromCtx(ctx).WarnContext(ctx, "artifact rejected",
			slog.String("realm", "resolution"),
			slog.String("repository", a.repo.Name()),
			slog.String("artifact", artifact.ID.String()),
			slog.String("error", err.Error()))
		return repository.Failed[string](err).WithAttempted(result.Attempted()...)
	}
	return result
}

// signature resolves the signature of artifact at most once, and only when asked for.
func (a *access) signature(artifact metadata.ComponentArtifact, sources metadata.Sources) verification.SignatureSupplier {
	var (
		once sync.Once
		file string
		ok   bool
	)
	return func(ctx context.Context) (string, bool) {
		once.Do(func() {
			result := a.Access.ResolveArtifact(ctx, SignatureOf(artifact), sources)
			if result.State() == repository.StateResolved {
				file, ok = result.Value(), true
			}
		})
		return file, ok
	}
}

// SignatureOf returns the signature artifact belonging to artifact.
func SignatureOf(artifact metadata.ComponentArtifact) metadata.ComponentArtifact {
	id := artifact.ID
	ext := id.Extension
	if ext == "" {
		ext = id.Type
	}
	return metadata.ComponentArtifact{ID: coordinate.Artifact{
		Component:  id.Component,
		Name:       id.Name,
		Type:       SignatureExtension,
		Extension:  ext + "." + SignatureExtension,
		Classifier: id.Classifier,
	}}
}
