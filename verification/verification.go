// Package verification contains the verifiers checking downloaded artifacts before they
// are handed out.
package verification

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// SignatureSupplier lazily fetches the signature file of an artifact.
// It returns false if the artifact is not signed.
type SignatureSupplier func(ctx context.Context) (file string, ok bool)

// Verifier approves or rejects an artifact file.
type Verifier interface {
	Verify(ctx context.Context, artifact metadata.ComponentArtifact, file string, signature SignatureSupplier) error
}

// VerifierFunc adapts a function to a Verifier.
type VerifierFunc func(ctx context.Context, artifact metadata.ComponentArtifact, file string, signature SignatureSupplier) error

func (f VerifierFunc) Verify(ctx context.Context, artifact metadata.ComponentArtifact, file string, signature SignatureSupplier) error {
	return f(ctx, artifact, file, signature)
}

// Error is returned for rejected artifacts. It matches repository.ErrVerification.
type Error struct {
	Artifact coordinate.Artifact
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("verification of %s failed: %s", e.Artifact, e.Reason)
}

func (e *Error) Is(target error) bool { return target == repository.ErrVerification }

// DigestVerifier compares the digest of the file with the digest recorded for the
// artifact in the component metadata.
type DigestVerifier struct {
	files *cache.FileStore
	// Strict rejects artifacts without a recorded digest.
	Strict bool
}

var _ Verifier = (*DigestVerifier)(nil)

// NewDigestVerifier creates a verifier reading files from the given store.
func NewDigestVerifier(files *cache.FileStore) *DigestVerifier {
	return &DigestVerifier{files: files}
}

func (v *DigestVerifier) Verify(_ context.Context, artifact metadata.ComponentArtifact, file string, _ SignatureSupplier) error {
	if artifact.Digest == "" {
		if v.Strict {
			return &Error{Artifact: artifact.ID, Reason: "no digest recorded in component metadata"}
		}
		return nil
	}
	expected, err := digest.Parse(artifact.Digest)
	if err != nil {
		return &Error{Artifact: artifact.ID, Reason: fmt.Sprintf("invalid digest %q: %v", artifact.Digest, err)}
	}
	f, err := v.files.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s for verification: %w", file, err)
	}
	defer f.Close()
	actual, err := expected.Algorithm().FromReader(f)
	if err != nil {
		return fmt.Errorf("failed to compute digest of %s: %w", file, err)
	}
	if actual != expected {
		return &Error{Artifact: artifact.ID, Reason: fmt.Sprintf("expected digest %s but got %s", expected, actual)}
	}
	return nil
}
