package verification_test

import (
	"strings"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/verification"
)

func TestDigestVerifier(t *testing.T) {
	files := cache.NewFileStore(memoryfs.New(), "/files")
	file, err := files.Put("com.x/lib/1.0/lib-1.0.jar", strings.NewReader("content"))
	require.NoError(t, err)
	id := coordinate.Artifact{Component: coordinate.NewComponent("com.x", "lib", "1.0"), Name: "lib", Type: "jar"}

	tests := []struct {
		name     string
		digest   string
		strict   bool
		rejected bool
	}{
		{name: "matching sha256", digest: digest.FromString("content").String()},
		{name: "matching sha512", digest: digest.SHA512.FromString("content").String()},
		{name: "mismatch", digest: digest.FromString("other").String(), rejected: true},
		{name: "invalid digest", digest: "sha256:xyz", rejected: true},
		{name: "no digest"},
		{name: "no digest strict", strict: true, rejected: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := verification.NewDigestVerifier(files)
			v.Strict = tt.strict
			err := v.Verify(t.Context(), metadata.ComponentArtifact{ID: id, Digest: tt.digest}, file, nil)
			if !tt.rejected {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, repository.ErrVerification)
			var verr *verification.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, id, verr.Artifact)
		})
	}
}

func TestDigestVerifierMissingFile(t *testing.T) {
	v := verification.NewDigestVerifier(cache.NewFileStore(memoryfs.New(), "/files"))
	err := v.Verify(t.Context(), metadata.ComponentArtifact{Digest: digest.FromString("x").String()}, "/files/none", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrVerification)
}
