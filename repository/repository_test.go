package repository_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/repository"
)

func TestResult(t *testing.T) {
	r := repository.Listed([]string{"1.0"})
	assert.True(t, r.HasResult())
	assert.True(t, r.Found())
	assert.Equal(t, repository.StateListed, r.State())
	assert.False(t, r.Authoritative())

	authoritative := r.WithAuthoritative(true).WithAttempted("a", "b")
	assert.True(t, authoritative.Authoritative())
	assert.Equal(t, []string{"a", "b"}, authoritative.Attempted())
	assert.False(t, r.Authoritative(), "copies do not modify the original")
	assert.Empty(t, r.Attempted())

	assert.False(t, repository.Unknown[string]().HasResult())
	missing := repository.Missing[string]()
	assert.True(t, missing.HasResult())
	assert.False(t, missing.Found())

	cause := errors.New("boom")
	failed := repository.Failed[string](cause)
	assert.Equal(t, repository.StateFailed, failed.State())
	assert.ErrorIs(t, failed.Err(), cause)
	assert.Equal(t, "Failed: boom", failed.String())
}

type marker struct {
	repository.Repository
}

type wrapper struct {
	repository.Repository
	inner repository.Repository
}

func (w wrapper) Unwrap() repository.Repository { return w.inner }

func TestFind(t *testing.T) {
	base := repository.New("id", "name", repository.UnknownAccess{}, repository.UnknownAccess{})
	inner := marker{Repository: base}
	outer := wrapper{Repository: inner, inner: inner}

	found, ok := repository.Find[marker](outer)
	require.True(t, ok)
	assert.Equal(t, "id", found.ID())

	_, ok = repository.Find[wrapper](base)
	assert.False(t, ok)
}

func TestErrors(t *testing.T) {
	status := &repository.HTTPStatusError{URL: "https://example.com/x", StatusCode: 503}
	assert.True(t, status.IsServerError())
	assert.Contains(t, status.Error(), "Service Unavailable")

	disabled := &repository.DisabledError{Repository: "repo", Cause: status}
	var target *repository.HTTPStatusError
	require.ErrorAs(t, disabled, &target)
	assert.Equal(t, 503, target.StatusCode)
	assert.Contains(t, disabled.Error(), "skipped repository repo due to earlier error")
}
