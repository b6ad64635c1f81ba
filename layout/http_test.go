package layout_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/layout"
	"ocm.software/open-component-model/resolution/repository"
)

type server struct {
	mu         sync.Mutex
	files      map[string]string
	status     map[string]int
	userAgents []string
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAgents = append(s.userAgents, r.UserAgent())
	if status, ok := s.status[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}
	content, ok := s.files[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(content))
}

func TestHTTPTransport(t *testing.T) {
	s := &server{
		files: map[string]string{
			"/maven/com/x/lib/versions.yaml":       "versions: [\"1.0\"]\n",
			"/maven/com/x/lib/1.0/descriptor.yaml": "status: release\n",
			"/maven/com/x/lib/1.0/lib-1.0.jar":     "classes",
		},
		status: map[string]int{
			"/maven/com/x/denied/versions.yaml": http.StatusUnauthorized,
			"/maven/com/x/broken/versions.yaml": http.StatusServiceUnavailable,
		},
	}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	transport, err := layout.NewHTTPTransport(srv.URL+"/maven",
		layout.WithHTTPClient(&http.Client{Transport: http.DefaultTransport}),
		layout.WithUserAgent("resolution-test"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/maven/com/x/lib/versions.yaml", transport.Location("com/x/lib/versions.yaml"))

	fsys := memoryfs.New()
	repo := layout.New("http-1", "http", transport, cache.NewFileStore(fsys, "/cache"))
	ctx := t.Context()
	list := func(name string) repository.VersionListResult {
		return repo.Remote().ListModuleVersions(ctx, coordinate.Selector{Module: coordinate.NewModule("com.x", name), Version: "1.+"}, repository.Override{})
	}

	result := list("lib")
	require.Equal(t, repository.StateListed, result.State())
	assert.Equal(t, []string{"1.0"}, result.Value())

	assert.Equal(t, repository.StateMissing, list("other").State())

	denied := list("denied")
	require.Equal(t, repository.StateFailed, denied.State())
	var statusErr *repository.HTTPStatusError
	require.ErrorAs(t, denied.Err(), &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)

	broken := list("broken")
	require.ErrorAs(t, broken.Err(), &statusErr)
	assert.True(t, statusErr.IsServerError())

	m := repo.Remote().ResolveComponentMetadata(ctx, coordinate.NewComponent("com.x", "lib", "1.0"), repository.Override{})
	require.Equal(t, repository.StateResolved, m.State())
	file := repo.Remote().ResolveArtifact(ctx, m.Value().ComponentArtifacts("jar")[0], m.Value().Sources)
	require.Equal(t, repository.StateResolved, file.State())
	data, err := vfs.ReadFile(fsys, file.Value())
	require.NoError(t, err)
	assert.Equal(t, "classes", string(data))

	assert.Equal(t, repository.CostExpensive, repo.Remote().EstimateMetadataFetchingCost(ctx, m.Value().ID))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ua := range s.userAgents {
		assert.Equal(t, "resolution-test", ua)
	}
}

func TestInvalidHTTPTransport(t *testing.T) {
	_, err := layout.NewHTTPTransport("ftp://example.com/repo")
	assert.ErrorContains(t, err, "unsupported scheme")
	_, err = layout.NewHTTPTransport("://")
	assert.Error(t, err)
}
