package layout

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"oras.land/oras-go/v2/registry/remote/retry"

	"ocm.software/open-component-model/resolution/repository"
)

const defaultUserAgent = "OpenComponentModel"

// HTTPOptions configures an HTTPTransport.
type HTTPOptions struct {
	Client    *http.Client
	UserAgent string
}

// HTTPOption is a functional option for NewHTTPTransport.
type HTTPOption func(*HTTPOptions)

// WithHTTPClient sets the client used for requests. It replaces the retrying default client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(o *HTTPOptions) {
		o.Client = client
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(userAgent string) HTTPOption {
	return func(o *HTTPOptions) {
		o.UserAgent = userAgent
	}
}

// userAgentTransport wraps an http.RoundTripper and injects a User-Agent header.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// HTTPTransport reads a layout served below a base URL.
type HTTPTransport struct {
	base   *url.URL
	client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport for the layout at baseURL.
// Requests go through the retrying client of oras unless another client is configured.
func NewHTTPTransport(baseURL string, opts ...HTTPOption) (*HTTPTransport, error) {
	options := &HTTPOptions{}
	for _, opt := range opts {
		opt(options)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid repository url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid repository url %q: unsupported scheme %q", baseURL, base.Scheme)
	}

	baseTransport := retry.DefaultClient.Transport
	if options.Client != nil && options.Client.Transport != nil {
		baseTransport = options.Client.Transport
	}
	userAgent := defaultUserAgent
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}
	client := &http.Client{
		Transport: &userAgentTransport{
			base:      baseTransport,
			userAgent: userAgent,
		},
	}
	if options.Client != nil {
		client.Timeout = options.Client.Timeout
	}

	return &HTTPTransport{base: base, client: client}, nil
}

func (t *HTTPTransport) Location(file string) string {
	return t.base.JoinPath(strings.Split(file, "/")...).String()
}

func (t *HTTPTransport) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	location := t.Location(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", location, err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to get %s: %w", location, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", location, fs.ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_ = resp.Body.Close()
		return nil, &repository.HTTPStatusError{URL: location, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func (t *HTTPTransport) Cost() repository.Cost {
	return repository.CostExpensive
}
