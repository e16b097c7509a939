package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/krisalay/page-cache/types"
)

// HTTPError captures an unexpected status code and the response body.
// It is only returned by a Strict fetcher.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status code: %d, body: %s", e.URL, e.StatusCode, string(e.Body))
}

// userAgentRoundTripper adds a User-Agent header to every request.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Options configures a Fetcher. The zero value fetches like a bare
// http.Get: no timeout, no auth, any status accepted.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// Token, when set, is sent as an OAuth2 bearer token.
	Token string
	// Strict turns non-2xx responses into *HTTPError.
	Strict bool
}

// Fetcher downloads pages over HTTP and hands them to the cache as producers.
type Fetcher struct {
	client *http.Client
	strict bool
}

// New builds a Fetcher on top of base. base may be nil.
func New(base *http.Client, opts Options) *Fetcher {
	if base == nil {
		base = &http.Client{}
	}
	client := *base

	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.UserAgent != "" {
		transport = &userAgentRoundTripper{
			Wrapped:   transport,
			UserAgent: opts.UserAgent,
		}
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   transport,
		}
	}
	client.Transport = transport
	client.Timeout = opts.Timeout

	return &Fetcher{
		client: &client,
		strict: opts.Strict,
	}
}

// Get downloads url and returns the body as text.
func (f *Fetcher) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	if f.strict && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return "", &HTTPError{URL: url, StatusCode: resp.StatusCode, Body: body}
	}
	return string(body), nil
}

// Page returns a Producer that fetches url.
func (f *Fetcher) Page(url string) types.Producer {
	return func(ctx context.Context) (string, error) {
		return f.Get(ctx, url)
	}
}
