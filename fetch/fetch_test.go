package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/page-cache"
	"github.com/krisalay/page-cache/fetch"
)

func TestFetcherSendsUserAgentAndToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestUserAgent" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "wrong user-agent")
			return
		}
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "hello world")
	}))
	defer ts.Close()

	f := fetch.New(nil, fetch.Options{UserAgent: "TestUserAgent", Token: "s3cret", Strict: true})

	body, err := f.Get(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello world", body)
}

func TestFetcherLenientByDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "try later")
	}))
	defer ts.Close()

	body, err := fetch.New(nil, fetch.Options{}).Get(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "try later", body)
}

func TestFetcherStrictReturnsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "gone")
	}))
	defer ts.Close()

	_, err := fetch.New(nil, fetch.Options{Strict: true}).Get(context.Background(), ts.URL)

	var httpErr *fetch.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "gone", string(httpErr.Body))
}

func TestFetcherTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := fetch.New(nil, fetch.Options{}).Get(context.Background(), url)
	assert.Error(t, err)
}

func TestFetcherDoesNotMutateBaseClient(t *testing.T) {
	base := &http.Client{}
	fetch.New(base, fetch.Options{UserAgent: "ua", Timeout: time.Second})

	assert.Nil(t, base.Transport)
	assert.Zero(t, base.Timeout)
}

func TestPageThroughCache(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprintf(w, "page %d", hits)
	}))
	defer ts.Close()

	f := fetch.New(nil, fetch.Options{})
	c := cache.New(time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		body, err := c.Get(ctx, ts.URL, f.Page(ts.URL))
		require.NoError(t, err)
		assert.Equal(t, "page 1", body)
	}
	assert.Equal(t, 1, hits)

	st, ok := c.Stats(ts.URL)
	require.True(t, ok)
	assert.EqualValues(t, 3, st.Count)
}
