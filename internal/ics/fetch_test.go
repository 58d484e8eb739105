package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedServer serves sampleICS with an ETag and answers 304 when the client
// presents it. Setting failing makes every request return 500.
type feedServer struct {
	hits    atomic.Int32
	failing atomic.Bool
}

func (s *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	if s.failing.Load() {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	if r.Header.Get("If-None-Match") == `"v1"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", `"v1"`)
	w.Header().Set("Content-Type", "text/calendar")
	_, _ = w.Write([]byte(sampleICS))
}

func TestFetchOne_CachesWithETag(t *testing.T) {
	feed := &feedServer{}
	srv := httptest.NewServer(feed)
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "work", URL: srv.URL + "/work.ics"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, sampleICS, string(first.Body))

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "304 is served from cache")
	assert.Equal(t, first.Body, second.Body)

	feed.failing.Store(true)
	third, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, third.FromCache, "origin failure falls back to cache")
	assert.Equal(t, int32(3), feed.hits.Load())
}

func TestFetchOne_FailsWithoutCache(t *testing.T) {
	feed := &feedServer{}
	feed.failing.Store(true)
	srv := httptest.NewServer(feed)
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	_, err := f.FetchOne(context.Background(), Source{ID: "x", URL: srv.URL})
	assert.Error(t, err)

	_, err = f.FetchOne(context.Background(), Source{ID: "empty"})
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestFetchOne_NotModifiedWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	_, err := NewFetcher(t.TempDir()).FetchOne(context.Background(), Source{ID: "x", URL: srv.URL})
	assert.ErrorIs(t, err, ErrNotModifiedWithoutCache)
}

func TestFetchAll_KeepsOrderAndCollectsErrors(t *testing.T) {
	good := httptest.NewServer(&feedServer{})
	defer good.Close()
	bad := &feedServer{}
	bad.failing.Store(true)
	badSrv := httptest.NewServer(bad)
	defer badSrv.Close()

	sources := []Source{
		{ID: "a", URL: good.URL + "/a.ics"},
		{ID: "broken", URL: badSrv.URL},
		{ID: "b", URL: good.URL + "/b.ics"},
	}

	results, errs := NewFetcher(t.TempDir()).FetchAll(context.Background(), sources)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Source.ID)
	assert.Equal(t, "b", results[1].Source.ID)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "broken")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/cal.ics?token=abc"))
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com?token=abc"))
	assert.Equal(t, "ics://...(redacted)", redactURL("no-scheme"))
}
