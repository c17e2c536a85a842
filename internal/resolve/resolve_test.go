// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexdef-engine/internal/httputil"
	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// pageServer serves fixed bodies by path and counts requests per path.
type pageServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls map[string]int
}

func newPageServer(t *testing.T, pages map[string]string) *pageServer {
	t.Helper()
	ps := &pageServer{calls: make(map[string]int)}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.calls[r.URL.Path]++
		ps.mu.Unlock()
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *pageServer) count(path string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.calls[path]
}

func (ps *pageServer) total() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	n := 0
	for _, c := range ps.calls {
		n += c
	}
	return n
}

func (ps *pageServer) fetcher() *httputil.Fetcher {
	return httputil.NewFetcher(ps.Client(), types.HTTPConfig{Timeout: 5 * time.Second})
}

func TestURLFor(t *testing.T) {
	r := New(nil, "https://www.carpvs.com/{id}", true)
	tests := []struct {
		id   string
		want string
	}{
		{"ember", "https://www.carpvs.com/ember"},
		{"lexicon/ember", "https://www.carpvs.com/lexicon/ember"},
		{"ember stone", "https://www.carpvs.com/ember%20stone"},
		{"a?b", "https://www.carpvs.com/a%3Fb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.URLFor(tt.id), "URLFor(%q)", tt.id)
	}

	noPlaceholder := New(nil, "https://docs.example.com/", true)
	assert.Equal(t, "https://docs.example.com/ember", noPlaceholder.URLFor("ember"))
}

func TestResolve_FollowsPermalink(t *testing.T) {
	ps := newPageServer(t, map[string]string{
		"/ember":         `<html><head><link rel="canonical" href="/lexicon/ember"></head></html>`,
		"/lexicon/ember": `<html><body>canonical page</body></html>`,
	})
	r := New(ps.fetcher(), ps.URL+"/{id}", true)

	page, err := r.Resolve(context.Background(), "ember")
	require.NoError(t, err)

	assert.Equal(t, "ember", page.Location.RequestedIdentifier)
	assert.Equal(t, "lexicon/ember", page.Location.CanonicalIdentifier)
	assert.Equal(t, ps.URL+"/lexicon/ember", page.Location.SourceURL)
	assert.True(t, page.Location.Redirected())
	assert.Contains(t, page.Body, "canonical page")
	assert.Equal(t, 1, ps.count("/ember"))
	assert.Equal(t, 1, ps.count("/lexicon/ember"))
}

func TestResolve_SamePermalinkNoRefetch(t *testing.T) {
	for name, page := range map[string]string{
		"canonical link":   `<link rel="canonical" href="https://www.carpvs.com/ember/">`,
		"og url":           `<meta property="og:url" content="/ember">`,
		"script permalink": `<script>var page = {"permalink": "/ember"};</script>`,
	} {
		t.Run(name, func(t *testing.T) {
			ps := newPageServer(t, map[string]string{"/ember": page})
			r := New(ps.fetcher(), ps.URL+"/{id}", true)

			got, err := r.Resolve(context.Background(), "ember")
			require.NoError(t, err)
			assert.False(t, got.Location.Redirected())
			assert.Equal(t, ps.URL+"/ember", got.Location.SourceURL)
			assert.Equal(t, 1, ps.total(), "a permalink equal to the identifier must not trigger a second fetch")
		})
	}
}

func TestResolve_PermalinkWithoutIdentifierIgnored(t *testing.T) {
	ps := newPageServer(t, map[string]string{
		"/ember": `<link rel="canonical" href="/home">`,
	})
	r := New(ps.fetcher(), ps.URL+"/{id}", true)

	page, err := r.Resolve(context.Background(), "ember")
	require.NoError(t, err)
	assert.Equal(t, "ember", page.Location.CanonicalIdentifier)
	assert.Equal(t, 1, ps.total())
}

func TestResolve_PermalinksDisabled(t *testing.T) {
	ps := newPageServer(t, map[string]string{
		"/ember":         `<link rel="canonical" href="/lexicon/ember">`,
		"/lexicon/ember": `canonical`,
	})
	r := New(ps.fetcher(), ps.URL+"/{id}", false)

	page, err := r.Resolve(context.Background(), "ember")
	require.NoError(t, err)
	assert.Equal(t, "ember", page.Location.CanonicalIdentifier)
	assert.Equal(t, 0, ps.count("/lexicon/ember"))
}

func TestResolve_OuterFetchFailed(t *testing.T) {
	ps := newPageServer(t, map[string]string{})
	r := New(ps.fetcher(), ps.URL+"/{id}", true)

	_, err := r.Resolve(context.Background(), "ember")
	assert.Equal(t, types.OuterFetchFailed, types.KindOf(err))
}

func TestResolve_PermalinkFetchFailed(t *testing.T) {
	ps := newPageServer(t, map[string]string{
		"/ember": `<link rel="canonical" href="/renamed/ember">`,
	})
	r := New(ps.fetcher(), ps.URL+"/{id}", true)

	_, err := r.Resolve(context.Background(), "ember")
	assert.Equal(t, types.PermalinkFetchFailed, types.KindOf(err))
	assert.Equal(t, 1, ps.count("/renamed/ember"))
}

func TestFindPermalink(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		id     string
		prefix string
		want   string
		wantOK bool
	}{
		{"canonical absolute", `<link rel="canonical" href="https://host/lexicon/ember">`, "ember", "", "lexicon/ember", true},
		{"canonical rel list", `<link rel="alternate canonical" href="/a/ember">`, "ember", "", "a/ember", true},
		{"canonical first", `<meta property="og:url" content="/og/ember"><link rel="canonical" href="/canon/ember">`, "ember", "", "canon/ember", true},
		{"og fallback", `<meta property="og:url" content="/og/ember">`, "ember", "", "og/ember", true},
		{"script single quotes", `<script>permalink = '/s/ember'</script>`, "ember", "", "s/ember", true},
		{"prefix stripped", `<link rel="canonical" href="https://host/wiki/ember-v2">`, "ember", "wiki", "ember-v2", true},
		{"skips non-matching", `<link rel="canonical" href="/home"><meta property="og:url" content="/x/ember">`, "ember", "", "x/ember", true},
		{"percent-encoded canonical", `<link rel="canonical" href="https://host/caf%C3%A9-renamed">`, "café", "", "café-renamed", true},
		{"encoded space", `<meta property="og:url" content="/lexicon/red%20ember">`, "red ember", "lexicon", "red ember", true},
		{"none", `<html><body>no declaration</body></html>`, "ember", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindPermalink(tt.page, tt.id, tt.prefix)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindPreload(t *testing.T) {
	page := `<script>window.preloadPage = f("https://raw.carpvs.com/ember.md", {});</script>`
	got, ok := FindPreload(page, "https://www.carpvs.com/ember")
	require.True(t, ok)
	assert.Equal(t, "https://raw.carpvs.com/ember.md", got)

	rel := `<script>window.preloadPage=load('/content/ember.md')</script>`
	got, ok = FindPreload(rel, "https://www.carpvs.com/lexicon/ember")
	require.True(t, ok)
	assert.Equal(t, "https://www.carpvs.com/content/ember.md", got)

	_, ok = FindPreload(`<html></html>`, "https://www.carpvs.com/ember")
	assert.False(t, ok)
}
